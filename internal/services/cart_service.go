package services

import (
	"fmt"
	"sync"

	"pustaka/internal/models"
)

// CartService holds each user's shopping selection in memory for the
// duration of a session. Carts are presentation-layer state, not
// transactional state: they are never persisted, and a restart loses them.
type CartService struct {
	carts map[string]map[string]models.CartItem // userID -> ebookID -> line
	mu    sync.RWMutex
}

// NewCartService creates a new CartService.
func NewCartService() *CartService {
	return &CartService{
		carts: make(map[string]map[string]models.CartItem),
	}
}

// AddItem inserts a new line into the user's cart. Adding an ID that is
// already present is a no-op; quantity changes go through UpdateQuantity.
func (s *CartService) AddItem(userID string, item models.CartItem) error {
	if item.EbookID == "" {
		return fmt.Errorf("cart item is missing an ebook ID")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		cart = make(map[string]models.CartItem)
		s.carts[userID] = cart
	}
	if _, exists := cart[item.EbookID]; exists {
		return nil
	}
	cart[item.EbookID] = item
	return nil
}

// UpdateQuantity sets the quantity for an existing line.
func (s *CartService) UpdateQuantity(userID, ebookID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return fmt.Errorf("cart line for ebook %s not found", ebookID)
	}
	item, ok := cart[ebookID]
	if !ok {
		return fmt.Errorf("cart line for ebook %s not found", ebookID)
	}
	item.Quantity = quantity
	cart[ebookID] = item
	return nil
}

// RemoveItem deletes a line from the user's cart.
func (s *CartService) RemoveItem(userID, ebookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart, ok := s.carts[userID]
	if !ok {
		return fmt.Errorf("cart line for ebook %s not found", ebookID)
	}
	if _, exists := cart[ebookID]; !exists {
		return fmt.Errorf("cart line for ebook %s not found", ebookID)
	}
	delete(cart, ebookID)
	return nil
}

// Items returns the current lines in the user's cart.
func (s *CartService) Items(userID string) []models.CartItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart := s.carts[userID]
	items := make([]models.CartItem, 0, len(cart))
	for _, item := range cart {
		items = append(items, item)
	}
	return items
}

// Total returns the sum of price x quantity over the user's cart lines.
func (s *CartService) Total(userID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, item := range s.carts[userID] {
		total += item.DiscountedPrice * float64(item.Quantity)
	}
	return total
}

// Clear empties the user's cart. Invoked after a successful payment
// verification, or explicitly by the user.
func (s *CartService) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
