package services

import (
	"context"
	"fmt"

	"pustaka/internal/repositories"

	"golang.org/x/sync/errgroup"
)

// AnalyticsService assembles the admin dashboard numbers. The underlying
// aggregates are independent reads, so they fan out concurrently.
type AnalyticsService struct {
	userRepo  repositories.UserRepository
	ebookRepo repositories.EbookRepository
	orderRepo repositories.OrderRepository
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(userRepo repositories.UserRepository, ebookRepo repositories.EbookRepository, orderRepo repositories.OrderRepository) *AnalyticsService {
	return &AnalyticsService{
		userRepo:  userRepo,
		ebookRepo: ebookRepo,
		orderRepo: orderRepo,
	}
}

// Analytics is the admin dashboard payload.
type Analytics struct {
	TotalUsers         int64            `json:"total_users"`
	TotalEbooks        int64            `json:"total_ebooks"`
	TotalOrders        int64            `json:"total_orders"`
	TotalRevenue       float64          `json:"total_revenue"`
	StatusDistribution map[string]int64 `json:"status_distribution"`
	CategoryBreakdown  map[string]int64 `json:"category_breakdown"`
}

// GetAnalytics gathers all dashboard aggregates concurrently and fails as a
// whole if any single read fails.
func (s *AnalyticsService) GetAnalytics(ctx context.Context) (*Analytics, error) {
	var result Analytics

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		count, err := s.userRepo.Count()
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		result.TotalUsers = count
		return nil
	})

	g.Go(func() error {
		count, err := s.ebookRepo.Count()
		if err != nil {
			return fmt.Errorf("failed to count ebooks: %w", err)
		}
		result.TotalEbooks = count
		return nil
	})

	g.Go(func() error {
		count, err := s.orderRepo.Count()
		if err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		result.TotalOrders = count
		return nil
	})

	g.Go(func() error {
		revenue, err := s.orderRepo.Revenue()
		if err != nil {
			return fmt.Errorf("failed to sum revenue: %w", err)
		}
		result.TotalRevenue = revenue
		return nil
	})

	g.Go(func() error {
		dist, err := s.orderRepo.CountByStatus()
		if err != nil {
			return fmt.Errorf("failed to break down order statuses: %w", err)
		}
		result.StatusDistribution = dist
		return nil
	})

	g.Go(func() error {
		breakdown, err := s.ebookRepo.CountByCategory()
		if err != nil {
			return fmt.Errorf("failed to break down categories: %w", err)
		}
		result.CategoryBreakdown = breakdown
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}
