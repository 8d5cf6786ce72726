package services

import (
	"errors"
	"fmt"
	"log"

	"pustaka/internal/models"
	"pustaka/internal/repositories"
)

// Sharing failure reasons. All are returned as typed results and surfaced to
// the user as short messages, never as unhandled exceptions.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSelfShare          = errors.New("cannot share to yourself")
	ErrInsufficientCopies = repositories.ErrInsufficientCopies
	ErrAlreadyShared      = errors.New("already shared with this user")
	ErrNotShared          = errors.New("no share exists for this user")
)

// LibraryService exposes a user's library and the e-book sharing operations
// over the ownership ledger.
type LibraryService struct {
	userRepo    repositories.UserRepository
	libraryRepo repositories.LibraryRepository
	events      EventPublisher // nil disables event publishing
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(userRepo repositories.UserRepository, libraryRepo repositories.LibraryRepository, events EventPublisher) *LibraryService {
	return &LibraryService{
		userRepo:    userRepo,
		libraryRepo: libraryRepo,
		events:      events,
	}
}

// LibraryView is what the library page renders: books the user owns, grants
// they have received from others, and grants they have given out (the latter
// is what a reclaim acts on).
type LibraryView struct {
	Owned    []models.OwnedEbook  `json:"owned"`
	Received []models.SharedEbook `json:"received"`
	Given    []models.SharedEbook `json:"given"`
}

// Library returns the user's owned books plus shares in both directions.
func (s *LibraryService) Library(userID string) (*LibraryView, error) {
	owned, err := s.libraryRepo.ListOwned(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned ebooks: %w", err)
	}
	received, err := s.libraryRepo.ListSharesTo(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list received shares: %w", err)
	}
	given, err := s.libraryRepo.ListSharesFrom(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list given shares: %w", err)
	}
	return &LibraryView{Owned: owned, Received: received, Given: given}, nil
}

// ShareEbook gives one copy of an owned e-book to the user behind toEmail.
// The sender must keep at least one copy (Available must exceed 1), one
// grant per recipient per book, and the grant plus the Available decrement
// commit atomically.
func (s *LibraryService) ShareEbook(fromUserID, toEmail, ebookID string) error {
	toUser, err := s.userRepo.GetByEmail(toEmail)
	if err != nil {
		return ErrUserNotFound
	}
	if toUser.ID == fromUserID {
		return ErrSelfShare
	}

	owned, err := s.libraryRepo.GetOwned(fromUserID, ebookID)
	if err != nil {
		return ErrInsufficientCopies
	}
	if owned.Available <= 1 {
		return ErrInsufficientCopies
	}

	if _, err := s.libraryRepo.GetShare(fromUserID, toUser.ID, ebookID); err == nil {
		return ErrAlreadyShared
	} else if !errors.Is(err, repositories.ErrShareNotFound) {
		return fmt.Errorf("failed to check existing share: %w", err)
	}

	share := &models.SharedEbook{
		FromUserID:   fromUserID,
		ToUserID:     toUser.ID,
		EbookID:      ebookID,
		OwnedEbookID: owned.ID,
	}
	if err := s.libraryRepo.Share(share); err != nil {
		if errors.Is(err, repositories.ErrInsufficientCopies) {
			return ErrInsufficientCopies
		}
		return fmt.Errorf("failed to share ebook: %w", err)
	}

	if s.events != nil {
		payload := map[string]interface{}{
			"from_user_id": fromUserID,
			"to_user_id":   toUser.ID,
			"ebook_id":     ebookID,
		}
		if err := s.events.PublishEvent("ebook.shared", payload); err != nil {
			log.Printf("Warning: Failed to publish ebook shared event: %v", err)
		}
	}
	return nil
}

// ReclaimEbook reverses a share: the grant is removed and the copy returns
// to the sender's Available count, atomically.
func (s *LibraryService) ReclaimEbook(fromUserID, toUserID, ebookID string) error {
	err := s.libraryRepo.Reclaim(fromUserID, toUserID, ebookID)
	if errors.Is(err, repositories.ErrShareNotFound) {
		return ErrNotShared
	}
	if err != nil {
		return fmt.Errorf("failed to reclaim ebook: %w", err)
	}
	return nil
}
