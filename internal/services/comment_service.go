// Package services – CommentService
//
// This file implements CommentService: adding, listing and deleting comments
// on itineraries. Comments live in the document store; the relational layer
// is consulted only to confirm the itinerary exists. Deleting is restricted
// to the comment's author.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/docstore"
	"github.com/roamline/go-trip-backend/internal/domain"
)

// CommentStore is the document-store contract required by CommentService.
// Lookups and deletes are itinerary-scoped, so a comment id from a different
// itinerary reads as absent.
type CommentStore interface {
	AddComment(ctx context.Context, c *domain.Comment) error
	ListComments(ctx context.Context, itineraryID string, limit int64) ([]domain.Comment, error)
	GetComment(ctx context.Context, itineraryID, commentID string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, itineraryID, commentID, authorEmail string) error
}

// CommentService mediates comment CRUD between HTTP handlers and the
// document store.
type CommentService struct {
	DB       *gorm.DB
	Repo     ItineraryRepo
	Comments CommentStore

	// MaxListed caps how many comments a single listing returns.
	MaxListed int64
}

// Add records a comment by email on the itinerary. The text must be
// non-blank and the itinerary must exist.
func (s *CommentService) Add(ctx context.Context, itineraryID, email, text string) (*domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}
	if _, err := s.Repo.GetItinerary(ctx, s.DB, itineraryID); err != nil {
		return nil, ErrItineraryNotFound
	}
	c := &domain.Comment{
		ID:          uuid.NewString(),
		ItineraryID: itineraryID,
		Email:       email,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Comments.AddComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the itinerary's comments, newest first.
func (s *CommentService) List(ctx context.Context, itineraryID string) ([]domain.Comment, error) {
	if _, err := s.Repo.GetItinerary(ctx, s.DB, itineraryID); err != nil {
		return nil, ErrItineraryNotFound
	}
	limit := s.MaxListed
	if limit <= 0 {
		limit = 200
	}
	return s.Comments.ListComments(ctx, itineraryID, limit)
}

// Delete removes a comment authored by email. A missing comment, or one that
// belongs to a different itinerary, yields ErrCommentNotFound; someone else's
// comment yields ErrNotCommentAuthor.
func (s *CommentService) Delete(ctx context.Context, itineraryID, commentID, email string) error {
	c, err := s.Comments.GetComment(ctx, itineraryID, commentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	if c.Email != email {
		return ErrNotCommentAuthor
	}
	if err := s.Comments.DeleteComment(ctx, itineraryID, commentID, email); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCommentNotFound
		}
		return err
	}
	return nil
}
