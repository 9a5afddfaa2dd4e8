// Package services – LikeService
//
// This file implements LikeService, which toggles a traveller's like on an
// itinerary. Presence of the like document means liked; two consecutive
// toggles by the same traveller restore the prior state and count.
package services

import (
	"context"

	"gorm.io/gorm"
)

// LikeStore is the document-store contract required by LikeService.
type LikeStore interface {
	ToggleLike(ctx context.Context, itineraryID, email string) (liked bool, count int64, err error)
	LikeCount(ctx context.Context, itineraryID string) (int64, error)
	IsLiked(ctx context.Context, itineraryID, email string) (bool, error)
}

// LikeService validates the target itinerary and flips like state in the
// document store.
type LikeService struct {
	DB    *gorm.DB
	Repo  ItineraryRepo
	Likes LikeStore
}

// Toggle flips the caller's like on the itinerary and returns the new state
// and count. The itinerary must exist.
func (s *LikeService) Toggle(ctx context.Context, itineraryID, email string) (bool, int64, error) {
	if _, err := s.Repo.GetItinerary(ctx, s.DB, itineraryID); err != nil {
		return false, 0, ErrItineraryNotFound
	}
	return s.Likes.ToggleLike(ctx, itineraryID, email)
}

// Status reports whether the caller likes the itinerary and its like count.
func (s *LikeService) Status(ctx context.Context, itineraryID, email string) (bool, int64, error) {
	liked, err := s.Likes.IsLiked(ctx, itineraryID, email)
	if err != nil {
		return false, 0, err
	}
	count, err := s.Likes.LikeCount(ctx, itineraryID)
	return liked, count, err
}
