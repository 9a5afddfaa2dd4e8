// Package services defines the business logic for travellers, itineraries,
// likes, comments, and AI suggestions. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrItineraryNotFound indicates that the requested itinerary does not
	// exist.
	ErrItineraryNotFound = errors.New("itinerary not found")

	// ErrNotOwner is returned when a caller attempts to mutate an itinerary
	// they do not own.
	ErrNotOwner = errors.New("caller does not own this itinerary")

	// ErrTravellerNotFound indicates that no traveller row exists for the
	// caller's email yet.
	ErrTravellerNotFound = errors.New("traveller not found")

	// ErrInvalidItinerary is returned when itinerary fields fail validation
	// (missing title/destination, malformed dates, end before start).
	ErrInvalidItinerary = errors.New("invalid itinerary fields")

	// ErrShortDescriptionTooLong is returned when short_description exceeds
	// the 80-rune cap.
	ErrShortDescriptionTooLong = errors.New("short description too long")

	// ErrEmptyName is returned when a traveller rename has no text.
	ErrEmptyName = errors.New("name is empty")

	// ErrEmptyComment is returned when a comment has no text.
	ErrEmptyComment = errors.New("comment is empty")

	// ErrCommentNotFound indicates that the requested comment does not exist.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrNotCommentAuthor is returned when a caller attempts to delete a
	// comment they did not write.
	ErrNotCommentAuthor = errors.New("caller is not the comment author")

	// ErrUnsupportedAvatarType is returned when an avatar upload's content
	// type is outside the allowlist.
	ErrUnsupportedAvatarType = errors.New("unsupported avatar content type")

	// ErrAvatarStorageUnavailable is returned when no object storage is
	// configured for avatar uploads.
	ErrAvatarStorageUnavailable = errors.New("avatar storage not configured")
)
