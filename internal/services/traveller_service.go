// Package services – TravellerService
//
// This file implements the TravellerService, which manages traveller
// accounts. Travellers are created lazily on their first authenticated
// action; the service also handles display-name changes and avatar uploads
// to object storage.
package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/storage"
)

// TravellerRepo defines the repository contract required by TravellerService.
type TravellerRepo interface {
	// EnsureTraveller returns the row for email, creating it on first sight.
	EnsureTraveller(ctx context.Context, db *gorm.DB, email, name string) (*domain.Traveller, error)

	// GetTravellerByEmail fetches a traveller by unique email.
	GetTravellerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Traveller, error)

	// UpdateTravellerName renames a traveller.
	UpdateTravellerName(ctx context.Context, db *gorm.DB, email, name string) error

	// UpdateTravellerAvatar stores the public avatar URL.
	UpdateTravellerAvatar(ctx context.Context, db *gorm.DB, email, url string) error
}

// AvatarUploader is the object-storage contract for avatar uploads.
type AvatarUploader interface {
	Put(ctx context.Context, travellerID, contentType string, r io.Reader) (string, error)
}

// TravellerService provides traveller account operations.
type TravellerService struct {
	DB      *gorm.DB
	Repo    TravellerRepo
	Avatars AvatarUploader

	// NameMaxLen caps stored display names by rune length.
	NameMaxLen int

	// MaxAvatarBytes caps accepted avatar uploads. Values <= 0 leave the
	// cap to the transport layer.
	MaxAvatarBytes int64
}

// NewTravellerService constructs a TravellerService with sane defaults.
func NewTravellerService(db *gorm.DB, r TravellerRepo, av AvatarUploader) *TravellerService {
	return &TravellerService{DB: db, Repo: r, Avatars: av, NameMaxLen: 120, MaxAvatarBytes: 5 << 20}
}

// Ensure returns the traveller row for the authenticated identity, creating
// it on the first authenticated action.
func (s *TravellerService) Ensure(ctx context.Context, email, name string) (*domain.Traveller, error) {
	name = normalizeName(name)
	if name == "" {
		name = localPart(email)
	}
	return s.Repo.EnsureTraveller(ctx, s.DB, email, s.clip(name))
}

// Get fetches the traveller row for email.
func (s *TravellerService) Get(ctx context.Context, email string) (*domain.Traveller, error) {
	t, err := s.Repo.GetTravellerByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTravellerNotFound
		}
		return nil, err
	}
	return t, nil
}

// Rename updates the traveller's display name.
func (s *TravellerService) Rename(ctx context.Context, email, name string) error {
	name = normalizeName(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := s.Repo.UpdateTravellerName(ctx, s.DB, email, s.clip(name)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTravellerNotFound
		}
		return err
	}
	return nil
}

// UploadAvatar validates the content type, streams the image to object
// storage with public-read exposure, and records the resulting URL on the
// traveller row. The traveller must already exist.
func (s *TravellerService) UploadAvatar(ctx context.Context, email, contentType string, r io.Reader) (string, error) {
	if s.Avatars == nil {
		return "", ErrAvatarStorageUnavailable
	}
	if !storage.AllowedContentType(contentType) {
		return "", ErrUnsupportedAvatarType
	}
	t, err := s.Get(ctx, email)
	if err != nil {
		return "", err
	}
	url, err := s.Avatars.Put(ctx, t.ID, contentType, r)
	if err != nil {
		return "", err
	}
	if err := s.Repo.UpdateTravellerAvatar(ctx, s.DB, email, url); err != nil {
		return "", err
	}
	return url, nil
}

// clip truncates a display name to the configured maximum rune length.
func (s *TravellerService) clip(name string) string {
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		return string([]rune(name)[:s.NameMaxLen])
	}
	return name
}

// normalizeName trims whitespace and collapses multiple spaces to one.
func normalizeName(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// localPart falls back to the part before '@' when the token has no name.
func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
