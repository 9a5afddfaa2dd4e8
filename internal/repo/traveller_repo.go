// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file provides repository functions for the
// Traveller model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roamline/go-trip-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// EnsureTraveller returns the traveller row for email, creating it on first
// sight. The name is taken from the identity token and refreshed only when
// the row is created; later renames go through UpdateTravellerName.
func EnsureTraveller(ctx context.Context, db *gorm.DB, email, name string) (*domain.Traveller, error) {
	t := &domain.Traveller{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(t).Error
	if err != nil {
		return nil, err
	}
	// Re-read so callers always see the canonical row (the insert above is a
	// no-op when the traveller already exists).
	var out domain.Traveller
	if err := db.WithContext(ctx).Where("email = ?", email).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTravellerByEmail fetches a traveller by unique email, or ErrNotFound.
func GetTravellerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Traveller, error) {
	var t domain.Traveller
	if err := db.WithContext(ctx).Where("email = ?", email).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTravellerName renames a traveller. Returns ErrNotFound when no row
// matches the email.
func UpdateTravellerName(ctx context.Context, db *gorm.DB, email, name string) error {
	res := db.WithContext(ctx).
		Model(&domain.Traveller{}).
		Where("email = ?", email).
		Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTravellerAvatar stores the public avatar URL for a traveller.
func UpdateTravellerAvatar(ctx context.Context, db *gorm.DB, email, url string) error {
	res := db.WithContext(ctx).
		Model(&domain.Traveller{}).
		Where("email = ?", email).
		Update("avatar_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
