// Package repo implements the relational persistence layer for domain
// entities, backed by GORM. This file provides repository functions for the
// Itinerary model.
//
// Error semantics:
//   - When an itinerary is not found (or not owned by the caller, for the
//     Owned variants), functions return gorm.ErrRecordNotFound (also exported
//     here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/domain"
)

// CreateItinerary inserts a new itinerary row. The caller is responsible for
// validation and for populating ID, owner fields, and timestamps.
func CreateItinerary(ctx context.Context, db *gorm.DB, it *domain.Itinerary) error {
	return db.WithContext(ctx).Create(it).Error
}

// GetItinerary fetches a single itinerary by ID regardless of owner, or
// ErrNotFound if missing.
func GetItinerary(ctx context.Context, db *gorm.DB, id string) (*domain.Itinerary, error) {
	var it domain.Itinerary
	if err := db.WithContext(ctx).Where("id = ?", id).First(&it).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

// GetItineraryOwned fetches an itinerary by ID only when ownerEmail matches
// the stored owner. A row owned by someone else reads as ErrNotFound here;
// callers that need to distinguish 403 from 404 should use GetItinerary and
// compare OwnerEmail themselves.
func GetItineraryOwned(ctx context.Context, db *gorm.DB, id, ownerEmail string) (*domain.Itinerary, error) {
	var it domain.Itinerary
	err := db.WithContext(ctx).
		Where("id = ? AND owner_email = ?", id, ownerEmail).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CountItineraries returns the total number of itineraries. An empty
// ownerEmail counts all itineraries; otherwise only the owner's.
func CountItineraries(ctx context.Context, db *gorm.DB, ownerEmail string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Itinerary{})
	if ownerEmail != "" {
		q = q.Where("owner_email = ?", ownerEmail)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListItinerariesPage returns a paginated slice of itineraries ordered by
// creation time descending. An empty ownerEmail lists all itineraries.
func ListItinerariesPage(ctx context.Context, db *gorm.DB, ownerEmail string, offset, limit int) ([]domain.Itinerary, error) {
	q := db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit)
	if ownerEmail != "" {
		q = q.Where("owner_email = ?", ownerEmail)
	}
	var out []domain.Itinerary
	err := q.Find(&out).Error
	return out, err
}

// UpdateItinerary applies the given column updates to an itinerary owned by
// ownerEmail. Returns ErrNotFound when no row matched.
func UpdateItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Itinerary{}).
		Where("id = ? AND owner_email = ?", id, ownerEmail).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteItinerary soft-deletes an itinerary owned by ownerEmail. Returns
// ErrNotFound when no row matched.
func DeleteItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_email = ?", id, ownerEmail).
		Delete(&domain.Itinerary{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ItinerariesStats returns aggregate metadata for the itinerary listing: the
// total number of rows and the maximum UpdatedAt timestamp among them. Used
// for weak-ETag generation in the HTTP layer. When there are no rows, the
// returned count is 0 and maxUpdatedAt is nil.
func ItinerariesStats(ctx context.Context, db *gorm.DB, ownerEmail string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Itinerary{})
	if ownerEmail != "" {
		q = q.Where("owner_email = ?", ownerEmail)
	}

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
