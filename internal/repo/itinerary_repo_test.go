package repo

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/domain"
)

func seedTraveller(t *testing.T, db *gorm.DB, email string) *domain.Traveller {
	t.Helper()
	tr, err := EnsureTraveller(context.Background(), db, email, "Test Traveller")
	if err != nil {
		t.Fatalf("seed traveller %s: %v", email, err)
	}
	return tr
}

func seedItinerary(t *testing.T, db *gorm.DB, owner *domain.Traveller, title string) *domain.Itinerary {
	t.Helper()
	it := &domain.Itinerary{
		ID:               uuid.NewString(),
		TravellerID:      owner.ID,
		OwnerEmail:       owner.Email,
		Title:            title,
		Destination:      "Kyoto",
		StartDate:        "2026-04-01",
		EndDate:          "2026-04-08",
		ShortDescription: "Cherry blossoms and temples",
	}
	if err := CreateItinerary(context.Background(), db, it); err != nil {
		t.Fatalf("seed itinerary %s: %v", title, err)
	}
	return it
}

func TestGetItinerary_RoundTrip(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ana := seedTraveller(t, db, "ana@example.com")
	created := seedItinerary(t, db, ana, "Kyoto in spring")

	got, err := GetItinerary(context.Background(), db, created.ID)
	if err != nil {
		t.Fatalf("GetItinerary: %v", err)
	}
	if got.Title != "Kyoto in spring" || got.OwnerEmail != "ana@example.com" {
		t.Fatalf("unexpected row: %+v", got)
	}

	if _, err := GetItinerary(context.Background(), db, uuid.NewString()); err != ErrNotFound {
		t.Fatalf("missing id: expected ErrNotFound, got %v", err)
	}
}

func TestGetItineraryOwned_HidesOtherOwners(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ana := seedTraveller(t, db, "ana@example.com")
	it := seedItinerary(t, db, ana, "Lisbon weekend")

	if _, err := GetItineraryOwned(context.Background(), db, it.ID, "ana@example.com"); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := GetItineraryOwned(context.Background(), db, it.ID, "bob@example.com"); err != ErrNotFound {
		t.Fatalf("non-owner read: expected ErrNotFound, got %v", err)
	}
}

func TestListItinerariesPage_OrderAndOwnerFilter(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ctx := context.Background()
	ana := seedTraveller(t, db, "ana@example.com")
	bob := seedTraveller(t, db, "bob@example.com")

	first := seedItinerary(t, db, ana, "First")
	// Force a strictly later created_at so the descending order is deterministic.
	second := seedItinerary(t, db, ana, "Second")
	if err := db.Model(second).Update("created_at", time.Now().Add(time.Minute)).Error; err != nil {
		t.Fatalf("bump created_at: %v", err)
	}
	seedItinerary(t, db, bob, "Bob's trip")

	all, err := ListItinerariesPage(ctx, db, "", 0, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}
	if all[0].ID != second.ID {
		t.Fatalf("expected newest first, got %q", all[0].Title)
	}

	mine, err := ListItinerariesPage(ctx, db, "ana@example.com", 0, 10)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("owner filter: expected 2 rows, got %d", len(mine))
	}

	page, err := ListItinerariesPage(ctx, db, "", 1, 1)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("offset/limit: expected 1 row, got %d", len(page))
	}

	total, err := CountItineraries(ctx, db, "ana@example.com")
	if err != nil || total != 2 {
		t.Fatalf("count mine: got (%d, %v)", total, err)
	}
	_ = first
}

func TestUpdateItinerary_OwnerScoped(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ctx := context.Background()
	ana := seedTraveller(t, db, "ana@example.com")
	it := seedItinerary(t, db, ana, "Old title")

	updates := map[string]any{"title": "New title"}

	if err := UpdateItinerary(ctx, db, it.ID, "bob@example.com", updates); err != ErrNotFound {
		t.Fatalf("non-owner update: expected ErrNotFound, got %v", err)
	}
	if err := UpdateItinerary(ctx, db, it.ID, "ana@example.com", updates); err != nil {
		t.Fatalf("owner update: %v", err)
	}

	got, err := GetItinerary(ctx, db, it.ID)
	if err != nil {
		t.Fatalf("re-read: %v", err)
	}
	if got.Title != "New title" {
		t.Fatalf("update not applied: %q", got.Title)
	}
}

func TestDeleteItinerary_OwnerScoped(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ctx := context.Background()
	ana := seedTraveller(t, db, "ana@example.com")
	it := seedItinerary(t, db, ana, "Doomed")

	if err := DeleteItinerary(ctx, db, it.ID, "bob@example.com"); err != ErrNotFound {
		t.Fatalf("non-owner delete: expected ErrNotFound, got %v", err)
	}
	if err := DeleteItinerary(ctx, db, it.ID, "ana@example.com"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := GetItinerary(ctx, db, it.ID); err != ErrNotFound {
		t.Fatalf("read after delete: expected ErrNotFound, got %v", err)
	}
	// Deleting again reports not found, not success.
	if err := DeleteItinerary(ctx, db, it.ID, "ana@example.com"); err != ErrNotFound {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestItinerariesStats(t *testing.T) {
	db := newRepoDB(t, &domain.Traveller{}, &domain.Itinerary{})
	ctx := context.Background()

	count, maxUpdated, err := ItinerariesStats(ctx, db, "")
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || maxUpdated != nil {
		t.Fatalf("empty table: got count=%d maxUpdated=%v", count, maxUpdated)
	}

	ana := seedTraveller(t, db, "ana@example.com")
	seedItinerary(t, db, ana, "A")
	seedItinerary(t, db, ana, "B")

	count, maxUpdated, err = ItinerariesStats(ctx, db, "ana@example.com")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if count != 2 || maxUpdated == nil || maxUpdated.IsZero() {
		t.Fatalf("got count=%d maxUpdated=%v", count, maxUpdated)
	}
}

func TestItineraryRepo_NoTable(t *testing.T) {
	db := newRepoDB(t) // no migrations
	if _, err := GetItinerary(context.Background(), db, "x"); err == nil {
		t.Fatal("expected an error when the table is missing")
	}
}
