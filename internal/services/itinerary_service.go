// Package services – ItineraryService
//
// This file implements ItineraryService, the application-level component
// that owns the itinerary lifecycle. It validates inputs, enforces the
// owner-only mutation rule, coordinates repository operations, fans newly
// created itineraries out to the AI suggestion pipeline, and triggers the
// asynchronous purge of document sub-collections on delete.
//
// Observability: the main entry points are OpenTelemetry-instrumented;
// spans include itinerary/owner identifiers.
package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roamline/go-trip-backend/internal/domain"
)

const dateLayout = "2006-01-02"

// ItineraryRepo defines the repository contract required by ItineraryService.
type ItineraryRepo interface {
	CreateItinerary(ctx context.Context, db *gorm.DB, it *domain.Itinerary) error
	GetItinerary(ctx context.Context, db *gorm.DB, id string) (*domain.Itinerary, error)
	CountItineraries(ctx context.Context, db *gorm.DB, ownerEmail string) (int64, error)
	ListItinerariesPage(ctx context.Context, db *gorm.DB, ownerEmail string, offset, limit int) ([]domain.Itinerary, error)
	UpdateItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string, updates map[string]any) error
	DeleteItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string) error
}

// Purger removes an itinerary's documents (likes, comments, suggestion)
// from the document store after the relational row is gone.
type Purger interface {
	PurgeItinerary(ctx context.Context, itineraryID string) error
}

// SuggestionKickoff is the seam to the AI suggestion pipeline. Kickoff runs
// the foreground/background orchestration for a new itinerary and reports
// whatever status is available when the soft budget elapses.
type SuggestionKickoff interface {
	Kickoff(ctx context.Context, it *domain.Itinerary) (status, suggestion string)
}

// ItineraryInput carries the client-supplied fields of a create or update.
type ItineraryInput struct {
	Title             string
	Destination       string
	StartDate         string
	EndDate           string
	ShortDescription  string
	DetailDescription string
}

// ItineraryService provides itinerary CRUD with ownership checks and the AI
// suggestion fan-out on create.
type ItineraryService struct {
	DB          *gorm.DB
	Repo        ItineraryRepo
	Docs        Purger
	Suggestions SuggestionKickoff

	// PurgeTimeout bounds the async document purge after delete.
	PurgeTimeout time.Duration
}

// NewItineraryService constructs an ItineraryService with sane defaults.
func NewItineraryService(db *gorm.DB, r ItineraryRepo, docs Purger, sugg SuggestionKickoff) *ItineraryService {
	return &ItineraryService{
		DB:           db,
		Repo:         r,
		Docs:         docs,
		Suggestions:  sugg,
		PurgeTimeout: 30 * time.Second,
	}
}

// Create validates and persists a new itinerary for the owner, then fans it
// out to the suggestion pipeline. The returned status/suggestion reflect
// whatever the pipeline produced within its soft budget; suggestion failures
// never fail the create.
func (s *ItineraryService) Create(ctx context.Context, owner *domain.Traveller, in ItineraryInput) (*domain.Itinerary, string, string, error) {
	tr := otel.Tracer("services/ItineraryService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("owner.email", owner.Email)),
	)
	defer span.End()

	it, err := s.buildValidated(owner, in)
	if err != nil {
		return nil, "", "", err
	}

	if err := s.Repo.CreateItinerary(ctx, s.DB, it); err != nil {
		return nil, "", "", err
	}
	span.SetAttributes(attribute.String("itinerary.id", it.ID))

	aiStatus, suggestion := domain.SuggestionQueued, ""
	if s.Suggestions != nil {
		aiStatus, suggestion = s.Suggestions.Kickoff(ctx, it)
	}
	return it, aiStatus, suggestion, nil
}

// Get fetches an itinerary by id.
func (s *ItineraryService) Get(ctx context.Context, id string) (*domain.Itinerary, error) {
	it, err := s.Repo.GetItinerary(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItineraryNotFound
		}
		return nil, err
	}
	return it, nil
}

// ListPage returns a page of itineraries plus the total count. An empty
// ownerEmail lists everyone's itineraries.
func (s *ItineraryService) ListPage(ctx context.Context, ownerEmail string, page, pageSize int) ([]domain.Itinerary, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountItineraries(ctx, s.DB, ownerEmail)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Itinerary{}, 0, nil
	}

	items, err := s.Repo.ListItinerariesPage(ctx, s.DB, ownerEmail, offset, pageSize)
	return items, total, err
}

// Update applies the input to an itinerary after verifying the caller owns
// it. Returns ErrItineraryNotFound / ErrNotOwner for the predictable cases.
func (s *ItineraryService) Update(ctx context.Context, callerEmail, id string, in ItineraryInput) (*domain.Itinerary, error) {
	if err := s.authorize(ctx, callerEmail, id); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"title":              normalizeName(in.Title),
		"destination":        titleCaser.String(normalizeName(in.Destination)),
		"start_date":         in.StartDate,
		"end_date":           in.EndDate,
		"short_description":  strings.TrimSpace(in.ShortDescription),
		"detail_description": strings.TrimSpace(in.DetailDescription),
	}
	if err := s.Repo.UpdateItinerary(ctx, s.DB, id, callerEmail, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItineraryNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an itinerary owned by callerEmail and kicks off an
// asynchronous purge of its like/comment/suggestion documents. The purge is
// eventually consistent: a crash between the row delete and the purge leaves
// orphaned documents that the next purge for the id would clear.
func (s *ItineraryService) Delete(ctx context.Context, callerEmail, id string) error {
	tr := otel.Tracer("services/ItineraryService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("itinerary.id", id)),
	)
	defer span.End()

	if err := s.authorize(ctx, callerEmail, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteItinerary(ctx, s.DB, id, callerEmail); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItineraryNotFound
		}
		return err
	}

	if s.Docs != nil {
		go func() {
			pctx, cancel := context.WithTimeout(context.Background(), s.purgeTimeout())
			defer cancel()
			if err := s.Docs.PurgeItinerary(pctx, id); err != nil {
				log.Error().Err(err).Str("itinerary_id", id).Msg("document purge failed")
			}
		}()
	}
	return nil
}

// authorize distinguishes 404 from 403: a missing row is not found, a row
// owned by someone else is an ownership violation.
func (s *ItineraryService) authorize(ctx context.Context, callerEmail, id string) error {
	it, err := s.Repo.GetItinerary(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItineraryNotFound
		}
		return err
	}
	if it.OwnerEmail != callerEmail {
		return ErrNotOwner
	}
	return nil
}

func (s *ItineraryService) purgeTimeout() time.Duration {
	if s.PurgeTimeout > 0 {
		return s.PurgeTimeout
	}
	return 30 * time.Second
}

// buildValidated normalizes and validates the input into a persistable row.
func (s *ItineraryService) buildValidated(owner *domain.Traveller, in ItineraryInput) (*domain.Itinerary, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return &domain.Itinerary{
		ID:                uuid.NewString(),
		TravellerID:       owner.ID,
		OwnerEmail:        owner.Email,
		Title:             normalizeName(in.Title),
		Destination:       titleCaser.String(normalizeName(in.Destination)),
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		ShortDescription:  strings.TrimSpace(in.ShortDescription),
		DetailDescription: strings.TrimSpace(in.DetailDescription),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

// validateInput enforces the itinerary field rules shared by create and
// update.
func validateInput(in ItineraryInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Destination) == "" {
		return ErrInvalidItinerary
	}
	start, err := time.Parse(dateLayout, in.StartDate)
	if err != nil {
		return ErrInvalidItinerary
	}
	end, err := time.Parse(dateLayout, in.EndDate)
	if err != nil {
		return ErrInvalidItinerary
	}
	if end.Before(start) {
		return ErrInvalidItinerary
	}
	if utf8.RuneCountInString(in.ShortDescription) > domain.ShortDescriptionMax {
		return ErrShortDescriptionTooLong
	}
	return nil
}

// titleCaser normalizes destination casing ("paris" -> "Paris").
var titleCaser = cases.Title(language.English)
