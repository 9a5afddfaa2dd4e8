// Handler wiring and shared service contracts.
//
// Handlers are transport-thin: they validate and normalize inputs, delegate to
// application services, and translate results into HTTP responses (including
// conditional responses and idempotency semantics). All business rules live in
// the services package.
package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/http/middleware"
	"github.com/roamline/go-trip-backend/internal/services"
	"github.com/roamline/go-trip-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// TravellerService defines profile operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TravellerService interface {
	// Ensure upserts the traveller row for the authenticated identity.
	Ensure(ctx context.Context, email, name string) (*domain.Traveller, error)
	// Get returns the traveller profile by email.
	Get(ctx context.Context, email string) (*domain.Traveller, error)
	// Rename updates the traveller's display name.
	Rename(ctx context.Context, email, name string) error
	// UploadAvatar stores the image and returns its public URL.
	UploadAvatar(ctx context.Context, email, contentType string, r io.Reader) (string, error)
}

// ItineraryService defines itinerary lifecycle operations consumed by HTTP
// handlers.
type ItineraryService interface {
	// Create validates and persists a new itinerary, returning the stored
	// row plus the AI suggestion status resolved within the soft budget.
	Create(ctx context.Context, owner *domain.Traveller, in services.ItineraryInput) (*domain.Itinerary, string, string, error)
	// Get returns one itinerary by id.
	Get(ctx context.Context, id string) (*domain.Itinerary, error)
	// ListPage returns a page of itineraries and the total count. An empty
	// ownerEmail lists every traveller's itineraries.
	ListPage(ctx context.Context, ownerEmail string, page, pageSize int) ([]domain.Itinerary, int64, error)
	// Update applies owner-scoped changes to an itinerary.
	Update(ctx context.Context, ownerEmail, id string, in services.ItineraryInput) (*domain.Itinerary, error)
	// Delete soft-deletes an owner's itinerary and purges its documents.
	Delete(ctx context.Context, ownerEmail, id string) error
}

// LikeService defines like-toggle operations consumed by HTTP handlers.
type LikeService interface {
	// Toggle flips the caller's like and returns the new state and count.
	Toggle(ctx context.Context, itineraryID, email string) (bool, int64, error)
}

// CommentService defines comment operations consumed by HTTP handlers.
type CommentService interface {
	Add(ctx context.Context, itineraryID, email, text string) (*domain.Comment, error)
	List(ctx context.Context, itineraryID string) ([]domain.Comment, error)
	Delete(ctx context.Context, itineraryID, commentID, email string) error
}

// SuggestionService defines AI suggestion read-back consumed by HTTP handlers.
type SuggestionService interface {
	// Status returns the persisted suggestion state for an itinerary.
	Status(ctx context.Context, itineraryID string) (*domain.SuggestionRecord, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for travellers, itineraries, likes, comments,
// and AI suggestions. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	travellerSvc TravellerService
	itinSvc      ItineraryService
	likeSvc      LikeService
	commentSvc   CommentService
	suggSvc      SuggestionService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(travellerSvc TravellerService, itinSvc ItineraryService, likeSvc LikeService, commentSvc CommentService, suggSvc SuggestionService) *Handlers {
	return &Handlers{
		travellerSvc: travellerSvc,
		itinSvc:      itinSvc,
		likeSvc:      likeSvc,
		commentSvc:   commentSvc,
		suggSvc:      suggSvc,
	}
}

// userEmail extracts the authenticated traveller's email from the Gin context
// (set by the Auth middleware).
func userEmail(c *gin.Context) string {
	return middleware.UserEmail(c)
}

//
// Shared DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// TravellerResponse is the public shape of a traveller profile.
type TravellerResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func travellerResponse(t *domain.Traveller) TravellerResponse {
	return TravellerResponse{
		ID:        t.ID,
		Email:     t.Email,
		Name:      t.Name,
		AvatarURL: t.AvatarURL,
		CreatedAt: t.CreatedAt,
	}
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}
