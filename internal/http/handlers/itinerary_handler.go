// Itinerary HTTP handlers.
//
// This file exposes REST endpoints for itinerary resources:
//   - POST   /itineraries          (create; AI suggestion fan-out; idempotency)
//   - GET    /itineraries          (list, paginated, ETag support)
//   - GET    /itineraries/{id}     (fetch one)
//   - PUT    /itineraries/{id}     (owner-only update)
//   - DELETE /itineraries/{id}     (owner-only delete)
//   - GET    /itineraries/{id}/suggestion  (AI suggestion read-back)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
//
// Idempotency:
// If the client supplies an Idempotency-Key header on create and a previous
// successful result exists for (user, route, key), the handler returns the
// recorded itinerary and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/http/middleware"
	"github.com/roamline/go-trip-backend/internal/repo"
	"github.com/roamline/go-trip-backend/internal/services"
)

//
// DTOs
//

// ItineraryRequest is the JSON payload for creating or updating an itinerary.
type ItineraryRequest struct {
	// Title of the trip. Required.
	Title string `json:"title" binding:"required,min=1" example:"Kyoto in spring"`
	// Destination city/region/country. Required.
	Destination string `json:"destination" example:"Kyoto, Japan"`
	// StartDate in YYYY-MM-DD form.
	StartDate string `json:"start_date" example:"2026-04-02"`
	// EndDate in YYYY-MM-DD form; must not precede StartDate.
	EndDate string `json:"end_date" example:"2026-04-09"`
	// ShortDescription is a teaser of at most 80 characters.
	ShortDescription string `json:"short_description" example:"Cherry blossoms, temples, and kaiseki."`
	// DetailDescription is the free-form long text.
	DetailDescription string `json:"detail_description" example:"Day 1: arrive at KIX…"`
}

// CreateItineraryResponse wraps a created itinerary together with the AI
// suggestion outcome observed within the soft time budget.
type CreateItineraryResponse struct {
	Itinerary *domain.Itinerary `json:"itinerary"`
	// AIStatus is one of queued, ok, no_suggestion, error.
	AIStatus string `json:"ai_status" example:"queued"`
	// Suggestion carries the generated text when AIStatus is ok.
	Suggestion string `json:"suggestion,omitempty"`
}

// ListItinerariesResponse contains a page of itineraries and pagination metadata.
type ListItinerariesResponse struct {
	Itineraries []domain.Itinerary `json:"itineraries"`
	Pagination  Pagination         `json:"pagination"`
}

// SuggestionResponse is the read-back shape for an itinerary's AI suggestion.
type SuggestionResponse struct {
	ItineraryID string `json:"itinerary_id"`
	// Status is one of queued, ok, no_suggestion, error.
	Status     string `json:"status" example:"ok"`
	Suggestion string `json:"suggestion,omitempty"`
	Model      string `json:"model,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func (in ItineraryRequest) toInput() services.ItineraryInput {
	return services.ItineraryInput{
		Title:             in.Title,
		Destination:       in.Destination,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		ShortDescription:  in.ShortDescription,
		DetailDescription: in.DetailDescription,
	}
}

// itineraryDB exposes the service's gorm handle for ETag and idempotency
// fast paths. Returns nil when the concrete type is not the default service.
func (h *Handlers) itineraryDB() *gorm.DB {
	if svc, ok := h.itinSvc.(*services.ItineraryService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// CreateItinerary godoc
// @ID          createItinerary
// @Summary     Create an itinerary
// @Description Creates a trip itinerary for the current traveller and kicks off AI suggestion
// @Description generation. The response always reports ai_status; "queued" means the pipeline
// @Description is still running and the result can be fetched from /itineraries/{id}/suggestion.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Itineraries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ItineraryRequest  true  "Itinerary payload"
//
// @Success     201  {object}  handlers.CreateItineraryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /itineraries [post]
func (h *Handlers) CreateItinerary(c *gin.Context) {
	ctx := c.Request.Context()
	email := userEmail(c)

	var req ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middleware.GetIdempotencyKey(c)
	scope := c.FullPath()
	if idemKey != "" {
		if db := h.itineraryDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, email, scope, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetItinerary(ctx, db, rec.ItineraryID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					status, suggestion := h.suggestionOutcome(c, prev.ID)
					ok(c, http.StatusCreated, CreateItineraryResponse{
						Itinerary:  prev,
						AIStatus:   status,
						Suggestion: suggestion,
					})
					return
				}
			}
		}
	}

	owner, err := h.travellerSvc.Ensure(ctx, email, middleware.UserName(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	it, aiStatus, suggestion, err := h.itinSvc.Create(ctx, owner, req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrShortDescriptionTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest,
				fmt.Sprintf("short_description too long: max %d characters", domain.ShortDescriptionMax))
		case errors.Is(err, services.ErrInvalidItinerary):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.itineraryDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, email, scope, idemKey, it.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, CreateItineraryResponse{
		Itinerary:  it,
		AIStatus:   aiStatus,
		Suggestion: suggestion,
	})
}

// ListItineraries godoc
// @ID          listItineraries
// @Summary     List itineraries (paginated)
// @Description Returns a page of itineraries, newest first. Pass mine=true to restrict the
// @Description listing to the current traveller. Supports weak ETag via If-None-Match.
// @Tags        Itineraries
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       mine           query   bool    false "Only the current traveller's itineraries"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListItinerariesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries [get]
func (h *Handlers) ListItineraries(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	filterOwner := ""
	if strings.EqualFold(c.Query("mine"), "true") {
		filterOwner = userEmail(c)
	}

	// ETag pre-check (best effort).
	if db := h.itineraryDB(); db != nil {
		count, maxTS, err := repo.ItinerariesStats(ctx, db, filterOwner)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"itineraries:%s:%d:%d"`, filterOwner, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.itinSvc.ListPage(ctx, filterOwner, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListItinerariesResponse{
		Itineraries: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetItinerary godoc
// @ID          getItinerary
// @Summary     Fetch one itinerary
// @Tags        Itineraries
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Itinerary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id} [get]
func (h *Handlers) GetItinerary(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	it, err := h.itinSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, it)
}

// UpdateItinerary godoc
// @ID          updateItinerary
// @Summary     Update an itinerary
// @Description Updates an itinerary owned by the current traveller. Requests for someone
// @Description else's itinerary fail with 403; a missing itinerary fails with 404.
// @Tags        Itineraries
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Itinerary ID (UUID)"  format(uuid)
// @Param       body  body  handlers.ItineraryRequest  true  "Updated fields"
//
// @Success     200  {object} domain.Itinerary
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id} [put]
func (h *Handlers) UpdateItinerary(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	var req ItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	it, err := h.itinSvc.Update(c.Request.Context(), userEmail(c), id, req.toInput())
	if err != nil {
		h.failItineraryMutation(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, it)
}

// DeleteItinerary godoc
// @ID          deleteItinerary
// @Summary     Delete an itinerary
// @Description Soft-deletes an itinerary owned by the current traveller and schedules
// @Description removal of its likes, comments, and suggestion documents.
// @Tags        Itineraries
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the owner"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id} [delete]
func (h *Handlers) DeleteItinerary(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	if err := h.itinSvc.Delete(c.Request.Context(), userEmail(c), id); err != nil {
		h.failItineraryMutation(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

// GetSuggestion godoc
// @ID          getSuggestion
// @Summary     Read back the AI travel suggestion
// @Description Returns the persisted state of the itinerary's AI suggestion. An itinerary
// @Description whose pipeline has not written a record yet reads as queued.
// @Tags        Itineraries
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.SuggestionResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id}/suggestion [get]
func (h *Handlers) GetSuggestion(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	if h.suggSvc == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeInternal, "suggestion pipeline not configured")
		return
	}

	rec, err := h.suggSvc.Status(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	resp := SuggestionResponse{
		ItineraryID: id,
		Status:      rec.Status,
		Suggestion:  rec.Suggestion,
		Model:       rec.Model,
	}
	if !rec.UpdatedAt.IsZero() {
		resp.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}
	ok(c, http.StatusOK, resp)
}

// suggestionOutcome reads the persisted suggestion state for replayed
// creates. Absent or failing reads degrade to queued.
func (h *Handlers) suggestionOutcome(c *gin.Context, itineraryID string) (status, suggestion string) {
	if h.suggSvc == nil {
		return domain.SuggestionQueued, ""
	}
	rec, err := h.suggSvc.Status(c.Request.Context(), itineraryID)
	if err != nil || rec == nil {
		return domain.SuggestionQueued, ""
	}
	if rec.Status == domain.SuggestionOK {
		return rec.Status, rec.Suggestion
	}
	return rec.Status, ""
}

// failItineraryMutation maps service errors from update/delete to responses.
func (h *Handlers) failItineraryMutation(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrItineraryNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
	case errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "itinerary belongs to another traveller")
	case errors.Is(err, services.ErrShortDescriptionTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest,
			fmt.Sprintf("short_description too long: max %d characters", domain.ShortDescriptionMax))
	case errors.Is(err, services.ErrInvalidItinerary):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}
