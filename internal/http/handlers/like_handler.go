// Like HTTP handler.
//
// POST /itineraries/{id}/like toggles the caller's like on an itinerary:
// the first call likes, the second unlikes, and so on. The response always
// carries the resulting state plus the updated like count.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamline/go-trip-backend/internal/services"
)

// LikeResponse reports the like state after a toggle.
type LikeResponse struct {
	ItineraryID string `json:"itinerary_id"`
	Liked       bool   `json:"liked"`
	Count       int64  `json:"count"`
}

// ToggleLike godoc
// @ID          toggleLike
// @Summary     Toggle a like on an itinerary
// @Description Likes the itinerary if the caller has not liked it, unlikes it otherwise.
// @Tags        Likes
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.LikeResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id}/like [post]
func (h *Handlers) ToggleLike(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	liked, count, err := h.likeSvc.Toggle(c.Request.Context(), id, userEmail(c))
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, LikeResponse{ItineraryID: id, Liked: liked, Count: count})
}
