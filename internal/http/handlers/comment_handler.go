// Comment HTTP handlers.
//
// This file exposes REST endpoints for itinerary comments:
//   - POST   /itineraries/{id}/comments  (add)
//   - GET    /itineraries/{id}/comments  (list, newest first)
//   - DELETE /comments/{id}              (author-only; requires itinerary_id)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/services"
)

//
// DTOs
//

// AddCommentRequest is the JSON payload for commenting on an itinerary.
type AddCommentRequest struct {
	// Text is the comment body. It must be non-blank.
	Text string `json:"text" binding:"required,min=1" example:"Don't miss the bamboo grove at dawn!"`
}

// ListCommentsResponse contains an itinerary's comments, newest first.
type ListCommentsResponse struct {
	ItineraryID string           `json:"itinerary_id"`
	Comments    []domain.Comment `json:"comments"`
}

//
// Handlers
//

// AddComment godoc
// @ID          addComment
// @Summary     Comment on an itinerary
// @Tags        Comments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Itinerary ID (UUID)"  format(uuid)
// @Param       body  body  handlers.AddCommentRequest  true  "Comment payload"
//
// @Success     201  {object} domain.Comment
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id}/comments [post]
func (h *Handlers) AddComment(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		return
	}

	cm, err := h.commentSvc.Add(c.Request.Context(), id, userEmail(c), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyComment):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "text required")
		case errors.Is(err, services.ErrItineraryNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List an itinerary's comments
// @Description Returns comments newest first.
// @Tags        Comments
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.ListCommentsResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Itinerary not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /itineraries/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary id must be a UUID")
		return
	}

	items, err := h.commentSvc.List(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrItineraryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "itinerary not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Comment{}
	}
	ok(c, http.StatusOK, ListCommentsResponse{ItineraryID: id, Comments: items})
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete a comment
// @Description Deletes a comment authored by the current traveller. The itinerary_id query
// @Description parameter scopes the lookup; a comment on a different itinerary reads as 404.
// @Tags        Comments
// @Security    BearerAuth
//
// @Param       id            path   string  true  "Comment ID (UUID)"    format(uuid)
// @Param       itinerary_id  query  string  true  "Itinerary ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Comment not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /comments/{id} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a UUID")
		return
	}
	itineraryID := c.Query("itinerary_id")
	if _, err := uuid.Parse(itineraryID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "itinerary_id query parameter must be a UUID")
		return
	}

	err := h.commentSvc.Delete(c.Request.Context(), itineraryID, commentID, userEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCommentNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
		case errors.Is(err, services.ErrNotCommentAuthor):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "comment belongs to another traveller")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
		}
		return
	}
	noContent(c)
}
