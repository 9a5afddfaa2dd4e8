// Traveller profile HTTP handlers.
//
// This file exposes REST endpoints for the authenticated traveller:
//   - GET  /me         (fetch or lazily create the profile)
//   - PUT  /me         (rename)
//   - POST /me/avatar  (multipart avatar upload to object storage)
//
// Identity comes exclusively from the bearer token; there is no way to read
// or modify another traveller's profile through these endpoints.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roamline/go-trip-backend/internal/http/middleware"
	"github.com/roamline/go-trip-backend/internal/services"
)

//
// DTOs
//

// UpdateMeRequest is the JSON payload for renaming the current traveller.
type UpdateMeRequest struct {
	// Name is the new display name (1–120 chars after normalization).
	Name string `json:"name" binding:"required,min=1" example:"Ana Silva"`
}

// AvatarResponse carries the public URL of a freshly uploaded avatar.
type AvatarResponse struct {
	AvatarURL string `json:"avatar_url" example:"https://storage.googleapis.com/roamline-avatars/avatars/abc.png"`
}

// discoverMaxAvatarBytes inspects the concrete TravellerService for a
// configured upload cap. If unavailable, it returns a conservative fallback.
func discoverMaxAvatarBytes(svc TravellerService) int64 {
	const fallback = 5 << 20
	if ts, ok := svc.(*services.TravellerService); ok {
		if ts.MaxAvatarBytes > 0 {
			return ts.MaxAvatarBytes
		}
	}
	return fallback
}

//
// Handlers
//

// GetMe godoc
// @ID          getMe
// @Summary     Get the current traveller's profile
// @Description Returns the profile for the authenticated traveller, creating it on first sight.
// @Tags        Travellers
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.TravellerResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /me [get]
func (h *Handlers) GetMe(c *gin.Context) {
	t, err := h.travellerSvc.Ensure(c.Request.Context(), userEmail(c), middleware.UserName(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, travellerResponse(t))
}

// UpdateMe godoc
// @ID          updateMe
// @Summary     Rename the current traveller
// @Description Updates the display name of the authenticated traveller.
// @Tags        Travellers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateMeRequest  true  "New display name"
//
// @Success     200  {object}  handlers.TravellerResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /me [put]
func (h *Handlers) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	email := userEmail(c)
	if err := h.travellerSvc.Rename(c.Request.Context(), email, req.Name); err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyName):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		case errors.Is(err, services.ErrTravellerNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "traveller not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, err.Error())
		}
		return
	}

	t, err := h.travellerSvc.Get(c.Request.Context(), email)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, travellerResponse(t))
}

// UploadAvatar godoc
// @ID          uploadAvatar
// @Summary     Upload an avatar image
// @Description Accepts a multipart form with an "avatar" file part (JPEG, PNG, or WebP),
// @Description stores it in object storage with public-read access, and returns the URL.
// @Tags        Travellers
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
//
// @Param       avatar  formData  file  true  "Image file (jpeg/png/webp)"
//
// @Success     200  {object}  handlers.AvatarResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     413  {object}  handlers.ErrorResponse  "Payload too large"
// @Failure     415  {object}  handlers.ErrorResponse  "Unsupported media type"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Storage not configured"
// @Router      /me/avatar [post]
func (h *Handlers) UploadAvatar(c *gin.Context) {
	maxBytes := discoverMaxAvatarBytes(h.travellerSvc)

	fh, err := c.FormFile("avatar")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart "avatar" file required`)
		return
	}
	if fh.Size > maxBytes {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "avatar exceeds upload limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable avatar upload")
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	url, err := h.travellerSvc.UploadAvatar(c.Request.Context(), userEmail(c), contentType, f)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnsupportedAvatarType):
			fail(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, "avatar must be JPEG, PNG, or WebP")
		case errors.Is(err, services.ErrTravellerNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "traveller not found")
		case errors.Is(err, services.ErrAvatarStorageUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeUploadFailed, "avatar storage not configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AvatarResponse{AvatarURL: url})
}
