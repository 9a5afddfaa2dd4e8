package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamline/go-trip-backend/internal/services"
)

func likeRouter(svc stubLikeSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubTravellerSvc{}, stubItinSvc{}, svc, stubCommentSvc{}, nil)
	r := gin.New()
	r.Use(identity)
	r.POST("/itineraries/:id/like", h.ToggleLike)
	return r
}

func TestToggleLike(t *testing.T) {
	t.Run("bad id", func(t *testing.T) {
		r := likeRouter(stubLikeSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/itineraries/nope/like", nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad id -> %d", w.Code)
		}
	})

	t.Run("missing itinerary", func(t *testing.T) {
		r := likeRouter(stubLikeSvc{
			toggle: func(ctx context.Context, id, email string) (bool, int64, error) {
				return false, 0, services.ErrItineraryNotFound
			},
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/itineraries/"+uuid.NewString()+"/like", nil))
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing -> %d", w.Code)
		}
	})

	t.Run("toggled", func(t *testing.T) {
		var gotID, gotEmail string
		r := likeRouter(stubLikeSvc{
			toggle: func(ctx context.Context, id, email string) (bool, int64, error) {
				gotID, gotEmail = id, email
				return true, 4, nil
			},
		})
		id := uuid.NewString()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/itineraries/"+id+"/like", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("toggle -> %d body=%s", w.Code, w.Body.String())
		}
		if gotID != id || gotEmail != "ana@example.com" {
			t.Fatalf("toggle args: %q %q", gotID, gotEmail)
		}
		var out LikeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if !out.Liked || out.Count != 4 || out.ItineraryID != id {
			t.Fatalf("unexpected response: %+v", out)
		}
	})
}
