package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/services"
)

func commentRouter(svc stubCommentSvc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubTravellerSvc{}, stubItinSvc{}, stubLikeSvc{}, svc, nil)
	r := gin.New()
	r.Use(identity)
	r.POST("/itineraries/:id/comments", h.AddComment)
	r.GET("/itineraries/:id/comments", h.ListComments)
	r.DELETE("/comments/:id", h.DeleteComment)
	return r
}

func TestAddComment(t *testing.T) {
	t.Run("bad itinerary id", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/nope/comments", bytes.NewBufferString(`{"text":"hi"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad id -> %d", w.Code)
		}
	})

	t.Run("blank text", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/"+uuid.NewString()+"/comments", bytes.NewBufferString(`{"text":"  "}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank -> %d", w.Code)
		}
	})

	t.Run("missing itinerary", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{
			add: func(ctx context.Context, itineraryID, email, text string) (*domain.Comment, error) {
				return nil, services.ErrItineraryNotFound
			},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/"+uuid.NewString()+"/comments", bytes.NewBufferString(`{"text":"nice"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing -> %d", w.Code)
		}
	})

	t.Run("created", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/itineraries/"+uuid.NewString()+"/comments", bytes.NewBufferString(`{"text":"Don't miss the bamboo grove!"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("add -> %d body=%s", w.Code, w.Body.String())
		}
		var out domain.Comment
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Email != "ana@example.com" || out.Text == "" {
			t.Fatalf("unexpected comment: %+v", out)
		}
	})
}

func TestListComments_EmptyIsAnArray(t *testing.T) {
	r := commentRouter(stubCommentSvc{})
	id := uuid.NewString()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/itineraries/"+id+"/comments", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list -> %d", w.Code)
	}
	var out ListCommentsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ItineraryID != id || out.Comments == nil {
		t.Fatalf("nil slice leaked: %+v", out)
	}
}

func TestDeleteComment(t *testing.T) {
	itineraryID := uuid.NewString()
	commentID := uuid.NewString()

	t.Run("missing itinerary_id query", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/comments/"+commentID, nil))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("no query -> %d", w.Code)
		}
	})

	t.Run("not the author", func(t *testing.T) {
		r := commentRouter(stubCommentSvc{
			del: func(ctx context.Context, itinID, cmtID, email string) error {
				return services.ErrNotCommentAuthor
			},
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/comments/"+commentID+"?itinerary_id="+itineraryID, nil))
		if w.Code != http.StatusForbidden {
			t.Fatalf("forbidden -> %d", w.Code)
		}
	})

	t.Run("author deletes", func(t *testing.T) {
		var gotItin, gotCmt, gotEmail string
		r := commentRouter(stubCommentSvc{
			del: func(ctx context.Context, itinID, cmtID, email string) error {
				gotItin, gotCmt, gotEmail = itinID, cmtID, email
				return nil
			},
		})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/comments/"+commentID+"?itinerary_id="+itineraryID, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete -> %d", w.Code)
		}
		if gotItin != itineraryID || gotCmt != commentID || gotEmail != "ana@example.com" {
			t.Fatalf("delete args: %q %q %q", gotItin, gotCmt, gotEmail)
		}
	})
}
