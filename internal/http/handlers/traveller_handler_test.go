package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/services"
)

// avatarForm builds a multipart body carrying one "avatar" file part.
func avatarForm(t *testing.T, contentType string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="avatar"; filename="me.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte("a"), size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestGetMe_EnsuresProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotEmail, gotName string
	h := New(stubTravellerSvc{
		ensure: func(ctx context.Context, email, name string) (*domain.Traveller, error) {
			gotEmail, gotName = email, name
			return &domain.Traveller{ID: "t1", Email: email, Name: name}, nil
		},
	}, stubItinSvc{}, stubLikeSvc{}, stubCommentSvc{}, nil)
	r := gin.New()
	r.Use(identity)
	r.GET("/me", h.GetMe)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("me -> %d body=%s", w.Code, w.Body.String())
	}
	if gotEmail != "ana@example.com" || gotName != "Ana" {
		t.Fatalf("identity not forwarded: %q %q", gotEmail, gotName)
	}
	var out TravellerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if out.ID != "t1" || out.Email != "ana@example.com" {
		t.Fatalf("unexpected profile: %+v", out)
	}
}

func TestUpdateMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc stubTravellerSvc) *gin.Engine {
		h := New(svc, stubItinSvc{}, stubLikeSvc{}, stubCommentSvc{}, nil)
		r := gin.New()
		r.Use(identity)
		r.PUT("/me", h.UpdateMe)
		return r
	}

	t.Run("blank name", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/me", bytes.NewBufferString(`{"name":"   "}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("blank -> %d", w.Code)
		}
	})

	t.Run("missing traveller", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{
			rename: func(ctx context.Context, email, name string) error {
				return services.ErrTravellerNotFound
			},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/me", bytes.NewBufferString(`{"name":"Ana Silva"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing -> %d", w.Code)
		}
	})

	t.Run("success returns the fresh profile", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{
			get: func(ctx context.Context, email string) (*domain.Traveller, error) {
				return &domain.Traveller{ID: "t1", Email: email, Name: "Ana Silva"}, nil
			},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/me", bytes.NewBufferString(`{"name":"Ana Silva"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("rename -> %d body=%s", w.Code, w.Body.String())
		}
		var out TravellerResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.Name != "Ana Silva" {
			t.Fatalf("name: %q", out.Name)
		}
	})
}

func TestUploadAvatar(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(svc TravellerService) *gin.Engine {
		h := New(svc, stubItinSvc{}, stubLikeSvc{}, stubCommentSvc{}, nil)
		r := gin.New()
		r.Use(identity)
		r.POST("/me/avatar", h.UploadAvatar)
		return r
	}

	t.Run("missing file part", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/me/avatar", bytes.NewBufferString("not multipart"))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("no part -> %d", w.Code)
		}
	})

	t.Run("oversized upload", func(t *testing.T) {
		// The concrete service advertises its cap; the handler enforces it
		// before touching storage.
		svc := services.NewTravellerService(nil, &fakeUploadOnlyRepo{}, nil)
		svc.MaxAvatarBytes = 16
		r := newRouter(svc)

		body, ct := avatarForm(t, "image/png", 64)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/me/avatar", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("oversize -> %d body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("unsupported media type", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{
			upload: func(ctx context.Context, email, contentType string, rd io.Reader) (string, error) {
				return "", services.ErrUnsupportedAvatarType
			},
		})
		body, ct := avatarForm(t, "application/pdf", 8)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/me/avatar", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnsupportedMediaType {
			t.Fatalf("bad type -> %d", w.Code)
		}
	})

	t.Run("success returns the public URL", func(t *testing.T) {
		r := newRouter(stubTravellerSvc{
			upload: func(ctx context.Context, email, contentType string, rd io.Reader) (string, error) {
				return "https://cdn.example.com/avatars/t1.png", nil
			},
		})
		body, ct := avatarForm(t, "image/png", 8)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/me/avatar", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("upload -> %d body=%s", w.Code, w.Body.String())
		}
		var out AvatarResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.AvatarURL == "" {
			t.Fatal("avatar_url missing")
		}
	})
}

// fakeUploadOnlyRepo satisfies services.TravellerRepo for cap discovery tests
// where no repository call should ever happen.
type fakeUploadOnlyRepo struct{ services.TravellerRepo }
