// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, rate limiting, and bearer-token
// authentication.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/config"
	"github.com/roamline/go-trip-backend/internal/docstore"
	"github.com/roamline/go-trip-backend/internal/domain"
	"github.com/roamline/go-trip-backend/internal/http/handlers"
	"github.com/roamline/go-trip-backend/internal/http/middleware"
	"github.com/roamline/go-trip-backend/internal/repo"
	"github.com/roamline/go-trip-backend/internal/services"
)

// travellerRepoShim adapts the repository free functions to the
// services.TravellerRepo interface expected by the TravellerService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type travellerRepoShim struct{}

// EnsureTraveller proxies repo.EnsureTraveller.
func (travellerRepoShim) EnsureTraveller(ctx context.Context, db *gorm.DB, email, name string) (*domain.Traveller, error) {
	return repo.EnsureTraveller(ctx, db, email, name)
}

// GetTravellerByEmail proxies repo.GetTravellerByEmail.
func (travellerRepoShim) GetTravellerByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Traveller, error) {
	return repo.GetTravellerByEmail(ctx, db, email)
}

// UpdateTravellerName proxies repo.UpdateTravellerName.
func (travellerRepoShim) UpdateTravellerName(ctx context.Context, db *gorm.DB, email, name string) error {
	return repo.UpdateTravellerName(ctx, db, email, name)
}

// UpdateTravellerAvatar proxies repo.UpdateTravellerAvatar.
func (travellerRepoShim) UpdateTravellerAvatar(ctx context.Context, db *gorm.DB, email, url string) error {
	return repo.UpdateTravellerAvatar(ctx, db, email, url)
}

// itineraryRepoShim adapts the repository free functions to the
// services.ItineraryRepo interface expected by the itinerary-facing services.
type itineraryRepoShim struct{}

// CreateItinerary proxies repo.CreateItinerary.
func (itineraryRepoShim) CreateItinerary(ctx context.Context, db *gorm.DB, it *domain.Itinerary) error {
	return repo.CreateItinerary(ctx, db, it)
}

// GetItinerary proxies repo.GetItinerary.
func (itineraryRepoShim) GetItinerary(ctx context.Context, db *gorm.DB, id string) (*domain.Itinerary, error) {
	return repo.GetItinerary(ctx, db, id)
}

// CountItineraries proxies repo.CountItineraries (pagination support).
func (itineraryRepoShim) CountItineraries(ctx context.Context, db *gorm.DB, ownerEmail string) (int64, error) {
	return repo.CountItineraries(ctx, db, ownerEmail)
}

// ListItinerariesPage proxies repo.ListItinerariesPage (pagination support).
func (itineraryRepoShim) ListItinerariesPage(ctx context.Context, db *gorm.DB, ownerEmail string, offset, limit int) ([]domain.Itinerary, error) {
	return repo.ListItinerariesPage(ctx, db, ownerEmail, offset, limit)
}

// UpdateItinerary proxies repo.UpdateItinerary.
func (itineraryRepoShim) UpdateItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string, updates map[string]any) error {
	return repo.UpdateItinerary(ctx, db, id, ownerEmail, updates)
}

// DeleteItinerary proxies repo.DeleteItinerary.
func (itineraryRepoShim) DeleteItinerary(ctx context.Context, db *gorm.DB, id, ownerEmail string) error {
	return repo.DeleteItinerary(ctx, db, id, ownerEmail)
}

// Deps carries the stateful dependencies injected into the router. Docs,
// Avatars, and Suggestions may be nil in tests. Without Docs the like and
// comment endpoints are not mounted (404) and itinerary deletes skip the
// document purge; without Suggestions the suggestion read-back answers 503;
// without Avatars the upload endpoint rejects with 503.
type Deps struct {
	DB          *gorm.DB
	Docs        *docstore.Store
	Avatars     services.AvatarUploader
	Suggestions *services.SuggestionService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
//
// Authentication applies per-group: the public API requires a bearer token,
// health/metrics/docs do not.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	db := deps.DB

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (sized for avatar uploads) + gzip responses
	maxBody := cfg.Storage.MaxUploadBytes + (1 << 20)
	if maxBody <= 0 {
		maxBody = 6 << 20
	}
	r.Use(limitBody(maxBody))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userEmail, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userEmail, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/health/db", func(c *gin.Context) {
		status := gin.H{"relational": "ok", "documents": "ok"}
		code := http.StatusOK
		if err := repo.Ping(db); err != nil {
			status["relational"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if deps.Docs != nil {
			if err := deps.Docs.Ping(c.Request.Context()); err != nil {
				status["documents"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		} else {
			status["documents"] = "not configured"
		}
		c.JSON(code, status)
	})

	// API documentation (Swagger UI)
	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/docstore/storage/ai
	travellerSvc := services.NewTravellerService(db, travellerRepoShim{}, deps.Avatars)
	if cfg.Storage.MaxUploadBytes > 0 {
		travellerSvc.MaxAvatarBytes = cfg.Storage.MaxUploadBytes
	}

	itinSvc := &services.ItineraryService{
		DB:   db,
		Repo: itineraryRepoShim{},
	}
	likeSvc := &services.LikeService{DB: db, Repo: itineraryRepoShim{}}
	commentSvc := &services.CommentService{DB: db, Repo: itineraryRepoShim{}}
	if deps.Docs != nil {
		itinSvc.Docs = deps.Docs
		likeSvc.Likes = deps.Docs
		commentSvc.Comments = deps.Docs
	}

	var suggSvc handlers.SuggestionService
	if deps.Suggestions != nil {
		deps.Suggestions.DB = db
		deps.Suggestions.Repo = itineraryRepoShim{}
		itinSvc.Suggestions = deps.Suggestions
		suggSvc = deps.Suggestions
	}

	h := handlers.New(travellerSvc, itinSvc, likeSvc, commentSvc, suggSvc)

	// Public API (bearer token required)
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	api.Use(middleware.Auth(middleware.AuthOptions{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}))
	{
		// Traveller profile
		api.GET("/me", h.GetMe)
		api.PUT("/me", h.UpdateMe)
		api.POST("/me/avatar", h.UploadAvatar)

		// Itineraries
		api.POST("/itineraries", h.CreateItinerary)
		api.GET("/itineraries", h.ListItineraries)
		api.GET("/itineraries/:id", h.GetItinerary)
		api.PUT("/itineraries/:id", h.UpdateItinerary)
		api.DELETE("/itineraries/:id", h.DeleteItinerary)
		api.GET("/itineraries/:id/suggestion", h.GetSuggestion)

		// Likes and comments live in the document store; without it the
		// routes stay unmounted rather than answering 500s.
		if deps.Docs != nil {
			api.POST("/itineraries/:id/like", h.ToggleLike)

			api.GET("/itineraries/:id/comments", h.ListComments)
			api.POST("/itineraries/:id/comments", h.AddComment)
			api.DELETE("/comments/:id", h.DeleteComment)
		}
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
