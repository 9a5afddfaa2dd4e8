// Package services – SuggestionService
//
// This file implements SuggestionService, the orchestrator between itinerary
// creation and the generative travel-suggestion pipeline. Creation gives the
// pipeline a soft time budget: if a suggestion resolves inside the budget the
// creation response carries its terminal status, otherwise the response says
// "queued" and the run is handed to a background worker. Whichever path
// finishes persists its record to the document store; the latest write wins.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/roamline/go-trip-backend/internal/docstore"
	"github.com/roamline/go-trip-backend/internal/domain"
)

// SuggestionRunner produces a terminal suggestion record for an itinerary.
type SuggestionRunner interface {
	Run(ctx context.Context, it *domain.Itinerary) *domain.SuggestionRecord
}

// SuggestionStore is the document-store contract required by
// SuggestionService.
type SuggestionStore interface {
	UpsertSuggestion(ctx context.Context, rec *domain.SuggestionRecord) error
	GetSuggestion(ctx context.Context, itineraryID string) (*domain.SuggestionRecord, error)
}

// SuggestionService coordinates foreground and background suggestion runs
// and serves read-back of their persisted state.
type SuggestionService struct {
	DB     *gorm.DB
	Repo   ItineraryRepo
	Runner SuggestionRunner
	Store  SuggestionStore

	// SoftBudget is how long itinerary creation waits for a suggestion
	// before answering "queued".
	SoftBudget time.Duration
	// StoreTimeout bounds each document-store write made off the request
	// path.
	StoreTimeout time.Duration

	queue  chan *domain.Itinerary
	once   sync.Once
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// Start launches the background worker pool. It is idempotent.
func (s *SuggestionService) Start(workers int) {
	s.once.Do(func() {
		if workers <= 0 {
			workers = 1
		}
		s.queue = make(chan *domain.Itinerary, 64)
		for i := 0; i < workers; i++ {
			s.wg.Add(1)
			go s.worker()
		}
	})
}

// Close drains the queue and waits for in-flight runs to finish. It is safe
// to call while requests are still enqueueing; late arrivals are dropped.
func (s *SuggestionService) Close() {
	if s.queue == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

// Kickoff races a foreground suggestion run against the soft budget. On a
// win it returns the terminal status and any suggestion text; on a miss it
// returns "queued" and schedules a background run. The foreground goroutine
// keeps running after a miss and persists its own result, so a budget miss
// never wastes the attempt.
func (s *SuggestionService) Kickoff(ctx context.Context, it *domain.Itinerary) (status, suggestion string) {
	if s.Runner == nil || s.Store == nil {
		return domain.SuggestionQueued, ""
	}

	budget := s.SoftBudget
	if budget <= 0 {
		budget = 5 * time.Second
	}

	done := make(chan *domain.SuggestionRecord, 1)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		rec := s.Runner.Run(runCtx, it)
		s.persist(rec)
		done <- rec
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case rec := <-done:
		return rec.Status, rec.Suggestion
	case <-timer.C:
		s.enqueue(it)
		return domain.SuggestionQueued, ""
	}
}

// Status returns the persisted suggestion state for an itinerary the caller
// can see. An itinerary with no record yet reads as queued.
func (s *SuggestionService) Status(ctx context.Context, itineraryID string) (*domain.SuggestionRecord, error) {
	if _, err := s.Repo.GetItinerary(ctx, s.DB, itineraryID); err != nil {
		return nil, ErrItineraryNotFound
	}
	rec, err := s.Store.GetSuggestion(ctx, itineraryID)
	if err != nil {
		if err == docstore.ErrNotFound {
			return &domain.SuggestionRecord{
				ItineraryID: itineraryID,
				Status:      domain.SuggestionQueued,
			}, nil
		}
		return nil, err
	}
	return rec, nil
}

// enqueue hands an itinerary to the worker pool. The mutex keeps the send
// from racing Close; once closed, runs are dropped (the record, if any, still
// reads as queued and a later read can observe the foreground result).
func (s *SuggestionService) enqueue(it *domain.Itinerary) {
	if s.queue == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- it:
	default:
		log.Warn().Str("itinerary_id", it.ID).Msg("suggestion queue full, dropping background run")
	}
}

func (s *SuggestionService) worker() {
	defer s.wg.Done()
	for it := range s.queue {
		rec, err := s.Store.GetSuggestion(context.Background(), it.ID)
		if err == nil && rec.Terminal() {
			// The foreground run got there first.
			continue
		}
		s.persist(s.Runner.Run(context.Background(), it))
	}
}

func (s *SuggestionService) persist(rec *domain.SuggestionRecord) {
	timeout := s.StoreTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Store.UpsertSuggestion(ctx, rec); err != nil {
		log.Error().Err(err).Str("itinerary_id", rec.ItineraryID).Msg("persist suggestion record")
	}
}
