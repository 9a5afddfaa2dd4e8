package ai

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/roamline/go-trip-backend/internal/domain"
)

// scriptedCompleter replays a fixed sequence of results and records the
// prompts and caps it was called with.
type scriptedCompleter struct {
	results []func() (*Completion, error)
	calls   int

	prompts []string
	caps    []int64
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string, maxTokens int64) (*Completion, error) {
	s.prompts = append(s.prompts, prompt)
	s.caps = append(s.caps, maxTokens)
	if s.calls >= len(s.results) {
		return nil, errors.New("unexpected extra call")
	}
	res := s.results[s.calls]
	s.calls++
	return res()
}

func completion(text, reason string) func() (*Completion, error) {
	return func() (*Completion, error) {
		return &Completion{Text: text, FinishReason: reason, PromptTokens: 20, CompletionTokens: 30}, nil
	}
}

func failure(err error) func() (*Completion, error) {
	return func() (*Completion, error) { return nil, err }
}

func testItinerary() *domain.Itinerary {
	return &domain.Itinerary{
		ID:               "it-1",
		Destination:      "Kyoto, Japan",
		StartDate:        "2026-04-02",
		EndDate:          "2026-04-09",
		ShortDescription: "Cherry blossoms and temples.",
	}
}

func newTestGenerator(c ChatCompleter) *Generator {
	return &Generator{
		Completer:      c,
		Model:          "test-model",
		TokenCap:       100,
		RetryTokenCap:  400,
		NetworkRetries: 2,
		RetryBackoff:   time.Millisecond,
		sleep:          func(time.Duration) {},
	}
}

func TestRun_FirstAttemptSucceeds(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		completion("Visit Fushimi Inari at dawn.", "stop"),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionOK {
		t.Fatalf("status = %q, want ok", rec.Status)
	}
	if rec.Suggestion != "Visit Fushimi Inari at dawn." {
		t.Fatalf("suggestion = %q", rec.Suggestion)
	}
	if len(rec.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(rec.Attempts))
	}
	if sc.caps[0] != 100 {
		t.Fatalf("primary cap = %d, want 100", sc.caps[0])
	}
}

func TestRun_TruncatedThenRetriedWithLargerCap(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		completion("", "length"),
		completion("Pack an umbrella for April showers.", "stop"),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionOK {
		t.Fatalf("status = %q, want ok", rec.Status)
	}
	if len(rec.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(rec.Attempts))
	}
	if sc.caps[1] != 400 {
		t.Fatalf("retry cap = %d, want 400", sc.caps[1])
	}
	// Same prompt on the first retry, only the cap changes.
	if sc.prompts[0] != sc.prompts[1] {
		t.Fatalf("retry should reuse the primary prompt")
	}
}

func TestRun_TruncatedNonEmptyTextIsRetried(t *testing.T) {
	// A cut-off completion with partial text still triggers the enlarged-cap
	// retry; the retry's full answer wins.
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		completion("Visit the", "length"),
		completion("Visit the bamboo grove early.", "stop"),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionOK || rec.Suggestion != "Visit the bamboo grove early." {
		t.Fatalf("got %q/%q", rec.Status, rec.Suggestion)
	}
}

func TestRun_ThreeEmptyAttemptsEndNoSuggestion(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		completion("", "length"),
		completion("", "length"),
		completion("", "stop"),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionNoSuggestion {
		t.Fatalf("status = %q, want no_suggestion", rec.Status)
	}
	if len(rec.Attempts) != 3 {
		t.Fatalf("attempts = %d, want exactly 3", len(rec.Attempts))
	}
	if rec.Suggestion != "" {
		t.Fatalf("suggestion should be empty, got %q", rec.Suggestion)
	}
	// Third rung switches to the simplified prompt.
	if sc.prompts[2] == sc.prompts[0] {
		t.Fatalf("final attempt should use the short prompt")
	}
	if !strings.Contains(sc.prompts[2], "Kyoto") {
		t.Fatalf("short prompt should still name the destination: %q", sc.prompts[2])
	}
}

func TestRun_WhitespaceOnlyTextIsNoSuggestion(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		completion("   \n\t", "stop"),
		completion("   ", "stop"),
		completion(" ", "stop"),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())
	if rec.Status != domain.SuggestionNoSuggestion {
		t.Fatalf("status = %q, want no_suggestion", rec.Status)
	}
}

func TestRun_NonNetworkErrorFailsImmediately(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		failure(errors.New("invalid api key")),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionError {
		t.Fatalf("status = %q, want error", rec.Status)
	}
	if sc.calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on non-network errors)", sc.calls)
	}
	if len(rec.Attempts) != 1 || rec.Attempts[0].Error == "" {
		t.Fatalf("expected one attempt carrying the error, got %+v", rec.Attempts)
	}
}

func TestRun_NetworkErrorRetriedWithLinearBackoff(t *testing.T) {
	var slept []time.Duration
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		failure(syscall.ECONNRESET),
		failure(&net.DNSError{Err: "no such host", Name: "api.example.com"}),
		completion("Take the Keihan line to avoid crowds.", "stop"),
	}}
	g := newTestGenerator(sc)
	g.RetryBackoff = 10 * time.Millisecond
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionOK {
		t.Fatalf("status = %q, want ok", rec.Status)
	}
	// All three provider calls belong to one logical attempt.
	if len(rec.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(rec.Attempts))
	}
	if len(slept) != 2 || slept[0] != 10*time.Millisecond || slept[1] != 20*time.Millisecond {
		t.Fatalf("backoff sequence = %v, want [10ms 20ms]", slept)
	}
}

func TestRun_NetworkRetriesExhaustedEndError(t *testing.T) {
	sc := &scriptedCompleter{results: []func() (*Completion, error){
		failure(syscall.ECONNREFUSED),
		failure(syscall.ECONNREFUSED),
		failure(syscall.ECONNREFUSED),
	}}
	g := newTestGenerator(sc)

	rec := g.Run(context.Background(), testItinerary())

	if rec.Status != domain.SuggestionError {
		t.Fatalf("status = %q, want error", rec.Status)
	}
	if sc.calls != 3 {
		t.Fatalf("calls = %d, want 1 + NetworkRetries", sc.calls)
	}
}

func TestIsNetworkError(t *testing.T) {
	netLike := []error{
		context.DeadlineExceeded,
		syscall.ECONNRESET,
		syscall.ECONNREFUSED,
		syscall.EPIPE,
		&net.DNSError{Err: "no such host"},
		&net.OpError{Op: "dial", Err: errors.New("boom")},
		errors.New("Post \"https://x\": connection reset by peer"),
		errors.New("context deadline exceeded (Client.Timeout)"),
	}
	for _, err := range netLike {
		if !IsNetworkError(err) {
			t.Fatalf("expected network classification for %v", err)
		}
	}

	notNet := []error{
		nil,
		errors.New("invalid api key"),
		errors.New("model not found"),
		errors.New("quota exceeded"),
	}
	for _, err := range notNet {
		if IsNetworkError(err) {
			t.Fatalf("unexpected network classification for %v", err)
		}
	}
}

func TestTruncated(t *testing.T) {
	for _, reason := range []string{"length", "LENGTH", "max_tokens", "MAX_TOKENS"} {
		if !truncated(reason) {
			t.Fatalf("expected truncated(%q)=true", reason)
		}
	}
	for _, reason := range []string{"stop", "", "content_filter"} {
		if truncated(reason) {
			t.Fatalf("expected truncated(%q)=false", reason)
		}
	}
}
