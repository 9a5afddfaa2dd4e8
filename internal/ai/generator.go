// Package ai obtains short natural-language travel suggestions for newly
// created itineraries from a generative-text API.
//
// The generator tolerates the provider's two common failure shapes without
// blocking itinerary creation:
//   - truncation: the completion-token cap cuts the answer off, sometimes
//     leaving no text at all; retried once with an enlarged cap, then once
//     more with a shorter, simplified prompt.
//   - flaky networking: timeouts, resets, and DNS failures are retried a
//     small fixed number of times with linear backoff. Non-network provider
//     errors abort immediately.
//
// Every provider call is captured as a SuggestionAttempt; the run ends in
// exactly one terminal status: ok, no_suggestion, or error.
package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/roamline/go-trip-backend/internal/domain"
)

// Completion is the provider-agnostic result of a single chat call.
type Completion struct {
	Text             string
	FinishReason     string
	PromptTokens     int64
	CompletionTokens int64
}

// ChatCompleter is the narrow provider contract the generator depends on.
// The production implementation wraps openai-go; tests substitute mocks.
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string, maxTokens int64) (*Completion, error)
}

// Generator runs the prompt/cap ladder against a ChatCompleter and
// classifies the outcome.
type Generator struct {
	Completer ChatCompleter
	Model     string

	// TokenCap bounds the primary attempt; RetryTokenCap the truncation
	// retry and the simplified-prompt attempt.
	TokenCap      int64
	RetryTokenCap int64

	// NetworkRetries bounds per-call retries for network-classified
	// failures; RetryBackoff is the linear backoff unit between them.
	NetworkRetries int
	RetryBackoff   time.Duration

	// CallTimeout caps one provider call including its network retries.
	CallTimeout time.Duration

	// sleep is a test seam; defaults to time.Sleep.
	sleep func(time.Duration)
}

// Run generates a suggestion for the itinerary and returns the record to
// persist. It never returns an error: failures are folded into the record's
// terminal status.
func (g *Generator) Run(ctx context.Context, it *domain.Itinerary) *domain.SuggestionRecord {
	tr := otel.Tracer("ai/Generator")
	ctx, span := tr.Start(ctx, "Run",
		trace.WithAttributes(
			attribute.String("itinerary.id", it.ID),
			attribute.String("ai.model", g.Model),
		),
	)
	defer span.End()

	rec := &domain.SuggestionRecord{
		ItineraryID: it.ID,
		Model:       g.Model,
		CreatedAt:   time.Now().UTC(),
	}

	type step struct {
		prompt string
		cap    int64
	}
	primary := buildPrompt(it)
	steps := []step{
		{primary, g.TokenCap},
		{primary, g.retryCap()},
		{buildShortPrompt(it), g.retryCap()},
	}

	var last *Completion
	for i, st := range steps {
		comp, err := g.callWithRetry(ctx, st.prompt, st.cap)

		attempt := domain.SuggestionAttempt{Seq: i + 1}
		if comp != nil {
			attempt.FinishReason = comp.FinishReason
			attempt.HasText = comp.Text != ""
			attempt.PromptTokens = comp.PromptTokens
			attempt.CompletionTokens = comp.CompletionTokens
		}
		if err != nil {
			attempt.Error = err.Error()
		}
		rec.Attempts = append(rec.Attempts, attempt)

		if err != nil {
			rec.Status = domain.SuggestionError
			rec.FinishReason = attempt.FinishReason
			span.SetAttributes(attribute.String("ai.status", rec.Status))
			return rec
		}

		last = comp
		if i == 0 {
			// Retry with the larger cap when the answer is empty or was
			// cut off by the cap.
			if comp.Text != "" && !truncated(comp.FinishReason) {
				break
			}
			continue
		}
		// Later rungs only keep laddering while still empty.
		if comp.Text != "" {
			break
		}
	}

	rec.FinishReason = last.FinishReason
	if txt := strings.TrimSpace(last.Text); txt != "" {
		rec.Status = domain.SuggestionOK
		rec.Suggestion = txt
	} else {
		rec.Status = domain.SuggestionNoSuggestion
	}
	span.SetAttributes(attribute.String("ai.status", rec.Status))
	return rec
}

func (g *Generator) retryCap() int64 {
	if g.RetryTokenCap > g.TokenCap {
		return g.RetryTokenCap
	}
	return g.TokenCap
}

// callWithRetry performs one logical provider call, retrying
// network-classified failures with linear backoff. Non-network errors are
// returned immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string, maxTokens int64) (*Completion, error) {
	if g.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.CallTimeout)
		defer cancel()
	}

	var lastErr error
	for try := 0; ; try++ {
		comp, err := g.Completer.Complete(ctx, prompt, maxTokens)
		if err == nil {
			return comp, nil
		}
		lastErr = err
		if !IsNetworkError(err) || try >= g.NetworkRetries {
			return nil, lastErr
		}
		g.wait(time.Duration(try+1) * g.backoff())
	}
}

func (g *Generator) backoff() time.Duration {
	if g.RetryBackoff > 0 {
		return g.RetryBackoff
	}
	return 500 * time.Millisecond
}

func (g *Generator) wait(d time.Duration) {
	if g.sleep != nil {
		g.sleep(d)
		return
	}
	time.Sleep(d)
}

// truncated reports whether a finish reason means the completion-token cap
// cut the answer off. OpenAI-compatible providers report "length"; Gemini
// -style gateways report "MAX_TOKENS".
func truncated(reason string) bool {
	switch strings.ToLower(reason) {
	case "length", "max_tokens":
		return true
	}
	return false
}

// IsNetworkError classifies transport-level failures that are worth a blind
// retry: timeouts, connection resets, refused/aborted connections, and DNS
// failures. Everything else (auth errors, quota, malformed requests) is not.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	// SDKs frequently wrap transport errors into plain strings.
	msg := strings.ToLower(err.Error())
	for _, frag := range []string{"connection reset", "connection refused", "timeout", "timed out", "no such host", "request canceled", "broken pipe"} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

// buildPrompt renders the primary prompt from the itinerary fields.
func buildPrompt(it *domain.Itinerary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest one concise travel tip for a trip to %s from %s to %s.\n", it.Destination, it.StartDate, it.EndDate)
	if s := strings.TrimSpace(it.ShortDescription); s != "" {
		fmt.Fprintf(&b, "Trip summary: %s\n", s)
	}
	if d := strings.TrimSpace(it.DetailDescription); d != "" {
		fmt.Fprintf(&b, "Details: %s\n", d)
	}
	b.WriteString("Answer in at most three sentences, no preamble.")
	return b.String()
}

// buildShortPrompt is the simplified fallback used when the primary prompt
// keeps coming back empty.
func buildShortPrompt(it *domain.Itinerary) string {
	return fmt.Sprintf("One short travel tip for %s. One sentence.", it.Destination)
}
