// Document-store models for likes, comments, and AI-suggestion records.
// These types are stored in MongoDB collections keyed by itinerary id and
// are shared by the docstore accessor and the service layer.
package domain

import "time"

// Suggestion statuses. Exactly one terminal status is recorded per run;
// StatusQueued is what clients see while no record (or no terminal record)
// exists yet.
const (
	SuggestionQueued       = "queued"
	SuggestionOK           = "ok"
	SuggestionNoSuggestion = "no_suggestion"
	SuggestionError        = "error"
)

// Like marks that a traveller liked an itinerary. Presence of the document
// means liked; toggling removes it again. Uniqueness is enforced by a
// compound index on (itinerary_id, user_email).
type Like struct {
	ItineraryID string    `json:"itinerary_id" bson:"itinerary_id"`
	UserEmail   string    `json:"user_email"   bson:"user_email"`
	CreatedAt   time.Time `json:"created_at"   bson:"created_at"`
}

// Comment is a traveller's comment on an itinerary. Only its author may
// delete it.
type Comment struct {
	ID          string    `json:"id"           bson:"_id"`
	ItineraryID string    `json:"itinerary_id" bson:"itinerary_id"`
	Email       string    `json:"email"        bson:"email"`
	Text        string    `json:"text"         bson:"text"`
	CreatedAt   time.Time `json:"created_at"   bson:"created_at"`
}

// SuggestionAttempt captures one provider call inside a suggestion run.
type SuggestionAttempt struct {
	Seq              int    `json:"seq"               bson:"seq"`
	FinishReason     string `json:"finish_reason"     bson:"finish_reason"`
	HasText          bool   `json:"has_text"          bson:"has_text"`
	PromptTokens     int64  `json:"prompt_tokens"     bson:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens" bson:"completion_tokens"`
	Error            string `json:"error,omitempty"   bson:"error,omitempty"`
}

// SuggestionRecord is the persisted outcome of a suggestion run for one
// itinerary. The foreground and background invocations both write it; the
// last write wins. A missing record reads back as status queued.
type SuggestionRecord struct {
	ItineraryID  string              `json:"itinerary_id"  bson:"_id"`
	Model        string              `json:"model"         bson:"model"`
	Status       string              `json:"status"        bson:"status"`
	FinishReason string              `json:"finish_reason" bson:"finish_reason"`
	Attempts     []SuggestionAttempt `json:"attempts"      bson:"attempts"`
	Suggestion   string              `json:"suggestion"    bson:"suggestion"`
	CreatedAt    time.Time           `json:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"    bson:"updated_at"`
}

// Terminal reports whether the record carries a final outcome.
func (r *SuggestionRecord) Terminal() bool {
	switch r.Status {
	case SuggestionOK, SuggestionNoSuggestion, SuggestionError:
		return true
	}
	return false
}
