package domain

import "testing"

func TestSuggestionRecord_Terminal(t *testing.T) {
	cases := map[string]bool{
		SuggestionQueued:       false,
		SuggestionOK:           true,
		SuggestionNoSuggestion: true,
		SuggestionError:        true,
		"":                     false,
		"something-else":       false,
	}
	for status, want := range cases {
		r := SuggestionRecord{Status: status}
		if got := r.Terminal(); got != want {
			t.Fatalf("Terminal() for %q = %v, want %v", status, got, want)
		}
	}
}
