package keyword

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Suggestion is a known ingredient close to a term that matched nothing.
type Suggestion struct {
	Ingredient string `json:"ingredient"`
	Distance   int    `json:"distance"`
}

// Suggester ranks known ingredient names by edit distance to a query term.
type Suggester struct {
	maxDistance    int
	maxSuggestions int
}

// SuggesterOption configures a Suggester.
type SuggesterOption func(*Suggester)

// WithMaxDistance sets the largest edit distance still offered as a suggestion.
func WithMaxDistance(d int) SuggesterOption {
	return func(s *Suggester) {
		if d >= 0 {
			s.maxDistance = d
		}
	}
}

// WithMaxSuggestions caps the number of suggestions returned.
func WithMaxSuggestions(n int) SuggesterOption {
	return func(s *Suggester) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSuggester returns a Suggester with distance 2 and at most 5 suggestions
// unless overridden.
func NewSuggester(opts ...SuggesterOption) *Suggester {
	s := &Suggester{maxDistance: 2, maxSuggestions: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest compares term with each candidate ignoring case and returns those
// within the maximum distance, closest first and then alphabetically.
// A candidate identical to term is not a suggestion; one differing only in
// case is, at distance 0.
func (s *Suggester) Suggest(term string, candidates []string) []Suggestion {
	term = strings.TrimSpace(term)
	out := make([]Suggestion, 0)
	if term == "" {
		return out
	}
	lower := strings.ToLower(term)
	termLen := utf8.RuneCountInString(lower)
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if c == term {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cl := strings.ToLower(c)
		diff := utf8.RuneCountInString(cl) - termLen
		if diff < 0 {
			diff = -diff
		}
		if diff > s.maxDistance {
			continue
		}
		if d := EditDistance(lower, cl); d <= s.maxDistance {
			out = append(out, Suggestion{Ingredient: c, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Ingredient < out[j].Ingredient
	})
	if len(out) > s.maxSuggestions {
		out = out[:s.maxSuggestions]
	}
	return out
}
