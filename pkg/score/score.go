// Package score provides the scoring capability candidates expose to the ranker.
package score

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vulyk/suggestserve/pkg/rank"
	"golang.org/x/text/cases"
)

// ErrUnknownScorer is returned by New for names it does not know.
var ErrUnknownScorer = errors.New("unknown scorer")

// Scorer rates how well text matches query. 0 means no match.
type Scorer interface {
	Score(text, query string) float64
}

// Names lists the scorers New accepts.
var Names = []string{"quicksilver", "fuzzy", "prefix"}

// New returns the scorer registered under name.
func New(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "quicksilver", "qs":
		return Quicksilver{}, nil
	case "fuzzy":
		return Fuzzy{}, nil
	case "prefix":
		return Prefix{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownScorer, name, Names)
	}
}

// Term is a rank.Candidate backed by a string and a Scorer.
type Term struct {
	Text   string
	scorer Scorer
}

// NewTerm pairs text with scorer.
func NewTerm(text string, scorer Scorer) *Term {
	return &Term{Text: text, scorer: scorer}
}

func (t *Term) Score(query string) float64 {
	return t.scorer.Score(t.Text, query)
}

func (t *Term) String() string {
	return t.Text
}

// Terms wraps texts as candidates, keeping their order.
func Terms(texts []string, scorer Scorer) []rank.Candidate {
	out := make([]rank.Candidate, len(texts))
	for i, text := range texts {
		out[i] = NewTerm(text, scorer)
	}
	return out
}

// Text returns the text of a candidate built by this package, or "" otherwise.
func Text(c rank.Candidate) string {
	if t, ok := c.(*Term); ok {
		return t.Text
	}
	if s, ok := c.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// fold applies Unicode case folding. A Caser keeps state, so one per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Prefix scores 1 for a case-insensitive prefix match and 0.5 for a substring match.
type Prefix struct{}

func (Prefix) Score(text, query string) float64 {
	if query == "" {
		return 0
	}
	t, q := fold(text), fold(query)
	switch {
	case strings.HasPrefix(t, q):
		return 1
	case strings.Contains(t, q):
		return 0.5
	default:
		return 0
	}
}
