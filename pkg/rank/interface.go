/*
Package rank orders suggestion candidates for an autocomplete dropdown.

A ranking pass strips every whitespace character from the query, scores each
candidate against the stripped query, drops non-matches and sorts the rest by
descending score. The raw query, exactly as typed, is always appended as the
last entry so the user can pick what they wrote.

	entries := rank.Rank("ab cd", candidates)
	last := entries[len(entries)-1] // Literal == true, Query == "ab cd"

An empty (or all-whitespace) query skips scoring and returns the candidates in
their input order, still followed by the literal query.

Widgets are configured with a Strategy rather than with a hardcoded function,
so alternative orderings can be plugged in without touching the widget.
*/
package rank

// Candidate is one selectable suggestion.
// Score must be deterministic for a given query and return 0 for non-matches.
type Candidate interface {
	Score(query string) float64
}

// Entry is one element of a ranked result.
type Entry struct {
	Candidate Candidate
	Score     float64
	Literal   bool
	Query     string
}

// Strategy produces the ordered suggestion list for a query.
type Strategy interface {
	Rank(query string, candidates []Candidate) []Entry
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(query string, candidates []Candidate) []Entry

func (f StrategyFunc) Rank(query string, candidates []Candidate) []Entry {
	return f(query, candidates)
}

// CandidateFunc adapts a plain function to Candidate. Mostly useful in tests.
type CandidateFunc func(query string) float64

func (f CandidateFunc) Score(query string) float64 {
	return f(query)
}
