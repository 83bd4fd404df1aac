package rank_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vulyk/suggestserve/pkg/rank"
)

// mockCandidate scores from a fixed table and records what it was asked.
type mockCandidate struct {
	name   string
	scores map[string]float64
	seen   []string
}

func (m *mockCandidate) Score(query string) float64 {
	m.seen = append(m.seen, query)
	return m.scores[query]
}

func cand(name string, scores map[string]float64) *mockCandidate {
	return &mockCandidate{name: name, scores: scores}
}

// names flattens entries to candidate names, with the literal shown as "<query>".
func names(entries []rank.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Literal {
			out = append(out, "<"+e.Query+">")
			continue
		}
		out = append(out, e.Candidate.(*mockCandidate).name)
	}
	return out
}

func TestRankScenarios(t *testing.T) {
	testCases := []struct {
		description string
		query       string
		candidates  []*mockCandidate
		expected    []string
	}{
		{
			description: "zero scores dropped, rest by score",
			query:       "cat",
			candidates: []*mockCandidate{
				cand("A", map[string]float64{"cat": 0}),
				cand("B", map[string]float64{"cat": 5}),
				cand("D", map[string]float64{"cat": 2}),
			},
			expected: []string{"B", "D", "<cat>"},
		},
		{
			description: "whitespace only query keeps input order",
			query:       "  ",
			candidates: []*mockCandidate{
				cand("A", nil),
				cand("B", nil),
			},
			expected: []string{"A", "B", "<  >"},
		},
		{
			description: "no candidates",
			query:       "x",
			expected:    []string{"<x>"},
		},
		{
			description: "empty query and no candidates",
			query:       "",
			expected:    []string{"<>"},
		},
		{
			description: "nothing matches",
			query:       "zz",
			candidates: []*mockCandidate{
				cand("A", nil),
				cand("B", nil),
			},
			expected: []string{"<zz>"},
		},
		{
			description: "ties keep input order",
			query:       "go",
			candidates: []*mockCandidate{
				cand("first", map[string]float64{"go": 1}),
				cand("top", map[string]float64{"go": 3}),
				cand("second", map[string]float64{"go": 1}),
				cand("third", map[string]float64{"go": 1}),
			},
			expected: []string{"top", "first", "second", "third", "<go>"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			cands := make([]rank.Candidate, len(tc.candidates))
			for i, c := range tc.candidates {
				cands[i] = c
			}
			got := names(rank.Rank(tc.query, cands))
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("Rank(%q) mismatch (-want +got):\n%s", tc.query, diff)
			}
		})
	}
}

func TestRankNormalizesBeforeScoring(t *testing.T) {
	a := cand("A", map[string]float64{"abcd": 1})
	b := cand("B", nil)

	entries := rank.Rank("ab cd", []rank.Candidate{a, b})

	for _, c := range []*mockCandidate{a, b} {
		if diff := cmp.Diff([]string{"abcd"}, c.seen); diff != "" {
			t.Errorf("candidate %s saw unexpected queries (-want +got):\n%s", c.name, diff)
		}
	}
	last := entries[len(entries)-1]
	if !last.Literal || last.Query != "ab cd" {
		t.Errorf("expected trailing literal %q, got %+v", "ab cd", last)
	}
}

func TestRankEmptyQuerySkipsScoring(t *testing.T) {
	a := cand("A", nil)
	rank.Rank(" \t\n", []rank.Candidate{a})
	if len(a.seen) != 0 {
		t.Errorf("Score called %d times for an empty query", len(a.seen))
	}
}

func TestNormalize(t *testing.T) {
	testCases := map[string]string{
		"":            "",
		"   ":         "",
		"cat":         "cat",
		" c a t ":     "cat",
		"a\tb\nc\rd":  "abcd",
		"київ місто":  "київмісто",
		"nb\u00a0sp":  "nbsp",
		" wide\u3000": "wide",
	}
	for in, want := range testCases {
		if got := rank.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRankFailSoft(t *testing.T) {
	good := cand("good", map[string]float64{"q": 2})
	panicky := rank.CandidateFunc(func(string) float64 { panic("boom") })
	negative := rank.CandidateFunc(func(string) float64 { return -4 })
	nan := rank.CandidateFunc(func(string) float64 { return math.NaN() })
	inf := rank.CandidateFunc(func(string) float64 { return math.Inf(1) })

	entries := rank.NewRanker().Rank("q", []rank.Candidate{panicky, negative, good, nan, nil, inf})

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Candidate != rank.Candidate(good) || entries[0].Score != 2 {
		t.Errorf("expected good candidate with score 2 first, got %+v", entries[0])
	}
	if !entries[1].Literal {
		t.Errorf("expected trailing literal, got %+v", entries[1])
	}
}

// Properties over a handful of generated inputs.
func TestRankProperties(t *testing.T) {
	queries := []string{"", " ", "a", "a b", "ab", " ab ", "zzz"}
	table := map[string]float64{"a": 1, "ab": 4, "b": 2}

	var cands []rank.Candidate
	var raw []*mockCandidate
	for i := 0; i < 12; i++ {
		scores := map[string]float64{}
		for k, v := range table {
			scores[k] = v * float64(i%4)
		}
		c := cand(string(rune('A'+i)), scores)
		raw = append(raw, c)
		cands = append(cands, c)
	}

	for _, q := range queries {
		entries := rank.Rank(q, cands)
		norm := rank.Normalize(q)

		want := len(cands) + 1
		if norm != "" {
			want = 1
			for _, c := range raw {
				if c.scores[norm] > 0 {
					want++
				}
			}
		}
		if len(entries) != want {
			t.Errorf("query %q: len = %d, want %d", q, len(entries), want)
		}

		last := entries[len(entries)-1]
		if !last.Literal || last.Query != q {
			t.Errorf("query %q: trailing entry = %+v", q, last)
		}

		if norm == "" {
			continue
		}
		for i, e := range entries[:len(entries)-1] {
			if e.Literal {
				t.Errorf("query %q: literal at position %d", q, i)
			}
			if e.Score <= 0 {
				t.Errorf("query %q: zero score candidate at position %d", q, i)
			}
			if i > 0 && entries[i-1].Score < e.Score {
				t.Errorf("query %q: not descending at %d (%v < %v)", q, i, entries[i-1].Score, e.Score)
			}
		}
	}
}

func TestRankIdempotent(t *testing.T) {
	cands := []rank.Candidate{
		cand("A", map[string]float64{"x": 1}),
		cand("B", map[string]float64{"x": 1}),
		cand("C", map[string]float64{"x": 9}),
	}
	first := names(rank.Rank("x", cands))
	second := names(rank.Rank("x", cands))
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Rank differs (-first +second):\n%s", diff)
	}
}

func TestStrategyFunc(t *testing.T) {
	var s rank.Strategy = rank.StrategyFunc(func(q string, c []rank.Candidate) []rank.Entry {
		return []rank.Entry{{Literal: true, Query: q}}
	})
	got := s.Rank("hi", nil)
	if len(got) != 1 || got[0].Query != "hi" {
		t.Errorf("unexpected strategy output %+v", got)
	}

	var _ rank.Strategy = rank.NewRanker()
}

func TestCandidates(t *testing.T) {
	a := cand("A", map[string]float64{"q": 1})
	entries := rank.Rank("q", []rank.Candidate{a})
	got := rank.Candidates(entries)
	if len(got) != 1 || got[0] != rank.Candidate(a) {
		t.Errorf("Candidates() = %v", got)
	}
}

func TestTruncate(t *testing.T) {
	entries := []rank.Entry{{Score: 3}, {Score: 2}, {Score: 1}, {Literal: true, Query: "q"}}

	got := rank.Truncate(entries, 1)
	if len(got) != 2 || got[0].Score != 3 || !got[1].Literal {
		t.Errorf("Truncate(1) = %+v", got)
	}
	if len(rank.Truncate(entries, 0)) != 4 || len(rank.Truncate(entries, 3)) != 4 {
		t.Errorf("Truncate should be a no-op when nothing exceeds the limit")
	}
	if entries[1].Score != 2 || !entries[3].Literal {
		t.Errorf("Truncate modified its input")
	}

	noLiteral := []rank.Entry{{Score: 2}, {Score: 1}}
	if got := rank.Truncate(noLiteral, 1); len(got) != 1 || got[0].Score != 2 {
		t.Errorf("Truncate without a literal = %+v", got)
	}
}
