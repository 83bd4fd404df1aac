package score

import (
	"errors"
	"math"
	"testing"

	"github.com/vulyk/suggestserve/pkg/rank"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestQuicksilver(t *testing.T) {
	testCases := []struct {
		text        string
		query       string
		expected    float64
		description string
	}{
		{"cat", "cat", 1, "Exact match"},
		{"Cat", "cAT", 1, "Case insensitive"},
		{"cat", "", emptyAbbreviationScore, "Empty abbreviation"},
		{"ca", "cat", 0, "Abbreviation longer than text"},
		{"xyz", "a", 0, "No match"},
		{"cattle", "cat", 5.7 / 6, "Prefix match"},
		{"bobcat", "cat", 0.5, "Match in the middle of a word"},
		{"Hello World", "hw", 10.0 / 11, "Word starts"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			got := Quicksilver{}.Score(tc.text, tc.query)
			if !almostEqual(got, tc.expected) {
				t.Errorf("Score(%q, %q) = %v, want %v", tc.text, tc.query, got, tc.expected)
			}
		})
	}
}

func TestQuicksilverPreferences(t *testing.T) {
	qs := Quicksilver{}

	if qs.Score("cattle", "cat") <= qs.Score("bobcat", "cat") {
		t.Errorf("prefix match should beat a mid-word match")
	}
	if qs.Score("New York", "ny") <= qs.Score("anyway", "ny") {
		t.Errorf("word-start match should beat a mid-word match")
	}
	if qs.Score("Київ", "київ") != 1 {
		t.Errorf("cyrillic exact match should score 1")
	}
	for _, text := range []string{"a", "abc", "Hello World", "Київська область"} {
		for _, q := range []string{"a", "ab", "hw", "ко"} {
			s := qs.Score(text, q)
			if s < 0 || s > 1 {
				t.Errorf("Score(%q, %q) = %v, out of [0, 1]", text, q, s)
			}
		}
	}
}

func TestFuzzy(t *testing.T) {
	f := Fuzzy{}
	if s := f.Score("git commit", "gc"); s < 1 {
		t.Errorf("expected a match of at least 1, got %v", s)
	}
	if s := f.Score("abc", "xyz"); s != 0 {
		t.Errorf("expected 0 for no match, got %v", s)
	}
	if s := f.Score("abc", ""); s != 0 {
		t.Errorf("expected 0 for empty query, got %v", s)
	}
}

func TestPrefix(t *testing.T) {
	p := Prefix{}
	testCases := []struct {
		text, query string
		expected    float64
	}{
		{"Київ", "ки", 1},
		{"Великий Київ", "київ", 0.5},
		{"Lviv", "kyiv", 0},
		{"Lviv", "", 0},
	}
	for _, tc := range testCases {
		if got := p.Score(tc.text, tc.query); got != tc.expected {
			t.Errorf("Score(%q, %q) = %v, want %v", tc.text, tc.query, got, tc.expected)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range append([]string{"", " QS "}, Names...) {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := New("levenshtein"); !errors.Is(err, ErrUnknownScorer) {
		t.Errorf("expected ErrUnknownScorer, got %v", err)
	}
}

func TestTermsRankThroughRanker(t *testing.T) {
	terms := Terms([]string{"bobcat", "dog", "cattle", "cat"}, Quicksilver{})

	entries := rank.Rank("c at", terms)

	var got []string
	for _, e := range entries {
		if e.Literal {
			got = append(got, "<"+e.Query+">")
			continue
		}
		got = append(got, Text(e.Candidate))
	}
	want := []string{"cat", "cattle", "bobcat", "<c at>"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestText(t *testing.T) {
	if Text(NewTerm("x", Prefix{})) != "x" {
		t.Errorf("Text did not return the term text")
	}
	if Text(rank.CandidateFunc(func(string) float64 { return 0 })) != "" {
		t.Errorf("Text of a foreign candidate should be empty")
	}
}
