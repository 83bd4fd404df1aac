package rank

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/internal/logger"
)

// Ranker is the default Strategy.
type Ranker struct {
	logger *log.Logger
}

// NewRanker returns a Ranker that logs misbehaving candidates at debug level.
func NewRanker() *Ranker {
	return &Ranker{logger: logger.New("rank")}
}

// Rank orders candidates for query using a default Ranker.
func Rank(query string, candidates []Candidate) []Entry {
	return (&Ranker{}).Rank(query, candidates)
}

// Normalize removes every whitespace character from query.
func Normalize(query string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, query)
}

type scored struct {
	candidate Candidate
	score     float64
}

// Rank implements Strategy.
// Equal scores keep their input order. The returned slice always ends with
// the literal, unnormalized query.
func (r *Ranker) Rank(query string, candidates []Candidate) []Entry {
	normalized := Normalize(query)

	if normalized == "" {
		out := make([]Entry, 0, len(candidates)+1)
		for _, c := range candidates {
			out = append(out, Entry{Candidate: c})
		}
		return append(out, Entry{Literal: true, Query: query})
	}

	kept := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		s := r.score(c, i, normalized)
		if s > 0 {
			kept = append(kept, scored{candidate: c, score: s})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	out := make([]Entry, 0, len(kept)+1)
	for _, k := range kept {
		out = append(out, Entry{Candidate: k.candidate, Score: k.score})
	}
	return append(out, Entry{Literal: true, Query: query})
}

// score calls c.Score and maps anything unusable to 0.
func (r *Ranker) score(c Candidate, index int, query string) (s float64) {
	if c == nil {
		return 0
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.debugf("candidate %d panicked while scoring %q: %v", index, query, rec)
			s = 0
		}
	}()

	s = c.Score(query)
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
		r.debugf("candidate %d returned invalid score %v for %q", index, s, query)
		return 0
	}
	return s
}

func (r *Ranker) debugf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Debugf(format, args...)
}

// Candidates returns the candidate part of entries, in order.
func Candidates(entries []Entry) []Candidate {
	out := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if !e.Literal {
			out = append(out, e.Candidate)
		}
	}
	return out
}

// Truncate keeps the first limit ranked entries plus the trailing literal,
// if there is one. limit <= 0 keeps everything. entries is not modified.
func Truncate(entries []Entry, limit int) []Entry {
	n := len(entries)
	if limit <= 0 || n <= limit {
		return entries
	}
	if !entries[n-1].Literal {
		return entries[:limit:limit]
	}
	if n-1 <= limit {
		return entries
	}
	return append(entries[:limit:limit], entries[n-1])
}
