/*
Package vocab holds the fixed candidate collection a suggestion widget ranks against.

A Vocabulary is an ordered, deduplicated list of terms. Order matters: an
empty query shows the terms exactly as they were loaded, and equal scores
keep that order too. Terms are indexed in a Patricia trie for duplicate
detection and prefix browsing.

	v, err := vocab.Load("data/terms.txt")
	candidates := v.Candidates(score.Quicksilver{})
	entries := rank.Rank(query, candidates)

Supported files are plain text (one term per line, '#' starts a comment) and
msgpack (a single array of strings).
*/
package vocab

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
	"github.com/vulyk/suggestserve/pkg/rank"
	"github.com/vulyk/suggestserve/pkg/score"
)

// Vocabulary is safe for concurrent use.
type Vocabulary struct {
	terms []string
	trie  *patricia.Trie
	mu    sync.RWMutex
}

// New builds a vocabulary from terms. Terms are trimmed, empty ones dropped
// and only the first occurrence of a duplicate is kept.
func New(terms []string) *Vocabulary {
	v := &Vocabulary{}
	v.terms, v.trie = build(terms)
	return v
}

func build(terms []string) ([]string, *patricia.Trie) {
	trie := patricia.NewTrie()
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !trie.Insert(patricia.Prefix(t), len(kept)) {
			log.Debugf("Skipping duplicate term %q", t)
			continue
		}
		kept = append(kept, t)
	}
	return kept, trie
}

// Replace swaps the contents for terms, with the same rules as New.
func (v *Vocabulary) Replace(terms []string) {
	kept, trie := build(terms)
	v.mu.Lock()
	v.terms, v.trie = kept, trie
	v.mu.Unlock()
}

// Terms returns a copy of the terms in load order.
func (v *Vocabulary) Terms() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Len returns the number of terms.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms)
}

// Contains reports whether term was loaded (exact, case-sensitive).
func (v *Vocabulary) Contains(term string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.trie.Match(patricia.Prefix(term))
}

// WithPrefix returns up to limit terms starting with prefix, in load order.
// limit <= 0 means no limit.
func (v *Vocabulary) WithPrefix(prefix string, limit int) []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var indexes []int
	err := v.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		idx, ok := item.(int)
		if !ok {
			log.Errorf("Unknown item type: %T for term %s", item, p)
			return nil
		}
		indexes = append(indexes, idx)
		return nil
	})
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	sort.Ints(indexes)
	if limit > 0 && len(indexes) > limit {
		indexes = indexes[:limit]
	}
	out := make([]string, len(indexes))
	for i, idx := range indexes {
		out[i] = v.terms[idx]
	}
	return out
}

// Candidates wraps every term as a rank.Candidate scored by scorer.
func (v *Vocabulary) Candidates(scorer score.Scorer) []rank.Candidate {
	return score.Terms(v.Terms(), scorer)
}

// Stats returns basic statistics about the loaded terms.
func (v *Vocabulary) Stats() map[string]int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	maxLen := 0
	for _, t := range v.terms {
		maxLen = max(maxLen, utf8.RuneCountInString(t))
	}
	return map[string]int{
		"terms":  len(v.terms),
		"maxLen": maxLen,
	}
}
