package score

import (
	"github.com/sahilm/fuzzy"
)

// Fuzzy scores with sahilm/fuzzy, the matcher used by fzf-style pickers.
// Any match scores at least 1 so that a weak but complete match still counts.
type Fuzzy struct{}

func (Fuzzy) Score(text, query string) float64 {
	if query == "" {
		return 0
	}
	matches := fuzzy.Find(query, []string{text})
	if len(matches) == 0 {
		return 0
	}
	return float64(max(matches[0].Score, 0) + 1)
}
