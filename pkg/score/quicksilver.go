package score

import (
	"unicode"
)

// Penalties for characters skipped before a match.
const (
	skippedSeparatorPenalty = 1.0
	skippedCharPenalty      = 0.15
	emptyAbbreviationScore  = 0.9
)

// Quicksilver implements the Quicksilver abbreviation score.
//
// The longest prefix of the abbreviation found in the text is matched first,
// then the rest of the abbreviation is scored recursively against the rest
// of the text. Matches right after whitespace or on an upper-case letter
// (word starts) are cheaper than matches in the middle of a word.
// Scores are in [0, 1]; an exact match scores 1.
type Quicksilver struct{}

func (Quicksilver) Score(text, query string) float64 {
	orig := []rune(text)
	folded := []rune(fold(text))
	abbr := []rune(fold(query))

	upper := make([]bool, len(folded))
	if len(orig) == len(folded) {
		for i, r := range orig {
			upper[i] = unicode.IsUpper(r)
		}
	}
	return quicksilver(folded, abbr, upper, 0)
}

func quicksilver(text, abbr []rune, upper []bool, offset int) float64 {
	if len(abbr) == 0 {
		return emptyAbbreviationScore
	}
	if len(abbr) > len(text) {
		return 0
	}

	for i := len(abbr); i > 0; i-- {
		index := indexRunes(text, abbr[:i])
		if index < 0 {
			continue
		}
		if index+len(abbr) > len(text)+offset {
			continue
		}

		next := text[index+i:]
		remaining := quicksilver(next, abbr[i:], upper[index+i:], offset+index)
		if remaining <= 0 {
			continue
		}

		score := float64(len(text) - len(next))
		if index != 0 {
			switch {
			case unicode.IsSpace(text[index-1]):
				for j := index - 2; j >= 0; j-- {
					if unicode.IsSpace(text[j]) {
						score -= skippedSeparatorPenalty
					} else {
						score -= skippedCharPenalty
					}
				}
			case upper[index]:
				for j := index - 1; j >= 0; j-- {
					if upper[j] {
						score -= skippedSeparatorPenalty
					} else {
						score -= skippedCharPenalty
					}
				}
			default:
				score -= float64(index)
			}
		}
		score += remaining * float64(len(next))
		return score / float64(len(text))
	}
	return 0
}

// indexRunes is strings.Index over rune slices.
func indexRunes(s, sub []rune) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		match := true
		for j := 0; j < n; j++ {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
