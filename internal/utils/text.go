package utils

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// FormatScore renders a score with at most three decimals.
func FormatScore(score float64) string {
	s := strconv.FormatFloat(score, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
