package util

import (
	"regexp"
	"strings"
)

var (
	reBrackets = regexp.MustCompile(`[()\[\]{}]`)
	reNonName  = regexp.MustCompile(`[^A-Z0-9\-'\s]`)
	reSpaces   = regexp.MustCompile(`\s+`)
)

func StringPtr(v string) *string { return &v }

func Deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// NormalizeName folds a display name for similarity checks: upper case,
// brackets and punctuation dropped, spaces collapsed.
func NormalizeName(input string) string {
	s := strings.ToUpper(input)
	s = strings.ReplaceAll(s, "’", "'")
	s = reBrackets.ReplaceAllString(s, " ")
	s = reNonName.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}
