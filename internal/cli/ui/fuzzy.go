package ui

import (
	"sort"
	"strings"
)

const (
	maxSuggestDistance = 3
	maxSuggestions     = 3
)

// Suggest returns the candidates closest to the target by edit distance,
// nearest first, case-insensitively. Candidates further than three edits
// away are not offered.
func Suggest(target string, candidates []string) []string {
	type scored struct {
		value    string
		distance int
	}

	var matches []scored
	for _, candidate := range candidates {
		d := editDistance(strings.ToLower(target), strings.ToLower(candidate))
		if d <= maxSuggestDistance {
			matches = append(matches, scored{value: candidate, distance: d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, maxSuggestions)
	for i := 0; i < len(matches) && i < maxSuggestions; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// editDistance computes the Levenshtein distance between two strings using
// a two-row table
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
