package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the default maximum edit distance to consider for fuzzy matching
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions is the default maximum number of suggestions to return
	DefaultMaxSuggestions = 3
)

// FindSimilar returns up to DefaultMaxSuggestions candidates within
// DefaultMaxDistance edits of target, closest first. Qualified type names
// are also compared by their simple name, so "Persn" suggests "acme.Person".
func FindSimilar(target string, candidates []string) []string {
	type match struct {
		value    string
		distance int
	}

	target = strings.ToLower(target)
	var matches []match
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		dist := LevenshteinDistance(target, lower)
		if i := strings.LastIndexByte(lower, '.'); i >= 0 && !strings.Contains(target, ".") {
			if d := LevenshteinDistance(target, lower[i+1:]); d < dist {
				dist = d
			}
		}
		if dist <= DefaultMaxDistance {
			matches = append(matches, match{value: candidate, distance: dist})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, DefaultMaxSuggestions)
	for i := 0; i < len(matches) && i < DefaultMaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance calculates the minimum number of single-character
// edits required to change s1 into s2.
//
//	LevenshteinDistance("kitten", "sitting") // 3
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
