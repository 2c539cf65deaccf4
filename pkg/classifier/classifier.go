// Package classifier decides whether a prompt continues a prior exchange or
// starts a standalone request. Pure text heuristics: a false negative only
// skips context assembly, a false positive only costs an extra lookup.
package classifier

import (
	"strings"
)

type Result struct {
	IsFollowUp bool    `json:"is_follow_up"`
	Confidence float64 `json:"confidence"`
}

// Marker categories, evaluated in order. Confidence is the fraction of
// categories that matched.
var (
	continuationMarkers = []string{
		"continue", "also", "and then", "next", "additionally", "one more",
		"keep going", "go on", "more of",
	}
	clarifyingMarkers = []string{
		"what about", "how about", "could you", "can you", "would you",
		"what if", "why", "which one",
	}
	contrastiveMarkers = []string{
		"but ", "however", "instead", "actually", "rather", "on second thought",
	}
	affirmationMarkers = []string{
		"yes", "yeah", "ok", "okay", "sure", "thanks", "thank you", "great",
		"perfect", "sounds good",
	}
)

const categoryCount = 5

// Classify evaluates the prompt against the marker categories. IsFollowUp is
// true when at least one category hits.
func Classify(prompt string) Result {
	text := strings.ToLower(strings.TrimSpace(prompt))
	if text == "" {
		return Result{}
	}

	hits := 0
	if matchesAny(text, continuationMarkers) {
		hits++
	}
	if matchesAny(text, clarifyingMarkers) {
		hits++
	}
	if matchesAny(text, contrastiveMarkers) {
		hits++
	}
	if matchesAffirmation(text) {
		hits++
	}
	if strings.HasSuffix(text, "?") {
		hits++
	}

	return Result{
		IsFollowUp: hits > 0,
		Confidence: float64(hits) / float64(categoryCount),
	}
}

func matchesAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Affirmations only count at the start of the prompt; "yes" buried in the
// middle of a long request is not an acknowledgement.
func matchesAffirmation(text string) bool {
	for _, m := range affirmationMarkers {
		if text == m || strings.HasPrefix(text, m+" ") || strings.HasPrefix(text, m+",") || strings.HasPrefix(text, m+".") {
			return true
		}
	}
	return false
}
