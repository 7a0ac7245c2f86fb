package model

import "sort"

// RuleScore is one rule's score within a tier.
type RuleScore struct {
	Category string
	Score    float64
	Priority int
}

// RuleScores supports deterministic ordering of competing rules.
type RuleScores []RuleScore

// Len implements sort.Interface.
func (r RuleScores) Len() int {
	return len(r)
}

// Less implements sort.Interface: higher score, then lower priority number, then name.
func (r RuleScores) Less(i, j int) bool {
	if r[i].Score != r[j].Score {
		return r[i].Score > r[j].Score
	}
	if r[i].Priority != r[j].Priority {
		return r[i].Priority < r[j].Priority
	}
	return r[i].Category < r[j].Category
}

// Swap implements sort.Interface.
func (r RuleScores) Swap(i, j int) {
	r[i], r[j] = r[j], r[i]
}

// Sort orders the scores so the winner comes first.
func (r RuleScores) Sort() {
	sort.Sort(r)
}

// Top returns the winning score, if any.
func (r RuleScores) Top() (RuleScore, bool) {
	if len(r) == 0 {
		return RuleScore{}, false
	}
	return r[0], true
}
