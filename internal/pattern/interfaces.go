// Package pattern scans document text for rule keywords.
package pattern

// Hits maps a category to the number of its distinct keywords found in a document.
type Hits map[string]int

// Scanner finds keyword hits for every rule in a rule set.
type Scanner interface {
	Scan(content string) Hits
}
