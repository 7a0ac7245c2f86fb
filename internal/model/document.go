// Package model defines the core domain models used throughout the application.
package model

import "time"

// DateSource names one candidate date of a document.
type DateSource string

// Candidate date sources in their default priority order.
const (
	DateContent      DateSource = "content_date"
	DateCreation     DateSource = "creation_date"
	DateModification DateSource = "modification_date"
	DateCurrent      DateSource = "current_date"
)

// DefaultDatePriority is the order used when none is configured.
var DefaultDatePriority = []DateSource{DateContent, DateCreation, DateModification, DateCurrent}

// CandidateDates holds every date that could stamp a filename. Each is optional.
type CandidateDates struct {
	Content      *time.Time `json:"content_date,omitempty"`
	Creation     *time.Time `json:"creation_date,omitempty"`
	Modification *time.Time `json:"modification_date,omitempty"`
	Current      *time.Time `json:"current_date,omitempty"`
}

// Get returns the date recorded for source, or nil.
func (d CandidateDates) Get(source DateSource) *time.Time {
	switch source {
	case DateContent:
		return d.Content
	case DateCreation:
		return d.Creation
	case DateModification:
		return d.Modification
	case DateCurrent:
		return d.Current
	default:
		return nil
	}
}

// Document is an incoming file after content extraction.
type Document struct {
	Metadata  map[string]string `json:"metadata,omitempty"`
	Dates     CandidateDates    `json:"dates"`
	Path      string            `json:"path"`
	Name      string            `json:"name"`
	Extension string            `json:"extension"`
	Content   string            `json:"content"`
	Title     string            `json:"title,omitempty"`
	Size      int64             `json:"size"`
}

// Stem returns the file name without its extension.
func (d Document) Stem() string {
	if d.Extension == "" || len(d.Name) < len(d.Extension) {
		return d.Name
	}
	return d.Name[:len(d.Name)-len(d.Extension)]
}
