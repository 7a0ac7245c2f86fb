package model

import "time"

// Placement is what the engine hands to the filesystem mover.
type Placement struct {
	Source   string   `json:"source"`
	Root     string   `json:"root"`
	Segments []string `json:"destination_folder_segments"`
	Filename string   `json:"final_filename"`
}

// OutcomeStatus records what happened to a document.
type OutcomeStatus string

// Outcome statuses.
const (
	OutcomePlaced  OutcomeStatus = "placed"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the per-document result of a run.
type Outcome struct {
	Err            error                `json:"-"`
	Classification ClassificationResult `json:"classification"`
	Source         string               `json:"source"`
	Status         OutcomeStatus        `json:"status"`
	Subject        string               `json:"subject"`
	Path           ResolvedPath         `json:"path"`
	Filename       string               `json:"filename"`
	Version        string               `json:"version"`
}

// BatchSummary aggregates the outcomes of one run.
type BatchSummary struct {
	ByTier         map[Tier]int  `json:"by_tier"`
	RunID          string        `json:"run_id"`
	Total          int           `json:"total"`
	Placed         int           `json:"placed"`
	Failed         int           `json:"failed"`
	Skipped        int           `json:"skipped"`
	FoldersCreated int           `json:"folders_created"`
	Duration       time.Duration `json:"duration"`
}

// Add folds one outcome into the summary.
func (s *BatchSummary) Add(o Outcome) {
	s.Total++
	switch o.Status {
	case OutcomePlaced:
		s.Placed++
		if o.Path.Created {
			s.FoldersCreated++
		}
	case OutcomeFailed:
		s.Failed++
	case OutcomeSkipped:
		s.Skipped++
	}
	if o.Classification.Tier != "" {
		if s.ByTier == nil {
			s.ByTier = make(map[Tier]int)
		}
		s.ByTier[o.Classification.Tier]++
	}
}
