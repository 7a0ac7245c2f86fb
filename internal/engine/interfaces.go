package engine

import (
	"context"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/mover"
)

// Labeler suggests a subject and category for a document.
type Labeler interface {
	Label(ctx context.Context, doc model.Document, categories []string) (*model.LabelerHint, error)
}

// Mover applies a placement to the filesystem.
type Mover interface {
	Place(ctx context.Context, p model.Placement) (mover.Result, error)
}

// Recorder observes engine activity, typically for metrics.
type Recorder interface {
	ObserveOutcome(o model.Outcome, elapsed time.Duration)
	ObserveLabeler(err error, elapsed time.Duration)
	ObserveFoldersCreated(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOutcome(model.Outcome, time.Duration) {}
func (nopRecorder) ObserveLabeler(error, time.Duration)         {}
func (nopRecorder) ObserveFoldersCreated(int)                   {}
