// Package service defines the interfaces shared between the engine and its stores.
package service

import (
	"context"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// VersionLedger tracks the last version issued per identity key.
// Implementations serialize writers per key; Record rejects a version that
// does not advance past the latest one. History returns common.ErrNotFound
// for a subject with no records.
type VersionLedger interface {
	Latest(ctx context.Context, key model.IdentityKey) (*model.Version, error)
	Record(ctx context.Context, record model.VersionRecord) error
	History(ctx context.Context, subject string) ([]model.VersionRecord, error)
}

// PlacementRecord is a persisted outcome of one processed document.
type PlacementRecord struct {
	PlacedAt   time.Time
	RunID      string
	Source     string
	Status     model.OutcomeStatus
	Category   string
	Tier       model.Tier
	Folder     string
	Filename   string
	Version    string
	Error      string
	Confidence float64
}

// Storage is the persistence layer behind the engine.
type Storage interface {
	VersionLedger

	SavePlacement(ctx context.Context, runID string, outcome model.Outcome) error
	RecentPlacements(ctx context.Context, limit int) ([]PlacementRecord, error)
	CheckVersionFormat(ctx context.Context, format model.VersionFormat) error

	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
