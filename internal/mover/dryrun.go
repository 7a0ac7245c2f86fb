package mover

import (
	"context"
	"sync"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// DryRun validates placements and records them without touching the filesystem.
type DryRun struct {
	placed []model.Placement
	mu     sync.Mutex
}

// Place validates p and records it.
func (d *DryRun) Place(ctx context.Context, p model.Placement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	target, err := Target(p)
	if err != nil {
		return Result{}, err
	}
	d.mu.Lock()
	d.placed = append(d.placed, p)
	d.mu.Unlock()
	return Result{Target: target}, nil
}

// Placements returns the recorded placements in call order.
func (d *DryRun) Placements() []model.Placement {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Placement, len(d.placed))
	copy(out, d.placed)
	return out
}
