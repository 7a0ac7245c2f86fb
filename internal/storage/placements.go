package storage

import (
	"context"
	"fmt"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

// SavePlacement stores the outcome of one processed document.
func (s *SQLiteStorage) SavePlacement(ctx context.Context, runID string, outcome model.Outcome) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if err := validateString(outcome.Source, "source"); err != nil {
		return err
	}

	var errText string
	if outcome.Err != nil {
		errText = outcome.Err.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO placements (run_id, source, status, category, tier, confidence, folder, filename, version, error, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, outcome.Source, string(outcome.Status),
		outcome.Classification.Category, string(outcome.Classification.Tier), outcome.Classification.Confidence,
		outcome.Path.Key(), outcome.Filename, outcome.Version, errText,
		s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save placement: %w", err)
	}
	return nil
}

// RecentPlacements returns up to limit placements, newest first.
func (s *SQLiteStorage) RecentPlacements(ctx context.Context, limit int) ([]service.PlacementRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, source, status, COALESCE(category, ''), COALESCE(tier, ''), COALESCE(confidence, 0),
			COALESCE(folder, ''), COALESCE(filename, ''), COALESCE(version, ''), COALESCE(error, ''), placed_at
		FROM placements
		ORDER BY placed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query placements: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []service.PlacementRecord
	for rows.Next() {
		var (
			rec    service.PlacementRecord
			status string
			tier   string
		)
		if err := rows.Scan(&rec.RunID, &rec.Source, &status, &rec.Category, &tier, &rec.Confidence,
			&rec.Folder, &rec.Filename, &rec.Version, &rec.Error, &rec.PlacedAt); err != nil {
			return nil, fmt.Errorf("failed to scan placement: %w", err)
		}
		rec.Status = model.OutcomeStatus(status)
		rec.Tier = model.Tier(tier)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate placements: %w", err)
	}
	return out, nil
}
