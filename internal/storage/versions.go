package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

// queryable is an interface satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Latest returns the newest version recorded for key, or nil when the key is unknown.
func (s *SQLiteStorage) Latest(ctx context.Context, key model.IdentityKey) (*model.Version, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	v, err := latestTx(ctx, s.db, key)
	if err != nil || v == nil {
		return nil, err
	}
	if v.Format() != s.format {
		return nil, fmt.Errorf("%w: %s has %s, configured %s", common.ErrVersionFormatMismatch, key, v, s.format)
	}
	return v, nil
}

func latestTx(ctx context.Context, q queryable, key model.IdentityKey) (*model.Version, error) {
	var (
		v        model.Version
		semantic int
	)
	err := q.QueryRowContext(ctx, `
		SELECT major, minor, patch, semantic
		FROM version_records
		WHERE folder = ? AND subject = ?
		ORDER BY major DESC, minor DESC, patch DESC
		LIMIT 1`,
		key.Folder, key.Subject,
	).Scan(&v.Major, &v.Minor, &v.Patch, &semantic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest version: %w", err)
	}
	v.Semantic = semantic != 0
	return &v, nil
}

// Record appends a version record. The version must be in the configured
// format and advance past the latest version for the same key.
func (s *SQLiteStorage) Record(ctx context.Context, record model.VersionRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRecord(record); err != nil {
		return err
	}
	if record.Version.Format() != s.format {
		return fmt.Errorf("%w: %s is not %s", common.ErrVersionFormatMismatch, record.Version, s.format)
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	latest, err := latestTx(ctx, tx, record.Key)
	if err != nil {
		return err
	}
	if latest != nil && !latest.Less(record.Version) {
		return fmt.Errorf("%w: %s after %s for %s", common.ErrVersionRegression, record.Version, latest, record.Key)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO version_records (subject, folder, major, minor, patch, semantic, filename, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Key.Subject, record.Key.Folder,
		record.Version.Major, record.Version.Minor, record.Version.Patch, boolToInt(record.Version.Semantic),
		record.Filename, record.RecordedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert version record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit version record: %w", err)
	}
	return nil
}

// History lists records for subject, or all records when subject is empty,
// oldest first. An unknown subject returns common.ErrNotFound.
func (s *SQLiteStorage) History(ctx context.Context, subject string) ([]model.VersionRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT subject, folder, major, minor, patch, semantic, filename, recorded_at
		FROM version_records`
	var args []any
	if subject != "" {
		query += ` WHERE subject = ?`
		args = append(args, subject)
	}
	query += ` ORDER BY recorded_at, folder, subject, major, minor, patch`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query version history: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.VersionRecord
	for rows.Next() {
		var (
			rec      model.VersionRecord
			semantic int
		)
		if err := rows.Scan(
			&rec.Key.Subject, &rec.Key.Folder,
			&rec.Version.Major, &rec.Version.Minor, &rec.Version.Patch, &semantic,
			&rec.Filename, &rec.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan version record: %w", err)
		}
		rec.Version.Semantic = semantic != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate version records: %w", err)
	}
	if subject != "" && len(out) == 0 {
		return nil, fmt.Errorf("%w: no versions for subject %q", common.ErrNotFound, subject)
	}
	return out, nil
}

// CheckVersionFormat reports ErrVersionFormatMismatch when the ledger already
// holds records written in a format other than format.
func (s *SQLiteStorage) CheckVersionFormat(ctx context.Context, format model.VersionFormat) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	want := boolToInt(format == model.VersionSemantic)

	var conflicting int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM version_records WHERE semantic != ?`, want,
	).Scan(&conflicting)
	if err != nil {
		return fmt.Errorf("failed to check ledger format: %w", err)
	}
	if conflicting > 0 {
		return fmt.Errorf("%w: ledger holds %d records not in %s format", common.ErrVersionFormatMismatch, conflicting, format)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
