package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

func createTestStorage(t *testing.T, opts ...Option) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(MemoryPath, opts...)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func simple(major, minor int) model.Version {
	return model.Version{Major: major, Minor: minor}
}

func record(subject, folder string, v model.Version, at time.Time) model.VersionRecord {
	return model.VersionRecord{
		Key:        model.IdentityKey{Subject: subject, Folder: folder},
		Filename:   subject + "_20251003_" + v.String() + ".md",
		Version:    v,
		RecordedAt: at,
	}
}

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := NewSQLiteStorage("  ")
		assert.ErrorIs(t, err, ErrEmptyString)
	})

	t.Run("creates parent directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")
		store, err := NewSQLiteStorage(path)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		require.NoError(t, store.Migrate(context.Background()))
		assert.Equal(t, path, store.Path())
		assert.FileExists(t, path)
	})
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	v, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, v)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var tables int
	err = store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sqlite_master
		WHERE type = 'table' AND name IN ('version_records', 'placements')`).Scan(&tables)
	require.NoError(t, err)
	assert.Equal(t, 2, tables)
}

func TestLedger_LatestAndRecord(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	base := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)
	key := model.IdentityKey{Subject: "周会纪要", Folder: "会议沟通"}

	latest, err := store.Latest(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, latest)

	require.NoError(t, store.Record(ctx, record(key.Subject, key.Folder, simple(1, 0), base)))
	require.NoError(t, store.Record(ctx, record(key.Subject, key.Folder, simple(1, 1), base.Add(time.Minute))))

	latest, err = store.Latest(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "v1.1", latest.String())

	other, err := store.Latest(ctx, model.IdentityKey{Subject: key.Subject, Folder: "其他"})
	require.NoError(t, err)
	assert.Nil(t, other, "keys are scoped by folder")
}

func TestLedger_RecordRejects(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		wantErr error
		setup   []model.VersionRecord
		rec     model.VersionRecord
		name    string
	}{
		{
			name:    "regression",
			setup:   []model.VersionRecord{record("a", "f", simple(1, 2), base)},
			rec:     record("a", "f", simple(1, 1), base),
			wantErr: common.ErrVersionRegression,
		},
		{
			name:    "repeat",
			setup:   []model.VersionRecord{record("a", "f", simple(1, 2), base)},
			rec:     record("a", "f", simple(1, 2), base),
			wantErr: common.ErrVersionRegression,
		},
		{
			name:    "wrong format",
			rec:     record("a", "f", model.Version{Major: 1, Semantic: true}, base),
			wantErr: common.ErrVersionFormatMismatch,
		},
		{
			name:    "missing subject",
			rec:     record("", "f", simple(1, 0), base),
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "patch on simple version",
			rec:     record("a", "f", model.Version{Major: 1, Patch: 3}, base),
			wantErr: ErrInvalidRecord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := createTestStorage(t)
			for _, rec := range tt.setup {
				require.NoError(t, store.Record(ctx, rec))
			}
			err := store.Record(ctx, tt.rec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLedger_SemanticFormat(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t, WithVersionFormat(model.VersionSemantic))
	v := model.Version{Major: 1, Minor: 0, Patch: 1, Semantic: true}

	require.NoError(t, store.Record(ctx, record("a", "f", v, time.Now())))
	latest, err := store.Latest(ctx, model.IdentityKey{Subject: "a", Folder: "f"})
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, v, *latest)

	assert.NoError(t, store.CheckVersionFormat(ctx, model.VersionSemantic))
	assert.ErrorIs(t, store.CheckVersionFormat(ctx, model.VersionSimple), common.ErrVersionFormatMismatch)
}

func TestLedger_FormatChangedAfterWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Record(ctx, record("a", "f", simple(1, 0), time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStorage(path, WithVersionFormat(model.VersionSemantic))
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	assert.ErrorIs(t, reopened.CheckVersionFormat(ctx, model.VersionSemantic), common.ErrVersionFormatMismatch)
	_, err = reopened.Latest(ctx, model.IdentityKey{Subject: "a", Folder: "f"})
	assert.ErrorIs(t, err, common.ErrVersionFormatMismatch)
}

func TestLedger_History(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	base := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, record("b", "f", simple(1, 0), base.Add(2*time.Minute))))
	require.NoError(t, store.Record(ctx, record("a", "f", simple(1, 0), base)))
	require.NoError(t, store.Record(ctx, record("a", "f", simple(1, 1), base.Add(time.Minute))))

	all, err := store.History(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Key.Subject)
	assert.Equal(t, "v1.1", all[1].Version.String())
	assert.Equal(t, "b", all[2].Key.Subject)
	assert.True(t, all[0].RecordedAt.Equal(base))

	onlyA, err := store.History(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, onlyA, 2)

	_, err = store.History(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestLedger_ConcurrentRecordsStayMonotonic(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)
	key := model.IdentityKey{Subject: "a", Folder: "f"}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for minor := 0; minor < 10; minor++ {
				err := store.Record(ctx, record(key.Subject, key.Folder, simple(1, minor), time.Now()))
				if err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
					continue
				}
				if !errors.Is(err, common.ErrVersionRegression) {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	rows, err := store.db.QueryContext(ctx, `SELECT minor FROM version_records ORDER BY id`)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var minors []int
	for rows.Next() {
		var m int
		require.NoError(t, rows.Scan(&m))
		minors = append(minors, m)
	}
	require.NoError(t, rows.Err())
	assert.Len(t, minors, accepted)
	for i := 1; i < len(minors); i++ {
		assert.Less(t, minors[i-1], minors[i], "insertion order must follow version order")
	}
}

func TestPlacements(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 10, 3, 9, 0, 0, 0, time.UTC)
	store := createTestStorage(t, WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	placed := model.Outcome{
		Source: "/inbox/周会纪要.md",
		Status: model.OutcomePlaced,
		Classification: model.ClassificationResult{
			Category:   "会议沟通",
			Tier:       model.TierExact,
			Confidence: 1,
		},
		Path:     model.ResolvedPath{Segments: []string{"会议沟通", "2025"}},
		Filename: "周会纪要_20251003_v1.0.md",
		Version:  "v1.0",
	}
	failed := model.Outcome{
		Source: "/inbox/broken.pdf",
		Status: model.OutcomeFailed,
		Err:    errors.New("permission denied"),
	}

	require.NoError(t, store.SavePlacement(ctx, "run-1", placed))
	require.NoError(t, store.SavePlacement(ctx, "run-1", failed))

	recent, err := store.RecentPlacements(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "/inbox/broken.pdf", recent[0].Source)
	assert.Equal(t, model.OutcomeFailed, recent[0].Status)
	assert.Equal(t, "permission denied", recent[0].Error)

	assert.Equal(t, "会议沟通/2025", recent[1].Folder)
	assert.Equal(t, model.TierExact, recent[1].Tier)
	assert.Equal(t, "v1.0", recent[1].Version)
	assert.InDelta(t, 1.0, recent[1].Confidence, 1e-9)

	one, err := store.RecentPlacements(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = store.RecentPlacements(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.ErrorIs(t, store.SavePlacement(ctx, "", placed), ErrEmptyString)
}
