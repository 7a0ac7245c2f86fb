// Package testutil provides shared test helpers: an isolated, migrated
// ledger and inbox document fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/storage"
)

// TestLedger is an in-memory ledger scoped to one test.
type TestLedger struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestLedgerOptions configures SetupTestLedgerWithOptions.
type TestLedgerOptions struct {
	Format         model.VersionFormat
	Seed           []model.VersionRecord
	Storage        []storage.Option
	SkipMigrations bool
}

// SetupTestLedger creates a migrated in-memory ledger in the simple format.
// It is closed when the test ends.
//
// Example:
//
//	ledger := testutil.SetupTestLedger(t)
//	namer, err := naming.New(naming.DefaultConfig(), ledger.Storage)
func SetupTestLedger(t *testing.T) *TestLedger {
	t.Helper()
	return SetupTestLedgerWithOptions(t, TestLedgerOptions{})
}

// SetupTestLedgerWithOptions creates a ledger with custom options. Seed
// records are written in order after migrations.
func SetupTestLedgerWithOptions(t *testing.T, opts TestLedgerOptions) *TestLedger {
	t.Helper()

	if opts.Format == "" {
		opts.Format = model.VersionSimple
	}
	storageOpts := append([]storage.Option{storage.WithVersionFormat(opts.Format)}, opts.Storage...)

	store, err := storage.NewSQLiteStorage(storage.MemoryPath, storageOpts...)
	if err != nil {
		t.Fatalf("failed to create test ledger: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	for _, rec := range opts.Seed {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("failed to seed version %s for %s: %v", rec.Version, rec.Key, err)
		}
	}

	return &TestLedger{Storage: store, t: t}
}

// MustLatest returns the latest version recorded for key or fails the test
// when there is none.
func (l *TestLedger) MustLatest(key model.IdentityKey) model.Version {
	l.t.Helper()
	v, err := l.Storage.Latest(context.Background(), key)
	if err != nil {
		l.t.Fatalf("failed to read latest version for %s: %v", key, err)
	}
	if v == nil {
		l.t.Fatalf("no version recorded for %s", key)
	}
	return *v
}
