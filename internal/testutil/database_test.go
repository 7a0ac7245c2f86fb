package testutil_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/testutil"
)

func TestSetupTestLedger_Migrated(t *testing.T) {
	ledger := testutil.SetupTestLedger(t)

	v, err := ledger.Storage.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Positive(t, v)
}

func TestSetupTestLedgerWithOptions_Seed(t *testing.T) {
	key := model.IdentityKey{Subject: "周会纪要", Folder: "会议沟通/2025"}
	ledger := testutil.SetupTestLedgerWithOptions(t, testutil.TestLedgerOptions{
		Seed: []model.VersionRecord{
			{Key: key, Version: model.Version{Major: 1}, Filename: "周会纪要_20250101_v1.0.md", RecordedAt: time.Now()},
			{Key: key, Version: model.Version{Major: 1, Minor: 1}, Filename: "周会纪要_20250108_v1.1.md", RecordedAt: time.Now()},
		},
	})

	assert.Equal(t, model.Version{Major: 1, Minor: 1}, ledger.MustLatest(key))
}
