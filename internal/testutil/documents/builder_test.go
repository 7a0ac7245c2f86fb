package documents_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Squareczm/DocumentationTool/internal/testutil/documents"
)

func TestBuilder_WritesFixtureAndExtras(t *testing.T) {
	dir := t.TempDir()
	paths := documents.NewBuilder(t).
		WithFixture(documents.FixtureMixed).
		WithDocument("nested/notes.md", "# 随手记\n").
		Build(dir)

	assert.Len(t, paths, 6)
	notes := paths.MustGet(t, "nested/notes.md")
	assert.Equal(t, filepath.Join(dir, "nested", "notes.md"), notes)

	data, err := os.ReadFile(paths.MustGet(t, "report.md"))
	require.NoError(t, err)
	assert.Equal(t, documents.FinanceReport, string(data))

	info, err := os.Stat(notes)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(documents.DefaultModTime))
}

func TestBuilder_ModTimeAndOrder(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	dir := t.TempDir()
	paths := documents.NewBuilder(t).
		WithDocument("b.md", "b").
		WithDocument("a.md", "a").
		WithModTime(when).
		Build(dir)

	assert.Equal(t, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")}, paths.Sorted())

	info, err := os.Stat(paths.MustGet(t, "a.md"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(when))
}
