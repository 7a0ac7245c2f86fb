package naming

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

var fixedNow = time.Date(2025, 10, 17, 9, 30, 0, 0, time.UTC)

func newNamer(t *testing.T, cfg Config, ledger *MemoryLedger, opts ...Option) *Namer {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	n, err := New(cfg, ledger, opts...)
	require.NoError(t, err)
	return n
}

func ptr(t time.Time) *time.Time { return &t }

func TestSelectDate(t *testing.T) {
	content := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	modified := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dates    model.CandidateDates
		priority []model.DateSource
		want     time.Time
		source   model.DateSource
	}{
		{name: "content first", dates: model.CandidateDates{Content: &content, Creation: &created}, want: content, source: model.DateContent},
		{name: "creation next", dates: model.CandidateDates{Creation: &created, Modification: &modified}, want: created, source: model.DateCreation},
		{name: "modification next", dates: model.CandidateDates{Modification: &modified}, want: modified, source: model.DateModification},
		{name: "current as last resort", dates: model.CandidateDates{}, want: fixedNow, source: model.DateCurrent},
		{
			name:     "custom priority",
			dates:    model.CandidateDates{Content: &content, Modification: &modified},
			priority: []model.DateSource{model.DateModification, model.DateContent},
			want:     modified,
			source:   model.DateModification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := SelectDate(tt.dates, tt.priority, fixedNow)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestParsePriority(t *testing.T) {
	got, err := ParsePriority([]string{"modification_date", "content_date", "content_date"})
	require.NoError(t, err)
	assert.Equal(t, []model.DateSource{model.DateModification, model.DateContent}, got)

	_, err = ParsePriority([]string{"exif_date"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestNamer_SameSubjectSameFolder(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger(model.VersionSimple)
	n := newNamer(t, DefaultConfig(), ledger)
	folder := model.ResolvedPath{Segments: []string{"项目", "2025"}}
	date := time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC)
	dates := model.CandidateDates{Content: &date}

	first, err := n.Assign(ctx, folder, "项目总结", ".docx", dates)
	require.NoError(t, err)
	require.NoError(t, n.Commit(ctx, first))

	second, err := n.Assign(ctx, folder, "项目总结", ".docx", dates)
	require.NoError(t, err)
	require.NoError(t, n.Commit(ctx, second))

	assert.Equal(t, "项目总结_20251003_v1.0.docx", first.Filename)
	assert.Equal(t, "项目总结_20251003_v1.1.docx", second.Filename)
	assert.Nil(t, first.Previous)
	require.NotNil(t, second.Previous)
	assert.Equal(t, "v1.0", second.Previous.String())

	other, err := n.Assign(ctx, model.ResolvedPath{Segments: []string{"其他"}}, "项目总结", ".docx", dates)
	require.NoError(t, err)
	assert.Equal(t, "v1.0", other.Version.String(), "a different folder is a different identity")
}

func TestNamer_UncommittedAssignmentIsReissued(t *testing.T) {
	ctx := context.Background()
	n := newNamer(t, DefaultConfig(), NewMemoryLedger(model.VersionSimple))
	folder := model.ResolvedPath{Segments: []string{"会议"}}

	a, err := n.Assign(ctx, folder, "周会纪要", ".md", model.CandidateDates{})
	require.NoError(t, err)
	b, err := n.Assign(ctx, folder, "周会纪要", ".md", model.CandidateDates{})
	require.NoError(t, err)

	assert.Equal(t, a.Version, b.Version)
	assert.Equal(t, "周会纪要_20251017_v1.0.md", a.Filename)
}

func TestNamer_SemanticAndCeiling(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Format = model.VersionSemantic
	cfg.Initial = model.Version{Major: 1, Semantic: true}
	n := newNamer(t, cfg, NewMemoryLedger(model.VersionSemantic))
	folder := model.ResolvedPath{Segments: []string{"技术"}}

	var got []string
	for i := 0; i < 3; i++ {
		a, err := n.Assign(ctx, folder, "设计文档", ".md", model.CandidateDates{})
		require.NoError(t, err)
		require.NoError(t, n.Commit(ctx, a))
		got = append(got, a.Version.String())
	}
	assert.Equal(t, []string{"v1.0.0", "v1.0.1", "v1.0.2"}, got)

	cfg = DefaultConfig()
	cfg.MinorCeiling = 2
	n = newNamer(t, cfg, NewMemoryLedger(model.VersionSimple))
	got = nil
	for i := 0; i < 4; i++ {
		a, err := n.Assign(ctx, folder, "设计文档", ".md", model.CandidateDates{})
		require.NoError(t, err)
		require.NoError(t, n.Commit(ctx, a))
		got = append(got, a.Version.String())
	}
	assert.Equal(t, []string{"v1.0", "v1.1", "v2.0", "v2.1"}, got)
}

func TestNamer_SeedsFromExistingFiles(t *testing.T) {
	ctx := context.Background()
	existing := func(folder string) []string {
		if folder != "项目/2025" {
			return nil
		}
		return []string{
			"项目总结_20250101_v1.3.docx",
			"项目总结_20250301_v1.10.docx",
			"项目总结_20250301_v1.0.2.docx",
			"其他文档_20250301_v9.0.docx",
			"README.md",
		}
	}
	n := newNamer(t, DefaultConfig(), NewMemoryLedger(model.VersionSimple), WithExistingFiles(existing))

	a, err := n.Assign(ctx, model.ResolvedPath{Segments: []string{"项目", "2025"}}, "项目总结", ".docx", model.CandidateDates{})
	require.NoError(t, err)
	assert.Equal(t, "v1.11", a.Version.String())
}

func TestNamer_FormatMismatch(t *testing.T) {
	ctx := context.Background()
	folder := model.ResolvedPath{Segments: []string{"技术"}}
	key := model.IdentityKey{Subject: "设计文档", Folder: "技术"}

	// history written while the ledger was in semantic mode
	semantic := NewMemoryLedger(model.VersionSemantic)
	require.NoError(t, semantic.Record(ctx, model.VersionRecord{Key: key, Version: model.Version{Major: 1, Semantic: true}}))
	semantic.format = model.VersionSimple

	n := newNamer(t, DefaultConfig(), semantic)
	_, err := n.Assign(ctx, folder, "设计文档", ".md", model.CandidateDates{})
	assert.ErrorIs(t, err, common.ErrVersionFormatMismatch)

	hist, err := semantic.History(ctx, "设计文档")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "v1.0.0", hist[0].Version.String(), "existing tokens are untouched")

	_, err = semantic.History(ctx, "会议纪要")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{name: "initial does not match format", mutate: func(c *Config) { c.Format = model.VersionSemantic }, wantKey: "file_processing.initial_version"},
		{name: "unknown format", mutate: func(c *Config) { c.Format = "calendar" }, wantKey: "file_processing.version_format"},
		{name: "underscore in date", mutate: func(c *Config) { c.DateLayout = "2006_01_02" }, wantKey: "file_processing.date_format"},
		{name: "filename too short", mutate: func(c *Config) { c.MaxFilenameLength = 10 }, wantKey: "file_processing.max_filename_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantKey)
		})
	}
}

func TestMemoryLedger_RejectsRegression(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(model.VersionSimple)
	key := model.IdentityKey{Subject: "a", Folder: "b"}

	require.NoError(t, l.Record(ctx, model.VersionRecord{Key: key, Version: model.Version{Major: 1, Minor: 1}}))
	err := l.Record(ctx, model.VersionRecord{Key: key, Version: model.Version{Major: 1, Minor: 1}})
	assert.ErrorIs(t, err, common.ErrVersionRegression)
	err = l.Record(ctx, model.VersionRecord{Key: key, Version: model.Version{Major: 1, Semantic: true}})
	assert.ErrorIs(t, err, common.ErrVersionFormatMismatch)
}

func TestMemoryLedger_ConcurrentRecord(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger(model.VersionSimple)
	key := model.IdentityKey{Subject: "a", Folder: "b"}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Record(ctx, model.VersionRecord{Key: key, Version: model.Version{Major: 1}}) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok, "the same version is issued once")
}

func TestNamer_StrictlyIncreasingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		semantic := rapid.Bool().Draw(rt, "semantic")
		cfg := DefaultConfig()
		if semantic {
			cfg.Format = model.VersionSemantic
			cfg.Initial = model.Version{Major: 1, Semantic: true}
		}
		cfg.MinorCeiling = rapid.IntRange(0, 5).Draw(rt, "ceiling")

		n, err := New(cfg, NewMemoryLedger(cfg.Format), WithClock(func() time.Time { return fixedNow }))
		if err != nil {
			rt.Fatalf("new: %v", err)
		}
		subject := rapid.SampledFrom([]string{"项目总结", "Weekly Report", "设计 文档"}).Draw(rt, "subject")
		folder := model.ResolvedPath{Segments: []string{"项目"}}
		count := rapid.IntRange(1, 15).Draw(rt, "count")

		var prev *model.Version
		for i := 0; i < count; i++ {
			a, err := n.Assign(context.Background(), folder, subject, ".md", model.CandidateDates{Current: ptr(fixedNow)})
			if err != nil {
				rt.Fatalf("assign: %v", err)
			}
			if a.Version.Format() != cfg.Format {
				rt.Fatalf("version %s not in %s format", a.Version, cfg.Format)
			}
			if prev != nil && !prev.Less(a.Version) {
				rt.Fatalf("version %s does not follow %s", a.Version, prev)
			}
			if err := n.Commit(context.Background(), a); err != nil {
				rt.Fatalf("commit: %v", err)
			}
			v := a.Version
			prev = &v
		}
	})
}
