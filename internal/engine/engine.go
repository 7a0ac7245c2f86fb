// Package engine drives documents from the inbox through extraction,
// classification, folder resolution, naming and placement.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/Squareczm/DocumentationTool/internal/classification"
	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/extract"
	"github.com/Squareczm/DocumentationTool/internal/folder"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/naming"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

// DefaultFallbackSubject is used when neither the labeler nor the document
// offers a subject.
const DefaultFallbackSubject = "未分类文档"

// Config holds the engine tunables.
type Config struct {
	FallbackSubject    string
	RefreshPolicy      folder.RefreshPolicy
	Workers            int
	LabelerConcurrency int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:            4,
		LabelerConcurrency: 2,
		FallbackSubject:    DefaultFallbackSubject,
		RefreshPolicy:      folder.RefreshStartup,
	}
}

// Deps are the collaborators of an Engine. Labeler, Storage and Recorder
// are optional.
type Deps struct {
	Provider   extract.Provider
	Classifier *classification.Classifier
	Resolver   *folder.Resolver
	Index      *folder.Index
	Namer      *naming.Namer
	Mover      Mover
	Labeler    Labeler
	Storage    service.Storage
	Recorder   Recorder
	Logger     *slog.Logger
}

// ProgressFunc is called once per finished document.
type ProgressFunc func(o model.Outcome)

// Engine orchestrates one document at a time or a whole batch.
type Engine struct {
	deps       Deps
	labelSlots *semaphore.Weighted
	placeSlots *semaphore.Weighted
	categories *keyedMutex
	identities *keyedMutex
	logger     *slog.Logger
	now        func() time.Time
	cfg        Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the current-date candidate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(cfg Config, deps Deps, opts ...Option) (*Engine, error) {
	switch {
	case deps.Provider == nil:
		return nil, fmt.Errorf("%w: extract provider", common.ErrMissingConfig)
	case deps.Classifier == nil:
		return nil, fmt.Errorf("%w: classifier", common.ErrMissingConfig)
	case deps.Resolver == nil || deps.Index == nil:
		return nil, fmt.Errorf("%w: folder resolver", common.ErrMissingConfig)
	case deps.Namer == nil:
		return nil, fmt.Errorf("%w: namer", common.ErrMissingConfig)
	case deps.Mover == nil:
		return nil, fmt.Errorf("%w: mover", common.ErrMissingConfig)
	}

	defaults := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = defaults.Workers
	}
	if cfg.LabelerConcurrency <= 0 {
		cfg.LabelerConcurrency = defaults.LabelerConcurrency
	}
	if strings.TrimSpace(cfg.FallbackSubject) == "" {
		cfg.FallbackSubject = defaults.FallbackSubject
	}
	if cfg.RefreshPolicy == "" {
		cfg.RefreshPolicy = defaults.RefreshPolicy
	}
	if deps.Recorder == nil {
		deps.Recorder = nopRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	e := &Engine{
		cfg:        cfg,
		deps:       deps,
		labelSlots: semaphore.NewWeighted(int64(cfg.LabelerConcurrency)),
		placeSlots: semaphore.NewWeighted(int64(cfg.Workers)),
		categories: newKeyedMutex(),
		identities: newKeyedMutex(),
		logger:     deps.Logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Refresh rebuilds the folder index from disk.
func (e *Engine) Refresh() error {
	if err := e.deps.Index.Refresh(); err != nil {
		return fmt.Errorf("failed to refresh folder index: %w", err)
	}
	e.logger.Debug("Folder index refreshed", "folders", e.deps.Index.Len())
	return nil
}

// Classify extracts and classifies path without placing it. The hint is nil
// when no labeler is configured or the labeler failed.
func (e *Engine) Classify(ctx context.Context, path string) (model.Document, model.ClassificationResult, *model.LabelerHint, error) {
	doc, err := e.deps.Provider.Extract(ctx, path)
	if err != nil {
		return model.Document{}, model.ClassificationResult{}, nil, err
	}
	result := e.deps.Classifier.Classify(doc)
	hint := e.label(ctx, doc)
	return doc, e.deps.Classifier.AdoptHint(result, hint), hint, nil
}

// ProcessOne runs a single document through the whole pipeline. Failures
// are reported in the outcome rather than returned.
func (e *Engine) ProcessOne(ctx context.Context, path string) model.Outcome {
	if e.cfg.RefreshPolicy == folder.RefreshOnChange {
		if err := e.Refresh(); err != nil {
			e.logger.Warn("Folder index refresh failed", "error", err)
		}
	}
	return e.process(ctx, uuid.New().String(), path)
}

// ProcessBatch processes paths in two stages. Extraction and classification
// run on a pool of Workers; each classified document then waits for the
// labeler and placement on its own, so a slow labeler never holds up
// classification of the rest. Once ctx is cancelled no further documents
// are started; documents already running finish. Outcomes are returned in
// input order.
func (e *Engine) ProcessBatch(ctx context.Context, paths []string, progress ProgressFunc) (model.BatchSummary, []model.Outcome) {
	start := time.Now()
	runID := uuid.New().String()
	logger := e.logger.With("run_id", runID)

	if e.cfg.RefreshPolicy == folder.RefreshOnChange {
		if err := e.Refresh(); err != nil {
			logger.Warn("Folder index refresh failed", "error", err)
		}
	}

	logger.Info("Starting batch", "documents", len(paths), "workers", e.cfg.Workers)

	outcomes := make([]model.Outcome, len(paths))
	var mu sync.Mutex
	finish := func(i int, o model.Outcome) {
		outcomes[i] = o
		if progress != nil {
			mu.Lock()
			progress(o)
			mu.Unlock()
		}
	}

	detached := context.WithoutCancel(ctx)
	var (
		analyzers errgroup.Group
		placers   sync.WaitGroup
	)
	analyzers.SetLimit(e.cfg.Workers)
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			finish(i, model.Outcome{Source: path, Status: model.OutcomeSkipped, Err: err})
			continue
		}
		analyzers.Go(func() error {
			if err := ctx.Err(); err != nil {
				finish(i, model.Outcome{Source: path, Status: model.OutcomeSkipped, Err: err})
				return nil
			}
			began := time.Now()
			a, failed, ok := e.analyze(detached, path)
			if !ok {
				finish(i, e.report(detached, runID, failed, time.Since(began)))
				return nil
			}
			placers.Add(1)
			go func() {
				defer placers.Done()
				finish(i, e.report(detached, runID, e.settle(detached, path, a), time.Since(began)))
			}()
			return nil
		})
	}
	_ = analyzers.Wait()
	placers.Wait()

	summary := model.BatchSummary{RunID: runID}
	for _, o := range outcomes {
		summary.Add(o)
	}
	summary.Duration = time.Since(start)

	logger.Info("Batch finished",
		"total", summary.Total,
		"placed", summary.Placed,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"folders_created", summary.FoldersCreated,
		"duration", summary.Duration)
	return summary, outcomes
}

func (e *Engine) process(ctx context.Context, runID, path string) model.Outcome {
	start := time.Now()
	outcome := e.place(ctx, path)
	return e.report(ctx, runID, outcome, time.Since(start))
}

// report logs a finished document and records it with the recorder and the
// placement history.
func (e *Engine) report(ctx context.Context, runID string, outcome model.Outcome, elapsed time.Duration) model.Outcome {
	logger := e.logger.With("run_id", runID, "source", outcome.Source)
	switch outcome.Status {
	case model.OutcomePlaced:
		logger.Info("Document placed",
			"category", outcome.Classification.Category,
			"tier", outcome.Classification.Tier,
			"folder", outcome.Path.Key(),
			"filename", outcome.Filename)
	case model.OutcomeSkipped:
		logger.Debug("Document skipped", "reason", outcome.Err)
	default:
		logger.Warn("Document failed", "error", outcome.Err)
	}

	e.deps.Recorder.ObserveOutcome(outcome, elapsed)
	if e.deps.Storage != nil {
		if err := e.deps.Storage.SavePlacement(ctx, runID, outcome); err != nil {
			logger.Warn("Failed to save placement", "error", err)
		}
	}
	return outcome
}

// analysis is a document that has been extracted and classified locally.
type analysis struct {
	doc    model.Document
	result model.ClassificationResult
}

// analyze extracts and classifies path. When it reports false the returned
// outcome is final.
func (e *Engine) analyze(ctx context.Context, path string) (analysis, model.Outcome, bool) {
	doc, err := e.deps.Provider.Extract(ctx, path)
	if err != nil {
		outcome := model.Outcome{Source: path, Err: err, Status: model.OutcomeFailed}
		if errors.Is(err, common.ErrUnsupportedFormat) {
			outcome.Status = model.OutcomeSkipped
		}
		return analysis{}, outcome, false
	}
	return analysis{doc: doc, result: e.deps.Classifier.Classify(doc)}, model.Outcome{}, true
}

func (e *Engine) place(ctx context.Context, path string) model.Outcome {
	a, outcome, ok := e.analyze(ctx, path)
	if !ok {
		return outcome
	}
	return e.settle(ctx, path, a)
}

// settle consults the labeler and then resolves, names and moves an analyzed
// document.
func (e *Engine) settle(ctx context.Context, path string, a analysis) model.Outcome {
	outcome := model.Outcome{Source: path}
	doc := a.doc

	hint := e.label(ctx, doc)
	result := e.deps.Classifier.AdoptHint(a.result, hint)
	outcome.Classification = result

	subject := e.subject(doc, hint)
	outcome.Subject = subject
	dates := withHintDate(doc.Dates, hint)

	cfg := e.deps.Namer.Config()
	date, _ := naming.SelectDate(dates, cfg.DatePriority, e.now())
	meta := folder.BuildMetadata(date, subject, doc.Extension, extras(doc, hint))

	if err := e.placeSlots.Acquire(ctx, 1); err != nil {
		outcome.Err = err
		outcome.Status = model.OutcomeFailed
		return outcome
	}
	defer e.placeSlots.Release(1)

	unlockCategory := e.categories.Lock(result.Category)
	defer unlockCategory()

	resolved := e.deps.Resolver.Resolve(result.Category, meta, e.deps.Index, result)
	outcome.Path = resolved

	key := model.IdentityKey{
		Subject: naming.NormalizeSubject(naming.SanitizeSubject(subject)),
		Folder:  resolved.Key(),
	}
	unlockIdentity := e.identities.Lock(key.String())
	defer unlockIdentity()

	assignment, err := e.deps.Namer.Assign(ctx, resolved, subject, doc.Extension, dates)
	if err != nil {
		outcome.Err = err
		outcome.Status = model.OutcomeFailed
		return outcome
	}
	outcome.Filename = assignment.Filename
	outcome.Version = assignment.Version.String()

	if _, err := e.deps.Mover.Place(ctx, model.Placement{
		Source:   path,
		Root:     e.deps.Index.Root(),
		Segments: resolved.Segments,
		Filename: assignment.Filename,
	}); err != nil {
		outcome.Err = err
		outcome.Status = model.OutcomeFailed
		return outcome
	}

	if err := e.deps.Namer.Commit(ctx, assignment); err != nil {
		outcome.Err = fmt.Errorf("document moved but version not recorded: %w", err)
		outcome.Status = model.OutcomeFailed
		return outcome
	}

	added := e.deps.Index.Add(resolved.Segments)
	outcome.Path.Created = len(added) > 0
	if len(added) > 0 {
		e.deps.Recorder.ObserveFoldersCreated(len(added))
	}
	outcome.Status = model.OutcomePlaced
	return outcome
}

// label asks the labeler for a hint. Any failure degrades to no hint.
func (e *Engine) label(ctx context.Context, doc model.Document) *model.LabelerHint {
	if e.deps.Labeler == nil {
		return nil
	}
	if err := e.labelSlots.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer e.labelSlots.Release(1)

	rules := e.deps.Classifier.Rules().Rules()
	categories := make([]string, 0, len(rules))
	for _, r := range rules {
		categories = append(categories, r.Category)
	}

	start := time.Now()
	hint, err := e.deps.Labeler.Label(ctx, doc, categories)
	e.deps.Recorder.ObserveLabeler(err, time.Since(start))
	if err != nil {
		e.logger.Warn("Labeler unavailable, using local defaults", "source", doc.Path, "error", err)
		return nil
	}
	return hint
}

// subject picks the labeler subject, then the document title, then the file
// stem, then the configured fallback.
func (e *Engine) subject(doc model.Document, hint *model.LabelerHint) string {
	candidates := []string{doc.Title, doc.Stem(), e.cfg.FallbackSubject}
	if hint != nil {
		candidates = append([]string{hint.Subject}, candidates...)
	}
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return e.cfg.FallbackSubject
}

// withHintDate uses the labeler's date when the content gave none.
func withHintDate(dates model.CandidateDates, hint *model.LabelerHint) model.CandidateDates {
	if hint == nil || hint.Date == "" || dates.Content != nil {
		return dates
	}
	if t, err := time.Parse(time.DateOnly, strings.TrimSpace(hint.Date)); err == nil {
		dates.Content = &t
	}
	return dates
}

func extras(doc model.Document, hint *model.LabelerHint) map[string]string {
	out := map[string]string{
		"project_name": doc.Metadata["project_name"],
		"status":       doc.Metadata["status"],
		"priority":     doc.Metadata["priority"],
	}
	if out["project_name"] == "" {
		out["project_name"] = doc.Metadata["project"]
	}
	if hint != nil && strings.TrimSpace(hint.Project) != "" {
		out["project_name"] = hint.Project
	}
	return out
}
