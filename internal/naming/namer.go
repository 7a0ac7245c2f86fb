// Package naming assigns filenames and monotonically increasing version
// tokens to documents placed in the knowledge base.
package naming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
	"github.com/Squareczm/DocumentationTool/internal/service"
)

// Config holds the naming and versioning tunables.
type Config struct {
	Format            model.VersionFormat
	DateLayout        string
	Initial           model.Version
	DatePriority      []model.DateSource
	MinorCeiling      int
	MaxFilenameLength int
}

// DefaultConfig returns the default naming configuration.
func DefaultConfig() Config {
	return Config{
		Format:            model.VersionSimple,
		Initial:           model.Version{Major: 1},
		DateLayout:        "20060102",
		DatePriority:      model.DefaultDatePriority,
		MaxFilenameLength: 200,
	}
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if c.Format != model.VersionSimple && c.Format != model.VersionSemantic {
		return common.NewConfigError("file_processing.version_format", "unknown format %q", c.Format)
	}
	if c.Initial.Format() != c.Format {
		return common.NewConfigError("file_processing.initial_version", "%s does not match version_format %s", c.Initial, c.Format)
	}
	if c.DateLayout == "" || strings.Contains(c.DateLayout, "_") {
		return common.NewConfigError("file_processing.date_format", "must be non-empty and must not contain '_'")
	}
	if c.MinorCeiling < 0 {
		return common.NewConfigError("file_processing.minor_ceiling", "must not be negative")
	}
	if c.MaxFilenameLength != 0 && c.MaxFilenameLength < 32 {
		return common.NewConfigError("file_processing.max_filename_length", "must be at least 32, got %d", c.MaxFilenameLength)
	}
	return nil
}

// Assignment is a proposed filename and version. It becomes durable only
// once committed.
type Assignment struct {
	Date     time.Time
	Previous *model.Version
	Key      model.IdentityKey
	Subject  string
	Filename string
	Source   model.DateSource
	Version  model.Version
}

// Namer assigns names and versions against a ledger.
type Namer struct {
	ledger   service.VersionLedger
	existing func(folder string) []string
	now      func() time.Time
	cfg      Config
}

// Option customizes a Namer.
type Option func(*Namer)

// WithExistingFiles seeds versions for keys the ledger has never seen from
// the filenames already present in a folder.
func WithExistingFiles(list func(folder string) []string) Option {
	return func(n *Namer) {
		n.existing = list
	}
}

// WithClock overrides the clock used for current dates.
func WithClock(now func() time.Time) Option {
	return func(n *Namer) {
		n.now = now
	}
}

// New creates a Namer.
func New(cfg Config, ledger service.VersionLedger, opts ...Option) (*Namer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Namer{cfg: cfg, ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Config returns the namer configuration.
func (n *Namer) Config() Config {
	return n.cfg
}

// Assign picks the date, the next version for (subject, folder) and the final
// filename. Callers serialize Assign and Commit per identity key.
func (n *Namer) Assign(ctx context.Context, folder model.ResolvedPath, subject, ext string, dates model.CandidateDates) (Assignment, error) {
	clean := SanitizeSubject(subject)
	key := model.IdentityKey{Subject: NormalizeSubject(clean), Folder: folder.Key()}

	prev, err := n.ledger.Latest(ctx, key)
	if err != nil {
		return Assignment{}, fmt.Errorf("version ledger: %w", err)
	}
	if prev == nil {
		prev = n.seed(folder.Key(), key.Subject)
	}

	version := n.cfg.Initial
	if prev != nil {
		version, err = Next(*prev, n.cfg.Format, n.cfg.MinorCeiling)
		if err != nil {
			return Assignment{}, err
		}
	}

	date, source := SelectDate(dates, n.cfg.DatePriority, n.now())
	filename := Assemble(clean, date.Format(n.cfg.DateLayout), version.String(), ext, n.cfg.MaxFilenameLength)

	return Assignment{
		Key:      key,
		Subject:  clean,
		Date:     date,
		Source:   source,
		Version:  version,
		Previous: prev,
		Filename: filename,
	}, nil
}

// Commit records the assignment in the ledger.
func (n *Namer) Commit(ctx context.Context, a Assignment) error {
	return n.ledger.Record(ctx, model.VersionRecord{
		Key:        a.Key,
		Version:    a.Version,
		Filename:   a.Filename,
		RecordedAt: n.now(),
	})
}

// seed finds the highest version among existing files with the same subject.
func (n *Namer) seed(folder, subject string) *model.Version {
	if n.existing == nil {
		return nil
	}

	var best *model.Version
	for _, name := range n.existing(folder) {
		p, err := ParseFilename(name, "")
		if err != nil || NormalizeSubject(p.Subject) != subject {
			continue
		}
		v, err := ParseVersionFormat(p.Version, n.cfg.Format)
		if err != nil {
			slog.Debug("Ignoring existing file with foreign version format", "file", name, "error", err)
			continue
		}
		if best == nil || best.Less(v) {
			vv := v
			best = &vv
		}
	}
	return best
}
