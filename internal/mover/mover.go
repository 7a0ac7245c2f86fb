// Package mover applies placements to the filesystem.
package mover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// DirPerm is the mode for directories the mover creates.
const DirPerm = 0o750

// backupStamp is the timestamp layout of backup and archive names.
const backupStamp = "20060102_150405"

var errUnsafePath = errors.New("unsafe path component")

// Result reports where a placement ended up.
type Result struct {
	Target   string
	Backup   string
	Archived string
}

// FSMover moves documents into the knowledge base.
type FSMover struct {
	logger     *slog.Logger
	now        func() time.Time
	archiveDir string
}

// Option configures an FSMover.
type Option func(*FSMover)

// WithArchiveDir keeps a copy of each original in dir after placement.
func WithArchiveDir(dir string) Option {
	return func(m *FSMover) {
		m.archiveDir = dir
	}
}

// WithClock overrides the clock used for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *FSMover) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *FSMover) {
		m.logger = logger
	}
}

// New creates an FSMover.
func New(opts ...Option) *FSMover {
	m := &FSMover{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Target returns the absolute destination of p after validating its components.
func Target(p model.Placement) (string, error) {
	if p.Root == "" {
		return "", wrap("target", p.Filename, fmt.Errorf("%w: empty root", errUnsafePath))
	}
	parts := make([]string, 0, len(p.Segments)+2)
	parts = append(parts, p.Root)
	for _, s := range p.Segments {
		if err := checkComponent(s); err != nil {
			return "", wrap("target", s, err)
		}
		parts = append(parts, s)
	}
	if err := checkComponent(p.Filename); err != nil {
		return "", wrap("target", p.Filename, err)
	}
	parts = append(parts, p.Filename)
	return filepath.Join(parts...), nil
}

func checkComponent(s string) error {
	switch {
	case s == "", s == ".", s == "..":
		return fmt.Errorf("%w: %q", errUnsafePath, s)
	case strings.ContainsAny(s, `/\`), strings.ContainsRune(s, 0):
		return fmt.Errorf("%w: %q contains a separator", errUnsafePath, s)
	}
	return nil
}

// Place creates the destination folders, backs up an existing file at the
// target, and moves the source there. With an archive dir the source is
// copied to the target and the original moved into the archive.
func (m *FSMover) Place(ctx context.Context, p model.Placement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	target, err := Target(p)
	if err != nil {
		return Result{}, err
	}
	res := Result{Target: target}

	info, err := os.Stat(p.Source)
	if err != nil {
		return res, wrap("stat", p.Source, err)
	}
	if !info.Mode().IsRegular() {
		return res, wrap("stat", p.Source, fmt.Errorf("%w: not a regular file", os.ErrInvalid))
	}

	if err := os.MkdirAll(filepath.Dir(target), DirPerm); err != nil {
		return res, wrap("mkdir", filepath.Dir(target), err)
	}

	if _, err := os.Lstat(target); err == nil {
		res.Backup = m.uniqueSibling(target, "_backup_")
		if err := os.Rename(target, res.Backup); err != nil {
			return res, wrap("backup", target, err)
		}
		m.logger.Warn("target exists, backed up", "target", target, "backup", res.Backup)
	} else if !errors.Is(err, os.ErrNotExist) {
		return res, wrap("stat", target, err)
	}

	if m.archiveDir == "" {
		if err := moveFile(p.Source, target); err != nil {
			return res, wrap("move", p.Source, err)
		}
		return res, nil
	}

	if err := copyFile(p.Source, target); err != nil {
		return res, wrap("copy", p.Source, err)
	}
	if err := os.MkdirAll(m.archiveDir, DirPerm); err != nil {
		return res, wrap("mkdir", m.archiveDir, err)
	}
	archived := filepath.Join(m.archiveDir, filepath.Base(p.Source))
	if _, err := os.Lstat(archived); err == nil {
		archived = m.uniqueSibling(archived, "_")
	}
	if err := moveFile(p.Source, archived); err != nil {
		return res, wrap("archive", p.Source, err)
	}
	res.Archived = archived
	return res, nil
}

// uniqueSibling returns {stem}{sep}{timestamp}{ext} next to path, adding a
// counter when that name is taken too.
func (m *FSMover) uniqueSibling(path, sep string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	base := stem + sep + m.now().Format(backupStamp)
	candidate := base + ext
	for i := 1; ; i++ {
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// moveFile renames src to dst, copying across filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
