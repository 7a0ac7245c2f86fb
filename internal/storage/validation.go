// Package storage provides the persistent version ledger and placement history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Squareczm/DocumentationTool/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrInvalidRecord = errors.New("invalid version record")
	ErrInvalidLimit  = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRecord(rec model.VersionRecord) error {
	if strings.TrimSpace(rec.Key.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.Filename) == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidRecord)
	}
	if rec.Version.Major < 0 || rec.Version.Minor < 0 || rec.Version.Patch < 0 {
		return fmt.Errorf("%w: negative version component in %s", ErrInvalidRecord, rec.Version)
	}
	if !rec.Version.Semantic && rec.Version.Patch != 0 {
		return fmt.Errorf("%w: simple version with patch component", ErrInvalidRecord)
	}
	return nil
}
