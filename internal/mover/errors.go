package mover

import (
	"errors"
	"fmt"
	"io/fs"
)

// Kind classifies a mover failure.
type Kind string

// Failure kinds.
const (
	KindPermission Kind = "permission"
	KindInvalid    Kind = "invalid"
	KindExists     Kind = "exists"
	KindIO         Kind = "io"
)

// Error describes a failed filesystem operation.
type Error struct {
	Err  error
	Op   string
	Path string
	Kind Kind
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var me *Error
	if errors.As(err, &me) {
		return err
	}
	return &Error{Op: op, Path: path, Kind: kindOf(err), Err: err}
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.Is(err, fs.ErrExist):
		return KindExists
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid), errors.Is(err, errUnsafePath):
		return KindInvalid
	default:
		return KindIO
	}
}

// IsKind reports whether err is a mover Error of kind k.
func IsKind(err error, k Kind) bool {
	var me *Error
	return errors.As(err, &me) && me.Kind == k
}
