package models

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrorKind classifies failures into the categories callers dispatch on.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindAlreadyExists    ErrorKind = "already_exists"
	KindNotADirectory    ErrorKind = "not_a_directory"
	KindIO               ErrorKind = "io"
	KindInvariant        ErrorKind = "invariant_violation"
	KindSchemaInvalid    ErrorKind = "schema_invalid"
	KindCancelled        ErrorKind = "cancelled"
)

// Sentinel errors
var (
	ErrTabNotFound        = errors.New("tab not found")
	ErrLastTab            = errors.New("cannot remove the last tab")
	ErrStaleListing       = errors.New("listing is stale")
	ErrNoHistory          = errors.New("no history entry to navigate to")
	ErrNoRecoverableState = errors.New("no recoverable state")
	ErrSchemaInvalid      = errors.New("snapshot schema invalid")
)

// OpError wraps a failure with the operation and path it occurred on.
type OpError struct {
	Op   string
	Path string
	Kind ErrorKind
	Err  error
}

func (e *OpError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: [%s] %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: [%s] %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// NewOpError classifies err and wraps it with operation context.
func NewOpError(op, path string, err error) *OpError {
	return &OpError{Op: op, Path: path, Kind: ClassifyError(err), Err: err}
}

// ClassifyError maps an OS or context error onto the error taxonomy.
func ClassifyError(err error) ErrorKind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, syscall.ENOTDIR):
		return KindNotADirectory
	case errors.Is(err, ErrSchemaInvalid):
		return KindSchemaInvalid
	case errors.Is(err, ErrLastTab), errors.Is(err, ErrTabNotFound),
		errors.Is(err, ErrNoHistory), errors.Is(err, ErrStaleListing):
		return KindInvariant
	default:
		return KindIO
	}
}

// KindOf extracts the kind from an error chain, defaulting to KindIO.
func KindOf(err error) ErrorKind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return ClassifyError(err)
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// IsTransient reports whether a failure is worth retrying. Only generic
// I/O errors qualify; the rest are deterministic.
func IsTransient(err error) bool {
	return KindOf(err) == KindIO
}
