package domain

import (
	"errors"
	"fmt"
)

// Kind tags an Error with one of the six structured error kinds from the
// error handling design: callers branch on Kind, not on string matching.
type Kind string

const (
	KindValidation       Kind = "validation_error"
	KindNotFound         Kind = "not_found_error"
	KindNotReady         Kind = "not_ready_error"
	KindUpstream         Kind = "upstream_error"
	KindInsufficientData Kind = "insufficient_data_error"
	KindInternal         Kind = "internal_error"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("document not found")
	ErrNotReady         = errors.New("document not ready")
	ErrUpstream         = errors.New("upstream call failed")
	ErrInsufficientData = errors.New("insufficient embedded data")
	ErrInternal         = errors.New("internal error")
)

// Error is the single tagged error type crossing package and API
// boundaries. Detail is diagnostic and logged, never sent verbatim in a
// stable wire message.
type Error struct {
	Kind    Kind
	Op      string
	BaseErr error
	Detail  string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (op: %s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (op: %s)", e.BaseErr, e.Op)
}

func (e *Error) Unwrap() error { return e.BaseErr }

func (e *Error) Is(target error) bool { return errors.Is(e.BaseErr, target) }

func newError(kind Kind, base error, op, detail string) *Error {
	return &Error{Kind: kind, Op: op, BaseErr: base, Detail: detail}
}

func NewValidationError(op, detail string) error {
	return newError(KindValidation, ErrValidation, op, detail)
}

// NewNotFoundError tags a lookup miss for an identifier the caller expected
// to resolve — distinct from KindValidation so callers that need the
// "unknown id" case to surface a different HTTP status (spec's match-family
// 422, not a generic 400) can branch on it.
func NewNotFoundError(op, detail string) error {
	return newError(KindNotFound, ErrNotFound, op, detail)
}

func NewNotReadyError(op, detail string) error {
	return newError(KindNotReady, ErrNotReady, op, detail)
}

func NewUpstreamError(op, detail string) error {
	return newError(KindUpstream, ErrUpstream, op, detail)
}

func NewInsufficientDataError(op, detail string) error {
	return newError(KindInsufficientData, ErrInsufficientData, op, detail)
}

func NewInternalError(op, detail string) error {
	return newError(KindInternal, ErrInternal, op, detail)
}

// KindOf extracts the structured Kind from err, defaulting to
// KindInternal when err isn't a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
