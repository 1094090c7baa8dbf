package models

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidInput indicates a malformed URL or time string.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTimeRange indicates a well-formed but semantically invalid range.
	ErrInvalidTimeRange = errors.New("invalid time range")
	// ErrAcquisitionFailed indicates every download strategy was exhausted.
	ErrAcquisitionFailed = errors.New("acquisition failed")
	// ErrExtractionFailed indicates the media tool could not produce a usable clip.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrStorage indicates the persistence backend failed.
	ErrStorage = errors.New("storage error")
	// ErrDuplicateRecord indicates an active cache record already exists.
	ErrDuplicateRecord = errors.New("duplicate cache record")
)

// Error carries an error kind plus the operation and tool diagnostics that produced it.
type Error struct {
	Kind   error
	Op     string
	Msg    string
	Detail string
	Err    error
}

// NewError builds an Error of the given kind.
func NewError(kind error, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// WithDetail attaches tool diagnostic output.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// Wrap sets the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidTimeRange)
}

// IsRetryable reports whether a caller may reasonably retry after err.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAcquisitionFailed) ||
		errors.Is(err, ErrExtractionFailed) ||
		errors.Is(err, ErrStorage)
}

// DetailOf returns the tool diagnostic text carried by err, if any.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}
