package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder accumulates hint and details before an error is marked with a sentinel
type ErrorBuilder struct {
	err     error
	hint    string
	details map[string]any
}

// NewError starts a builder from a plain message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepth(1, msg)}
}

// NewErrorf starts a builder from a formatted message
func NewErrorf(format string, args ...any) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepthf(1, format, args...)}
}

// WithError starts a builder wrapping an existing error
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.NewWithDepth(1, "unknown error")
	}
	return &ErrorBuilder{err: err}
}

// WithMessage prefixes the wrapped error
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint sets the human-facing message returned to API callers
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hint = hint
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.hint = fmt.Sprintf(format, args...)
	return b
}

// WithReportableDetails attaches structured details safe to expose to the caller
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	if b.details == nil {
		b.details = make(map[string]any, len(details))
	}
	for k, v := range details {
		b.details[k] = v
	}
	return b
}

// Mark finalizes the error and tags it with the given sentinel
func (b *ErrorBuilder) Mark(reference error) error {
	err := b.err
	if b.hint != "" {
		err = errors.WithHint(err, b.hint)
	}
	if len(b.details) > 0 {
		err = &detailsError{cause: err, details: b.details}
	}
	return errors.Mark(err, reference)
}

type detailsError struct {
	cause   error
	details map[string]any
}

func (e *detailsError) Error() string { return e.cause.Error() }
func (e *detailsError) Cause() error  { return e.cause }
func (e *detailsError) Unwrap() error { return e.cause }

// GetHint returns the outermost hint along the chain, if any
func GetHint(err error) string {
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if h, ok := e.(interface{ ErrorHint() string }); ok {
			return h.ErrorHint()
		}
	}
	return ""
}

// GetReportableDetails merges all details attached along the chain
func GetReportableDetails(err error) map[string]any {
	var out map[string]any
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if d, ok := e.(*detailsError); ok {
			if out == nil {
				out = make(map[string]any)
			}
			for k, v := range d.details {
				if _, exists := out[k]; !exists {
					out[k] = v
				}
			}
		}
	}
	return out
}
