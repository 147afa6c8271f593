package classifier

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed classification attempt.
type ErrorKind string

const (
	// KindTransport means the external call itself failed (network, auth, quota).
	KindTransport ErrorKind = "transport"
	// KindShape means the service answered without usable text.
	KindShape ErrorKind = "shape"
	// KindParse means no JSON object could be recovered from the text.
	KindParse ErrorKind = "parse"
	// KindValidation means the JSON object lacks a results list.
	KindValidation ErrorKind = "validation"
)

var (
	// ErrBatchAbandoned is returned once every attempt for a batch has failed.
	ErrBatchAbandoned = errors.New("batch abandoned after retries")

	// ErrEmptyBatch is returned when asked to classify no labels.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrBatchTooLarge is returned when a batch exceeds the configured size.
	ErrBatchTooLarge = errors.New("batch exceeds batch size")
)

// Error is a retryable failure of a single classification attempt.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}

func newErrorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of a classification error, or "" for other errors.
func KindOf(err error) ErrorKind {
	var classErr *Error
	if errors.As(err, &classErr) {
		return classErr.Kind
	}
	return ""
}

// IsRetryable reports whether err is one of the retryable attempt failures.
func IsRetryable(err error) bool {
	return KindOf(err) != ""
}
