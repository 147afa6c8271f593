package types

import "errors"

var (
	// ErrProviderNotSet is returned when a provider is not configured
	ErrProviderNotSet = errors.New("provider not set")

	// ErrMissingAPIKey is returned when a provider is built without a credential
	ErrMissingAPIKey = errors.New("missing api key")

	// ErrNoCandidates is returned when the provider answers without any candidate
	ErrNoCandidates = errors.New("provider returned no candidates")

	// ErrNoContentParts is returned when the first candidate carries no content parts,
	// typically because it was truncated or safety-filtered
	ErrNoContentParts = errors.New("provider candidate has no content parts")

	// ErrEmptyResponse is returned when the provider returns no usable text
	ErrEmptyResponse = errors.New("empty response from provider")
)

// IsShapeError reports whether err means the provider answered without usable text.
func IsShapeError(err error) bool {
	return errors.Is(err, ErrNoCandidates) ||
		errors.Is(err, ErrNoContentParts) ||
		errors.Is(err, ErrEmptyResponse)
}
