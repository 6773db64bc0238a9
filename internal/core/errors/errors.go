// Package errors provides centralized error definitions for the resolution
// engine. Nothing here is fatal to the host process: every error is scoped to
// a single resolution attempt and reported upward as a typed outcome.
//
// Naming conventions:
//   - Exported errors (Err*): callers check these with errors.Is
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Routing errors.
var (
	// ErrNotRecognized indicates the input is not a reference this engine
	// handles. It is a routing decision, not a failure to surface loudly.
	ErrNotRecognized = errors.New("not a recognized reference")

	// ErrTooManyRedirects indicates a short-link redirect chain exceeded the
	// hop cap.
	ErrTooManyRedirects = errors.New("too many redirects")
)

// Per-source errors. Both advance the chain to the next source.
var (
	// ErrSourceUnavailable indicates a network or HTTP failure on one source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch indicates the source responded but the payload did not
	// match the decoder's expected shape. A 200 body carrying a non-zero
	// embedded API code decodes to this as well.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// Terminal errors.
var (
	// ErrExhausted indicates every source in the chain failed or mismatched.
	ErrExhausted = errors.New("all sources exhausted")

	// ErrNoStreamURL indicates neither stream strategy produced a direct URL.
	ErrNoStreamURL = errors.New("no stream url")
)
