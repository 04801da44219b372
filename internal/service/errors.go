// Package service implements the journal's use cases on top of the repository,
// object store, and AI provider boundaries. Handlers translate the sentinel
// errors below into HTTP statuses.
package service

import "errors"

var (
	// ErrNotFound marks a lookup that matched nothing visible to the caller.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden marks a resource that exists but belongs to someone else.
	ErrForbidden = errors.New("access denied")

	// ErrInvalidInput marks a request the caller can fix.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream marks a failure in S3 or the AI provider. The caller's
	// request was fine; retrying later may succeed.
	ErrUpstream = errors.New("upstream dependency failed")
)
