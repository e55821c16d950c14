// Package recerr defines the recording subsystem error taxonomy.
package recerr

import "errors"

var (
	// ErrUnauthorized means no or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means a valid credential with insufficient role.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict means a recording is already active for the room.
	ErrConflict = errors.New("recording already in progress")
	// ErrNotFound means no matching egress or object.
	ErrNotFound = errors.New("not found")
	// ErrEmptyCapture means a capture session ended with zero bytes recorded.
	ErrEmptyCapture = errors.New("empty capture: no data recorded")
	// ErrPartUploadExhausted means a part failed all upload retries.
	ErrPartUploadExhausted = errors.New("part upload retries exhausted")
	// ErrUploadStateInvalid means completion was attempted on a missing or
	// incomplete multipart transaction.
	ErrUploadStateInvalid = errors.New("invalid upload state")
	// ErrBackendUnavailable means a required dependency is unconfigured or unreachable.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
