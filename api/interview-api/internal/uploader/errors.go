// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_uploader

import "fmt"

// MissingIdentityError: a required identity field is absent. Raised
// before any network call.
type MissingIdentityError struct {
	Field string
}

func (e MissingIdentityError) Error() string {
	return fmt.Sprintf("upload rejected: missing required identity field %q", e.Field)
}

// EmptyBlobError: the recording blob has zero bytes. Raised before any
// network call.
type EmptyBlobError struct{}

func (EmptyBlobError) Error() string {
	return "upload rejected: recording blob is empty"
}

// PresignRequestError: the backend refused to issue an upload target.
// Not retried — a stale identity or backend outage is surfaced to the
// caller immediately.
type PresignRequestError struct {
	StatusCode int
	Body       string
}

func (e PresignRequestError) Error() string {
	return fmt.Sprintf("presigned url request failed with status %d: %s", e.StatusCode, e.Body)
}

// TransferError: the PUT to object storage failed after exhausting all
// attempts.
type TransferError struct {
	Attempts int
	Err      error
}

func (e TransferError) Error() string {
	return fmt.Sprintf("recording transfer failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e TransferError) Unwrap() error { return e.Err }

// ConfirmError: the bytes are in object storage but the metadata record
// was not persisted. Recoverable: the caller may retry confirmation with
// the same object key without re-uploading.
type ConfirmError struct {
	StatusCode int
	Body       string
}

func (e ConfirmError) Error() string {
	return fmt.Sprintf("upload confirmation failed with status %d: %s", e.StatusCode, e.Body)
}
