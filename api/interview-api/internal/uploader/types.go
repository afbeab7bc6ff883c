// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_uploader

// TaskState is the upload task lifecycle. Each network step's failure is
// terminal for the task; Done is only reached after confirm succeeds.
type TaskState string

const (
	TaskCreated            TaskState = "created"
	TaskPresignedRequested TaskState = "presigned_url_requested"
	TaskUploading          TaskState = "uploading"
	TaskConfirming         TaskState = "confirming"
	TaskDone               TaskState = "done"
	TaskFailed             TaskState = "failed"
)

// Identity ties a recording to its interview context. JobID and
// CandidateID are required before any network call; the round fields tag
// multi-stage human-interview recordings.
type Identity struct {
	JobID         string
	CandidateID   string
	Timestamp     int64
	InterviewType string
	RoundNumber   int
	RoundToken    string
}

// PresignTarget is the short-lived upload destination issued by the
// backend. Obtained once per task and never renegotiated mid-upload.
type PresignTarget struct {
	PresignedURL string
	ObjectKey    string
	ObjectURL    string
	Bucket       string
	Region       string
	// ContentType is what the storage layer expects the PUT to carry.
	// Deliberately used instead of the blob's own type: a mismatch gets
	// the PUT rejected at the storage layer.
	ContentType string
	ExpiresIn   int
}

// Progress reports transfer progress. Percentage is monotonically
// non-decreasing until completion or failure.
type Progress struct {
	Loaded     int64 `json:"loaded"`
	Total      int64 `json:"total"`
	Percentage int   `json:"percentage"`
}

// Receipt is returned once a task reaches Done.
type Receipt struct {
	RecordingID int64
	ObjectKey   string
	ObjectURL   string
	Size        int64
	ContentType string
}

// State is the observable uploader state the hosting session exposes.
type State struct {
	IsUploading bool      `json:"isUploading"`
	TaskState   TaskState `json:"taskState"`
	Progress    Progress  `json:"uploadProgress"`
	Err         error     `json:"-"`
	ErrMessage  string    `json:"uploadError,omitempty"`
}
