// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_uploader

import (
	"context"
	"net/http"
	"sync"
	"time"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
	"github.com/hireloopai/pkg/utils"
)

// Uploader moves a finished recording blob to object storage and
// registers it with the recruiting backend. Three sequential steps —
// presign, transfer, confirm — all must succeed before a task is Done.
// Tasks are independent of each other; nothing is shared between
// concurrent tasks beyond the immutable identity values.
type Uploader struct {
	logger  commons.Logger
	backend *backendClient

	simpleThreshold int64
	maxAttempts     int
	backoffBase     time.Duration
	transport       http.RoundTripper

	onProgress func(Progress)

	mu    sync.Mutex
	state State
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithProgress registers the progress callback surfaced to host UI.
func WithProgress(fn func(Progress)) UploaderOption {
	return func(u *Uploader) { u.onProgress = fn }
}

// WithTransport injects the HTTP transport used for storage PUTs.
func WithTransport(rt http.RoundTripper) UploaderOption {
	return func(u *Uploader) { u.transport = rt }
}

// New builds an Uploader from application config.
func New(cfg *config.AppConfig, logger commons.Logger, opts ...UploaderOption) *Uploader {
	u := &Uploader{
		logger:          logger,
		backend:         newBackendClient(cfg.RecruitingBackendHost, logger),
		simpleThreshold: cfg.UploadConfig.SimpleThresholdBytes,
		maxAttempts:     cfg.UploadConfig.MaxAttempts,
		backoffBase:     time.Duration(cfg.UploadConfig.BackoffBaseMs) * time.Millisecond,
		state:           State{TaskState: TaskCreated},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// State returns the observable upload state.
func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *Uploader) setState(mutate func(*State)) {
	u.mu.Lock()
	mutate(&u.state)
	if u.state.Err != nil {
		u.state.ErrMessage = u.state.Err.Error()
	}
	u.mu.Unlock()
}

// UploadRecording runs one upload task to completion. Identity and blob
// validation happen synchronously before any network call. All failure
// paths resolve through the returned error and the observable state;
// UploadRecording never panics on network failure.
func (u *Uploader) UploadRecording(ctx context.Context, blob *internal_media.Blob, id Identity) (*Receipt, error) {
	if err := validate(blob, id); err != nil {
		u.setState(func(s *State) {
			s.TaskState = TaskFailed
			s.Err = err
		})
		return nil, err
	}
	if id.Timestamp == 0 {
		id.Timestamp = time.Now().UnixMilli()
	}

	size := blob.Size()
	u.setState(func(s *State) {
		*s = State{IsUploading: true, TaskState: TaskPresignedRequested, Progress: Progress{Total: size}}
	})

	u.logger.Infow("starting recording upload",
		"jobId", id.JobID,
		"candidateId", id.CandidateID,
		"size", utils.HumanizeBytes(size),
		"contentType", blob.MIME,
	)

	target, err := u.backend.RequestPresignedTarget(ctx, id, size, blob.MIME)
	if err != nil {
		return nil, u.fail(err)
	}

	u.setState(func(s *State) { s.TaskState = TaskUploading })
	tracker := newProgressTracker(size, u.emitProgress)
	if err := u.transfer(ctx, target, blob, tracker); err != nil {
		return nil, u.fail(err)
	}

	u.setState(func(s *State) { s.TaskState = TaskConfirming })
	receipt, err := u.backend.ConfirmUpload(ctx, target, id, size)
	if err != nil {
		// The object is already in storage; only the metadata record is
		// missing. The caller may retry confirmation without
		// re-uploading.
		u.logger.Errorf("recording stored at %s but confirmation failed: %v", target.ObjectKey, err)
		return nil, u.fail(err)
	}

	u.setState(func(s *State) {
		s.IsUploading = false
		s.TaskState = TaskDone
		s.Progress = Progress{Loaded: size, Total: size, Percentage: 100}
	})
	u.logger.Infow("recording upload complete",
		"recordingId", receipt.RecordingID,
		"objectKey", receipt.ObjectKey,
	)
	return receipt, nil
}

func validate(blob *internal_media.Blob, id Identity) error {
	if utils.IsEmpty(id.JobID) {
		return MissingIdentityError{Field: "job_id"}
	}
	if utils.IsEmpty(id.CandidateID) {
		return MissingIdentityError{Field: "candidate_id"}
	}
	if blob.Size() == 0 {
		return EmptyBlobError{}
	}
	return nil
}

func (u *Uploader) fail(err error) error {
	u.setState(func(s *State) {
		s.IsUploading = false
		s.TaskState = TaskFailed
		s.Err = err
	})
	return err
}

func (u *Uploader) emitProgress(p Progress) {
	u.setState(func(s *State) { s.Progress = p })
	if u.onProgress != nil {
		u.onProgress(p)
	}
}
