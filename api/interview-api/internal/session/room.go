// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_session

import (
	"context"
	"sync"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	internal_recorder "github.com/hireloopai/api/interview-api/internal/recorder"
	internal_uploader "github.com/hireloopai/api/interview-api/internal/uploader"
	"github.com/hireloopai/pkg/commons"
)

// Session wires one room's recorder to its uploader and owns the
// call-lifecycle signals. Recording is silent from the candidate's
// perspective; the dashboard polls Snapshot for upload progress.
type Session struct {
	roomID    string
	contextID string
	identity  internal_uploader.Identity
	logger    commons.Logger
	store     Store
	skip      bool

	recorder *internal_recorder.ScreenRecorder
	uploader *internal_uploader.Uploader

	mu          sync.Mutex
	terminated  bool
	termination string
	receipt     *internal_uploader.Receipt
	onTerminate func(reason string)
	uploadDone  sync.WaitGroup
}

// OnTerminate registers the interview-termination signal. Recording is
// mandatory for interviews, so an unrecoverable capture failure ends the
// session; what that means for the candidate is the caller's policy.
func (s *Session) OnTerminate(fn func(reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTerminate = fn
}

// StartRecording begins recording the capture stream. With the
// development skip flag set, the pipeline is bypassed entirely.
func (s *Session) StartRecording(stream *internal_media.Stream) error {
	if s.skip {
		s.logger.Warnf("room %s: recording skipped by configuration", s.roomID)
		return nil
	}
	return s.recorder.Start(stream)
}

// StopRecording requests an orderly stop. Safe to call multiple times
// and from any trigger.
func (s *Session) StopRecording() {
	if s.skip {
		return
	}
	s.recorder.Stop()
}

// HandleCallEnded is the host-driven call-status signal: the interview
// ended, so the recording must finalize now.
func (s *Session) HandleCallEnded() {
	s.logger.Infof("room %s: call ended, finalizing recording", s.roomID)
	s.StopRecording()
}

// RecorderState exposes the recording session state.
func (s *Session) RecorderState() internal_recorder.State {
	return s.recorder.State()
}

// Snapshot is the observable session state for status polls.
type Snapshot struct {
	RoomID        string                  `json:"roomId"`
	RecorderState internal_recorder.State `json:"recorderState"`
	Upload        internal_uploader.State `json:"upload"`
	RecordingID   int64                   `json:"recordingId,omitempty"`
	Terminated    bool                    `json:"terminated"`
	Termination   string                  `json:"terminationReason,omitempty"`
}

// Snapshot returns the current session status.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		RoomID:        s.roomID,
		RecorderState: s.recorder.State(),
		Upload:        s.uploader.State(),
		Terminated:    s.terminated,
		Termination:   s.termination,
	}
	if s.receipt != nil {
		snap.RecordingID = s.receipt.RecordingID
	}
	return snap
}

// WaitForUpload blocks until any in-flight upload settles. Test and
// shutdown hook.
func (s *Session) WaitForUpload() {
	s.uploadDone.Wait()
}

// ============================================================================
// Recorder callbacks
// ============================================================================

func (s *Session) handleRecordingStart() {
	s.logger.Infof("room %s: recording started", s.roomID)
}

// handleRecordingStop hands the finished blob to the uploader. The
// recorder guarantees this fires at most once per session, so at most
// one upload task runs per room.
func (s *Session) handleRecordingStop(blob *internal_media.Blob) {
	s.uploadDone.Add(1)
	go func() {
		defer s.uploadDone.Done()
		receipt, err := s.uploader.UploadRecording(context.Background(), blob, s.identity)
		if err != nil {
			s.logger.Errorf("room %s: recording upload failed: %v", s.roomID, err)
			s.store.Fail(context.Background(), s.roomID)
			return
		}
		s.mu.Lock()
		s.receipt = receipt
		s.mu.Unlock()
		s.store.Complete(context.Background(), s.roomID)
	}()
}

// handleRecordingError is the unrecoverable capture failure path: mark
// the room failed and raise the termination signal.
func (s *Session) handleRecordingError(reason string) {
	s.store.Fail(context.Background(), s.roomID)

	s.mu.Lock()
	if s.terminated {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.termination = reason
	fn := s.onTerminate
	s.mu.Unlock()

	s.logger.Errorf("room %s: terminating interview, recording failed: %s", s.roomID, reason)
	if fn != nil {
		fn(reason)
	}
}
