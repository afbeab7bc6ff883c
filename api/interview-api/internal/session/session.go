// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_session

import (
	"context"
	"sync"
	"time"

	internal_recorder "github.com/hireloopai/api/interview-api/internal/recorder"
	internal_uploader "github.com/hireloopai/api/interview-api/internal/uploader"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
)

// Manager owns the live interview-room sessions. One session per room;
// a second capture connection to the same room loses the store claim and
// is rejected.
type Manager struct {
	cfg    *config.AppConfig
	logger commons.Logger
	store  Store

	recorderOpts []internal_recorder.Option
	uploaderOpts []internal_uploader.UploaderOption

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRecorderOptions forwards extra options to every session recorder.
func WithRecorderOptions(opts ...internal_recorder.Option) ManagerOption {
	return func(m *Manager) { m.recorderOpts = append(m.recorderOpts, opts...) }
}

// WithUploaderOptions forwards extra options to every session uploader.
func WithUploaderOptions(opts ...internal_uploader.UploaderOption) ManagerOption {
	return func(m *Manager) { m.uploaderOpts = append(m.uploaderOpts, opts...) }
}

// NewManager creates a session manager.
func NewManager(cfg *config.AppConfig, logger commons.Logger, store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open claims the room and builds a wired session for it. The identity
// comes from the capture client's configuration message; support is the
// codec capability set it advertised.
func (m *Manager) Open(ctx context.Context, roomID string, identity internal_uploader.Identity, support internal_recorder.CodecSupport) (*Session, error) {
	if _, err := m.store.Get(ctx, roomID); err != nil {
		if _, err := m.store.Save(ctx, &RoomContext{
			RoomID:        roomID,
			JobID:         identity.JobID,
			CandidateID:   identity.CandidateID,
			InterviewType: identity.InterviewType,
			RoundNumber:   identity.RoundNumber,
		}); err != nil {
			return nil, err
		}
	}
	rc, err := m.store.Claim(ctx, roomID)
	if err != nil {
		return nil, err
	}

	s := &Session{
		roomID:    roomID,
		contextID: rc.ContextID,
		identity:  identity,
		logger:    m.logger,
		store:     m.store,
		skip:      m.cfg.SkipRecording,
	}
	s.uploader = internal_uploader.New(m.cfg, m.logger, m.uploaderOpts...)

	recorderOpts := append([]internal_recorder.Option{
		internal_recorder.WithTimeslice(millis(m.cfg.RecorderConfig.TimesliceMs)),
		internal_recorder.WithFlushWait(millis(m.cfg.RecorderConfig.FlushWaitMs)),
		internal_recorder.WithTrackGrace(millis(m.cfg.RecorderConfig.TrackGraceMs)),
		internal_recorder.OnRecordingStart(s.handleRecordingStart),
		internal_recorder.OnRecordingStop(s.handleRecordingStop),
		internal_recorder.OnRecordingError(s.handleRecordingError),
	}, m.recorderOpts...)
	s.recorder = internal_recorder.NewScreenRecorder(m.logger, support, recorderOpts...)

	m.mu.Lock()
	m.sessions[roomID] = s
	m.mu.Unlock()

	m.logger.Infow("interview room session opened",
		"roomId", roomID,
		"contextId", rc.ContextID,
		"jobId", identity.JobID,
		"candidateId", identity.CandidateID,
	)
	return s, nil
}

// Get returns the session for a room, if any.
func (m *Manager) Get(roomID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[roomID]
	return s, ok
}

// Context returns the stored room context for status polls, including
// rooms whose sessions already completed.
func (m *Manager) Context(ctx context.Context, roomID string) (*RoomContext, error) {
	return m.store.Get(ctx, roomID)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
