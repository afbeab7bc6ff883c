// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_recorder

import (
	"fmt"
	"sync"
	"time"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	"github.com/hireloopai/pkg/commons"
	"github.com/hireloopai/pkg/utils"
)

// State is the recording session lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// MicrophoneAcquirer obtains a microphone audio track for the session.
// Acquisition is best-effort: an error means the recording proceeds
// without it (video-only, or with whatever screen audio exists).
type MicrophoneAcquirer interface {
	AcquireMicrophone() (*internal_media.Track, error)
}

const (
	DefaultTimeslice  = time.Second
	DefaultFlushWait  = 100 * time.Millisecond
	DefaultTrackGrace = 100 * time.Millisecond

	// suspiciousAfter is the minimum session duration before the
	// size-vs-duration heuristic applies; short recordings are legitimately
	// tiny.
	suspiciousAfter = 10 * time.Second
)

// ============================================================================
// ScreenRecorder — one recording session as an explicit state machine
// ============================================================================

// ScreenRecorder converts a live combined stream into exactly one finished
// recording artifact. Engine and track events are funnelled through named
// handlers under one mutex, which is what makes the at-most-once emission
// guarantee hold under overlapping stop triggers (explicit stop, track
// "ended", host call-end signal).
type ScreenRecorder struct {
	logger  commons.Logger
	support CodecSupport

	timeslice  time.Duration
	flushWait  time.Duration
	trackGrace time.Duration

	engineFactory EngineFactory
	microphone    MicrophoneAcquirer
	clock         func() time.Time

	onStart func()
	onStop  func(blob *internal_media.Blob)
	onError func(reason string)

	mu               sync.Mutex
	state            State
	stream           *internal_media.Stream
	codec            Codec
	engine           Engine
	chunks           [][]byte
	startedAt        time.Time
	hasEmittedResult bool
}

// Option configures a ScreenRecorder.
type Option func(*ScreenRecorder)

// WithTimeslice sets the engine chunk flush interval.
func WithTimeslice(d time.Duration) Option {
	return func(r *ScreenRecorder) { r.timeslice = d }
}

// WithFlushWait sets how long Stop waits for the final data flush before
// formally stopping the engine.
func WithFlushWait(d time.Duration) Option {
	return func(r *ScreenRecorder) { r.flushWait = d }
}

// WithTrackGrace sets the delay between emitting the result and tearing
// down the media tracks.
func WithTrackGrace(d time.Duration) Option {
	return func(r *ScreenRecorder) { r.trackGrace = d }
}

// WithEngineFactory overrides the default track engine.
func WithEngineFactory(f EngineFactory) Option {
	return func(r *ScreenRecorder) { r.engineFactory = f }
}

// WithMicrophone sets the best-effort microphone source.
func WithMicrophone(m MicrophoneAcquirer) Option {
	return func(r *ScreenRecorder) { r.microphone = m }
}

// WithClock injects the time source for testing.
func WithClock(clock func() time.Time) Option {
	return func(r *ScreenRecorder) { r.clock = clock }
}

// OnRecordingStart registers the recording-started callback.
func OnRecordingStart(fn func()) Option {
	return func(r *ScreenRecorder) { r.onStart = fn }
}

// OnRecordingStop registers the finished-artifact callback. It fires at
// most once per session and never together with OnRecordingError.
func OnRecordingStop(fn func(blob *internal_media.Blob)) Option {
	return func(r *ScreenRecorder) { r.onStop = fn }
}

// OnRecordingError registers the fatal-capture-error callback. It fires
// at most once per session; tracks are always released afterwards.
func OnRecordingError(fn func(reason string)) Option {
	return func(r *ScreenRecorder) { r.onError = fn }
}

// NewScreenRecorder builds an idle recording session.
func NewScreenRecorder(logger commons.Logger, support CodecSupport, opts ...Option) *ScreenRecorder {
	r := &ScreenRecorder{
		logger:        logger,
		support:       support,
		timeslice:     DefaultTimeslice,
		flushWait:     DefaultFlushWait,
		trackGrace:    DefaultTrackGrace,
		engineFactory: NewTrackEngine,
		clock:         time.Now,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current session state.
func (r *ScreenRecorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Codec returns the codec selected for this session. Zero until Start
// succeeds.
func (r *ScreenRecorder) Codec() Codec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codec
}

// ============================================================================
// Start
// ============================================================================

// Start begins recording the given stream. Calling Start when the session
// is not idle is a no-op. A stream whose video track has already ended
// fails with StreamInactiveError before any engine is created; a codec
// probe failure is fatal to the session and also raises OnRecordingError.
func (r *ScreenRecorder) Start(stream *internal_media.Stream) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		r.logger.Warnf("recorder start ignored: session already %s", r.state)
		return nil
	}

	if !stream.Active() {
		r.mu.Unlock()
		return StreamInactiveError{}
	}
	video := stream.VideoTracks()

	codec, err := SelectCodec(r.support)
	if err != nil {
		r.state = StateFailed
		r.hasEmittedResult = true
		r.mu.Unlock()
		r.emitError("no supported codec for recording")
		stream.StopTracks()
		return err
	}

	r.attachAudio(stream)

	r.state = StateStarting
	r.stream = stream
	r.codec = codec
	r.startedAt = r.clock()
	r.engine = r.engineFactory(stream, codec, EngineHooks{
		OnStart: r.handleEngineStarted,
		OnData:  r.handleData,
		OnStop:  r.handleEngineStopped,
		OnError: r.handleEngineError,
	})
	engine := r.engine
	r.mu.Unlock()

	// Screen-share termination by the candidate is a hard stop condition.
	video[0].OnEnded(r.handleTrackEnded)

	r.logger.Infow("recording session starting",
		"codec", codec.MimeType,
		"videoBitrate", codec.VideoBitsPerSecond,
		"audioBitrate", codec.AudioBitsPerSecond,
	)

	if err := engine.StartCapture(r.timeslice); err != nil {
		r.mu.Lock()
		r.state = StateFailed
		r.hasEmittedResult = true
		r.mu.Unlock()
		r.emitError(fmt.Sprintf("recording engine failed to start: %v", err))
		stream.StopTracks()
		return err
	}
	return nil
}

// attachAudio enforces the single-audio-track invariant: when both a
// microphone track and screen audio exist, the microphone wins and the
// screen audio track is stopped and removed.
func (r *ScreenRecorder) attachAudio(stream *internal_media.Stream) {
	audio := stream.AudioTracks()

	hasMic := false
	for _, t := range audio {
		if t.Source() == internal_media.TrackSourceMicrophone {
			hasMic = true
		}
	}

	if !hasMic && r.microphone != nil {
		mic, err := r.microphone.AcquireMicrophone()
		if err != nil {
			r.logger.Warnf("microphone unavailable, continuing without it: %v", err)
		} else if mic != nil {
			stream.AddTrack(mic)
			hasMic = true
		}
	}

	if !hasMic {
		// Video-only or screen-audio-only recording is valid.
		return
	}

	for _, t := range stream.AudioTracks() {
		if t.Source() != internal_media.TrackSourceMicrophone {
			r.logger.Debugf("dropping duplicate %s audio track %s", t.Source(), t.ID())
			t.Stop()
			stream.RemoveTrack(t)
		}
	}
}

// ============================================================================
// Stop
// ============================================================================

// Stop ends the recording session. Idempotent: if recording is not
// active it returns immediately, so it is safe to call from any of the
// stop triggers concurrently. The engine gets a final data flush before
// it is formally stopped, and tracks are torn down after a short grace
// period so in-flight finalize handlers complete first.
func (r *ScreenRecorder) Stop() {
	r.mu.Lock()
	if r.state != StateStarting && r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StateStopping
	engine := r.engine
	stream := r.stream
	grace := r.trackGrace
	r.mu.Unlock()

	// Flush the tail of the recording before stopping; without this the
	// last timeslice of content is lost.
	engine.RequestData()
	time.Sleep(r.flushWait)
	engine.StopCapture()

	go func() {
		time.Sleep(grace)
		stream.StopTracks()
	}()
}

// ============================================================================
// Event handlers
// ============================================================================

func (r *ScreenRecorder) handleEngineStarted() {
	r.mu.Lock()
	if r.state != StateStarting {
		r.mu.Unlock()
		return
	}
	r.state = StateRecording
	r.mu.Unlock()

	r.logger.Info("recording session active")
	if r.onStart != nil {
		r.onStart()
	}
}

// handleData appends one chunk in delivery order. Chunks arriving after
// the session stopped are discarded.
func (r *ScreenRecorder) handleData(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording && r.state != StateStopping {
		return
	}
	if len(chunk) == 0 {
		return
	}
	r.chunks = append(r.chunks, chunk)
}

// handleTrackEnded is the track "ended" event: the candidate revoked
// screen share, or the capture transport dropped. Recording cannot
// continue without the screen, so this is a hard stop.
func (r *ScreenRecorder) handleTrackEnded() {
	r.logger.Warn("screen track ended, stopping recording session")
	r.Stop()
}

// handleEngineStopped assembles and emits the final blob. Guarded by
// hasEmittedResult: once a result (or error) has been emitted, every
// later stop trigger is a no-op.
func (r *ScreenRecorder) handleEngineStopped() {
	r.mu.Lock()
	if r.hasEmittedResult {
		r.mu.Unlock()
		return
	}

	total := 0
	for _, c := range r.chunks {
		total += len(c)
	}

	if total == 0 {
		r.hasEmittedResult = true
		r.state = StateFailed
		r.mu.Unlock()
		r.emitError("recording produced no data")
		return
	}

	data := make([]byte, 0, total)
	for _, c := range r.chunks {
		data = append(data, c...)
	}
	blob := &internal_media.Blob{MIME: r.codec.MimeType, Data: data}

	elapsed := r.clock().Sub(r.startedAt)
	r.checkExpectedSize(blob.Size(), elapsed)

	r.hasEmittedResult = true
	r.state = StateStopped
	chunks := len(r.chunks)
	r.chunks = nil
	r.mu.Unlock()

	r.logger.Infow("recording session finished",
		"size", utils.HumanizeBytes(blob.Size()),
		"chunks", chunks,
		"duration", elapsed.Round(time.Second).String(),
	)
	if r.onStop != nil {
		r.onStop(blob)
	}
}

// handleEngineError surfaces a capture failure and forces teardown so
// screen/microphone handles are never leaked.
func (r *ScreenRecorder) handleEngineError(err error) {
	r.mu.Lock()
	if r.hasEmittedResult {
		r.mu.Unlock()
		return
	}
	r.hasEmittedResult = true
	r.state = StateFailed
	stream := r.stream
	r.mu.Unlock()

	r.emitError(fmt.Sprintf("recording engine error: %v", err))
	if stream != nil {
		stream.StopTracks()
	}
}

// checkExpectedSize logs when a long recording is many times smaller
// than its duration-proportional expectation. Advisory only; the blob is
// still emitted. Caller holds the session mutex.
func (r *ScreenRecorder) checkExpectedSize(size int64, elapsed time.Duration) {
	if elapsed < suspiciousAfter {
		return
	}
	// 5% of the nominal combined bitrate is a deliberately loose floor.
	nominal := int64(r.codec.VideoBitsPerSecond+r.codec.AudioBitsPerSecond) / 8
	expectedMin := int64(elapsed.Seconds()) * nominal / 20
	if size < expectedMin {
		r.logger.Warnf("recording suspiciously small: %s for %s (expected at least %s)",
			utils.HumanizeBytes(size), elapsed.Round(time.Second), utils.HumanizeBytes(expectedMin))
	}
}

func (r *ScreenRecorder) emitError(reason string) {
	r.logger.Errorf("recording failed: %s", reason)
	if r.onError != nil {
		r.onError(reason)
	}
}
