// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_recorder

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	"github.com/hireloopai/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test helpers
// ============================================================================

func newTestLogger() commons.Logger {
	logger, _ := commons.NewApplicationLogger(commons.Name("test-recorder"))
	return logger
}

// fakeEngine lets tests drive the session through its hooks directly.
type fakeEngine struct {
	mu       sync.Mutex
	hooks    EngineHooks
	startErr error
	started  bool
	stopped  bool
	flushes  int
}

func (f *fakeEngine) StartCapture(timeslice time.Duration) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	f.hooks.OnStart()
	return nil
}

func (f *fakeEngine) RequestData() {
	f.mu.Lock()
	f.flushes++
	f.mu.Unlock()
}

func (f *fakeEngine) StopCapture() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	f.mu.Unlock()
	f.hooks.OnStop()
}

type recorderHarness struct {
	recorder *ScreenRecorder
	engine   *fakeEngine
	stream   *internal_media.Stream
	video    *internal_media.Track

	stops  atomic.Int32
	errs   atomic.Int32
	starts atomic.Int32

	mu       sync.Mutex
	lastBlob *internal_media.Blob
	lastErr  string
}

func webmSupport() CapabilitySet {
	return NewCapabilitySet([]string{"video/webm;codecs=vp8,opus", "video/webm"})
}

func newHarness(t *testing.T, support CodecSupport, tracks ...*internal_media.Track) *recorderHarness {
	t.Helper()
	h := &recorderHarness{engine: &fakeEngine{}}

	if len(tracks) == 0 {
		tracks = []*internal_media.Track{
			internal_media.NewTrack(internal_media.TrackKindVideo, internal_media.TrackSourceScreen, "screen"),
		}
	}
	h.video = tracks[0]
	h.stream = internal_media.NewStream(tracks...)

	h.recorder = NewScreenRecorder(newTestLogger(), support,
		WithFlushWait(time.Millisecond),
		WithTrackGrace(time.Millisecond),
		WithEngineFactory(func(stream *internal_media.Stream, codec Codec, hooks EngineHooks) Engine {
			h.engine.hooks = hooks
			return h.engine
		}),
		OnRecordingStart(func() { h.starts.Add(1) }),
		OnRecordingStop(func(blob *internal_media.Blob) {
			h.stops.Add(1)
			h.mu.Lock()
			h.lastBlob = blob
			h.mu.Unlock()
		}),
		OnRecordingError(func(reason string) {
			h.errs.Add(1)
			h.mu.Lock()
			h.lastErr = reason
			h.mu.Unlock()
		}),
	)
	return h
}

// ============================================================================
// Start
// ============================================================================

func TestStart_EndedVideoTrack(t *testing.T) {
	h := newHarness(t, webmSupport())
	h.video.End()

	err := h.recorder.Start(h.stream)

	var inactive StreamInactiveError
	require.ErrorAs(t, err, &inactive)
	assert.False(t, h.engine.started, "no engine should be created for an inactive stream")
	assert.Equal(t, StateIdle, h.recorder.State())
}

func TestStart_NoVideoTrack(t *testing.T) {
	audio := internal_media.NewTrack(internal_media.TrackKindAudio, internal_media.TrackSourceMicrophone, "mic")
	h := newHarness(t, webmSupport(), audio)

	err := h.recorder.Start(h.stream)

	var inactive StreamInactiveError
	require.ErrorAs(t, err, &inactive)
}

func TestStart_NoSupportedCodec(t *testing.T) {
	h := newHarness(t, NewCapabilitySet(nil))

	err := h.recorder.Start(h.stream)

	require.ErrorIs(t, err, ErrNoSupportedCodec)
	assert.Equal(t, StateFailed, h.recorder.State())
	assert.Equal(t, int32(1), h.errs.Load(), "codec failure must raise OnRecordingError")
	assert.Equal(t, internal_media.ReadyStateEnded, h.video.ReadyState(), "tracks must be released")

	// A later stop trigger is a no-op.
	h.recorder.Stop()
	assert.Equal(t, int32(1), h.errs.Load())
	assert.Equal(t, int32(0), h.stops.Load())
}

func TestStart_SelectsPreferredCodec(t *testing.T) {
	h := newHarness(t, NewCapabilitySet([]string{"video/mp4", "video/webm;codecs=vp9,opus"}))

	require.NoError(t, h.recorder.Start(h.stream))

	assert.Equal(t, "video/webm;codecs=vp9,opus", h.recorder.Codec().MimeType)
	assert.Equal(t, 2_000_000, h.recorder.Codec().VideoBitsPerSecond)
}

func TestStart_WhileActiveIsNoOp(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))
	require.Equal(t, StateRecording, h.recorder.State())

	assert.NoError(t, h.recorder.Start(h.stream))
	assert.Equal(t, int32(1), h.starts.Load(), "OnRecordingStart must not fire again")
}

// ============================================================================
// Audio track selection
// ============================================================================

func TestStart_PrefersMicrophoneOverScreenAudio(t *testing.T) {
	video := internal_media.NewTrack(internal_media.TrackKindVideo, internal_media.TrackSourceScreen, "screen")
	screenAudio := internal_media.NewTrack(internal_media.TrackKindAudio, internal_media.TrackSourceScreen, "tab audio")
	mic := internal_media.NewTrack(internal_media.TrackKindAudio, internal_media.TrackSourceMicrophone, "mic")
	h := newHarness(t, webmSupport(), video, screenAudio, mic)

	require.NoError(t, h.recorder.Start(h.stream))

	audio := h.stream.AudioTracks()
	require.Len(t, audio, 1, "combined stream must contain exactly one audio track")
	assert.Equal(t, internal_media.TrackSourceMicrophone, audio[0].Source())
	assert.Equal(t, internal_media.ReadyStateEnded, screenAudio.ReadyState(), "duplicate screen audio must be stopped")
}

type failingMic struct{}

func (failingMic) AcquireMicrophone() (*internal_media.Track, error) {
	return nil, errors.New("permission denied")
}

func TestStart_MicrophoneFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, webmSupport())
	WithMicrophone(failingMic{})(h.recorder)

	require.NoError(t, h.recorder.Start(h.stream))
	assert.Equal(t, StateRecording, h.recorder.State())
	assert.Empty(t, h.stream.AudioTracks(), "video-only recording is valid")
}

type stubMic struct{ track *internal_media.Track }

func (s stubMic) AcquireMicrophone() (*internal_media.Track, error) { return s.track, nil }

func TestStart_AcquiresMicrophoneWhenAbsent(t *testing.T) {
	mic := internal_media.NewTrack(internal_media.TrackKindAudio, internal_media.TrackSourceMicrophone, "mic")
	h := newHarness(t, webmSupport())
	WithMicrophone(stubMic{track: mic})(h.recorder)

	require.NoError(t, h.recorder.Start(h.stream))

	audio := h.stream.AudioTracks()
	require.Len(t, audio, 1)
	assert.Equal(t, mic.ID(), audio[0].ID())
}

// ============================================================================
// Stop and result emission
// ============================================================================

func TestStop_EmitsSingleOrderedBlob(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))

	h.engine.hooks.OnData([]byte{0x1a, 0x45})
	h.engine.hooks.OnData([]byte{0xdf, 0xa3})
	h.engine.hooks.OnData([]byte{0x42, 0x86})

	h.recorder.Stop()

	assert.Equal(t, StateStopped, h.recorder.State())
	assert.Equal(t, int32(1), h.stops.Load())
	assert.Equal(t, int32(0), h.errs.Load())
	require.NotNil(t, h.lastBlob)
	assert.Equal(t, []byte{0x1a, 0x45, 0xdf, 0xa3, 0x42, 0x86}, h.lastBlob.Data,
		"chunks must be concatenated in delivery order")
	assert.Equal(t, "video/webm;codecs=vp8,opus", h.lastBlob.MIME)
	assert.GreaterOrEqual(t, h.engine.flushes, 1, "stop must request a final data flush")
}

func TestStop_Idempotent(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))
	h.engine.hooks.OnData([]byte{0x01})

	h.recorder.Stop()
	h.recorder.Stop()
	h.recorder.Stop()

	assert.Equal(t, int32(1), h.stops.Load(), "finalize logic must run at most once")
}

func TestStop_BeforeStartIsNoOp(t *testing.T) {
	h := newHarness(t, webmSupport())
	h.recorder.Stop()
	assert.Equal(t, StateIdle, h.recorder.State())
	assert.Equal(t, int32(0), h.stops.Load())
	assert.Equal(t, int32(0), h.errs.Load())
}

func TestStop_EmptyChunksRaisesError(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))

	h.recorder.Stop()

	assert.Equal(t, StateFailed, h.recorder.State())
	assert.Equal(t, int32(0), h.stops.Load())
	assert.Equal(t, int32(1), h.errs.Load())
	assert.Contains(t, h.lastErr, "no data")
}

func TestStop_ConcurrentTriggers(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))
	h.engine.hooks.OnData([]byte{0x01})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.recorder.Stop()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.video.End() // user revokes screen share at the same moment
	}()
	wg.Wait()

	assert.Equal(t, int32(1), h.stops.Load()+h.errs.Load(),
		"exactly one result must be emitted under overlapping stop triggers")
}

func TestTrackEnded_StopsSession(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))
	h.engine.hooks.OnData([]byte{0x01, 0x02})

	h.video.End()

	require.Eventually(t, func() bool {
		return h.recorder.State() == StateStopped
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), h.stops.Load())

	// Chunks delivered after the session stopped are discarded.
	h.engine.hooks.OnData([]byte{0xff})
	assert.Equal(t, []byte{0x01, 0x02}, h.lastBlob.Data)
}

func TestEngineError_ReleasesTracks(t *testing.T) {
	h := newHarness(t, webmSupport())
	require.NoError(t, h.recorder.Start(h.stream))

	h.engine.hooks.OnError(errors.New("encoder crashed"))

	assert.Equal(t, StateFailed, h.recorder.State())
	assert.Equal(t, int32(1), h.errs.Load())
	assert.Equal(t, int32(0), h.stops.Load())
	assert.Equal(t, internal_media.ReadyStateEnded, h.video.ReadyState())

	// The emission guard also covers the engine's own stop event.
	h.engine.hooks.OnStop()
	assert.Equal(t, int32(1), h.errs.Load())
	assert.Equal(t, int32(0), h.stops.Load())
}

// ============================================================================
// Size heuristic
// ============================================================================

func TestSuspiciousSize_DoesNotRejectBlob(t *testing.T) {
	h := newHarness(t, webmSupport())

	now := time.Now()
	WithClock(func() time.Time { return now })(h.recorder)
	require.NoError(t, h.recorder.Start(h.stream))

	// A one-hour session producing a handful of bytes: warned, not dropped.
	now = now.Add(time.Hour)
	h.engine.hooks.OnData([]byte{0x01, 0x02, 0x03})
	h.recorder.Stop()

	assert.Equal(t, int32(1), h.stops.Load())
	require.NotNil(t, h.lastBlob)
	assert.Equal(t, int64(3), h.lastBlob.Size())
}
