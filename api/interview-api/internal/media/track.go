// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_media

import (
	"sync"

	"github.com/google/uuid"
)

// TrackKind distinguishes video from audio tracks.
type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
)

// TrackSource identifies where the capture client got the track from.
type TrackSource string

const (
	TrackSourceScreen     TrackSource = "screen"
	TrackSourceMicrophone TrackSource = "microphone"
)

// ReadyState mirrors the capture-side track lifecycle: a track is live
// until the capture ends it (user revokes screen share, socket closes)
// or its owner stops it.
type ReadyState string

const (
	ReadyStateLive  ReadyState = "live"
	ReadyStateEnded ReadyState = "ended"
)

// SampleChannelSize bounds the per-track sample buffer. Samples are
// already-encoded container fragments, so dropping under backpressure
// would corrupt output; the channel is sized generously and producers
// report when a push fails.
const SampleChannelSize = 256

// Track is one media track of a capture stream. Samples arrive from the
// ingest transport in delivery order and are consumed by the recording
// engine in that same order.
type Track struct {
	id     string
	kind   TrackKind
	source TrackSource
	label  string

	mu      sync.Mutex
	state   ReadyState
	onEnded []func()
	samples chan []byte
}

// NewTrack creates a live track.
func NewTrack(kind TrackKind, source TrackSource, label string) *Track {
	return &Track{
		id:      uuid.New().String(),
		kind:    kind,
		source:  source,
		label:   label,
		state:   ReadyStateLive,
		samples: make(chan []byte, SampleChannelSize),
	}
}

func (t *Track) ID() string          { return t.id }
func (t *Track) Kind() TrackKind     { return t.kind }
func (t *Track) Source() TrackSource { return t.source }
func (t *Track) Label() string       { return t.label }

// ReadyState returns the current lifecycle state.
func (t *Track) ReadyState() ReadyState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// OnEnded registers a handler fired when the track ends from the capture
// side. A handler registered after the track already ended runs
// immediately so late subscribers never miss the signal.
func (t *Track) OnEnded(fn func()) {
	t.mu.Lock()
	if t.state == ReadyStateEnded {
		t.mu.Unlock()
		fn()
		return
	}
	t.onEnded = append(t.onEnded, fn)
	t.mu.Unlock()
}

// Samples returns the ordered sample channel. The channel is closed when
// the track ends or is stopped; consumers should range over it.
func (t *Track) Samples() <-chan []byte {
	return t.samples
}

// Push delivers one encoded fragment. It never blocks: a full buffer or
// an ended track reports false so the transport can surface the loss.
func (t *Track) Push(sample []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == ReadyStateEnded {
		return false
	}
	select {
	case t.samples <- sample:
		return true
	default:
		return false
	}
}

// End marks the track ended from the capture side and fires OnEnded
// handlers. Idempotent.
func (t *Track) End() {
	t.mu.Lock()
	if t.state == ReadyStateEnded {
		t.mu.Unlock()
		return
	}
	t.state = ReadyStateEnded
	handlers := t.onEnded
	t.onEnded = nil
	close(t.samples)
	t.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

// Stop ends the track from the owner side. Unlike End it does not fire
// OnEnded handlers: the browser contract is that stop() is silent while
// an external termination raises the ended event. Idempotent.
func (t *Track) Stop() {
	t.mu.Lock()
	if t.state == ReadyStateEnded {
		t.mu.Unlock()
		return
	}
	t.state = ReadyStateEnded
	t.onEnded = nil
	close(t.samples)
	t.mu.Unlock()
}
