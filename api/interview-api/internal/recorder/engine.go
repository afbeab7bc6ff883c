// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_recorder

import (
	"bytes"
	"sync"
	"time"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
)

// EngineHooks are the events an engine raises back into the recording
// session. OnData delivers chunks in collection order; OnStop fires after
// the final chunk has been delivered.
type EngineHooks struct {
	OnStart func()
	OnData  func(chunk []byte)
	OnStop  func()
	OnError func(err error)
}

// Engine is the underlying chunk producer for a recording session, the
// MediaRecorder analog. StartCapture begins timesliced chunk delivery,
// RequestData forces a flush of buffered data, StopCapture flushes once
// more and then raises OnStop.
type Engine interface {
	StartCapture(timeslice time.Duration) error
	RequestData()
	StopCapture()
}

// EngineFactory builds an engine for a stream/codec pair. Injectable so
// tests can drive the session with a scripted engine.
type EngineFactory func(stream *internal_media.Stream, codec Codec, hooks EngineHooks) Engine

// ============================================================================
// trackEngine — default engine pumping track samples into ordered chunks
// ============================================================================

// trackEngine drains every track's sample channel into one buffer and
// flushes it on the timeslice tick (or on RequestData). Fragments are
// appended in delivery order and flushed in that same order: decoders
// need byte-order-correct fragments.
type trackEngine struct {
	hooks  EngineHooks
	stream *internal_media.Stream
	codec  Codec

	mu      sync.Mutex
	buf     bytes.Buffer
	stopped bool

	flushCh chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	pumps   sync.WaitGroup
}

// NewTrackEngine is the default EngineFactory.
func NewTrackEngine(stream *internal_media.Stream, codec Codec, hooks EngineHooks) Engine {
	return &trackEngine{
		hooks:   hooks,
		stream:  stream,
		codec:   codec,
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

func (e *trackEngine) StartCapture(timeslice time.Duration) error {
	for _, track := range e.stream.Tracks() {
		e.pumps.Add(1)
		go e.pump(track)
	}
	go e.run(timeslice)
	if e.hooks.OnStart != nil {
		e.hooks.OnStart()
	}
	return nil
}

// pump appends one track's samples to the shared buffer until the track
// ends or capture stops.
func (e *trackEngine) pump(track *internal_media.Track) {
	defer e.pumps.Done()
	for {
		select {
		case sample, ok := <-track.Samples():
			if !ok {
				return
			}
			e.mu.Lock()
			e.buf.Write(sample)
			e.mu.Unlock()
		case <-e.stopCh:
			// Drain whatever the transport already delivered so the
			// final flush carries it.
			for {
				select {
				case sample, ok := <-track.Samples():
					if !ok {
						return
					}
					e.mu.Lock()
					e.buf.Write(sample)
					e.mu.Unlock()
				default:
					return
				}
			}
		}
	}
}

func (e *trackEngine) run(timeslice time.Duration) {
	ticker := time.NewTicker(timeslice)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.flush()
		case <-e.flushCh:
			e.flush()
		case <-e.stopCh:
			e.pumps.Wait()
			e.flush()
			close(e.doneCh)
			if e.hooks.OnStop != nil {
				e.hooks.OnStop()
			}
			return
		}
	}
}

// flush hands the buffered bytes to OnData. Empty flushes are skipped.
func (e *trackEngine) flush() {
	e.mu.Lock()
	if e.buf.Len() == 0 {
		e.mu.Unlock()
		return
	}
	chunk := make([]byte, e.buf.Len())
	e.buf.Read(chunk)
	e.mu.Unlock()

	if e.hooks.OnData != nil {
		e.hooks.OnData(chunk)
	}
}

// RequestData forces a flush of whatever is buffered. Non-blocking; a
// pending flush request is enough.
func (e *trackEngine) RequestData() {
	select {
	case e.flushCh <- struct{}{}:
	default:
	}
}

// StopCapture ends chunk production. Idempotent. The final buffered data
// is flushed before OnStop fires.
func (e *trackEngine) StopCapture() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	e.mu.Unlock()

	close(e.stopCh)
	<-e.doneCh
}
