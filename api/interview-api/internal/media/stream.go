// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_media

import "sync"

// Stream is a combined set of media tracks. Once a recording session
// starts, the session exclusively owns the stream's track lifecycle; no
// other component may stop or consume its tracks. The capture side may
// still end them.
type Stream struct {
	mu     sync.Mutex
	tracks []*Track
}

// NewStream builds a stream over the given tracks, preserving order.
func NewStream(tracks ...*Track) *Stream {
	s := &Stream{}
	s.tracks = append(s.tracks, tracks...)
	return s
}

// AddTrack appends a track to the stream.
func (s *Stream) AddTrack(t *Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks = append(s.tracks, t)
}

// RemoveTrack detaches a track without stopping it.
func (s *Stream) RemoveTrack(t *Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.tracks {
		if existing.ID() == t.ID() {
			s.tracks = append(s.tracks[:i], s.tracks[i+1:]...)
			return
		}
	}
}

// Tracks returns a snapshot of all tracks in order.
func (s *Stream) Tracks() []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// VideoTracks returns the video tracks in order.
func (s *Stream) VideoTracks() []*Track {
	return s.tracksOfKind(TrackKindVideo)
}

// AudioTracks returns the audio tracks in order.
func (s *Stream) AudioTracks() []*Track {
	return s.tracksOfKind(TrackKindAudio)
}

// Active reports whether the stream can be recorded: at least one video
// track that has not ended.
func (s *Stream) Active() bool {
	for _, t := range s.VideoTracks() {
		if t.ReadyState() == ReadyStateLive {
			return true
		}
	}
	return false
}

func (s *Stream) tracksOfKind(kind TrackKind) []*Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Track
	for _, t := range s.tracks {
		if t.kind == kind {
			out = append(out, t)
		}
	}
	return out
}

// StopTracks stops every track. Used on session teardown to release
// capture resources.
func (s *Stream) StopTracks() {
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
