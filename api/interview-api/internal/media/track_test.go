// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrack_PushAndDrain(t *testing.T) {
	track := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")

	assert.True(t, track.Push([]byte("a")))
	assert.True(t, track.Push([]byte("b")))
	track.End()

	var got []string
	for sample := range track.Samples() {
		got = append(got, string(sample))
	}
	assert.Equal(t, []string{"a", "b"}, got, "samples drain in delivery order")
}

func TestTrack_PushAfterEnd(t *testing.T) {
	track := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	track.End()
	assert.False(t, track.Push([]byte("late")), "ended track rejects samples")
}

func TestTrack_PushFullBuffer(t *testing.T) {
	track := NewTrack(TrackKindAudio, TrackSourceMicrophone, "mic")
	for i := 0; i < SampleChannelSize; i++ {
		require.True(t, track.Push([]byte{byte(i)}))
	}
	assert.False(t, track.Push([]byte("overflow")), "full buffer reports the drop")
}

func TestTrack_OnEndedFiresOnEnd(t *testing.T) {
	track := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	fired := 0
	track.OnEnded(func() { fired++ })

	track.End()
	track.End()
	assert.Equal(t, 1, fired, "end is idempotent")
}

func TestTrack_OnEndedAfterEnded(t *testing.T) {
	track := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	track.End()

	fired := false
	track.OnEnded(func() { fired = true })
	assert.True(t, fired, "late subscribers run immediately")
}

func TestTrack_StopIsSilent(t *testing.T) {
	track := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	fired := false
	track.OnEnded(func() { fired = true })

	track.Stop()
	track.Stop()

	assert.False(t, fired, "stop must not raise the ended event")
	assert.Equal(t, ReadyStateEnded, track.ReadyState())
	_, open := <-track.Samples()
	assert.False(t, open, "sample channel closes on stop")
}

func TestStream_TracksByKind(t *testing.T) {
	video := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	screenAudio := NewTrack(TrackKindAudio, TrackSourceScreen, "screen-audio")
	mic := NewTrack(TrackKindAudio, TrackSourceMicrophone, "mic")
	stream := NewStream(video, screenAudio, mic)

	assert.Len(t, stream.VideoTracks(), 1)
	assert.Len(t, stream.AudioTracks(), 2)
	assert.Len(t, stream.Tracks(), 3)

	stream.RemoveTrack(screenAudio)
	assert.Len(t, stream.AudioTracks(), 1)
	assert.Equal(t, mic.ID(), stream.AudioTracks()[0].ID())
}

func TestStream_Active(t *testing.T) {
	video := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	mic := NewTrack(TrackKindAudio, TrackSourceMicrophone, "mic")
	stream := NewStream(video, mic)
	assert.True(t, stream.Active())

	video.End()
	assert.False(t, stream.Active(), "a live audio track alone is not recordable")

	assert.False(t, NewStream().Active())
}

func TestStream_StopTracks(t *testing.T) {
	video := NewTrack(TrackKindVideo, TrackSourceScreen, "screen")
	mic := NewTrack(TrackKindAudio, TrackSourceMicrophone, "mic")
	stream := NewStream(video, mic)

	stream.StopTracks()

	assert.Equal(t, ReadyStateEnded, video.ReadyState())
	assert.Equal(t, ReadyStateEnded, mic.ReadyState())
}

func TestBlob_Size(t *testing.T) {
	blob := &Blob{MIME: "video/webm", Data: []byte("abcd")}
	assert.Equal(t, int64(4), blob.Size())

	empty := &Blob{MIME: "video/webm"}
	assert.Zero(t, empty.Size())
}
