package internal_uploader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	"github.com/hireloopai/config"
	"github.com/hireloopai/pkg/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferTimeout_ScalesWithSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected time.Duration
	}{
		{"small file keeps the minimum", 1 << 20, 5 * time.Minute},
		{"10 MB keeps the minimum", 10 << 20, 5 * time.Minute},
		{"75 MB adds one minute", 75 << 20, 6 * time.Minute},
		{"150 MB adds three minutes", 150 << 20, 8 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, transferTimeout(tt.size))
		})
	}
}

func TestIsStreamingMedia(t *testing.T) {
	assert.True(t, isStreamingMedia("video/webm"))
	assert.True(t, isStreamingMedia("video/mp4"))
	assert.True(t, isStreamingMedia("audio/ogg"))
	assert.False(t, isStreamingMedia("application/octet-stream"))
	assert.False(t, isStreamingMedia("application/pdf"))
}

func TestTransfer_PathSelection(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		contentType string
		attempts    int32
	}{
		{"small non-media payload takes the simple path", 512, "application/octet-stream", 1},
		{"payload over the threshold is retried", 2048, "application/octet-stream", 3},
		{"streaming media is retried regardless of size", 512, "video/webm", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var puts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				puts.Add(1)
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			logger, _ := commons.NewApplicationLogger(commons.Name("test-transfer"))
			u := New(&config.AppConfig{
				RecruitingBackendHost: server.URL,
				UploadConfig: config.UploadConfig{
					SimpleThresholdBytes: 1024,
					MaxAttempts:          3,
					BackoffBaseMs:        1,
				},
			}, logger)

			blob := &internal_media.Blob{MIME: tt.contentType, Data: make([]byte, tt.size)}
			target := &PresignTarget{PresignedURL: server.URL + "/put", ContentType: tt.contentType}
			err := u.transfer(context.Background(), target, blob, newProgressTracker(blob.Size(), nil))

			var transferErr TransferError
			require.ErrorAs(t, err, &transferErr)
			assert.Equal(t, tt.attempts, puts.Load())
			assert.Equal(t, int(tt.attempts), transferErr.Attempts)
		})
	}
}

func TestProgressTracker_MonotoneAcrossRetries(t *testing.T) {
	var events []Progress
	tracker := newProgressTracker(100, func(p Progress) { events = append(events, p) })

	tracker.set(40)
	tracker.set(80)
	// A retried attempt restarts its counter; reported progress must not
	// move backwards.
	tracker.set(10)
	tracker.set(50)

	assert.Equal(t, int64(80), tracker.snapshot().Loaded)
	for _, p := range events {
		assert.LessOrEqual(t, p.Loaded, int64(80))
	}

	tracker.set(100)
	assert.Equal(t, 100, tracker.snapshot().Percentage)
	assert.Equal(t, 100, events[len(events)-1].Percentage, "terminal event bypasses the throttle")
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	tracker := newProgressTracker(0, nil)
	tracker.set(10)
	assert.Equal(t, 0, tracker.snapshot().Percentage)
}
