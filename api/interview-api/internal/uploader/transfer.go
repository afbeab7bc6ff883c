// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	"golang.org/x/time/rate"
)

const (
	// minTransferTimeout with a per-size allowance keeps slow links from
	// aborting large transfers prematurely.
	minTransferTimeout   = 5 * time.Minute
	timeoutSizeStep      = 50 << 20 // +1 minute per 50 MB
	progressEventsPerSec = 4
)

// transferTimeout scales the PUT deadline with blob size.
func transferTimeout(size int64) time.Duration {
	return minTransferTimeout + time.Duration(size/timeoutSizeStep)*time.Minute
}

// isStreamingMedia reports whether a content type is streaming media.
// These are the payloads most likely to hit transient network failures
// given their size, so they always take the resilient path.
func isStreamingMedia(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") || strings.HasPrefix(contentType, "audio/")
}

// ============================================================================
// Progress tracking
// ============================================================================

// progressTracker emits throttled, monotonically non-decreasing progress
// events. A retried attempt restarts its byte counter, but the reported
// loaded value never moves backwards.
type progressTracker struct {
	mu      sync.Mutex
	total   int64
	loaded  int64
	limiter *rate.Limiter
	emit    func(Progress)
}

func newProgressTracker(total int64, emit func(Progress)) *progressTracker {
	return &progressTracker{
		total:   total,
		limiter: rate.NewLimiter(rate.Limit(progressEventsPerSec), 1),
		emit:    emit,
	}
}

// set reports the absolute byte position of the current attempt.
func (p *progressTracker) set(loaded int64) {
	p.mu.Lock()
	if loaded <= p.loaded {
		p.mu.Unlock()
		return
	}
	p.loaded = loaded
	snapshot := p.snapshotLocked()
	done := p.loaded >= p.total
	p.mu.Unlock()

	// Every low-level read would flood the UI; emit at a throttled rate
	// but never swallow the terminal event.
	if p.emit != nil && (done || p.limiter.Allow()) {
		p.emit(snapshot)
	}
}

func (p *progressTracker) snapshotLocked() Progress {
	percentage := 0
	if p.total > 0 {
		percentage = int(p.loaded * 100 / p.total)
	}
	return Progress{Loaded: p.loaded, Total: p.total, Percentage: percentage}
}

func (p *progressTracker) snapshot() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// countingReader reports the absolute read position to the tracker as
// the HTTP transport consumes the body.
type countingReader struct {
	r       io.Reader
	read    int64
	tracker *progressTracker
}

func (c *countingReader) Read(b []byte) (int, error) {
	n, err := c.r.Read(b)
	if n > 0 {
		c.read += int64(n)
		c.tracker.set(c.read)
	}
	return n, err
}

// ============================================================================
// Transfer strategies
// ============================================================================

// putObject performs one direct PUT of the blob to the signed URL. The
// content type comes from the presign response, never from the blob.
func (u *Uploader) putObject(ctx context.Context, target *PresignTarget, blob *internal_media.Blob, tracker *progressTracker) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target.PresignedURL,
		&countingReader{r: bytes.NewReader(blob.Data), tracker: tracker})
	if err != nil {
		return err
	}
	req.ContentLength = blob.Size()
	req.Header.Set("Content-Type", target.ContentType)
	req.Header.Set("Content-Encoding", "identity")

	client := &http.Client{
		Timeout:   transferTimeout(blob.Size()),
		Transport: u.transport,
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage put failed with status %d", resp.StatusCode)
	}
	return nil
}

// transfer moves the blob to object storage. Small non-media payloads
// take the simple single-attempt path; large or streaming-media payloads
// are wrapped in bounded retries with exponential backoff.
func (u *Uploader) transfer(ctx context.Context, target *PresignTarget, blob *internal_media.Blob, tracker *progressTracker) error {
	resilient := blob.Size() >= u.simpleThreshold || isStreamingMedia(target.ContentType)
	if !resilient {
		if err := u.putObject(ctx, target, blob, tracker); err != nil {
			return TransferError{Attempts: 1, Err: err}
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = u.backoffBase
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxElapsedTime = 0 // bounded by attempt count, not wall clock

	attempts := 0
	operation := func() error {
		attempts++
		if err := u.putObject(ctx, target, blob, tracker); err != nil {
			u.logger.Warnf("recording transfer attempt %d/%d failed: %v", attempts, u.maxAttempts, err)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(u.maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return TransferError{Attempts: attempts, Err: err}
	}
	return nil
}
