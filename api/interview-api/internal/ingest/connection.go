// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	internal_media "github.com/hireloopai/api/interview-api/internal/media"
	internal_recorder "github.com/hireloopai/api/interview-api/internal/recorder"
	internal_session "github.com/hireloopai/api/interview-api/internal/session"
	internal_uploader "github.com/hireloopai/api/interview-api/internal/uploader"
	"github.com/hireloopai/pkg/commons"
	"golang.org/x/sync/errgroup"
)

const (
	// OutputChannelSize bounds the control/status channel toward the
	// capture client. Status pushes are droppable; gorilla allows only
	// one concurrent writer, so everything funnels through this channel.
	OutputChannelSize = 32

	statusInterval = 2 * time.Second
)

// Connection handles one capture WebSocket: control messages build the
// media stream and drive the session; binary frames carry encoded
// fragments routed to their announced track.
type Connection struct {
	conn    *websocket.Conn
	logger  commons.Logger
	manager *internal_session.Manager
	roomID  string

	mu      sync.Mutex
	session *internal_session.Session
	stream  *internal_media.Stream
	tracks  map[uint8]*internal_media.Track
	started bool

	outCh chan CaptureResponse
}

// NewConnection wraps an upgraded capture socket.
func NewConnection(conn *websocket.Conn, manager *internal_session.Manager, logger commons.Logger, roomID string) *Connection {
	return &Connection{
		conn:    conn,
		logger:  logger,
		manager: manager,
		roomID:  roomID,
		stream:  internal_media.NewStream(),
		tracks:  make(map[uint8]*internal_media.Track),
		outCh:   make(chan CaptureResponse, OutputChannelSize),
	}
}

// Run pumps the socket until it closes or ctx is cancelled. On exit all
// tracks are ended, which the recorder observes as the hard stop
// condition; any in-flight upload continues in the background.
func (c *Connection) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.writeLoop(ctx) })

	err := g.Wait()
	c.teardown()
	return err
}

func (c *Connection) teardown() {
	c.mu.Lock()
	tracks := make([]*internal_media.Track, 0, len(c.tracks))
	for _, t := range c.tracks {
		tracks = append(tracks, t)
	}
	c.mu.Unlock()

	// Socket gone means capture gone: every live track has ended.
	for _, t := range tracks {
		t.End()
	}
	c.conn.Close()
}

// ============================================================================
// Read side
// ============================================================================

func (c *Connection) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("capture socket read: %w", err)
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinary(data)
		case websocket.TextMessage:
			if err := c.handleControl(ctx, data); err != nil {
				c.pushError(err)
				return err
			}
		}
	}
}

// handleBinary routes one encoded fragment to its announced track.
// Frame layout: [1-byte track ref][payload].
func (c *Connection) handleBinary(frame []byte) {
	if len(frame) < 2 {
		return
	}
	c.mu.Lock()
	track, ok := c.tracks[frame[0]]
	c.mu.Unlock()
	if !ok {
		c.logger.Debugf("room %s: fragment for unknown track ref %d dropped", c.roomID, frame[0])
		return
	}
	// Copy: gorilla reuses the read buffer.
	payload := make([]byte, len(frame)-1)
	copy(payload, frame[1:])
	if !track.Push(payload) {
		c.logger.Warnf("room %s: dropped %d-byte fragment on track %s", c.roomID, len(payload), track.ID())
	}
}

func (c *Connection) handleControl(ctx context.Context, raw []byte) error {
	var req CaptureRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("malformed capture message: %w", err)
	}

	switch req.Type {
	case CaptureTypeConfiguration:
		return c.handleConfiguration(ctx, req.Data)
	case CaptureTypeTrack:
		return c.handleTrack(req.Data)
	case CaptureTypeStart:
		return c.handleStart()
	case CaptureTypeTrackEnded:
		return c.handleTrackEnded(req.Data)
	case CaptureTypeStop:
		c.withSession(func(s *internal_session.Session) { s.StopRecording() })
		return nil
	case CaptureTypePing:
		c.push(CaptureResponse{Type: CaptureTypePong, Success: true})
		return nil
	default:
		c.logger.Debugf("room %s: ignoring capture message type %q", c.roomID, req.Type)
		return nil
	}
}

func (c *Connection) handleConfiguration(ctx context.Context, data json.RawMessage) error {
	var cfg ConfigurationData
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("malformed configuration: %w", err)
	}

	c.mu.Lock()
	if c.session != nil {
		c.mu.Unlock()
		return fmt.Errorf("room %s: configuration already received", c.roomID)
	}
	c.mu.Unlock()

	identity := internal_uploader.Identity{
		JobID:         cfg.JobID,
		CandidateID:   cfg.CandidateID,
		Timestamp:     time.Now().UnixMilli(),
		InterviewType: cfg.InterviewType,
		RoundNumber:   cfg.RoundNumber,
		RoundToken:    cfg.RoundToken,
	}
	support := internal_recorder.NewCapabilitySet(cfg.SupportedMimeTypes)

	session, err := c.manager.Open(ctx, c.roomID, identity, support)
	if err != nil {
		return fmt.Errorf("room %s: %w", c.roomID, err)
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

func (c *Connection) handleTrack(data json.RawMessage) error {
	var td TrackData
	if err := json.Unmarshal(data, &td); err != nil {
		return fmt.Errorf("malformed track announcement: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("room %s: track announced after recording started", c.roomID)
	}
	if _, exists := c.tracks[td.Ref]; exists {
		return fmt.Errorf("room %s: duplicate track ref %d", c.roomID, td.Ref)
	}

	track := internal_media.NewTrack(
		internal_media.TrackKind(td.Kind),
		internal_media.TrackSource(td.Source),
		td.Label,
	)
	c.tracks[td.Ref] = track
	c.stream.AddTrack(track)
	c.logger.Debugw("capture track announced",
		"roomId", c.roomID,
		"ref", td.Ref,
		"kind", td.Kind,
		"source", td.Source,
	)
	return nil
}

func (c *Connection) handleStart() error {
	c.mu.Lock()
	session := c.session
	stream := c.stream
	if session == nil {
		c.mu.Unlock()
		return fmt.Errorf("room %s: start before configuration", c.roomID)
	}
	c.started = true
	c.mu.Unlock()

	if err := session.StartRecording(stream); err != nil {
		return fmt.Errorf("room %s: %w", c.roomID, err)
	}
	c.pushStatus()
	return nil
}

func (c *Connection) handleTrackEnded(data json.RawMessage) error {
	var te TrackEndedData
	if err := json.Unmarshal(data, &te); err != nil {
		return fmt.Errorf("malformed track_ended: %w", err)
	}
	c.mu.Lock()
	track, ok := c.tracks[te.Ref]
	c.mu.Unlock()
	if ok {
		track.End()
	}
	return nil
}

func (c *Connection) withSession(fn func(*internal_session.Session)) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != nil {
		fn(session)
	}
}

// ============================================================================
// Write side
// ============================================================================

// writeLoop is the single socket writer: queued responses plus periodic
// status updates while the session is live.
func (c *Connection) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case resp := <-c.outCh:
			if err := c.conn.WriteJSON(resp); err != nil {
				return fmt.Errorf("capture socket write: %w", err)
			}
		case <-ticker.C:
			c.pushStatus()
		}
	}
}

// push queues a response without blocking; a full channel drops it.
func (c *Connection) push(resp CaptureResponse) {
	select {
	case c.outCh <- resp:
	default:
		c.logger.Debugf("room %s: output channel full, dropping %s", c.roomID, resp.Type)
	}
}

func (c *Connection) pushStatus() {
	c.withSession(func(s *internal_session.Session) {
		c.push(CaptureResponse{Type: CaptureTypeStatus, Success: true, Data: s.Snapshot()})
	})
}

func (c *Connection) pushError(err error) {
	c.push(CaptureResponse{Type: CaptureTypeError, Success: false, Data: ErrorData{Message: err.Error()}})
}
