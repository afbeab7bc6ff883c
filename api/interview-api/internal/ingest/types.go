// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_ingest

import "encoding/json"

// =============================================================================
// Capture WebSocket Message Types
// =============================================================================

// CaptureMessageType defines the type of message and what data structure
// to expect.
type CaptureMessageType string

const (
	// Request types (capture client -> agent)
	CaptureTypeConfiguration CaptureMessageType = "configuration" // Data: ConfigurationData
	CaptureTypeTrack         CaptureMessageType = "track"         // Data: TrackData
	CaptureTypeStart         CaptureMessageType = "start"         // Data: nil
	CaptureTypeTrackEnded    CaptureMessageType = "track_ended"   // Data: TrackEndedData
	CaptureTypeStop          CaptureMessageType = "stop"          // Data: nil

	// Response types (agent -> capture client)
	CaptureTypeStatus CaptureMessageType = "status" // Data: session snapshot
	CaptureTypeError  CaptureMessageType = "error"  // Data: ErrorData

	// Control types (bidirectional)
	CaptureTypePing CaptureMessageType = "ping" // Data: nil
	CaptureTypePong CaptureMessageType = "pong" // Data: nil
)

// =============================================================================
// Request/Response Envelope
// =============================================================================

// CaptureRequest is an incoming control message with typed data.
type CaptureRequest struct {
	Type      CaptureMessageType `json:"type"`
	Timestamp int64              `json:"timestamp"`
	Data      json.RawMessage    `json:"data,omitempty"`
}

// CaptureResponse is an outgoing message with typed data.
type CaptureResponse struct {
	Type    CaptureMessageType `json:"type"`
	Success bool               `json:"success"`
	Data    interface{}        `json:"data,omitempty"`
}

// =============================================================================
// Data structures for each message type
// =============================================================================

// ConfigurationData is the mandatory first message: the interview
// identity plus the container MIME types the capture client can encode,
// which is the recorder's codec probe source.
// Used with: CaptureTypeConfiguration
type ConfigurationData struct {
	JobID              string   `json:"job_id"`
	CandidateID        string   `json:"candidate_id"`
	InterviewType      string   `json:"interview_type"`
	RoundNumber        int      `json:"round_number,omitempty"`
	RoundToken         string   `json:"round_token,omitempty"`
	SupportedMimeTypes []string `json:"supported_mime_types"`
}

// TrackData announces one media track before recording starts. Ref is
// the client-chosen byte that prefixes this track's binary frames.
// Used with: CaptureTypeTrack
type TrackData struct {
	Ref    uint8  `json:"ref"`
	Kind   string `json:"kind"`   // "video" or "audio"
	Source string `json:"source"` // "screen" or "microphone"
	Label  string `json:"label,omitempty"`
}

// TrackEndedData signals that a track ended on the capture side (for the
// screen track: the candidate revoked screen share).
// Used with: CaptureTypeTrackEnded
type TrackEndedData struct {
	Ref uint8 `json:"ref"`
}

// ErrorData carries an agent-side failure to the capture client.
// Used with: CaptureTypeError
type ErrorData struct {
	Message string `json:"message"`
}
