// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room context status constants.
const (
	StatusPending   = "pending"   // Room created, waiting for a capture connection
	StatusClaimed   = "claimed"   // Capture connection established
	StatusCompleted = "completed" // Recording finished and uploaded
	StatusFailed    = "failed"    // Capture or upload failed
)

// RoomContext holds the information needed to resolve an interview-room
// session. It bridges the gap between room creation and the capture
// WebSocket connection that follows.
//
// The status field provides atomic claiming: only one capture connection
// can transition pending→claimed, so a room never records twice
// concurrently.
type RoomContext struct {
	RoomID        string    `json:"roomId"`
	ContextID     string    `json:"contextId"`
	Status        string    `json:"status"`
	JobID         string    `json:"jobId"`
	CandidateID   string    `json:"candidateId"`
	InterviewType string    `json:"interviewType"`
	RoundNumber   int       `json:"roundNumber,omitempty"`
	CreatedDate   time.Time `json:"createdDate"`
	UpdatedDate   time.Time `json:"updatedDate"`
}

// Store provides operations to save and retrieve room contexts.
//
// Room contexts are session-scoped records that live for the entire
// duration of an interview. Status polls from the dashboard arrive
// asynchronously — including after the capture connection has dropped —
// so rows are never deleted during the room lifecycle; they only
// transition through statuses: pending → claimed → completed/failed.
type Store interface {
	// Save stores a room context with a generated contextId (UUID).
	// Returns the generated contextId.
	Save(ctx context.Context, rc *RoomContext) (string, error)

	// Get retrieves a room context regardless of its current status.
	// Late status polls must still resolve after the room completed.
	Get(ctx context.Context, roomID string) (*RoomContext, error)

	// Claim atomically transitions a room context from "pending" to
	// "claimed". Only one concurrent capture connection can win the
	// claim; subsequent callers get an error because the row is no
	// longer claimable.
	Claim(ctx context.Context, roomID string) (*RoomContext, error)

	// Complete marks a room context as completed. The row remains
	// readable for late polls.
	Complete(ctx context.Context, roomID string) error

	// Fail marks a room context as failed.
	Fail(ctx context.Context, roomID string) error

	// Delete removes a room context row. Cleanup only (TTL-style
	// garbage collection), never during active room flows.
	Delete(ctx context.Context, roomID string) error
}

// memoryStore keeps room contexts in process memory. Recording metadata
// itself is persisted by the recruiting backend through the confirm
// endpoint; the agent only needs session-lifetime bookkeeping.
type memoryStore struct {
	mu    sync.Mutex
	rooms map[string]*RoomContext
}

// NewMemoryStore creates an in-memory room context store.
func NewMemoryStore() Store {
	return &memoryStore{rooms: make(map[string]*RoomContext)}
}

func (s *memoryStore) Save(_ context.Context, rc *RoomContext) (string, error) {
	if rc.ContextID == "" {
		rc.ContextID = uuid.New().String()
	}
	if rc.Status == "" {
		rc.Status = StatusPending
	}
	rc.CreatedDate = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[rc.RoomID]; exists {
		return "", fmt.Errorf("room context already exists: %s", rc.RoomID)
	}
	clone := *rc
	s.rooms[rc.RoomID] = &clone
	return rc.ContextID, nil
}

func (s *memoryStore) Get(_ context.Context, roomID string) (*RoomContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room context not found: %s", roomID)
	}
	clone := *rc
	return &clone, nil
}

func (s *memoryStore) Claim(_ context.Context, roomID string) (*RoomContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room context not found: %s", roomID)
	}
	if rc.Status != StatusPending {
		return nil, fmt.Errorf("room context not claimable: %s is %s", roomID, rc.Status)
	}
	rc.Status = StatusClaimed
	rc.UpdatedDate = time.Now()
	clone := *rc
	return &clone, nil
}

func (s *memoryStore) Complete(_ context.Context, roomID string) error {
	return s.setStatus(roomID, StatusCompleted)
}

func (s *memoryStore) Fail(_ context.Context, roomID string) error {
	return s.setStatus(roomID, StatusFailed)
}

func (s *memoryStore) setStatus(roomID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc, ok := s.rooms[roomID]
	if !ok {
		return fmt.Errorf("room context not found: %s", roomID)
	}
	rc.Status = status
	rc.UpdatedDate = time.Now()
	return nil
}

func (s *memoryStore) Delete(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
	return nil
}
