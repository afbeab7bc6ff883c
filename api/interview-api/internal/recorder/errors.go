// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_recorder

// StreamInactiveError is returned by Start when the stream's video track
// has already ended; no engine is created in that case.
type StreamInactiveError struct{}

func (StreamInactiveError) Error() string {
	return "stream is inactive: video track has already ended"
}
