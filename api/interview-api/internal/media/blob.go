// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_media

// Blob is a finished recording artifact: the concatenated chunk bytes
// plus the container MIME type the session was encoded with.
type Blob struct {
	MIME string
	Data []byte
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}
