// Copyright (c) 2024-2026 Hireloop Inc.
// Author: Hireloop Engineering <engineering@hireloop.ai>
//
// Licensed under GPL-2.0 with Hireloop Additional Terms.
// See LICENSE.md or contact sales@hireloop.ai for commercial usage.
package internal_recorder

import (
	"errors"
	"strings"
)

// Codec is one container/codec combination with the target bitrates
// derived from it. Selection happens once per session and is fixed for
// its duration.
type Codec struct {
	MimeType           string
	VideoBitsPerSecond int
	AudioBitsPerSecond int
}

// codecPreference is the fixed probe order, broadly compatible codecs
// first. VP8 decodes everywhere the review UI runs; MP4 is the fallback
// for capture clients that cannot produce webm at all.
var codecPreference = []Codec{
	{MimeType: "video/webm;codecs=vp8,opus", VideoBitsPerSecond: 2_500_000, AudioBitsPerSecond: 128_000},
	{MimeType: "video/webm;codecs=vp9,opus", VideoBitsPerSecond: 2_000_000, AudioBitsPerSecond: 128_000},
	{MimeType: "video/webm", VideoBitsPerSecond: 2_500_000, AudioBitsPerSecond: 128_000},
	{MimeType: "video/mp4", VideoBitsPerSecond: 3_000_000, AudioBitsPerSecond: 128_000},
}

// ErrNoSupportedCodec is returned when the capture client supports none
// of the preferred container/codec combinations.
var ErrNoSupportedCodec = errors.New("no supported recording codec")

// CodecSupport reports whether the capture side can encode a given
// container/codec combination.
type CodecSupport interface {
	Supports(mimeType string) bool
}

// CapabilitySet is a CodecSupport backed by the MIME types the capture
// client advertised in its configuration message.
type CapabilitySet map[string]struct{}

// NewCapabilitySet normalizes the advertised types into a set.
func NewCapabilitySet(mimeTypes []string) CapabilitySet {
	set := make(CapabilitySet, len(mimeTypes))
	for _, mt := range mimeTypes {
		set[normalizeMime(mt)] = struct{}{}
	}
	return set
}

// Supports implements CodecSupport.
func (c CapabilitySet) Supports(mimeType string) bool {
	_, ok := c[normalizeMime(mimeType)]
	return ok
}

func normalizeMime(mt string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(mt), " ", ""))
}

// SelectCodec probes the preference order against the capture client's
// capabilities and returns the first supported codec.
func SelectCodec(support CodecSupport) (Codec, error) {
	for _, codec := range codecPreference {
		if support.Supports(codec.MimeType) {
			return codec, nil
		}
	}
	return Codec{}, ErrNoSupportedCodec
}
