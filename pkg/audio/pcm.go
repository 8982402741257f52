package audio

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedPayload reports transport text that cannot be mapped back to
// bytes because a character's code point exceeds 255.
var ErrMalformedPayload = errors.New("audio: malformed transport payload")

// ErrInvalidSampleCount reports a PCM byte buffer whose length is not a whole
// number of samples for the given channel layout.
var ErrInvalidSampleCount = errors.New("audio: invalid sample count")

// EncodeTransportText maps each byte of b to a single character by code
// point, producing a text-safe encoding of a binary audio buffer.
// DecodeTransportText is its total inverse.
func EncodeTransportText(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

// DecodeTransportText reverses [EncodeTransportText]: each character's code
// point becomes one byte. Returns [ErrMalformedPayload] if any character's
// code point exceeds 255.
func DecodeTransportText(text string) ([]byte, error) {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: code point U+%04X out of byte range", ErrMalformedPayload, r)
		}
		out = append(out, byte(r))
	}
	return out, nil
}

// PCM16ToFloat interprets b as interleaved signed 16-bit little-endian PCM,
// de-interleaves it per channel, and normalizes each sample to [-1.0, 1.0) by
// dividing by 32768. Returns [ErrInvalidSampleCount] if the byte length is not
// a multiple of 2*channels.
func PCM16ToFloat(b []byte, sampleRate, channels int) (Buffer, error) {
	if channels <= 0 {
		return Buffer{}, fmt.Errorf("audio: channels must be positive, got %d", channels)
	}
	if len(b)%(2*channels) != 0 {
		return Buffer{}, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidSampleCount, len(b), 2*channels)
	}

	frames := len(b) / 2 / channels
	buf := Buffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range buf.Channels {
		buf.Channels[ch] = make([]float32, frames)
	}

	for i := range frames {
		for ch := range channels {
			off := (i*channels + ch) * 2
			s := int16(b[off]) | int16(b[off+1])<<8
			buf.Channels[ch][i] = float32(s) / 32768.0
		}
	}
	return buf, nil
}

// FloatToPCM16 packs float samples (expected range [-1, 1]) as signed 16-bit
// little-endian PCM. Each sample is multiplied by 32768 and truncated to
// int16. Out-of-range input wraps rather than clamps — this preserves the
// plain multiply-and-truncate conversion the capture path has always used,
// and keeps the function the cheap inverse of [PCM16ToFloat].
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, f := range samples {
		// Truncate via int64 so out-of-range values wrap deterministically
		// instead of hitting Go's implementation-defined float→int16 overflow.
		s := int16(int64(f * 32768))
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}
