package audio_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/suryalive/suryalive/pkg/audio"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestTransportTextRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 255, 4096} {
		b := make([]byte, n)
		rng.Read(b)

		text := audio.EncodeTransportText(b)
		got, err := audio.DecodeTransportText(text)
		if err != nil {
			t.Fatalf("decode(%d bytes): %v", n, err)
		}
		if !bytes.Equal(got, b) {
			t.Errorf("round trip of %d bytes did not return original buffer", n)
		}
	}
}

func TestDecodeTransportText_AllByteValues(t *testing.T) {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	got, err := audio.DecodeTransportText(audio.EncodeTransportText(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, b) {
		t.Errorf("round trip over all byte values failed")
	}
}

func TestDecodeTransportText_Malformed(t *testing.T) {
	_, err := audio.DecodeTransportText("abĀcd")
	if !errors.Is(err, audio.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestPCM16ToFloat_Mono(t *testing.T) {
	b := samplesToBytes([]int16{0, 16384, -16384, 32767, -32768})
	buf, err := audio.PCM16ToFloat(b, 24000, 1)
	if err != nil {
		t.Fatalf("PCM16ToFloat: %v", err)
	}
	if buf.SampleRate != 24000 {
		t.Errorf("sample rate: got %d, want 24000", buf.SampleRate)
	}
	if len(buf.Channels) != 1 {
		t.Fatalf("channels: got %d, want 1", len(buf.Channels))
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1.0}
	for i, w := range want {
		if got := buf.Channels[0][i]; got != w {
			t.Errorf("sample %d: got %v, want %v", i, got, w)
		}
	}
}

func TestPCM16ToFloat_DeinterleavesStereo(t *testing.T) {
	// Interleaved L,R pairs.
	b := samplesToBytes([]int16{100, -100, 200, -200})
	buf, err := audio.PCM16ToFloat(b, 24000, 2)
	if err != nil {
		t.Fatalf("PCM16ToFloat: %v", err)
	}
	if buf.FrameCount() != 2 {
		t.Fatalf("frame count: got %d, want 2", buf.FrameCount())
	}
	if buf.Channels[0][0] != 100.0/32768 || buf.Channels[0][1] != 200.0/32768 {
		t.Errorf("left channel wrong: %v", buf.Channels[0])
	}
	if buf.Channels[1][0] != -100.0/32768 || buf.Channels[1][1] != -200.0/32768 {
		t.Errorf("right channel wrong: %v", buf.Channels[1])
	}
}

func TestPCM16ToFloat_InvalidSampleCount(t *testing.T) {
	cases := []struct {
		name     string
		bytes    int
		channels int
	}{
		{"odd byte count mono", 3, 1},
		{"half frame stereo", 6, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := audio.PCM16ToFloat(make([]byte, tc.bytes), 24000, tc.channels)
			if !errors.Is(err, audio.ErrInvalidSampleCount) {
				t.Fatalf("expected ErrInvalidSampleCount, got %v", err)
			}
		})
	}
}

func TestPCMRoundTrip_WithinOneUnit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	samples := make([]int16, 4096)
	for i := range samples {
		samples[i] = int16(rng.Intn(65536) - 32768)
	}

	buf, err := audio.PCM16ToFloat(samplesToBytes(samples), 16000, 1)
	if err != nil {
		t.Fatalf("PCM16ToFloat: %v", err)
	}
	packed := audio.FloatToPCM16(buf.Channels[0])
	if len(packed) != len(samples)*2 {
		t.Fatalf("packed length: got %d, want %d", len(packed), len(samples)*2)
	}
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(packed[i*2:]))
		diff := int(got) - int(want)
		if diff < -1 || diff > 1 {
			t.Errorf("sample %d: got %d, want %d (±1)", i, got, want)
		}
	}
}

func TestFloatToPCM16_Truncates(t *testing.T) {
	got := audio.FloatToPCM16([]float32{0, 0.5, -0.5, 0.99999})
	want := samplesToBytes([]int16{0, 16384, -16384, 32767})
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFloatToPCM16_OutOfRangeWraps(t *testing.T) {
	// 1.0 * 32768 does not fit in int16; the conversion wraps to -32768,
	// matching plain multiply-and-truncate.
	got := audio.FloatToPCM16([]float32{1.0})
	if s := int16(binary.LittleEndian.Uint16(got)); s != -32768 {
		t.Errorf("got %d, want -32768", s)
	}
}

func TestBufferDuration(t *testing.T) {
	buf := audio.Buffer{SampleRate: 24000, Channels: [][]float32{make([]float32, 12000)}}
	if d := buf.Duration(); d != 500*time.Millisecond {
		t.Errorf("duration: got %v, want 500ms", d)
	}
	if d := (audio.Buffer{}).Duration(); d != 0 {
		t.Errorf("empty buffer duration: got %v, want 0", d)
	}
}
