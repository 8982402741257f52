package audio

import "time"

// Standard rates and block size for the Suryalive voice pipeline. The Gemini
// Live API consumes 16 kHz mono PCM and produces 24 kHz mono PCM; the capture
// block size matches the chunking used by the upstream service.
const (
	// InputRate is the microphone capture sample rate in Hz.
	InputRate = 16000

	// OutputRate is the synthesized-speech playback sample rate in Hz.
	OutputRate = 24000

	// CaptureBlockSize is the number of samples per capture frame.
	CaptureBlockSize = 4096
)

// Frame is one fixed-size block of captured microphone samples, normalized to
// the range [-1.0, 1.0). Frames are ephemeral: created per capture tick,
// encoded, and discarded.
type Frame []float32

// Buffer is decoded PCM audio, de-interleaved per channel.
type Buffer struct {
	// SampleRate in Hz.
	SampleRate int

	// Channels holds one sample slice per channel. All slices have equal length.
	Channels [][]float32
}

// FrameCount returns the number of sample frames per channel.
func (b Buffer) FrameCount() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback duration of the buffer.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.FrameCount()) * time.Second / time.Duration(b.SampleRate)
}
