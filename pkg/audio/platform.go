// Package audio defines the types, PCM codec, and device interfaces for the
// Suryalive voice pipeline.
//
// The two primary abstractions are:
//
//   - [Device] — opens microphone input and speaker output streams on the host.
//   - [InputStream] / [OutputStream] — a live capture stream delivering
//     fixed-size sample blocks, and a playback stream with its own clock on
//     which sources are scheduled at explicit start offsets.
//
// Implementations of these interfaces are provided by host-specific adapter
// packages (e.g., audio/portaudio). The interfaces are intentionally narrow to
// keep the session controller decoupled from hardware details; tests
// substitute the fakes in audio/mock.
//
// This package lives under pkg/ because external code (alternative device
// adapters) is expected to implement [Device].
package audio

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied reports that the host refused access to the requested
// audio device. Surfaced from [Device.OpenInput] when microphone access is
// denied by the user or platform.
var ErrPermissionDenied = errors.New("audio: device permission denied")

// InputStream is an open microphone capture stream.
//
// Implementations must be safe for concurrent use.
type InputStream interface {
	// Blocks returns a read-only channel that delivers one [Frame] per capture
	// tick, each [CaptureBlockSize] samples long, driven by the device clock.
	// The channel is closed when the stream is closed.
	Blocks() <-chan Frame

	// Close releases the capture device. Safe to call more than once;
	// subsequent calls are no-ops and return nil.
	Close() error
}

// Source is a single scheduled playback unit on an [OutputStream].
type Source interface {
	// Stop halts playback of this source immediately. Stopping a source that
	// has already completed is a no-op.
	Stop()
}

// OutputStream is an open speaker playback stream. Sources are started at
// explicit offsets on the stream's clock, which advances monotonically from
// zero at open.
//
// Implementations must be safe for concurrent use.
type OutputStream interface {
	// Now returns the current position of the playback clock.
	Now() time.Duration

	// Start begins playback of buf at the given clock offset. Offsets in the
	// past are treated as "now". If onEnded is non-nil it is invoked once when
	// the source finishes playing naturally; it is not invoked after Stop.
	// onEnded may be called from an internal goroutine and must not block.
	Start(buf Buffer, at time.Duration, onEnded func()) Source

	// Close releases the playback device, abandoning any in-flight sources.
	// Safe to call more than once; subsequent calls are no-ops and return nil.
	Close() error
}

// Device opens audio streams on the host. Implementations wrap an audio
// backend (portaudio, a fake for tests, …).
//
// Implementations must be safe for concurrent use.
type Device interface {
	// OpenInput opens the default microphone at the given sample rate and
	// block size, mono. The supplied ctx governs the open attempt only (which
	// may involve a permission prompt); once open, the stream remains alive
	// until [InputStream.Close]. Returns [ErrPermissionDenied] if access to
	// the microphone is refused.
	OpenInput(ctx context.Context, sampleRate, blockSize int) (InputStream, error)

	// OpenOutput opens the default speaker at the given sample rate, mono.
	OpenOutput(ctx context.Context, sampleRate int) (OutputStream, error)
}
