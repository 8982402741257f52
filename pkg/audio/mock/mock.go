// Package mock provides in-memory fake implementations of the [audio.Device],
// [audio.InputStream], and [audio.OutputStream] interfaces for use in unit
// tests.
//
// All mocks are safe for concurrent use. They record every method call so that
// tests can assert on call counts and arguments, and they expose exported
// fields that the test can set to control return values. The [OutputStream]
// fake has a manually advanced clock so scheduling arithmetic can be tested
// deterministically.
//
// Typical usage:
//
//	in := mock.NewInputStream(4)
//	out := mock.NewOutputStream()
//	dev := &mock.Device{OpenInputResult: in, OpenOutputResult: out}
//	// feed capture frames:
//	in.Feed(make(audio.Frame, audio.CaptureBlockSize))
//	// advance the playback clock:
//	out.SetNow(300 * time.Millisecond)
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/suryalive/suryalive/pkg/audio"
)

// ─── Device ───────────────────────────────────────────────────────────────────

// Device is a fake implementation of [audio.Device].
// Set the exported Result/Error fields before use; inspect the Call* fields after.
type Device struct {
	mu sync.Mutex

	// OpenInputResult is returned by [Device.OpenInput] when OpenInputError is nil.
	OpenInputResult *InputStream

	// OpenInputError, when non-nil, is returned by [Device.OpenInput].
	// Set to audio.ErrPermissionDenied to simulate a refused microphone prompt.
	OpenInputError error

	// OpenOutputResult is returned by [Device.OpenOutput] when OpenOutputError is nil.
	OpenOutputResult *OutputStream

	// OpenOutputError, when non-nil, is returned by [Device.OpenOutput].
	OpenOutputError error

	// CallCountOpenInput records how many times OpenInput was called.
	CallCountOpenInput int

	// CallCountOpenOutput records how many times OpenOutput was called.
	CallCountOpenOutput int

	// RecordedInputRates holds the sampleRate argument of each OpenInput call.
	RecordedInputRates []int

	// RecordedBlockSizes holds the blockSize argument of each OpenInput call.
	RecordedBlockSizes []int

	// RecordedOutputRates holds the sampleRate argument of each OpenOutput call.
	RecordedOutputRates []int
}

var _ audio.Device = (*Device)(nil)

// OpenInput returns OpenInputResult or OpenInputError.
func (d *Device) OpenInput(_ context.Context, sampleRate, blockSize int) (audio.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountOpenInput++
	d.RecordedInputRates = append(d.RecordedInputRates, sampleRate)
	d.RecordedBlockSizes = append(d.RecordedBlockSizes, blockSize)
	if d.OpenInputError != nil {
		return nil, d.OpenInputError
	}
	return d.OpenInputResult, nil
}

// OpenOutput returns OpenOutputResult or OpenOutputError.
func (d *Device) OpenOutput(_ context.Context, sampleRate int) (audio.OutputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.CallCountOpenOutput++
	d.RecordedOutputRates = append(d.RecordedOutputRates, sampleRate)
	if d.OpenOutputError != nil {
		return nil, d.OpenOutputError
	}
	return d.OpenOutputResult, nil
}

// ─── InputStream ──────────────────────────────────────────────────────────────

// InputStream is a fake implementation of [audio.InputStream] fed manually by
// the test via [InputStream.Feed].
type InputStream struct {
	mu     sync.Mutex
	blocks chan audio.Frame
	closed bool

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

var _ audio.InputStream = (*InputStream)(nil)

// NewInputStream creates an InputStream whose block channel has the given buffer.
func NewInputStream(buffer int) *InputStream {
	return &InputStream{blocks: make(chan audio.Frame, buffer)}
}

// Feed delivers one capture frame to the consumer. Returns false if the
// stream has been closed.
func (s *InputStream) Feed(f audio.Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.blocks <- f
	return true
}

// Blocks returns the capture channel.
func (s *InputStream) Blocks() <-chan audio.Frame { return s.blocks }

// Close closes the block channel. Idempotent.
func (s *InputStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountClose++
	if !s.closed {
		s.closed = true
		close(s.blocks)
	}
	return nil
}

// Closed reports whether Close has been called.
func (s *InputStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ─── OutputStream ─────────────────────────────────────────────────────────────

// StartedSource records a single [OutputStream.Start] call.
type StartedSource struct {
	// Buf is the buffer passed to Start.
	Buf audio.Buffer

	// At is the clock offset passed to Start.
	At time.Duration

	onEnded func()

	mu      sync.Mutex
	stopped bool
}

// Stop marks the source stopped.
func (s *StartedSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

// Stopped reports whether Stop has been called on this source.
func (s *StartedSource) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// End simulates natural playback completion, invoking the onEnded callback
// registered at Start. Has no effect on a stopped source.
func (s *StartedSource) End() {
	s.mu.Lock()
	stopped := s.stopped
	cb := s.onEnded
	s.mu.Unlock()
	if !stopped && cb != nil {
		cb()
	}
}

// OutputStream is a fake implementation of [audio.OutputStream] with a
// manually controlled clock.
type OutputStream struct {
	mu      sync.Mutex
	now     time.Duration
	started []*StartedSource
	closed  bool

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

var _ audio.OutputStream = (*OutputStream)(nil)

// NewOutputStream creates an OutputStream with its clock at zero.
func NewOutputStream() *OutputStream {
	return &OutputStream{}
}

// SetNow moves the playback clock to the given position.
func (o *OutputStream) SetNow(now time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now = now
}

// Now returns the current fake clock position.
func (o *OutputStream) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

// Start records the scheduled source and returns it.
func (o *OutputStream) Start(buf audio.Buffer, at time.Duration, onEnded func()) audio.Source {
	o.mu.Lock()
	defer o.mu.Unlock()
	src := &StartedSource{Buf: buf, At: at, onEnded: onEnded}
	o.started = append(o.started, src)
	return src
}

// Started returns a snapshot of all sources passed to Start, in call order.
func (o *OutputStream) Started() []*StartedSource {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*StartedSource, len(o.started))
	copy(out, o.started)
	return out
}

// Close marks the stream closed. Idempotent.
func (o *OutputStream) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.CallCountClose++
	o.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (o *OutputStream) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
