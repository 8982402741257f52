// Package portaudio implements the [audio.Device] interface on top of the
// PortAudio library, providing real microphone capture and speaker playback
// for the Suryalive voice pipeline.
//
// The playback side implements the [audio.OutputStream] clock contract with a
// wall-clock offset taken at open time and a single writer goroutine that
// plays scheduled sources in order. Because the session's playback scheduler
// never schedules overlapping sources, FIFO playback preserves the scheduled
// ordering.
package portaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	pa "github.com/gordonklaus/portaudio"

	"github.com/suryalive/suryalive/pkg/audio"
)

var _ audio.Device = (*Device)(nil)

// Device opens PortAudio streams on the host's default input and output
// devices. Create one with [New] and release it with [Close].
type Device struct {
	closeOnce sync.Once
}

// New initialises the PortAudio library and returns a Device.
// The caller must call [Device.Close] to release the library.
func New() (*Device, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio: initialize: %w", err)
	}
	return &Device{}, nil
}

// Close terminates the PortAudio library. Idempotent.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = pa.Terminate()
	})
	return err
}

// OpenInput opens the default microphone as a mono capture stream delivering
// blockSize-sample frames. Permission refusals from the host surface as open
// errors here.
func (d *Device) OpenInput(_ context.Context, sampleRate, blockSize int) (audio.InputStream, error) {
	buf := make([]float32, blockSize)
	stream, err := pa.OpenDefaultStream(1, 0, float64(sampleRate), blockSize, buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open input: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("portaudio: start input: %w", err)
	}

	in := &inputStream{
		stream: stream,
		buf:    buf,
		blocks: make(chan audio.Frame, 4),
		done:   make(chan struct{}),
	}
	go in.captureLoop()
	return in, nil
}

// OpenOutput opens the default speaker as a mono playback stream.
func (d *Device) OpenOutput(_ context.Context, sampleRate int) (audio.OutputStream, error) {
	const writeBlock = 1024
	buf := make([]float32, writeBlock)
	stream, err := pa.OpenDefaultStream(0, 1, float64(sampleRate), writeBlock, buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open output: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("portaudio: start output: %w", err)
	}

	out := &outputStream{
		stream:  stream,
		buf:     buf,
		opened:  time.Now(),
		pending: make(chan *source, 64),
		done:    make(chan struct{}),
	}
	go out.playLoop()
	return out, nil
}

// ─── inputStream ──────────────────────────────────────────────────────────────

type inputStream struct {
	stream *pa.Stream
	buf    []float32
	blocks chan audio.Frame
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// captureLoop reads blocks from the device until the stream is closed.
// It owns the blocks channel and closes it on exit.
func (s *inputStream) captureLoop() {
	defer close(s.blocks)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		if err := s.stream.Read(); err != nil {
			// Device gone or stream stopped; end the capture stream.
			return
		}
		frame := make(audio.Frame, len(s.buf))
		copy(frame, s.buf)
		select {
		case s.blocks <- frame:
		case <-s.done:
			return
		}
	}
}

func (s *inputStream) Blocks() <-chan audio.Frame { return s.blocks }

func (s *inputStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.stream.Stop(); err != nil {
			s.closeErr = fmt.Errorf("portaudio: stop input: %w", err)
		}
		if err := s.stream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = fmt.Errorf("portaudio: close input: %w", err)
		}
	})
	return s.closeErr
}

// ─── outputStream ─────────────────────────────────────────────────────────────

type source struct {
	buf     audio.Buffer
	at      time.Duration
	onEnded func()

	mu      sync.Mutex
	stopped bool
}

func (s *source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
}

func (s *source) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type outputStream struct {
	stream  *pa.Stream
	buf     []float32
	opened  time.Time
	pending chan *source
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func (o *outputStream) Now() time.Duration {
	return time.Since(o.opened)
}

func (o *outputStream) Start(buf audio.Buffer, at time.Duration, onEnded func()) audio.Source {
	src := &source{buf: buf, at: at, onEnded: onEnded}
	select {
	case o.pending <- src:
	case <-o.done:
	}
	return src
}

// playLoop plays queued sources in FIFO order, waiting out any lead time
// before a source's scheduled start.
func (o *outputStream) playLoop() {
	for {
		select {
		case <-o.done:
			return
		case src := <-o.pending:
			if wait := src.at - o.Now(); wait > 0 {
				select {
				case <-time.After(wait):
				case <-o.done:
					return
				}
			}
			if src.isStopped() {
				continue
			}
			if o.play(src) && src.onEnded != nil {
				src.onEnded()
			}
		}
	}
}

// play writes one source's mono samples to the device in write-block chunks.
// Returns true if the source completed naturally.
func (o *outputStream) play(src *source) bool {
	if len(src.buf.Channels) == 0 {
		return true
	}
	samples := src.buf.Channels[0]
	for off := 0; off < len(samples); off += len(o.buf) {
		if src.isStopped() {
			return false
		}
		select {
		case <-o.done:
			return false
		default:
		}

		n := copy(o.buf, samples[off:])
		for i := n; i < len(o.buf); i++ {
			o.buf[i] = 0
		}
		if err := o.stream.Write(); err != nil {
			return false
		}
	}
	return true
}

func (o *outputStream) Close() error {
	o.closeOnce.Do(func() {
		close(o.done)
		if err := o.stream.Stop(); err != nil {
			o.closeErr = fmt.Errorf("portaudio: stop output: %w", err)
		}
		if err := o.stream.Close(); err != nil && o.closeErr == nil {
			o.closeErr = fmt.Errorf("portaudio: close output: %w", err)
		}
	})
	return o.closeErr
}
