package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/suryalive/suryalive/internal/observe"
	"github.com/suryalive/suryalive/pkg/audio"
	"github.com/suryalive/suryalive/pkg/provider/live"
)

// defaultQueueCapacity bounds the outbound audio queue when no capacity is
// configured. At the capture block size this is roughly eight seconds of
// microphone audio.
const defaultQueueCapacity = 32

// Capture reads microphone blocks from an [audio.InputStream], encodes them
// as 16-bit PCM transport text, and forwards them to a live session through a
// bounded outbound queue. When the queue is full the oldest pending block is
// dropped so the stream stays current instead of accumulating latency behind
// a slow transport.
//
// All methods are safe for concurrent use.
type Capture struct {
	logger  *slog.Logger
	metrics *observe.Metrics

	queue    chan live.MediaPayload
	dropped  atomic.Uint64
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// CaptureConfig configures a [Capture].
type CaptureConfig struct {
	// Input is the microphone stream to read blocks from. The capture does
	// not close it; the owner does.
	Input audio.InputStream

	// Session receives the encoded audio payloads.
	Session live.SessionHandle

	// QueueCapacity bounds the outbound queue. Defaults to 32 if zero.
	QueueCapacity int

	// Logger receives pipeline diagnostics. Defaults to [slog.Default].
	Logger *slog.Logger

	// Metrics records capture counters. Defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// StartCapture launches the capture pipeline: one goroutine encoding
// microphone blocks into the queue and one draining the queue into the
// session. Both run until the input stream ends or [Capture.Stop] is called.
func StartCapture(ctx context.Context, cfg CaptureConfig) *Capture {
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	c := &Capture{
		logger:  logger,
		metrics: metrics,
		queue:   make(chan live.MediaPayload, capacity),
		done:    make(chan struct{}),
	}
	c.wg.Add(2)
	go c.encodeLoop(ctx, cfg.Input)
	go c.sendLoop(ctx, cfg.Session)
	return c
}

// Stop terminates both pipeline goroutines and waits for them to exit.
// Pending queued blocks are discarded. Safe to call more than once.
func (c *Capture) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
	c.wg.Wait()
}

// Dropped reports how many captured blocks were discarded because the
// outbound queue was full.
func (c *Capture) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Capture) encodeLoop(ctx context.Context, in audio.InputStream) {
	defer c.wg.Done()
	defer close(c.queue)
	for {
		select {
		case <-c.done:
			return
		case frame, ok := <-in.Blocks():
			if !ok {
				return
			}
			pcm := audio.FloatToPCM16(frame)
			c.enqueue(ctx, live.MediaPayload{
				Data:     audio.EncodeTransportText(pcm),
				MIMEType: live.PCMMimeType,
			})
		}
	}
}

// enqueue adds a payload to the queue, evicting the oldest pending payload
// when the queue is full. It never blocks the encode loop.
func (c *Capture) enqueue(ctx context.Context, p live.MediaPayload) {
	select {
	case c.queue <- p:
		c.metrics.FramesCaptured.Add(ctx, 1)
		return
	default:
	}

	select {
	case <-c.queue:
		c.dropped.Add(1)
		c.metrics.FramesDropped.Add(ctx, 1)
	default:
		// The sender drained the queue between our two selects.
	}

	select {
	case c.queue <- p:
		c.metrics.FramesCaptured.Add(ctx, 1)
	default:
		c.dropped.Add(1)
		c.metrics.FramesDropped.Add(ctx, 1)
	}
}

func (c *Capture) sendLoop(ctx context.Context, sess live.SessionHandle) {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case payload, ok := <-c.queue:
			if !ok {
				return
			}
			if err := sess.SendAudio(payload); err != nil {
				if errors.Is(err, live.ErrSessionClosed) {
					return
				}
				c.logger.DebugContext(ctx, "capture: send audio failed", "error", err)
			}
		}
	}
}
