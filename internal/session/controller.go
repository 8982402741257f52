// Package session implements the live voice pipeline: microphone capture
// with a bounded outbound queue, gapless playback scheduling for model
// audio, and the lifecycle controller that ties the audio devices, the live
// provider, and the conversation transcript together.
//
// This package is internal because it encapsulates application-private voice
// pipeline logic and is not intended for import by external code.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/suryalive/suryalive/internal/observe"
	"github.com/suryalive/suryalive/pkg/audio"
	"github.com/suryalive/suryalive/pkg/provider/live"
)

// State enumerates the session lifecycle. A session moves Idle → Connecting
// → Active, then either back to Idle when stopped locally or to Closed when
// the server ends it. Start is valid from both Idle and Closed.
type State int

const (
	// StateIdle means no session exists.
	StateIdle State = iota

	// StateConnecting means devices are opening and the provider dial is in
	// flight.
	StateConnecting

	// StateActive means audio is streaming in both directions.
	StateActive

	// StateClosed means the last session ended remotely, by server close or
	// transport failure.
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrSessionActive is returned by [Controller.Start] when a session is
// already connecting or active.
var ErrSessionActive = errors.New("session: already active")

// Controller owns the full lifecycle of a single live voice session: it
// opens the microphone and speaker, connects to the live provider, pumps
// captured audio out through a [Capture], schedules returned audio on a
// [Scheduler], and accumulates the conversation transcript. At most one
// session is live at a time.
//
// All methods are safe for concurrent use.
type Controller struct {
	provider live.Provider
	device   audio.Device
	sessCfg  live.SessionConfig
	queueCap int
	logger   *slog.Logger
	metrics  *observe.Metrics

	mu         sync.Mutex
	state      State
	cancelDial context.CancelFunc
	sess       live.SessionHandle
	in         audio.InputStream
	out        audio.OutputStream
	capture    *Capture
	sched      *Scheduler
	transcript []live.TranscriptFragment
}

// ControllerConfig configures a [Controller].
type ControllerConfig struct {
	// Provider establishes live sessions.
	Provider live.Provider

	// Device opens the microphone and speaker streams.
	Device audio.Device

	// Session is the per-session provider configuration (persona
	// instructions and voice).
	Session live.SessionConfig

	// QueueCapacity bounds the outbound capture queue. Defaults to 32 if
	// zero.
	QueueCapacity int

	// Logger receives session diagnostics. Defaults to [slog.Default].
	Logger *slog.Logger

	// Metrics records session instrumentation. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// NewController creates a new [Controller] in [StateIdle].
func NewController(cfg ControllerConfig) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	return &Controller{
		provider: cfg.Provider,
		device:   cfg.Device,
		sessCfg:  cfg.Session,
		queueCap: cfg.QueueCapacity,
		logger:   logger,
		metrics:  metrics,
		state:    StateIdle,
	}
}

// Start opens the audio devices, connects to the live provider, and begins
// streaming. It is valid only when no session is connecting or active;
// otherwise it returns [ErrSessionActive]. On any setup failure everything
// opened so far is released and the controller returns to [StateIdle].
// Starting a new session discards the previous session's transcript.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateActive {
		c.mu.Unlock()
		return ErrSessionActive
	}
	sessCtx, cancel := context.WithCancel(ctx)
	c.state = StateConnecting
	c.cancelDial = cancel
	c.transcript = nil
	sessCfg := c.sessCfg
	c.mu.Unlock()

	began := time.Now()

	in, err := c.device.OpenInput(sessCtx, audio.InputRate, audio.CaptureBlockSize)
	if err != nil {
		c.abortStart(cancel)
		if errors.Is(err, audio.ErrPermissionDenied) {
			return fmt.Errorf("session: microphone access denied: %w", err)
		}
		return fmt.Errorf("session: open input: %w", err)
	}
	out, err := c.device.OpenOutput(sessCtx, audio.OutputRate)
	if err != nil {
		_ = in.Close()
		c.abortStart(cancel)
		return fmt.Errorf("session: open output: %w", err)
	}
	sess, err := c.provider.Connect(sessCtx, sessCfg)
	if err != nil {
		_ = in.Close()
		_ = out.Close()
		c.abortStart(cancel)
		return fmt.Errorf("session: connect: %w", err)
	}

	c.mu.Lock()
	if c.state != StateConnecting {
		// Stopped while the dial was in flight; unwind everything.
		c.mu.Unlock()
		cancel()
		_ = sess.Close()
		_ = in.Close()
		_ = out.Close()
		return fmt.Errorf("session: connect: %w", context.Canceled)
	}
	sched := NewScheduler(out, c.metrics)
	capture := StartCapture(sessCtx, CaptureConfig{
		Input:         in,
		Session:       sess,
		QueueCapacity: c.queueCap,
		Logger:        c.logger,
		Metrics:       c.metrics,
	})
	c.sess = sess
	c.in = in
	c.out = out
	c.sched = sched
	c.capture = capture
	c.state = StateActive
	c.mu.Unlock()

	c.metrics.ConnectDuration.Record(ctx, time.Since(began).Seconds())
	c.metrics.ActiveSessions.Add(ctx, 1)
	c.logger.Info("live session active", "voice", sessCfg.Voice)

	go c.eventLoop(sessCtx, sess, sched)
	return nil
}

// abortStart unwinds a failed Start: it cancels the dial context and, unless
// Stop intervened first, returns the controller to [StateIdle].
func (c *Controller) abortStart(cancel context.CancelFunc) {
	cancel()
	c.mu.Lock()
	if c.state == StateConnecting {
		c.state = StateIdle
	}
	c.cancelDial = nil
	c.mu.Unlock()
}

// Stop ends the current session and returns the controller to [StateIdle].
// Calling Stop when no session is connecting or active is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	switch c.state {
	case StateConnecting:
		// Cancel the in-flight dial; Start unwinds the devices.
		if c.cancelDial != nil {
			c.cancelDial()
		}
		c.state = StateIdle
		c.mu.Unlock()
	case StateActive:
		sess := c.sess
		c.mu.Unlock()
		c.teardown(context.Background(), sess, StateIdle)
	default:
		c.mu.Unlock()
	}
}

// SetSession replaces the provider session configuration used by subsequent
// Start calls. A session that is already connecting or active is unaffected.
func (c *Controller) SetSession(cfg live.SessionConfig) {
	c.mu.Lock()
	c.sessCfg = cfg
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns the conversation transcript accumulated for the most
// recent session, merged into contiguous per-speaker fragments. The returned
// slice is a copy.
func (c *Controller) Transcript() []live.TranscriptFragment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]live.TranscriptFragment, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// eventLoop applies server events strictly in arrival order. When a single
// event carries several effects they are applied transcript first, then
// audio, then interruption.
func (c *Controller) eventLoop(ctx context.Context, sess live.SessionHandle, sched *Scheduler) {
	for ev := range sess.Events() {
		if ev.Transcript != nil {
			c.appendTranscript(*ev.Transcript)
		}
		if ev.Audio != nil {
			raw, err := audio.DecodeTransportText(ev.Audio.Data)
			if err == nil {
				err = sched.Schedule(ctx, raw)
			}
			if err != nil {
				c.logger.Warn("discarding undecodable audio segment", "error", err)
				c.metrics.SegmentsMalformed.Add(ctx, 1)
			}
		}
		if ev.Interrupted {
			sched.Interrupt(ctx)
		}
	}

	// Channel closed: the server ended the session or the transport failed.
	if err := sess.Err(); err != nil {
		c.logger.Error("live session failed", "error", err)
	} else {
		c.logger.Info("live session closed by server")
	}
	c.teardown(ctx, sess, StateClosed)
}

// teardown releases all resources of the given session and moves the
// controller to next. It is a no-op when sess is no longer the controller's
// current session, which makes Stop and a concurrent remote close safe
// against each other.
func (c *Controller) teardown(ctx context.Context, sess live.SessionHandle, next State) {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return
	}
	in, out, capture, cancel := c.in, c.out, c.capture, c.cancelDial
	c.sess = nil
	c.in = nil
	c.out = nil
	c.capture = nil
	c.sched = nil
	c.cancelDial = nil
	c.state = next
	c.mu.Unlock()

	capture.Stop()
	// Frames may still be buffered between the stopped capture and the device;
	// drain them so the device loop is never left mid-handoff.
	go audio.Drain(in.Blocks())
	if err := sess.Close(); err != nil {
		c.logger.Debug("closing live session", "error", err)
	}
	if err := in.Close(); err != nil {
		c.logger.Debug("closing input stream", "error", err)
	}
	if err := out.Close(); err != nil {
		c.logger.Debug("closing output stream", "error", err)
	}
	if cancel != nil {
		cancel()
	}
	c.metrics.ActiveSessions.Add(ctx, -1)
	c.logger.Info("live session torn down", "state", next.String())
}

// appendTranscript merges a fragment into the transcript, extending the last
// entry when the speaker is unchanged. Live transcription arrives as
// incremental chunks, so same-speaker fragments belong to one utterance.
func (c *Controller) appendTranscript(f live.TranscriptFragment) {
	if f.Text == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.transcript); n > 0 && c.transcript[n-1].Role == f.Role {
		c.transcript[n-1].Text += f.Text
		return
	}
	c.transcript = append(c.transcript, f)
}
