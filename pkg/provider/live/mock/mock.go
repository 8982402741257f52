// Package mock provides in-memory fake implementations of the
// [live.Provider] and [live.SessionHandle] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. The [SessionHandle] fake lets tests
// emit inbound server events and inspect every payload sent through the
// session.
package mock

import (
	"context"
	"sync"

	"github.com/suryalive/suryalive/pkg/provider/live"
)

// ─── Provider ─────────────────────────────────────────────────────────────────

// Provider is a fake implementation of [live.Provider].
// Set the exported Result/Error fields before use; inspect the Call* fields after.
type Provider struct {
	mu sync.Mutex

	// ConnectResult is returned by [Provider.Connect] when ConnectError is nil.
	ConnectResult *SessionHandle

	// ConnectError, when non-nil, is returned by [Provider.Connect].
	ConnectError error

	// ConnectDelay, when non-nil, is closed by the test to release a Connect
	// call blocked in flight. Leave nil for immediate returns.
	ConnectDelay chan struct{}

	// CallCountConnect records how many times Connect was called.
	CallCountConnect int

	// RecordedConfigs holds the SessionConfig of each Connect call, in order.
	RecordedConfigs []live.SessionConfig
}

var _ live.Provider = (*Provider)(nil)

// Connect records cfg and returns ConnectResult or ConnectError. If
// ConnectDelay is set, Connect blocks until it is closed or ctx is cancelled.
func (p *Provider) Connect(ctx context.Context, cfg live.SessionConfig) (live.SessionHandle, error) {
	p.mu.Lock()
	p.CallCountConnect++
	p.RecordedConfigs = append(p.RecordedConfigs, cfg)
	delay := p.ConnectDelay
	res, err := p.ConnectResult, p.ConnectError
	p.mu.Unlock()

	if delay != nil {
		select {
		case <-delay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ─── SessionHandle ────────────────────────────────────────────────────────────

// SessionHandle is a fake implementation of [live.SessionHandle]. Tests push
// inbound events with [SessionHandle.Emit] and end the session with
// [SessionHandle.Close] or [SessionHandle.Fail].
type SessionHandle struct {
	mu     sync.Mutex
	events chan live.ServerEvent
	errVal error
	closed bool

	// SendAudioError, when non-nil, is returned by every SendAudio call.
	SendAudioError error

	// Sent holds every payload passed to SendAudio, in order.
	Sent []live.MediaPayload

	// CallCountClose records how many times Close was called.
	CallCountClose int
}

var _ live.SessionHandle = (*SessionHandle)(nil)

// NewSessionHandle creates a SessionHandle whose event channel has the given buffer.
func NewSessionHandle(buffer int) *SessionHandle {
	return &SessionHandle{events: make(chan live.ServerEvent, buffer)}
}

// Emit delivers one inbound event to the consumer. Returns false if the
// session has been closed.
func (h *SessionHandle) Emit(ev live.ServerEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.events <- ev
	return true
}

// Fail terminates the session with the given error, closing the events channel.
func (h *SessionHandle) Fail(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.errVal = err
	close(h.events)
}

// SendAudio records p and returns SendAudioError.
func (h *SessionHandle) SendAudio(p live.MediaPayload) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return live.ErrSessionClosed
	}
	if h.SendAudioError != nil {
		return h.SendAudioError
	}
	h.Sent = append(h.Sent, p)
	return nil
}

// SentPayloads returns a snapshot of all payloads passed to SendAudio.
func (h *SessionHandle) SentPayloads() []live.MediaPayload {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]live.MediaPayload, len(h.Sent))
	copy(out, h.Sent)
	return out
}

// Events returns the inbound event channel.
func (h *SessionHandle) Events() <-chan live.ServerEvent { return h.events }

// Err returns the error set by [SessionHandle.Fail], if any.
func (h *SessionHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errVal
}

// Close closes the events channel. Idempotent.
func (h *SessionHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CallCountClose++
	if !h.closed {
		h.closed = true
		close(h.events)
	}
	return nil
}

// Closed reports whether the session has been closed or failed.
func (h *SessionHandle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
