// Package live defines the Provider interface for real-time conversational
// voice backends.
//
// A live provider wraps a voice AI service that accepts raw audio input and
// returns synthesised audio output in a single, stateful session — the user
// speaks to the model and the model speaks back, with transcripts delivered
// alongside the audio. The reference implementation is the Gemini Live API
// (package live/gemini).
//
// The central abstraction is SessionHandle: a bidirectional session carrying
// outbound audio payloads and an ordered inbound event stream. Inbound events
// are a tagged union — a single event may carry a transcript fragment, an
// audio payload, an interruption signal, or any subset of the three — and are
// delivered strictly in arrival order, because playback scheduling depends on
// it and an interruption must take effect before any later audio.
//
// All implementations must be safe for concurrent use.
package live

import (
	"context"
	"errors"
)

// ErrSessionClosed is returned by [SessionHandle.SendAudio] when the session
// has already been closed.
var ErrSessionClosed = errors.New("live: session closed")

// PCMMimeType is the MIME-type-like tag for 16 kHz mono PCM capture payloads.
const PCMMimeType = "audio/pcm;rate=16000"

// MediaPayload is a text-safe encoding of a binary audio buffer plus a tag
// identifying sample rate and channel layout. Used for both outbound
// (capture → remote) and inbound (remote → playback) audio. The Data field
// holds transport text as produced by audio.EncodeTransportText.
type MediaPayload struct {
	// Data is the transport-text-encoded audio bytes.
	Data string

	// MIMEType identifies the payload format, e.g. "audio/pcm;rate=16000".
	MIMEType string
}

// TranscriptRole identifies which side of the conversation a transcript
// fragment belongs to.
type TranscriptRole string

const (
	// RoleUser marks recognised user speech.
	RoleUser TranscriptRole = "user"

	// RoleModel marks the text form of the model's spoken output.
	RoleModel TranscriptRole = "model"
)

// TranscriptFragment is one piece of transcription text emitted mid-session.
type TranscriptFragment struct {
	Role TranscriptRole
	Text string
}

// ServerEvent is one inbound message from the remote model. The three effect
// fields are independent and each is optional: a single event may carry any
// subset of them. Consumers must process events one at a time, in the order
// they arrive on the Events channel.
type ServerEvent struct {
	// Transcript, when non-nil, carries a transcript fragment to append.
	Transcript *TranscriptFragment

	// Audio, when non-nil, carries a synthesised speech payload to schedule
	// for playback.
	Audio *MediaPayload

	// Interrupted signals that the user has spoken over the model and any
	// queued-but-unplayed model speech must be discarded immediately.
	Interrupted bool
}

// SessionConfig is the initial configuration for a new live session. The
// response modality is always audio and output transcription is always
// requested; those are fixed properties of the pipeline, not options.
type SessionConfig struct {
	// Instructions is the system-level persona prompt for the session
	// (e.g. the Surya astrologer persona).
	Instructions string

	// Voice is the provider's voice identifier for synthesised speech
	// (e.g. "Kore").
	Voice string
}

// SessionHandle represents one open bidirectional session. It is an interface
// so that test code can supply fake implementations without a live connection.
//
// Callers must call Close when the session is no longer needed.
type SessionHandle interface {
	// SendAudio delivers one encoded capture payload to the model.
	// Fire-and-forget: no acknowledgment is expected. Returns an error if the
	// session is closed or the transport write fails.
	SendAudio(p MediaPayload) error

	// Events returns a read-only channel emitting inbound [ServerEvent]
	// values strictly in arrival order. The channel is closed when the
	// session ends, whether cleanly or on error. After it closes, call
	// [SessionHandle.Err] to check whether the session ended cleanly.
	// Consumers must drain this channel promptly.
	Events() <-chan ServerEvent

	// Err returns the error that terminated the session, or nil if it ended
	// cleanly. Valid after the Events channel has closed.
	Err() error

	// Close terminates the session and releases its resources, closing the
	// Events channel. Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any live conversational voice backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Connect establishes a new live session with the given configuration.
	// The returned SessionHandle is ready to accept audio immediately.
	//
	// Returns an error if the session cannot be established (authentication
	// failure, invalid voice, ctx already cancelled, …). The caller owns the
	// SessionHandle and is responsible for calling Close.
	Connect(ctx context.Context, cfg SessionConfig) (SessionHandle, error)
}
