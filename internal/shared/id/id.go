// Package id provides centralized ID generation for the desktop backend.
//
// Every identifier handed out by the service is a prefixed ULID:
//   - win_*  windows opened by a window manager
//   - sess_* desktop sessions (one per browser tab)
//   - req_*  HTTP requests, used by the access log middleware
//   - msg_*  chat messages
//   - evt_*  calendar events
//   - trace_*, span_* request traces and their spans
//
// ULIDs are k-sortable, so ids issued later compare greater, which keeps
// window listings and logs readable without carrying extra timestamps.
package id

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WindowID identifies an open window within a desktop session
type WindowID string

// SessionID identifies a desktop session
type SessionID string

// RequestID identifies an API request
type RequestID string

// MessageID identifies a chat message
type MessageID string

// EventID identifies a calendar event
type EventID string

const (
	WindowPrefix  = "win"
	SessionPrefix = "sess"
	RequestPrefix = "req"
	MessagePrefix = "msg"
	EventPrefix   = "evt"
	TracePrefix   = "trace"
	SpanPrefix    = "span"
)

// ErrMalformed is returned when a prefixed id cannot be parsed
var ErrMalformed = errors.New("malformed id")

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a ULID generator backed by crypto/rand. Entropy is
// monotonic so ids from one generator sort in issue order even within the
// same millisecond.
func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it with a deterministic reader.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWindowID generates a new window ID
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewMessageID generates a new chat message ID
func NewMessageID() MessageID {
	return MessageID(Default().GenerateWithPrefix(MessagePrefix))
}

// NewEventID generates a new calendar event ID
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

func (id WindowID) String() string  { return string(id) }
func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id MessageID) String() string { return string(id) }
func (id EventID) String() string   { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}

// CheckPrefixed verifies that s has the form prefix_ULID.
func CheckPrefixed(s, prefix string) error {
	head, tail, ok := strings.Cut(s, "_")
	if !ok || head != prefix {
		return fmt.Errorf("%w: %q does not start with %s_", ErrMalformed, s, prefix)
	}
	if !IsValid(tail) {
		return fmt.Errorf("%w: %q has an invalid ULID part", ErrMalformed, s)
	}
	return nil
}

// ParseWindowID validates a window id received from a client
func ParseWindowID(s string) (WindowID, error) {
	if err := CheckPrefixed(s, WindowPrefix); err != nil {
		return "", err
	}
	return WindowID(s), nil
}

// ParseSessionID validates a session id received from a client
func ParseSessionID(s string) (SessionID, error) {
	if err := CheckPrefixed(s, SessionPrefix); err != nil {
		return "", err
	}
	return SessionID(s), nil
}
