package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrBadMessage marks a frame that arrived intact but does not decode into
// the expected message. Transport errors pass through unwrapped, so callers
// can tell a broken connection from a misbehaving peer.
var ErrBadMessage = errors.New("malformed message")

// Framer moves whole frames across one client connection.
type Framer interface {
	// ReadFrame blocks for the next frame. The returned slice is owned by
	// the caller.
	ReadFrame() ([]byte, error)
	WriteFrame(payload []byte) error
	Close() error
	RemoteAddr() string
}

// Stream is one client connection as the rest of the server sees it,
// independent of the underlying transport.
type Stream struct {
	Framer
}

func NewStream(f Framer) *Stream {
	return &Stream{Framer: f}
}

// Send marshals object and writes it as a single frame.
func Send[T any](s *Stream, object T) error {
	payload, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	return s.WriteFrame(payload)
}

// Receive blocks for one frame and decodes it into T.
func Receive[T any](s *Stream) (T, error) {
	var message T

	frame, err := s.ReadFrame()
	if err != nil {
		return message, err
	}

	return Decode[T](frame)
}

// Decode unmarshals a single frame into T. Failures wrap ErrBadMessage.
func Decode[T any](frame []byte) (T, error) {
	var message T

	if err := json.Unmarshal(frame, &message); err != nil {
		return message, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}

	return message, nil
}
