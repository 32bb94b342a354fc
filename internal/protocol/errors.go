package protocol

import (
	"errors"
	"fmt"
)

// ErrEmptyReply marks a reply with zero frames. This is a transport-level
// fault, not a protocol violation; the client layer wraps it accordingly.
var ErrEmptyReply = errors.New("protocol: empty reply")

// Error is a protocol violation: an unrecognized status tag or a frame set
// whose count or shape does not match the tag's contract. It indicates a
// codec or version mismatch and must never be coerced into a normal
// outcome such as Miss.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol: %s", e.Reason)
}

// RemoteError is an explicit server-side failure: the server replied ERR.
// Message carries the optional diagnostic frame verbatim; it is empty when
// the server sent no message frame.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "remote: server error"
	}
	return fmt.Sprintf("remote: %s", e.Message)
}
