package client

import (
	"errors"
	"fmt"
)

// ErrSessionBroken marks a session whose request/reply cycle was
// interrupted. A REQ channel that misses a reply cannot be resynchronized;
// the session refuses further calls and must be replaced.
var ErrSessionBroken = errors.New("client: session desynchronized, open a new session")

// TransportError wraps a channel-level failure: unreachable endpoint, a
// failed send or receive, or an empty reply. It is never retried here.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
