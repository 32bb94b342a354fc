// Package client implements the kvz client session: one ZeroMQ REQ socket,
// one request in flight, blocking round trips.
//
// A session is not safe for concurrent use. Sessions are cheap and hold no
// state between calls; use one per goroutine, or serialize access
// externally. Interleaved sends on a shared session corrupt the
// request/reply cycle.
package client

import (
	"context"
	"fmt"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/kvz-io/kvz/internal/protocol"
)

// Session owns a single request/reply channel to one kvz endpoint.
//
// Every call performs exactly one round trip: no retries, no caching, no
// buffering across calls. If a send or receive fails, the underlying REQ
// state machine is left expecting a reply that will never be consumed, so
// the session marks itself broken and all later calls fail with
// ErrSessionBroken. Close remains valid on a broken session.
type Session struct {
	endpoint string
	sock     zmq4.Socket
	log      zerolog.Logger
	broken   bool
}

// Dial connects a new session to endpoint (e.g. "tcp://localhost:5555").
// The socket is owned by the session and released by Close; ctx bounds the
// socket's lifetime, not individual calls.
func Dial(ctx context.Context, endpoint string, cfg Config, logger zerolog.Logger) (*Session, error) {
	cfg = cfg.withDefaults()

	opts := []zmq4.Option{
		zmq4.WithDialerTimeout(cfg.DialTimeout),
		zmq4.WithDialerRetry(cfg.DialRetry),
		zmq4.WithDialerMaxRetries(cfg.DialMaxRetries),
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, zmq4.WithTimeout(cfg.RequestTimeout))
	}

	sock := zmq4.NewReq(ctx, opts...)
	if err := sock.Dial(endpoint); err != nil {
		_ = sock.Close()
		return nil, &TransportError{Op: fmt.Sprintf("dial %s", endpoint), Err: err}
	}

	return &Session{
		endpoint: endpoint,
		sock:     sock,
		log:      logger.With().Str("endpoint", endpoint).Logger(),
	}, nil
}

// Put stores payload under key with the caller-supplied timestamp and
// blocks for the server's verdict. The server retains the write only if
// its timestamp is strictly greater than the stored one; otherwise the
// outcome is PutStale and state is unchanged. The client never interprets
// timestamp ordering itself.
func (s *Session) Put(key string, ts uint64, payload []byte) (protocol.PutOutcome, error) {
	frames, err := s.roundTrip(protocol.EncodePut(key, ts, payload))
	if err != nil {
		return 0, err
	}
	out, err := protocol.DecodePutReply(frames)
	if err != nil {
		return 0, err
	}
	s.log.Debug().Str("key", key).Uint64("ts", ts).Stringer("outcome", out).Msg("put")
	return out, nil
}

// Get fetches the record stored under key. The boolean reports whether a
// record exists; a miss is a normal outcome, not an error.
func (s *Session) Get(key string) (protocol.Record, bool, error) {
	frames, err := s.roundTrip(protocol.EncodeGet(key))
	if err != nil {
		return protocol.Record{}, false, err
	}
	rec, found, err := protocol.DecodeGetReply(frames)
	if err != nil {
		return protocol.Record{}, false, err
	}
	s.log.Debug().Str("key", key).Bool("found", found).Msg("get")
	return rec, found, nil
}

// Close releases the underlying socket. Closing is the only cancellation
// mechanism at this layer; it invalidates the session.
func (s *Session) Close() error {
	return s.sock.Close()
}

func (s *Session) roundTrip(frames [][]byte) ([][]byte, error) {
	if s.broken {
		return nil, ErrSessionBroken
	}
	if err := s.sock.Send(zmq4.NewMsgFrom(frames...)); err != nil {
		s.broken = true
		return nil, &TransportError{Op: "send", Err: err}
	}
	rep, err := s.sock.Recv()
	if err != nil {
		s.broken = true
		return nil, &TransportError{Op: "recv", Err: err}
	}
	if len(rep.Frames) == 0 {
		s.broken = true
		return nil, &TransportError{Op: "recv", Err: protocol.ErrEmptyReply}
	}
	return rep.Frames, nil
}
