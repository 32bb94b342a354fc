// Package server implements the kvz store server: a last-write-wins
// key/value map behind the PUT/GET wire protocol, served either from a
// single REP socket or from a ROUTER frontend fanned out to a worker pool.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog"

	"github.com/kvz-io/kvz/internal/store"
)

// Config holds the serving parameters.
type Config struct {
	// Bind is the listen endpoint, e.g. "tcp://0.0.0.0:5555".
	Bind string
	// Workers selects the serving mode: 1 runs the plain REP loop,
	// anything greater runs the ROUTER frontend with that many workers.
	Workers int
	// Shards is the store shard count.
	Shards int
}

// Server owns the store and the serving socket.
type Server struct {
	cfg   Config
	store *store.Store
	log   zerolog.Logger

	readyOnce sync.Once
	ready     chan struct{}
	addr      net.Addr
}

func New(cfg Config, logger zerolog.Logger) *Server {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Server{
		cfg:   cfg,
		store: store.New(cfg.Shards),
		log:   logger,
		ready: make(chan struct{}),
	}
}

// Run serves until ctx is cancelled. Cancellation is the shutdown path:
// it closes the socket and Run returns nil.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.Workers > 1 {
		return s.serveRouter(ctx)
	}
	return s.serveRep(ctx)
}

// Endpoint blocks until the listen socket is bound and returns its
// endpoint. Useful when binding to port 0.
func (s *Server) Endpoint() string {
	<-s.ready
	if s.addr == nil {
		return s.cfg.Bind
	}
	return "tcp://" + s.addr.String()
}

func (s *Server) markReady(addr net.Addr) {
	s.readyOnce.Do(func() {
		s.addr = addr
		close(s.ready)
	})
}

// serveRep is the single-threaded mode: strict recv/send alternation on
// one REP socket, one request at a time.
func (s *Server) serveRep(ctx context.Context) error {
	sock := zmq4.NewRep(ctx)
	defer sock.Close()

	if err := sock.Listen(s.cfg.Bind); err != nil {
		s.markReady(nil)
		return fmt.Errorf("bind %s: %w", s.cfg.Bind, err)
	}
	s.markReady(sock.Addr())
	s.log.Info().Str("bind", s.Endpoint()).Int("shards", s.cfg.Shards).Msg("kvz server listening")

	for {
		msg, err := sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("recv: %w", err)
		}
		if err := sock.Send(zmq4.NewMsgFrom(s.handle(msg.Frames)...)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("send: %w", err)
		}
	}
}
