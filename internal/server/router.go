package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
)

// serveRouter is the scaled mode: a ROUTER socket accepts requests from
// many REQ clients, worker goroutines evaluate them, and a single writer
// goroutine sends replies. Channels take the place of the classic
// ROUTER/DEALER inproc proxy; the routing envelope is carried through
// untouched so replies reach the peer that asked.
func (s *Server) serveRouter(ctx context.Context) error {
	sock := zmq4.NewRouter(ctx)
	defer sock.Close()

	if err := sock.Listen(s.cfg.Bind); err != nil {
		s.markReady(nil)
		return fmt.Errorf("bind %s: %w", s.cfg.Bind, err)
	}
	s.markReady(sock.Addr())
	s.log.Info().
		Str("bind", s.Endpoint()).
		Int("workers", s.cfg.Workers).
		Int("shards", s.cfg.Shards).
		Msg("kvz router listening")

	jobs := make(chan [][]byte, s.cfg.Workers)
	replies := make(chan zmq4.Msg, s.cfg.Workers)

	var workers sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for frames := range jobs {
				env, body := splitEnvelope(frames)
				rep := s.handle(body)
				out := make([][]byte, 0, len(env)+len(rep))
				out = append(out, env...)
				out = append(out, rep...)
				replies <- zmq4.NewMsgFrom(out...)
			}
		}()
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range replies {
			if err := sock.Send(msg); err != nil {
				s.log.Debug().Err(err).Msg("router reply dropped")
			}
		}
	}()

	var recvErr error
	for {
		msg, err := sock.Recv()
		if err != nil {
			recvErr = err
			break
		}
		jobs <- msg.Frames
	}

	close(jobs)
	workers.Wait()
	close(replies)
	<-writerDone

	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("recv: %w", recvErr)
}

// splitEnvelope separates the ROUTER routing envelope from the request
// body: the peer identity frame plus, for REQ peers, the empty delimiter
// frame that follows it.
func splitEnvelope(frames [][]byte) (env, body [][]byte) {
	if len(frames) == 0 {
		return nil, nil
	}
	if len(frames) >= 2 && len(frames[1]) == 0 {
		return frames[:2], frames[2:]
	}
	return frames[:1], frames[1:]
}
