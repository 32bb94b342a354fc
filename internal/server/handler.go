package server

import (
	"time"
	"unicode/utf8"

	"github.com/kvz-io/kvz/internal/observability"
	"github.com/kvz-io/kvz/internal/protocol"
)

// handle evaluates one request's frames into reply frames. It is pure with
// respect to the transport: both serving modes feed it the body frames of
// a multipart message and send back whatever it returns.
//
// The server is the sole arbiter of acceptance. Malformed requests get an
// ERR reply with a diagnostic; they never tear down the serving loop.
func (s *Server) handle(frames [][]byte) [][]byte {
	start := time.Now()
	op := "unknown"
	var rep [][]byte

	switch {
	case len(frames) == 0:
		rep = errReply("empty message")
	case string(frames[0]) == protocol.TagPut:
		op = protocol.TagPut
		rep = s.handlePut(frames)
	case string(frames[0]) == protocol.TagGet:
		op = protocol.TagGet
		rep = s.handleGet(frames)
	default:
		rep = errReply("unknown command")
	}

	observability.RecordRequest(op, protocol.StatusTag(rep[0]), time.Since(start))
	return rep
}

func (s *Server) handlePut(frames [][]byte) [][]byte {
	if len(frames) != 4 {
		return errReply("PUT expects 4 frames")
	}
	if !utf8.Valid(frames[1]) {
		return errReply("key not utf-8")
	}
	key := string(frames[1])
	ts, err := protocol.DecodeTimestamp(frames[2])
	if err != nil {
		return errReply("timestamp must be 8 bytes (u64 BE)")
	}
	if !s.store.Put(key, ts, frames[3]) {
		return [][]byte{[]byte(protocol.StatusStale)}
	}
	return [][]byte{[]byte(protocol.StatusOK)}
}

func (s *Server) handleGet(frames [][]byte) [][]byte {
	if len(frames) != 2 {
		return errReply("GET expects 2 frames")
	}
	if !utf8.Valid(frames[1]) {
		return errReply("key not utf-8")
	}
	v, ok := s.store.Get(string(frames[1]))
	if !ok {
		return [][]byte{[]byte(protocol.StatusMiss)}
	}
	return [][]byte{
		[]byte(protocol.StatusOK),
		protocol.EncodeTimestamp(v.Timestamp),
		v.Payload,
	}
}

func errReply(msg string) [][]byte {
	return [][]byte{[]byte(protocol.StatusErr), []byte(msg)}
}
