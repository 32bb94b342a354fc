package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/kvz-io/kvz/internal/protocol"
	"github.com/kvz-io/kvz/internal/testutil/testlog"
)

// scriptedServer binds a REP socket and answers each request with the next
// canned reply, letting tests exercise decode paths the real server never
// produces.
func scriptedServer(t *testing.T, replies ...[][]byte) string {
	t.Helper()

	sock := zmq4.NewRep(context.Background())
	t.Cleanup(func() { sock.Close() })
	if err := sock.Listen("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("listen: %v", err)
	}

	go func() {
		for _, rep := range replies {
			if _, err := sock.Recv(); err != nil {
				return
			}
			if err := sock.Send(zmq4.NewMsgFrom(rep...)); err != nil {
				return
			}
		}
	}()

	return "tcp://" + sock.Addr().String()
}

func dialScripted(t *testing.T, endpoint string) *Session {
	t.Helper()
	sess, err := Dial(context.Background(), endpoint,
		Config{RequestTimeout: 10 * time.Second}, testlog.Start(t))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestPutOutcomes(t *testing.T) {
	endpoint := scriptedServer(t,
		[][]byte{[]byte("OK")},
		[][]byte{[]byte("STALE")},
	)
	sess := dialScripted(t, endpoint)

	out, err := sess.Put("k", 2, []byte("v"))
	if err != nil || out != protocol.PutAccepted {
		t.Fatalf("put -> (%v, %v), want Accepted", out, err)
	}
	out, err = sess.Put("k", 1, []byte("v"))
	if err != nil || out != protocol.PutStale {
		t.Fatalf("put -> (%v, %v), want Stale", out, err)
	}
}

func TestGetMalformedOKIsProtocolError(t *testing.T) {
	endpoint := scriptedServer(t,
		[][]byte{[]byte("OK"), protocol.EncodeTimestamp(7)},
	)
	sess := dialScripted(t, endpoint)

	_, found, err := sess.Get("k")
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected protocol.Error, got %v", err)
	}
	if found {
		t.Fatal("malformed OK must not be reported as found")
	}
}

func TestGetUnknownTagIsProtocolError(t *testing.T) {
	endpoint := scriptedServer(t, [][]byte{[]byte("BOGUS")})
	sess := dialScripted(t, endpoint)

	_, _, err := sess.Get("k")
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected protocol.Error, got %v", err)
	}
}

func TestRemoteErrorCarriesMessage(t *testing.T) {
	endpoint := scriptedServer(t,
		[][]byte{[]byte("ERR"), []byte("store exploded")},
		[][]byte{[]byte("ERR")},
	)
	sess := dialScripted(t, endpoint)

	_, _, err := sess.Get("k")
	var remote *protocol.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "store exploded" {
		t.Fatalf("message = %q", remote.Message)
	}

	// ERR with no message frame is valid and carries an empty message.
	_, err = sess.Put("k", 1, nil)
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.Message != "" {
		t.Fatalf("message = %q, want empty", remote.Message)
	}
}

// A decode failure does not break the session: the reply was consumed and
// the REQ cycle is intact.
func TestProtocolErrorDoesNotBreakSession(t *testing.T) {
	endpoint := scriptedServer(t,
		[][]byte{[]byte("BOGUS")},
		[][]byte{[]byte("MISS")},
	)
	sess := dialScripted(t, endpoint)

	if _, _, err := sess.Get("k"); err == nil {
		t.Fatal("expected protocol error")
	}
	_, found, err := sess.Get("k")
	if err != nil || found {
		t.Fatalf("session unusable after protocol error: (found=%v, err=%v)", found, err)
	}
}

func TestBrokenSessionFailsFast(t *testing.T) {
	endpoint := scriptedServer(t)
	sess := dialScripted(t, endpoint)

	sess.broken = true
	if _, err := sess.Put("k", 1, nil); !errors.Is(err, ErrSessionBroken) {
		t.Fatalf("expected ErrSessionBroken, got %v", err)
	}
	if _, _, err := sess.Get("k"); !errors.Is(err, ErrSessionBroken) {
		t.Fatalf("expected ErrSessionBroken, got %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("close on broken session: %v", err)
	}
}
