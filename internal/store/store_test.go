package store

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestAscendingTimestampsWin(t *testing.T) {
	s := New(4)
	if !s.Put("k", 1, []byte("first")) {
		t.Fatal("first write must be accepted")
	}
	if !s.Put("k", 2, []byte("second")) {
		t.Fatal("newer write must be accepted")
	}
	v, ok := s.Get("k")
	if !ok {
		t.Fatal("expected record")
	}
	if v.Timestamp != 2 || string(v.Payload) != "second" {
		t.Fatalf("got (%d, %q), want (2, second)", v.Timestamp, v.Payload)
	}
}

func TestStaleWriteDoesNotMutate(t *testing.T) {
	s := New(4)
	if !s.Put("k", 1000, []byte("hello")) {
		t.Fatal("first write must be accepted")
	}
	if s.Put("k", 500, []byte("old")) {
		t.Fatal("older timestamp must be rejected")
	}
	v, ok := s.Get("k")
	if !ok || v.Timestamp != 1000 || string(v.Payload) != "hello" {
		t.Fatalf("stale write mutated state: (%d, %q)", v.Timestamp, v.Payload)
	}
}

func TestEqualTimestampIsStale(t *testing.T) {
	s := New(1)
	s.Put("k", 7, []byte("a"))
	if s.Put("k", 7, []byte("b")) {
		t.Fatal("equal timestamp must be rejected")
	}
	v, _ := s.Get("k")
	if string(v.Payload) != "a" {
		t.Fatalf("payload = %q, want a", v.Payload)
	}
}

func TestMissOnUnknownKey(t *testing.T) {
	s := New(8)
	if _, ok := s.Get("never-written"); ok {
		t.Fatal("expected miss")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	s := New(16)

	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	cases := [][]byte{{}, {0}, all, []byte("hello")}

	for i, payload := range cases {
		key := fmt.Sprintf("key-%d", i)
		if !s.Put(key, 1, payload) {
			t.Fatalf("put %s rejected", key)
		}
		v, ok := s.Get(key)
		if !ok {
			t.Fatalf("get %s missed", key)
		}
		if !bytes.Equal(v.Payload, payload) {
			t.Fatalf("payload %d not byte-identical", i)
		}
	}
}

// Shard counts that are not powers of two fall back to modulo selection.
func TestNonPowerOfTwoShards(t *testing.T) {
	for _, n := range []int{1, 3, 7, 64, 100} {
		s := New(n)
		for i := 0; i < 200; i++ {
			key := fmt.Sprintf("key-%d", i)
			if !s.Put(key, 1, []byte("v")) {
				t.Fatalf("shards=%d: put %s rejected", n, key)
			}
		}
		if s.Len() != 200 {
			t.Fatalf("shards=%d: len = %d, want 200", n, s.Len())
		}
	}
}

func TestConcurrentWriters(t *testing.T) {
	s := New(8)
	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := fmt.Sprintf("key-%d", i%16)
				ts := uint64(w*1_000_000 + i)
				s.Put(key, ts, []byte(fmt.Sprintf("w%d-%d", w, i)))
			}
		}(w)
	}
	wg.Wait()

	// Every surviving record must carry the highest timestamp written for
	// its key: the last writer's final pass.
	for i := 0; i < 16; i++ {
		v, ok := s.Get(fmt.Sprintf("key-%d", i))
		if !ok {
			t.Fatalf("key-%d missing", i)
		}
		maxI := ((perWriter-1-i)/16)*16 + i
		wantTS := uint64((writers-1)*1_000_000 + maxI)
		if v.Timestamp != wantTS {
			t.Fatalf("key-%d ts = %d, want %d", i, v.Timestamp, wantTS)
		}
	}
}
