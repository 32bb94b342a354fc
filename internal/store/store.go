// Package store implements the in-memory last-write-wins key/value store:
// sharded maps guarded by per-shard RW locks.
package store

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Value is one stored record.
type Value struct {
	Timestamp uint64
	Payload   []byte
}

type shard struct {
	mu sync.RWMutex
	m  map[string]Value
}

// Store shards keys across independent maps by key hash. Records are never
// deleted; a record is superseded only by a write with a strictly greater
// timestamp.
type Store struct {
	shards []shard
	mask   uint64
	pow2   bool
}

// New builds a store with n shards. Power-of-two counts select shards by
// mask, anything else by modulo. n < 1 is clamped to 1.
func New(n int) *Store {
	if n < 1 {
		n = 1
	}
	s := &Store{
		shards: make([]shard, n),
		pow2:   n&(n-1) == 0,
		mask:   uint64(n - 1),
	}
	for i := range s.shards {
		s.shards[i].m = make(map[string]Value)
	}
	return s
}

func (s *Store) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	if s.pow2 {
		return &s.shards[h&s.mask]
	}
	return &s.shards[h%uint64(len(s.shards))]
}

// Put applies last-write-wins: the record is stored iff no record exists
// for key or the stored timestamp is strictly less than ts. It reports
// whether the write was accepted; a rejected write leaves state unchanged.
func (s *Store) Put(key string, ts uint64, payload []byte) bool {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if cur, ok := sh.m[key]; ok && cur.Timestamp >= ts {
		return false
	}
	sh.m[key] = Value{Timestamp: ts, Payload: payload}
	return true
}

// Get returns the current record for key, if any.
func (s *Store) Get(key string) (Value, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok
}

// Len counts records across all shards.
func (s *Store) Len() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}
