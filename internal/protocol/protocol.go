// Package protocol implements the kvz wire codec: multipart request and
// reply frames for the PUT and GET operations, independent of transport
// and storage.
//
// Requests:
//
//	PUT: ["PUT", key(utf8), ts(8B BE u64), payload]
//	GET: ["GET", key(utf8)]
//
// Replies (first frame is always a status tag):
//
//	PUT -> ["OK"] | ["STALE"] | ["ERR", msg?]
//	GET -> ["OK", ts(8B BE u64), payload] | ["MISS"] | ["ERR", msg?]
package protocol

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// Request tags.
const (
	TagPut = "PUT"
	TagGet = "GET"
)

// Reply status tags.
const (
	StatusOK    = "OK"
	StatusStale = "STALE"
	StatusMiss  = "MISS"
	StatusErr   = "ERR"
)

// TimestampLen is the exact wire size of a timestamp frame.
const TimestampLen = 8

// PutOutcome is the server's verdict on a PUT. Stale is a normal outcome,
// not an error: it means an existing record already carries a timestamp
// greater than or equal to the submitted one.
type PutOutcome int

const (
	PutAccepted PutOutcome = iota
	PutStale
)

func (o PutOutcome) String() string {
	switch o {
	case PutAccepted:
		return "accepted"
	case PutStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Record is a stored value as observed through the protocol: the payload
// bytes and the logical timestamp of the write that produced them.
type Record struct {
	Timestamp uint64
	Payload   []byte
}

// EncodeTimestamp encodes ts as 8 bytes, big-endian, unsigned.
func EncodeTimestamp(ts uint64) []byte {
	buf := make([]byte, TimestampLen)
	binary.BigEndian.PutUint64(buf, ts)
	return buf
}

// DecodeTimestamp decodes an 8-byte big-endian timestamp frame.
func DecodeTimestamp(frame []byte) (uint64, error) {
	if len(frame) != TimestampLen {
		return 0, &Error{Reason: "timestamp frame must be 8 bytes"}
	}
	return binary.BigEndian.Uint64(frame), nil
}

// StatusTag decodes a status frame leniently: invalid UTF-8 sequences are
// replaced with U+FFFD rather than failing. This is a documented contract;
// a malformed server reply still yields a comparable tag string.
func StatusTag(frame []byte) string {
	return strings.ToValidUTF8(string(frame), string(utf8.RuneError))
}
