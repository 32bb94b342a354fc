package protocol

import "fmt"

// DecodePutReply maps PUT reply frames to an outcome. OK and STALE
// tolerate trailing frames; only the status tag is significant for a PUT.
func DecodePutReply(frames [][]byte) (PutOutcome, error) {
	if len(frames) == 0 {
		return 0, ErrEmptyReply
	}
	switch tag := StatusTag(frames[0]); tag {
	case StatusOK:
		return PutAccepted, nil
	case StatusStale:
		return PutStale, nil
	case StatusErr:
		return 0, &RemoteError{Message: errMessage(frames)}
	default:
		return 0, &Error{Reason: fmt.Sprintf("unexpected PUT reply tag %q", tag)}
	}
}

// DecodeGetReply maps GET reply frames to a record. The boolean reports
// whether a record was found; MISS yields (Record{}, false, nil).
//
// A well-formed OK has exactly 3 frames with an 8-byte timestamp; any
// other OK shape is a protocol violation, never downgraded to a miss.
func DecodeGetReply(frames [][]byte) (Record, bool, error) {
	if len(frames) == 0 {
		return Record{}, false, ErrEmptyReply
	}
	switch tag := StatusTag(frames[0]); tag {
	case StatusMiss:
		return Record{}, false, nil
	case StatusOK:
		if len(frames) != 3 {
			return Record{}, false, &Error{
				Reason: fmt.Sprintf("GET OK reply has %d frames, want 3", len(frames)),
			}
		}
		ts, err := DecodeTimestamp(frames[1])
		if err != nil {
			return Record{}, false, err
		}
		return Record{Timestamp: ts, Payload: frames[2]}, true, nil
	case StatusErr:
		return Record{}, false, &RemoteError{Message: errMessage(frames)}
	default:
		return Record{}, false, &Error{Reason: fmt.Sprintf("unexpected GET reply tag %q", tag)}
	}
}

// errMessage extracts the optional ERR diagnostic frame. An ERR with no
// message frame is valid and yields the empty string.
func errMessage(frames [][]byte) string {
	if len(frames) < 2 {
		return ""
	}
	return StatusTag(frames[1])
}
