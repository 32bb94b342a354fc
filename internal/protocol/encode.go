package protocol

// EncodePut builds the four request frames for a PUT.
func EncodePut(key string, ts uint64, payload []byte) [][]byte {
	return [][]byte{
		[]byte(TagPut),
		[]byte(key),
		EncodeTimestamp(ts),
		payload,
	}
}

// EncodeGet builds the two request frames for a GET.
func EncodeGet(key string) [][]byte {
	return [][]byte{
		[]byte(TagGet),
		[]byte(key),
	}
}
