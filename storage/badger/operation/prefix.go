package operation

import "encoding/binary"

const (
	// codeRound -> round records, keyed by round id
	codeRound = 10

	// codeEntry -> entry arena, keyed by (round id, insertion index)
	codeEntry = 11
)

// makePrefix builds a key from a code byte followed by the big-endian
// encoding of each segment, so lexicographic key order matches numeric order.
func makePrefix(code byte, segments ...uint64) []byte {
	key := make([]byte, 1+8*len(segments))
	key[0] = code
	for i, segment := range segments {
		binary.BigEndian.PutUint64(key[1+i*8:], segment)
	}
	return key
}
