// codec.go - SRM request/response header codec (big-endian), per spec.md §4.8

package srm

import "encoding/binary"

const headerLen = 12 // code(4) + seq(4) + status(4)

// Request is one decoded SRM transaction, with Code already restored to
// its positive table value (the wire form carries it negated).
type Request struct {
	Code int32
	Seq  uint32
	Data []byte
}

// DecodeRequest parses the bytes following the length field of one SRM
// frame.
func DecodeRequest(b []byte) (Request, bool) {
	if len(b) < headerLen {
		return Request{}, false
	}
	code := int32(binary.BigEndian.Uint32(b[0:4]))
	seq := binary.BigEndian.Uint32(b[4:8])
	return Request{Code: -code, Seq: seq, Data: b[headerLen:]}, true
}

// EncodeResponse renders a response frame (including its 4-byte length
// prefix) echoing code and seq, with the given status and payload.
func EncodeResponse(code int32, seq uint32, status int32, payload []byte) []byte {
	body := make([]byte, headerLen+len(payload))
	binary.BigEndian.PutUint32(body[0:4], uint32(code))
	binary.BigEndian.PutUint32(body[4:8], seq)
	binary.BigEndian.PutUint32(body[8:12], uint32(status))
	copy(body[headerLen:], payload)

	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

// ReadLength decodes the 4-byte big-endian length prefix.
func ReadLength(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
