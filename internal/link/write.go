// write.go - Remotizer line encoders

package link

import "fmt"

func line(t byte, v byte) []byte {
	return []byte(fmt.Sprintf("%c:%02X\n", t, v))
}

// EncodeData encodes a D: line (data byte, current ATN).
func EncodeData(b byte) []byte { return line('D', b) }

// EncodeEOIData encodes an E: line (data byte with EOI asserted).
func EncodeEOIData(b byte) []byte { return line('E', b) }

// EncodeReset encodes an R: line asserting the given signal bits.
func EncodeReset(s Signal) []byte { return line('R', byte(s)) }

// EncodeSet encodes an S: line de-asserting the given signal bits.
func EncodeSet(s Signal) []byte { return line('S', byte(s)) }

// EncodePPMask encodes a P: line carrying this device's parallel-poll
// contribution.
func EncodePPMask(mask byte) []byte { return line('P', mask) }

// EncodePPRequest encodes a Q: line (peer-only outbound in practice, kept
// for symmetry with the inbound parser).
func EncodePPRequest() []byte { return line('Q', 0) }

// EncodePing encodes a J: keep-alive ping.
func EncodePing() []byte { return line('J', 0) }

// EncodePong encodes a K: keep-alive reply.
func EncodePong() []byte { return line('K', 0) }

// EncodeCheckpoint encodes an X: checkpoint request.
func EncodeCheckpoint() []byte { return line('X', 0) }

// EncodeCheckpointReached encodes a Y: checkpoint-reached line; payload 1
// means the transfer was flushed, 0 means normal continuation.
func EncodeCheckpointReached(flushed bool) []byte {
	if flushed {
		return line('Y', 1)
	}
	return line('Y', 0)
}
