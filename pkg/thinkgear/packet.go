// Package thinkgear reassembles and decodes ThinkGear-framed sensor packets
// from a raw notification byte stream.
//
// Wire format (multi-byte fields big-endian):
//
//	0xAA 0xAA <LEN:u8> <PAYLOAD:LEN bytes> <CHECKSUM:u8>
//
// with CHECKSUM = 0xFF - (sum(PAYLOAD) & 0xFF).
package thinkgear

import "fmt"

// Sync is the frame marker byte; two consecutive Sync bytes start a packet.
const Sync = 0xAA

// Payload value codes.
const (
	CodePoorSignal = 0x02
	CodeAttention  = 0x04
	CodeMeditation = 0x05
	CodeRawEEG     = 0x80
	CodeBandPower  = 0x83

	rawValueLen  = 0x02
	bandValueLen = 0x18
)

// Packet is one framed unit sliced out of the stream. It carries the raw
// payload and the checksum byte as received; semantic validation happens in
// Decode.
type Packet struct {
	Payload  []byte
	Checksum uint8
}

// checksum computes the ThinkGear payload checksum.
func checksum(payload []byte) uint8 {
	var sum int
	for _, b := range payload {
		sum += int(b)
	}
	return uint8(0xFF - (sum & 0xFF))
}

// ChecksumValid reports whether the received checksum matches the payload.
func (p Packet) ChecksumValid() bool {
	return checksum(p.Payload) == p.Checksum
}

// Marshal serializes the packet into its wire representation with a freshly
// computed checksum. Payloads longer than 255 bytes cannot be framed.
func Marshal(payload []byte) ([]byte, error) {
	if len(payload) > 0xFF {
		return nil, fmt.Errorf("payload too long: %d bytes", len(payload))
	}
	out := make([]byte, 0, 4+len(payload))
	out = append(out, Sync, Sync, byte(len(payload)))
	out = append(out, payload...)
	out = append(out, checksum(payload))
	return out, nil
}
