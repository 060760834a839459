package thinkgear

// StreamDecoder reassembles packets from arbitrarily chunked stream bytes.
// It owns the partial-frame buffer: bytes belonging to an incomplete packet
// survive across Feed calls, while noise ahead of a confirmed marker pair is
// silently discarded. A StreamDecoder is not safe for concurrent use; the
// decode path is the single writer.
type StreamDecoder struct {
	buf []byte
}

// NewStreamDecoder returns a decoder with an empty accumulation buffer.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{buf: make([]byte, 0, 512)}
}

// Feed appends chunk to the accumulation buffer and returns every complete
// packet now available, in stream order. Framing only: payload semantics and
// checksums are left to Decode.
func (d *StreamDecoder) Feed(chunk []byte) []Packet {
	d.buf = append(d.buf, chunk...)

	var packets []Packet
	pos := 0
	for {
		// Scan for two consecutive marker bytes. A lone marker byte is
		// spurious; advance one position so a genuine marker starting one
		// byte later is not lost.
		for pos+1 < len(d.buf) && !(d.buf[pos] == Sync && d.buf[pos+1] == Sync) {
			pos++
		}
		if pos+1 >= len(d.buf) {
			// No marker pair. Keep a trailing Sync byte in case its twin
			// arrives in the next chunk; everything else is noise.
			if pos < len(d.buf) && d.buf[pos] != Sync {
				pos = len(d.buf)
			}
			break
		}

		// A longer run of marker bytes still starts one packet: the length
		// byte is the first non-marker byte after the pair, so slide past
		// extra Sync bytes (a real length is never 0xAA).
		for pos+2 < len(d.buf) && d.buf[pos+2] == Sync {
			pos++
		}
		if pos+3 > len(d.buf) {
			// Marker found but the length byte is still in flight.
			break
		}
		total := 3 + int(d.buf[pos+2]) + 1
		if pos+total > len(d.buf) {
			// Partial packet; wait for more data without discarding it.
			break
		}

		frame := d.buf[pos : pos+total]
		payload := make([]byte, total-4)
		copy(payload, frame[3:total-1])
		packets = append(packets, Packet{
			Payload:  payload,
			Checksum: frame[total-1],
		})
		pos += total
	}

	// Compact: drop consumed bytes and leading noise so the buffer stays
	// bounded even on marker-free input.
	if pos > 0 {
		d.buf = append(d.buf[:0], d.buf[pos:]...)
	}
	return packets
}

// Pending returns the number of buffered bytes awaiting more data.
func (d *StreamDecoder) Pending() int {
	return len(d.buf)
}
