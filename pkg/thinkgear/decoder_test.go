package thinkgear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFrame(t *testing.T, payload []byte) []byte {
	t.Helper()
	frame, err := Marshal(payload)
	require.NoError(t, err)
	return frame
}

func TestFeedSinglePacket(t *testing.T) {
	// Marker, len=2, payload attention=0x32, checksum 0xFF-0x36=0xC9.
	d := NewStreamDecoder()
	packets := d.Feed([]byte{0xAA, 0xAA, 0x02, 0x04, 0x32, 0xC9})

	require.Len(t, packets, 1)
	assert.Equal(t, []byte{0x04, 0x32}, packets[0].Payload)
	assert.Equal(t, uint8(0xC9), packets[0].Checksum)
	assert.True(t, packets[0].ChecksumValid())
	assert.Equal(t, 0, d.Pending())
}

func TestFeedMultiplePacketsOneCall(t *testing.T) {
	stream := append([]byte{}, mustFrame(t, []byte{0x04, 0x32})...)
	stream = append(stream, mustFrame(t, []byte{0x05, 0x40})...)
	stream = append(stream, mustFrame(t, []byte{0x02, 0x00})...)

	d := NewStreamDecoder()
	packets := d.Feed(stream)

	require.Len(t, packets, 3)
	assert.Equal(t, []byte{0x04, 0x32}, packets[0].Payload)
	assert.Equal(t, []byte{0x05, 0x40}, packets[1].Payload)
	assert.Equal(t, []byte{0x02, 0x00}, packets[2].Payload)
}

func TestChunkBoundaryIndependence(t *testing.T) {
	stream := []byte{0x01, 0x02, 0xAA} // leading noise with a decoy marker byte
	stream = append(stream, mustFrame(t, []byte{0x04, 0x32})...)
	stream = append(stream, mustFrame(t, []byte{0x80, 0x02, 0x01, 0xFF})...)
	stream = append(stream, 0xDE, 0xAD) // inter-packet noise
	stream = append(stream, mustFrame(t, bandPayload())...)
	stream = append(stream, mustFrame(t, []byte{0x02, 0x1A, 0x04, 0x37, 0x05, 0x42})...)

	whole := NewStreamDecoder().Feed(stream)
	require.Len(t, whole, 4)

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 16} {
		d := NewStreamDecoder()
		var got []Packet
		for off := 0; off < len(stream); off += chunkSize {
			end := min(off+chunkSize, len(stream))
			got = append(got, d.Feed(stream[off:end])...)
		}
		require.Len(t, got, len(whole), "chunk size %d", chunkSize)
		for i := range whole {
			assert.Equal(t, whole[i].Payload, got[i].Payload, "chunk size %d, packet %d", chunkSize, i)
			assert.Equal(t, whole[i].Checksum, got[i].Checksum, "chunk size %d, packet %d", chunkSize, i)
		}
	}
}

func TestPartialPacketSurvivesAcrossCalls(t *testing.T) {
	frame := mustFrame(t, []byte{0x04, 0x32})

	d := NewStreamDecoder()
	assert.Empty(t, d.Feed(frame[:1]))
	assert.Empty(t, d.Feed(frame[1:4]))
	packets := d.Feed(frame[4:])

	require.Len(t, packets, 1)
	assert.Equal(t, []byte{0x04, 0x32}, packets[0].Payload)
}

func TestSpuriousMarkerByteResyncsByOne(t *testing.T) {
	// A lone 0xAA directly before a genuine marker pair: skipping two bytes
	// after the false start would lose the real packet.
	stream := append([]byte{0xAA}, mustFrame(t, []byte{0x04, 0x32})...)

	d := NewStreamDecoder()
	packets := d.Feed(stream)

	require.Len(t, packets, 1)
	assert.Equal(t, []byte{0x04, 0x32}, packets[0].Payload)
}

func TestMarkerRunYieldsSinglePacket(t *testing.T) {
	// Several extra marker bytes ahead of a frame form one long marker run;
	// the length byte is the first non-marker byte after it. Reading a 0xAA
	// from the run as a length would stall the framer on a phantom packet.
	stream := append([]byte{0xAA, 0xAA, 0xAA}, mustFrame(t, []byte{0x04, 0x32})...)

	d := NewStreamDecoder()
	packets := d.Feed(stream)

	require.Len(t, packets, 1)
	assert.Equal(t, []byte{0x04, 0x32}, packets[0].Payload)

	// Same stream byte by byte.
	d = NewStreamDecoder()
	var got []Packet
	for _, b := range stream {
		got = append(got, d.Feed([]byte{b})...)
	}
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0x04, 0x32}, got[0].Payload)
}

func TestNoiseBeforeMarkerIsSkipped(t *testing.T) {
	stream := append([]byte{0x00, 0x13, 0x37, 0xFE}, mustFrame(t, []byte{0x05, 0x10})...)

	d := NewStreamDecoder()
	packets := d.Feed(stream)

	require.Len(t, packets, 1)
	assert.Equal(t, []byte{0x05, 0x10}, packets[0].Payload)
	assert.Equal(t, 0, d.Pending())
}

func TestPureNoiseDoesNotAccumulate(t *testing.T) {
	d := NewStreamDecoder()
	noise := make([]byte, 4096)
	for i := range noise {
		noise[i] = byte(i % 0xA9) // never a marker byte
	}
	for i := 0; i < 100; i++ {
		assert.Empty(t, d.Feed(noise))
	}
	assert.LessOrEqual(t, d.Pending(), 1, "noise must not grow the buffer")
}

func bandPayload() []byte {
	payload := []byte{0x83, 0x18}
	for i := 0; i < 24; i++ {
		payload = append(payload, byte(i))
	}
	return payload
}
