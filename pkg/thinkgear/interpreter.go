package thinkgear

import (
	"encoding/binary"
	"fmt"
)

// Band indexes the eight fixed spectral bands in wire order.
type Band int

const (
	Delta Band = iota
	Theta
	AlphaLow
	AlphaHigh
	BetaLow
	BetaHigh
	GammaLow
	GammaHigh

	NumBands = 8
)

var bandNames = [NumBands]string{
	"Delta", "Theta", "Alpha Low", "Alpha High",
	"Beta Low", "Beta High", "Gamma Low", "Gamma High",
}

func (b Band) String() string {
	if b < 0 || b >= NumBands {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// BandPowers holds the eight 24-bit band power magnitudes in wire order.
type BandPowers [NumBands]uint32

// DecodedRecord is one packet's worth of measurements. Fields are sparse:
// the protocol emits each value type asynchronously, so only the fields
// present in the payload are populated.
type DecodedRecord struct {
	SignalQuality *uint8 // 0 = good, >0 = increasingly poor
	Attention     *uint8 // 0-100
	Meditation    *uint8 // 0-100
	RawEEG        *int16
	BandPowers    *BandPowers
}

// Empty reports whether no field was decoded.
func (r DecodedRecord) Empty() bool {
	return r.SignalQuality == nil && r.Attention == nil &&
		r.Meditation == nil && r.RawEEG == nil && r.BandPowers == nil
}

// ChecksumError reports a payload whose received checksum does not match.
type ChecksumError struct {
	Want uint8
	Got  uint8
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: computed 0x%02X, received 0x%02X", e.Want, e.Got)
}

// Decode validates the packet checksum and walks the payload left to right
// using the code dispatch table. Decoding is pure: it never touches shared
// buffers. A declared length that would overrun the payload aborts the
// remainder of the packet; fields decoded up to that point are kept.
func Decode(p Packet) (DecodedRecord, error) {
	if want := checksum(p.Payload); want != p.Checksum {
		return DecodedRecord{}, &ChecksumError{Want: want, Got: p.Checksum}
	}

	var rec DecodedRecord
	data := p.Payload
	i := 0
	for i < len(data) {
		code := data[i]
		i++

		switch code {
		case CodePoorSignal:
			if i+1 > len(data) {
				return rec, nil
			}
			v := data[i]
			rec.SignalQuality = &v
			i++

		case CodeAttention:
			if i+1 > len(data) {
				return rec, nil
			}
			v := data[i]
			rec.Attention = &v
			i++

		case CodeMeditation:
			if i+1 > len(data) {
				return rec, nil
			}
			v := data[i]
			rec.Meditation = &v
			i++

		case CodeRawEEG:
			if i+3 > len(data) || data[i] != rawValueLen {
				return rec, nil
			}
			i++
			v := int16(binary.BigEndian.Uint16(data[i : i+2]))
			rec.RawEEG = &v
			i += 2

		case CodeBandPower:
			if i+25 > len(data) || data[i] != bandValueLen {
				return rec, nil
			}
			i++
			var bp BandPowers
			for b := 0; b < NumBands; b++ {
				bp[b] = uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
				i += 3
			}
			rec.BandPowers = &bp

		default:
			if code < 0x80 {
				// Unrecognized single-byte value.
				i++
			} else {
				// Unrecognized extended value: next byte declares its length.
				if i >= len(data) {
					return rec, nil
				}
				vlen := int(data[i])
				if i+1+vlen > len(data) {
					return rec, nil
				}
				i += 1 + vlen
			}
		}
	}
	return rec, nil
}
