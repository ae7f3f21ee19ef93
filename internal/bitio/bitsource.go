// Package bitio provides the packed-bit reader used by the LZW decoder: a
// reader that pulls variable-width, least-significant-bit-first codes out of
// a GIF sub-block chain, transparently crossing both byte and sub-block
// boundaries.
//
// The reader holds a one-byte residue and a shift count, refilling from the
// underlying sub-block stream on demand, since GIF code widths rarely align
// with byte boundaries and never align with a fixed-width word.
package bitio

import "github.com/pixlane/gifdec/internal/container"

// byteSource is the minimal interface BitSource needs from its underlying
// sub-block stream.
type byteSource interface {
	ReadByte() (byte, error)
}

// BitSource accumulates bits, LSB-first, across a sub-block byte stream.
type BitSource struct {
	src   byteSource
	shift uint  // number of bits already consumed from cur
	cur   uint32 // current byte value, held in the low 8 bits
	have  bool   // true once cur holds an unconsumed byte
}

// NewBitSource wraps a container.SubBlockSource for variable-width code
// extraction.
func NewBitSource(s *container.SubBlockSource) *BitSource {
	return &BitSource{src: s}
}

// GetKey pulls the next keySize bits (1..12) from the stream, LSB-first,
// reading as many underlying bytes as necessary.
func (b *BitSource) GetKey(keySize int) (uint16, error) {
	var result uint32
	var resultBits uint

	for resultBits < uint(keySize) {
		if !b.have {
			v, err := b.src.ReadByte()
			if err != nil {
				return 0, err
			}
			b.cur = uint32(v)
			b.shift = 0
			b.have = true
		}
		avail := 8 - b.shift
		need := uint(keySize) - resultBits
		take := avail
		if need < take {
			take = need
		}
		bits := (b.cur >> b.shift) & ((1 << take) - 1)
		result |= bits << resultBits
		resultBits += take
		b.shift += take
		if b.shift == 8 {
			b.have = false
		}
	}
	return uint16(result), nil
}
