package lzw

import (
	"errors"
	"fmt"
)

// Errors returned while driving the LZW state machine.
var (
	// ErrFirstCodeNotClear is returned when the first code of an LZW
	// session is not the CLEAR code.
	ErrFirstCodeNotClear = errors.New("lzw: first code is not CLEAR")
	// ErrCodeOutOfRange is returned when a decoded code refers to an
	// entry that is neither already present nor the single next-to-add
	// (KwKwK) slot.
	ErrCodeOutOfRange = errors.New("lzw: code value out of range")
	// ErrPixelOutOfRange is returned when decoding would write outside
	// the destination frame rectangle.
	ErrPixelOutOfRange = errors.New("lzw: pixel write out of frame rect")
	// ErrCodeWidthOverflow marks a code width above 12 bits. Decoder never
	// returns it: the width stops growing at 12, and the table reports
	// addFull rather than addGrow when it reaches 0x1000 entries.
	ErrCodeWidthOverflow = errors.New("lzw: code width exceeds 12 bits")
)

// BitSource is the minimal variable-width code reader the LZW decoder
// needs; satisfied by *bitio.BitSource.
type BitSource interface {
	GetKey(keySize int) (uint16, error)
}

// Terminator is implemented by the underlying sub-block stream to verify
// the single empty sub-block that must follow the STOP code.
type Terminator interface {
	ReadTerminator() error
}

// Writer receives decoded palette indices at a linear offset within the
// active frame rectangle. Interlace-aware row/column placement is the
// caller's responsibility (see the gifdec root package); this decoder only
// knows about the linear, row-major pixel count.
type Writer interface {
	WritePixel(offset int, value byte) error
}

// Decoder drives the LZW state machine for a single image: CLEAR/STOP
// handling, code-width growth, and the KwKwK edge case.
type Decoder struct {
	bits         BitSource
	term         Terminator
	table        *CodeTable
	writer       Writer
	keySize      int
	initKeySize  int
	tableFull    bool
	haveOld      bool
	oldCode      int
	frmOff       int
	totalPixels  int
}

// NewDecoder creates an LZW decoder for one image. minCodeSize is the
// literal code size byte read from the stream (1..8); totalPixels is
// w*h of the image rectangle.
func NewDecoder(bits BitSource, term Terminator, minCodeSize int, totalPixels int) *Decoder {
	table := NewCodeTable(minCodeSize)
	return &Decoder{
		bits:        bits,
		term:        term,
		table:       table,
		keySize:     minCodeSize + 1,
		initKeySize: minCodeSize + 1,
		oldCode:     -1,
		totalPixels: totalPixels,
	}
}

// Decode runs the state machine to completion, calling w.WritePixel for
// every decoded index, until the STOP code is seen. It then verifies the
// trailing empty sub-block terminator.
func (d *Decoder) Decode(w Writer) error {
	d.writer = w

	first, err := d.bits.GetKey(d.keySize)
	if err != nil {
		return err
	}
	if int(first) != d.table.ClearCode() {
		return ErrFirstCodeNotClear
	}
	d.clear()

	var growPending bool
	for {
		if growPending && d.keySize < 12 {
			d.keySize++
			growPending = false
		}

		code, err := d.bits.GetKey(d.keySize)
		if err != nil {
			return err
		}
		switch int(code) {
		case d.table.ClearCode():
			d.clear()
			growPending = false
			continue
		case d.table.StopCode():
			return d.term.ReadTerminator()
		}

		curLen, curFirst, err := d.emit(int(code))
		if err != nil {
			return err
		}

		if d.haveOld && !d.tableFull {
			oldLen, _, _ := d.table.Entry(d.oldCode)
			switch d.table.Add(oldLen+1, uint16(d.oldCode), curFirst) {
			case addGrow:
				growPending = true
			case addFull:
				d.tableFull = true
			}
		}

		d.frmOff += curLen
		d.oldCode = int(code)
		d.haveOld = true
	}
}

func (d *Decoder) clear() {
	d.table.Reset()
	d.keySize = d.initKeySize
	d.tableFull = false
	d.haveOld = false
	d.oldCode = -1
}

// emit decodes the string for code (walking the prefix chain backward into
// the destination rect) and returns its length and first character. It
// handles the KwKwK case where code equals the table's next-to-add slot.
func (d *Decoder) emit(code int) (length int, first byte, err error) {
	switch {
	case code < d.table.NumEntries():
		return d.emitExisting(code)
	case code == d.table.NumEntries() && d.haveOld:
		oldLen, oldFirst, err := d.emitExisting(d.oldCode)
		if err != nil {
			return 0, 0, err
		}
		if err := d.writeAt(d.frmOff+oldLen, oldFirst); err != nil {
			return 0, 0, err
		}
		return oldLen + 1, oldFirst, nil
	default:
		return 0, 0, fmt.Errorf("%w: code=%d nentries=%d", ErrCodeOutOfRange, code, d.table.NumEntries())
	}
}

// emitExisting walks code's prefix chain, writing each character to its
// position in the destination rect, and returns (length, firstChar).
func (d *Decoder) emitExisting(code int) (int, byte, error) {
	length, _, _ := d.table.Entry(code)
	p := d.frmOff + int(length) - 1
	cur := code
	var first byte
	for {
		_, prefix, suffix := d.table.Entry(cur)
		if err := d.writeAt(p, suffix); err != nil {
			return 0, 0, err
		}
		p--
		if prefix == noPrefix {
			first = suffix
			break
		}
		cur = int(prefix)
	}
	return int(length), first, nil
}

func (d *Decoder) writeAt(offset int, value byte) error {
	if offset < 0 || offset >= d.totalPixels {
		return fmt.Errorf("%w: offset=%d total=%d", ErrPixelOutOfRange, offset, d.totalPixels)
	}
	return d.writer.WritePixel(offset, value)
}
