package container

import (
	"errors"
	"fmt"
	"io"
)

// ErrZeroSubBlock is returned when a sub-block length byte of zero is read
// where non-terminator data was expected.
var ErrZeroSubBlock = errors.New("container: zero-length sub-block where data required")

// SkipSubBlocks discards a length-prefixed sub-block chain: (len byte,
// len bytes)* terminated by a zero length byte.
func SkipSubBlocks(r io.Reader) error {
	var lenBuf [1]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return fmt.Errorf("%w: sub-block length: %w", ErrTruncated, err)
		}
		n := lenBuf[0]
		if n == 0 {
			return nil
		}
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return fmt.Errorf("%w: sub-block data: %w", ErrTruncated, err)
		}
	}
}

// ReadSubBlockChain reads and concatenates an entire sub-block chain,
// returning the assembled payload.
func ReadSubBlockChain(r io.Reader) ([]byte, error) {
	var out []byte
	var lenBuf [1]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, fmt.Errorf("%w: sub-block length: %w", ErrTruncated, err)
		}
		n := lenBuf[0]
		if n == 0 {
			return out, nil
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("%w: sub-block data: %w", ErrTruncated, err)
		}
		out = append(out, buf...)
	}
}

// SubBlockSource streams the raw bytes of a sub-block chain one byte at a
// time, transparently crossing sub-block boundaries. It is the byte source
// the LZW bit reader is built on: a new underlying length byte is consumed
// automatically whenever the current sub-block runs out.
type SubBlockSource struct {
	r      io.Reader
	subLen int // bytes remaining in the current sub-block
}

// NewSubBlockSource creates a SubBlockSource reading from r. The first
// sub-block's length byte is consumed lazily, on the first ReadByte call.
func NewSubBlockSource(r io.Reader) *SubBlockSource {
	return &SubBlockSource{r: r}
}

// ReadByte returns the next data byte from the sub-block chain, reading a
// new length-prefix byte whenever the current sub-block is exhausted. A
// zero-length sub-block encountered here (i.e. not via ReadTerminator) is
// ErrZeroSubBlock: a zero length is only valid as the chain terminator,
// which the LZW decoder consumes explicitly via ReadTerminator.
func (s *SubBlockSource) ReadByte() (byte, error) {
	if s.subLen == 0 {
		var lenBuf [1]byte
		if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
			return 0, fmt.Errorf("%w: sub-block length: %w", ErrTruncated, err)
		}
		if lenBuf[0] == 0 {
			return 0, ErrZeroSubBlock
		}
		s.subLen = int(lenBuf[0])
	}
	var b [1]byte
	if _, err := io.ReadFull(s.r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: sub-block byte: %w", ErrTruncated, err)
	}
	s.subLen--
	return b[0], nil
}

// ReadTerminator reads one sub-block length byte and requires it to be
// zero. Call this after the LZW STOP code has been decoded: exactly one
// empty sub-block must follow it.
func (s *SubBlockSource) ReadTerminator() error {
	if s.subLen != 0 {
		return fmt.Errorf("container: %d bytes remain in current sub-block at terminator", s.subLen)
	}
	var lenBuf [1]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		return fmt.Errorf("%w: terminator: %w", ErrTruncated, err)
	}
	if lenBuf[0] != 0 {
		return fmt.Errorf("container: expected zero-length terminator, got %d", lenBuf[0])
	}
	return nil
}
