// Package container parses the fixed-layout portions of a GIF stream: the
// magic/version header, the logical screen descriptor, and palette tables.
// It knows nothing about extensions, images, or LZW — those live in the
// blocks and lzw packages built on top of it.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the byte length of the fixed GIF header: 3 magic bytes,
// 3 version bytes, width(2), height(2), packed(1), background(1), aspect(1).
const HeaderSize = 13

// Errors returned while parsing the header and palettes.
var (
	ErrInvalidMagic      = errors.New("container: not a GIF stream (bad magic)")
	ErrUnsupportedVersion = errors.New("container: unsupported GIF version (only 89a)")
	ErrNoGlobalPalette   = errors.New("container: missing required global color table")
	ErrUnsupportedDepth  = errors.New("container: unsupported color depth (only 8-bit)")
	ErrTruncated         = errors.New("container: truncated stream")
)

// RGB is one palette entry.
type RGB struct {
	R, G, B byte
}

// Palette is an ordered, power-of-two-sized sequence of RGB entries.
type Palette []RGB

// ScreenDescriptor holds the parsed GIF header plus logical screen descriptor.
type ScreenDescriptor struct {
	Width, Height    int
	BackgroundIndex  byte
	PixelAspectRatio byte
	// GlobalPaletteSize is the number of entries in the global palette
	// (always a power of two in [2, 256]).
	GlobalPaletteSize int
}

// ReadHeader reads and validates the 13-byte GIF header/LSD from r.
// The packed byte MUST declare a present global color table with an 8-bit
// color depth; anything else is ErrUnsupportedDepth/ErrNoGlobalPalette.
func ReadHeader(r io.Reader) (ScreenDescriptor, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ScreenDescriptor{}, fmt.Errorf("%w: %w", ErrTruncated, err)
	}

	if string(buf[0:3]) != "GIF" {
		return ScreenDescriptor{}, ErrInvalidMagic
	}
	if string(buf[3:6]) != "89a" {
		return ScreenDescriptor{}, ErrUnsupportedVersion
	}

	width := int(binary.LittleEndian.Uint16(buf[6:8]))
	height := int(binary.LittleEndian.Uint16(buf[8:10]))
	packed := buf[10]
	bg := buf[11]
	aspect := buf[12]

	if packed&0x80 == 0 {
		return ScreenDescriptor{}, ErrNoGlobalPalette
	}
	depth := (packed >> 4) & 0x07
	if depth != 0x07 {
		return ScreenDescriptor{}, ErrUnsupportedDepth
	}
	gctExp := packed & 0x07
	paletteSize := 1 << (gctExp + 1)

	return ScreenDescriptor{
		Width:             width,
		Height:            height,
		BackgroundIndex:   bg,
		PixelAspectRatio:  aspect,
		GlobalPaletteSize: paletteSize,
	}, nil
}

// ReadPalette reads n RGB triplets from r.
func ReadPalette(r io.Reader, n int) (Palette, error) {
	buf := make([]byte, 3*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: palette: %w", ErrTruncated, err)
	}
	p := make(Palette, n)
	for i := range p {
		p[i] = RGB{R: buf[3*i], G: buf[3*i+1], B: buf[3*i+2]}
	}
	return p, nil
}

// PaletteSizeFromExponent returns 1<<(exp+1), the entry count encoded by a
// 3-bit color-table-size exponent field (used for both global and local
// palettes).
func PaletteSizeFromExponent(exp byte) int {
	return 1 << (uint(exp&0x07) + 1)
}
