// Package blocks drives the top-level block syntax of a GIF stream: the
// separator dispatch between extensions, image descriptors, and the
// trailer, plus the extensions that carry per-frame metadata (graphic
// control, application/Netscape looping, comment, plain text).
package blocks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pixlane/gifdec/internal/container"
)

// Separator bytes that begin each top-level block.
const (
	sepImage     = 0x2C
	sepExtension = 0x21
	sepTrailer   = 0x3B
)

// Extension label bytes, read immediately after sepExtension.
const (
	labelPlainText      = 0x01
	labelGraphicControl = 0xF9
	labelComment        = 0xFE
	labelApplication    = 0xFF
)

// ErrMalformedStream is returned for any separator or sub-field that does
// not match the grammar (impossible separator byte, bad terminator, etc).
var ErrMalformedStream = errors.New("blocks: malformed stream")

// DisposalMethod is the post-render treatment of a frame's rectangle,
// carried by the graphic control extension and consumed by the caller's
// compositing pass.
type DisposalMethod int

const (
	DisposalUnspecified DisposalMethod = iota
	DisposalKeep
	DisposalRestoreBackground
	DisposalRestorePrevious
)

func (d DisposalMethod) String() string {
	switch d {
	case DisposalKeep:
		return "keep"
	case DisposalRestoreBackground:
		return "restore-background"
	case DisposalRestorePrevious:
		return "restore-previous"
	default:
		return "unspecified"
	}
}

// FrameMeta holds the fields of the most recently seen graphic control
// extension. It is overwritten each time a new one is parsed and is
// consumed by the caller when the next image descriptor arrives.
type FrameMeta struct {
	Disposal         DisposalMethod
	UserInput        bool
	Transparent      bool
	TransparentIndex byte
	DelayCS          int // hundredths of a second
}

// Reset restores meta to its pre-any-extension defaults. Callers should
// reset after consuming a FrameMeta for an image, since graphic control
// extensions do not repeat values they intend to leave unset.
func (m *FrameMeta) Reset() {
	*m = FrameMeta{}
}

// FrameRect locates an image within the logical screen.
type FrameRect struct {
	X, Y, W, H int
}

// ImageDescriptor is the parsed image descriptor: its placement rectangle,
// interlace flag, and optional local palette.
type ImageDescriptor struct {
	Rect      FrameRect
	Interlace bool
	Palette   container.Palette // nil when no local palette is present
}

// Reader drives the separator dispatch over a GIF stream's body: extension
// blocks are consumed and folded into a FrameMeta as they're seen, until
// either an image descriptor or the trailer is reached.
type Reader struct {
	r io.Reader

	// LoopCount is set from the Netscape application extension's loop
	// sub-block, if one has been seen. -1 means none seen yet.
	LoopCount int

	// Warnf receives a diagnostic for recoverable conditions (an unknown
	// extension label, an ignored plain text extension). Defaults to a
	// no-op; callers that want logging
	// should set it after construction.
	Warnf func(format string, args ...any)
}

// NewReader creates a block reader over the stream body following the
// header and global palette.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, LoopCount: -1, Warnf: func(string, ...any) {}}
}

// Next consumes zero or more extensions, folding their fields into meta,
// until it reaches either an image descriptor (ok=true) or the trailer
// (ok=false, err=nil).
func (br *Reader) Next(meta *FrameMeta) (desc ImageDescriptor, ok bool, err error) {
	for {
		sep, err := readByte(br.r)
		if err != nil {
			return ImageDescriptor{}, false, err
		}
		switch sep {
		case sepTrailer:
			return ImageDescriptor{}, false, nil
		case sepImage:
			desc, err := br.readImageDescriptor()
			return desc, true, err
		case sepExtension:
			if err := br.readExtension(meta); err != nil {
				return ImageDescriptor{}, false, err
			}
		default:
			return ImageDescriptor{}, false, fmt.Errorf("%w: separator %#02x", ErrMalformedStream, sep)
		}
	}
}

func (br *Reader) readImageDescriptor() (ImageDescriptor, error) {
	var buf [9]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return ImageDescriptor{}, fmt.Errorf("%w: image descriptor: %w", container.ErrTruncated, err)
	}
	rect := FrameRect{
		X: int(binary.LittleEndian.Uint16(buf[0:2])),
		Y: int(binary.LittleEndian.Uint16(buf[2:4])),
		W: int(binary.LittleEndian.Uint16(buf[4:6])),
		H: int(binary.LittleEndian.Uint16(buf[6:8])),
	}
	packed := buf[8]

	desc := ImageDescriptor{
		Rect:      rect,
		Interlace: packed&0x40 != 0,
	}
	if packed&0x80 != 0 {
		n := container.PaletteSizeFromExponent(packed & 0x07)
		pal, err := container.ReadPalette(br.r, n)
		if err != nil {
			return ImageDescriptor{}, err
		}
		desc.Palette = pal
	}
	return desc, nil
}

func (br *Reader) readExtension(meta *FrameMeta) error {
	label, err := readByte(br.r)
	if err != nil {
		return err
	}
	switch label {
	case labelGraphicControl:
		return br.readGraphicControl(meta)
	case labelApplication:
		return br.readApplication()
	case labelPlainText:
		br.Warnf("blocks: plain text extension ignored")
		return container.SkipSubBlocks(br.r)
	case labelComment:
		return container.SkipSubBlocks(br.r)
	default:
		br.Warnf("blocks: unknown extension label %#02x, skipping its sub-blocks", label)
		return container.SkipSubBlocks(br.r)
	}
}

// readGraphicControl parses label 0xF9: BS(1)=4 PACK(1) DELAY(2) TIDX(1)
// terminator(1)=0.
func (br *Reader) readGraphicControl(meta *FrameMeta) error {
	var buf [6]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return fmt.Errorf("%w: graphic control: %w", container.ErrTruncated, err)
	}
	// buf[0] is the block size byte (always 4); not otherwise consulted.
	packed := buf[1]
	delay := int(binary.LittleEndian.Uint16(buf[2:4]))
	tidx := buf[4]
	terminator := buf[5]
	if terminator != 0 {
		return fmt.Errorf("%w: graphic control terminator %#02x, want 0x00", ErrMalformedStream, terminator)
	}

	meta.Disposal = DisposalMethod((packed >> 2) & 0x07)
	meta.UserInput = packed&0x02 != 0
	meta.Transparent = packed&0x01 != 0
	meta.TransparentIndex = tidx
	meta.DelayCS = delay
	return nil
}

// netscapeID is the 11-byte application identifier + auth code that marks
// the Netscape looping extension.
const netscapeID = "NETSCAPE2.0"

// readApplication parses label 0xFF: BS(1)=11 ID(8) AUTH(3) SUB_BLOCKS.
// When the identifier+auth code spells out the Netscape extension, the
// following sub-block is decoded as a loop count; any other application
// extension's sub-block chain is simply discarded.
func (br *Reader) readApplication() error {
	var buf [12]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return fmt.Errorf("%w: application extension: %w", container.ErrTruncated, err)
	}
	// buf[0] is the block size byte (always 11).
	identAuth := string(buf[1:12])

	if identAuth != netscapeID {
		return container.SkipSubBlocks(br.r)
	}
	return br.readNetscapeLoop()
}

// readNetscapeLoop reads the Netscape sub-block: len(1)=3 0x01 LOOP(2),
// then discards whatever sub-blocks (normally just the terminator) follow.
func (br *Reader) readNetscapeLoop() error {
	n, err := readByte(br.r)
	if err != nil {
		return err
	}
	if n == 0 {
		// No loop-count sub-block was ever present; LoopCount stays -1
		// ("none seen yet"), not 0 ("loop forever").
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return fmt.Errorf("%w: netscape loop sub-block: %w", container.ErrTruncated, err)
	}
	if len(buf) >= 3 && buf[0] == 0x01 {
		br.LoopCount = int(binary.LittleEndian.Uint16(buf[1:3]))
	}
	return container.SkipSubBlocks(br.r)
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", container.ErrTruncated, err)
	}
	return b[0], nil
}
