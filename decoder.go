package gifdec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pixlane/gifdec/blocks"
	"github.com/pixlane/gifdec/internal/bitio"
	"github.com/pixlane/gifdec/internal/container"
	"github.com/pixlane/gifdec/internal/lzw"
)

// countingReader wraps an io.Reader, tracking the total bytes read so
// errors can be reported with the stream offset they were detected at.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Decoder pulls frames out of a GIF89a stream, one at a time. The
// zero value is not usable; construct with Open or OpenBytes.
type Decoder struct {
	r    *countingReader
	opts Options

	screen  container.ScreenDescriptor
	global  container.Palette
	reader  *blocks.Reader
	pending blocks.FrameMeta // accumulates extension fields until consumed

	raster []byte // screen.Width*screen.Height palette indices

	curMeta    blocks.FrameMeta
	curRect    blocks.FrameRect
	curPalette container.Palette

	haveDispose   bool
	disposeRect   blocks.FrameRect
	disposeMethod blocks.DisposalMethod
	snapshot      []byte

	closed bool
	ended  bool  // trailer already reached
	err    error // sticky terminal error, once poisoned
}

// Open parses the header and global palette from r and returns a Decoder
// ready to yield frames via Next. opts may be nil for the default
// (lenient, no diagnostics) configuration.
func Open(r io.Reader, opts *Options) (*Decoder, error) {
	var o Options
	if opts != nil {
		o = *opts
	}

	cr := &countingReader{r: r}

	sd, err := container.ReadHeader(cr)
	if err != nil {
		return nil, classify(err, cr.n)
	}
	pal, err := container.ReadPalette(cr, sd.GlobalPaletteSize)
	if err != nil {
		return nil, classify(err, cr.n)
	}

	d := &Decoder{
		r:      cr,
		opts:   o,
		screen: sd,
		global: pal,
		reader: blocks.NewReader(cr),
		raster: make([]byte, sd.Width*sd.Height),
	}
	d.reader.Warnf = o.warnf
	for i := range d.raster {
		d.raster[i] = sd.BackgroundIndex
	}
	return d, nil
}

// OpenBytes is a convenience wrapper around Open for a fully in-memory
// stream.
func OpenBytes(data []byte, opts *Options) (*Decoder, error) {
	return Open(bytes.NewReader(data), opts)
}

// Next advances the decoder past the next frame's extensions and image
// data. ok is false once the trailer has been reached; a subsequent call
// returns (false, nil) again. Once Next returns a non-nil error the
// Decoder is poisoned: every later call returns the same error without
// reading further.
func (d *Decoder) Next() (ok bool, err error) {
	if d.closed {
		return false, ErrClosed
	}
	if d.err != nil {
		return false, d.err
	}
	if d.ended {
		return false, nil
	}

	if d.haveDispose {
		d.applyDisposal(d.disposeRect, d.disposeMethod)
		d.haveDispose = false
	}

	desc, ok, err := d.reader.Next(&d.pending)
	if err != nil {
		d.err = classify(err, d.r.n)
		return false, d.err
	}
	if !ok {
		d.ended = true
		return false, nil
	}

	if err := d.validateRect(desc.Rect); err != nil {
		d.err = classify(err, d.r.n)
		return false, d.err
	}

	palette := d.global
	if desc.Palette != nil {
		palette = desc.Palette
	}

	d.snapshot = d.copyRect(desc.Rect)

	if err := d.decodeImage(desc, palette); err != nil {
		d.err = classify(err, d.r.n)
		return false, d.err
	}

	d.curMeta = d.pending
	d.curRect = desc.Rect
	d.curPalette = palette

	d.disposeRect = desc.Rect
	d.disposeMethod = d.curMeta.Disposal
	d.haveDispose = true

	d.pending.Reset()
	return true, nil
}

func (d *Decoder) decodeImage(desc blocks.ImageDescriptor, palette container.Palette) error {
	minCodeSize, err := readByte(d.r)
	if err != nil {
		return err
	}
	if minCodeSize < 1 || minCodeSize > 8 {
		return fmt.Errorf("%w: minimum code size %d", blocks.ErrMalformedStream, minCodeSize)
	}

	sub := container.NewSubBlockSource(d.r)
	bits := bitio.NewBitSource(sub)
	dec := lzw.NewDecoder(bits, sub, int(minCodeSize), desc.Rect.W*desc.Rect.H)
	writer := newPlacementWriter(d, desc.Rect, desc.Interlace, len(palette))
	return dec.Decode(writer)
}

func readByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", container.ErrTruncated, err)
	}
	return b[0], nil
}

func (d *Decoder) validateRect(rect blocks.FrameRect) error {
	if rect.W <= 0 || rect.H <= 0 {
		return fmt.Errorf("%w: zero-area rect", ErrInvalidRect)
	}
	if rect.X < 0 || rect.Y < 0 || rect.X+rect.W > d.screen.Width || rect.Y+rect.H > d.screen.Height {
		return fmt.Errorf("%w: %+v outside %dx%d", ErrInvalidRect, rect, d.screen.Width, d.screen.Height)
	}
	return nil
}

// applyDisposal treats rect per method, run at the start of the Next call
// that follows the frame rect was captured from.
func (d *Decoder) applyDisposal(rect blocks.FrameRect, method blocks.DisposalMethod) {
	switch method {
	case blocks.DisposalRestoreBackground:
		d.fillRect(rect, d.screen.BackgroundIndex)
	case blocks.DisposalRestorePrevious:
		d.restoreRect(rect, d.snapshot)
	}
}

func (d *Decoder) copyRect(rect blocks.FrameRect) []byte {
	buf := make([]byte, rect.W*rect.H)
	for row := 0; row < rect.H; row++ {
		srcOff := (rect.Y+row)*d.screen.Width + rect.X
		copy(buf[row*rect.W:(row+1)*rect.W], d.raster[srcOff:srcOff+rect.W])
	}
	return buf
}

func (d *Decoder) fillRect(rect blocks.FrameRect, value byte) {
	for row := 0; row < rect.H; row++ {
		off := (rect.Y+row)*d.screen.Width + rect.X
		for i := 0; i < rect.W; i++ {
			d.raster[off+i] = value
		}
	}
}

func (d *Decoder) restoreRect(rect blocks.FrameRect, snap []byte) {
	for row := 0; row < rect.H; row++ {
		dstOff := (rect.Y+row)*d.screen.Width + rect.X
		copy(d.raster[dstOff:dstOff+rect.W], snap[row*rect.W:(row+1)*rect.W])
	}
}

// Raster returns a view of the current composited canvas.
func (d *Decoder) Raster() Raster {
	return Raster{Pix: d.raster, Width: d.screen.Width, Height: d.screen.Height}
}

// Palette returns the palette active for the most recently decoded frame
// (local if the image descriptor carried one, else global).
func (d *Decoder) Palette() container.Palette { return d.curPalette }

// Meta returns the graphic-control metadata bound to the most recently
// decoded frame.
func (d *Decoder) Meta() blocks.FrameMeta { return d.curMeta }

// Rect returns the placement rectangle of the most recently decoded frame.
func (d *Decoder) Rect() blocks.FrameRect { return d.curRect }

// LoopCount returns the Netscape loop count seen so far (-1 if no
// application extension carrying one has been seen yet; 0 means loop
// forever).
func (d *Decoder) LoopCount() int { return d.reader.LoopCount }

// Width and Height report the logical screen dimensions.
func (d *Decoder) Width() int  { return d.screen.Width }
func (d *Decoder) Height() int { return d.screen.Height }

// Close releases the Decoder's reference to its source. Further calls to
// Next return ErrClosed.
func (d *Decoder) Close() error {
	d.closed = true
	d.r = nil
	return nil
}
