package gifdec

import (
	"fmt"

	"github.com/pixlane/gifdec/blocks"
)

// Raster is a view over the decoder's logical-screen-sized canvas: the
// composited palette-index buffer as it stands after the most recent
// Next call. Pix aliases the decoder's own backing array — it is a view,
// not a copy, and its contents change on the next Next call.
type Raster struct {
	Pix           []byte
	Width, Height int
}

// At returns the palette index at (x, y).
func (r Raster) At(x, y int) byte {
	return r.Pix[y*r.Width+x]
}

// buildInterlaceRowOrder returns, for an image of height h, the raster row
// that decode-order row i lands on. GIF89a interlacing transmits rows in
// four passes (stride 8 from 0, stride 8 from 4, stride 4 from 2, stride 2
// from 1); concatenating the passes in order gives the mapping from linear
// decode position to actual row.
func buildInterlaceRowOrder(h int) []int {
	starts := [4]int{0, 4, 2, 1}
	strides := [4]int{8, 8, 4, 2}
	order := make([]int, 0, h)
	for pass := 0; pass < 4; pass++ {
		for row := starts[pass]; row < h; row += strides[pass] {
			order = append(order, row)
		}
	}
	return order
}

// placementWriter adapts the lzw.Decoder's linear, rect-relative pixel
// offsets into positions in the decoder's logical-screen raster, applying
// interlace row reordering and (optionally) strict palette-bound checks.
type placementWriter struct {
	dec         *Decoder
	rect        blocks.FrameRect
	rowOrder    []int // nil when the image is not interlaced
	paletteSize int
	strict      bool
}

func newPlacementWriter(dec *Decoder, rect blocks.FrameRect, interlace bool, paletteSize int) *placementWriter {
	w := &placementWriter{dec: dec, rect: rect, paletteSize: paletteSize, strict: dec.opts.Strict}
	if interlace {
		w.rowOrder = buildInterlaceRowOrder(rect.H)
	}
	return w
}

func (w *placementWriter) WritePixel(offset int, value byte) error {
	if w.strict && int(value) >= w.paletteSize {
		return fmt.Errorf("%w: index %d, palette size %d", ErrPaletteIndexOutOfRange, value, w.paletteSize)
	}
	row := offset / w.rect.W
	col := offset % w.rect.W
	if w.rowOrder != nil {
		row = w.rowOrder[row]
	}
	y := w.rect.Y + row
	x := w.rect.X + col
	w.dec.raster[y*w.dec.screen.Width+x] = value
	return nil
}
