// Package gifdec provides a pure Go decoder for animated GIF89a
// streams. GIF87a streams are rejected at the header.
//
// It decodes the container block structure and the variable-width LZW
// compression scheme directly: no dependency on image/gif, no color
// conversion, no rendering. Callers receive, per frame, a palette-index
// raster sized to the logical screen, the active palette, and the
// graphic-control metadata (delay, disposal, transparency) needed to
// composite and time an animation.
//
// Basic usage:
//
//	dec, err := gifdec.Open(r, nil)
//	for {
//		ok, err := dec.Next()
//		if err != nil {
//			// handle
//		}
//		if !ok {
//			break
//		}
//		raster := dec.Raster()
//		// ... use raster.Pix, dec.Palette(), dec.Meta(), dec.Rect()
//	}
//	dec.Close()
package gifdec
