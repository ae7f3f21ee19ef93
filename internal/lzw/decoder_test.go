package lzw

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

// fakeSource hands back a pre-scripted code sequence, recording the width
// requested for each call. It does not actually pack bits: the LZW state
// machine's correctness is independent of how codes reach it, so these
// tests isolate the table/state logic from internal/bitio.
type fakeSource struct {
	codes  []uint16
	widths []int
	i      int
}

func (f *fakeSource) GetKey(keySize int) (uint16, error) {
	if f.i >= len(f.codes) {
		return 0, io.EOF
	}
	f.widths = append(f.widths, keySize)
	v := f.codes[f.i]
	f.i++
	return v, nil
}

type fakeTerm struct {
	called bool
	err    error
}

func (f *fakeTerm) ReadTerminator() error {
	f.called = true
	return f.err
}

type fakeWriter struct {
	buf []byte
}

func (w *fakeWriter) WritePixel(offset int, value byte) error {
	if offset < 0 || offset >= len(w.buf) {
		return fmt.Errorf("offset %d out of range", offset)
	}
	w.buf[offset] = value
	return nil
}

func TestDecodeMinimalSinglePixel(t *testing.T) {
	// K=2: literals 0..3, CLEAR=4, STOP=5.
	src := &fakeSource{codes: []uint16{4, 1, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 1)}

	d := NewDecoder(src, term, 2, 1)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !term.called {
		t.Error("expected the terminator to be consumed")
	}
	if w.buf[0] != 1 {
		t.Errorf("pixel = %d, want 1", w.buf[0])
	}
}

func TestDecodeFourLiterals(t *testing.T) {
	// K=2: CLEAR 0 1 2 3 STOP, 2x2 frame.
	src := &fakeSource{codes: []uint16{4, 0, 1, 2, 3, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte{0, 1, 2, 3}
	for i, v := range want {
		if w.buf[i] != v {
			t.Errorf("pixel[%d] = %d, want %d", i, w.buf[i], v)
		}
	}
}

func TestDecodeGrowWidensNextCode(t *testing.T) {
	// Same stream as TestDecodeFourLiterals: the add triggered while
	// processing code 2 (table count reaches 8, a power of two) must widen
	// the width used to read the following code (3), not the one after.
	src := &fakeSource{codes: []uint16{4, 0, 1, 2, 3, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []int{3, 3, 3, 3, 4, 4}
	if len(src.widths) != len(want) {
		t.Fatalf("widths = %v, want length %d", src.widths, len(want))
	}
	for i, wd := range want {
		if src.widths[i] != wd {
			t.Errorf("widths[%d] = %d, want %d", i, src.widths[i], wd)
		}
	}
}

func TestDecodeMultiCharEntries(t *testing.T) {
	// K=1: literals 0='a', 1='b', CLEAR=2, STOP=3.
	// CLEAR a b <ab> <ab> STOP decodes to a b a b a b, exercising repeated
	// lookups of a just-added multi-character entry.
	src := &fakeSource{codes: []uint16{2, 0, 1, 4, 4, 3}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 6)}

	d := NewDecoder(src, term, 1, 6)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte{0, 1, 0, 1, 0, 1}
	for i, v := range want {
		if w.buf[i] != v {
			t.Errorf("pixel[%d] = %d, want %d", i, w.buf[i], v)
		}
	}
}

func TestDecodeKwKwK(t *testing.T) {
	// K=2: CLEAR a b <code == table size, the not-yet-added entry> STOP.
	// After "a"(0) "b"(1), the table holds 7 entries (indices 0-6); the
	// next code equals 7, which must resolve to "b"+"b" (oldCode's string
	// extended by its own first character) per the KwKwK rule.
	src := &fakeSource{codes: []uint16{4, 0, 1, 7, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte{0, 1, 1, 1}
	for i, v := range want {
		if w.buf[i] != v {
			t.Errorf("pixel[%d] = %d, want %d", i, w.buf[i], v)
		}
	}
}

func TestDecodeClearMidStreamResetsTable(t *testing.T) {
	// K=2: CLEAR 0 1 (grows table) CLEAR 0 1 STOP — the second CLEAR must
	// reset key_size and nentries, so the same code values decode the same
	// way both times.
	src := &fakeSource{codes: []uint16{4, 0, 1, 4, 0, 1, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	if err := d.Decode(w); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte{0, 1, 0, 1}
	for i, v := range want {
		if w.buf[i] != v {
			t.Errorf("pixel[%d] = %d, want %d", i, w.buf[i], v)
		}
	}
}

func TestDecodeFirstCodeNotClear(t *testing.T) {
	src := &fakeSource{codes: []uint16{0, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 1)}

	d := NewDecoder(src, term, 2, 1)
	err := d.Decode(w)
	if !errors.Is(err, ErrFirstCodeNotClear) {
		t.Fatalf("err = %v, want ErrFirstCodeNotClear", err)
	}
}

func TestDecodeCodeOutOfRange(t *testing.T) {
	// K=2: after CLEAR alone, nentries=6; code 9 is neither existing nor
	// the KwKwK next-to-add slot.
	src := &fakeSource{codes: []uint16{4, 9, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	err := d.Decode(w)
	if !errors.Is(err, ErrCodeOutOfRange) {
		t.Fatalf("err = %v, want ErrCodeOutOfRange", err)
	}
}

func TestDecodePixelOutOfRange(t *testing.T) {
	// Frame rect only has room for 2 pixels but the stream emits 4.
	src := &fakeSource{codes: []uint16{4, 0, 1, 2, 3, 5}}
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 2)}

	d := NewDecoder(src, term, 2, 2)
	err := d.Decode(w)
	if !errors.Is(err, ErrPixelOutOfRange) {
		t.Fatalf("err = %v, want ErrPixelOutOfRange", err)
	}
}

func TestDecodeTruncatedStream(t *testing.T) {
	src := &fakeSource{codes: []uint16{4, 0}} // no STOP
	term := &fakeTerm{}
	w := &fakeWriter{buf: make([]byte, 4)}

	d := NewDecoder(src, term, 2, 4)
	err := d.Decode(w)
	if err == nil {
		t.Fatal("expected an error for a truncated stream")
	}
}

func TestDecodeBadTerminatorPropagates(t *testing.T) {
	src := &fakeSource{codes: []uint16{4, 0, 5}}
	term := &fakeTerm{err: errors.New("bad terminator")}
	w := &fakeWriter{buf: make([]byte, 1)}

	d := NewDecoder(src, term, 2, 1)
	err := d.Decode(w)
	if err == nil || err.Error() != "bad terminator" {
		t.Fatalf("err = %v, want the terminator error", err)
	}
}
