package container

import (
	"bytes"
	"errors"
	"testing"
)

func TestSkipSubBlocks(t *testing.T) {
	data := []byte{3, 'a', 'b', 'c', 2, 'd', 'e', 0, 'X'}
	r := bytes.NewReader(data)
	if err := SkipSubBlocks(r); err != nil {
		t.Fatalf("SkipSubBlocks: %v", err)
	}
	rest, _ := readRest(r)
	if string(rest) != "X" {
		t.Errorf("remaining = %q, want %q", rest, "X")
	}
}

func TestReadSubBlockChain(t *testing.T) {
	data := []byte{3, 'a', 'b', 'c', 2, 'd', 'e', 0}
	got, err := ReadSubBlockChain(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSubBlockChain: %v", err)
	}
	if string(got) != "abcde" {
		t.Errorf("chain = %q, want %q", got, "abcde")
	}
}

func TestSubBlockSourceAcrossBoundary(t *testing.T) {
	data := []byte{2, 'a', 'b', 1, 'c', 0}
	s := NewSubBlockSource(bytes.NewReader(data))
	var got []byte
	for i := 0; i < 3; i++ {
		b, err := s.ReadByte()
		if err != nil {
			t.Fatalf("ReadByte %d: %v", i, err)
		}
		got = append(got, b)
	}
	if string(got) != "abc" {
		t.Errorf("got %q, want %q", got, "abc")
	}
	if err := s.ReadTerminator(); err != nil {
		t.Fatalf("ReadTerminator: %v", err)
	}
}

func TestSubBlockSourceZeroMidStream(t *testing.T) {
	// A zero-length sub-block encountered via ReadByte (not ReadTerminator)
	// is an error: it would only be valid as the terminator.
	s := NewSubBlockSource(bytes.NewReader([]byte{0}))
	_, err := s.ReadByte()
	if !errors.Is(err, ErrZeroSubBlock) {
		t.Fatalf("err = %v, want ErrZeroSubBlock", err)
	}
}

func TestSubBlockSourceTerminatorMismatch(t *testing.T) {
	s := NewSubBlockSource(bytes.NewReader([]byte{1, 'x', 5}))
	if _, err := s.ReadByte(); err != nil {
		t.Fatalf("ReadByte: %v", err)
	}
	if err := s.ReadTerminator(); err == nil {
		t.Fatal("expected error for non-zero terminator byte")
	}
}

func readRest(r *bytes.Reader) ([]byte, error) {
	buf := make([]byte, r.Len())
	_, err := r.Read(buf)
	return buf, err
}
