package lzw

import "errors"

// noPrefix marks a literal entry that has no prefix chain.
const noPrefix = 0xFFF

// maxEntries is the 12-bit code ceiling: the table never grows past it.
const maxEntries = 0x1000

// ErrResourceExhausted marks a code table that cannot accept more entries.
// Add never returns it: the backing array is preallocated to the 0x1000
// cap, and a table at the cap is reported by Add as addFull instead.
var ErrResourceExhausted = errors.New("lzw: code table exhausted")

// entry is one CodeTable slot: a string ending in suffix, whose preceding
// characters are found by following prefix recursively (prefix == noPrefix
// marks a single-character literal).
type entry struct {
	length uint16
	prefix uint16
	suffix byte
}

// growResult is returned by Add to tell the caller whether the code width
// must grow before the next code is read.
type growResult int

const (
	addOK growResult = iota
	addGrow
	addFull
)

// CodeTable is the growable LZW prefix/suffix dictionary for one frame.
// The backing array is preallocated to the 0x1000-entry worst case once,
// so Add never reallocates; Grow/Full are pure signals.
type CodeTable struct {
	entries  [maxEntries]entry
	nentries int
	keySize  int // literal code size K
}

// NewCodeTable initializes a table for literal code size keySize (1..8):
// entries 0..2^keySize-1 are literals, the next two slots are the reserved
// CLEAR and STOP codes.
func NewCodeTable(keySize int) *CodeTable {
	t := &CodeTable{keySize: keySize}
	t.Reset()
	return t
}

// Reset reinitializes the table to its just-cleared state (called both on
// construction and whenever a CLEAR code is decoded).
func (t *CodeTable) Reset() {
	n := 1 << uint(t.keySize)
	for i := 0; i < n; i++ {
		t.entries[i] = entry{length: 1, prefix: noPrefix, suffix: byte(i)}
	}
	// Reserved CLEAR (n) and STOP (n+1) slots carry no decodable content;
	// leave them zeroed.
	t.entries[n] = entry{}
	t.entries[n+1] = entry{}
	t.nentries = n + 2
}

// ClearCode returns the table's CLEAR code value.
func (t *CodeTable) ClearCode() int { return 1 << uint(t.keySize) }

// StopCode returns the table's STOP code value.
func (t *CodeTable) StopCode() int { return t.ClearCode() + 1 }

// NumEntries returns the current entry count.
func (t *CodeTable) NumEntries() int { return t.nentries }

// Entry returns entry i. Callers must ensure i < NumEntries().
func (t *CodeTable) Entry(i int) (length uint16, prefix uint16, suffix byte) {
	e := t.entries[i]
	return e.length, e.prefix, e.suffix
}

// Add appends a new entry (length, prefix, suffix). It reports addGrow when
// the new entry count is exactly a power of two (the caller must widen
// codes by one bit before the next read), addFull once the 0x1000 cap is
// reached (further Add calls are no-ops), or addOK otherwise.
func (t *CodeTable) Add(length uint16, prefix uint16, suffix byte) growResult {
	if t.nentries >= maxEntries {
		return addFull
	}
	t.entries[t.nentries] = entry{length: length, prefix: prefix, suffix: suffix}
	t.nentries++
	if t.nentries >= maxEntries {
		return addFull
	}
	if t.nentries&(t.nentries-1) == 0 {
		return addGrow
	}
	return addOK
}
