// Package alloc hands out slot indices lowest-first. The directory uses it to
// track free entries and the open file table uses it to pick handles.
package alloc

const bitsPerByte = 8

// Bitmap tracks which of `Len()` slots are in use.
type Bitmap struct {
	bytes []byte
	len   int
	used  int
}

func New(size int) Bitmap {
	return Bitmap{
		bytes: make([]byte, (size+bitsPerByte-1)/bitsPerByte),
		len:   size,
	}
}

// Alloc marks the lowest free slot as used and returns its index.
func (bm *Bitmap) Alloc() (int, bool) {
	i, ok := bm.FirstFree()
	if !ok {
		return 0, false
	}
	bm.Reserve(i)
	return i, true
}

// FirstFree returns the lowest free slot without claiming it.
func (bm *Bitmap) FirstFree() (int, bool) {
	for i, byt := range bm.bytes {
		if byt == 0xff {
			continue
		}
		if bit := byteFirstZero(byt); bit != 0xff {
			if slot := i*bitsPerByte + int(bit); slot < bm.len {
				return slot, true
			}
		}
		return 0, false
	}
	return 0, false
}

// Reserve marks `slot` as used. Reserving a used slot is a no-op.
func (bm *Bitmap) Reserve(slot int) {
	b := &bm.bytes[slot/bitsPerByte]
	bit := uint8(slot % bitsPerByte)
	if byteIsZero(*b, bit) {
		*b = byteSetHigh(*b, bit)
		bm.used++
	}
}

// Free marks `slot` as unused. Freeing a free slot is a no-op.
func (bm *Bitmap) Free(slot int) {
	b := &bm.bytes[slot/bitsPerByte]
	bit := uint8(slot % bitsPerByte)
	if !byteIsZero(*b, bit) {
		*b = byteSetLow(*b, bit)
		bm.used--
	}
}

func (bm *Bitmap) Used(slot int) bool {
	return !byteIsZero(bm.bytes[slot/bitsPerByte], uint8(slot%bitsPerByte))
}

// Count returns the number of used slots.
func (bm *Bitmap) Count() int { return bm.used }

func (bm *Bitmap) Len() int { return bm.len }

func byteIsZero(byt byte, bit uint8) bool {
	return byt&(0b1000_0000>>bit) == 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (0b1000_0000 >> bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt & ^(0b1000_0000 >> bit)
}

func byteFirstZero(byt byte) uint8 {
	for bit := uint8(0); bit < 8; bit++ {
		if byteIsZero(byt, bit) {
			return bit
		}
	}
	return 0xFF
}
