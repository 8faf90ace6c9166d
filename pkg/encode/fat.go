package encode

import (
	. "github.com/weberc2/fatfs/pkg/types"
)

// EncodeFATEntries packs `entries` into `b` starting at entry `first`.
// Entries that don't fit are ignored; the caller passes the blocks in order.
func EncodeFATEntries(entries []Block, first int, b *[BlockSize]byte) {
	p := b[:]
	clear(p)
	for i := 0; i < FATEntriesPerBlock && first+i < len(entries); i++ {
		putBlock(p, Byte(i)*FATEntrySize, entries[first+i])
	}
}

// DecodeFATEntries is the inverse of `EncodeFATEntries`. Padding past the last
// entry is ignored.
func DecodeFATEntries(entries []Block, first int, b *[BlockSize]byte) {
	p := b[:]
	for i := 0; i < FATEntriesPerBlock && first+i < len(entries); i++ {
		entries[first+i] = getBlock(p, Byte(i)*FATEntrySize)
	}
}

const FATEntriesPerBlock = int(BlockSize / FATEntrySize)
