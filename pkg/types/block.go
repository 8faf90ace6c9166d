package types

// Block indexes a block. Depending on context it is either a device block
// (superblock is `0`) or a data block (relative to the start of the data
// region; see `Superblock.DataStart`).
type Block uint16

// Byte is a count or offset in bytes.
type Byte int64

const (
	BlockSize Byte = 4096

	// EOC marks the last block of a chain in the allocation table. It is also
	// the `FirstBlock` of a file that has no blocks.
	EOC Block = 0xFFFF

	// FATEntrySize is the size of one encoded allocation table entry.
	FATEntrySize Byte = 2

	// MaxDataBlocks is the largest data region `Format` will lay out.
	MaxDataBlocks Block = 8192
)

// Signature is the magic value at the start of the superblock.
const Signature = "ECS150FS"
