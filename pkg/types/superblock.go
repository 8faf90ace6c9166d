package types

import "fmt"

// Superblock describes the geometry of a volume. It is stored at block `0`.
type Superblock struct {
	TotalBlocks    Block
	DirectoryBlock Block
	DataStart      Block
	DataBlocks     Block
	FATBlocks      uint8
}

// NewSuperblock lays out a volume with `dataBlocks` data blocks: the
// superblock, as many FAT blocks as are needed to hold one entry per data
// block, one directory block, then the data region.
func NewSuperblock(dataBlocks Block) Superblock {
	fatBlocks := FATBlocksFor(dataBlocks)
	return Superblock{
		TotalBlocks:    1 + Block(fatBlocks) + 1 + dataBlocks,
		DirectoryBlock: 1 + Block(fatBlocks),
		DataStart:      2 + Block(fatBlocks),
		DataBlocks:     dataBlocks,
		FATBlocks:      fatBlocks,
	}
}

// FATBlocksFor returns the number of blocks needed to store an allocation
// table with `dataBlocks` entries.
func FATBlocksFor(dataBlocks Block) uint8 {
	size := Byte(dataBlocks) * FATEntrySize
	blocks := size / BlockSize
	if size%BlockSize != 0 {
		blocks++
	}
	return uint8(blocks)
}

// Validate checks the geometry invariants of the superblock.
func (sb *Superblock) Validate() error {
	if sb.DataBlocks < 1 {
		return fmt.Errorf(
			"validating superblock: data block count `%d`: %w",
			sb.DataBlocks,
			InvalidImageErr,
		)
	}
	if fat := FATBlocksFor(sb.DataBlocks); sb.FATBlocks != fat {
		return fmt.Errorf(
			"validating superblock: wanted `%d` fat blocks for `%d` data "+
				"blocks; found `%d`: %w",
			fat,
			sb.DataBlocks,
			sb.FATBlocks,
			InvalidImageErr,
		)
	}
	if sb.DirectoryBlock != 1+Block(sb.FATBlocks) {
		return fmt.Errorf(
			"validating superblock: wanted directory block `%d`; found "+
				"`%d`: %w",
			1+Block(sb.FATBlocks),
			sb.DirectoryBlock,
			InvalidImageErr,
		)
	}
	if sb.DataStart != sb.DirectoryBlock+1 {
		return fmt.Errorf(
			"validating superblock: wanted data start `%d`; found `%d`: %w",
			sb.DirectoryBlock+1,
			sb.DataStart,
			InvalidImageErr,
		)
	}
	if uint32(sb.TotalBlocks) != uint32(sb.DataStart)+uint32(sb.DataBlocks) {
		return fmt.Errorf(
			"validating superblock: wanted `%d` total blocks; found `%d`: %w",
			uint32(sb.DataStart)+uint32(sb.DataBlocks),
			sb.TotalBlocks,
			InvalidImageErr,
		)
	}
	return nil
}

// DeviceBlock maps a data block index to its device block.
func (sb *Superblock) DeviceBlock(data Block) Block {
	return sb.DataStart + data
}
