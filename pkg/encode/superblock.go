package encode

import (
	"fmt"

	. "github.com/weberc2/fatfs/pkg/types"
)

func EncodeSuperblock(sb *Superblock, b *[BlockSize]byte) {
	p := b[:]
	clear(p)
	copy(p[superblockSignatureStart:superblockSignatureEnd], Signature)
	putBlock(p, superblockTotalBlocksStart, sb.TotalBlocks)
	putBlock(p, superblockDirectoryStart, sb.DirectoryBlock)
	putBlock(p, superblockDataStartStart, sb.DataStart)
	putBlock(p, superblockDataBlocksStart, sb.DataBlocks)
	putU8(p, superblockFATBlocksStart, sb.FATBlocks)
}

// DecodeSuperblock validates the signature and the geometry before touching
// `sb`.
func DecodeSuperblock(sb *Superblock, b *[BlockSize]byte) error {
	p := b[:]
	if sig := string(
		p[superblockSignatureStart:superblockSignatureEnd],
	); sig != Signature {
		return fmt.Errorf(
			"decoding superblock: signature `%q`: %w",
			sig,
			InvalidImageErr,
		)
	}

	decoded := Superblock{
		TotalBlocks:    getBlock(p, superblockTotalBlocksStart),
		DirectoryBlock: getBlock(p, superblockDirectoryStart),
		DataStart:      getBlock(p, superblockDataStartStart),
		DataBlocks:     getBlock(p, superblockDataBlocksStart),
		FATBlocks:      getU8(p, superblockFATBlocksStart),
	}
	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("decoding superblock: %w", err)
	}
	*sb = decoded
	return nil
}

const (
	superblockSignatureStart Byte = 0
	superblockSignatureSize  Byte = Byte(len(Signature))
	superblockSignatureEnd        = superblockSignatureStart + superblockSignatureSize

	superblockTotalBlocksStart = superblockSignatureEnd
	superblockTotalBlocksSize  = 2
	superblockTotalBlocksEnd   = superblockTotalBlocksStart + superblockTotalBlocksSize

	superblockDirectoryStart = superblockTotalBlocksEnd
	superblockDirectorySize  = 2
	superblockDirectoryEnd   = superblockDirectoryStart + superblockDirectorySize

	superblockDataStartStart = superblockDirectoryEnd
	superblockDataStartSize  = 2
	superblockDataStartEnd   = superblockDataStartStart + superblockDataStartSize

	superblockDataBlocksStart = superblockDataStartEnd
	superblockDataBlocksSize  = 2
	superblockDataBlocksEnd   = superblockDataBlocksStart + superblockDataBlocksSize

	superblockFATBlocksStart = superblockDataBlocksEnd
)
