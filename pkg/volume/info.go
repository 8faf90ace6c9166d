package volume

import (
	"fmt"
	"strings"

	. "github.com/weberc2/fatfs/pkg/types"
)

type Info struct {
	TotalBlocks    Block
	FATBlocks      uint8
	DirectoryBlock Block
	DataStart      Block
	DataBlocks     Block
	FreeBlocks     Block
	FreeSlots      int
}

func (v *Volume) Info() Info {
	return Info{
		TotalBlocks:    v.Superblock.TotalBlocks,
		FATBlocks:      v.Superblock.FATBlocks,
		DirectoryBlock: v.Superblock.DirectoryBlock,
		DataStart:      v.Superblock.DataStart,
		DataBlocks:     v.Superblock.DataBlocks,
		FreeBlocks:     v.fat.Free(),
		FreeSlots:      v.dir.Free(),
	}
}

func (info *Info) String() string {
	var sb strings.Builder
	sb.WriteString("FS Info:\n")
	fmt.Fprintf(&sb, "total_blk_count=%d\n", info.TotalBlocks)
	fmt.Fprintf(&sb, "fat_blk_count=%d\n", info.FATBlocks)
	fmt.Fprintf(&sb, "rdir_blk=%d\n", info.DirectoryBlock)
	fmt.Fprintf(&sb, "data_blk=%d\n", info.DataStart)
	fmt.Fprintf(&sb, "data_blk_count=%d\n", info.DataBlocks)
	fmt.Fprintf(&sb, "fat_free_ratio=%d/%d\n", info.FreeBlocks, info.DataBlocks)
	fmt.Fprintf(&sb, "rdir_free_ratio=%d/%d\n", info.FreeSlots, MaxFiles)
	return sb.String()
}
