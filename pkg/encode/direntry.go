package encode

import (
	"bytes"

	. "github.com/weberc2/fatfs/pkg/types"
)

// EncodeDirEntry encodes an occupied entry. Names are assumed to have passed
// `ValidateName`; anything past `MaxFilenameLen` is dropped so the NUL
// terminator always fits.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	clear(p)
	copy(p[dirEntryNameStart:dirEntryNameStart+MaxFilenameLen], entry.Name)
	putU32(p, dirEntrySizeStart, uint32(entry.Size))
	putBlock(p, dirEntryFirstBlockStart, entry.FirstBlock)
}

// EncodeFreeDirEntry encodes an unused slot: a NUL name, zero size and no
// blocks.
func EncodeFreeDirEntry(b *[DirEntrySize]byte) {
	p := b[:]
	clear(p)
	putBlock(p, dirEntryFirstBlockStart, EOC)
}

// DecodeDirEntry returns false if the slot is free (its name starts with
// NUL), in which case `entry` is left untouched.
func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) bool {
	p := b[:]
	name := p[dirEntryNameStart:dirEntryNameEnd]
	if name[0] == 0 {
		return false
	}
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	entry.Name = string(name)
	entry.Size = Byte(getU32(p, dirEntrySizeStart))
	entry.FirstBlock = getBlock(p, dirEntryFirstBlockStart)
	return true
}

const (
	dirEntryNameStart Byte = 0
	dirEntryNameSize  Byte = FilenameLen
	dirEntryNameEnd        = dirEntryNameStart + dirEntryNameSize

	dirEntrySizeStart = dirEntryNameEnd
	dirEntrySizeSize  = 4
	dirEntrySizeEnd   = dirEntrySizeStart + dirEntrySizeSize

	dirEntryFirstBlockStart = dirEntrySizeEnd
)
