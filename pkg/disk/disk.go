// Package disk provides fixed-size block devices for volumes to live on.
package disk

import (
	. "github.com/weberc2/fatfs/pkg/types"
)

// Device is a whole-block store addressed by zero-based block index. A device
// is opened by name, used, then closed; it may be reopened afterwards.
type Device interface {
	Open(name string) error
	Close() error

	// Count returns the number of blocks on the open device.
	Count() Block

	ReadBlock(b Block, p *[BlockSize]byte) error
	WriteBlock(b Block, p *[BlockSize]byte) error
}

// Creator is implemented by devices that can make new, zero-filled images.
type Creator interface {
	Create(name string, blocks Block) error
}

const (
	NotOpenErr      ConstError = "device not open"
	AlreadyOpenErr  ConstError = "device already open"
	OutOfRangeErr   ConstError = "block out of range"
	BadImageSizeErr ConstError = "image size is not a whole number of blocks"
	NoSuchImageErr  ConstError = "no such image"
	ImageExistsErr  ConstError = "image already exists"
	LockedErr       ConstError = "image locked by another process"
)

// maxBlocks is the most blocks a `Block` can count.
const maxBlocks = Block(0xFFFF)

var (
	_ Device  = (*File)(nil)
	_ Creator = (*File)(nil)
	_ Device  = (*Memory)(nil)
	_ Creator = (*Memory)(nil)
)
