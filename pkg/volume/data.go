package volume

import (
	"errors"
	"fmt"

	"github.com/weberc2/fatfs/pkg/handle"
	. "github.com/weberc2/fatfs/pkg/types"
)

// Read reads up to `len(p)` bytes from the cursor of `fd` and advances the
// cursor. At the end of the file it returns `0` and no error.
func (v *Volume) Read(fd FD, p []byte) (int, error) {
	h, entry, err := v.resolve(fd)
	if err != nil {
		return 0, fmt.Errorf("reading: %w", err)
	}
	length := min(Byte(len(p)), entry.Size-h.Offset)
	if length <= 0 {
		return 0, nil
	}

	var scratch [BlockSize]byte
	chunkBegin := Byte(0)
	b := v.fat.Nth(entry.FirstBlock, Block(h.Offset/BlockSize))
	for chunkBegin < length {
		if b == EOC {
			err = fmt.Errorf(
				"chain ends before offset `%d`: %w",
				h.Offset+chunkBegin,
				InvalidImageErr,
			)
			break
		}
		chunkOffset := (h.Offset + chunkBegin) % BlockSize
		chunkLength := min(length-chunkBegin, BlockSize-chunkOffset)
		device := v.Superblock.DeviceBlock(b)
		if chunkLength == BlockSize {
			err = v.readBlock(
				device,
				(*[BlockSize]byte)(p[chunkBegin:chunkBegin+BlockSize]),
			)
		} else if err = v.readBlock(device, &scratch); err == nil {
			copy(
				p[chunkBegin:chunkBegin+chunkLength],
				scratch[chunkOffset:chunkOffset+chunkLength],
			)
		}
		if err != nil {
			break
		}
		chunkBegin += chunkLength
		b = v.fat.Next(b)
	}

	h.Offset += chunkBegin
	if err != nil {
		return int(chunkBegin), fmt.Errorf(
			"reading file `%s` at offset `%d`: %w",
			h.Name,
			h.Offset,
			err,
		)
	}
	return int(chunkBegin), nil
}

// Write writes `p` at the cursor of `fd`, growing the file as needed, and
// advances the cursor. When the volume runs out of data blocks it stops
// early and returns the number of bytes written with no error.
func (v *Volume) Write(fd FD, p []byte) (int, error) {
	h, entry, err := v.resolve(fd)
	if err != nil {
		return 0, fmt.Errorf("writing: %w", err)
	}
	if len(p) < 1 {
		return 0, nil
	}

	var grown Block
	if entry.FirstBlock == EOC {
		head, err := v.fat.Alloc()
		if err != nil {
			return 0, v.writeErr(h, 0, err)
		}
		entry.FirstBlock = head
		grown++
	}

	// the cursor may sit just past the last block when the file size is a
	// multiple of the block size
	b := entry.FirstBlock
	for i := Block(0); i < Block(h.Offset/BlockSize); i++ {
		next := v.fat.Next(b)
		if next == EOC {
			if next, err = v.fat.Extend(b); err != nil {
				return 0, v.writeErr(h, 0, err)
			}
			grown++
		}
		b = next
	}

	var scratch [BlockSize]byte
	length := Byte(len(p))
	chunkBegin := Byte(0)
	for {
		chunkOffset := (h.Offset + chunkBegin) % BlockSize
		chunkLength := min(length-chunkBegin, BlockSize-chunkOffset)
		device := v.Superblock.DeviceBlock(b)
		if chunkLength == BlockSize {
			err = v.writeBlock(
				device,
				(*[BlockSize]byte)(p[chunkBegin:chunkBegin+BlockSize]),
			)
		} else if err = v.readBlock(device, &scratch); err == nil {
			copy(
				scratch[chunkOffset:chunkOffset+chunkLength],
				p[chunkBegin:chunkBegin+chunkLength],
			)
			err = v.writeBlock(device, &scratch)
		}
		if err != nil {
			break
		}
		chunkBegin += chunkLength
		if chunkBegin >= length {
			break
		}

		next := v.fat.Next(b)
		if next == EOC {
			if next, err = v.fat.Extend(b); err != nil {
				break
			}
			grown++
		}
		b = next
	}

	if grown > 0 {
		v.logger.Debug(
			"extended chain",
			"file", h.Name,
			"blocks", grown,
			"freeBlocks", v.fat.Free(),
		)
	}
	end := h.Offset + chunkBegin
	if end > entry.Size {
		entry.Size = end
	}
	h.Offset = end
	return int(chunkBegin), v.writeErr(h, chunkBegin, err)
}

// writeErr treats running out of space as a short write rather than a
// failure.
func (v *Volume) writeErr(h *handle.Handle, written Byte, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, NoSpaceErr) {
		v.logger.Debug("volume full", "file", h.Name, "written", written)
		return nil
	}
	return fmt.Errorf("writing file `%s`: %w", h.Name, err)
}

func (v *Volume) resolve(fd FD) (*handle.Handle, *DirEntry, error) {
	h, err := v.handles.Get(fd)
	if err != nil {
		return nil, nil, err
	}
	entry, err := v.dir.Lookup(h.Name)
	if err != nil {
		return nil, nil, err
	}
	return h, entry, nil
}
