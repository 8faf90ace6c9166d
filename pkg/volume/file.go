package volume

import (
	"fmt"

	. "github.com/weberc2/fatfs/pkg/types"
)

// Create adds an empty file called `name`.
func (v *Volume) Create(name string) error {
	if _, err := v.dir.Create(name); err != nil {
		return err
	}
	return nil
}

// Delete removes the file called `name` and releases its blocks, zeroing
// them. Open files can't be deleted.
func (v *Volume) Delete(name string) error {
	entry, err := v.dir.Lookup(name)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	if v.handles.InUse(name) {
		return fmt.Errorf("deleting file `%s`: %w", name, FileInUseErr)
	}

	var zeros [BlockSize]byte
	freed, err := v.fat.FreeChain(entry.FirstBlock, func(b Block) error {
		return v.writeBlock(v.Superblock.DeviceBlock(b), &zeros)
	})
	if err != nil {
		// the freed prefix is gone from the table; detach it from the entry
		entry.FirstBlock, entry.Size = EOC, 0
		return fmt.Errorf("deleting file `%s`: %w", name, err)
	}
	if _, err := v.dir.Remove(name); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	v.logger.Debug("freed chain", "file", name, "blocks", freed)
	return nil
}

// List returns the files in directory order.
func (v *Volume) List() []DirEntry { return v.dir.List() }

// Open returns a handle to the file called `name` with its cursor at `0`.
func (v *Volume) Open(name string) (FD, error) {
	if err := ValidateName(name); err != nil {
		return -1, fmt.Errorf("opening file: %w", err)
	}
	if _, err := v.dir.Lookup(name); err != nil {
		return -1, fmt.Errorf("opening file: %w", err)
	}
	return v.handles.Open(name)
}

func (v *Volume) Close(fd FD) error { return v.handles.Close(fd) }

// Stat returns the size of the file open as `fd`.
func (v *Volume) Stat(fd FD) (Byte, error) {
	_, entry, err := v.resolve(fd)
	if err != nil {
		return 0, fmt.Errorf("stating file: %w", err)
	}
	return entry.Size, nil
}

// Seek moves the cursor of `fd` to `offset`, which may be anywhere from the
// start of the file up to and including its end.
func (v *Volume) Seek(fd FD, offset Byte) error {
	h, entry, err := v.resolve(fd)
	if err != nil {
		return fmt.Errorf("seeking: %w", err)
	}
	if offset < 0 || offset > entry.Size {
		return fmt.Errorf(
			"seeking file `%s` to `%d`: size is `%d`: %w",
			h.Name,
			offset,
			entry.Size,
			OffsetOutOfRangeErr,
		)
	}
	h.Offset = offset
	return nil
}
