package disk

import (
	"errors"
	"fmt"
	"io"
	"os"

	. "github.com/weberc2/fatfs/pkg/types"
)

// File is an image file on the host file system. While open, the file is
// locked so that no other process can open the same image.
type File struct {
	file   *os.File
	blocks Block
}

// Create makes a zero-filled image of `blocks` blocks at `path`. It refuses
// to overwrite an existing file.
func (f *File) Create(path string, blocks Block) error {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("creating image `%s`: %w", path, ImageExistsErr)
		}
		return fmt.Errorf("creating image `%s`: %w", path, err)
	}
	if err := file.Truncate(int64(Byte(blocks) * BlockSize)); err != nil {
		file.Close()
		return fmt.Errorf("creating image `%s`: sizing: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("creating image `%s`: %w", path, err)
	}
	return nil
}

func (f *File) Open(path string) error {
	if f.file != nil {
		return fmt.Errorf("opening image `%s`: %w", path, AlreadyOpenErr)
	}
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("opening image `%s`: %w", path, NoSuchImageErr)
		}
		return fmt.Errorf("opening image `%s`: %w", path, err)
	}
	if err := lock(file); err != nil {
		file.Close()
		return fmt.Errorf("opening image `%s`: %w", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("opening image `%s`: %w", path, err)
	}
	if Byte(info.Size())%BlockSize != 0 ||
		Byte(info.Size())/BlockSize > Byte(maxBlocks) {
		file.Close()
		return fmt.Errorf(
			"opening image `%s` (`%d` bytes): %w",
			path,
			info.Size(),
			BadImageSizeErr,
		)
	}
	f.file = file
	f.blocks = Block(Byte(info.Size()) / BlockSize)
	return nil
}

// Close releases the lock and closes the image file.
func (f *File) Close() error {
	if f.file == nil {
		return fmt.Errorf("closing image: %w", NotOpenErr)
	}
	err := f.file.Close()
	f.file, f.blocks = nil, 0
	if err != nil {
		return fmt.Errorf("closing image: %w", err)
	}
	return nil
}

func (f *File) Count() Block { return f.blocks }

func (f *File) ReadBlock(b Block, p *[BlockSize]byte) error {
	if err := f.check(b); err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	if _, err := f.file.ReadAt(p[:], int64(Byte(b)*BlockSize)); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	return nil
}

func (f *File) WriteBlock(b Block, p *[BlockSize]byte) error {
	if err := f.check(b); err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	if _, err := f.file.WriteAt(p[:], int64(Byte(b)*BlockSize)); err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	return nil
}

func (f *File) check(b Block) error {
	if f.file == nil {
		return NotOpenErr
	}
	if b >= f.blocks {
		return fmt.Errorf("image has `%d` blocks: %w", f.blocks, OutOfRangeErr)
	}
	return nil
}
