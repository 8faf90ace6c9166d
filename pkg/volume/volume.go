// Package volume mounts a formatted image and serves file operations on it.
// All metadata lives in memory while mounted and is written back on unmount.
package volume

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/weberc2/fatfs/pkg/directory"
	"github.com/weberc2/fatfs/pkg/disk"
	"github.com/weberc2/fatfs/pkg/encode"
	"github.com/weberc2/fatfs/pkg/fat"
	"github.com/weberc2/fatfs/pkg/handle"
	. "github.com/weberc2/fatfs/pkg/types"
)

type Volume struct {
	ID         uuid.UUID
	Name       string
	Superblock Superblock

	dev     disk.Device
	fat     fat.Table
	dir     directory.Directory
	handles handle.Table
	logger  *slog.Logger
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

// WithLogger sets the logger for mount lifecycle and allocation events. By
// default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Mount opens the image `name` on `dev` and loads its metadata. The device is
// closed again if the image can't be mounted.
func Mount(dev disk.Device, name string, opts ...Option) (*Volume, error) {
	o := newOptions(opts)
	if err := dev.Open(name); err != nil {
		return nil, fmt.Errorf("mounting `%s`: %w: %w", name, DeviceErr, err)
	}

	v := Volume{
		ID:      uuid.New(),
		Name:    name,
		dev:     dev,
		dir:     directory.New(),
		handles: handle.New(),
		logger:  o.logger,
	}
	if err := v.load(); err != nil {
		if closeErr := dev.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("%w: %w", DeviceErr, closeErr))
		}
		return nil, fmt.Errorf("mounting `%s`: %w", name, err)
	}

	v.logger = v.logger.With("mount", v.ID.String(), "disk", name)
	v.logger.Debug(
		"mounted",
		"dataBlocks", v.Superblock.DataBlocks,
		"freeBlocks", v.fat.Free(),
		"freeSlots", v.dir.Free(),
	)
	return &v, nil
}

func (v *Volume) load() error {
	var block [BlockSize]byte
	if err := v.readBlock(0, &block); err != nil {
		return fmt.Errorf("reading superblock: %w", err)
	}
	if err := encode.DecodeSuperblock(&v.Superblock, &block); err != nil {
		return err
	}
	if count := v.dev.Count(); v.Superblock.TotalBlocks != count {
		return fmt.Errorf(
			"superblock has `%d` total blocks; device has `%d`: %w",
			v.Superblock.TotalBlocks,
			count,
			InvalidImageErr,
		)
	}

	fatBlocks := make([][BlockSize]byte, v.Superblock.FATBlocks)
	for i := range fatBlocks {
		if err := v.readBlock(Block(1+i), &fatBlocks[i]); err != nil {
			return fmt.Errorf("reading allocation table: %w", err)
		}
	}
	v.fat = fat.New(v.Superblock.DataBlocks)
	if err := v.fat.Decode(fatBlocks); err != nil {
		return err
	}

	if err := v.readBlock(v.Superblock.DirectoryBlock, &block); err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}
	return v.dir.Decode(&block)
}

// Unmount writes the directory and, if it changed, the allocation table back
// to the device and closes it. It refuses while any file is open. Whatever
// happens during the flush, the device is closed and the volume is no longer
// usable afterwards.
func (v *Volume) Unmount() error {
	if open := v.handles.Count(); open > 0 {
		return fmt.Errorf(
			"unmounting `%s`: `%d` open files: %w",
			v.Name,
			open,
			FilesStillOpenErr,
		)
	}

	err := v.flush()
	if closeErr := v.dev.Close(); closeErr != nil {
		err = errors.Join(err, fmt.Errorf("%w: %w", DeviceErr, closeErr))
	}
	if err != nil {
		v.logger.Error("unmounting", "err", err)
		return fmt.Errorf("unmounting `%s`: %w", v.Name, err)
	}
	v.logger.Debug("unmounted")
	return nil
}

func (v *Volume) flush() error {
	var block [BlockSize]byte
	v.dir.Encode(&block)
	if err := v.writeBlock(v.Superblock.DirectoryBlock, &block); err != nil {
		return fmt.Errorf("flushing directory: %w", err)
	}

	if !v.fat.Dirty() {
		return nil
	}
	fatBlocks := make([][BlockSize]byte, v.Superblock.FATBlocks)
	v.fat.Encode(fatBlocks)
	for i := range fatBlocks {
		if err := v.writeBlock(Block(1+i), &fatBlocks[i]); err != nil {
			return fmt.Errorf("flushing allocation table: %w", err)
		}
	}
	v.fat.Clean()
	return nil
}

func (v *Volume) readBlock(b Block, p *[BlockSize]byte) error {
	if err := v.dev.ReadBlock(b, p); err != nil {
		return fmt.Errorf("%w: %w", DeviceErr, err)
	}
	return nil
}

func (v *Volume) writeBlock(b Block, p *[BlockSize]byte) error {
	if err := v.dev.WriteBlock(b, p); err != nil {
		return fmt.Errorf("%w: %w", DeviceErr, err)
	}
	return nil
}
