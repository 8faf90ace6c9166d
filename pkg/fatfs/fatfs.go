// Package fatfs exposes one volume at a time over a block device, the way a
// process mounts and unmounts a disk.
package fatfs

import (
	"errors"
	"fmt"

	"github.com/weberc2/fatfs/pkg/disk"
	. "github.com/weberc2/fatfs/pkg/types"
	"github.com/weberc2/fatfs/pkg/volume"
)

type FileSystem struct {
	dev     disk.Device
	opts    []volume.Option
	mounted *volume.Volume
}

func New(dev disk.Device, opts ...volume.Option) *FileSystem {
	return &FileSystem{dev: dev, opts: opts}
}

func (fs *FileSystem) Mount(name string) error {
	if fs.mounted != nil {
		return fmt.Errorf(
			"mounting `%s`: `%s` is mounted: %w",
			name,
			fs.mounted.Name,
			AlreadyMountedErr,
		)
	}
	v, err := volume.Mount(fs.dev, name, fs.opts...)
	if err != nil {
		return err
	}
	fs.mounted = v
	return nil
}

// Unmount flushes and releases the mounted volume. If files are still open
// the volume stays mounted; any other failure leaves nothing mounted.
func (fs *FileSystem) Unmount() error {
	v, err := fs.volume()
	if err != nil {
		return fmt.Errorf("unmounting: %w", err)
	}
	if err := v.Unmount(); err != nil {
		if !errors.Is(err, FilesStillOpenErr) {
			fs.mounted = nil
		}
		return err
	}
	fs.mounted = nil
	return nil
}

func (fs *FileSystem) Mounted() bool { return fs.mounted != nil }

func (fs *FileSystem) Info() (volume.Info, error) {
	v, err := fs.volume()
	if err != nil {
		return volume.Info{}, fmt.Errorf("getting info: %w", err)
	}
	return v.Info(), nil
}

func (fs *FileSystem) Create(name string) error {
	v, err := fs.volume()
	if err != nil {
		return fmt.Errorf("creating file `%s`: %w", name, err)
	}
	return v.Create(name)
}

func (fs *FileSystem) Delete(name string) error {
	v, err := fs.volume()
	if err != nil {
		return fmt.Errorf("deleting file `%s`: %w", name, err)
	}
	return v.Delete(name)
}

func (fs *FileSystem) List() ([]DirEntry, error) {
	v, err := fs.volume()
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return v.List(), nil
}

func (fs *FileSystem) Open(name string) (FD, error) {
	v, err := fs.volume()
	if err != nil {
		return -1, fmt.Errorf("opening file `%s`: %w", name, err)
	}
	return v.Open(name)
}

func (fs *FileSystem) Close(fd FD) error {
	v, err := fs.volume()
	if err != nil {
		return fmt.Errorf("closing file descriptor `%d`: %w", fd, err)
	}
	return v.Close(fd)
}

func (fs *FileSystem) Stat(fd FD) (Byte, error) {
	v, err := fs.volume()
	if err != nil {
		return 0, fmt.Errorf("stating file descriptor `%d`: %w", fd, err)
	}
	return v.Stat(fd)
}

func (fs *FileSystem) Seek(fd FD, offset Byte) error {
	v, err := fs.volume()
	if err != nil {
		return fmt.Errorf("seeking file descriptor `%d`: %w", fd, err)
	}
	return v.Seek(fd, offset)
}

func (fs *FileSystem) Read(fd FD, p []byte) (int, error) {
	v, err := fs.volume()
	if err != nil {
		return 0, fmt.Errorf("reading file descriptor `%d`: %w", fd, err)
	}
	return v.Read(fd, p)
}

func (fs *FileSystem) Write(fd FD, p []byte) (int, error) {
	v, err := fs.volume()
	if err != nil {
		return 0, fmt.Errorf("writing file descriptor `%d`: %w", fd, err)
	}
	return v.Write(fd, p)
}

func (fs *FileSystem) volume() (*volume.Volume, error) {
	if fs.mounted == nil {
		return nil, NotMountedErr
	}
	return fs.mounted, nil
}
