package handle

import (
	"fmt"

	"github.com/weberc2/fatfs/pkg/alloc"
	. "github.com/weberc2/fatfs/pkg/types"
)

// Handle is an open file: the name of its directory entry and a cursor.
// Handles refer to files by name because directory slots come and go.
type Handle struct {
	Name   string
	Offset Byte
}

type Table struct {
	handles [MaxOpenFiles]Handle
	used    alloc.Bitmap
}

func New() Table {
	return Table{used: alloc.New(MaxOpenFiles)}
}

// Open claims the lowest free handle for `name` with its cursor at `0`. The
// caller is responsible for checking that `name` exists.
func (t *Table) Open(name string) (FD, error) {
	slot, ok := t.used.Alloc()
	if !ok {
		return -1, fmt.Errorf("opening file `%s`: %w", name, TooManyOpenErr)
	}
	t.handles[slot] = Handle{Name: name}
	return FD(slot), nil
}

func (t *Table) Close(fd FD) error {
	if err := t.check(fd); err != nil {
		return fmt.Errorf("closing file descriptor: %w", err)
	}
	t.handles[fd] = Handle{}
	t.used.Free(int(fd))
	return nil
}

// Get returns the live handle for `fd`.
func (t *Table) Get(fd FD) (*Handle, error) {
	if err := t.check(fd); err != nil {
		return nil, err
	}
	return &t.handles[fd], nil
}

// InUse reports whether any handle refers to `name`.
func (t *Table) InUse(name string) bool {
	for i := range t.handles {
		if t.used.Used(i) && t.handles[i].Name == name {
			return true
		}
	}
	return false
}

// Count returns the number of open handles.
func (t *Table) Count() int { return t.used.Count() }

func (t *Table) check(fd FD) error {
	if fd < 0 || int(fd) >= t.used.Len() || !t.used.Used(int(fd)) {
		return fmt.Errorf("file descriptor `%d`: %w", fd, BadHandleErr)
	}
	return nil
}
