//go:build unix

package disk

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// lock takes an exclusive advisory lock on the image. It's released when the
// file is closed.
func lock(file *os.File) error {
	if err := unix.Flock(
		int(file.Fd()),
		unix.LOCK_EX|unix.LOCK_NB,
	); err != nil {
		if errors.Is(err, unix.EWOULDBLOCK) {
			return LockedErr
		}
		return err
	}
	return nil
}
