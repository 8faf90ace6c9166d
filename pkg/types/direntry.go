package types

import (
	"fmt"
	"strings"
)

const (
	// FilenameLen is the width of the name field of a directory entry,
	// including the terminating NUL.
	FilenameLen = 16

	// MaxFilenameLen is the longest name that fits in a directory entry.
	MaxFilenameLen = FilenameLen - 1

	// MaxFiles is the directory capacity.
	MaxFiles = 128

	DirEntrySize Byte = 32
)

type DirEntry struct {
	Name       string
	Size       Byte
	FirstBlock Block
}

// ValidateName reports `InvalidNameErr` for names that cannot be stored in a
// directory entry.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("validating file name: empty: %w", InvalidNameErr)
	}
	if len(name) > MaxFilenameLen {
		return fmt.Errorf(
			"validating file name `%s`: longer than `%d` bytes: %w",
			name,
			MaxFilenameLen,
			InvalidNameErr,
		)
	}
	if strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf(
			"validating file name `%q`: contains NUL: %w",
			name,
			InvalidNameErr,
		)
	}
	return nil
}
