// Package directory implements the flat, fixed-capacity namespace of a volume.
package directory

import (
	"fmt"

	"github.com/weberc2/fatfs/pkg/alloc"
	"github.com/weberc2/fatfs/pkg/encode"
	. "github.com/weberc2/fatfs/pkg/types"
)

// Directory holds `MaxFiles` slots. A slot is either occupied (non-nil) or
// free (nil); `used` indexes the occupied slots so the lowest free one can be
// found without walking names, and `byName` resolves names to slots.
type Directory struct {
	slots  [MaxFiles]*DirEntry
	used   alloc.Bitmap
	byName map[string]int
}

func New() Directory {
	return Directory{
		used:   alloc.New(MaxFiles),
		byName: make(map[string]int, MaxFiles),
	}
}

// Create claims the lowest free slot for an empty file named `name`.
func (d *Directory) Create(name string) (*DirEntry, error) {
	slot, ok := d.used.FirstFree()
	if !ok {
		return nil, fmt.Errorf("creating file `%s`: %w", name, DirectoryFullErr)
	}
	if err := ValidateName(name); err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	if _, exists := d.byName[name]; exists {
		return nil, fmt.Errorf("creating file `%s`: %w", name, ExistsErr)
	}

	d.used.Reserve(slot)
	d.slots[slot] = &DirEntry{Name: name, Size: 0, FirstBlock: EOC}
	d.byName[name] = slot
	return d.slots[slot], nil
}

// Lookup returns the live entry for `name`. Changes made through the
// returned pointer are what `Encode` writes.
func (d *Directory) Lookup(name string) (*DirEntry, error) {
	slot, found := d.byName[name]
	if !found {
		return nil, fmt.Errorf("looking up file `%s`: %w", name, NoSuchFileErr)
	}
	return d.slots[slot], nil
}

// Remove frees the slot holding `name` and returns the entry it held. The
// entry's blocks are the caller's to release.
func (d *Directory) Remove(name string) (DirEntry, error) {
	slot, found := d.byName[name]
	if !found {
		return DirEntry{}, fmt.Errorf("removing file `%s`: %w", name, NoSuchFileErr)
	}
	entry := *d.slots[slot]
	d.slots[slot] = nil
	d.used.Free(slot)
	delete(d.byName, name)
	return entry, nil
}

// List returns copies of the occupied entries in slot order.
func (d *Directory) List() []DirEntry {
	entries := make([]DirEntry, 0, d.used.Count())
	for _, entry := range d.slots {
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries
}

// Free returns the number of free slots.
func (d *Directory) Free() int { return d.used.Len() - d.used.Count() }

func (d *Directory) Encode(b *[BlockSize]byte) {
	for i, entry := range d.slots {
		p := (*[DirEntrySize]byte)(b[Byte(i)*DirEntrySize:])
		if entry == nil {
			encode.EncodeFreeDirEntry(p)
		} else {
			encode.EncodeDirEntry(entry, p)
		}
	}
}

// Decode replaces the directory's contents with the entries stored in `b`.
// Duplicate names mean the image is corrupt.
func (d *Directory) Decode(b *[BlockSize]byte) error {
	decoded := New()
	for i := range decoded.slots {
		var entry DirEntry
		if !encode.DecodeDirEntry(
			&entry,
			(*[DirEntrySize]byte)(b[Byte(i)*DirEntrySize:]),
		) {
			continue
		}
		if prev, exists := decoded.byName[entry.Name]; exists {
			return fmt.Errorf(
				"decoding directory: slots `%d` and `%d` are both named "+
					"`%s`: %w",
				prev,
				i,
				entry.Name,
				InvalidImageErr,
			)
		}
		decoded.slots[i] = &entry
		decoded.used.Reserve(i)
		decoded.byName[entry.Name] = i
	}
	*d = decoded
	return nil
}
