// Package fat manages the allocation table: one entry per data block, linking
// each block of a file to the next.
package fat

import (
	"fmt"
	"iter"

	"github.com/weberc2/fatfs/pkg/encode"
	. "github.com/weberc2/fatfs/pkg/types"
)

const free Block = 0

// Table is the in-memory mirror of the allocation table. Entry `0` is always
// `EOC` and never handed out.
type Table struct {
	entries []Block
	free    Block
	dirty   bool
}

// New returns an empty table for `dataBlocks` data blocks.
func New(dataBlocks Block) Table {
	t := Table{entries: make([]Block, dataBlocks)}
	if dataBlocks > 0 {
		t.entries[0] = EOC
		t.free = dataBlocks - 1
	}
	return t
}

// Decode loads the table from its encoded blocks and recounts free entries.
// The table must have been created with `New` for the right geometry.
func (t *Table) Decode(blocks [][BlockSize]byte) error {
	if len(t.entries) < 1 {
		return fmt.Errorf("decoding allocation table: no entries: %w", InvalidImageErr)
	}
	for i := range blocks {
		encode.DecodeFATEntries(t.entries, i*encode.FATEntriesPerBlock, &blocks[i])
	}
	if t.entries[0] != EOC {
		return fmt.Errorf(
			"decoding allocation table: entry `0` is `%#x`: %w",
			t.entries[0],
			InvalidImageErr,
		)
	}

	t.free = 0
	for _, entry := range t.entries[1:] {
		if entry == free {
			t.free++
		}
	}
	t.dirty = false
	return nil
}

// Encode writes the table into `blocks`, which must hold `FATBlocksFor(Len())`
// blocks.
func (t *Table) Encode(blocks [][BlockSize]byte) {
	for i := range blocks {
		encode.EncodeFATEntries(t.entries, i*encode.FATEntriesPerBlock, &blocks[i])
	}
}

// Len returns the number of entries, i.e. the number of data blocks.
func (t *Table) Len() Block { return Block(len(t.entries)) }

// Free returns the number of free data blocks.
func (t *Table) Free() Block { return t.free }

// Dirty reports whether the table changed since it was decoded or cleaned.
func (t *Table) Dirty() bool { return t.dirty }

func (t *Table) Clean() { t.dirty = false }

// Entry returns the raw entry for `b`.
func (t *Table) Entry(b Block) Block { return t.entries[b] }

// FirstFree returns the lowest free block.
func (t *Table) FirstFree() (Block, error) {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i] == free {
			return Block(i), nil
		}
	}
	return EOC, NoSpaceErr
}

// Alloc claims the lowest free block as a one-block chain.
func (t *Table) Alloc() (Block, error) {
	b, err := t.FirstFree()
	if err != nil {
		return EOC, err
	}
	t.entries[b] = EOC
	t.free--
	t.dirty = true
	return b, nil
}

// Extend appends a newly allocated block to the chain ending at `tail`.
func (t *Table) Extend(tail Block) (Block, error) {
	if err := t.check(tail); err != nil {
		return EOC, fmt.Errorf("extending chain at block `%d`: %w", tail, err)
	}
	if t.entries[tail] != EOC {
		return EOC, fmt.Errorf(
			"extending chain at block `%d`: not the end of its chain: %w",
			tail,
			notTailErr,
		)
	}
	b, err := t.Alloc()
	if err != nil {
		return EOC, err
	}
	t.entries[tail] = b
	return b, nil
}

// Next returns the block following `b` in its chain, or `EOC`.
func (t *Table) Next(b Block) Block {
	if t.check(b) != nil {
		return EOC
	}
	return t.entries[b]
}

// Nth returns the `n`th block (zero-based) of the chain starting at `first`,
// or `EOC` if the chain is shorter.
func (t *Table) Nth(first Block, n Block) Block {
	i := Block(0)
	for b := range t.Chain(first) {
		if i == n {
			return b
		}
		i++
	}
	return EOC
}

// Chain yields the blocks of the chain starting at `first`. An empty chain
// (`first == EOC`) yields nothing. The walk stops after `Len()` blocks so a
// corrupted, cyclic table can't loop forever.
func (t *Table) Chain(first Block) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		b := first
		for steps := 0; steps < len(t.entries); steps++ {
			if t.check(b) != nil {
				return
			}
			if !yield(b) {
				return
			}
			b = t.entries[b]
		}
	}
}

// ChainLen returns the number of blocks in the chain starting at `first`.
func (t *Table) ChainLen(first Block) Block {
	n := Block(0)
	for range t.Chain(first) {
		n++
	}
	return n
}

// FreeChain releases every block of the chain starting at `first`. `wipe`
// is called for each block before it's released so its contents can be
// zeroed; if it fails, the blocks visited so far stay released and the rest
// of the chain is untouched.
func (t *Table) FreeChain(first Block, wipe func(Block) error) (Block, error) {
	var freed Block
	b := first
	for steps := 0; steps < len(t.entries) && t.check(b) == nil; steps++ {
		next := t.entries[b]
		if wipe != nil {
			if err := wipe(b); err != nil {
				return freed, fmt.Errorf("freeing block `%d`: %w", b, err)
			}
		}
		t.entries[b] = free
		t.free++
		t.dirty = true
		freed++
		b = next
	}
	return freed, nil
}

const (
	blockOutOfRangeErr ConstError = "block out of range"
	notTailErr         ConstError = "not a chain tail"
)

// check reports whether `b` may appear in a chain: it must be in range, not
// the reserved entry `0`, and allocated.
func (t *Table) check(b Block) error {
	if b == 0 || int(b) >= len(t.entries) || t.entries[b] == free {
		return fmt.Errorf("block `%d`: %w", b, blockOutOfRangeErr)
	}
	return nil
}
