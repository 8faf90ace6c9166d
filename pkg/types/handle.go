package types

// FD identifies an open file. It is the index of the handle's slot in the
// open file table.
type FD int

// MaxOpenFiles is the capacity of the open file table.
const MaxOpenFiles = 32
