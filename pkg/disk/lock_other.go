//go:build !unix

package disk

import "os"

func lock(*os.File) error { return nil }
