package volume

import (
	"errors"
	"fmt"

	"github.com/weberc2/fatfs/pkg/directory"
	"github.com/weberc2/fatfs/pkg/disk"
	"github.com/weberc2/fatfs/pkg/encode"
	"github.com/weberc2/fatfs/pkg/fat"
	. "github.com/weberc2/fatfs/pkg/types"
)

// Format lays out an empty volume with `dataBlocks` data blocks in the image
// `name`. If `dev` is a `disk.Creator` the image is created first unless it
// already exists; either way it must end up with exactly the right number of
// blocks. Data blocks are left as they are.
func Format(
	dev disk.Device,
	name string,
	dataBlocks Block,
	opts ...Option,
) (err error) {
	o := newOptions(opts)
	if dataBlocks < 2 || dataBlocks > MaxDataBlocks {
		return fmt.Errorf(
			"formatting `%s`: `%d` data blocks not in [2, %d]: %w",
			name,
			dataBlocks,
			MaxDataBlocks,
			InvalidGeometryErr,
		)
	}
	sb := NewSuperblock(dataBlocks)

	if creator, ok := dev.(disk.Creator); ok {
		if err := creator.Create(name, sb.TotalBlocks); err != nil &&
			!errors.Is(err, disk.ImageExistsErr) {
			return fmt.Errorf("formatting `%s`: %w: %w", name, DeviceErr, err)
		}
	}
	if err := dev.Open(name); err != nil {
		return fmt.Errorf("formatting `%s`: %w: %w", name, DeviceErr, err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("formatting `%s`: %w: %w", name, DeviceErr, closeErr),
			)
		}
	}()

	if count := dev.Count(); count != sb.TotalBlocks {
		return fmt.Errorf(
			"formatting `%s`: wanted `%d` device blocks; found `%d`: %w",
			name,
			sb.TotalBlocks,
			count,
			InvalidGeometryErr,
		)
	}

	var block [BlockSize]byte
	encode.EncodeSuperblock(&sb, &block)
	if err := writeFormatBlock(dev, 0, &block); err != nil {
		return fmt.Errorf("formatting `%s`: writing superblock: %w", name, err)
	}

	table := fat.New(dataBlocks)
	fatBlocks := make([][BlockSize]byte, sb.FATBlocks)
	table.Encode(fatBlocks)
	for i := range fatBlocks {
		if err := writeFormatBlock(dev, Block(1+i), &fatBlocks[i]); err != nil {
			return fmt.Errorf(
				"formatting `%s`: writing allocation table: %w",
				name,
				err,
			)
		}
	}

	dir := directory.New()
	dir.Encode(&block)
	if err := writeFormatBlock(dev, sb.DirectoryBlock, &block); err != nil {
		return fmt.Errorf("formatting `%s`: writing directory: %w", name, err)
	}

	o.logger.Debug(
		"formatted",
		"disk", name,
		"totalBlocks", sb.TotalBlocks,
		"fatBlocks", sb.FATBlocks,
		"dataBlocks", sb.DataBlocks,
	)
	return nil
}

func writeFormatBlock(dev disk.Device, b Block, p *[BlockSize]byte) error {
	if err := dev.WriteBlock(b, p); err != nil {
		return fmt.Errorf("%w: %w", DeviceErr, err)
	}
	return nil
}
