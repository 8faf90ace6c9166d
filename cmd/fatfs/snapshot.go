package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/weberc2/fatfs/pkg/disk"
	"github.com/weberc2/fatfs/pkg/objectstore"
	"github.com/weberc2/fatfs/pkg/snapshot"
	. "github.com/weberc2/fatfs/pkg/types"
)

func (t *tool) withSnapshots(
	f func(objectstore.ObjectStore, disk.Device, *cli.Context) error,
) cli.ActionFunc {
	return t.withDevice(func(dev disk.Device, ctx *cli.Context) error {
		if t.config.Snapshot.Bucket == "" {
			return fmt.Errorf(
				"missing required configuration: snapshot.bucket / " +
					"FATFS_SNAPSHOT_BUCKET",
			)
		}
		store, err := objectstore.NewS3ObjectStore(t.config.Snapshot.Region)
		if err != nil {
			return err
		}
		return f(&objectstore.GzipObjectStore{ObjectStore: store}, dev, ctx)
	})
}

func (t *tool) push(
	store objectstore.ObjectStore,
	dev disk.Device,
	ctx *cli.Context,
) error {
	image, err := readImage(dev, t.config.Disk)
	if err != nil {
		return err
	}
	key := snapshot.NewKey(t.config.Snapshot.Prefix, t.config.Disk)
	digest, err := snapshot.Push(
		store,
		t.config.Snapshot.Bucket,
		key,
		bytes.NewReader(image),
	)
	if err != nil {
		return err
	}
	t.logger.Info("pushed snapshot", "key", key, "bytes", len(image))
	fmt.Printf("%s  %s\n", digest, key)
	return nil
}

func (t *tool) pull(
	store objectstore.ObjectStore,
	dev disk.Device,
	ctx *cli.Context,
) error {
	key := ctx.Args().First()
	if key == "" {
		return fmt.Errorf("missing required argument: KEY")
	}
	var image bytes.Buffer
	digest, err := snapshot.Pull(store, t.config.Snapshot.Bucket, key, &image)
	if err != nil {
		return err
	}
	if err := writeImage(dev, t.config.Disk, image.Bytes()); err != nil {
		return err
	}
	t.logger.Info("pulled snapshot", "key", key, "digest", digest.String())
	return nil
}

func (t *tool) listSnapshots(
	store objectstore.ObjectStore,
	dev disk.Device,
	ctx *cli.Context,
) error {
	keys, err := snapshot.List(
		store,
		t.config.Snapshot.Bucket,
		snapshot.NewKeyPrefix(t.config.Snapshot.Prefix, t.config.Disk),
	)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

// readImage copies every block of the image. Holding the device open keeps
// the image from being mounted meanwhile.
func readImage(dev disk.Device, name string) (data []byte, err error) {
	if err := dev.Open(name); err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("reading image: %w", closeErr))
		}
	}()

	var block [BlockSize]byte
	data = make([]byte, 0, Byte(dev.Count())*BlockSize)
	for b := Block(0); b < dev.Count(); b++ {
		if err := dev.ReadBlock(b, &block); err != nil {
			return nil, fmt.Errorf("reading image: %w", err)
		}
		data = append(data, block[:]...)
	}
	return data, nil
}

// writeImage replaces the contents of the image `name` with `data`, creating
// the image if the device supports it. An existing image must already be the
// right size.
func writeImage(dev disk.Device, name string, data []byte) (err error) {
	if Byte(len(data))%BlockSize != 0 {
		return fmt.Errorf("writing image: %w", disk.BadImageSizeErr)
	}
	blocks := Block(Byte(len(data)) / BlockSize)
	if creator, ok := dev.(disk.Creator); ok {
		if err := creator.Create(name, blocks); err != nil &&
			!errors.Is(err, disk.ImageExistsErr) {
			return fmt.Errorf("writing image: %w", err)
		}
	}
	if err := dev.Open(name); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	defer func() {
		if closeErr := dev.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("writing image: %w", closeErr))
		}
	}()

	if count := dev.Count(); count != blocks {
		return fmt.Errorf(
			"writing image: snapshot has `%d` blocks; image has `%d`: %w",
			blocks,
			count,
			disk.BadImageSizeErr,
		)
	}
	for b := Block(0); b < blocks; b++ {
		start := Byte(b) * BlockSize
		if err := dev.WriteBlock(
			b,
			(*[BlockSize]byte)(data[start:start+BlockSize]),
		); err != nil {
			return fmt.Errorf("writing image: %w", err)
		}
	}
	return nil
}
