package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/weberc2/fatfs/pkg/config"
	"github.com/weberc2/fatfs/pkg/disk"
	"github.com/weberc2/fatfs/pkg/disk/pgdisk"
	"github.com/weberc2/fatfs/pkg/pgutil"
	"github.com/weberc2/fatfs/pkg/volume"
)

type tool struct {
	config *config.Config
	logger *slog.Logger
}

func (t *tool) before(ctx *cli.Context) error {
	c, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if ctx.IsSet("disk") {
		c.Disk = ctx.String("disk")
	}
	if err := c.Validate(); err != nil {
		return err
	}
	level, err := c.Level()
	if err != nil {
		return err
	}

	t.config = c
	t.logger = slog.New(slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	))
	return nil
}

// withDevice hands `f` the configured backend, released when `f` returns.
func (t *tool) withDevice(
	f func(disk.Device, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		switch t.config.Backend {
		case config.BackendPostgres:
			return t.withPGDevice(func(dev *pgdisk.Device, ctx *cli.Context) error {
				return f(dev, ctx)
			})(ctx)
		case config.BackendMemory:
			dev, err := t.memoryDevice()
			if err != nil {
				return err
			}
			return f(dev, ctx)
		default:
			return f(new(disk.File), ctx)
		}
	}
}

// memoryDevice loads the disk image file, if there is one, into memory.
// Changes are discarded on exit.
func (t *tool) memoryDevice() (*disk.Memory, error) {
	dev := disk.NewMemory()
	data, err := os.ReadFile(t.config.Disk)
	if err != nil {
		if os.IsNotExist(err) {
			return dev, nil
		}
		return nil, fmt.Errorf("loading disk `%s`: %w", t.config.Disk, err)
	}
	if err := dev.Put(t.config.Disk, data); err != nil {
		return nil, fmt.Errorf("loading disk: %w", err)
	}
	t.logger.Debug("loaded disk into memory", "disk", t.config.Disk)
	return dev, nil
}

func (t *tool) withPGDevice(
	f func(*pgdisk.Device, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		db, err := pgutil.OpenPing(&t.config.Postgres)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("closing postgres: %w", closeErr))
			}
		}()
		return f(pgdisk.New(db), ctx)
	}
}

// withVolume mounts the disk for `f` and unmounts it afterwards, even if `f`
// fails.
func (t *tool) withVolume(
	f func(*volume.Volume, *cli.Context) error,
) cli.ActionFunc {
	return t.withDevice(func(dev disk.Device, ctx *cli.Context) error {
		v, err := volume.Mount(dev, t.config.Disk, volume.WithLogger(t.logger))
		if err != nil {
			return err
		}
		err = f(v, ctx)
		if unmountErr := v.Unmount(); unmountErr != nil {
			err = errors.Join(err, unmountErr)
		}
		return err
	})
}

func ensureTables(dev *pgdisk.Device, ctx *cli.Context) error {
	return dev.EnsureTables()
}

func dropTables(dev *pgdisk.Device, ctx *cli.Context) error {
	return dev.DropTables()
}
