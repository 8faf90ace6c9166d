package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/urfave/cli/v2"
	"github.com/weberc2/fatfs/pkg/disk"
	. "github.com/weberc2/fatfs/pkg/types"
	"github.com/weberc2/fatfs/pkg/volume"
)

func (t *tool) format(dev disk.Device, ctx *cli.Context) error {
	blocks := t.config.DataBlocks
	if ctx.IsSet("blocks") {
		blocks = Block(min(ctx.Uint("blocks"), uint(MaxDataBlocks)+1))
	}
	return volume.Format(dev, t.config.Disk, blocks, volume.WithLogger(t.logger))
}

func info(v *volume.Volume, ctx *cli.Context) error {
	fsInfo := v.Info()
	_, err := fmt.Print(fsInfo.String())
	return err
}

func ls(v *volume.Volume, ctx *cli.Context) error {
	var sb strings.Builder
	sb.WriteString("FS Ls:\n")
	for _, entry := range v.List() {
		fmt.Fprintf(
			&sb,
			"file: %s, size: %d, data_blk: %d\n",
			entry.Name,
			entry.Size,
			entry.FirstBlock,
		)
	}
	_, err := fmt.Print(sb.String())
	return err
}

func create(v *volume.Volume, ctx *cli.Context) error {
	name, err := nameArg(ctx)
	if err != nil {
		return err
	}
	return v.Create(name)
}

func rm(v *volume.Volume, ctx *cli.Context) error {
	name, err := nameArg(ctx)
	if err != nil {
		return err
	}
	return v.Delete(name)
}

func stat(v *volume.Volume, ctx *cli.Context) error {
	name, err := nameArg(ctx)
	if err != nil {
		return err
	}
	return withFile(v, name, func(fd FD) error {
		size, err := v.Stat(fd)
		if err != nil {
			return err
		}
		fmt.Printf("Size of file '%s' is %d bytes\n", name, size)
		return nil
	})
}

func put(v *volume.Volume, ctx *cli.Context) error {
	hostFile := ctx.Args().First()
	if hostFile == "" {
		return fmt.Errorf("missing required argument: HOSTFILE")
	}
	data, err := os.ReadFile(hostFile)
	if err != nil {
		return fmt.Errorf("reading host file: %w", err)
	}

	name := filepath.Base(hostFile)
	switch {
	case ctx.IsSet("name"):
		name = ctx.String("name")
	case ctx.Bool("slug"):
		name = slugName(name)
	}

	if err := v.Create(name); err != nil {
		return err
	}
	return withFile(v, name, func(fd FD) error {
		n, err := v.Write(fd, data)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote file '%s' (%d/%d bytes)\n", name, n, len(data))
		if n < len(data) {
			return fmt.Errorf("writing file `%s`: %w", name, NoSpaceErr)
		}
		return nil
	})
}

// slugName turns a host file name into a lowercase, dash-separated name short
// enough for the directory.
func slugName(hostName string) string {
	s := slug.Make(hostName)
	if len(s) > MaxFilenameLen {
		s = strings.TrimRight(s[:MaxFilenameLen], "-")
	}
	return s
}

func cat(v *volume.Volume, ctx *cli.Context) error {
	name, err := nameArg(ctx)
	if err != nil {
		return err
	}
	return withFile(v, name, func(fd FD) error {
		if err := v.Seek(fd, Byte(ctx.Int64("offset"))); err != nil {
			return err
		}
		size, err := v.Stat(fd)
		if err != nil {
			return err
		}
		count := size - Byte(ctx.Int64("offset"))
		if c := ctx.Int64("count"); c >= 0 {
			count = min(count, Byte(c))
		}

		buf := make([]byte, count)
		n, err := v.Read(fd, buf)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(buf[:n]); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	})
}

// withFile opens `name` for the duration of `f`.
func withFile(v *volume.Volume, name string, f func(FD) error) error {
	fd, err := v.Open(name)
	if err != nil {
		return err
	}
	err = f(fd)
	if closeErr := v.Close(fd); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

func nameArg(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("wanted exactly one argument: NAME")
	}
	return ctx.Args().First(), nil
}
