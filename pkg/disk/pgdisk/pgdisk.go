// Package pgdisk stores disk images in Postgres. Each written block is a row;
// blocks that were never written read back as zeros.
package pgdisk

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/weberc2/fatfs/pkg/disk"
	. "github.com/weberc2/fatfs/pkg/types"
)

type Device struct {
	db     *sql.DB
	name   string
	blocks Block
	open   bool
}

func New(db *sql.DB) *Device { return &Device{db: db} }

func (d *Device) EnsureTables() error {
	if _, err := d.db.Exec(
		"CREATE TABLE IF NOT EXISTS disks (" +
			"name VARCHAR(255) NOT NULL PRIMARY KEY, " +
			"blocks INTEGER NOT NULL)",
	); err != nil {
		return fmt.Errorf("creating `disks` postgres table: %w", err)
	}
	if _, err := d.db.Exec(
		"CREATE TABLE IF NOT EXISTS blocks (" +
			"disk VARCHAR(255) NOT NULL REFERENCES disks (name) " +
			"ON DELETE CASCADE, " +
			"idx INTEGER NOT NULL, " +
			"data BYTEA NOT NULL, " +
			"PRIMARY KEY (disk, idx))",
	); err != nil {
		return fmt.Errorf("creating `blocks` postgres table: %w", err)
	}
	return nil
}

func (d *Device) DropTables() error {
	for _, table := range []string{"blocks", "disks"} {
		if _, err := d.db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
			return fmt.Errorf("dropping table `%s`: %w", table, err)
		}
	}
	return nil
}

func (d *Device) ClearTables() error {
	if _, err := d.db.Exec("DELETE FROM disks"); err != nil {
		return fmt.Errorf("clearing `disks` postgres table: %w", err)
	}
	return nil
}

func (d *Device) Create(name string, blocks Block) error {
	if _, err := d.db.Exec(
		"INSERT INTO disks (name, blocks) VALUES($1, $2)",
		name,
		int(blocks),
	); err != nil {
		const errUniqueViolation = "23505"
		if err, ok := err.(*pq.Error); ok && err.Code == errUniqueViolation {
			return fmt.Errorf("creating image `%s`: %w", name, disk.ImageExistsErr)
		}
		return fmt.Errorf("creating image `%s` in postgres: %w", name, err)
	}
	return nil
}

func (d *Device) Open(name string) error {
	if d.open {
		return fmt.Errorf("opening image `%s`: %w", name, disk.AlreadyOpenErr)
	}
	var blocks int
	if err := d.db.QueryRow(
		"SELECT blocks FROM disks WHERE name = $1",
		name,
	).Scan(&blocks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = disk.NoSuchImageErr
		}
		return fmt.Errorf("opening image `%s`: %w", name, err)
	}
	d.name, d.blocks, d.open = name, Block(blocks), true
	return nil
}

func (d *Device) Close() error {
	if !d.open {
		return fmt.Errorf("closing image: %w", disk.NotOpenErr)
	}
	d.name, d.blocks, d.open = "", 0, false
	return nil
}

func (d *Device) Count() Block { return d.blocks }

func (d *Device) ReadBlock(b Block, p *[BlockSize]byte) error {
	if err := d.check(b); err != nil {
		return fmt.Errorf("reading block `%d`: %w", b, err)
	}
	var data []byte
	if err := d.db.QueryRow(
		"SELECT data FROM blocks WHERE disk = $1 AND idx = $2",
		d.name,
		int(b),
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			clear(p[:])
			return nil
		}
		return fmt.Errorf("reading block `%d` from postgres: %w", b, err)
	}
	if Byte(len(data)) != BlockSize {
		return fmt.Errorf(
			"reading block `%d` from postgres: found `%d` bytes: %w",
			b,
			len(data),
			disk.BadImageSizeErr,
		)
	}
	copy(p[:], data)
	return nil
}

func (d *Device) WriteBlock(b Block, p *[BlockSize]byte) error {
	if err := d.check(b); err != nil {
		return fmt.Errorf("writing block `%d`: %w", b, err)
	}
	if _, err := d.db.Exec(
		"INSERT INTO blocks (disk, idx, data) VALUES($1, $2, $3) "+
			"ON CONFLICT (disk, idx) DO UPDATE SET data = EXCLUDED.data",
		d.name,
		int(b),
		p[:],
	); err != nil {
		return fmt.Errorf("writing block `%d` to postgres: %w", b, err)
	}
	return nil
}

func (d *Device) check(b Block) error {
	if !d.open {
		return disk.NotOpenErr
	}
	if b >= d.blocks {
		return fmt.Errorf(
			"image `%s` has `%d` blocks: %w",
			d.name,
			d.blocks,
			disk.OutOfRangeErr,
		)
	}
	return nil
}

var (
	_ disk.Device  = (*Device)(nil)
	_ disk.Creator = (*Device)(nil)
)
