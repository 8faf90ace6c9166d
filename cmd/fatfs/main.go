package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	var t tool
	app := cli.App{
		Name:        "fatfs",
		Usage:       "manage files on an ECS150 FAT disk image",
		Description: "each command mounts the disk, does its work and unmounts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "disk",
				Usage: "the disk image; defaults to the configured disk",
			},
		},
		Before: t.before,
		Commands: []*cli.Command{{
			Name:        "format",
			Aliases:     []string{"mkfs"},
			Description: "create the disk if needed and lay out an empty volume",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:  "blocks",
					Usage: "the number of data blocks; defaults to the configured count",
				},
			},
			Action: t.withDevice(t.format),
		}, {
			Name:        "info",
			Description: "print the volume geometry and free space",
			Action:      t.withVolume(info),
		}, {
			Name:        "ls",
			Aliases:     []string{"list"},
			Description: "list the files on the volume",
			Action:      t.withVolume(ls),
		}, {
			Name:        "create",
			Aliases:     []string{"touch"},
			Description: "create an empty file",
			ArgsUsage:   "NAME",
			Action:      t.withVolume(create),
		}, {
			Name:        "rm",
			Aliases:     []string{"delete", "remove"},
			Description: "delete a file and zero its blocks",
			ArgsUsage:   "NAME",
			Action:      t.withVolume(rm),
		}, {
			Name:        "stat",
			Description: "print the size of a file",
			ArgsUsage:   "NAME",
			Action:      t.withVolume(stat),
		}, {
			Name:        "put",
			Aliases:     []string{"add"},
			Description: "copy a host file onto the volume",
			ArgsUsage:   "HOSTFILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "name",
					Usage: "the name on the volume; defaults to the host file's name",
				},
				&cli.BoolFlag{
					Name:  "slug",
					Usage: "derive a valid name from the host file's name",
				},
			},
			Action: t.withVolume(put),
		}, {
			Name:        "cat",
			Aliases:     []string{"get"},
			Description: "write a file's contents to stdout",
			ArgsUsage:   "NAME",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:  "offset",
					Usage: "where to start reading",
				},
				&cli.Int64Flag{
					Name:  "count",
					Usage: "how many bytes to read; defaults to the rest of the file",
					Value: -1,
				},
			},
			Action: t.withVolume(cat),
		}, {
			Name:        "snapshot",
			Description: "copy disk images to and from S3",
			Subcommands: []*cli.Command{{
				Name:        "push",
				Description: "upload the disk image with its digest",
				Action:      t.withSnapshots(t.push),
			}, {
				Name:        "pull",
				Description: "download a snapshot onto the disk after checking its digest",
				ArgsUsage:   "KEY",
				Action:      t.withSnapshots(t.pull),
			}, {
				Name:        "ls",
				Aliases:     []string{"list"},
				Description: "list the snapshots of the disk",
				Action:      t.withSnapshots(t.listSnapshots),
			}},
		}, {
			Name:        "pg",
			Description: "commands for the postgres disk backend",
			Subcommands: []*cli.Command{{
				Name:        "ensure",
				Aliases:     []string{"make", "create"},
				Description: "create the tables if they don't already exist",
				Action:      t.withPGDevice(ensureTables),
			}, {
				Name:        "drop",
				Aliases:     []string{"delete", "destroy"},
				Description: "drop the tables and every disk in them",
				Action:      t.withPGDevice(dropTables),
			}},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
