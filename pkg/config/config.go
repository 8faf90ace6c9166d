// Package config loads command-line tool settings from an optional YAML file
// and `FATFS_*` environment variables. Environment variables win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/weberc2/fatfs/pkg/pgutil"
	. "github.com/weberc2/fatfs/pkg/types"
	"gopkg.in/yaml.v2"
)

const (
	envVarPrefix = "FATFS"
	appName      = "fatfs"

	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Snapshot struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

type Config struct {
	Backend    string        `yaml:"backend"`
	Disk       string        `yaml:"disk"`
	DataBlocks Block         `yaml:"dataBlocks" split_words:"true"`
	LogLevel   string        `yaml:"logLevel" split_words:"true"`
	Snapshot   Snapshot      `yaml:"snapshot"`
	Postgres   pgutil.Config `yaml:"postgres"`
}

func Default() Config {
	return Config{
		Backend:    BackendFile,
		Disk:       "disk.fs",
		DataBlocks: MaxDataBlocks,
		LogLevel:   "info",
		Snapshot:   Snapshot{Prefix: "snapshots"},
		Postgres: pgutil.Config{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			DBName:  "postgres",
			SSLMode: "disable",
		},
	}
}

// LoadConfig reads the file named by `FATFS_CONFIG_FILE` (by default
// `$HOME/.config/fatfs.yaml`, which may be absent) over the defaults, then
// applies the environment.
func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating config file: %w", err)
		}
		configFile = filepath.Join(home, ".config", appName+".yaml")
	}

	c := Default()
	data, err := os.ReadFile(configFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config file: %w", err)
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}

	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf(
			"invalid configuration: backend / %s_BACKEND: `%s` is not one "+
				"of `file`, `memory`, `postgres`",
			envVarPrefix,
			c.Backend,
		)
	}
	if c.Disk == "" {
		return fmt.Errorf(
			"missing required configuration: disk / %s_DISK",
			envVarPrefix,
		)
	}
	if c.DataBlocks < 2 || c.DataBlocks > MaxDataBlocks {
		return fmt.Errorf(
			"invalid configuration: dataBlocks / %s_DATA_BLOCKS: `%d` not "+
				"in [2, %d]",
			envVarPrefix,
			c.DataBlocks,
			MaxDataBlocks,
		)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf(
			"invalid configuration: logLevel / %s_LOG_LEVEL: %w",
			envVarPrefix,
			err,
		)
	}
	return nil
}

func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, err
	}
	return level, nil
}
