package lmdb

import "github.com/BurntSushi/toml"

// Fixed compile-time defaults (spec §6.4). Config lets an operator tune
// these per-deployment without changing their meaning.
const (
	DefaultMaxDBIs         = 16
	DefaultInitialMapSize  = 256 * 1024 * 1024 // 256 MiB
	DefaultMaxMapSize      = 1024 * 1024 * 1024 // 1 GiB
	DefaultBatchCapacity   = 8
	DefaultScratchCapacity = 2 * 1024 // 2 KiB
	DefaultRetryBudget     = 3
	DefaultDirMode         = 0700
	DefaultFileMode        = 0600
)

// Config overrides the §6.4 compile-time constants. Every field defaults
// to the spec's fixed constant when left zero; loading no Config at all
// (Init called with nil) reproduces the spec exactly. FileMode is not read
// by Init: the environment files get the mode passed as Init's mode
// argument.
type Config struct {
	MaxDBIs         uint   `toml:"max_dbis"`
	InitialMapSize  int64  `toml:"initial_map_size"`
	MaxMapSize      int64  `toml:"max_map_size"`
	BatchCapacity   int    `toml:"batch_capacity"`
	ScratchCapacity int    `toml:"scratch_capacity"`
	RetryBudget     int    `toml:"retry_budget"`
	DirMode         uint32 `toml:"dir_mode"`
	FileMode        uint32 `toml:"file_mode"`
}

// LoadConfig reads a TOML file and fills in any field left at its zero
// value with the spec's compile-time default.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, newErr("LoadConfig", ErrInvalid, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// defaultConfig returns the spec's §6.4 constants with no overrides.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.MaxDBIs == 0 {
		c.MaxDBIs = DefaultMaxDBIs
	}
	if c.InitialMapSize == 0 {
		c.InitialMapSize = DefaultInitialMapSize
	}
	if c.MaxMapSize == 0 {
		c.MaxMapSize = DefaultMaxMapSize
	}
	if c.BatchCapacity == 0 {
		c.BatchCapacity = DefaultBatchCapacity
	}
	if c.ScratchCapacity == 0 {
		c.ScratchCapacity = DefaultScratchCapacity
	}
	if c.RetryBudget == 0 {
		c.RetryBudget = DefaultRetryBudget
	}
	if c.DirMode == 0 {
		c.DirMode = DefaultDirMode
	}
	if c.FileMode == 0 {
		c.FileMode = DefaultFileMode
	}
}
