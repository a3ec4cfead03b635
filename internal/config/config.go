// Package config loads the emulator settings from ~/.litetable/litetable-bigtable.toml.
package config

import (
	"errors"
	"fmt"
	"github.com/BurntSushi/toml"
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"os"
	"path/filepath"
	"strings"
)

const (
	configFileName = "litetable-bigtable.toml"
)

// Table declares a table created at startup.
type Table struct {
	Name        string
	Families    []string
	MaxVersions int
}

type Config struct {
	ServerAddress string
	ServerPort    int

	CDCEnabled bool
	CDCAddress string
	CDCPort    int

	GarbageCollectionTimer int
	MaxChunkValueSize      int
	Debug                  bool

	Tables []Table
}

// Default returns the settings used for every key the file leaves out.
func Default() *Config {
	return &Config{
		ServerAddress:          "127.0.0.1",
		ServerPort:             8086,
		CDCEnabled:             true,
		CDCAddress:             "127.0.0.1",
		CDCPort:                32496,
		GarbageCollectionTimer: 30,
		MaxChunkValueSize:      1 << 20,
	}
}

type fileTable struct {
	Name        string   `toml:"name"`
	Families    []string `toml:"families"`
	MaxVersions int      `toml:"max_versions"`
}

type fileConfig struct {
	ServerAddress     string      `toml:"server_address"`
	ServerPort        int         `toml:"server_port"`
	CDCEnabled        bool        `toml:"cdc_enabled"`
	CDCAddress        string      `toml:"cdc_address"`
	CDCPort           int         `toml:"cdc_port"`
	GCIntervalSeconds int         `toml:"gc_interval_seconds"`
	MaxChunkValueSize int         `toml:"max_chunk_value_size"`
	Debug             bool        `toml:"debug"`
	Tables            []fileTable `toml:"tables"`
}

// NewConfig loads the config file from the LiteTable directory. A missing file means the
// defaults.
func NewConfig() (*Config, error) {
	liteTableDir, err := litetable.GetLitetableDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get LiteTable directory: %w", err)
	}

	configPath := filepath.Join(liteTableDir, configFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(configPath)
}

// Load decodes the file at path over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("load config: unknown keys %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("server_address") {
		cfg.ServerAddress = strings.TrimSpace(raw.ServerAddress)
	}
	if meta.IsDefined("server_port") {
		cfg.ServerPort = raw.ServerPort
	}
	if meta.IsDefined("cdc_enabled") {
		cfg.CDCEnabled = raw.CDCEnabled
	}
	if meta.IsDefined("cdc_address") {
		cfg.CDCAddress = strings.TrimSpace(raw.CDCAddress)
	}
	if meta.IsDefined("cdc_port") {
		cfg.CDCPort = raw.CDCPort
	}
	if meta.IsDefined("gc_interval_seconds") {
		cfg.GarbageCollectionTimer = raw.GCIntervalSeconds
	}
	if meta.IsDefined("max_chunk_value_size") {
		cfg.MaxChunkValueSize = raw.MaxChunkValueSize
	}
	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}
	for _, t := range raw.Tables {
		cfg.Tables = append(cfg.Tables, Table{
			Name:        strings.TrimSpace(t.Name),
			Families:    t.Families,
			MaxVersions: t.MaxVersions,
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}

// Validate reports every problem with the settings at once.
func (c *Config) Validate() error {
	var errGrp []error
	if c.ServerAddress == "" {
		errGrp = append(errGrp, fmt.Errorf("server_address required"))
	}
	if !validPort(c.ServerPort) {
		errGrp = append(errGrp, fmt.Errorf("invalid server_port: %d", c.ServerPort))
	}
	if c.CDCEnabled {
		if c.CDCAddress == "" {
			errGrp = append(errGrp, fmt.Errorf("cdc_address required"))
		}
		if !validPort(c.CDCPort) {
			errGrp = append(errGrp, fmt.Errorf("invalid cdc_port: %d", c.CDCPort))
		}
	}
	if c.GarbageCollectionTimer <= 0 {
		errGrp = append(errGrp, fmt.Errorf("gc_interval_seconds must be greater than 0"))
	}
	if c.MaxChunkValueSize < 0 {
		errGrp = append(errGrp, fmt.Errorf("max_chunk_value_size must not be negative"))
	}

	seen := make(map[string]struct{}, len(c.Tables))
	for i, t := range c.Tables {
		if t.Name == "" {
			errGrp = append(errGrp, fmt.Errorf("tables[%d]: name required", i))
		}
		if _, ok := seen[t.Name]; ok && t.Name != "" {
			errGrp = append(errGrp, fmt.Errorf("tables[%d]: duplicate table %q", i, t.Name))
		}
		seen[t.Name] = struct{}{}
		for _, f := range t.Families {
			if !litetable.ValidFamilyName(f) {
				errGrp = append(errGrp, fmt.Errorf("tables[%d]: invalid family name %q", i, f))
			}
		}
		if t.MaxVersions < 0 {
			errGrp = append(errGrp, fmt.Errorf("tables[%d]: max_versions must not be negative", i))
		}
	}
	return errors.Join(errGrp...)
}
