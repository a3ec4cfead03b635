package config

import (
	"github.com/litetable/litetable-bigtable/internal/litetable"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad(t *testing.T) {
	tests := map[string]struct {
		body  string
		want  func() *Config
		error string
	}{
		"empty file keeps defaults": {
			body: "",
			want: Default,
		},
		"overlay": {
			body: `
server_address = "0.0.0.0"
server_port = 9035
cdc_enabled = false
gc_interval_seconds = 5
debug = true

[[tables]]
name = "users"
families = ["profile", "stats"]
max_versions = 3

[[tables]]
name = "events"
families = ["e"]
`,
			want: func() *Config {
				cfg := Default()
				cfg.ServerAddress = "0.0.0.0"
				cfg.ServerPort = 9035
				cfg.CDCEnabled = false
				cfg.GarbageCollectionTimer = 5
				cfg.Debug = true
				cfg.Tables = []Table{
					{Name: "users", Families: []string{"profile", "stats"}, MaxVersions: 3},
					{Name: "events", Families: []string{"e"}},
				}
				return cfg
			},
		},
		"zero values are applied when set": {
			body: "max_chunk_value_size = 0\n",
			want: func() *Config {
				cfg := Default()
				cfg.MaxChunkValueSize = 0
				return cfg
			},
		},
		"unknown key": {
			body:  "server_addr = \"x\"\n",
			error: "load config: unknown keys server_addr",
		},
		"bad syntax": {
			body:  "server_port = \n",
			error: "load config:",
		},
		"invalid values": {
			body: `
server_port = 70000
gc_interval_seconds = 0

[[tables]]
families = ["bad family"]
`,
			error: "invalid server_port: 70000\ngc_interval_seconds must be greater than 0\n" +
				"tables[0]: name required\ntables[0]: invalid family name \"bad family\"",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := Load(writeConfig(t, test.body))
			if test.error != "" {
				req.Error(err)
				req.Nil(got)
				req.Contains(err.Error(), test.error)
				return
			}
			req.NoError(err)
			req.Equal(test.want(), got)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestNewConfig(t *testing.T) {
	req := require.New(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(litetable.DirEnv, "")

	cfg, err := NewConfig()
	req.NoError(err)
	req.Equal(Default(), cfg)

	dir := filepath.Join(home, ".litetable")
	req.NoError(os.MkdirAll(dir, 0700))
	req.NoError(os.WriteFile(filepath.Join(dir, configFileName), []byte("server_port = 9999\n"), 0600))

	cfg, err = NewConfig()
	req.NoError(err)
	req.Equal(9999, cfg.ServerPort)
}

func TestValidate(t *testing.T) {
	req := require.New(t)
	req.NoError(Default().Validate())

	cfg := Default()
	cfg.CDCPort = 0
	cfg.Tables = []Table{{Name: "a"}, {Name: "a", MaxVersions: -1}}
	req.Equal("invalid cdc_port: 0\ntables[1]: duplicate table \"a\"\n"+
		"tables[1]: max_versions must not be negative", cfg.Validate().Error())

	// cdc settings are ignored while it is off
	cfg = Default()
	cfg.CDCEnabled = false
	cfg.CDCAddress = ""
	req.NoError(cfg.Validate())
}
