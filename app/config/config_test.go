package config_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/hello/app/config"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		data   string
		exp    config.Server
		expErr string
	}{
		{name: "ok/missing_file", exp: config.Server{}},
		{name: "err/blank_file", data: " ", expErr: "failed parsing configuration file"},
		{name: "ok/empty_object", data: "{}", exp: config.Server{}},
		{
			name: "ok/all_fields",
			data: `{"server": {"address": ":9000", "static_dir": "/srv/static", "compress_min_size": 0,
				"error_level": "full", "shutdown_timeout": "1m30s"}}`,
			exp: config.Server{
				Address:         sql.Null[string]{V: ":9000", Valid: true},
				StaticDir:       sql.Null[string]{V: "/srv/static", Valid: true},
				CompressMinSize: sql.Null[int]{V: 0, Valid: true},
				ErrorLevel:      sql.Null[string]{V: "full", Valid: true},
				ShutdownTimeout: sql.Null[time.Duration]{V: 90 * time.Second, Valid: true},
			},
		},
		{
			name:   "err/negative_compress_size",
			data:   `{"server": {"compress_min_size": -1}}`,
			expErr: "invalid compression minimum size -1: must not be negative",
		},
		{
			name:   "err/invalid_error_level",
			data:   `{"server": {"error_level": "loud"}}`,
			expErr: "invalid error level 'loud'",
		},
		{
			name:   "err/invalid_duration",
			data:   `{"server": {"shutdown_timeout": "soon"}}`,
			expErr: "failed parsing shutdown timeout",
		},
		{
			name:   "err/invalid_json",
			data:   `{"server": `,
			expErr: "failed parsing configuration file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tt.data != "" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tt.data), 0o644))
			}

			cfg := config.NewConfig(fs, "/config.json")
			err := cfg.Load()

			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.exp, cfg.Server)
		})
	}
}

func TestConfigSaveLoad(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	cfg := config.NewConfig(fs, "/etc/hello/config.json")
	cfg.Server.Address = sql.Null[string]{V: "127.0.0.1:8000", Valid: true}
	cfg.Server.CompressMinSize = sql.Null[int]{V: 0, Valid: true}
	cfg.Server.ShutdownTimeout = sql.Null[time.Duration]{V: 5 * time.Second, Valid: true}

	require.NoError(t, cfg.Save())
	assert.Equal(t, "/etc/hello/config.json", cfg.Path())

	data, err := vfs.ReadFile(fs, "/etc/hello/config.json")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"server": {"address": "127.0.0.1:8000", "compress_min_size": 0, "shutdown_timeout": "5s"}}`,
		string(data))

	loaded := config.NewConfig(fs, "/etc/hello/config.json")
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Server, loaded.Server)
}

func TestConfigSetDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig(memoryfs.New(), "/config.json")
	cfg.Server.StaticDir = sql.Null[string]{V: "/www", Valid: true}
	cfg.SetDefaults()

	assert.Equal(t, config.Server{
		Address:         sql.Null[string]{V: "0.0.0.0:8080", Valid: true},
		StaticDir:       sql.Null[string]{V: "/www", Valid: true},
		CompressMinSize: sql.Null[int]{V: 256, Valid: true},
		ErrorLevel:      sql.Null[string]{V: "minimal", Valid: true},
		ShutdownTimeout: sql.Null[time.Duration]{V: 10 * time.Second, Valid: true},
	}, cfg.Server)
}
