package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// ErrorLevels are the accepted values of Server.ErrorLevel.
var ErrorLevels = []string{"none", "minimal", "full"}

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server Server

	fs   vfs.FileSystem
	path string
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// StaticDir is the directory served under /static/.
	StaticDir sql.Null[string] `json:"static_dir"`
	// CompressMinSize is the minimum response body size in bytes for
	// compression to be applied. 0 compresses all eligible responses.
	CompressMinSize sql.Null[int] `json:"compress_min_size"`
	// ErrorLevel is the detail level of error messages returned to clients.
	// One of ErrorLevels.
	ErrorLevel sql.Null[string] `json:"error_level"`
	// ShutdownTimeout is the maximum amount of time to wait for in-flight
	// requests when shutting down. It serializes from/to time.Duration strings.
	ShutdownTimeout sql.Null[time.Duration] `json:"shutdown_timeout"`
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: "0.0.0.0:8080", Valid: true}
	}
	if !c.Server.StaticDir.Valid {
		c.Server.StaticDir = sql.Null[string]{V: "static", Valid: true}
	}
	if !c.Server.CompressMinSize.Valid {
		c.Server.CompressMinSize = sql.Null[int]{V: 256, Valid: true}
	}
	if !c.Server.ErrorLevel.Valid {
		c.Server.ErrorLevel = sql.Null[string]{V: "minimal", Valid: true}
	}
	if !c.Server.ShutdownTimeout.Valid {
		c.Server.ShutdownTimeout = sql.Null[time.Duration]{V: 10 * time.Second, Valid: true}
	}
}

type cfgWrapper struct {
	Server srvCfgWrapper `json:"server"`
}

type srvCfgWrapper struct {
	Address         string `json:"address,omitempty"`
	StaticDir       string `json:"static_dir,omitempty"`
	CompressMinSize *int   `json:"compress_min_size,omitempty"`
	ErrorLevel      string `json:"error_level,omitempty"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Server.Address.Valid {
		w.Server.Address = c.Server.Address.V
	}
	if c.Server.StaticDir.Valid {
		w.Server.StaticDir = c.Server.StaticDir.V
	}
	if c.Server.CompressMinSize.Valid {
		size := c.Server.CompressMinSize.V
		w.Server.CompressMinSize = &size
	}
	if c.Server.ErrorLevel.Valid {
		w.Server.ErrorLevel = c.Server.ErrorLevel.V
	}
	if c.Server.ShutdownTimeout.Valid {
		w.Server.ShutdownTimeout = c.Server.ShutdownTimeout.V.String()
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types, validating them along the way.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Server.Address != "" {
		c.Server.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}
	if w.Server.StaticDir != "" {
		c.Server.StaticDir = sql.Null[string]{V: w.Server.StaticDir, Valid: true}
	}
	if w.Server.CompressMinSize != nil {
		if *w.Server.CompressMinSize < 0 {
			return fmt.Errorf("invalid compression minimum size %d: must not be negative", *w.Server.CompressMinSize)
		}
		c.Server.CompressMinSize = sql.Null[int]{V: *w.Server.CompressMinSize, Valid: true}
	}
	if w.Server.ErrorLevel != "" {
		if !slices.Contains(ErrorLevels, w.Server.ErrorLevel) {
			return fmt.Errorf("invalid error level '%s': must be one of %v", w.Server.ErrorLevel, ErrorLevels)
		}
		c.Server.ErrorLevel = sql.Null[string]{V: w.Server.ErrorLevel, Valid: true}
	}
	if w.Server.ShutdownTimeout != "" {
		dur, err := time.ParseDuration(w.Server.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("failed parsing shutdown timeout: %w", err)
		}
		c.Server.ShutdownTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	return nil
}
