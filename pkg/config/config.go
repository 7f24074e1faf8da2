// Package config provides configuration management for photomirror. It
// handles loading, validating, and saving the YAML configuration file and
// provides sensible defaults so the tool works with an empty config.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/photomirror/photomirror/pkg/asset"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/fsutil"
	"github.com/photomirror/photomirror/pkg/naming"
)

// Config represents the application configuration.
type Config struct {
	Library  LibraryConfig `yaml:"library"`
	Sync     SyncConfig    `yaml:"sync"`
	Settings Settings      `yaml:"settings"`
}

// LibraryConfig describes the local library layout: where files land and how
// they are named.
type LibraryConfig struct {
	// Directory is the root of the local library tree.
	Directory string `yaml:"directory"`

	// Sizes lists the renditions to download, by label ("original",
	// "medium", "thumb", ...).
	Sizes []string `yaml:"sizes"`

	// LivePhotoNames selects how live-photo video companions are named:
	// "suffix" or "original".
	LivePhotoNames string `yaml:"live_photo_names"`

	// KeepUnicode keeps non-ASCII characters in filenames instead of
	// stripping them.
	KeepUnicode bool `yaml:"keep_unicode"`

	// WriteSidecars writes an XMP sidecar next to each downloaded file.
	WriteSidecars bool `yaml:"write_sidecars"`

	// SidecarOverwrite lets sidecar writes replace values already present
	// in an existing sidecar.
	SidecarOverwrite bool `yaml:"sidecar_overwrite"`
}

// SyncConfig describes what a sync pass covers and how it behaves.
type SyncConfig struct {
	Album         string `yaml:"album,omitempty"`
	FavoritesOnly bool   `yaml:"favorites_only"`
	SkipHidden    bool   `yaml:"skip_hidden"`
	SkipVideos    bool   `yaml:"skip_videos"`

	// CreatedAfter and CreatedBefore bound the pass to assets created
	// inside the window. A zero time leaves that side unbounded.
	CreatedAfter  time.Time `yaml:"created_after,omitempty"`
	CreatedBefore time.Time `yaml:"created_before,omitempty"`

	// RecentLimit stops the pass after this many listed assets, 0 means
	// the whole library.
	RecentLimit int `yaml:"recent_limit,omitempty"`

	// UntilFound stops the pass after this many consecutive already-local
	// assets, 0 disables the shortcut.
	UntilFound int `yaml:"until_found,omitempty"`

	// AutoDelete removes local files whose assets moved to the remote
	// recently-deleted collection.
	AutoDelete bool `yaml:"auto_delete"`

	DryRun bool `yaml:"dry_run"`

	// WatchInterval is the pause between passes in watch mode.
	WatchInterval time.Duration `yaml:"watch_interval"`

	MaxRetries    int           `yaml:"max_retries"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxConcurrent int           `yaml:"max_concurrent_downloads"`
}

// Settings represents general application settings.
type Settings struct {
	// StateDir holds the session, cookies and the local file index.
	StateDir string `yaml:"state_dir,omitempty"`

	// HooksDir holds Tengo hook scripts.
	HooksDir string `yaml:"hooks_dir,omitempty"`

	// StatusAddr is the listen address of the status page, empty disables
	// the server.
	StatusAddr string `yaml:"status_addr,omitempty"`

	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// RebuildInterval gates how often the file index is rebuilt from disk.
	RebuildInterval time.Duration `yaml:"index_rebuild_interval"`

	LogLevel string `yaml:"log_level"` // error, warn, info, debug
}

// Default configuration values.
const (
	DefaultHTTPTimeout     = 45 * time.Second
	DefaultWatchInterval   = 5 * time.Minute
	DefaultMaxRetries      = 3
	DefaultRetryDelay      = 5 * time.Second
	DefaultMaxConcurrent   = 4
	DefaultRebuildInterval = 24 * time.Hour

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	libraryDir := "photos"
	if home, err := os.UserHomeDir(); err == nil {
		libraryDir = filepath.Join(home, "Pictures", fsutil.AppName)
	}

	stateDir := "."
	if configDir, err := fsutil.GetConfigDir(); err == nil {
		stateDir = filepath.Join(configDir, "state")
	}

	return &Config{
		Library: LibraryConfig{
			Directory:      libraryDir,
			Sizes:          []string{asset.SizeOriginal.String()},
			LivePhotoNames: string(naming.LivePhotoNameSuffix),
			WriteSidecars:  false,
		},
		Sync: SyncConfig{
			SkipHidden:    true,
			WatchInterval: DefaultWatchInterval,
			MaxRetries:    DefaultMaxRetries,
			RetryDelay:    DefaultRetryDelay,
			MaxConcurrent: DefaultMaxConcurrent,
		},
		Settings: Settings{
			StateDir:        stateDir,
			HTTPTimeout:     DefaultHTTPTimeout,
			RebuildInterval: DefaultRebuildInterval,
			LogLevel:        "info",
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
	}
	return config, nil
}

// applyDefaults fills zero values an explicit config file may have cleared.
func (c *Config) applyDefaults() {
	if len(c.Library.Sizes) == 0 {
		c.Library.Sizes = []string{asset.SizeOriginal.String()}
	}
	if c.Library.LivePhotoNames == "" {
		c.Library.LivePhotoNames = string(naming.LivePhotoNameSuffix)
	}
	if c.Sync.WatchInterval == 0 {
		c.Sync.WatchInterval = DefaultWatchInterval
	}
	if c.Sync.MaxConcurrent == 0 {
		c.Sync.MaxConcurrent = DefaultMaxConcurrent
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Settings.RebuildInterval == 0 {
		c.Settings.RebuildInterval = DefaultRebuildInterval
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
}

// SaveConfig saves configuration to a file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}
	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(err, "failed to create config file")
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)
	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(err, "failed to replace config file")
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if c.Library.Directory == "" {
		return errors.Wrap(errors.ErrConfigValidation, "library directory cannot be empty")
	}
	if _, err := c.RequestedSizes(); err != nil {
		return err
	}
	switch naming.LivePhotoPolicy(c.Library.LivePhotoNames) {
	case naming.LivePhotoNameSuffix, naming.LivePhotoNameOriginal:
	default:
		return errors.Wrapf(errors.ErrConfigValidation,
			"invalid live_photo_names %q (want suffix or original)", c.Library.LivePhotoNames)
	}
	if c.Sync.MaxConcurrent < 1 {
		return errors.Wrap(errors.ErrConfigValidation, "max_concurrent_downloads must be at least 1")
	}
	if c.Sync.MaxRetries < 0 || c.Sync.RetryDelay < 0 ||
		c.Sync.WatchInterval < 0 || c.Settings.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "durations and retry counts cannot be negative")
	}
	if c.Sync.RecentLimit < 0 || c.Sync.UntilFound < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "listing limits cannot be negative")
	}
	if !c.Sync.CreatedAfter.IsZero() && !c.Sync.CreatedBefore.IsZero() &&
		c.Sync.CreatedBefore.Before(c.Sync.CreatedAfter) {
		return errors.Wrap(errors.ErrConfigValidation, "created_before cannot precede created_after")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Settings.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", c.Settings.LogLevel)
	}
	return nil
}

// RequestedSizes parses the configured size labels into kinds, preserving
// priority order and dropping duplicates.
func (c *Config) RequestedSizes() ([]asset.SizeKind, error) {
	seen := make(map[asset.SizeKind]bool, len(c.Library.Sizes))
	kinds := make([]asset.SizeKind, 0, len(c.Library.Sizes))
	for _, label := range c.Library.Sizes {
		kind, err := asset.ParseSizeKind(label)
		if err != nil {
			return nil, errors.Wrap(errors.ErrConfigValidation, err.Error())
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// NamingOptions builds the filename policy options from the config.
func (c *Config) NamingOptions() naming.Options {
	return naming.Options{
		KeepUnicode: c.Library.KeepUnicode,
		LivePhoto:   naming.LivePhotoPolicy(c.Library.LivePhotoNames),
	}
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
