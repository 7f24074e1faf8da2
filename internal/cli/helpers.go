package cli

import (
	"fmt"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/config"
	"github.com/photomirror/photomirror/pkg/download"
	"github.com/photomirror/photomirror/pkg/engine"
	"github.com/photomirror/photomirror/pkg/fileindex"
	"github.com/photomirror/photomirror/pkg/hooks"
	"github.com/photomirror/photomirror/pkg/icloud"
)

// These variables will be set by the main package.
var (
	ConfigPath *string
	Verbose    *bool
)

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}
	path, err := config.GetDefaultConfigPath()
	if err != nil {
		return "config.yaml"
	}
	return path
}

// loadConfig loads the configuration and applies CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	logger.InitLogger(cfg.Settings.LogLevel)
	return cfg, nil
}

// buildClient creates the remote client with its session state under the
// configured state directory.
func buildClient(cfg *config.Config) (*icloud.Client, error) {
	client, err := icloud.New(cfg.Settings.StateDir, cfg.Settings.HTTPTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// buildEngine wires the sync engine from config. The caller owns the
// returned index and must close it.
func buildEngine(cfg *config.Config, client *icloud.Client) (*engine.Engine, *fileindex.Index, error) {
	index, err := fileindex.Open(cfg.Settings.StateDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file index: %w", err)
	}

	eng := engine.New(client, download.NewManager(cfg.Settings.HTTPTimeout, ""), index)
	eng.Progress = engine.NewProgress()

	if cfg.Settings.HooksDir != "" {
		manager := hooks.NewManager()
		if err := hooks.LoadFromDir(manager, cfg.Settings.HooksDir); err != nil {
			logger.Warn("failed to load hook scripts", logger.Fields{
				"dir": cfg.Settings.HooksDir, "error": err.Error(),
			})
		} else {
			eng.Scripts = manager
		}
	}
	return eng, index, nil
}

// engineOptions translates config into per-pass engine options.
func engineOptions(cfg *config.Config) (engine.Options, error) {
	requested, err := cfg.RequestedSizes()
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		LibraryDir:       cfg.Library.Directory,
		Requested:        requested,
		Naming:           cfg.NamingOptions(),
		Album:            cfg.Sync.Album,
		FavoritesOnly:    cfg.Sync.FavoritesOnly,
		SkipHidden:       cfg.Sync.SkipHidden,
		SkipVideos:       cfg.Sync.SkipVideos,
		CreatedAfter:     cfg.Sync.CreatedAfter,
		CreatedBefore:    cfg.Sync.CreatedBefore,
		RecentLimit:      cfg.Sync.RecentLimit,
		UntilFound:       cfg.Sync.UntilFound,
		AutoDelete:       cfg.Sync.AutoDelete,
		DryRun:           cfg.Sync.DryRun,
		WriteSidecars:    cfg.Library.WriteSidecars,
		SidecarOverwrite: cfg.Library.SidecarOverwrite,
		MaxRetries:       cfg.Sync.MaxRetries,
		RetryDelay:       cfg.Sync.RetryDelay,
		Concurrency:      cfg.Sync.MaxConcurrent,
	}, nil
}
