package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/config"
	"github.com/photomirror/photomirror/pkg/engine"
	"github.com/photomirror/photomirror/pkg/status"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	var (
		watch         bool
		dryRun        bool
		autoDelete    bool
		favoritesOnly bool
		verifyDisk    bool
		album         string
		statusAddr    string
		createdAfter  string
		createdBefore string
		recent        int
		untilFound    int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Download new assets from the remote library",
		Long: `Run one sync pass: list the remote library, skip assets that are
already local, and download the missing renditions into the dated library
tree. With --watch, passes repeat until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Flags override the config for this run only.
			if dryRun {
				cfg.Sync.DryRun = true
			}
			if autoDelete {
				cfg.Sync.AutoDelete = true
			}
			if favoritesOnly {
				cfg.Sync.FavoritesOnly = true
			}
			if album != "" {
				cfg.Sync.Album = album
			}
			if statusAddr != "" {
				cfg.Settings.StatusAddr = statusAddr
			}
			if createdAfter != "" {
				t, err := config.ParseDate(createdAfter)
				if err != nil {
					return err
				}
				cfg.Sync.CreatedAfter = t
			}
			if createdBefore != "" {
				t, err := config.ParseDate(createdBefore)
				if err != nil {
					return err
				}
				cfg.Sync.CreatedBefore = t
			}
			if recent > 0 {
				cfg.Sync.RecentLimit = recent
			}
			if untilFound > 0 {
				cfg.Sync.UntilFound = untilFound
			}

			return runSync(cmd, cfg, watch, verifyDisk)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep syncing on an interval until interrupted")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log what would be downloaded without writing anything")
	cmd.Flags().BoolVar(&autoDelete, "auto-delete", false, "delete local files removed from the remote library")
	cmd.Flags().BoolVar(&favoritesOnly, "favorites-only", false, "only sync favorited assets")
	cmd.Flags().BoolVar(&verifyDisk, "verify-disk", false, "stat files on disk instead of trusting the index")
	cmd.Flags().StringVar(&album, "album", "", "limit the pass to one album")
	cmd.Flags().StringVar(&createdAfter, "created-after", "", "only sync assets created on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&createdBefore, "created-before", "", "only sync assets created on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve the status page on this address while syncing")
	cmd.Flags().IntVar(&recent, "recent", 0, "only consider the N most recent assets")
	cmd.Flags().IntVar(&untilFound, "until-found", 0, "stop after N consecutive already-local assets")

	return cmd
}

func runSync(cmd *cobra.Command, cfg *config.Config, watch, verifyDisk bool) error {
	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	if !client.Authenticated() {
		return fmt.Errorf("not signed in, run \"photomirror auth login\" first")
	}

	eng, index, err := buildEngine(cfg, client)
	if err != nil {
		return err
	}
	defer func() { _ = index.Close() }()

	ctx := cmd.Context()

	if index.ShouldRebuild(cfg.Settings.RebuildInterval) {
		logger.Info("rebuilding file index from disk")
		if err := index.Rebuild(ctx, cfg.Library.Directory); err != nil {
			logger.Warn("index rebuild failed", logger.Fields{"error": err.Error()})
		}
	}

	opts, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	opts.VerifyDisk = verifyDisk

	if cfg.Settings.StatusAddr != "" {
		srv := status.New(cfg.Settings.StatusAddr, eng.Progress, index)
		go func() {
			if err := srv.Run(ctx); err != nil {
				logger.Warn("status server stopped", logger.Fields{"error": err.Error()})
			}
		}()
	}

	if watch {
		logger.Info("watching for changes", logger.Fields{
			"interval": cfg.Sync.WatchInterval.String(),
		})
		return eng.Watch(ctx, cfg.Sync.WatchInterval, opts)
	}

	report, err := eng.Sync(ctx, opts)
	if err != nil {
		return err
	}
	logSyncReport(report, cfg.Sync.DryRun)
	return nil
}

func logSyncReport(report engine.Report, dryRun bool) {
	fields := logger.Fields{
		"listed":     report.Listed,
		"downloaded": report.Downloaded,
		"cached":     report.SkippedCached,
		"filtered":   report.SkippedFiltered,
		"failed":     report.Failed,
	}
	if report.Deleted > 0 {
		fields["deleted"] = report.Deleted
	}
	if dryRun {
		logger.Info("Dry run finished", fields)
		return
	}
	if report.Failed > 0 {
		logger.Warn("Sync finished with failures", fields)
		return
	}
	logger.Success("Sync finished", fields)
}
