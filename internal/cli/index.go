package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/fileindex"
)

// NewIndexCmd creates the index command with subcommands.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the local file index",
		Long:  "Inspect or rebuild the index of files already downloaded",
	}

	cmd.AddCommand(
		newIndexStatsCmd(),
		newIndexRebuildCmd(),
	)

	return cmd
}

func newIndexStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show file index statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			index, err := fileindex.Open(cfg.Settings.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			stats, err := index.Stats(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintf(tw, "Indexed files\t%d\n", stats.Total)
			_, _ = fmt.Fprintf(tw, "Recently verified\t%d\n", stats.RecentlyVerified)
			if last, ok := index.LastSync(); ok {
				_, _ = fmt.Fprintf(tw, "Last sync\t%s\n", last.Format(time.RFC3339))
			}
			if last, ok := index.LastRebuild(); ok {
				_, _ = fmt.Fprintf(tw, "Last rebuild\t%s\n", last.Format(time.RFC3339))
			}
			return tw.Flush()
		},
	}
}

func newIndexRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the file index from disk",
		Long: `Drop every index entry under the library directory and re-add what
is actually on disk. Run this after moving or deleting files manually.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			index, err := fileindex.Open(cfg.Settings.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			if err := index.Rebuild(cmd.Context(), cfg.Library.Directory); err != nil {
				return err
			}

			stats, err := index.Stats(cmd.Context())
			if err != nil {
				return err
			}
			logger.Success("Index rebuilt", logger.Fields{"files": stats.Total})
			return nil
		},
	}
}
