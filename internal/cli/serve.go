package cli

import (
	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/pkg/engine"
	"github.com/photomirror/photomirror/pkg/fileindex"
	"github.com/photomirror/photomirror/pkg/status"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the status page without syncing",
		Long: `Run only the status page, showing file index statistics and the
time of the last sync. Useful on a machine that syncs from cron.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Settings.StatusAddr
			}
			if addr == "" {
				addr = "127.0.0.1:8487"
			}

			index, err := fileindex.Open(cfg.Settings.StateDir)
			if err != nil {
				return err
			}
			defer func() { _ = index.Close() }()

			return status.New(addr, engine.NewProgress(), index).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, then 127.0.0.1:8487)")

	return cmd
}
