package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/photomirror/photomirror/internal/cli"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photomirror",
		Short: "Mirror a cloud photo library to local disk",
		Long: `photomirror keeps a local mirror of a cloud photo library:
- CLI: sign in, sync, watch, export
- Downloads originals and derived renditions with stable filenames
- Tracks local files in an index and writes XMP metadata sidecars`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose

	// Add subcommands
	cmd.AddCommand(
		cli.NewAuthCmd(),
		cli.NewSyncCmd(),
		cli.NewIndexCmd(),
		cli.NewExportCmd(),
		cli.NewConfigCmd(),
		cli.NewServeCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
