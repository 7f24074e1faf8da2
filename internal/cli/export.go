package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mholt/archives"
	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/fsutil"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [YYYY[/MM[/DD]]]",
		Short: "Export part of the library as a tar.gz archive",
		Long: `Pack the library, or one dated subtree of it, into a tar.gz
archive. The optional argument narrows the export: "2021" exports one year,
"2021/05" one month, "2021/05/03" one day.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subtree := ""
			if len(args) == 1 {
				subtree = args[0]
			}
			return runExport(cmd, subtree, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default: photomirror-export-<date>.tar.gz)")

	return cmd
}

func runExport(cmd *cobra.Command, subtree, output string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source := cfg.Library.Directory
	if subtree != "" {
		if strings.Contains(subtree, "..") {
			return fmt.Errorf("invalid subtree %q", subtree)
		}
		source = filepath.Join(source, filepath.FromSlash(subtree))
	}
	if info, err := os.Stat(source); err != nil || !info.IsDir() {
		return fmt.Errorf("nothing to export at %s", source)
	}

	if output == "" {
		output = fmt.Sprintf("photomirror-export-%s.tar.gz", time.Now().Format("2006-01-02"))
	}

	if size, err := fsutil.DirSize(source); err == nil {
		logger.Info("exporting", logger.Fields{
			"source": source, "size": humanize.Bytes(uint64(size)),
		})
	}

	ctx := cmd.Context()
	srcRoot := filepath.ToSlash(source)
	if !strings.HasSuffix(srcRoot, "/") {
		srcRoot += "/"
	}
	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		srcRoot: "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", output, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, file, archiveFiles); err != nil {
		_ = os.Remove(output)
		return fmt.Errorf("failed to write archive: %w", err)
	}

	logger.Success("Library exported", logger.Fields{
		"source":  source,
		"archive": output,
		"files":   len(archiveFiles),
	})
	return nil
}
