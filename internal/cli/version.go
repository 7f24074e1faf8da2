package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/pkg/errors"
)

const (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// releasesURL points at the latest release of the canonical repository.
const releasesURL = "https://api.github.com/repos/photomirror/photomirror/releases/latest"

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for photomirror",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Printf("photomirror version %s\n", Version)
			fmt.Printf("Build date: %s\n", BuildDate)
			fmt.Printf("Git commit: %s\n", GitCommit)

			if !check {
				return nil
			}
			return checkForUpdate(cmd)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "check for a newer release")

	return cmd
}

func checkForUpdate(cmd *cobra.Command) error {
	current, err := goversion.NewVersion(Version)
	if err != nil {
		return errors.Wrap(err, "failed to parse own version")
	}

	latest, err := fetchLatestVersion(cmd)
	if err != nil {
		return err
	}

	if latest.GreaterThan(current) {
		fmt.Printf("A newer release is available: %s\n", latest)
	} else {
		fmt.Println("You are running the latest release.")
	}
	return nil
}

func fetchLatestVersion(cmd *cobra.Command) (*goversion.Version, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, releasesURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build release request")
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch latest release")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrUpdateCheckFailed, "release endpoint returned status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, errors.Wrap(err, "failed to decode release response")
	}

	latest, err := goversion.NewVersion(strings.TrimPrefix(release.TagName, "v"))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse release tag %q", release.TagName)
	}
	return latest, nil
}
