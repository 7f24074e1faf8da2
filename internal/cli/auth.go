package cli

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/photomirror/photomirror/internal/logger"
	"github.com/photomirror/photomirror/pkg/errors"
	"github.com/photomirror/photomirror/pkg/icloud"
)

// NewAuthCmd creates the auth command with subcommands.
func NewAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the account session",
		Long:  "Sign in to the photo service, check the session, or sign out",
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthStatusCmd(),
		newAuthLogoutCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with an account name and password. When the account has
two-factor authentication enabled, a verification code is requested after the
password. The session and device trust are persisted so later runs do not
prompt again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuthLogin(cmd, username)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account name (prompted when omitted)")

	return cmd
}

func runAuthLogin(cmd *cobra.Command, username string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := buildClient(cfg)
	if err != nil {
		return err
	}

	if client.Authenticated() {
		logger.Info("already signed in, sign out first to switch accounts")
		return nil
	}

	if username == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Account name: ")
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &username); err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
	}

	password, err := icloud.PromptPassword("Password: ")
	if err != nil {
		return err
	}

	err = client.SignIn(cmd.Context(), username, password)
	if stderrors.Is(err, errors.ErrTwoFactorNeeded) {
		code, promptErr := icloud.PromptTwoFactorCode()
		if promptErr != nil {
			return promptErr
		}
		err = client.SubmitTwoFactor(cmd.Context(), code)
	}
	if err != nil {
		return err
	}

	logger.Success("Signed in", logger.Fields{"account": username})
	return nil
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session is stored",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := buildClient(cfg)
			if err != nil {
				return err
			}
			if client.Authenticated() {
				fmt.Println("signed in")
			} else {
				fmt.Println("signed out")
			}
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		Long:  "Discard the stored session. Device trust is kept so the next login may skip the verification code.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := buildClient(cfg)
			if err != nil {
				return err
			}
			if err := client.SignOut(); err != nil {
				return err
			}
			logger.Success("Signed out")
			return nil
		},
	}
}
