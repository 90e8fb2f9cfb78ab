package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/appraisal-portal/internal/auth"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/session/file"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

// cliScope is the session scope the command line keeps its login under.
const cliScope = "cli"

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Sign in to the backend from the command line",
	Long:  `Keep a backend session on disk, the same way the portal keeps one per browser.`,
}

var (
	sessionDir string
	username   string
	password   string
)

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openCLIStore(ctx)
		if err != nil {
			return err
		}

		config, err := loadConfig(".")
		if err != nil {
			return err
		}
		client, err := newBackendClient(ctx, config.Backend, logger.L())
		if err != nil {
			return err
		}

		pw := password
		if pw == "" {
			pw = os.Getenv("APPRAISAL_PASSWORD")
		}
		user, err := auth.NewService(client, logger.L()).Login(ctx, store, auth.LoginDTO{Username: username, Password: pw})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", user.Name, strings.Join(user.Roles.Strings(), ", "))
		return nil
	},
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCLIStore(cmd.Context())
		if err != nil {
			return err
		}
		if err := store.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var sessionWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored user",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCLIStore(cmd.Context())
		if err != nil {
			return err
		}
		user, ok := store.User()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", user.Name, strings.Join(user.Roles.Strings(), ", "))
		return nil
	},
}

// openCLIStore loads the command line session from sessionDir.
func openCLIStore(ctx context.Context) (*session.Store, error) {
	storage, err := file.NewStorage(sessionDir)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(storage, cliScope, session.WithLogger(logger.Discard()))
	if ctx == nil {
		ctx = context.Background()
	}
	store.Initialize(ctx)
	return store, nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".appraisal-portal"
	}
	return filepath.Join(home, ".appraisal-portal")
}

func init() {
	sessionCmd.PersistentFlags().StringVar(&sessionDir, "dir", defaultSessionDir(), "Directory holding the command line session")
	sessionLoginCmd.Flags().StringVarP(&username, "username", "u", "", "Backend username")
	sessionLoginCmd.Flags().StringVarP(&password, "password", "p", "", "Backend password (or APPRAISAL_PASSWORD)")
	_ = sessionLoginCmd.MarkFlagRequired("username")

	sessionCmd.AddCommand(sessionLoginCmd)
	sessionCmd.AddCommand(sessionLogoutCmd)
	sessionCmd.AddCommand(sessionWhoamiCmd)

	rootCmd.AddCommand(sessionCmd)
}
