package cmd

import (
	"fmt"

	"github.com/jfmyers9/spotify-backup/pkg/spotify"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to Spotify and print an access token",
	Long: `Sign in to Spotify through your browser and print the access token.

This command will:
1. Listen on http://127.0.0.1:43019 for the authorization redirect
2. Open the Spotify sign-in page in your browser
3. Print the access token once you approve access

Pass the token to later runs with --token to skip the browser. Tokens
expire after about an hour and are never saved to disk.`,
	Args: cobra.NoArgs,
	RunE: runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(flagLogFile, cfg.LogLevel)

	authorizer, err := spotify.NewAuthorizer(authConfig(cfg, logger))
	if err != nil {
		return err
	}

	token, err := authorizer.Authorize(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to authorize: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
