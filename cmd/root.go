/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>

*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jfmyers9/spotify-backup/internal/config"
	"github.com/jfmyers9/spotify-backup/internal/export"
	"github.com/jfmyers9/spotify-backup/internal/library"
	"github.com/jfmyers9/spotify-backup/pkg/spotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	flagToken    string
	flagDump     string
	flagFormat   string
	flagLogLevel string
	flagLogFile  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotify-backup [file]",
	Short: "Export your Spotify playlists and liked songs",
	Long: `spotify-backup exports your Spotify library to a local file.

It signs in through your browser (or uses a token passed with --token),
reads your playlists and, optionally, your liked songs and albums, and
writes them as text, JSON, an aligned table or a SQLite database.

The output format follows the file extension unless --format is given:

  spotify-backup playlists.txt
  spotify-backup --dump liked,playlists library.json
  spotify-backup --format table backup.out`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	RunE:         runExport,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagToken, "token", "", "Use this access token instead of signing in")
	flags.StringVar(&flagDump, "dump", "", "What to export: playlists, liked, or both comma separated (default from config: playlists)")
	flags.StringVar(&flagFormat, "format", "", "Output format: json, txt, table or sqlite (default: from file extension)")

	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log file path (default: stderr)")
}

// exportOptions are the per-run inputs that do not come from config
type exportOptions struct {
	Path   string
	Token  string
	Format export.Format
	Dump   library.Selection
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(flagLogFile, cfg.LogLevel)

	sel, err := library.ParseSelection(cfg.Dump)
	if err != nil {
		return err
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		path, err = promptFileName(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	format, err := resolveFormat(path, cmd.Flags().Changed("format"), cfg.Format)
	if err != nil {
		return err
	}

	return runExportWith(cmd.Context(), cfg, exportOptions{
		Path:   path,
		Token:  flagToken,
		Format: format,
		Dump:   sel,
	}, logger)
}

// runExportWith signs in, reads the selected parts of the library and
// writes them to opts.Path. Nothing is written if any request fails.
func runExportWith(ctx context.Context, cfg *config.Config, opts exportOptions, logger zerolog.Logger) error {
	client, err := newClient(ctx, cfg, opts.Token, logger)
	if err != nil {
		return err
	}

	lib, err := library.NewBuilder(client, logger).Build(ctx, opts.Dump)
	if err != nil {
		if errors.Is(err, spotify.ErrRetriesExhausted) {
			logger.Error().Err(err).Msg("Giving up, no file written")
		}
		return err
	}

	if err := export.New(logger).WriteFile(opts.Path, opts.Format, lib); err != nil {
		return err
	}

	logger.Info().Str("format", string(opts.Format)).Msgf("Wrote file: %s", opts.Path)
	return nil
}

// loadConfig reads config and applies flags that were set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("dump") {
		cfg.Dump = flagDump
	}
	if flags.Changed("format") {
		cfg.Format = flagFormat
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}

	return cfg, nil
}

// newClient builds an API client from token, signing in through the
// browser when token is empty.
func newClient(ctx context.Context, cfg *config.Config, token string, logger zerolog.Logger) (*spotify.Client, error) {
	clientCfg := spotify.Config{
		Token:            token,
		BaseURL:          cfg.Spotify.APIBaseURL,
		MaxAttempts:      cfg.Retry.Attempts,
		RetryDelay:       cfg.Retry.Delay,
		ProgressInterval: cfg.ProgressInterval,
		Progress:         progressLogger(logger),
		Logger:           apiLogger{logger: logger.With().Str("component", "spotify").Logger()},
	}

	if token != "" {
		return spotify.NewClient(clientCfg)
	}

	client, err := spotify.Login(ctx, authConfig(cfg, logger), clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize: %w", err)
	}
	return client, nil
}

func authConfig(cfg *config.Config, logger zerolog.Logger) spotify.AuthConfig {
	return spotify.AuthConfig{
		ClientID: cfg.Spotify.ClientID,
		Scopes:   cfg.Spotify.Scopes,
		Port:     cfg.Spotify.CallbackPort,
		AuthURL:  cfg.Spotify.AuthURL,
		Logger:   apiLogger{logger: logger.With().Str("component", "auth").Logger()},
	}
}

// promptFileName asks for the output path on w and reads it from r
func promptFileName(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter a file name (e.g. playlists.txt): ")

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file name: %w", err)
	}

	name := strings.TrimSpace(line)
	if name == "" {
		return "", fmt.Errorf("no file name given")
	}
	return name, nil
}

// resolveFormat picks the output format. An explicit --format wins, then
// the file extension, then the configured default.
func resolveFormat(path string, explicit bool, configured string) (export.Format, error) {
	if !explicit {
		if format, err := export.FormatFromPath(path); err == nil {
			return format, nil
		}
	}
	return export.ParseFormat(configured)
}
