// Command coordsctl runs bot commands and maintenance tasks against the
// configured database without a chat relay.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"coords-bot/internal/alliance"
	"coords-bot/internal/auth"
	"coords-bot/internal/command"
	"coords-bot/internal/planet"
	"coords-bot/internal/player"
	"coords-bot/internal/shared/config"
	"coords-bot/internal/shared/database"
	"coords-bot/internal/shared/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	logLevel string
	cfg      *config.Config
	logger   *slog.Logger
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "coordsctl",
		Short:         "Manage the coords bot store from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal; the environment may already be set.
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger.New(config.LoggingConfig{Level: opts.logLevel}, cmd.ErrOrStderr())
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(runCmd(opts), migrateCmd(opts), tokenCmd(opts))
	return cmd
}

func openDB(ctx context.Context, opts *options) (*database.DB, error) {
	db, err := database.Connect(opts.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func runCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "run <command> [args...]",
		Short: "Execute a bot command",
		Example: `  coordsctl run add alice 2 123 5 9400
  coordsctl run members "red fleet" --format yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := openDB(ctx, opts)
			if err != nil {
				return err
			}
			defer db.Close()

			service := command.NewService(db,
				alliance.NewRepository(db, opts.logger),
				player.NewRepository(db, opts.logger),
				planet.NewRepository(db, opts.logger),
				opts.cfg.Bot,
				opts.logger,
			)

			result, err := service.Execute(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), f, result)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(formatText), "Output format (text, json, yaml)")
	return cmd
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer db.Close()

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s)\n", db.Dialect())
			return err
		},
	}
}

func tokenCmd(opts *options) *cobra.Command {
	var (
		relayName string
		ttl       time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a chat relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = opts.cfg.Auth.TokenExpiration
			}
			token, err := auth.GenerateRelayToken(opts.cfg.Auth.RelaySecret, strings.TrimSpace(relayName), ttl)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().StringVar(&relayName, "relay", "", "Relay name embedded in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to RELAY_TOKEN_EXPIRATION_HOURS)")
	_ = cmd.MarkFlagRequired("relay")
	return cmd
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
