package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"employee-service/internal/app"
	"employee-service/internal/avatar"
	"employee-service/internal/config"
	"employee-service/internal/db"
	"employee-service/internal/logger"
	"employee-service/internal/seed"
	"employee-service/internal/storage"
	"employee-service/internal/telemetry"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all employees with the sample data set",
		Long: `Deletes every employee record and inserts ten sample employees,
each with a generated initials avatar stored under employee_photos/.

Configuration is read from the same config.<ENV>.yaml files and
environment variables as the server.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := run(ctx, cmd); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "seed failed:", err)
				return err
			}
			return nil
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command) error {
	log := logger.NewWithServiceContext(app.ServiceName+"-seed", app.Version)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tel, err := telemetry.Init(ctx, cfg.Telemetry, app.ServiceName, app.Version, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tel.Shutdown(shutdownCtx, log)
	}()

	repo, database, err := app.NewStore(ctx, cfg, tel.Metrics)
	if err != nil {
		return err
	}
	defer db.Close(database)

	photos, err := storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("photo storage: %w", err)
	}

	return seed.New(repo, photos, avatar.New(log), cmd.OutOrStdout(), log, tel.Metrics).Run(ctx)
}
