package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "storefront",
		Short: "Storefront - product catalog, cart and Stripe checkout",
		Long: `Storefront serves the product catalog, shopping cart and checkout.

Configuration is read from the environment and an optional .env file.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(grantAdminCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// bootstrap loads configuration, opens the database and applies migrations.
func bootstrap(ctx context.Context) (config.Config, zerolog.Logger, *sql.DB, error) {
	cfg := config.LoadConfig()
	log := logger.InitLogger(cfg.LogLevel, cfg.LogFormat)

	database, err := db.InitDB(ctx, cfg.DBUrl, log)
	if err != nil {
		return cfg, log, nil, err
	}
	if err := db.RunMigrations(ctx, database, log); err != nil {
		database.Close()
		return cfg, log, nil, err
	}
	return cfg, log, database, nil
}
