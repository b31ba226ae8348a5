package cli

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, database, err := bootstrap(cmd.Context())
		if err != nil {
			log.Error().Err(err).Msg("Migration failed")
			return err
		}
		defer database.Close()

		log.Info().Msg("Database is up to date")
		return nil
	},
}
