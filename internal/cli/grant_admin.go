package cli

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/internal/store"

	"github.com/spf13/cobra"
)

var grantAdminCmd = &cobra.Command{
	Use:   "grant-admin <email>",
	Short: "Give an existing account the admin role",
	Long: `Give an existing account the admin role.

Admins can add products. The account must already be registered.`,
	Args: cobra.ExactArgs(1),
	RunE: runGrantAdmin,
}

func runGrantAdmin(cmd *cobra.Command, args []string) error {
	cfg, log, database, err := bootstrap(cmd.Context())
	if err != nil {
		log.Error().Err(err).Msg("Startup failed")
		return err
	}
	defer database.Close()

	users := services.NewUserService(store.NewUserStore(database), cfg.AdminEmail, log)
	if err := users.GrantAdmin(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("no account registered for %s", args[0])
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s is now an admin\n", models.NormalizeEmail(args[0]))
	return nil
}
