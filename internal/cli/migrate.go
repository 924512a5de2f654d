package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/uniportal/internal/bootstrap"
	"github.com/yigit/uniportal/internal/config"
	"github.com/yigit/uniportal/internal/db"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		Long:  "Applies every migration in database.migrations_dir that is not yet recorded in schema_migrations.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Database.Driver != config.DriverPostgres {
				return fmt.Errorf("migrate requires the %s driver, configured driver is %q", config.DriverPostgres, a.cfg.Database.Driver)
			}

			database, err := db.NewPostgresDB(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := bootstrap.RunMigrations(cmd.Context(), a.cfg, database, a.lgr); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
