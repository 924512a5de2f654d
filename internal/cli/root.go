package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yigit/uniportal/internal/bootstrap"
	"github.com/yigit/uniportal/internal/config"
)

// app is the state shared by every subcommand once the config is loaded
type app struct {
	configPath string
	cfg        *config.Config
	lgr        zerolog.Logger

	// openStorage is replaced in tests
	openStorage func(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*bootstrap.Storage, error)
}

func newApp() *app {
	return &app{
		configPath:  bootstrap.DefaultConfigPath,
		openStorage: bootstrap.SetupStorage,
	}
}

// NewRootCommand builds the portalctl command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Operator tooling for the university portal",
		Long: `portalctl manages the signup review setup of the university portal:
schema migrations, departments, coordinators and bearer tokens for operators.
It reads the same configuration file and environment as the API server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(a.configPath, "portalctl", cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a.cfg, a.lgr = cfg, lgr
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", a.configPath, "Path to the configuration file")

	root.AddCommand(
		newMigrateCommand(a),
		newTokenCommand(a),
		newCoordinatorCommand(a),
		newDepartmentCommand(a),
	)
	return root
}

// withStorage opens the store for the duration of fn
func (a *app) withStorage(ctx context.Context, fn func(storage *bootstrap.Storage) error) error {
	storage, err := a.openStorage(ctx, a.cfg, a.lgr)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storage.Close()
	return fn(storage)
}

// Execute runs portalctl and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("portalctl failed")
		os.Exit(1)
	}
}
