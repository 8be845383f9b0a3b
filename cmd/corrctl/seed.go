package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/corrlog/internal/auth"
	"github.com/alfredjeanlab/corrlog/internal/config"
	"github.com/alfredjeanlab/corrlog/internal/service"
	"github.com/alfredjeanlab/corrlog/internal/store/sqldb"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the schema and default configs in the database",
	Long: `Create the schema and default configs in the database.

Connects with CORRLOG_DATABASE_DRIVER and CORRLOG_DATABASE_URL, runs the
migrations, and inserts the default config for every component when the
store is empty. Running it again changes nothing.`,
	GroupID:           "system",
	Args:              cobra.NoArgs,
	PersistentPreRunE: noClient,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dialect, err := sqldb.ParseDialect(cfg.DatabaseDriver)
		if err != nil {
			return err
		}
		store, err := sqldb.Open(dialect, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := service.New(store, auth.NewStaticAuthorizer(cfg.Admins...), nil, logger)
		seeded, err := svc.EnsureDefaults(cmd.Context())
		if err != nil {
			return err
		}
		if seeded {
			fmt.Println("Seeded default correlation configs.")
		} else {
			fmt.Println("Correlation configs already present; nothing to do.")
		}
		return nil
	},
}
