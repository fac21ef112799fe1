package migrate

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/cmd/setup"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	dbmigrate "github.com/mpapenbr/lorawan-service-manager/pkg/db/migrate"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
)

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files (default: migrations embedded in the binary)")

	return cmd
}

func startMigration(ctx context.Context) error {
	setup.InitLogger()
	// wait for database
	timeout, err := time.ParseDuration(config.WaitForServices)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 60s", log.ErrorField(err))
		timeout = 60 * time.Second
	}
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err = utils.WaitForTCP(ctx, postgresAddr, timeout); err != nil {
		log.Error("database not ready", log.ErrorField(err))
		return err
	}

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
	} else {
		log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	}
	if err = dbmigrate.MigrateFromSource(config.MigrationSourceURL, config.DB); err != nil {
		log.Error("Migration failed", log.ErrorField(err))
		return err
	}
	log.Info("Migration done")
	return nil
}
