package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db"
	"github.com/highdesertlabs/porchlight/internal/pages"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync-templates",
	Short: "Sync master templates from their master pages",
	Long:  `Overwrite each master template's sections and form schema with the current content of the master-buyer and master-seller pages.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runSync()
	},
}

func runSync() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		File:   cfg.Logging.File,
	}); err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}

	database, err := db.Connect(db.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	svc := pages.NewService(database, nil)
	updated, err := svc.SyncMasterTemplates(context.Background())
	if err != nil {
		return fmt.Errorf("template sync failed: %w", err)
	}

	fmt.Printf("Synced %d master template(s)\n", updated)
	return nil
}
