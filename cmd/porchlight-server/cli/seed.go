package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/db"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/internal/pages"
	apperrors "github.com/highdesertlabs/porchlight/pkg/errors"
	"github.com/highdesertlabs/porchlight/pkg/logger"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a development domain with example pages",
	Long:  `Create the default development domain plus published buyer and seller master pages, so a fresh database serves content immediately.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runSeed()
	},
}

func runSeed() error {
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
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := ensureMasterTemplates(database); err != nil {
		return fmt.Errorf("failed to initialize master templates: %w", err)
	}

	ctx := context.Background()

	var domain models.Domain
	err = database.Where("hostname = ?", cfg.Server.DefaultHostname).First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		domain = models.Domain{
			Hostname:    cfg.Server.DefaultHostname,
			DisplayName: "Porchlight Dev",
			IsActive:    true,
		}
		if err := database.Create(&domain).Error; err != nil {
			return fmt.Errorf("failed to create domain: %w", err)
		}
		logger.InfoEvent().Str("hostname", domain.Hostname).Msg("Created development domain")
	} else if err != nil {
		return err
	}

	svc := pages.NewService(database, nil)
	seedPages := []struct {
		slug     string
		pageType models.PageType
		headline string
	}{
		{models.MasterBuyerSlug, models.PageTypeBuyer, "Find Your Next Home"},
		{models.MasterSellerSlug, models.PageTypeSeller, "What Is Your Home Worth?"},
	}

	for _, sp := range seedPages {
		page, err := svc.CreateFromTemplate(ctx, pages.CreateInput{
			DomainID: domain.ID,
			Slug:     sp.slug,
			Type:     sp.pageType,
			Headline: sp.headline,
		})
		if errors.Is(err, apperrors.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed page %s: %w", sp.slug, err)
		}

		published := models.PageStatusPublished
		if _, err := svc.Update(ctx, page.ID, pages.UpdateInput{Status: &published}); err != nil {
			return fmt.Errorf("failed to publish page %s: %w", sp.slug, err)
		}
		logger.InfoEvent().Str("slug", sp.slug).Msg("Seeded page")
	}

	raw, _ := json.Marshal(map[string]string{"hostname": domain.Hostname})
	fmt.Printf("Seed complete: %s\n", raw)
	return nil
}
