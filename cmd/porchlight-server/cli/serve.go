package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/highdesertlabs/porchlight/internal/config"
	"github.com/highdesertlabs/porchlight/internal/content/blocks"
	"github.com/highdesertlabs/porchlight/internal/db"
	"github.com/highdesertlabs/porchlight/internal/db/models"
	"github.com/highdesertlabs/porchlight/internal/leads"
	"github.com/highdesertlabs/porchlight/internal/notify"
	"github.com/highdesertlabs/porchlight/internal/server/web/api"
	"github.com/highdesertlabs/porchlight/internal/server/web/middleware"
	"github.com/highdesertlabs/porchlight/internal/webhooks"
	"github.com/highdesertlabs/porchlight/pkg/logger"
	"github.com/highdesertlabs/porchlight/pkg/utils"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Porchlight server",
	Long:  `Start the landing page server: public page resolution, lead capture, and the admin API.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runServer()
	},
}

// initAdminUser creates or updates the admin user from config.
func initAdminUser(database *gorm.DB, cfg *config.Config) error {
	var admin models.AdminUser

	err := database.Where("email = ?", cfg.Auth.AdminEmail).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		hashedPassword, err := utils.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		admin = models.AdminUser{
			Email:        cfg.Auth.AdminEmail,
			PasswordHash: hashedPassword,
			Name:         "Administrator",
		}
		if err := database.Create(&admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		logger.InfoEvent().
			Str("email", admin.Email).
			Msg("Created admin user from config")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check admin user: %w", err)
	}

	if !utils.ComparePassword(admin.PasswordHash, cfg.Auth.AdminPassword) {
		hashedPassword, err := utils.HashPassword(cfg.Auth.AdminPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		admin.PasswordHash = hashedPassword
		if err := database.Save(&admin).Error; err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
		logger.InfoEvent().
			Str("email", admin.Email).
			Msg("Updated admin password from config")
	}
	return nil
}

// ensureMasterTemplates creates the buyer and seller master templates when
// missing, seeded with a single empty hero section.
func ensureMasterTemplates(database *gorm.DB) error {
	defaults := map[models.PageType]string{
		models.PageTypeBuyer:  "Buyer Master",
		models.PageTypeSeller: "Seller Master",
	}

	for pageType, name := range defaults {
		var existing models.MasterTemplate
		err := database.Where("type = ?", pageType).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sections, err := json.Marshal([]blocks.SectionConfig{{
			ID:    blocks.NewSectionID(),
			Kind:  blocks.SectionHero,
			Props: map[string]interface{}{},
		}})
		if err != nil {
			return err
		}

		template := models.MasterTemplate{
			Type:     pageType,
			Name:     name,
			Sections: sections,
		}
		if err := database.Create(&template).Error; err != nil {
			return err
		}
		logger.InfoEvent().
			Str("type", string(pageType)).
			Msg("Created master template")
	}
	return nil
}

func runServer() error {
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

	logger.InfoEvent().
		Str("version", version).
		Str("build_time", buildTime).
		Str("git_commit", gitCommit).
		Msg("Starting Porchlight server")

	logger.InfoEvent().
		Str("driver", cfg.Database.Driver).
		Str("database", cfg.Database.Database).
		Msg("Connecting to database")

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
		logger.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.AutoMigrate(database); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to run migrations: %v", err))
	}
	logger.InfoEvent().Msg("Database migrations completed")

	if err := initAdminUser(database, cfg); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize admin user: %v", err))
	}
	if err := ensureMasterTemplates(database); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to initialize master templates: %v", err))
	}

	// Lead fan-out: webhooks and notifications run in the background after
	// each captured lead.
	dispatcher := leads.NewFanout(
		webhooks.NewDispatcher(database, cfg.Webhooks),
		notify.NewNotifier(database, cfg.Notify),
	)

	mux := http.NewServeMux()
	apiHandler := api.NewHandler(database, cfg, dispatcher)
	apiHandler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      api.CORSMiddleware(middleware.HTTPLogger(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.InfoEvent().
			Str("addr", server.Addr).
			Str("default_hostname", cfg.Server.DefaultHostname).
			Msg("HTTP server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.InfoEvent().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.ErrorEvent().Err(err).Msg("Server shutdown failed")
		return err
	}

	logger.InfoEvent().Msg("Server stopped")
	return nil
}
