package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bukukas/pkg/config"
	"bukukas/pkg/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// initDB opens the database, migrates it when DB_AUTO_MIGRATE is on and seeds
// the roles and admin account. Migration problems are logged, not fatal.
func initDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Warn("migration finished with warnings", "error", err)
		}
	}
	if err := database.Seed(db, cfg.SeedAdminPassword); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("seed database: %w", err)
	}
	return db, nil
}

func pingDB(c *gin.Context, db *gorm.DB) error {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	return database.Ping(ctx, db)
}
