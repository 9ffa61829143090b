package database

import (
	"log"

	"github.com/codyseavey/rivals-companion/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Initialize opens the sqlite database at dbPath and migrates the favorites
// schema. The returned handle is passed to services explicitly; there is no
// package-level singleton.
func Initialize(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connected successfully")

	if err := db.AutoMigrate(&models.FavoriteMessage{}, &models.FavoriteHero{}); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}
