package db

import (
	"github.com/simonexlue/tradelens/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Account{},
		&models.Trade{},
		&models.Image{},
		&models.Analysis{},
	)
}
