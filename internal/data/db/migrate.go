package db

import (
	"gorm.io/gorm"

	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.ChatSession{},
		&types.ProviderToken{},
	)
}
