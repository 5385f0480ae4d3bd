package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lods/internal/models"
)

// Connect opens the PostgreSQL database and runs migrations.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. Exported so tests can run it against an
// in-memory SQLite database.
func Migrate(db *gorm.DB) error {
	migrations := []interface{}{
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
	}
	for _, migration := range migrations {
		if err := db.AutoMigrate(migration); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
	}
	return nil
}
