package database

import (
	"fmt"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/users"
	"github.com/quotly/backend/internal/webhooks"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// Error translation is enabled so unique-index violations surface as
// gorm.ErrDuplicatedKey for the toggle engine's conflict handling.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(path)), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

// Migrate creates the schema and applies recorded migrations. Exposed so
// tests can migrate in-memory databases.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	err := db.AutoMigrate(
		&users.User{},
		&users.Role{},
		&users.UserRole{},
		&quotes.Quote{},
		&quotes.Reaction{},
		&quotes.SavedQuote{},
		&quotes.Comment{},
		&webhooks.Registration{},
		&migrationRecord{},
	)
	if err != nil {
		return err
	}
	return applyMigrations(db, logger)
}

func withForeignKeys(path string) string {
	pragma := "_pragma=foreign_keys(1)"
	if strings.Contains(path, "?") {
		return path + "&" + pragma
	}
	return path + "?" + pragma
}
