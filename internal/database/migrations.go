package database

import (
	"errors"
	"time"

	"github.com/quotly/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationSeedAdminRole = "2026-08-12_seed_admin_role"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationSeedAdminRole, apply: seedAdminRole},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func seedAdminRole(db *gorm.DB) error {
	var count int64
	if err := db.Model(&users.Role{}).Where("name = ?", users.AdminRoleName).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&users.Role{Name: users.AdminRoleName, CreatedAt: time.Now().UTC()}).Error
}
