package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/users"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := OpenSQLite(path, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	return db
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", nil); err == nil {
		t.Fatalf("expected an error for the empty path")
	}
}

func TestMigrateSeedsAdminRole(t *testing.T) {
	db := openTestDatabase(t)

	var role users.Role
	if err := db.Where("name = ?", users.AdminRoleName).Take(&role).Error; err != nil {
		t.Fatalf("expected the seeded admin role: %v", err)
	}

	var applied migrationRecord
	if err := db.Where("name = ?", migrationSeedAdminRole).Take(&applied).Error; err != nil {
		t.Fatalf("expected the migration record: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDatabase(t)

	if err := Migrate(db, nil); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int64
	if err := db.Model(&users.Role{}).Where("name = ?", users.AdminRoleName).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one admin role, got %d", count)
	}
}

func TestUniqueIndexViolationsTranslate(t *testing.T) {
	db := openTestDatabase(t)

	user := users.User{DiscordID: "1001", DisplayName: "Alice"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("user insert failed: %v", err)
	}
	quote := quotes.Quote{Quote: "hello", UserID: user.UserID}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("quote insert failed: %v", err)
	}

	first := quotes.Reaction{UserID: user.UserID, QuoteID: quote.QuoteID, Kind: quotes.ReactionRedHeart}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("reaction insert failed: %v", err)
	}
	duplicate := quotes.Reaction{UserID: user.UserID, QuoteID: quote.QuoteID, Kind: quotes.ReactionSkull}
	err := db.Create(&duplicate).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey, got %v", err)
	}
}
