package quotes

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/quotly/backend/internal/users"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&users.User{}, &users.Role{}, &users.UserRole{},
		&Quote{}, &Reaction{}, &SavedQuote{}, &Comment{},
	))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clock func() time.Time) (*Service, *users.Directory) {
	t.Helper()
	directory, err := users.NewDirectory(users.DirectoryConfig{Database: db, Clock: clock})
	require.NoError(t, err)
	service, err := NewService(ServiceConfig{Database: db, Clock: clock, Roles: directory})
	require.NoError(t, err)
	return service, directory
}

func seedUser(t *testing.T, db *gorm.DB, discordID, displayName string) users.User {
	t.Helper()
	user := users.User{
		DiscordID:   discordID,
		Email:       discordID + "@example.com",
		DisplayName: displayName,
		CreatedAt:   time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedQuote(t *testing.T, db *gorm.DB, owner users.User, text string, createdAt time.Time) Quote {
	t.Helper()
	quote := Quote{Quote: text, UserID: owner.UserID, CreatedAt: createdAt}
	require.NoError(t, db.Create(&quote).Error)
	quote.User = owner
	return quote
}

func grantAdmin(t *testing.T, db *gorm.DB, user users.User) {
	t.Helper()
	role := users.Role{Name: users.AdminRoleName, CreatedAt: time.Unix(1700000000, 0).UTC()}
	err := db.Where("name = ?", users.AdminRoleName).Take(&role).Error
	if err != nil {
		require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		require.NoError(t, db.Create(&role).Error)
	}
	require.NoError(t, db.Create(&users.UserRole{UserID: user.UserID, RoleID: role.RoleID}).Error)
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

var testCtx = context.Background()

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0).UTC() }
}
