package users_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/quotly/backend/internal/identity"
	"github.com/quotly/backend/internal/quotes"
	"github.com/quotly/backend/internal/users"
	"github.com/quotly/backend/internal/webhooks"
	"gorm.io/gorm"
)

func newDirectoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&users.User{}, &users.Role{}, &users.UserRole{},
		&quotes.Quote{}, &quotes.Reaction{}, &quotes.SavedQuote{}, &quotes.Comment{},
		&webhooks.Registration{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newDirectory(t *testing.T, db *gorm.DB) *users.Directory {
	t.Helper()
	directory, err := users.NewDirectory(users.DirectoryConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1700000000, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	return directory
}

func TestResolveOrCreateInsertsNewUser(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)

	profile := identity.Profile{
		ID:         "123456789",
		Username:   "alice",
		GlobalName: "Alice",
		Avatar:     "abc123",
		Email:      "alice@example.com",
	}
	user, err := directory.ResolveOrCreate(context.Background(), profile)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.UserID == 0 {
		t.Fatalf("expected a fresh record id")
	}
	if user.DisplayName != "Alice" {
		t.Fatalf("expected global name as display name, got %q", user.DisplayName)
	}

	var count int64
	if err := db.Model(&users.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one user row, got %d", count)
	}
}

func TestResolveOrCreateOverwritesProfileDrift(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)

	first := identity.Profile{ID: "123456789", GlobalName: "Alice", Avatar: "old", Email: "old@example.com"}
	created, err := directory.ResolveOrCreate(context.Background(), first)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	drifted := identity.Profile{ID: "123456789", GlobalName: "Alice Cooper", Avatar: "new", Email: "new@example.com"}
	updated, err := directory.ResolveOrCreate(context.Background(), drifted)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}

	if updated.UserID != created.UserID {
		t.Fatalf("expected the same record id, got %d and %d", created.UserID, updated.UserID)
	}
	if updated.DisplayName != "Alice Cooper" || updated.AvatarURL != "new" || updated.Email != "new@example.com" {
		t.Fatalf("expected overwritten profile fields, got %+v", updated)
	}

	var stored users.User
	if err := db.Where("discord_id = ?", "123456789").Take(&stored).Error; err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if stored.DisplayName != "Alice Cooper" || stored.AvatarURL != "new" {
		t.Fatalf("expected persisted overwrite, got %+v", stored)
	}
}

func TestResolveOrCreateFallsBackToUsername(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)

	profile := identity.Profile{ID: "123456789", Username: "alice"}
	user, err := directory.ResolveOrCreate(context.Background(), profile)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if user.DisplayName != "alice" {
		t.Fatalf("expected username fallback, got %q", user.DisplayName)
	}
}

func TestFindMatchesLocalAndDiscordIdentifiers(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)

	user, err := directory.ResolveOrCreate(context.Background(), identity.Profile{ID: "123456789", Username: "alice"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	byLocal, err := directory.Find(context.Background(), fmt.Sprintf("%d", user.UserID))
	if err != nil {
		t.Fatalf("find by local id failed: %v", err)
	}
	byDiscord, err := directory.Find(context.Background(), "123456789")
	if err != nil {
		t.Fatalf("find by discord id failed: %v", err)
	}
	if byLocal.UserID != byDiscord.UserID {
		t.Fatalf("expected the same user either way")
	}

	if _, err := directory.Find(context.Background(), "999999"); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestListFiltersByDisplayName(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)
	ctx := context.Background()

	for _, profile := range []identity.Profile{
		{ID: "1", GlobalName: "Alice"},
		{ID: "2", GlobalName: "Bob"},
		{ID: "3", GlobalName: "Alicia"},
	} {
		if _, err := directory.ResolveOrCreate(ctx, profile); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
	}

	matches, err := directory.List(ctx, 0, 0, "Ali")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestHasRoleAndRoles(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)
	ctx := context.Background()

	user, err := directory.ResolveOrCreate(ctx, identity.Profile{ID: "123456789", Username: "alice"})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	isAdmin, err := directory.HasRole(ctx, user.UserID, users.AdminRoleName)
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if isAdmin {
		t.Fatalf("expected no admin role before assignment")
	}

	role := users.Role{Name: users.AdminRoleName, CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("role insert failed: %v", err)
	}
	if err := db.Create(&users.UserRole{UserID: user.UserID, RoleID: role.RoleID}).Error; err != nil {
		t.Fatalf("assignment insert failed: %v", err)
	}

	isAdmin, err = directory.HasRole(ctx, user.UserID, users.AdminRoleName)
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if !isAdmin {
		t.Fatalf("expected admin role after assignment")
	}

	roles, err := directory.Roles(ctx, user.UserID)
	if err != nil {
		t.Fatalf("roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != users.AdminRoleName {
		t.Fatalf("unexpected roles: %+v", roles)
	}
}

func TestDeleteSelfCascadesOwnedRows(t *testing.T) {
	db := newDirectoryTestDB(t)
	directory := newDirectory(t, db)
	ctx := context.Background()

	owner, err := directory.ResolveOrCreate(ctx, identity.Profile{ID: "1001", GlobalName: "Alice"})
	if err != nil {
		t.Fatalf("resolve owner failed: %v", err)
	}
	fan, err := directory.ResolveOrCreate(ctx, identity.Profile{ID: "1002", GlobalName: "Bob"})
	if err != nil {
		t.Fatalf("resolve fan failed: %v", err)
	}

	quote := quotes.Quote{Quote: "hello", UserID: owner.UserID, CreatedAt: time.Unix(1700000000, 0).UTC()}
	if err := db.Create(&quote).Error; err != nil {
		t.Fatalf("quote insert failed: %v", err)
	}
	// Another user's interaction rows on the owner's quote must go too.
	if err := db.Create(&quotes.Reaction{UserID: fan.UserID, QuoteID: quote.QuoteID, Kind: quotes.ReactionRedHeart, CreatedAt: quote.CreatedAt}).Error; err != nil {
		t.Fatalf("reaction insert failed: %v", err)
	}
	if err := db.Create(&quotes.SavedQuote{UserID: fan.UserID, QuoteID: quote.QuoteID}).Error; err != nil {
		t.Fatalf("bookmark insert failed: %v", err)
	}
	if err := db.Create(&webhooks.Registration{UserID: owner.UserID, WebhookID: "42", WebhookToken: "tok"}).Error; err != nil {
		t.Fatalf("registration insert failed: %v", err)
	}

	snapshot, err := directory.DeleteSelf(ctx, owner.DiscordID)
	if err != nil {
		t.Fatalf("delete self failed: %v", err)
	}
	if snapshot.UserID != owner.UserID || snapshot.DisplayName != "Alice" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	for _, check := range []struct {
		model interface{}
		desc  string
	}{
		{&quotes.Quote{}, "quotes"},
		{&quotes.Reaction{}, "reactions"},
		{&quotes.SavedQuote{}, "bookmarks"},
		{&webhooks.Registration{}, "registrations"},
	} {
		var count int64
		if err := db.Model(check.model).Count(&count).Error; err != nil {
			t.Fatalf("count %s failed: %v", check.desc, err)
		}
		if count != 0 {
			t.Fatalf("expected no %s after cascade, got %d", check.desc, count)
		}
	}

	// The unrelated user survives.
	if _, err := directory.FindByDiscordID(ctx, fan.DiscordID); err != nil {
		t.Fatalf("expected fan to survive, got %v", err)
	}
	if _, err := directory.DeleteSelf(ctx, owner.DiscordID); !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}
