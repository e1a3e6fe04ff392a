package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quotly/backend/internal/identity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound indicates no local record exists for the given key.
	ErrUserNotFound = errors.New("users: user not found")
	// ErrRoleNotFound indicates no role exists for the given key.
	ErrRoleNotFound = errors.New("users: role not found")

	errMissingDatabase = errors.New("users: database handle is required")
)

// DirectoryConfig describes the dependencies of the user directory.
type DirectoryConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Directory upserts local users keyed by their Discord identity and answers
// role and listing queries.
type Directory struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewDirectory constructs the directory.
func NewDirectory(cfg DirectoryConfig) (*Directory, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Directory{db: cfg.Database, clock: clock, logger: logger}, nil
}

// ResolveOrCreate looks the user up by Discord id, creating the record when
// absent. When present, the denormalized profile fields are overwritten with
// the freshly fetched values: last-write-wins, no merging. Exactly one of
// insert or update happens per call.
func (d *Directory) ResolveOrCreate(ctx context.Context, profile identity.Profile) (User, error) {
	var user User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("discord_id = ?", profile.ID).Take(&user).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			user = User{
				DiscordID:   profile.ID,
				Email:       profile.Email,
				DisplayName: profile.DisplayName(),
				AvatarURL:   profile.Avatar,
				CreatedAt:   d.clock().UTC(),
			}
			if createErr := tx.Create(&user).Error; createErr != nil {
				return createErr
			}
			d.logger.Info("user registered", zap.String("discord_id", profile.ID))
			return nil
		}
		if findErr != nil {
			return findErr
		}
		return d.reconcileProfile(tx, &user, profile)
	})
	if err != nil {
		return User{}, fmt.Errorf("users: resolve or create: %w", err)
	}
	return user, nil
}

// reconcileProfile applies the overwrite policy for profile drift.
func (d *Directory) reconcileProfile(tx *gorm.DB, user *User, profile identity.Profile) error {
	user.Email = profile.Email
	user.DisplayName = profile.DisplayName()
	user.AvatarURL = profile.Avatar
	return tx.Model(&User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"email_address": user.Email,
			"display_name":  user.DisplayName,
			"avatar_url":    user.AvatarURL,
		}).Error
}

// FindByDiscordID resolves the acting user for an authenticated request.
func (d *Directory) FindByDiscordID(ctx context.Context, discordID string) (User, error) {
	var user User
	err := d.db.WithContext(ctx).Where("discord_id = ?", discordID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Find returns the user whose local id or Discord id matches the given key.
func (d *Directory) Find(ctx context.Context, key string) (User, error) {
	var user User
	err := d.db.WithContext(ctx).
		Where("user_id = ? OR discord_id = ?", key, key).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// List returns users with optional display-name substring filtering and
// simple offset/limit paging.
func (d *Directory) List(ctx context.Context, page, limit int, search string) ([]User, error) {
	query := d.db.WithContext(ctx).Model(&User{})
	if page > 0 && limit > 0 {
		query = query.Limit(limit).Offset((page - 1) * limit)
	}
	if search != "" {
		query = query.Where("display_name LIKE ?", "%"+search+"%")
	}

	var result []User
	if err := query.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Roles returns all roles assigned to the user.
func (d *Directory) Roles(ctx context.Context, userID uint) ([]Role, error) {
	var assignments []UserRole
	err := d.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, len(assignments))
	for _, assignment := range assignments {
		roles = append(roles, assignment.Role)
	}
	return roles, nil
}

// HasRole reports whether the user holds the named role.
func (d *Directory) HasRole(ctx context.Context, userID uint, name string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&UserRole{}).
		Joins("JOIN roles ON roles.role_id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListRoles returns roles with simple offset/limit paging.
func (d *Directory) ListRoles(ctx context.Context, page, limit int) ([]Role, error) {
	query := d.db.WithContext(ctx).Model(&Role{})
	if page > 0 && limit > 0 {
		query = query.Limit(limit).Offset((page - 1) * limit)
	}
	var roles []Role
	if err := query.Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// FindRole returns a single role by id.
func (d *Directory) FindRole(ctx context.Context, roleID uint) (Role, error) {
	var role Role
	err := d.db.WithContext(ctx).Where("role_id = ?", roleID).Take(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Role{}, ErrRoleNotFound
	}
	if err != nil {
		return Role{}, err
	}
	return role, nil
}

// DeleteSelf hard-deletes the user identified by the Discord id together with
// every owned row: quotes (and the reactions, saves and comments on them),
// the user's own interactions, role assignments and webhook registrations.
// The returned snapshot is taken before deletion.
func (d *Directory) DeleteSelf(ctx context.Context, discordID string) (User, error) {
	var snapshot User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		findErr := tx.Where("discord_id = ?", discordID).Take(&snapshot).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if findErr != nil {
			return findErr
		}

		// Rows on the user's quotes may belong to other users; they go too.
		ownedQuotes := "SELECT quote_id FROM quotes WHERE user_id = ?"
		statements := []string{
			"DELETE FROM quote_reactions WHERE user_id = ? OR quote_id IN (" + ownedQuotes + ")",
			"DELETE FROM saved_quotes WHERE user_id = ? OR quote_id IN (" + ownedQuotes + ")",
			"DELETE FROM quote_comments WHERE user_id = ? OR quote_id IN (" + ownedQuotes + ")",
		}
		for _, statement := range statements {
			if err := tx.Exec(statement, snapshot.UserID, snapshot.UserID).Error; err != nil {
				return err
			}
		}
		for _, statement := range []string{
			"DELETE FROM quotes WHERE user_id = ?",
			"DELETE FROM user_roles WHERE user_id = ?",
			"DELETE FROM webhooks WHERE user_id = ?",
		} {
			if err := tx.Exec(statement, snapshot.UserID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&User{}, "user_id = ?", snapshot.UserID).Error
	})
	if err != nil {
		return User{}, err
	}
	d.logger.Info("user deleted", zap.Uint("user_id", snapshot.UserID))
	return snapshot, nil
}
