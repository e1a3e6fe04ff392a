package users

import "time"

// User is the local record for an upstream Discord identity. Profile fields
// are denormalized and overwritten on every successful authorization.
type User struct {
	UserID      uint       `gorm:"column:user_id;primaryKey" json:"userId"`
	DiscordID   string     `gorm:"column:discord_id;size:32;not null;uniqueIndex" json:"discordId"`
	Email       string     `gorm:"column:email_address;size:254;not null" json:"-"`
	DisplayName string     `gorm:"column:display_name;size:100;not null" json:"displayName"`
	AvatarURL   string     `gorm:"column:avatar_url;size:255;not null;default:''" json:"avatarUrl"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	DeletedAt   *time.Time `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
}

// TableName provides the explicit table binding for GORM.
func (User) TableName() string {
	return "users"
}

// Role is a named grant such as "admin".
type Role struct {
	RoleID    uint      `gorm:"column:role_id;primaryKey" json:"roleId"`
	Name      string    `gorm:"column:name;size:64;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Role) TableName() string {
	return "roles"
}

// UserRole joins users to their roles; a user may hold several.
type UserRole struct {
	ID     uint `gorm:"column:id;primaryKey" json:"id"`
	UserID uint `gorm:"column:user_id;not null;index" json:"userId"`
	RoleID uint `gorm:"column:role_id;not null;index" json:"roleId"`

	Role Role `gorm:"foreignKey:RoleID;references:RoleID" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (UserRole) TableName() string {
	return "user_roles"
}

// AdminRoleName is the role required (together with ownership) to delete quotes.
const AdminRoleName = "admin"
