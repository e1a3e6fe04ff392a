package webhooks

import (
	"context"
	"errors"

	"github.com/quotly/backend/internal/identity"
	"gorm.io/gorm"
)

// ErrRegistrationNotFound indicates no webhook registration for the given key.
var ErrRegistrationNotFound = errors.New("webhooks: registration not found")

var errMissingDatabase = errors.New("webhooks: database handle is required")

// Registration is an outbound delivery target a user authorized through the
// provider's webhook flow.
type Registration struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	UserID       uint   `gorm:"column:user_id;not null;index" json:"userId"`
	WebhookID    string `gorm:"column:webhook_id;size:32;not null" json:"webhookId"`
	WebhookToken string `gorm:"column:webhook_token;size:255;not null" json:"webhookToken"`
}

// TableName provides the explicit table binding for GORM.
func (Registration) TableName() string {
	return "webhooks"
}

// Store persists webhook registrations.
type Store struct {
	db *gorm.DB
}

// NewStore constructs the registration store.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	return &Store{db: db}, nil
}

// Register records a delivery target from the provider's webhook descriptor.
func (s *Store) Register(ctx context.Context, userID uint, descriptor identity.WebhookDescriptor) (Registration, error) {
	registration := Registration{
		UserID:       userID,
		WebhookID:    descriptor.ID,
		WebhookToken: descriptor.Token,
	}
	if err := s.db.WithContext(ctx).Create(&registration).Error; err != nil {
		return Registration{}, err
	}
	return registration, nil
}

// ListByUser returns the registrations owned by a user.
func (s *Store) ListByUser(ctx context.Context, userID uint) ([]Registration, error) {
	var result []Registration
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&result).Error
	return result, err
}

// ListAll returns every registration; quote announcements fan out to all.
func (s *Store) ListAll(ctx context.Context) ([]Registration, error) {
	var result []Registration
	err := s.db.WithContext(ctx).Find(&result).Error
	return result, err
}

// Delete removes one of the user's registrations by its row id.
func (s *Store) Delete(ctx context.Context, id, userID uint) error {
	result := s.db.WithContext(ctx).Delete(&Registration{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRegistrationNotFound
	}
	return nil
}
