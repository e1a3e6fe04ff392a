package quotes

import (
	"errors"
	"fmt"
	"time"

	"github.com/quotly/backend/internal/users"
)

// ReactionKind is the closed set of reactions a quote can receive.
type ReactionKind string

const (
	ReactionRedHeart    ReactionKind = "red-heart"
	ReactionThumbsUp    ReactionKind = "thumbs-up"
	ReactionTearsOfJoy  ReactionKind = "face-with-tears-of-joy"
	ReactionMeltingFace ReactionKind = "melting-face"
	ReactionSkull       ReactionKind = "skull"
)

// ReactionKinds is the canonical ordering used for every tally.
var ReactionKinds = [5]ReactionKind{
	ReactionRedHeart,
	ReactionThumbsUp,
	ReactionTearsOfJoy,
	ReactionMeltingFace,
	ReactionSkull,
}

// ErrInvalidReaction indicates a reaction name outside the closed set.
var ErrInvalidReaction = errors.New("quotes: invalid reaction name")

// ParseReactionKind validates raw input against the closed set.
func ParseReactionKind(raw string) (ReactionKind, error) {
	for _, kind := range ReactionKinds {
		if string(kind) == raw {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidReaction, raw)
}

// Quote models the persisted quote text with its ownership and timestamps.
type Quote struct {
	QuoteID   uint       `gorm:"column:quote_id;primaryKey" json:"quoteId"`
	Quote     string     `gorm:"column:quote;type:text;not null" json:"quote"`
	UserID    uint       `gorm:"column:user_id;not null;index" json:"userId"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	ChangedAt *time.Time `gorm:"column:changed_at" json:"changedAt,omitempty"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt,omitempty"`

	User        users.User   `gorm:"foreignKey:UserID;references:UserID" json:"-"`
	Reactions   []Reaction   `gorm:"foreignKey:QuoteID;references:QuoteID" json:"-"`
	SavedQuotes []SavedQuote `gorm:"foreignKey:QuoteID;references:QuoteID" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (Quote) TableName() string {
	return "quotes"
}

// Reaction records a user's single reaction to a quote. The composite unique
// index is the storage-level backstop for the one-reaction-per-pair invariant.
type Reaction struct {
	ReactionID uint         `gorm:"column:reaction_id;primaryKey" json:"reactionId"`
	UserID     uint         `gorm:"column:user_id;not null;uniqueIndex:idx_reactions_user_quote,priority:1" json:"userId"`
	QuoteID    uint         `gorm:"column:quote_id;not null;uniqueIndex:idx_reactions_user_quote,priority:2" json:"quoteId"`
	Kind       ReactionKind `gorm:"column:reaction_name;size:64;not null" json:"reactionName"`
	CreatedAt  time.Time    `gorm:"column:created_at;not null" json:"createdAt"`
}

// TableName provides the explicit table binding for GORM.
func (Reaction) TableName() string {
	return "quote_reactions"
}

// SavedQuote marks a bookmark; existence alone is the signal. The composite
// unique index backstops the at-most-one-row-per-pair invariant.
type SavedQuote struct {
	SavedID uint `gorm:"column:saved_id;primaryKey" json:"savedId"`
	UserID  uint `gorm:"column:user_id;not null;uniqueIndex:idx_saved_user_quote,priority:1" json:"userId"`
	QuoteID uint `gorm:"column:quote_id;not null;uniqueIndex:idx_saved_user_quote,priority:2" json:"quoteId"`

	Quote Quote `gorm:"foreignKey:QuoteID;references:QuoteID" json:"-"`
}

// TableName provides the explicit table binding for GORM.
func (SavedQuote) TableName() string {
	return "saved_quotes"
}

// Comment is quote-scoped and optionally threaded via a parent reference.
type Comment struct {
	CommentID uint       `gorm:"column:comment_id;primaryKey" json:"commentId"`
	Parent    *uint      `gorm:"column:parent" json:"parent,omitempty"`
	UserID    uint       `gorm:"column:user_id;not null;index" json:"userId"`
	QuoteID   uint       `gorm:"column:quote_id;not null;index" json:"quoteId"`
	Comment   string     `gorm:"column:comment;type:text;not null" json:"comment"`
	CreatedAt time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updatedAt,omitempty"`
	DeletedAt *time.Time `gorm:"column:deleted_at" json:"deletedAt,omitempty"`
}

// TableName provides the explicit table binding for GORM.
func (Comment) TableName() string {
	return "quote_comments"
}
