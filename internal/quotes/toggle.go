package quotes

import (
	"context"
	"errors"

	"github.com/quotly/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ToggleReaction applies the reaction state machine for the (actor, quote)
// pair and reports whether a reaction is active afterwards:
//
//	no row + kind K        -> create row, true
//	row with K + kind K    -> delete row, false
//	row with K + kind K'   -> update kind in place, true
//
// Switching kinds never passes through the empty state and never creates a
// second row. A lost insert race against the unique index is replayed once
// against the row the winner created.
func (s *Service) ToggleReaction(ctx context.Context, actor users.User, quoteID uint, kind ReactionKind) (bool, error) {
	if _, err := ParseReactionKind(string(kind)); err != nil {
		return false, err
	}
	if _, err := s.findQuote(ctx, quoteID, false); err != nil {
		return false, err
	}

	active, err := s.toggleReactionOnce(ctx, actor.UserID, quoteID, kind)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.logger.Debug("reaction insert lost race, replaying toggle",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("quote_id", quoteID))
		return s.toggleReactionOnce(ctx, actor.UserID, quoteID, kind)
	}
	return active, err
}

func (s *Service) toggleReactionOnce(ctx context.Context, userID, quoteID uint, kind ReactionKind) (bool, error) {
	active := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Reaction
		findErr := tx.Where("user_id = ? AND quote_id = ?", userID, quoteID).
			Take(&existing).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			reaction := Reaction{
				UserID:    userID,
				QuoteID:   quoteID,
				Kind:      kind,
				CreatedAt: s.clock().UTC(),
			}
			if err := tx.Create(&reaction).Error; err != nil {
				return err
			}
			active = true
			return nil
		}
		if findErr != nil {
			return findErr
		}

		if existing.Kind == kind {
			active = false
			return tx.Delete(&Reaction{}, "reaction_id = ?", existing.ReactionID).Error
		}
		active = true
		return tx.Model(&Reaction{}).
			Where("reaction_id = ?", existing.ReactionID).
			Update("reaction_name", kind).Error
	})
	return active, err
}

// ToggleSave flips the bookmark state for the (actor, quote) pair and returns
// whether the quote is saved afterwards, i.e. the negation of prior existence.
func (s *Service) ToggleSave(ctx context.Context, actor users.User, quoteID uint) (bool, error) {
	if _, err := s.findQuote(ctx, quoteID, false); err != nil {
		return false, err
	}

	saved, err := s.toggleSaveOnce(ctx, actor.UserID, quoteID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.logger.Debug("bookmark insert lost race, replaying toggle",
			zap.Uint("user_id", actor.UserID),
			zap.Uint("quote_id", quoteID))
		return s.toggleSaveOnce(ctx, actor.UserID, quoteID)
	}
	return saved, err
}

func (s *Service) toggleSaveOnce(ctx context.Context, userID, quoteID uint) (bool, error) {
	saved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing SavedQuote
		findErr := tx.Where("user_id = ? AND quote_id = ?", userID, quoteID).
			Take(&existing).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			bookmark := SavedQuote{UserID: userID, QuoteID: quoteID}
			if err := tx.Create(&bookmark).Error; err != nil {
				return err
			}
			saved = true
			return nil
		}
		if findErr != nil {
			return findErr
		}
		saved = false
		return tx.Delete(&SavedQuote{}, "saved_id = ?", existing.SavedID).Error
	})
	return saved, err
}
