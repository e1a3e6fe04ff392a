package quotes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quotly/backend/internal/users"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const topQuoteWindow = 30 * 24 * time.Hour

var (
	// ErrQuoteNotFound indicates no quote exists for the given key.
	ErrQuoteNotFound = errors.New("quotes: quote not found")
	// ErrCommentNotFound indicates a missing comment, e.g. a dangling parent reference.
	ErrCommentNotFound = errors.New("quotes: comment not found")
	// ErrForbidden indicates the authenticated actor lacks the required
	// ownership or role for a mutating operation.
	ErrForbidden = errors.New("quotes: insufficient permissions")
	// ErrEmptyQuote indicates a create request without text.
	ErrEmptyQuote = errors.New("quotes: quote text is required")
	// ErrEmptyComment indicates a comment request without text.
	ErrEmptyComment = errors.New("quotes: comment text is required")

	errMissingDatabase    = errors.New("quotes: database handle is required")
	errMissingRoleChecker = errors.New("quotes: role checker is required")
)

// SortOrder selects creation-time ordering for listings.
type SortOrder string

const (
	SortAscend  SortOrder = "ascend"
	SortDescend SortOrder = "descend"
)

// ParseSortOrder normalizes raw input, defaulting to ascending.
func ParseSortOrder(raw string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortDescend)) {
		return SortDescend
	}
	return SortAscend
}

// RoleChecker answers role membership questions for deletion authorization.
type RoleChecker interface {
	HasRole(ctx context.Context, userID uint, name string) (bool, error)
}

// ServiceConfig describes the dependencies of the quote service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Roles    RoleChecker
	Logger   *zap.Logger
}

// Service owns quote CRUD, the interaction toggle engine and feed composition.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	roles  RoleChecker
	logger *zap.Logger
}

// NewService constructs the quote service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Roles == nil {
		return nil, errMissingRoleChecker
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, roles: cfg.Roles, logger: logger}, nil
}

// ListQuery captures listing parameters decided before per-item composition.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
	Sort   SortOrder
}

// Create persists a new quote for the actor and returns its composed view.
func (s *Service) Create(ctx context.Context, actor users.User, text string) (QuoteView, error) {
	if strings.TrimSpace(text) == "" {
		return QuoteView{}, ErrEmptyQuote
	}

	quote := Quote{
		Quote:     text,
		UserID:    actor.UserID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&quote).Error; err != nil {
		return QuoteView{}, err
	}
	quote.User = actor

	s.logger.Info("quote created",
		zap.Uint("quote_id", quote.QuoteID),
		zap.Uint("user_id", actor.UserID))
	return Compose(quote, nil), nil
}

// Get returns the composed view of a single quote.
func (s *Service) Get(ctx context.Context, quoteID uint, viewer *users.User) (QuoteView, error) {
	quote, err := s.findQuote(ctx, quoteID, true)
	if err != nil {
		return QuoteView{}, err
	}
	return Compose(quote, viewer), nil
}

// List returns composed quote views; filtering, sorting and paging happen in
// the storage query, composition per item afterwards.
func (s *Service) List(ctx context.Context, query ListQuery, viewer *users.User) ([]QuoteView, error) {
	dbQuery := s.db.WithContext(ctx).Model(&Quote{}).
		Preload("User").Preload("Reactions").Preload("SavedQuotes")

	if query.Page > 0 && query.Limit > 0 {
		dbQuery = dbQuery.Limit(query.Limit).Offset((query.Page - 1) * query.Limit)
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		dbQuery = dbQuery.
			Joins("JOIN users ON users.user_id = quotes.user_id").
			Where("quotes.quote LIKE ? OR users.display_name LIKE ?", pattern, pattern)
	}
	if query.Sort == SortDescend {
		dbQuery = dbQuery.Order("quotes.created_at DESC")
	} else {
		dbQuery = dbQuery.Order("quotes.created_at ASC")
	}

	var result []Quote
	if err := dbQuery.Find(&result).Error; err != nil {
		return nil, err
	}
	return s.composeAll(result, viewer), nil
}

// Top returns quotes created within the last 30 days ordered by total
// reaction count, most reacted first.
func (s *Service) Top(ctx context.Context, limit int, viewer *users.User) ([]QuoteView, error) {
	cutoff := s.clock().UTC().Add(-topQuoteWindow)
	dbQuery := s.db.WithContext(ctx).Model(&Quote{}).
		Select("quotes.*").
		Joins("LEFT JOIN quote_reactions ON quote_reactions.quote_id = quotes.quote_id").
		Where("quotes.created_at >= ?", cutoff).
		Group("quotes.quote_id").
		Order("COUNT(quote_reactions.reaction_id) DESC").
		Preload("User").Preload("Reactions").Preload("SavedQuotes")
	if limit > 0 {
		dbQuery = dbQuery.Limit(limit)
	}

	var result []Quote
	if err := dbQuery.Find(&result).Error; err != nil {
		return nil, err
	}
	return s.composeAll(result, viewer), nil
}

// ListByUser returns the composed quotes owned by the given user.
func (s *Service) ListByUser(ctx context.Context, userID uint, sort SortOrder, viewer *users.User) ([]QuoteView, error) {
	order := "created_at ASC"
	if sort == SortDescend {
		order = "created_at DESC"
	}

	var result []Quote
	err := s.db.WithContext(ctx).Model(&Quote{}).
		Preload("User").Preload("Reactions").Preload("SavedQuotes").
		Where("user_id = ?", userID).
		Order(order).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return s.composeAll(result, viewer), nil
}

// Delete removes a quote and its reactions, bookmarks and comments. The actor
// must own the quote and also hold the admin role; either condition alone is
// not sufficient.
func (s *Service) Delete(ctx context.Context, actor users.User, quoteID uint) error {
	quote, err := s.findQuote(ctx, quoteID, false)
	if err != nil {
		return err
	}

	isAdmin, err := s.roles.HasRole(ctx, actor.UserID, users.AdminRoleName)
	if err != nil {
		return err
	}
	if quote.UserID != actor.UserID || !isAdmin {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&Reaction{}, &SavedQuote{}, &Comment{}} {
			if err := tx.Where("quote_id = ?", quoteID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&Quote{}, "quote_id = ?", quoteID).Error
	})
	if err != nil {
		return err
	}

	s.logger.Info("quote deleted",
		zap.Uint("quote_id", quoteID),
		zap.Uint("user_id", actor.UserID))
	return nil
}

// Reactions returns the raw reaction rows of a quote.
func (s *Service) Reactions(ctx context.Context, quoteID uint) ([]Reaction, error) {
	var result []Reaction
	err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).Find(&result).Error
	return result, err
}

// ReactionsByUser returns the raw reaction rows created by a user.
func (s *Service) ReactionsByUser(ctx context.Context, userID uint) ([]Reaction, error) {
	var result []Reaction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&result).Error
	return result, err
}

// SavedByUser returns the composed views of the quotes a user bookmarked.
func (s *Service) SavedByUser(ctx context.Context, userID uint, viewer *users.User) ([]QuoteView, error) {
	var bookmarks []SavedQuote
	err := s.db.WithContext(ctx).
		Preload("Quote.User").Preload("Quote.Reactions").Preload("Quote.SavedQuotes").
		Where("user_id = ?", userID).
		Find(&bookmarks).Error
	if err != nil {
		return nil, err
	}

	views := make([]QuoteView, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		views = append(views, Compose(bookmark.Quote, viewer))
	}
	return views, nil
}

// IsSaved reports whether the actor bookmarked the quote.
func (s *Service) IsSaved(ctx context.Context, actor users.User, quoteID uint) (bool, error) {
	if _, err := s.findQuote(ctx, quoteID, false); err != nil {
		return false, err
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&SavedQuote{}).
		Where("user_id = ? AND quote_id = ?", actor.UserID, quoteID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Comments returns the comment rows of a quote.
func (s *Service) Comments(ctx context.Context, quoteID uint) ([]Comment, error) {
	var result []Comment
	err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).Find(&result).Error
	return result, err
}

// AddComment persists a comment for the actor. A parent reference must point
// at an existing comment on the same quote.
func (s *Service) AddComment(ctx context.Context, actor users.User, quoteID uint, text string, parent *uint) (Comment, error) {
	if strings.TrimSpace(text) == "" {
		return Comment{}, ErrEmptyComment
	}
	if _, err := s.findQuote(ctx, quoteID, false); err != nil {
		return Comment{}, err
	}
	if parent != nil {
		var count int64
		err := s.db.WithContext(ctx).Model(&Comment{}).
			Where("comment_id = ? AND quote_id = ?", *parent, quoteID).
			Count(&count).Error
		if err != nil {
			return Comment{}, err
		}
		if count == 0 {
			return Comment{}, ErrCommentNotFound
		}
	}

	comment := Comment{
		Parent:    parent,
		UserID:    actor.UserID,
		QuoteID:   quoteID,
		Comment:   text,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (s *Service) composeAll(result []Quote, viewer *users.User) []QuoteView {
	views := make([]QuoteView, 0, len(result))
	for _, quote := range result {
		views = append(views, Compose(quote, viewer))
	}
	return views
}

func (s *Service) findQuote(ctx context.Context, quoteID uint, withAssociations bool) (Quote, error) {
	query := s.db.WithContext(ctx)
	if withAssociations {
		query = query.Preload("User").Preload("Reactions").Preload("SavedQuotes")
	}
	var quote Quote
	err := query.Where("quote_id = ?", quoteID).Take(&quote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Quote{}, ErrQuoteNotFound
	}
	if err != nil {
		return Quote{}, err
	}
	return quote, nil
}
