package quotes

import (
	"time"

	"github.com/quotly/backend/internal/users"
)

// TallyEntry is one reaction kind with its aggregate count.
type TallyEntry struct {
	ReactionName ReactionKind `json:"reactionName"`
	Count        int          `json:"count"`
}

// QuoteView is the externally visible shape of a quote. The tally always has
// exactly five entries in canonical kind order, zero-filled. IsSaved and
// Reaction are present only for authenticated viewers, so anonymous and
// authenticated responses stay distinguishable.
type QuoteView struct {
	QuoteID   uint          `json:"quoteId"`
	Quote     string        `json:"quote"`
	User      users.User    `json:"user"`
	CreatedAt time.Time     `json:"createdAt"`
	ChangedAt *time.Time    `json:"changedAt,omitempty"`
	Reactions []TallyEntry  `json:"reactions"`
	IsSaved   *bool         `json:"isSaved,omitempty"`
	Reaction  *ReactionKind `json:"reaction,omitempty"`
}

// Compose assembles the external view of a quote. The quote's User, Reactions
// and SavedQuotes associations must be loaded. A nil viewer yields the
// anonymous shape with the personalization fields omitted entirely.
func Compose(quote Quote, viewer *users.User) QuoteView {
	view := QuoteView{
		QuoteID:   quote.QuoteID,
		Quote:     quote.Quote,
		User:      quote.User,
		CreatedAt: quote.CreatedAt,
		ChangedAt: quote.ChangedAt,
		Reactions: tally(quote.Reactions),
	}
	if viewer == nil {
		return view
	}

	saved := false
	for _, bookmark := range quote.SavedQuotes {
		if bookmark.UserID == viewer.UserID {
			saved = true
			break
		}
	}
	view.IsSaved = &saved

	for _, reaction := range quote.Reactions {
		if reaction.UserID == viewer.UserID {
			kind := reaction.Kind
			view.Reaction = &kind
			break
		}
	}
	return view
}

func tally(reactions []Reaction) []TallyEntry {
	counts := make(map[ReactionKind]int, len(ReactionKinds))
	for _, reaction := range reactions {
		counts[reaction.Kind]++
	}

	entries := make([]TallyEntry, 0, len(ReactionKinds))
	for _, kind := range ReactionKinds {
		entries = append(entries, TallyEntry{ReactionName: kind, Count: counts[kind]})
	}
	return entries
}
