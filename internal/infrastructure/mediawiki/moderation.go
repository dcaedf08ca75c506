package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

// ModerationGate reads flagged-revisions metadata for a title.
type ModerationGate struct {
	session *Session
}

var _ ports.ModerationGate = (*ModerationGate)(nil)

// NewModerationGate builds a gate that reads through the session transport.
func NewModerationGate(session *Session) *ModerationGate {
	return &ModerationGate{session: session}
}

// IsStable reports whether the title must be skipped. Missing pages are
// stable, pages without flagged metadata are not, otherwise the latest
// revision must equal the stable one.
func (g *ModerationGate) IsStable(ctx context.Context, title string) (bool, error) {
	state, err := g.Moderation(ctx, title)
	if err != nil {
		return false, err
	}
	return state.Stable(), nil
}

// Moderation fetches prop=info|flagged for one title. It is never cached.
func (g *ModerationGate) Moderation(ctx context.Context, title string) (domain.ModerationState, error) {
	raw, err := g.session.transport.Get(ctx, Params{
		"action": "query",
		"prop":   "info|flagged",
		"titles": title,
	})
	if err != nil {
		return domain.ModerationState{}, fmt.Errorf("query moderation for %q: %w", title, err)
	}
	return decodeModeration(title, raw)
}

type flaggedInfo struct {
	StableRevID int64 `json:"stable_revid"`
}

type pageInfo struct {
	Title     string       `json:"title"`
	LastRevID *int64       `json:"lastrevid"`
	Flagged   *flaggedInfo `json:"flagged"`
}

func decodeModeration(title string, raw json.RawMessage) (domain.ModerationState, error) {
	var resp struct {
		Query struct {
			Pages map[string]pageInfo `json:"pages"`
		} `json:"query"`
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.ModerationState{}, fmt.Errorf("decode moderation for %q: %w", title, err)
	}
	if resp.Error != nil {
		return domain.ModerationState{}, resp.Error.asError("query")
	}

	state := domain.ModerationState{Title: title}

	// One title was requested, so at most one page comes back.
	for _, page := range resp.Query.Pages {
		if page.Title != "" {
			state.Title = page.Title
		}
		if page.LastRevID == nil {
			return state, nil
		}
		state.Exists = true
		state.LastRevID = *page.LastRevID
		if page.Flagged != nil {
			state.Flagged = true
			state.StableRevID = page.Flagged.StableRevID
		}
		break
	}

	return state, nil
}
