package ports

import (
	"context"
	"time"

	"wikibot/internal/domain"
)

// ModerationGate decides whether a page is pinned to its flagged revision.
type ModerationGate interface {
	IsStable(ctx context.Context, title string) (bool, error)
}

// PageReader fetches the current wikitext of a page.
type PageReader interface {
	FetchPage(ctx context.Context, title string) (domain.PageSnapshot, error)
}

// PageEditor commits new wikitext, requesting a fresh edit token per call.
type PageEditor interface {
	EditPage(ctx context.Context, edit EditRequest) (domain.EditResult, error)
}

// Patroller marks a revision as patrolled.
type Patroller interface {
	Patrol(ctx context.Context, revID int64) (domain.PatrolResult, error)
}

// EditRequest is everything an edit action needs besides the token.
type EditRequest struct {
	Title     string
	Text      string
	Summary   string
	Minor     bool
	Bot       bool
	BaseRevID int64
}

// Transformer is the opaque external rewrite step.
type Transformer interface {
	Transform(ctx context.Context, title, text string) (string, error)
}

// Tracker reports a completed title to the external tracking service.
type Tracker interface {
	MarkDone(ctx context.Context, title string) error
}

// Journal persists workflow results for history and status reporting.
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)
}

// Selector picks an index in [0, n).
type Selector interface {
	Pick(n int) int
}

// Sleeper pauses between committed edits.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
