package domain

import (
	"encoding/json"
	"time"
)

// Outcome is the terminal classification of one workflow invocation.
type Outcome string

const (
	OutcomeSkippedModerated Outcome = "skipped-moderated"
	OutcomeSkippedUnchanged Outcome = "skipped-unchanged"
	OutcomeSkippedMissing   Outcome = "skipped-missing"
	OutcomeCommitted        Outcome = "committed"
	OutcomeFailed           Outcome = "failed"
)

// Outcomes lists every outcome in reporting order.
var Outcomes = []Outcome{
	OutcomeCommitted,
	OutcomeSkippedModerated,
	OutcomeSkippedUnchanged,
	OutcomeSkippedMissing,
	OutcomeFailed,
}

// Skipped reports whether the workflow stopped before attempting a write.
func (o Outcome) Skipped() bool {
	switch o {
	case OutcomeSkippedModerated, OutcomeSkippedUnchanged, OutcomeSkippedMissing:
		return true
	default:
		return false
	}
}

// Result is what PageWorkflow hands back to the scheduler for a single title.
type Result struct {
	Title    string
	Outcome  Outcome
	Detail   string
	NewRevID int64
}

// PageSnapshot is the wikitext of a title at fetch time.
type PageSnapshot struct {
	Title    string
	RevID    int64
	Wikitext string
}

// ModerationState describes how the latest revision relates to the flagged one.
type ModerationState struct {
	Title       string
	Exists      bool
	Flagged     bool
	LastRevID   int64
	StableRevID int64
}

// Stable reports whether the page must be left alone.
// Missing pages count as stable, unflagged pages never do.
func (m ModerationState) Stable() bool {
	if !m.Exists {
		return true
	}
	if !m.Flagged {
		return false
	}
	return m.LastRevID == m.StableRevID
}

// LoginStatus mirrors the clientlogin status field.
type LoginStatus string

const (
	LoginPass     LoginStatus = "PASS"
	LoginFail     LoginStatus = "FAIL"
	LoginUI       LoginStatus = "UI"
	LoginRedirect LoginStatus = "REDIRECT"
	LoginRestart  LoginStatus = "RESTART"
)

// LoginResult is the decoded clientlogin response.
type LoginResult struct {
	Status      LoginStatus
	Username    string
	Message     string
	MessageCode string
	Raw         json.RawMessage
}

// EditResult is the decoded edit response.
type EditResult struct {
	Result   string
	NewRevID int64
	OldRevID int64
	NoChange bool
	Raw      json.RawMessage
}

// Success reports whether the API accepted the edit.
func (e EditResult) Success() bool {
	return e.Result == "Success"
}

// PatrolResult is the decoded patrol response.
type PatrolResult struct {
	RCID  int64
	RevID int64
	Title string
	Raw   json.RawMessage
}

// JournalEntry is a persisted record of one workflow Result.
type JournalEntry struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"runId"`
	Title     string    `json:"title"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	NewRevID  int64     `json:"newRevId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
