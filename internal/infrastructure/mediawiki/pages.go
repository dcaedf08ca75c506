package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

// Error codes the parse action uses for titles that do not resolve.
var missingPageCodes = map[string]bool{
	"missingtitle":    true,
	"invalidtitle":    true,
	"nosuchpageid":    true,
	"pagecannotexist": true,
}

// Pages reads and writes page content through an authenticated session.
type Pages struct {
	session *Session
}

var (
	_ ports.PageReader = (*Pages)(nil)
	_ ports.PageEditor = (*Pages)(nil)
	_ ports.Patroller  = (*Pages)(nil)
)

// NewPages wires page actions onto a session.
func NewPages(session *Session) *Pages {
	return &Pages{session: session}
}

// FetchPage returns the current wikitext via action=parse.
func (p *Pages) FetchPage(ctx context.Context, title string) (domain.PageSnapshot, error) {
	raw, err := p.session.transport.Get(ctx, Params{
		"action": "parse",
		"page":   title,
		"prop":   "wikitext",
	})
	if err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("parse %q: %w", title, err)
	}

	var resp struct {
		Parse *struct {
			Title    string `json:"title"`
			RevID    int64  `json:"revid"`
			Wikitext *struct {
				Text string `json:"*"`
			} `json:"wikitext"`
		} `json:"parse"`
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("decode parse %q: %w", title, err)
	}

	if resp.Error != nil {
		if missingPageCodes[resp.Error.Code] {
			return domain.PageSnapshot{}, &domain.ContentMissingError{Title: title, Code: resp.Error.Code}
		}
		return domain.PageSnapshot{}, resp.Error.asError("parse")
	}
	if resp.Parse == nil || resp.Parse.Wikitext == nil {
		return domain.PageSnapshot{}, &domain.ContentMissingError{Title: title, Code: "nowikitext"}
	}

	snapshot := domain.PageSnapshot{
		Title:    title,
		RevID:    resp.Parse.RevID,
		Wikitext: resp.Parse.Wikitext.Text,
	}
	if resp.Parse.Title != "" {
		snapshot.Title = resp.Parse.Title
	}
	return snapshot, nil
}

// EditPage fetches a fresh csrf token and submits the edit. A response
// without result "Success" yields an EditRejectedError next to the decoded result.
func (p *Pages) EditPage(ctx context.Context, edit ports.EditRequest) (domain.EditResult, error) {
	token, err := p.session.ActionToken(ctx, TokenCSRF)
	if err != nil {
		return domain.EditResult{}, fmt.Errorf("edit %q: %w", edit.Title, err)
	}

	params := Params{
		"action":   "edit",
		"title":    edit.Title,
		"text":     edit.Text,
		"summary":  edit.Summary,
		"minor":    edit.Minor,
		"bot":      edit.Bot,
		"nocreate": true,
		"token":    token,
	}
	if edit.BaseRevID > 0 {
		params["baserevid"] = edit.BaseRevID
	}

	raw, err := p.session.transport.Post(ctx, params)
	if err != nil {
		return domain.EditResult{}, fmt.Errorf("edit %q: %w", edit.Title, err)
	}

	var resp struct {
		Edit *struct {
			Result   string           `json:"result"`
			OldRevID int64            `json:"oldrevid"`
			NewRevID int64            `json:"newrevid"`
			NoChange *json.RawMessage `json:"nochange"`
		} `json:"edit"`
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.EditResult{}, fmt.Errorf("decode edit %q: %w", edit.Title, err)
	}

	result := domain.EditResult{Raw: raw}
	if resp.Edit != nil {
		result.Result = resp.Edit.Result
		result.OldRevID = resp.Edit.OldRevID
		result.NewRevID = resp.Edit.NewRevID
		result.NoChange = resp.Edit.NoChange != nil
	}

	if !result.Success() {
		rejected := &domain.EditRejectedError{Title: edit.Title, Result: result.Result, Raw: raw}
		if resp.Error != nil {
			rejected.Code = resp.Error.Code
		}
		return result, rejected
	}
	return result, nil
}

// Patrol marks a revision as patrolled using a fresh patrol token.
func (p *Pages) Patrol(ctx context.Context, revID int64) (domain.PatrolResult, error) {
	token, err := p.session.ActionToken(ctx, TokenPatrol)
	if err != nil {
		return domain.PatrolResult{}, fmt.Errorf("patrol revision %d: %w", revID, err)
	}

	raw, err := p.session.transport.Post(ctx, Params{
		"action": "patrol",
		"revid":  revID,
		"token":  token,
	})
	if err != nil {
		return domain.PatrolResult{}, fmt.Errorf("patrol revision %d: %w", revID, err)
	}

	var resp struct {
		Patrol *struct {
			RCID  int64  `json:"rcid"`
			RevID int64  `json:"revid"`
			Title string `json:"title"`
		} `json:"patrol"`
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.PatrolResult{}, fmt.Errorf("decode patrol %d: %w", revID, err)
	}
	if resp.Error != nil {
		return domain.PatrolResult{}, resp.Error.asError("patrol")
	}
	if resp.Patrol == nil {
		return domain.PatrolResult{}, &domain.APIError{Action: "patrol", Code: "noresult", Info: string(raw)}
	}

	return domain.PatrolResult{
		RCID:  resp.Patrol.RCID,
		RevID: resp.Patrol.RevID,
		Title: resp.Patrol.Title,
		Raw:   raw,
	}, nil
}
