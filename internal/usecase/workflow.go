package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

// WorkflowDeps wires all driven adapters into the per-page workflow.
type WorkflowDeps struct {
	Gate        ports.ModerationGate
	Reader      ports.PageReader
	Editor      ports.PageEditor
	Patroller   ports.Patroller
	Transformer ports.Transformer
	Logger      *slog.Logger
}

// WorkflowOptions tunes the edit that is submitted on a change.
type WorkflowOptions struct {
	Summaries []string
	Minor     bool
	Bot       bool
	// SkipModerationCheck disables the flagged-revision gate entirely.
	SkipModerationCheck bool
	PatrolAfterEdit     bool
}

// Workflow implements fetch, transform, compare and commit for one title.
type Workflow struct {
	gate        ports.ModerationGate
	reader      ports.PageReader
	editor      ports.PageEditor
	patroller   ports.Patroller
	transformer ports.Transformer
	logger      *slog.Logger
	opts        WorkflowOptions
	edits       int
}

// NewWorkflow constructs the orchestration component.
func NewWorkflow(deps WorkflowDeps, opts WorkflowOptions) *Workflow {
	return &Workflow{
		gate:        deps.Gate,
		reader:      deps.Reader,
		editor:      deps.Editor,
		patroller:   deps.Patroller,
		transformer: deps.Transformer,
		logger:      deps.Logger,
		opts:        opts,
	}
}

// Run processes a single title. Each step gates the next and nothing is
// retried. A missing page becomes OutcomeSkippedMissing and a rejected edit
// becomes OutcomeFailed; every other error is returned to the caller.
func (w *Workflow) Run(ctx context.Context, title string) (domain.Result, error) {
	result := domain.Result{Title: title}

	if !w.opts.SkipModerationCheck {
		stable, err := w.gate.IsStable(ctx, title)
		if err != nil {
			return result, fmt.Errorf("moderation check %q: %w", title, err)
		}
		if stable {
			result.Outcome = domain.OutcomeSkippedModerated
			return result, nil
		}
	}

	snapshot, err := w.reader.FetchPage(ctx, title)
	if err != nil {
		var missing *domain.ContentMissingError
		if errors.As(err, &missing) {
			result.Outcome = domain.OutcomeSkippedMissing
			result.Detail = missing.Code
			return result, nil
		}
		return result, fmt.Errorf("fetch %q: %w", title, err)
	}

	transformed, err := w.transformer.Transform(ctx, title, snapshot.Wikitext)
	if err != nil {
		return result, fmt.Errorf("transform %q: %w", title, err)
	}

	if transformed == snapshot.Wikitext {
		result.Outcome = domain.OutcomeSkippedUnchanged
		return result, nil
	}

	edit, err := w.editor.EditPage(ctx, ports.EditRequest{
		Title:     title,
		Text:      transformed,
		Summary:   w.nextSummary(),
		Minor:     w.opts.Minor,
		Bot:       w.opts.Bot,
		BaseRevID: snapshot.RevID,
	})
	if err != nil {
		var rejected *domain.EditRejectedError
		if errors.As(err, &rejected) {
			result.Outcome = domain.OutcomeFailed
			result.Detail = rejected.Error()
			return result, nil
		}
		return result, fmt.Errorf("commit %q: %w", title, err)
	}
	if !edit.Success() {
		result.Outcome = domain.OutcomeFailed
		result.Detail = edit.Result
		return result, nil
	}

	result.Outcome = domain.OutcomeCommitted
	result.NewRevID = edit.NewRevID
	if edit.NoChange {
		result.Detail = "nochange"
	}

	w.patrol(ctx, title, edit.NewRevID)
	return result, nil
}

func (w *Workflow) nextSummary() string {
	if len(w.opts.Summaries) == 0 {
		return ""
	}
	summary := w.opts.Summaries[w.edits%len(w.opts.Summaries)]
	w.edits++
	return summary
}

// patrol is best effort: the edit is already committed.
func (w *Workflow) patrol(ctx context.Context, title string, revID int64) {
	if !w.opts.PatrolAfterEdit || w.patroller == nil || revID == 0 {
		return
	}
	if _, err := w.patroller.Patrol(ctx, revID); err != nil {
		w.warn("patrol failed", "title", title, "revid", revID, "error", err)
	}
}

func (w *Workflow) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
