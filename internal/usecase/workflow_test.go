package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"wikibot/internal/domain"
)

func newTestWorkflow(wiki *fakeWiki, tr *funcTransformer, opts WorkflowOptions) *Workflow {
	return NewWorkflow(WorkflowDeps{
		Gate:        wiki,
		Reader:      wiki,
		Editor:      wiki,
		Patroller:   wiki,
		Transformer: tr,
	}, opts)
}

func TestWorkflowUnchangedSkipsEdit(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Alpha"] = fakePage{lastRevID: 10, text: "a"}

	res, err := newTestWorkflow(wiki, identity(), WorkflowOptions{}).Run(context.Background(), "Alpha")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != domain.OutcomeSkippedUnchanged {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if len(wiki.edits) != 0 {
		t.Fatalf("edit must not be issued for unchanged text")
	}
	if want := []string{"stable:Alpha", "fetch:Alpha"}; !reflect.DeepEqual(wiki.calls, want) {
		t.Fatalf("calls = %v, want %v", wiki.calls, want)
	}
}

func TestWorkflowUnchangedForAnyText(t *testing.T) {
	t.Parallel()

	texts := []string{"", "a", "{{cite web}}\n", "  trailing  ", "многоязычный текст", "a\r\nb"}
	for _, text := range texts {
		wiki := newFakeWiki()
		wiki.pages["Alpha"] = fakePage{lastRevID: 1, text: text}

		res, err := newTestWorkflow(wiki, identity(), WorkflowOptions{}).Run(context.Background(), "Alpha")
		if err != nil {
			t.Fatalf("%q: run: %v", text, err)
		}
		if res.Outcome != domain.OutcomeSkippedUnchanged || len(wiki.edits) != 0 {
			t.Fatalf("%q: outcome %s with %d edits", text, res.Outcome, len(wiki.edits))
		}
	}
}

func TestWorkflowStableSkipsFetch(t *testing.T) {
	t.Parallel()

	cases := map[string]fakePage{
		"Beta":  {flagged: true, lastRevID: 5, stableRevID: 5, text: "b"},
		"Gamma": {missing: true},
	}

	for title, page := range cases {
		wiki := newFakeWiki()
		wiki.pages[title] = page
		tr := upper()

		res, err := newTestWorkflow(wiki, tr, WorkflowOptions{}).Run(context.Background(), title)
		if err != nil {
			t.Fatalf("%s: run: %v", title, err)
		}
		if res.Outcome != domain.OutcomeSkippedModerated {
			t.Fatalf("%s: outcome = %s", title, res.Outcome)
		}
		if want := []string{"stable:" + title}; !reflect.DeepEqual(wiki.calls, want) {
			t.Fatalf("%s: calls = %v", title, wiki.calls)
		}
		if tr.calls != 0 {
			t.Fatalf("%s: transform must not run", title)
		}
	}
}

func TestWorkflowPendingChangesAreEdited(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Beta"] = fakePage{flagged: true, lastRevID: 101, stableRevID: 100, text: "b"}

	res, err := newTestWorkflow(wiki, upper(), WorkflowOptions{}).Run(context.Background(), "Beta")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != domain.OutcomeCommitted {
		t.Fatalf("outcome = %s", res.Outcome)
	}
}

func TestWorkflowCommit(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Delta"] = fakePage{lastRevID: 77, text: "delta"}

	wf := newTestWorkflow(wiki, upper(), WorkflowOptions{
		Summaries: []string{"first", "second"},
		Minor:     true,
		Bot:       true,
	})

	res, err := wf.Run(context.Background(), "Delta")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != domain.OutcomeCommitted || res.NewRevID != 1000 {
		t.Fatalf("unexpected result %+v", res)
	}
	if want := []string{"stable:Delta", "fetch:Delta", "edit:Delta"}; !reflect.DeepEqual(wiki.calls, want) {
		t.Fatalf("calls = %v, want %v", wiki.calls, want)
	}

	edit := wiki.edits[0]
	if edit.Text != "DELTA" || edit.Summary != "first" || !edit.Minor || !edit.Bot || edit.BaseRevID != 77 {
		t.Fatalf("unexpected edit request %+v", edit)
	}

	if _, err := wf.Run(context.Background(), "Delta"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if _, err := wf.Run(context.Background(), "Delta"); err != nil {
		t.Fatalf("third run: %v", err)
	}
	got := []string{wiki.edits[1].Summary, wiki.edits[2].Summary}
	if want := []string{"second", "first"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("summaries should rotate, got %v", got)
	}
}

func TestWorkflowMissingContent(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Epsilon"] = fakePage{lastRevID: 3, parseErr: &domain.ContentMissingError{Title: "Epsilon", Code: "missingtitle"}}
	tr := upper()

	res, err := newTestWorkflow(wiki, tr, WorkflowOptions{}).Run(context.Background(), "Epsilon")
	if err != nil {
		t.Fatalf("missing content must not be an error: %v", err)
	}
	if res.Outcome != domain.OutcomeSkippedMissing || res.Detail != "missingtitle" {
		t.Fatalf("unexpected result %+v", res)
	}
	if tr.calls != 0 || len(wiki.edits) != 0 {
		t.Fatalf("nothing may run after a missing page")
	}
}

func TestWorkflowEditRejected(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Delta"] = fakePage{lastRevID: 1, text: "delta"}
	wiki.editResult = domain.EditResult{Result: "Failure"}
	wiki.editErr = &domain.EditRejectedError{Title: "Delta", Result: "Failure"}

	res, err := newTestWorkflow(wiki, upper(), WorkflowOptions{}).Run(context.Background(), "Delta")
	if err != nil {
		t.Fatalf("rejected edit must not be an error: %v", err)
	}
	if res.Outcome != domain.OutcomeFailed {
		t.Fatalf("outcome = %s", res.Outcome)
	}
}

func TestWorkflowNonSuccessResultWithoutError(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Delta"] = fakePage{lastRevID: 1, text: "delta"}
	wiki.editResult = domain.EditResult{}

	res, err := newTestWorkflow(wiki, upper(), WorkflowOptions{}).Run(context.Background(), "Delta")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != domain.OutcomeFailed {
		t.Fatalf("missing result field must be failed, got %s", res.Outcome)
	}
}

func TestWorkflowFatalErrors(t *testing.T) {
	t.Parallel()

	transportErr := &domain.TransportError{Method: "GET", Status: 503}
	tokenErr := &domain.TokenError{Kind: "csrf"}
	transformErr := &domain.TransformError{Title: "Delta", Err: errors.New("exit status 1")}

	cases := []struct {
		name   string
		setup  func(*fakeWiki, *funcTransformer)
		target error
	}{
		{"gate transport", func(w *fakeWiki, _ *funcTransformer) { w.gateErr = transportErr }, domain.ErrTransport},
		{"fetch transport", func(w *fakeWiki, _ *funcTransformer) {
			w.pages["Delta"] = fakePage{lastRevID: 1, parseErr: transportErr}
		}, domain.ErrTransport},
		{"transform", func(_ *fakeWiki, tr *funcTransformer) {
			tr.fn = func(string) (string, error) { return "", transformErr }
		}, domain.ErrTransform},
		{"token", func(w *fakeWiki, _ *funcTransformer) { w.editErr = tokenErr }, domain.ErrToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			wiki := newFakeWiki()
			wiki.pages["Delta"] = fakePage{lastRevID: 1, text: "delta"}
			tr := upper()
			tc.setup(wiki, tr)

			_, err := newTestWorkflow(wiki, tr, WorkflowOptions{}).Run(context.Background(), "Delta")
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}

func TestWorkflowSkipModerationCheck(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Beta"] = fakePage{flagged: true, lastRevID: 5, stableRevID: 5, text: "b"}

	res, err := newTestWorkflow(wiki, upper(), WorkflowOptions{SkipModerationCheck: true}).Run(context.Background(), "Beta")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != domain.OutcomeCommitted {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if wiki.calls[0] != "fetch:Beta" {
		t.Fatalf("gate should be bypassed, calls = %v", wiki.calls)
	}
}

func TestWorkflowPatrolAfterEdit(t *testing.T) {
	t.Parallel()

	wiki := newFakeWiki()
	wiki.pages["Delta"] = fakePage{lastRevID: 1, text: "delta"}
	wiki.patrolErr = errors.New("patroldisabled")

	res, err := newTestWorkflow(wiki, upper(), WorkflowOptions{PatrolAfterEdit: true}).Run(context.Background(), "Delta")
	if err != nil {
		t.Fatalf("patrol failure must not fail the workflow: %v", err)
	}
	if res.Outcome != domain.OutcomeCommitted {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if !reflect.DeepEqual(wiki.patrols, []int64{1000}) {
		t.Fatalf("expected patrol of new revision, got %v", wiki.patrols)
	}
}
