package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"wikibot/internal/domain"
	"wikibot/internal/ports"
)

// fakeWiki is an in-memory wiki that records every call in order.
type fakeWiki struct {
	pages      map[string]fakePage
	editResult domain.EditResult
	editErr    error
	gateErr    error
	patrolErr  error

	calls   []string
	edits   []ports.EditRequest
	patrols []int64
}

type fakePage struct {
	missing     bool
	flagged     bool
	lastRevID   int64
	stableRevID int64
	text        string
	parseErr    error
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		pages:      map[string]fakePage{},
		editResult: domain.EditResult{Result: "Success", NewRevID: 1000},
	}
}

func (f *fakeWiki) IsStable(_ context.Context, title string) (bool, error) {
	f.calls = append(f.calls, "stable:"+title)
	if f.gateErr != nil {
		return false, f.gateErr
	}
	p := f.pages[title]
	state := domain.ModerationState{
		Title:       title,
		Exists:      !p.missing,
		Flagged:     p.flagged,
		LastRevID:   p.lastRevID,
		StableRevID: p.stableRevID,
	}
	return state.Stable(), nil
}

func (f *fakeWiki) FetchPage(_ context.Context, title string) (domain.PageSnapshot, error) {
	f.calls = append(f.calls, "fetch:"+title)
	p := f.pages[title]
	if p.parseErr != nil {
		return domain.PageSnapshot{}, p.parseErr
	}
	return domain.PageSnapshot{Title: title, RevID: p.lastRevID, Wikitext: p.text}, nil
}

func (f *fakeWiki) EditPage(_ context.Context, edit ports.EditRequest) (domain.EditResult, error) {
	f.calls = append(f.calls, "edit:"+edit.Title)
	f.edits = append(f.edits, edit)
	return f.editResult, f.editErr
}

func (f *fakeWiki) Patrol(_ context.Context, revID int64) (domain.PatrolResult, error) {
	f.calls = append(f.calls, "patrol")
	f.patrols = append(f.patrols, revID)
	return domain.PatrolResult{RevID: revID}, f.patrolErr
}

// funcTransformer adapts a function to ports.Transformer and counts calls.
type funcTransformer struct {
	fn    func(string) (string, error)
	calls int
}

func (t *funcTransformer) Transform(_ context.Context, _ string, text string) (string, error) {
	t.calls++
	return t.fn(text)
}

func identity() *funcTransformer {
	return &funcTransformer{fn: func(s string) (string, error) { return s, nil }}
}

func upper() *funcTransformer {
	return &funcTransformer{fn: func(s string) (string, error) { return strings.ToUpper(s), nil }}
}

type fakeTracker struct {
	titles []string
	err    error
}

func (t *fakeTracker) MarkDone(_ context.Context, title string) error {
	t.titles = append(t.titles, title)
	return t.err
}

type fakeJournal struct {
	entries []domain.JournalEntry
	err     error
}

func (j *fakeJournal) Record(_ context.Context, entry domain.JournalEntry) error {
	j.entries = append(j.entries, entry)
	return j.err
}

func (j *fakeJournal) Recent(context.Context, int) ([]domain.JournalEntry, error) {
	return j.entries, nil
}

// sequenceSelector returns the scripted indexes in order, then repeats the last.
type sequenceSelector struct {
	picks []int
	next  int
}

func (s *sequenceSelector) Pick(n int) int {
	if len(s.picks) == 0 {
		return 0
	}
	i := s.picks[min(s.next, len(s.picks)-1)]
	s.next++
	return i % n
}

type recordingSleeper struct {
	pauses []time.Duration
	err    error
}

func (r *recordingSleeper) Sleep(_ context.Context, d time.Duration) error {
	r.pauses = append(r.pauses, d)
	return r.err
}

// scriptedRunner returns canned results per title for scheduler tests.
type scriptedRunner struct {
	results map[string]domain.Result
	errs    map[string]error
	titles  []string
}

func (r *scriptedRunner) Run(_ context.Context, title string) (domain.Result, error) {
	r.titles = append(r.titles, title)
	if err, ok := r.errs[title]; ok {
		return domain.Result{Title: title}, err
	}
	res, ok := r.results[title]
	if !ok {
		return domain.Result{}, errors.New("unscripted title " + title)
	}
	res.Title = title
	return res, nil
}
