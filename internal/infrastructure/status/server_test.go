package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wikibot/internal/domain"
)

type stubJournal struct {
	entries []domain.JournalEntry
	limit   int
	pingErr error
}

func (s *stubJournal) Recent(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	s.limit = limit
	if limit < len(s.entries) {
		return s.entries[:limit], nil
	}
	return s.entries, nil
}

func (s *stubJournal) Ping(context.Context) error { return s.pingErr }

func TestOutcomes(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{entries: []domain.JournalEntry{
		{ID: 2, RunID: "r", Title: "Delta", Outcome: domain.OutcomeCommitted, NewRevID: 78, CreatedAt: time.Unix(100, 0).UTC()},
		{ID: 1, RunID: "r", Title: "Alpha", Outcome: domain.OutcomeSkippedUnchanged, CreatedAt: time.Unix(90, 0).UTC()},
	}}
	router := NewRouter(journal, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outcomes?limit=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id")
	}
	var got []domain.JournalEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Delta" || got[0].Outcome != domain.OutcomeCommitted {
		t.Fatalf("unexpected entries %+v", got)
	}
	if journal.limit != 1 {
		t.Fatalf("limit not forwarded: %d", journal.limit)
	}
}

func TestOutcomesLimits(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{}
	router := NewRouter(journal, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outcomes?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outcomes?limit=100000", nil))
	if rec.Code != http.StatusOK || journal.limit != maxOutcomeLimit {
		t.Fatalf("status = %d limit = %d", rec.Code, journal.limit)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("empty journal should encode as [], got %q", body)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		journal JournalReader
		want    int
		status  string
	}{
		{"no journal", nil, http.StatusOK, "ok"},
		{"healthy journal", &stubJournal{}, http.StatusOK, "ok"},
		{"broken journal", &stubJournal{pingErr: errors.New("database is locked")}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			NewRouter(tc.journal, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rec.Code != tc.want {
				t.Fatalf("code = %d, want %d", rec.Code, tc.want)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tc.status {
				t.Fatalf("status = %q, want %q", body["status"], tc.status)
			}
		})
	}
}

func TestOutcomesWithoutJournal(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	NewRouter(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/outcomes", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
}
