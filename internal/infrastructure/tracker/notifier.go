package tracker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wikibot/internal/ports"
)

// Notifier marks a title as done on the external tracking service with a
// single GET carrying project, view, task id and title.
type Notifier struct {
	endpoint  string
	project   string
	view      string
	task      string
	userAgent string
	client    *http.Client
}

var _ ports.Tracker = (*Notifier)(nil)

// NewNotifier registers the tracker endpoint and fixed task identifier.
func NewNotifier(endpoint, project, view, task, userAgent string) *Notifier {
	return &Notifier{
		endpoint:  endpoint,
		project:   project,
		view:      view,
		task:      task,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// WithClient swaps the HTTP client, mainly for tests.
func (n *Notifier) WithClient(client *http.Client) *Notifier {
	n.client = client
	return n
}

// MarkDone reports the title. The response body is drained and ignored.
func (n *Notifier) MarkDone(ctx context.Context, title string) error {
	if n.endpoint == "" || n.client == nil {
		return fmt.Errorf("tracker notifier misconfigured")
	}

	target, err := url.Parse(n.endpoint)
	if err != nil {
		return fmt.Errorf("parse tracker url: %w", err)
	}
	query := target.Query()
	query.Set("project", n.project)
	query.Set("view", n.view)
	query.Set("id", n.task)
	query.Set("title", title)
	target.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tracker error: %s", strings.TrimSpace(resp.Status))
	}

	return nil
}
