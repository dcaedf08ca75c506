package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"wikibot/internal/candidates"
)

const defaultLinkSelector = `a[href*="/wiki/"]`

// HTMLList extracts titles from links on a worklist report page.
type HTMLList struct {
	client    *http.Client
	userAgent string
}

// NewHTMLList wires an HTTP client; nil gets a client with a 20s timeout.
func NewHTMLList(client *http.Client, userAgent string) *HTMLList {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLList{client: client, userAgent: userAgent}
}

// Name identifies the loader inside the registry.
func (h *HTMLList) Name() string {
	return candidates.KindHTML
}

// Load fetches the page and returns the title of every matching link.
func (h *HTMLList) Load(ctx context.Context, req candidates.Request) ([]string, error) {
	doc, err := h.fetchDocument(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	selector := req.Selector
	if selector == "" {
		selector = defaultLinkSelector
	}

	var titles []string
	doc.Find(selector).Each(func(_ int, link *goquery.Selection) {
		if title := linkTitle(link); title != "" {
			titles = append(titles, title)
		}
	})

	return titles, nil
}

func (h *HTMLList) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request candidate page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("candidate page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse candidate page: %w", err)
	}

	return doc, nil
}

// linkTitle prefers the title attribute, then the /wiki/ path, then the text.
func linkTitle(link *goquery.Selection) string {
	if title, ok := link.Attr("title"); ok {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}

	if href, ok := link.Attr("href"); ok {
		if title := titleFromHref(href); title != "" {
			return title
		}
	}

	return strings.TrimSpace(link.Text())
}

func titleFromHref(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	_, rest, found := strings.Cut(parsed.EscapedPath(), "/wiki/")
	if !found || rest == "" {
		return ""
	}
	title, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(title, "_", " ")
}
