package mediawiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wikibot/internal/domain"
)

const (
	responseFormat = "json"
	// maxResponseBytes caps one API response; large pages are a few MB.
	maxResponseBytes = 64 << 20
)

// Params is an API payload. Values may be string, bool, int or int64.
// A false bool is omitted because the API treats any present flag as true.
type Params map[string]any

// Transport performs single authenticated calls against one api.php endpoint.
// It keeps one cookie-carrying http.Client for the whole process.
type Transport struct {
	endpoint  string
	userAgent string
	client    *http.Client
	maxBody   int64
}

// NewTransport wires a keep-alive client with a cookie jar.
func NewTransport(endpoint, userAgent string, timeout time.Duration) *Transport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jar, _ := cookiejar.New(nil)
	return &Transport{
		endpoint:  endpoint,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout, Jar: jar},
		maxBody:   maxResponseBytes,
	}
}

// NewTransportWithClient uses the provided client as-is; tests pass httptest clients.
func NewTransportWithClient(endpoint, userAgent string, client *http.Client) *Transport {
	if client.Jar == nil {
		jar, _ := cookiejar.New(nil)
		client.Jar = jar
	}
	return &Transport{endpoint: endpoint, userAgent: userAgent, client: client, maxBody: maxResponseBytes}
}

// Get sends params as a query string.
func (t *Transport) Get(ctx context.Context, params Params) (json.RawMessage, error) {
	return t.Request(ctx, http.MethodGet, params)
}

// Post sends params as a form-encoded body.
func (t *Transport) Post(ctx context.Context, params Params) (json.RawMessage, error) {
	return t.Request(ctx, http.MethodPost, params)
}

// Request issues one call and returns the raw JSON document.
// It neither retries nor inspects API-level errors.
func (t *Transport) Request(ctx context.Context, method string, params Params) (json.RawMessage, error) {
	values, err := encodeParams(params)
	if err != nil {
		return nil, &domain.TransportError{Method: method, Err: err}
	}
	values.Set("format", responseFormat)

	var (
		req    *http.Request
		reqErr error
	)
	switch method {
	case http.MethodGet:
		target := t.endpoint + "?" + values.Encode()
		req, reqErr = http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	case http.MethodPost:
		req, reqErr = http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(values.Encode()))
		if reqErr == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		reqErr = fmt.Errorf("unsupported method %q", method)
	}
	if reqErr != nil {
		return nil, &domain.TransportError{Method: method, Err: reqErr}
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return nil, &domain.TransportError{Method: method, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > t.maxBody {
		return nil, &domain.TransportError{Method: method, Err: fmt.Errorf("response body exceeds %d bytes", t.maxBody)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			Method: method,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if !json.Valid(body) {
		return nil, &domain.TransportError{Method: method, Err: fmt.Errorf("malformed json body (%d bytes)", len(body))}
	}

	return json.RawMessage(body), nil
}

func encodeParams(params Params) (url.Values, error) {
	values := url.Values{}
	for key, raw := range params {
		switch v := raw.(type) {
		case string:
			values.Set(key, v)
		case bool:
			if v {
				values.Set(key, "1")
			}
		case int:
			values.Set(key, strconv.Itoa(v))
		case int64:
			values.Set(key, strconv.FormatInt(v, 10))
		case nil:
		default:
			return nil, fmt.Errorf("param %s: unsupported value type %T", key, raw)
		}
	}
	return values, nil
}
