package mediawiki

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

const testUserAgent = "wikibot-test/1.0"

type apiCall struct {
	Method    string
	Params    url.Values
	UserAgent string
	Cookie    string
}

// fakeAPI is an api.php stand-in that answers by action and records each call.
type fakeAPI struct {
	t        *testing.T
	server   *httptest.Server
	handlers map[string]func(url.Values) string

	mu    sync.Mutex
	calls []apiCall
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{t: t, handlers: map[string]func(url.Values) string{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

// on registers a JSON answer for an action key such as "query:tokens" or "edit".
func (f *fakeAPI) on(key string, respond func(url.Values) string) {
	f.handlers[key] = respond
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := r.Form
	if r.Method == http.MethodPost {
		params = r.PostForm
	}

	call := apiCall{Method: r.Method, Params: params, UserAgent: r.UserAgent()}
	if c, err := r.Cookie("session"); err == nil {
		call.Cookie = c.Value
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	key := params.Get("action")
	if meta := params.Get("meta"); meta != "" {
		key += ":" + meta
	}
	if prop := params.Get("prop"); prop != "" && params.Get("action") == "query" {
		key += ":" + prop
	}

	respond, ok := f.handlers[key]
	if !ok {
		f.t.Errorf("unexpected api call %s %v", key, params)
		http.Error(w, "unexpected call", http.StatusNotImplemented)
		return
	}

	if params.Get("action") == "clientlogin" {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "logged-in"})
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(respond(params)))
}

func (f *fakeAPI) recorded() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]apiCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) countAction(action string) int {
	n := 0
	for _, c := range f.recorded() {
		if c.Params.Get("action") == action {
			n++
		}
	}
	return n
}

func (f *fakeAPI) session(t *testing.T) *Session {
	t.Helper()
	return NewSession(Config{
		Endpoint:       f.server.URL + "/w/api.php",
		UserAgent:      testUserAgent,
		Username:       "Bot@cleanup",
		Password:       "secret",
		LoginReturnURL: "http://127.0.0.1:5000/",
	}, f.server.Client(), nil)
}

// withLogin installs token and clientlogin handlers answering PASS.
func (f *fakeAPI) withLogin() {
	f.on("query:tokens", func(v url.Values) string {
		switch v.Get("type") {
		case "login":
			return `{"batchcomplete":"","query":{"tokens":{"logintoken":"login-123+\\"}}}`
		case "patrol":
			return `{"batchcomplete":"","query":{"tokens":{"patroltoken":"patrol-456+\\"}}}`
		default:
			return `{"batchcomplete":"","query":{"tokens":{"csrftoken":"csrf-789+\\"}}}`
		}
	})
	f.on("clientlogin", func(url.Values) string {
		return `{"clientlogin":{"status":"PASS","username":"Bot"}}`
	})
}
