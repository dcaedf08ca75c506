package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"wikibot/internal/domain"
)

// Token kinds accepted by meta=tokens.
const (
	TokenLogin  = "login"
	TokenCSRF   = "csrf"
	TokenPatrol = "patrol"

	anonymousToken = "+\\"
)

// SessionState is the authentication lifecycle of a Session.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateAuthFailed
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthFailed:
		return "auth-failed"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// Config is the explicit identity a Session is constructed with.
type Config struct {
	Endpoint       string
	UserAgent      string
	Username       string
	Password       string
	LoginReturnURL string
	Timeout        time.Duration
}

// Session owns one Transport bound to a single logged-in identity.
type Session struct {
	transport *Transport
	cfg       Config
	logger    *slog.Logger

	mu    sync.Mutex
	state SessionState
}

// NewSession builds an anonymous session. A nil client gets a fresh
// keep-alive client with a cookie jar.
func NewSession(cfg Config, client *http.Client, logger *slog.Logger) *Session {
	var transport *Transport
	if client == nil {
		transport = NewTransport(cfg.Endpoint, cfg.UserAgent, cfg.Timeout)
	} else {
		transport = NewTransportWithClient(cfg.Endpoint, cfg.UserAgent, client)
	}
	return &Session{transport: transport, cfg: cfg, logger: logger, state: StateAnonymous}
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Login performs the clientlogin flow. It may be called once per Session.
func (s *Session) Login(ctx context.Context) (domain.LoginResult, error) {
	if err := s.transition(StateAnonymous, StateAuthenticating); err != nil {
		return domain.LoginResult{}, err
	}

	result, err := s.clientLogin(ctx)
	if err != nil {
		s.setState(StateAuthFailed)
		return result, err
	}

	if result.Status != domain.LoginPass {
		s.setState(StateAuthFailed)
		return result, &domain.AuthenticationError{Result: result}
	}

	s.setState(StateAuthenticated)
	s.debug("logged in", "username", result.Username)
	return result, nil
}

func (s *Session) clientLogin(ctx context.Context) (domain.LoginResult, error) {
	loginToken, err := s.fetchToken(ctx, TokenLogin)
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("fetch login token: %w", err)
	}

	raw, err := s.transport.Post(ctx, Params{
		"action":         "clientlogin",
		"username":       s.cfg.Username,
		"password":       s.cfg.Password,
		"loginreturnurl": s.cfg.LoginReturnURL,
		"logintoken":     loginToken,
	})
	if err != nil {
		return domain.LoginResult{}, fmt.Errorf("submit clientlogin: %w", err)
	}

	var resp struct {
		ClientLogin *struct {
			Status      string `json:"status"`
			Username    string `json:"username"`
			Message     string `json:"message"`
			MessageCode string `json:"messagecode"`
		} `json:"clientlogin"`
		Error *apiErrorBody `json:"error"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return domain.LoginResult{}, &domain.TransportError{Method: "POST", Err: fmt.Errorf("decode clientlogin: %w", err)}
	}

	result := domain.LoginResult{Raw: raw}
	if resp.ClientLogin != nil {
		result.Status = domain.LoginStatus(resp.ClientLogin.Status)
		result.Username = resp.ClientLogin.Username
		result.Message = resp.ClientLogin.Message
		result.MessageCode = resp.ClientLogin.MessageCode
	} else if resp.Error != nil {
		result.Message = resp.Error.Info
		result.MessageCode = resp.Error.Code
	}
	return result, nil
}

// ActionToken fetches a fresh token of the given kind. Nothing is cached:
// callers request a token immediately before the write that consumes it.
func (s *Session) ActionToken(ctx context.Context, kind string) (string, error) {
	if kind == "" {
		kind = TokenCSRF
	}
	if kind == TokenLogin {
		return "", fmt.Errorf("action token: %q is not an action token kind", kind)
	}
	if err := s.requireAuthenticated(); err != nil {
		return "", err
	}
	return s.fetchToken(ctx, kind)
}

func (s *Session) fetchToken(ctx context.Context, kind string) (string, error) {
	raw, err := s.transport.Get(ctx, Params{
		"action": "query",
		"meta":   "tokens",
		"type":   kind,
	})
	if err != nil {
		return "", fmt.Errorf("request %s token: %w", kind, err)
	}

	var resp struct {
		Query struct {
			Tokens map[string]string `json:"tokens"`
		} `json:"query"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", &domain.TokenError{Kind: kind, Raw: raw}
	}

	// Anonymous sessions get the placeholder token +\ instead of a real one.
	token, ok := resp.Query.Tokens[kind+"token"]
	if !ok || token == "" || token == anonymousToken {
		return "", &domain.TokenError{Kind: kind, Raw: raw}
	}
	return token, nil
}

func (s *Session) requireAuthenticated() error {
	if state := s.State(); state != StateAuthenticated {
		return fmt.Errorf("%w (state %s)", domain.ErrNotAuthenticated, state)
	}
	return nil
}

func (s *Session) transition(from, to SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%w: state %s, want %s", domain.ErrLoginState, s.state, from)
	}
	s.state = to
	return nil
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

// apiErrorBody is the {"error": {...}} envelope shared by every action.
type apiErrorBody struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiErrorBody) asError(action string) error {
	if e == nil {
		return nil
	}
	return &domain.APIError{Action: action, Code: e.Code, Info: e.Info}
}

// IsAPIError reports whether err is an API error with the given code.
func IsAPIError(err error, code string) bool {
	var apiErr *domain.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
