package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTransport        = errors.New("transport failure")
	ErrAuthentication   = errors.New("authentication rejected")
	ErrToken            = errors.New("token unavailable")
	ErrContentMissing   = errors.New("content missing")
	ErrEditRejected     = errors.New("edit rejected")
	ErrAPI              = errors.New("api error")
	ErrTransform        = errors.New("transform failed")
	ErrNotAuthenticated = errors.New("session is not authenticated")
	ErrLoginState       = errors.New("login already attempted")
)

// TransportError wraps network, HTTP status and body decoding failures.
type TransportError struct {
	Method string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s request: status %d", ErrTransport, e.Method, e.Status)
	}
	return fmt.Sprintf("%s: %s request: %v", ErrTransport, e.Method, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// AuthenticationError carries the full clientlogin response for diagnosis.
type AuthenticationError struct {
	Result LoginResult
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: status %s: %s", ErrAuthentication, e.Result.Status, string(e.Result.Raw))
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// TokenError means the token response lacked the requested field.
type TokenError struct {
	Kind string
	Raw  []byte
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: no %s token in response: %s", ErrToken, e.Kind, string(e.Raw))
}

func (e *TokenError) Unwrap() error { return ErrToken }

// ContentMissingError means a title did not resolve to parseable content.
type ContentMissingError struct {
	Title string
	Code  string
}

func (e *ContentMissingError) Error() string {
	return fmt.Sprintf("%s: %q (%s)", ErrContentMissing, e.Title, e.Code)
}

func (e *ContentMissingError) Unwrap() error { return ErrContentMissing }

// EditRejectedError describes an edit the API did not accept.
type EditRejectedError struct {
	Title  string
	Result string
	Code   string
	Raw    []byte
}

func (e *EditRejectedError) Error() string {
	reason := e.Result
	if e.Code != "" {
		reason = e.Code
	}
	if reason == "" {
		reason = "no result"
	}
	return fmt.Sprintf("%s: %q: %s", ErrEditRejected, e.Title, reason)
}

func (e *EditRejectedError) Unwrap() error { return ErrEditRejected }

// APIError is an error object returned by the API that has no narrower type.
type APIError struct {
	Action string
	Code   string
	Info   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s: %s: %s", ErrAPI, e.Action, e.Code, e.Info)
}

func (e *APIError) Unwrap() error { return ErrAPI }

// TransformError reports an abnormal termination of the external transformer.
type TransformError struct {
	Title  string
	Stderr string
	Err    error
}

func (e *TransformError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("%s: %q: %v", ErrTransform, e.Title, e.Err)
	}
	return fmt.Sprintf("%s: %q: %v: %s", ErrTransform, e.Title, e.Err, e.Stderr)
}

func (e *TransformError) Unwrap() []error {
	return []error{ErrTransform, e.Err}
}
