package errors

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrAuthentication      = errors.New("opensubtitles: authentication failed")
	ErrQuotaExceeded       = errors.New("opensubtitles: download limit reached")
	ErrUnsupportedLanguage = errors.New("opensubtitles: language not supported")
	ErrInvalidIdentifier   = errors.New("opensubtitles: invalid subtitle id")
	ErrRemoteService       = errors.New("opensubtitles: remote service error")
	ErrTransport           = errors.New("opensubtitles: transport error")
)

// maxBodyLength bounds how much of a response body ends up in an error message.
const maxBodyLength = 512

// AuthenticationError reports missing credentials or a rejected login.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// QuotaExceededError reports an exhausted daily download allowance.
type QuotaExceededError struct {
	Remaining int
	ResetTime string
}

func (e *QuotaExceededError) Error() string {
	if e.ResetTime != "" {
		return fmt.Sprintf("OpenSubtitles download limit reached (resets at %s)", e.ResetTime)
	}
	return "OpenSubtitles download limit reached"
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// UnsupportedLanguageError reports a language tag with no matching service code.
type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Language '%s' is not supported", e.Language)
}

func (e *UnsupportedLanguageError) Is(target error) bool { return target == ErrUnsupportedLanguage }

// InvalidIdentifierError reports a malformed "<format>-<language>-<file-id>" string.
type InvalidIdentifierError struct {
	ID     string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("Invalid subtitle id format: %s (%s)", e.ID, e.Reason)
}

func (e *InvalidIdentifierError) Is(target error) bool { return target == ErrInvalidIdentifier }

// RemoteServiceError reports a non-success HTTP outcome.
type RemoteServiceError struct {
	StatusCode int
	Message    string
	Body       string
}

// NewRemoteServiceError builds a RemoteServiceError, replacing HTML bodies with
// a short marker and truncating long ones.
func NewRemoteServiceError(statusCode int, message, body string) *RemoteServiceError {
	return &RemoteServiceError{
		StatusCode: statusCode,
		Message:    message,
		Body:       SanitizeBody(body),
	}
}

func (e *RemoteServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "api request failed"
	}
	if e.Body != "" {
		return fmt.Sprintf("%s: status %d, body: %s", msg, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: status %d", msg, e.StatusCode)
}

func (e *RemoteServiceError) Is(target error) bool { return target == ErrRemoteService }

// TransportError reports a failure below the HTTP layer (network, local I/O).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// SanitizeBody replaces HTML markup with "[html]" and truncates long bodies
// on a rune boundary.
func SanitizeBody(body string) string {
	if strings.Contains(strings.ToLower(body), "<html") {
		return "[html]"
	}
	if len(body) > maxBodyLength {
		cut := maxBodyLength
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		return body[:cut] + "..."
	}
	return body
}

// IsQuotaExceeded reports whether err is or wraps a QuotaExceededError.
func IsQuotaExceeded(err error) bool { return errors.Is(err, ErrQuotaExceeded) }

// IsAuthentication reports whether err is or wraps an AuthenticationError.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsTransport reports whether err is or wraps a TransportError.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }
