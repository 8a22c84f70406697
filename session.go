package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelospk/opensubtitles-provider/internal/constants"
	"github.com/angelospk/opensubtitles-provider/internal/metrics"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

// defaultTokenLifetime applies to tokens that carry no readable expiry.
const defaultTokenLifetime = 24 * time.Hour

// Session is the authenticated state obtained from a login.
type Session struct {
	Token      string
	Expiration time.Time
	BaseURL    string
	User       *User
}

// User is the quota view of the logged in account. RemainingDownloads is nil
// until the service has reported a value.
type User struct {
	AllowedDownloads   int
	RemainingDownloads *int
	ResetTime          time.Time
}

func (s *Session) valid(now time.Time) bool {
	return s != nil && s.Token != "" && now.Before(s.Expiration)
}

// EnsureLoggedIn makes sure the client holds a usable session, logging in
// with the configured credentials when there is none or it has expired.
// Concurrent callers share a single login request.
func (c *Client) EnsureLoggedIn(ctx context.Context) error {
	if c.hasValidSession() {
		return nil
	}
	return c.shared(ctx, "login", func(ctx context.Context) error {
		if c.hasValidSession() {
			return nil
		}
		return c.login(ctx)
	})
}

func (c *Client) hasValidSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.valid(c.now())
}

func (c *Client) login(ctx context.Context) error {
	username, password := c.credentials()
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		metrics.LoginsTotal.WithLabelValues("missing_credentials").Inc()
		return &coreErrors.AuthenticationError{Reason: "Account username and/or password are not set up"}
	}

	resp, err := send[LoginResponse](ctx, c, http.MethodPost, "/login", LoginRequest{Username: username, Password: password}, nil)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	if !resp.Ok() {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		c.logger.WithFields(log.Fields{
			"status": resp.Code,
			"body":   coreErrors.SanitizeBody(resp.Body),
		}).Error("Login failed")
		return &coreErrors.AuthenticationError{
			Reason: "login rejected",
			Err:    resp.remoteError("Login failed"),
		}
	}
	data, err := resp.payload("Login failed")
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	if data.Token == "" {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return resp.remoteError("Login failed: malformed response: missing token")
	}

	var newBase string
	if data.BaseURL != "" {
		newBase, err = normalizeBaseURL(data.BaseURL)
		if err != nil {
			c.logger.WithError(err).WithField("base_url", data.BaseURL).Warn("Ignoring invalid base URL from login response")
			newBase = ""
		}
	}
	base := newBase
	if base == "" {
		base = c.GetCurrentBaseURL()
	}

	// The allowance is loaded with the new token before anything is stored,
	// so an abandoned login leaves the client untouched.
	user, err := c.fetchUserInfo(ctx, base, data.Token)
	switch {
	case ctx.Err() != nil:
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return ctx.Err()
	case isUnauthorized(err):
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		c.logger.WithError(err).Error("Token from login was rejected")
		return &coreErrors.AuthenticationError{Reason: "token rejected", Err: err}
	case err != nil:
		c.logger.WithError(err).Warn("Failed to refresh user info after login")
		user = nil
	}
	if user == nil && data.User != nil {
		user = &User{AllowedDownloads: data.User.AllowedDownloads}
	}

	session := &Session{
		Token:      data.Token,
		Expiration: c.tokenExpiration(data.Token),
		User:       user,
	}

	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}
	if newBase != "" {
		c.currentBaseUrl = newBase
	}
	session.BaseURL = c.currentBaseUrl
	c.session = session
	if user != nil && !user.ResetTime.IsZero() {
		c.limitReset = user.ResetTime
	}
	c.mu.Unlock()

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	if newBase != "" {
		c.logger.WithField("base_url", newBase).Info("Using base URL from login response")
	}
	c.logger.WithField("expires", session.Expiration).Debug("Logged in to OpenSubtitles")
	if user != nil {
		c.reportUser(user)
	}
	return nil
}

// tokenExpiration reads the exp claim of a JWT token without verifying it.
func (c *Client) tokenExpiration(token string) time.Time {
	fallback := c.now().Add(defaultTokenLifetime)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}

// normalizeBaseURL turns a host name or URL into an API base URL. A bare host
// gets the https scheme and the standard API path; a full URL is kept as is.
func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("empty base URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q has no host", raw)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = constants.ApiPath
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Invalidate drops the current session so the next call logs in again.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// invalidateToken drops the session only if it still holds the given token,
// so a session created concurrently by another caller survives.
func (c *Client) invalidateToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && c.session.Token == token {
		c.session = nil
	}
}

// Login forces a new login with the configured credentials, replacing any
// existing session.
func (c *Client) Login(ctx context.Context) error {
	c.Invalidate()
	return c.EnsureLoggedIn(ctx)
}

// Logout ends the current session on the service. It reports true when the
// client holds no session afterwards.
func (c *Client) Logout(ctx context.Context) (bool, error) {
	token := c.token()
	if token == "" {
		return true, nil
	}

	resp, err := send[LogoutResponse](ctx, c, http.MethodDelete, "/logout", nil, authHeaders(token))
	if err != nil {
		return false, err
	}
	if resp.Ok() || resp.Code == http.StatusUnauthorized {
		c.invalidateToken(token)
		return true, nil
	}
	return false, resp.remoteError("Logout failed")
}

// CurrentSession returns a copy of the current session, or nil.
func (c *Client) CurrentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	if s.User != nil {
		u := *s.User
		if u.RemainingDownloads != nil {
			r := *u.RemainingDownloads
			u.RemainingDownloads = &r
		}
		s.User = &u
	}
	return &s
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}
