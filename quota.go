package opensubtitles

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelospk/opensubtitles-provider/internal/metrics"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	log "github.com/sirupsen/logrus"
)

// QuotaState describes whether a download may be attempted.
type QuotaState int

const (
	// QuotaAvailable means the remaining count is unknown or positive.
	QuotaAvailable QuotaState = iota
	// QuotaExhausted means nothing is left and the reset time is in the future.
	QuotaExhausted
	// QuotaResetDue means nothing is left but the reset time has passed.
	QuotaResetDue
)

func (s QuotaState) String() string {
	switch s {
	case QuotaAvailable:
		return "available"
	case QuotaExhausted:
		return "exhausted"
	case QuotaResetDue:
		return "reset due"
	default:
		return "unknown"
	}
}

// QuotaInfo is a snapshot of the download allowance.
type QuotaInfo struct {
	State     QuotaState
	Allowed   int
	Remaining *int
	ResetTime time.Time
}

// Quota returns the locally known download allowance.
func (c *Client) Quota() QuotaInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quotaLocked()
}

func (c *Client) quotaLocked() QuotaInfo {
	info := QuotaInfo{ResetTime: c.limitReset}
	if c.session != nil && c.session.User != nil {
		info.Allowed = c.session.User.AllowedDownloads
		if r := c.session.User.RemainingDownloads; r != nil {
			v := *r
			info.Remaining = &v
		}
	}
	switch {
	case info.Remaining == nil || *info.Remaining > 0:
		info.State = QuotaAvailable
	case c.now().Before(c.limitReset):
		info.State = QuotaExhausted
	default:
		info.State = QuotaResetDue
	}
	return info
}

func (c *Client) quotaExceeded() error {
	q := c.Quota()
	err := &coreErrors.QuotaExceededError{}
	if q.Remaining != nil {
		err.Remaining = *q.Remaining
	}
	if !q.ResetTime.IsZero() {
		err.ResetTime = q.ResetTime.UTC().Format(time.RFC3339)
	}
	return err
}

// RefreshUserInfo reloads the account's download allowance. It is a no-op
// without a session. Concurrent callers share one request.
func (c *Client) RefreshUserInfo(ctx context.Context) error {
	return c.shared(ctx, "userinfo", c.refreshUserInfo)
}

func (c *Client) refreshUserInfo(ctx context.Context) error {
	token := c.token()
	if token == "" {
		return nil
	}

	user, err := c.fetchUserInfo(ctx, c.GetCurrentBaseURL(), token)
	if err != nil {
		if isUnauthorized(err) {
			c.invalidateToken(token)
		}
		return err
	}

	c.mu.Lock()
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.session != nil && c.session.Token == token {
		c.session.User = user
		if !user.ResetTime.IsZero() {
			c.limitReset = user.ResetTime
		}
	}
	c.mu.Unlock()

	c.reportUser(user)
	return nil
}

// fetchUserInfo loads the account's allowance for token without touching
// client state.
func (c *Client) fetchUserInfo(ctx context.Context, baseURL, token string) (*User, error) {
	resp, err := sendTo[GetUserInfoResponse](ctx, c, baseURL, http.MethodGet, "/infos/user", nil, authHeaders(token))
	if err != nil {
		return nil, err
	}
	data, err := resp.payload("Failed to get user info")
	if err != nil {
		return nil, err
	}
	if data.Data == nil {
		return nil, resp.remoteError("Failed to get user info: malformed response")
	}

	info := data.Data
	user := &User{AllowedDownloads: info.AllowedDownloads}
	if info.RemainingDownloads != nil {
		r := *info.RemainingDownloads
		user.RemainingDownloads = &r
	}
	if info.ResetTimeUTC != nil {
		user.ResetTime = *info.ResetTimeUTC
	}
	return user, nil
}

func (c *Client) reportUser(user *User) {
	fields := log.Fields{"allowed": user.AllowedDownloads, "reset": user.ResetTime}
	if user.RemainingDownloads != nil {
		metrics.RemainingDownloads.Set(float64(*user.RemainingDownloads))
		fields["remaining"] = *user.RemainingDownloads
	}
	c.logger.WithFields(fields).Debug("Refreshed user info")
}

func isUnauthorized(err error) bool {
	var remote *coreErrors.RemoteServiceError
	return errors.As(err, &remote) && remote.StatusCode == http.StatusUnauthorized
}

// preCheckDownload fails fast when the allowance is known to be used up. Once
// the reset time has passed the allowance is reloaded and checked once more.
func (c *Client) preCheckDownload(ctx context.Context) error {
	switch c.Quota().State {
	case QuotaAvailable:
		return nil
	case QuotaExhausted:
		return c.quotaExceeded()
	}

	if err := c.RefreshUserInfo(ctx); err != nil {
		if !errors.Is(err, coreErrors.ErrRemoteService) {
			return err
		}
		c.logger.WithError(err).Warn("Failed to refresh download allowance")
	}
	if c.Quota().State != QuotaAvailable {
		return c.quotaExceeded()
	}
	return nil
}

// recordDownloadResult applies the allowance reported by a download link
// request. The reset time is taken whenever present; the remaining count only
// from successful answers, or zeroed by a 406 that reports nothing left.
func (c *Client) recordDownloadResult(code int, data *DownloadResponse) error {
	if data == nil {
		return nil
	}

	c.mu.Lock()
	if data.ResetTimeUTC != nil {
		c.limitReset = *data.ResetTimeUTC
		if c.session != nil && c.session.User != nil {
			c.session.User.ResetTime = *data.ResetTimeUTC
		}
	}

	exhausted := code == http.StatusNotAcceptable && data.Remaining != nil && *data.Remaining <= 0
	ok := code >= http.StatusOK && code < http.StatusMultipleChoices
	var remaining *int
	switch {
	case exhausted:
		zero := 0
		remaining = &zero
	case ok && data.Remaining != nil:
		r := *data.Remaining
		remaining = &r
	}
	if remaining != nil && c.session != nil {
		if c.session.User == nil {
			c.session.User = &User{ResetTime: c.limitReset}
		}
		c.session.User.RemainingDownloads = remaining
	}
	c.mu.Unlock()

	if remaining != nil {
		metrics.RemainingDownloads.Set(float64(*remaining))
	}
	if exhausted {
		return c.quotaExceeded()
	}
	if remaining != nil {
		c.logger.WithField("remaining", *remaining).Info("Remaining downloads")
	}
	return nil
}
