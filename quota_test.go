package opensubtitles

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreCheckDownload(t *testing.T) {
	t.Run("Exhausted with future reset fails without network", func(t *testing.T) {
		_, client, hits := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		})
		reset := time.Now().Add(2 * time.Hour)
		withSession(client, intPtr(0), reset)

		err := client.preCheckDownload(context.Background())

		require.Error(t, err)
		assert.True(t, errors.Is(err, coreErrors.ErrQuotaExceeded))
		var quotaErr *coreErrors.QuotaExceededError
		require.True(t, errors.As(err, &quotaErr))
		assert.Equal(t, reset.UTC().Format(time.RFC3339), quotaErr.ResetTime)
		assert.Equal(t, 0, hits.total())
	})

	t.Run("Past reset refreshes once and still exhausted", func(t *testing.T) {
		_, client, hits := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/infos/user", r.URL.Path)
			assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
			writeJSON(t, w, http.StatusOK, userInfoBody(0, time.Now().Add(time.Hour)))
		})
		withSession(client, intPtr(0), time.Now().Add(-time.Minute))

		err := client.preCheckDownload(context.Background())

		require.Error(t, err)
		assert.True(t, errors.Is(err, coreErrors.ErrQuotaExceeded))
		assert.Equal(t, 1, hits.get("GET /api/v1/infos/user"))
	})

	t.Run("Past reset refreshes once and succeeds", func(t *testing.T) {
		_, client, hits := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, http.StatusOK, userInfoBody(20, time.Now().Add(24*time.Hour)))
		})
		withSession(client, intPtr(0), time.Now().Add(-time.Minute))

		require.NoError(t, client.preCheckDownload(context.Background()))

		assert.Equal(t, 1, hits.total())
		q := client.Quota()
		require.NotNil(t, q.Remaining)
		assert.Equal(t, 20, *q.Remaining)
		assert.Equal(t, QuotaAvailable, q.State)
	})

	t.Run("Refresh failure still reports quota", func(t *testing.T) {
		_, client, hits := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		withSession(client, intPtr(0), time.Now().Add(-time.Minute))

		err := client.preCheckDownload(context.Background())

		assert.True(t, errors.Is(err, coreErrors.ErrQuotaExceeded))
		assert.Equal(t, 1, hits.total())
	})

	t.Run("Unknown remaining is available", func(t *testing.T) {
		_, client, hits := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
		withSession(client, nil, time.Time{})

		assert.NoError(t, client.preCheckDownload(context.Background()))
		assert.Equal(t, 0, hits.total())
	})
}

func TestRecordDownloadResult(t *testing.T) {
	newClient := func(t *testing.T) *Client {
		_, client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
		withSession(client, intPtr(5), time.Now().Add(time.Hour))
		return client
	}

	t.Run("Success overwrites remaining and reset", func(t *testing.T) {
		client := newClient(t)
		reset := time.Now().Add(10 * time.Hour).UTC().Truncate(time.Second)

		err := client.recordDownloadResult(http.StatusOK, &DownloadResponse{Remaining: intPtr(7), ResetTimeUTC: &reset})

		require.NoError(t, err)
		q := client.Quota()
		assert.Equal(t, 7, *q.Remaining)
		assert.True(t, reset.Equal(q.ResetTime))
	})

	t.Run("Not acceptable with nothing left zeroes remaining", func(t *testing.T) {
		client := newClient(t)
		reset := time.Now().Add(3 * time.Hour)

		err := client.recordDownloadResult(http.StatusNotAcceptable, &DownloadResponse{Remaining: intPtr(-1), ResetTimeUTC: &reset})

		require.Error(t, err)
		assert.True(t, errors.Is(err, coreErrors.ErrQuotaExceeded))
		q := client.Quota()
		assert.Equal(t, 0, *q.Remaining)
		assert.Equal(t, QuotaExhausted, q.State)
	})

	t.Run("Failure only updates reset", func(t *testing.T) {
		client := newClient(t)
		reset := time.Now().Add(5 * time.Hour)

		err := client.recordDownloadResult(http.StatusInternalServerError, &DownloadResponse{Remaining: intPtr(1), ResetTimeUTC: &reset})

		require.NoError(t, err)
		q := client.Quota()
		assert.Equal(t, 5, *q.Remaining)
		assert.True(t, reset.Equal(q.ResetTime))
	})

	t.Run("Creates user when missing", func(t *testing.T) {
		client := newClient(t)
		client.mu.Lock()
		client.session.User = nil
		client.mu.Unlock()

		require.NoError(t, client.recordDownloadResult(http.StatusOK, &DownloadResponse{Remaining: intPtr(3)}))
		assert.Equal(t, 3, *client.Quota().Remaining)
	})
}

func TestQuotaState(t *testing.T) {
	_, client, _ := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	now := time.Now()
	client.now = func() time.Time { return now }

	assert.Equal(t, QuotaAvailable, client.Quota().State, "no session")

	withSession(client, intPtr(0), now.Add(time.Minute))
	assert.Equal(t, QuotaExhausted, client.Quota().State)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, QuotaResetDue, client.Quota().State)

	assert.Equal(t, "available", QuotaAvailable.String())
	assert.Equal(t, "exhausted", QuotaExhausted.String())
	assert.Equal(t, "reset due", QuotaResetDue.String())
}
