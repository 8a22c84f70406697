package opensubtitles

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// hitCounter counts requests per "METHOD path".
type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (h *hitCounter) add(r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.hits == nil {
		h.hits = map[string]int{}
	}
	h.hits[r.Method+" "+r.URL.Path]++
}

func (h *hitCounter) get(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hits[key]
}

func (h *hitCounter) total() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, v := range h.hits {
		n += v
	}
	return n
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestServer starts a mock API and a client pointed at it. Every request
// is counted before it reaches handler.
func setupTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client, *hitCounter) {
	t.Helper()
	counter := &hitCounter{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.add(r)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		ApiKey:    "test-api-key",
		UserAgent: "GoTestClient/1.0",
		BaseURL:   server.URL + "/api/v1",
		Username:  "testuser",
		Password:  "testpass",
		Logger:    quietLogger(),
	})
	require.NoError(t, err, "Failed to create client for test")
	return server, client, counter
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func intPtr(i int) *int { return &i }

// withSession installs a logged in session so tests can skip the login call.
func withSession(c *Client, remaining *int, reset time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &Session{
		Token:      "session-token",
		Expiration: c.now().Add(time.Hour),
		BaseURL:    c.currentBaseUrl,
		User:       &User{AllowedDownloads: 20, RemainingDownloads: remaining, ResetTime: reset},
	}
	c.limitReset = reset
}

func userInfoBody(remaining int, reset time.Time) GetUserInfoResponse {
	return GetUserInfoResponse{Data: &UserInfo{
		AllowedDownloads:   20,
		RemainingDownloads: intPtr(remaining),
		ResetTimeUTC:       &reset,
	}}
}
