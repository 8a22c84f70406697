package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/angelospk/opensubtitles-provider/internal/constants"
	"github.com/angelospk/opensubtitles-provider/internal/httpclient"
	coreErrors "github.com/angelospk/opensubtitles-provider/pkg/core/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ProviderName is the display name reported to the host application.
const ProviderName = "Open Subtitles"

// sharedCallTimeout bounds a login or user info refresh shared by several
// callers.
const sharedCallTimeout = 2 * time.Minute

// Config holds the configuration for the OpenSubtitles client.
type Config struct {
	// ApiKey is a per-install key. When blank the built-in key is used.
	ApiKey    string
	UserAgent string
	BaseURL   string // Optional: Override default base URL
	Username  string
	Password  string

	// HTTPClient is used by the default transport. Nil means http.DefaultClient.
	HTTPClient *http.Client
	// Transport replaces the default net/http transport entirely.
	Transport httpclient.Transport
	Logger    *log.Logger
}

// Client is the OpenSubtitles provider client. A single Client holds the
// session, quota and language state for one process and is safe for
// concurrent use.
type Client struct {
	transport httpclient.Transport
	logger    *log.Logger
	now       func() time.Time

	cfgMu  sync.RWMutex // Protects config
	config Config

	mu               sync.Mutex // Protects session, limitReset, currentBaseUrl and lastRateLimitLog
	session          *Session
	limitReset       time.Time
	currentBaseUrl   string
	lastRateLimitLog time.Time

	flight   singleflight.Group
	flightMu sync.Mutex // Protects calls
	calls    map[string]*flightCall

	langMu    sync.RWMutex
	languages []string
}

// NewClient creates a new OpenSubtitles API client.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.ApiKey) == "" && constants.DefaultApiKey == "" {
		return nil, errors.New("API key is required")
	}
	if config.UserAgent == "" {
		config.UserAgent = constants.DefaultUserAgent
	}

	baseUrl := constants.DefaultBaseURL
	if config.BaseURL != "" {
		normalized, err := normalizeBaseURL(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid BaseURL provided: %w", err)
		}
		baseUrl = normalized
	}

	transport := config.Transport
	if transport == nil {
		transport = httpclient.New(config.UserAgent, config.HTTPClient)
	}

	logger := config.Logger
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.InfoLevel)
	}

	return &Client{
		transport:      transport,
		logger:         logger,
		now:            time.Now,
		config:         config,
		currentBaseUrl: baseUrl,
	}, nil
}

// Name returns the provider display name.
func (c *Client) Name() string { return ProviderName }

// SupportedMediaTypes lists the content types this provider can search for.
func (c *Client) SupportedMediaTypes() []ContentType {
	return []ContentType{ContentEpisode, ContentMovie}
}

// ConfigurationChanged swaps in new credentials and API key and forces the
// next call to log in again. The connection settings (transport, logger)
// are kept.
func (c *Client) ConfigurationChanged(config Config) {
	c.cfgMu.Lock()
	c.config.ApiKey = config.ApiKey
	c.config.Username = config.Username
	c.config.Password = config.Password
	c.cfgMu.Unlock()

	c.Invalidate()
	c.logger.Debug("Configuration changed, session invalidated")
}

// ApiKey returns the key sent with every API request: the configured
// per-install key if set, otherwise the built-in one.
func (c *Client) ApiKey() string {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	if strings.TrimSpace(c.config.ApiKey) != "" {
		return c.config.ApiKey
	}
	return constants.DefaultApiKey
}

func (c *Client) credentials() (string, string) {
	c.cfgMu.RLock()
	defer c.cfgMu.RUnlock()
	return c.config.Username, c.config.Password
}

// GetCurrentBaseURL returns the base URL currently used by the client.
func (c *Client) GetCurrentBaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBaseUrl
}

// flightCall is the context of one shared call and the number of callers
// still waiting for it.
type flightCall struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// shared runs fn once for all concurrent callers using the same key. fn gets
// a context owned by the group: it is cancelled only when every waiting
// caller has given up. Each caller stops waiting when its own context is done.
func (c *Client) shared(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	for {
		c.flightMu.Lock()
		call := c.calls[key]
		if call == nil {
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedCallTimeout)
			call = &flightCall{ctx: callCtx, cancel: cancel}
			if c.calls == nil {
				c.calls = make(map[string]*flightCall)
			}
			c.calls[key] = call
		}
		call.waiters++
		ch := c.flight.DoChan(key, func() (interface{}, error) {
			defer c.endFlight(key, call)
			return nil, fn(call.ctx)
		})
		c.flightMu.Unlock()

		select {
		case res := <-ch:
			// Joined a flight that its own callers abandoned just before it
			// returned; start over with a fresh one.
			abandoned := errors.Is(res.Err, context.Canceled) && call.ctx.Err() == nil
			c.leaveFlight(key, call)
			if abandoned && ctx.Err() == nil {
				continue
			}
			return res.Err
		case <-ctx.Done():
			c.leaveFlight(key, call)
			return ctx.Err()
		}
	}
}

// leaveFlight drops one waiter and cancels the call once nobody waits for it.
func (c *Client) leaveFlight(key string, call *flightCall) {
	c.flightMu.Lock()
	defer c.flightMu.Unlock()
	call.waiters--
	if call.waiters > 0 {
		return
	}
	call.cancel()
	if c.calls[key] == call {
		delete(c.calls, key)
	}
}

func (c *Client) endFlight(key string, call *flightCall) {
	c.flightMu.Lock()
	if c.calls[key] == call {
		delete(c.calls, key)
	}
	c.flightMu.Unlock()
	call.cancel()
}

// send performs an API request against the current base URL and wraps the
// result in an envelope.
func send[T any](ctx context.Context, c *Client, method, path string, body interface{}, headers map[string]string) (*apiResponse[T], error) {
	return sendTo[T](ctx, c, c.GetCurrentBaseURL(), method, path, body, headers)
}

// sendTo is send against an explicit base URL, used before a login's base URL
// has been installed.
func sendTo[T any](ctx context.Context, c *Client, baseURL, method, path string, body interface{}, headers map[string]string) (*apiResponse[T], error) {
	req := &httpclient.Request{
		Method:  method,
		URL:     baseURL + path,
		Body:    body,
		Headers: headers,
		ApiKey:  c.ApiKey(),
	}
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, &coreErrors.TransportError{Op: fmt.Sprintf("%s %s", method, path), Err: err}
	}
	return newAPIResponse[T](resp), nil
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
