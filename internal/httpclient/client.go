package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// Request describes a single call made through a Transport.
type Request struct {
	Method  string
	URL     string
	Body    interface{}
	Headers map[string]string
	// ApiKey is sent as the Api-Key header when non-empty.
	ApiKey string
}

// Response is the raw outcome of a request that reached the server.
type Response struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Transport performs HTTP requests. Errors are returned only for failures
// below the HTTP layer; any status code is a successful transport result.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Client manages making HTTP requests to the API.
type Client struct {
	userAgent  string
	httpClient *http.Client
}

// Ensure Client implements Transport
var _ Transport = (*Client)(nil)

// New creates a new internal HTTP client. A nil httpClient uses http.DefaultClient.
func New(userAgent string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// Do performs the request and reads the whole response body.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	fullURL, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request URL %q: %w", r.URL, err)
	}

	var reqBody io.Reader
	if r.Body != nil {
		jsonData, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, fullURL.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if r.ApiKey != "" {
		req.Header.Set("Api-Key", r.ApiKey)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request %s %s: %w", r.Method, fullURL.Redacted(), err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Body:        respBodyBytes,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// EncodeQuery encodes a `url`-tagged struct into a query string. Keys and
// values are lower-cased and keys are sorted alphabetically.
func EncodeQuery(params interface{}) (string, error) {
	v, err := query.Values(params)
	if err != nil {
		return "", fmt.Errorf("failed to encode query parameters: %w", err)
	}
	normalized := make(url.Values, len(v))
	for key, values := range v {
		lk := strings.ToLower(key)
		for _, value := range values {
			normalized.Add(lk, strings.ToLower(value))
		}
	}
	return normalized.Encode(), nil
}
