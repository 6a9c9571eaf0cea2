// Package upstream talks to the fixed linux.do authorization server.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/metrics"
	apperr "github.com/zhiyxn/linuxdo-cf-oauth/pkg/errors"
)

const (
	TokenEndpoint = "https://connect.linux.do/oauth2/token"
	UserEndpoint  = "https://connect.linux.do/api/user"

	formContentType = "application/x-www-form-urlencoded"
)

// Endpoints are the authorization server URLs. They are not operator
// configurable; tests point them at a local server.
type Endpoints struct {
	Token string
	User  string
}

// DefaultEndpoints returns the production authorization server.
func DefaultEndpoints() Endpoints {
	return Endpoints{Token: TokenEndpoint, User: UserEndpoint}
}

// Response is an upstream reply, buffered so it can be mirrored verbatim.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client performs exactly one outbound request per call and never retries.
type Client struct {
	httpClient *http.Client
	endpoints  Endpoints
}

// New returns a Client. Timeouts are whatever httpClient carries.
func New(httpClient *http.Client, endpoints Endpoints) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{httpClient: httpClient, endpoints: endpoints}
}

// NewHTTPClient builds the shared outbound client. A zero timeout means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		// mirror redirects instead of following them
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ExchangeToken POSTs form to the token endpoint. Only Content-Type is set.
func (c *Client) ExchangeToken(ctx context.Context, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.Token, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Internal Server Error")
	}
	req.Header.Set("Content-Type", formContentType)
	return c.do(req, "token")
}

// FetchUser GETs the user endpoint with authorization passed through as-is,
// including the empty string.
func (c *Client) FetchUser(ctx context.Context, authorization string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.User, nil)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternal, "Internal Server Error")
	}
	req.Header.Set("Authorization", authorization)
	return c.do(req, "user")
}

func (c *Client) do(req *http.Request, endpoint string) (*Response, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(float64(time.Since(start).Milliseconds()))
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, transportError(req.Context(), endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, transportError(req.Context(), endpoint, err)
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func transportError(ctx context.Context, endpoint string, err error) error {
	wrapped := fmt.Errorf("upstream %s: %w", endpoint, err)
	if errors.Is(ctx.Err(), context.Canceled) {
		return apperr.Wrap(wrapped, apperr.CodeCanceled, "Client Closed Request").WithMeta("endpoint", endpoint)
	}
	return apperr.Wrap(wrapped, apperr.CodeUnavailable, "Bad Gateway").WithMeta("endpoint", endpoint)
}
