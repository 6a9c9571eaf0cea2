package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/credentials"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
	apperr "github.com/zhiyxn/linuxdo-cf-oauth/pkg/errors"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.InitWriter(io.Discard, "debug", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockUpstream struct {
	mock.Mock
}

func (m *mockUpstream) ExchangeToken(ctx context.Context, form url.Values) (*upstream.Response, error) {
	args := m.Called(ctx, form)
	if v := args.Get(0); v != nil {
		return v.(*upstream.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUpstream) FetchUser(ctx context.Context, authorization string) (*upstream.Response, error) {
	args := m.Called(ctx, authorization)
	if v := args.Get(0); v != nil {
		return v.(*upstream.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

func formRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestExchangeForwardsResolvedForm(t *testing.T) {
	up := new(mockUpstream)
	up.On("ExchangeToken", mock.Anything, mock.MatchedBy(func(f url.Values) bool {
		return f.Get("client_id") == "abc" && f.Get("client_secret") == "secret1" && f.Get("code") == "c1"
	})).Return(&upstream.Response{
		StatusCode:  http.StatusOK,
		ContentType: "application/json",
		Body:        []byte(`{"access_token":"t","token_type":"bearer"}`),
	}, nil).Once()

	h := NewTokenHandler(credentials.NewResolver(credentials.Config{ClientMap: `{"abc":"secret1"}`}), up)
	rr := httptest.NewRecorder()
	h.Exchange(rr, formRequest("client_id=abc&code=c1"))

	up.AssertExpectations(t)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"access_token":"t","token_type":"bearer"}`, rr.Body.String())
}

func TestExchangeNeverCallsUpstreamOnLocalErrors(t *testing.T) {
	cases := map[string]struct {
		cfg    credentials.Config
		req    *http.Request
		status int
		body   string
	}{
		"json body": {
			cfg:    credentials.Config{ClientID: "abc", ClientSecret: "s"},
			req:    httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(`{"client_id":"abc"}`)),
			status: http.StatusUnsupportedMediaType,
			body:   "Unsupported Media Type",
		},
		"bad map": {
			cfg:    credentials.Config{ClientMap: "[", ClientSecret: "s"},
			req:    formRequest("client_id=abc"),
			status: http.StatusInternalServerError,
			body:   "Invalid CLIENT_MAP",
		},
		"no secret": {
			cfg:    credentials.Config{},
			req:    formRequest("client_id=abc"),
			status: http.StatusUnauthorized,
			body:   "Unauthorized client",
		},
		"oversized body": {
			cfg:    credentials.Config{ClientID: "abc", ClientSecret: "s"},
			req:    formRequest("pad=" + strings.Repeat("a", maxFormBytes)),
			status: http.StatusBadRequest,
			body:   "Bad Request",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			up := new(mockUpstream)
			h := NewTokenHandler(credentials.NewResolver(tc.cfg), up)
			rr := httptest.NewRecorder()
			h.Exchange(rr, tc.req)

			up.AssertNotCalled(t, "ExchangeToken", mock.Anything, mock.Anything)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.body, rr.Body.String())
			assert.Equal(t, textContentType, rr.Header().Get("Content-Type"))
		})
	}
}

func TestExchangeUpstreamTransportError(t *testing.T) {
	up := new(mockUpstream)
	up.On("ExchangeToken", mock.Anything, mock.Anything).
		Return(nil, apperr.Wrap(errors.New("dial tcp: refused"), apperr.CodeUnavailable, "Bad Gateway")).Once()

	h := NewTokenHandler(credentials.NewResolver(credentials.Config{ClientID: "abc", ClientSecret: "s"}), up)
	rr := httptest.NewRecorder()
	h.Exchange(rr, formRequest(""))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "Bad Gateway", rr.Body.String())
	assert.NotContains(t, rr.Body.String(), "refused")
}

func TestUserPassesHeaderAndMirrors(t *testing.T) {
	up := new(mockUpstream)
	up.On("FetchUser", mock.Anything, "Bearer X").Return(&upstream.Response{
		StatusCode: http.StatusForbidden,
		Body:       []byte(`{"error":"forbidden"}`),
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.Header.Set("Authorization", "Bearer X")
	rr := httptest.NewRecorder()
	NewUserHandler(up).Get(rr, req)

	up.AssertExpectations(t)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, defaultContentType, rr.Header().Get("Content-Type"))
	assert.Equal(t, `{"error":"forbidden"}`, rr.Body.String())
}

func TestMethodNotAllowedHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	MethodNotAllowed(rr, httptest.NewRequest(http.MethodPut, "/oauth/token", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method Not Allowed", rr.Body.String())
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(true)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.Liveness(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr = httptest.NewRecorder()
	h.Readiness(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"status":"ready"}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	NewHealthHandler(false).Readiness(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
