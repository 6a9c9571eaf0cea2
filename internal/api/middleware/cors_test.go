package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAllowedOrigins(t *testing.T) {
	assert.Nil(t, ParseAllowedOrigins(""))
	assert.Nil(t, ParseAllowedOrigins(" , ,"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		ParseAllowedOrigins(" https://a.example,,https://b.example "),
	)
}

func TestAllowOrigin(t *testing.T) {
	origins := []string{"https://app.example", "http://localhost:5173", "null"}
	allowlist := []string{"https://app.example", "http://localhost:5173"}

	permissive := CORSPolicy{}
	strict := CORSPolicy{AllowedOrigins: allowlist}

	for _, o := range origins {
		assert.Equal(t, o, permissive.AllowOrigin(o), "empty allowlist mirrors %q", o)
	}
	assert.Equal(t, "https://app.example", strict.AllowOrigin("https://app.example"))
	assert.Equal(t, "http://localhost:5173", strict.AllowOrigin("http://localhost:5173"))
	assert.Equal(t, "", strict.AllowOrigin("null"))
	assert.Equal(t, "", strict.AllowOrigin("https://APP.example"))

	assert.Equal(t, "", permissive.AllowOrigin(""))
	assert.Equal(t, "", strict.AllowOrigin(""))
}

func TestCORSSimpleRequest(t *testing.T) {
	h := CORS(CORSPolicy{AllowedOrigins: []string{"https://app.example"}})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodPost, "/oauth/token", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "disallowed origins are still served")
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	called := false
	h := CORS(CORSPolicy{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/does/not/exist", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.False(t, called)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.Bytes())
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, GET, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rr.Header().Get("Access-Control-Max-Age"))
}
