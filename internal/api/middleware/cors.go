package middleware

import (
	"net/http"
	"slices"
	"strings"
)

const (
	preflightMethods = "POST, GET, OPTIONS"
	preflightHeaders = "Content-Type, Authorization"
	preflightMaxAge  = "86400"
)

// CORSPolicy decides which origins may read responses. An empty allowlist
// mirrors any origin.
type CORSPolicy struct {
	AllowedOrigins []string
}

// ParseAllowedOrigins splits a comma-separated list, trimming blanks.
func ParseAllowedOrigins(csv string) []string {
	var out []string
	for _, o := range strings.Split(csv, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// AllowOrigin returns the Access-Control-Allow-Origin value for origin, or ""
// when none should be sent.
func (p CORSPolicy) AllowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if len(p.AllowedOrigins) == 0 || slices.Contains(p.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// Apply writes the per-origin headers for r onto h.
func (p CORSPolicy) Apply(h http.Header, r *http.Request) {
	if allowed := p.AllowOrigin(r.Header.Get("Origin")); allowed != "" {
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Add("Vary", "Origin")
	}
}

// CORS attaches the policy headers to every response and answers OPTIONS on
// any path with an empty 204 without calling next.
func CORS(policy CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy.Apply(w.Header(), r)
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", preflightMethods)
				w.Header().Set("Access-Control-Allow-Headers", preflightHeaders)
				w.Header().Set("Access-Control-Max-Age", preflightMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
