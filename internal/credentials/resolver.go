// Package credentials injects the proxy's client credentials into OAuth token
// requests. The secret comes from a client_id -> secret JSON map or from a
// single fallback pair; a configured secret always replaces one the caller sent.
package credentials

import (
	"encoding/json"
	"net/url"
	"strings"

	apperr "github.com/zhiyxn/linuxdo-cf-oauth/pkg/errors"
)

const (
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
)

var (
	ErrInvalidClientMap   = apperr.New(apperr.CodeConfiguration, "Invalid CLIENT_MAP")
	ErrUnauthorizedClient = apperr.New(apperr.CodeUnauthorized, "Unauthorized client")
)

// Config is the operator-supplied trust material.
type Config struct {
	// ClientMap is a JSON object of client_id -> client_secret, kept unparsed.
	ClientMap    string
	ClientID     string
	ClientSecret string
}

// Source reports which configuration supplied the secret, for logs.
type Source string

const (
	SourceMap      Source = "client_map"
	SourceFallback Source = "fallback"
	SourceCaller   Source = "caller" // form already carried a secret
)

// Resolution is the outcome of a successful Resolve.
type Resolution struct {
	Form         url.Values
	ClientID     string
	SecretSource Source
	// ClientIDInjected is set when the fallback client_id replaced a missing one.
	ClientIDInjected bool
}

// Resolver is immutable and safe for concurrent use.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// ParseForm decodes an application/x-www-form-urlencoded body into single
// valued pairs. On duplicate keys the last value wins. Invalid percent
// escapes are kept literally rather than failing the whole body.
func ParseForm(body string) url.Values {
	form := url.Values{}
	for body != "" {
		var pair string
		pair, body, _ = strings.Cut(body, "&")
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		form.Set(unescape(rawKey), unescape(rawValue))
	}
	return form
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return strings.ReplaceAll(s, "+", " ")
}

// Resolve fills client_id and client_secret on form following the configured
// precedence. form is modified in place and also returned in the Resolution.
//
// A malformed ClientMap fails with ErrInvalidClientMap even when a fallback
// secret is configured. A form left without client_id or client_secret fails
// with ErrUnauthorizedClient.
func (r *Resolver) Resolve(form url.Values) (*Resolution, error) {
	clientID := form.Get(ParamClientID)

	var mapSecret string
	if r.cfg.ClientMap != "" {
		secret, err := lookupSecret(r.cfg.ClientMap, clientID)
		if err != nil {
			return nil, err
		}
		mapSecret = secret
	}

	res := &Resolution{Form: form}
	if clientID == "" && r.cfg.ClientID != "" {
		form.Set(ParamClientID, r.cfg.ClientID)
		res.ClientIDInjected = true
	}

	switch {
	case mapSecret != "":
		form.Set(ParamClientSecret, mapSecret)
		res.SecretSource = SourceMap
	case r.cfg.ClientSecret != "":
		// a map miss falls back silently
		form.Set(ParamClientSecret, r.cfg.ClientSecret)
		res.SecretSource = SourceFallback
	default:
		res.SecretSource = SourceCaller
	}

	res.ClientID = form.Get(ParamClientID)
	if res.ClientID == "" || form.Get(ParamClientSecret) == "" {
		return nil, ErrUnauthorizedClient
	}
	return res, nil
}

// lookupSecret parses raw and returns the string secret for clientID. Valid
// JSON that is not an object, a missing key and a non-string value all yield "".
func lookupSecret(raw, clientID string) (string, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", apperr.Wrap(err, ErrInvalidClientMap.Code, ErrInvalidClientMap.Message)
	}
	if clientID == "" {
		return "", nil
	}
	m, ok := parsed.(map[string]any)
	if !ok {
		return "", nil
	}
	secret, _ := m[clientID].(string)
	return secret, nil
}
