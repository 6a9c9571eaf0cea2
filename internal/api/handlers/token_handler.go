package handlers

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	mw "github.com/zhiyxn/linuxdo-cf-oauth/internal/api/middleware"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/credentials"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/metrics"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
	apperr "github.com/zhiyxn/linuxdo-cf-oauth/pkg/errors"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/logger"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/utils"
	"go.uber.org/zap"
)

const (
	formContentType = "application/x-www-form-urlencoded"
	maxFormBytes    = 1 << 20
)

var errUnsupportedMedia = apperr.New(apperr.CodeUnsupportedMedia, "Unsupported Media Type")

// TokenExchanger posts a resolved form to the token endpoint.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, form url.Values) (*upstream.Response, error)
}

type TokenHandler struct {
	resolver *credentials.Resolver
	upstream TokenExchanger
}

func NewTokenHandler(resolver *credentials.Resolver, up TokenExchanger) *TokenHandler {
	return &TokenHandler{resolver: resolver, upstream: up}
}

// Exchange handles POST /oauth/token. Nothing is sent upstream unless the
// form ends up with both client_id and client_secret.
func (h *TokenHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), formContentType) {
		writeError(w, r, errUnsupportedMedia)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err != nil {
		writeError(w, r, apperr.Wrap(err, apperr.CodeInvalid, "Bad Request"))
		return
	}

	res, err := h.resolver.Resolve(credentials.ParseForm(string(body)))
	if err != nil {
		metrics.CredentialResolutions.WithLabelValues(string(apperr.CodeOf(err))).Inc()
		writeError(w, r, err)
		return
	}
	metrics.CredentialResolutions.WithLabelValues(string(res.SecretSource)).Inc()

	logger.Named("proxy").Debug("forwarding token request",
		zap.String("id", mw.GetRequestID(r.Context())),
		zap.String("client_id", res.ClientID),
		zap.String("secret_source", string(res.SecretSource)),
		zap.String("secret_fp", utils.Fingerprint(res.Form.Get(credentials.ParamClientSecret))),
		zap.Bool("client_id_injected", res.ClientIDInjected),
		zap.String("grant_type", res.Form.Get("grant_type")),
	)

	resp, err := h.upstream.ExchangeToken(r.Context(), res.Form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeUpstream(w, resp)
}
