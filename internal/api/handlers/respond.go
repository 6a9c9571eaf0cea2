package handlers

import (
	"net/http"

	mw "github.com/zhiyxn/linuxdo-cf-oauth/internal/api/middleware"
	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
	apperr "github.com/zhiyxn/linuxdo-cf-oauth/pkg/errors"
	"github.com/zhiyxn/linuxdo-cf-oauth/pkg/logger"
	"go.uber.org/zap"
)

const (
	defaultContentType = "application/json; charset=utf-8"
	textContentType    = "text/plain; charset=utf-8"
)

var errMethodNotAllowed = apperr.New(apperr.CodeMethodNotAllowed, "Method Not Allowed")

// MethodNotAllowed answers every request outside the proxied routes.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, errMethodNotAllowed)
}

// writeUpstream mirrors an upstream reply: status and body untouched, content
// type defaulted to JSON when the server omitted it.
func writeUpstream(w http.ResponseWriter, resp *upstream.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// writeError answers with a plain text body. Only the public message of an
// AppError reaches the caller; causes go to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	logError(r, status, err)

	w.Header().Set("Content-Type", textContentType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(apperr.PublicMessage(err)))
}

func logError(r *http.Request, status int, err error) {
	fields := []zap.Field{
		zap.String("id", mw.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("code", string(apperr.CodeOf(err))),
		zap.Error(err),
	}
	l := logger.Named("proxy")
	switch apperr.CodeOf(err) {
	case apperr.CodeConfiguration, apperr.CodeUnavailable, apperr.CodeInternal, apperr.CodeUnknown:
		l.Error("request failed", fields...)
	case apperr.CodeCanceled:
		l.Debug("caller went away", fields...)
	default:
		l.Info("request rejected", fields...)
	}
}
