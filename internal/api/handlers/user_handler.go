package handlers

import (
	"context"
	"net/http"

	"github.com/zhiyxn/linuxdo-cf-oauth/internal/upstream"
)

// UserFetcher loads the profile for a bearer credential.
type UserFetcher interface {
	FetchUser(ctx context.Context, authorization string) (*upstream.Response, error)
}

type UserHandler struct {
	upstream UserFetcher
}

func NewUserHandler(up UserFetcher) *UserHandler {
	return &UserHandler{upstream: up}
}

// Get handles GET /api/user by passing Authorization through untouched.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.upstream.FetchUser(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeUpstream(w, resp)
}
