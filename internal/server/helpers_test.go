package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// withChiContext attaches a chi route context carrying URL params so
// handlers under test can read chi.URLParam without going through a router.
func withChiContext(r *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
}
