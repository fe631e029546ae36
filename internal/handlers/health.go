package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/coursecatalyst/identity/internal/handlers/render"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

func handleHealth(db Pinger, cache Pinger) http.Handler {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Cache    string `json:"cache"`
	}

	check := func(ctx context.Context, p Pinger) string {
		if p == nil {
			return "skipped"
		}
		if err := p.Ping(ctx); err != nil {
			return "down"
		}
		return "ok"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := response{
			Status:   "ok",
			Database: check(ctx, db),
			Cache:    check(ctx, cache),
		}

		code := http.StatusOK
		if resp.Database == "down" || resp.Cache == "down" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		render.JSONWithStatus(w, resp, code)
	})
}
