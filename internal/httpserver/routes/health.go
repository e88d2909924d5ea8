package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.ProbeCIDRs, d.TrustProxy, d.Logger)).Get("/readyz", handlers.Readyz(d))
}
