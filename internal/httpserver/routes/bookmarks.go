package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	a := api(r, d)
	createLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:        d.CreateBurst,
		RefillPerMin: d.CreateRefillPerMin,
		MaxEntries:   10_000,
		TrustProxy:   d.TrustProxy,
	})

	a.With(createLimit).Post("/api/v1/bookmarks", handlers.CreateBookmark(d))
	a.Get("/api/v1/bookmarks", handlers.ListBookmarks(d))
	a.Get("/api/v1/bookmarks/{id}", handlers.GetBookmark(d))
	a.Patch("/api/v1/bookmarks/{id}", handlers.UpdateBookmark(d))
	a.Delete("/api/v1/bookmarks/{id}", handlers.DeleteBookmark(d))
}
