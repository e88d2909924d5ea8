package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/handlers"
)

func init() { Register(registerLists) }

func registerLists(r chi.Router, d deps.Deps) {
	a := api(r, d)
	a.Get("/api/v1/tags", handlers.Tags(d))
	a.Get("/api/v1/lists", handlers.Lists(d))
	a.Post("/api/v1/lists", handlers.CreateList(d))
	a.Put("/api/v1/lists/{listId}/bookmarks/{bookmarkId}", handlers.AddToList(d))
	a.Delete("/api/v1/lists/{listId}/bookmarks/{bookmarkId}", handlers.RemoveFromList(d))
}
