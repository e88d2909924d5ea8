package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
)

type listsResponse struct {
	Lists []domain.List `json:"lists"`
}

type createListRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func Lists(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lists, err := d.Service.Lists(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		if lists == nil {
			lists = []domain.List{}
		}
		writeJSON(w, http.StatusOK, listsResponse{Lists: lists})
	}
}

func CreateList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createListRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		l, err := d.Service.CreateList(r.Context(), req.Name, req.Icon)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// AddToList and RemoveFromList are idempotent and answer 204.
func AddToList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Service.AddToList(r.Context(), chi.URLParam(r, "listId"), chi.URLParam(r, "bookmarkId"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RemoveFromList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := d.Service.RemoveFromList(r.Context(), chi.URLParam(r, "listId"), chi.URLParam(r, "bookmarkId"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
