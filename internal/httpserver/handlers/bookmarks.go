package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
)

// CreateBookmark answers 201 with the new bookmark, or 200 with the stored
// one when the link was already saved.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CreateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		created, err := d.Service.CreateBookmark(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		status := http.StatusCreated
		if created.AlreadyExists {
			status = http.StatusOK
		}
		writeJSON(w, status, created)
	}
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseListQuery(r)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		page, err := d.Service.ListBookmarks(r.Context(), q)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func parseListQuery(r *http.Request) (domain.ListQuery, error) {
	values := r.URL.Query()
	q := domain.ListQuery{
		ListID: values.Get("listId"),
		Cursor: values.Get("cursor"),
	}

	var err error
	if q.Archived, err = optionalBool(values.Get("archived")); err != nil {
		return q, invalid("archived: %v", err)
	}
	if q.Favourited, err = optionalBool(values.Get("favourited")); err != nil {
		return q, invalid("favourited: %v", err)
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return q, invalid("limit %q is not a number", raw)
		}
	}
	return q, nil
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := d.Service.GetBookmark(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// UpdateBookmark applies a partial update. Absent fields are left alone.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.UpdateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		req.BookmarkID = chi.URLParam(r, "id")

		b, err := d.Service.UpdateBookmark(r.Context(), req)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.DeleteBookmark(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, d.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
