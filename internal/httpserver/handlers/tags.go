package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/hoarder/internal/domain"
	"github.com/MrSnakeDoc/hoarder/internal/httpserver/deps"
)

type tagsResponse struct {
	Tags []domain.TagSummary `json:"tags"`
}

func Tags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Service.Tags(r.Context())
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tagsResponse{Tags: tags})
	}
}
