package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"go-movie-catalog/internal/model"
)

type movieLookup interface {
	Search(ctx context.Context, query string) ([]json.RawMessage, error)
	Movie(ctx context.Context, tmdbID int64) (model.MovieInput, error)
}

type TMDBHandler struct {
	client movieLookup
}

func NewTMDBHandler(client movieLookup) *TMDBHandler {
	return &TMDBHandler{client: client}
}

func (h *TMDBHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.client.Search(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, results, nil)
}

func (h *TMDBHandler) Movie(w http.ResponseWriter, r *http.Request) {
	tmdbID, err := idParam(r, "tmdbId")
	if err != nil {
		writeError(w, err)
		return
	}

	movie, err := h.client.Movie(r.Context(), tmdbID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, movie, nil)
}
