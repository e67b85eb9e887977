package handler

import (
	"net/http"
	"strings"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/internal/service"
)

type MovieHandler struct {
	movies *service.MovieService
}

func NewMovieHandler(movies *service.MovieService) *MovieHandler {
	return &MovieHandler{movies: movies}
}

// List is the public paginated catalog.
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	movies, meta, err := h.movies.List(r.Context(), model.MovieQuery{
		Search: strings.TrimSpace(query.Get("search")),
		Page:   parseIntOrDefault(query.Get("page"), 1),
		Limit:  parseIntOrDefault(query.Get("limit"), 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, movies, &meta)
}

func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	movie, err := h.movies.Get(r.Context(), movieID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, movie, nil)
}

func (h *MovieHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	movies, err := h.movies.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, movies, nil)
}

func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.MovieInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.movies.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.CreatedResource{ID: id}, nil)
}

func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.MovieInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.movies.Update(r.Context(), actorFromRequest(r), movieID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"updated": true}, nil)
}

func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	movieID, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.movies.Delete(r.Context(), actorFromRequest(r), movieID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}
