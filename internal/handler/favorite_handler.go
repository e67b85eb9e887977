package handler

import (
	"net/http"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/internal/service"
)

type FavoriteHandler struct {
	favorites *service.FavoriteService
}

func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	movies, err := h.favorites.List(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, movies, nil)
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var payload model.AddFavoriteRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Add(r.Context(), claims.UserID, payload.MovieID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, model.FavoriteStatus{IsFavorited: true}, nil)
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	movieID, err := idParam(r, "movieId")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.favorites.Remove(r.Context(), claims.UserID, movieID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.FavoriteStatus{IsFavorited: false}, nil)
}

func (h *FavoriteHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	movieID, err := idParam(r, "movieId")
	if err != nil {
		writeError(w, err)
		return
	}

	favorited, err := h.favorites.Status(r.Context(), claims.UserID, movieID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.FavoriteStatus{IsFavorited: favorited}, nil)
}
