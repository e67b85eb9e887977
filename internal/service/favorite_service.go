package service

import (
	"context"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

// FavoriteService is the per-user favorites ledger. A duplicate add is an
// error rather than a silent success.
type FavoriteService struct {
	favorites FavoriteStore
}

func NewFavoriteService(favorites FavoriteStore) *FavoriteService {
	return &FavoriteService{favorites: favorites}
}

func (s *FavoriteService) Add(ctx context.Context, userID int64, movieID int64) error {
	if movieID <= 0 {
		return apierror.BadRequest("movieId is required", "movieId")
	}

	exists, err := s.favorites.Exists(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if exists {
		return model.ErrFavoriteExists
	}

	// Two concurrent adds can both pass the check above; the store's
	// uniqueness constraint turns the loser into ErrFavoriteExists.
	return s.favorites.Add(ctx, userID, movieID)
}

func (s *FavoriteService) Remove(ctx context.Context, userID int64, movieID int64) error {
	if movieID <= 0 {
		return apierror.BadRequest("invalid movie id", "movieId")
	}

	return s.favorites.Remove(ctx, userID, movieID)
}

func (s *FavoriteService) List(ctx context.Context, userID int64) ([]model.Movie, error) {
	movies, err := s.favorites.ListMovies(ctx, userID)
	if err != nil {
		return nil, err
	}
	if movies == nil {
		movies = []model.Movie{}
	}
	return movies, nil
}

func (s *FavoriteService) Status(ctx context.Context, userID int64, movieID int64) (bool, error) {
	if movieID <= 0 {
		return false, apierror.BadRequest("invalid movie id", "movieId")
	}

	return s.favorites.Exists(ctx, userID, movieID)
}
