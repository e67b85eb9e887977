package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-movie-catalog/internal/model"
)

type FavoriteRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID int64, movieID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM favorite_movies WHERE user_id = $1 AND movie_id = $2)`,
		userID, movieID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite exists: %w", err)
	}
	return exists, nil
}

// Add inserts the pair. The primary key on (user_id, movie_id) rejects a
// concurrent duplicate that slipped past an Exists check.
func (r *FavoriteRepository) Add(ctx context.Context, userID int64, movieID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO favorite_movies (user_id, movie_id) VALUES ($1, $2)`, userID, movieID)
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return model.ErrFavoriteExists
	}
	if constraint, ok := foreignKeyViolation(err); ok {
		if strings.Contains(constraint, "user_id") {
			return model.ErrUserNotFound
		}
		return model.ErrMovieNotFound
	}
	return fmt.Errorf("add favorite: %w", err)
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID int64, movieID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM favorite_movies WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFavoriteNotFound
	}
	return nil
}

func (r *FavoriteRepository) ListMovies(ctx context.Context, userID int64) ([]model.Movie, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+`
		 FROM movies m
		 JOIN favorite_movies fm ON m.id = fm.movie_id
		 WHERE fm.user_id = $1
		 ORDER BY fm.created_at DESC, m.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return collectMovies(rows)
}
