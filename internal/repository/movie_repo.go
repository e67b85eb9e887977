package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-movie-catalog/internal/model"
)

const movieColumns = `m.id, m.tmdb_id, m.title, m.original_title, m.overview, m.release_date,
	m.poster_path, m.backdrop_path, m.vote_average, m.vote_count, m.popularity, m.runtime,
	m.genres, m.director, m.cast_members, m.trailer_key, m.watch_url, m.created_at, m.updated_at`

type MovieRepository struct {
	pool *pgxpool.Pool
}

func NewMovieRepository(pool *pgxpool.Pool) *MovieRepository {
	return &MovieRepository{pool: pool}
}

func (r *MovieRepository) FindByID(ctx context.Context, id int64) (model.Movie, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.id = $1`, id)
	movie, err := scanMovie(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Movie{}, model.ErrMovieNotFound
	}
	if err != nil {
		return model.Movie{}, fmt.Errorf("find movie by id: %w", err)
	}
	return movie, nil
}

// List returns one page of movies whose title contains query.Search, plus
// the total number of matches.
func (r *MovieRepository) List(ctx context.Context, query model.MovieQuery) ([]model.Movie, int, error) {
	pattern := likePattern(strings.TrimSpace(query.Search))

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM movies WHERE title ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count movies: %w", err)
	}

	offset := (query.Page - 1) * query.Limit
	rows, err := r.pool.Query(ctx,
		`SELECT `+movieColumns+` FROM movies m
		 WHERE m.title ILIKE $1
		 ORDER BY m.id
		 LIMIT $2 OFFSET $3`, pattern, query.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movies: %w", err)
	}

	movies, err := collectMovies(rows)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func (r *MovieRepository) ListAll(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movieColumns+` FROM movies m ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("list all movies: %w", err)
	}
	return collectMovies(rows)
}

func (r *MovieRepository) Create(ctx context.Context, in model.MovieInput) (int64, error) {
	in = normalizeMovieInput(in)

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO movies (tmdb_id, title, original_title, overview, release_date, poster_path,
		                     backdrop_path, vote_average, vote_count, popularity, runtime,
		                     genres, director, cast_members, trailer_key, watch_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`,
		in.TMDBID, in.Title, in.OriginalTitle, in.Overview, in.ReleaseDate, in.PosterPath,
		in.BackdropPath, in.VoteAverage, in.VoteCount, in.Popularity, in.Runtime,
		in.Genres, in.Director, in.Cast, in.TrailerKey, in.WatchURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create movie: %w", err)
	}
	return id, nil
}

func (r *MovieRepository) Update(ctx context.Context, id int64, in model.MovieInput) error {
	in = normalizeMovieInput(in)

	tag, err := r.pool.Exec(ctx,
		`UPDATE movies SET tmdb_id = $2, title = $3, original_title = $4, overview = $5,
		        release_date = $6, poster_path = $7, backdrop_path = $8, vote_average = $9,
		        vote_count = $10, popularity = $11, runtime = $12, genres = $13, director = $14,
		        cast_members = $15, trailer_key = $16, watch_url = $17, updated_at = now()
		 WHERE id = $1`,
		id, in.TMDBID, in.Title, in.OriginalTitle, in.Overview, in.ReleaseDate, in.PosterPath,
		in.BackdropPath, in.VoteAverage, in.VoteCount, in.Popularity, in.Runtime,
		in.Genres, in.Director, in.Cast, in.TrailerKey, in.WatchURL)
	if err != nil {
		return fmt.Errorf("update movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMovieNotFound
	}
	return nil
}

func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMovieNotFound
	}
	return nil
}

func scanMovie(row pgx.Row) (model.Movie, error) {
	var m model.Movie
	err := row.Scan(&m.ID, &m.TMDBID, &m.Title, &m.OriginalTitle, &m.Overview, &m.ReleaseDate,
		&m.PosterPath, &m.BackdropPath, &m.VoteAverage, &m.VoteCount, &m.Popularity, &m.Runtime,
		&m.Genres, &m.Director, &m.Cast, &m.TrailerKey, &m.WatchURL, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return model.Movie{}, err
	}
	if m.Genres == nil {
		m.Genres = []model.Genre{}
	}
	if m.Cast == nil {
		m.Cast = []model.CastMember{}
	}
	return m, nil
}

func collectMovies(rows pgx.Rows) ([]model.Movie, error) {
	defer rows.Close()

	movies := make([]model.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// normalizeMovieInput keeps nil slices from being written as SQL NULL.
func normalizeMovieInput(in model.MovieInput) model.MovieInput {
	if in.Genres == nil {
		in.Genres = []model.Genre{}
	}
	if in.Cast == nil {
		in.Cast = []model.CastMember{}
	}
	return in
}
