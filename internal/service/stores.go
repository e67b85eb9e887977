package service

import (
	"context"

	"go-movie-catalog/internal/model"
)

type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, search string) ([]model.AuthUser, error)
}

type MovieStore interface {
	FindByID(ctx context.Context, id int64) (model.Movie, error)
	List(ctx context.Context, query model.MovieQuery) ([]model.Movie, int, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
	Create(ctx context.Context, in model.MovieInput) (int64, error)
	Update(ctx context.Context, id int64, in model.MovieInput) error
	Delete(ctx context.Context, id int64) error
}

type FavoriteStore interface {
	Exists(ctx context.Context, userID int64, movieID int64) (bool, error)
	Add(ctx context.Context, userID int64, movieID int64) error
	Remove(ctx context.Context, userID int64, movieID int64) error
	ListMovies(ctx context.Context, userID int64) ([]model.Movie, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error)
}
