package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

const (
	defaultMoviePageSize = 20
	maxMoviePageSize     = 100
)

type MovieService struct {
	movies   MovieStore
	audit    *AuditService
	validate *validator.Validate
}

func NewMovieService(movies MovieStore, audit *AuditService) *MovieService {
	return &MovieService{
		movies:   movies,
		audit:    audit,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *MovieService) List(ctx context.Context, query model.MovieQuery) ([]model.Movie, model.Meta, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = defaultMoviePageSize
	}
	if query.Limit > maxMoviePageSize {
		query.Limit = maxMoviePageSize
	}
	if err := checkPage(query.Page, query.Limit); err != nil {
		return nil, model.Meta{}, err
	}
	query.Search = strings.TrimSpace(query.Search)

	movies, total, err := s.movies.List(ctx, query)
	if err != nil {
		return nil, model.Meta{}, err
	}

	return movies, pageMeta(query.Page, query.Limit, total), nil
}

func (s *MovieService) ListAll(ctx context.Context) ([]model.Movie, error) {
	return s.movies.ListAll(ctx)
}

func (s *MovieService) Get(ctx context.Context, id int64) (model.Movie, error) {
	if id <= 0 {
		return model.Movie{}, apierror.BadRequest("invalid movie id", "id")
	}
	return s.movies.FindByID(ctx, id)
}

func (s *MovieService) Create(ctx context.Context, actor model.AuditActor, in model.MovieInput) (int64, error) {
	in = trimMovieInput(in)
	if err := s.validateInput(in); err != nil {
		return 0, err
	}

	id, err := s.movies.Create(ctx, in)
	if err != nil {
		s.audit.Log(ctx, model.AuditActionMovieCreate, actor, model.AuditStatusFailure, "", nil, in, err.Error())
		return 0, err
	}

	s.audit.Log(ctx, model.AuditActionMovieCreate, actor, model.AuditStatusSuccess, movieResource(id), nil, in, "")
	return id, nil
}

func (s *MovieService) Update(ctx context.Context, actor model.AuditActor, id int64, in model.MovieInput) error {
	if id <= 0 {
		return apierror.BadRequest("invalid movie id", "id")
	}
	in = trimMovieInput(in)
	if err := s.validateInput(in); err != nil {
		return err
	}

	before, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.movies.Update(ctx, id, in); err != nil {
		s.audit.Log(ctx, model.AuditActionMovieUpdate, actor, model.AuditStatusFailure, movieResource(id), before, in, err.Error())
		return err
	}

	s.audit.Log(ctx, model.AuditActionMovieUpdate, actor, model.AuditStatusSuccess, movieResource(id), before, in, "")
	return nil
}

func (s *MovieService) Delete(ctx context.Context, actor model.AuditActor, id int64) error {
	if id <= 0 {
		return apierror.BadRequest("invalid movie id", "id")
	}

	before, err := s.movies.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.movies.Delete(ctx, id); err != nil {
		s.audit.Log(ctx, model.AuditActionMovieDelete, actor, model.AuditStatusFailure, movieResource(id), before, nil, err.Error())
		return err
	}

	s.audit.Log(ctx, model.AuditActionMovieDelete, actor, model.AuditStatusSuccess, movieResource(id), before, nil, "")
	return nil
}

func (s *MovieService) validateInput(in model.MovieInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate movie: %w", err)
	}

	fields := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		fields = append(fields, fmt.Sprintf("%s:%s", fieldErr.Namespace(), fieldErr.Tag()))
	}
	return apierror.BadRequest("missing or invalid movie fields", strings.Join(fields, ", "))
}

func trimMovieInput(in model.MovieInput) model.MovieInput {
	in.Title = strings.TrimSpace(in.Title)
	in.OriginalTitle = strings.TrimSpace(in.OriginalTitle)
	in.Overview = strings.TrimSpace(in.Overview)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
	in.PosterPath = strings.TrimSpace(in.PosterPath)
	in.BackdropPath = strings.TrimSpace(in.BackdropPath)
	in.Director = strings.TrimSpace(in.Director)
	in.TrailerKey = strings.TrimSpace(in.TrailerKey)
	in.WatchURL = strings.TrimSpace(in.WatchURL)
	return in
}

func movieResource(id int64) string {
	return "movies/" + strconv.FormatInt(id, 10)
}
