package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-movie-catalog/internal/model"
)

// MemoryStore is an in-process stand-in for the PostgreSQL schema. It
// enforces the same constraints as the migrations: case-insensitive unique
// usernames, one favorite per (user, movie), favorites referencing existing
// rows, and cascading deletes.
type MemoryStore struct {
	mu           sync.Mutex
	nextUserID   int64
	nextMovieID  int64
	users        map[int64]model.User
	movies       map[int64]model.Movie
	favorites    map[favoriteKey]time.Time
	auditEntries []model.AuditEntry
}

type favoriteKey struct {
	userID  int64
	movieID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     map[int64]model.User{},
		movies:    map[int64]model.Movie{},
		favorites: map[favoriteKey]time.Time{},
	}
}

func (s *MemoryStore) Users() *MemoryUserRepository         { return &MemoryUserRepository{s: s} }
func (s *MemoryStore) Movies() *MemoryMovieRepository       { return &MemoryMovieRepository{s: s} }
func (s *MemoryStore) Favorites() *MemoryFavoriteRepository { return &MemoryFavoriteRepository{s: s} }
func (s *MemoryStore) Audit() *MemoryAuditRepository        { return &MemoryAuditRepository{s: s} }

type MemoryUserRepository struct {
	s *MemoryStore
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.userByNameLocked(username); ok {
		return u, nil
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.userByNameLocked(username)
	return ok, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.userByNameLocked(u.Username); ok {
		return model.User{}, model.ErrUserAlreadyExists
	}

	r.s.nextUserID++
	u.ID = r.s.nextUserID
	r.s.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepository) UpdateUsername(_ context.Context, id int64, username string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	if other, exists := r.s.userByNameLocked(username); exists && other.ID != id {
		return model.ErrUserAlreadyExists
	}
	u.Username = username
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *MemoryUserRepository) UpdateRole(_ context.Context, id int64, role string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(r.s.users, id)
	for key := range r.s.favorites {
		if key.userID == id {
			delete(r.s.favorites, key)
		}
	}
	return nil
}

func (r *MemoryUserRepository) List(_ context.Context, search string) ([]model.AuthUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(search))
	users := make([]model.AuthUser, 0, len(r.s.users))
	for _, u := range r.s.users {
		if needle != "" && !strings.Contains(strings.ToLower(u.Username), needle) {
			continue
		}
		users = append(users, u.Public())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) userByNameLocked(username string) (model.User, bool) {
	key := strings.ToLower(strings.TrimSpace(username))
	for _, u := range s.users {
		if strings.ToLower(u.Username) == key {
			return u, true
		}
	}
	return model.User{}, false
}

type MemoryMovieRepository struct {
	s *MemoryStore
}

func (r *MemoryMovieRepository) FindByID(_ context.Context, id int64) (model.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.movies[id]
	if !ok {
		return model.Movie{}, model.ErrMovieNotFound
	}
	return m, nil
}

func (r *MemoryMovieRepository) List(_ context.Context, query model.MovieQuery) ([]model.Movie, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(query.Search))
	matches := make([]model.Movie, 0)
	for _, m := range r.s.sortedMoviesLocked() {
		if strings.Contains(strings.ToLower(m.Title), needle) {
			matches = append(matches, m)
		}
	}

	total := len(matches)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}

func (r *MemoryMovieRepository) ListAll(_ context.Context) ([]model.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.s.sortedMoviesLocked(), nil
}

func (r *MemoryMovieRepository) Create(_ context.Context, in model.MovieInput) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextMovieID++
	now := time.Now().UTC()
	m := movieFromInput(r.s.nextMovieID, normalizeMovieInput(in))
	m.CreatedAt = now
	m.UpdatedAt = now
	r.s.movies[m.ID] = m
	return m.ID, nil
}

func (r *MemoryMovieRepository) Update(_ context.Context, id int64, in model.MovieInput) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.movies[id]
	if !ok {
		return model.ErrMovieNotFound
	}
	m := movieFromInput(id, normalizeMovieInput(in))
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	r.s.movies[id] = m
	return nil
}

func (r *MemoryMovieRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.movies[id]; !ok {
		return model.ErrMovieNotFound
	}
	delete(r.s.movies, id)
	for key := range r.s.favorites {
		if key.movieID == id {
			delete(r.s.favorites, key)
		}
	}
	return nil
}

func (s *MemoryStore) sortedMoviesLocked() []model.Movie {
	movies := make([]model.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		movies = append(movies, m)
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies
}

func movieFromInput(id int64, in model.MovieInput) model.Movie {
	return model.Movie{
		ID:            id,
		TMDBID:        in.TMDBID,
		Title:         in.Title,
		OriginalTitle: in.OriginalTitle,
		Overview:      in.Overview,
		ReleaseDate:   in.ReleaseDate,
		PosterPath:    in.PosterPath,
		BackdropPath:  in.BackdropPath,
		VoteAverage:   in.VoteAverage,
		VoteCount:     in.VoteCount,
		Popularity:    in.Popularity,
		Runtime:       in.Runtime,
		Genres:        in.Genres,
		Director:      in.Director,
		Cast:          in.Cast,
		TrailerKey:    in.TrailerKey,
		WatchURL:      in.WatchURL,
	}
}

type MemoryFavoriteRepository struct {
	s *MemoryStore
}

func (r *MemoryFavoriteRepository) Exists(_ context.Context, userID int64, movieID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, ok := r.s.favorites[favoriteKey{userID: userID, movieID: movieID}]
	return ok, nil
}

func (r *MemoryFavoriteRepository) Add(_ context.Context, userID int64, movieID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := favoriteKey{userID: userID, movieID: movieID}
	if _, ok := r.s.favorites[key]; ok {
		return model.ErrFavoriteExists
	}
	if _, ok := r.s.movies[movieID]; !ok {
		return model.ErrMovieNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return model.ErrUserNotFound
	}
	r.s.favorites[key] = time.Now().UTC()
	return nil
}

func (r *MemoryFavoriteRepository) Remove(_ context.Context, userID int64, movieID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := favoriteKey{userID: userID, movieID: movieID}
	if _, ok := r.s.favorites[key]; !ok {
		return model.ErrFavoriteNotFound
	}
	delete(r.s.favorites, key)
	return nil
}

func (r *MemoryFavoriteRepository) ListMovies(_ context.Context, userID int64) ([]model.Movie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type added struct {
		movie model.Movie
		at    time.Time
	}
	rows := make([]added, 0)
	for key, at := range r.s.favorites {
		if key.userID != userID {
			continue
		}
		if m, ok := r.s.movies[key.movieID]; ok {
			rows = append(rows, added{movie: m, at: at})
		}
	}
	// Matches ORDER BY fm.created_at DESC, m.id.
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].at.Equal(rows[j].at) {
			return rows[i].at.After(rows[j].at)
		}
		return rows[i].movie.ID < rows[j].movie.ID
	})

	movies := make([]model.Movie, 0, len(rows))
	for _, row := range rows {
		movies = append(movies, row.movie)
	}
	return movies, nil
}

type MemoryAuditRepository struct {
	s *MemoryStore
}

func (r *MemoryAuditRepository) Log(_ context.Context, entry model.AuditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.auditEntries = append(r.s.auditEntries, entry)
	return nil
}

func (r *MemoryAuditRepository) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	action := strings.ToLower(strings.TrimSpace(query.Action))
	status := strings.ToLower(strings.TrimSpace(query.Status))

	matches := make([]model.AuditEntry, 0)
	for i := len(r.s.auditEntries) - 1; i >= 0; i-- {
		entry := r.s.auditEntries[i]
		if action != "" && strings.ToLower(entry.Action) != action {
			continue
		}
		if status != "" && strings.ToLower(entry.Status) != status {
			continue
		}
		if query.ActorID > 0 && entry.Actor.UserID != query.ActorID {
			continue
		}
		if query.From != "" && entry.OccurredAt < query.From {
			continue
		}
		if query.To != "" && entry.OccurredAt > query.To {
			continue
		}
		matches = append(matches, entry)
	}

	total := len(matches)
	start := (query.Page - 1) * query.Limit
	if start > total {
		start = total
	}
	end := start + query.Limit
	if end > total {
		end = total
	}
	return matches[start:end], total, nil
}
