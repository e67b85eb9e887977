package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-movie-catalog/internal/config"
	"go-movie-catalog/internal/handler"
	"go-movie-catalog/internal/middleware"
	"go-movie-catalog/internal/model"
	"go-movie-catalog/internal/repository"
	"go-movie-catalog/internal/service"
	"go-movie-catalog/internal/tmdb"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T, tmdbURL string) *testServer {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     0,
		AuthRateLimitRPM: 1000,
	}

	store := repository.NewMemoryStore()
	tokens, err := service.NewTokenService("router-test-secret", time.Hour)
	require.NoError(t, err)

	audit := service.NewAuditService(store.Audit())
	accounts, err := service.NewAccountService(store.Users(), tokens, audit, bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, accounts.EnsureAdmin(context.Background(), "root", "root-password"))

	favorites := service.NewFavoriteService(store.Favorites())
	movies := service.NewMovieService(store.Movies(), audit)
	client := tmdb.NewClient(tmdbURL, "key", "vi-VN", time.Second)

	h := New(cfg, middleware.NewAuthMiddleware(tokens), middleware.NewMetrics(), Handlers{
		Health:   handler.NewHealthHandler(nil),
		Auth:     handler.NewAuthHandler(accounts),
		Profile:  handler.NewProfileHandler(accounts),
		User:     handler.NewUserHandler(accounts),
		Favorite: handler.NewFavoriteHandler(favorites),
		Movie:    handler.NewMovieHandler(movies),
		TMDB:     handler.NewTMDBHandler(client),
		Audit:    handler.NewAuditHandler(audit),
	})

	return &testServer{t: t, handler: h}
}

func (s *testServer) do(method string, path string, token string, body any) (int, envelope) {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func (s *testServer) login(username string, password string) string {
	s.t.Helper()

	status, env := s.do(http.MethodPost, "/api/login", "", model.LoginRequest{Username: username, Password: password})
	require.Equal(s.t, http.StatusOK, status)

	var result model.LoginResult
	require.NoError(s.t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(s.t, result.AccessToken)
	return result.AccessToken
}

func sampleMovie(tmdbID int64, title string) model.MovieInput {
	return model.MovieInput{
		TMDBID:      tmdbID,
		Title:       title,
		Overview:    "overview of " + title,
		ReleaseDate: "2010-07-15",
		PosterPath:  "/poster.jpg",
		VoteAverage: 8.1,
		Genres:      []model.Genre{{ID: 28, Name: "Action"}},
		Cast:        []model.CastMember{{Name: "Someone", Character: "Lead"}},
	}
}

func createMovie(t *testing.T, s *testServer, adminToken string, in model.MovieInput) int64 {
	t.Helper()

	status, env := s.do(http.MethodPost, "/api/admin/movies", adminToken, in)
	require.Equal(t, http.StatusCreated, status, env.Error)

	var created model.CreatedResource
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Positive(t, created.ID)
	return created.ID
}

func TestRegistrationAndLogin(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	status, env := s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "alice", Password: "pw1"})
	require.Equal(t, http.StatusCreated, status)

	var user model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &user))
	require.Equal(t, "alice", user.Username)
	require.Equal(t, model.RoleUser, user.Role)
	require.NotContains(t, string(env.Data), "password")

	t.Run("duplicate username conflicts", func(t *testing.T) {
		status, env := s.do(http.MethodPost, "/api/auth/register", "", model.RegisterRequest{Username: "Alice", Password: "other"})
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, "CONFLICT", env.Error.Code)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		status, _ := s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "bob"})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login returns token and role", func(t *testing.T) {
		status, env := s.do(http.MethodPost, "/api/auth/login", "", model.LoginRequest{Username: "alice", Password: "pw1"})
		require.Equal(t, http.StatusOK, status)

		var result model.LoginResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		require.Equal(t, "Bearer", result.TokenType)
		require.Equal(t, int64(3600), result.ExpiresIn)
		require.Equal(t, model.RoleUser, result.User.Role)
	})

	t.Run("unknown user and wrong password look the same", func(t *testing.T) {
		wrongStatus, wrongEnv := s.do(http.MethodPost, "/api/login", "", model.LoginRequest{Username: "alice", Password: "nope"})
		unknownStatus, unknownEnv := s.do(http.MethodPost, "/api/login", "", model.LoginRequest{Username: "ghost", Password: "nope"})

		require.Equal(t, http.StatusUnauthorized, wrongStatus)
		require.Equal(t, wrongStatus, unknownStatus)
		require.Equal(t, wrongEnv.Error, unknownEnv.Error)
	})
}

func TestProfile(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "alice", Password: "pw1"})
	s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "bob", Password: "pw2"})
	token := s.login("alice", "pw1")

	status, env := s.do(http.MethodGet, "/api/user/info", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotContains(t, string(env.Data), "password")

	t.Run("no token", func(t *testing.T) {
		status, _ := s.do(http.MethodGet, "/api/user/info", "", nil)
		require.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("garbage token", func(t *testing.T) {
		status, env := s.do(http.MethodGet, "/api/user/info", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, status)
		require.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		status, _ := s.do(http.MethodPut, "/api/user/update", token, map[string]any{})
		require.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		status, _ := s.do(http.MethodPut, "/api/user/update", token, map[string]any{"username": "BOB"})
		require.Equal(t, http.StatusConflict, status)
	})

	t.Run("rename and new password", func(t *testing.T) {
		status, env := s.do(http.MethodPut, "/api/user/update", token, map[string]any{"username": "alicia", "password": "pw3"})
		require.Equal(t, http.StatusOK, status)

		var user model.AuthUser
		require.NoError(t, json.Unmarshal(env.Data, &user))
		require.Equal(t, "alicia", user.Username)

		s.login("alicia", "pw3")
		status, _ = s.do(http.MethodPost, "/api/login", "", model.LoginRequest{Username: "alicia", Password: "pw1"})
		require.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestAdminGate(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "alice", Password: "pw1"})
	userToken := s.login("alice", "pw1")
	adminToken := s.login("root", "root-password")

	paths := []string{"/api/admin/users", "/api/admin/movies", "/api/admin/audit"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			status, _ := s.do(http.MethodGet, path, "", nil)
			require.Equal(t, http.StatusUnauthorized, status)

			status, env := s.do(http.MethodGet, path, userToken, nil)
			require.Equal(t, http.StatusForbidden, status)
			require.Equal(t, "FORBIDDEN", env.Error.Code)

			status, _ = s.do(http.MethodGet, path, adminToken, nil)
			require.Equal(t, http.StatusOK, status)
		})
	}
}

func TestAdminUsers(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	_, env := s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "alice", Password: "pw1"})
	var alice model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &alice))
	adminToken := s.login("root", "root-password")
	aliceURL := "/api/admin/users/" + strconv.FormatInt(alice.ID, 10)

	status, env := s.do(http.MethodGet, "/api/admin/users?search=ALI", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var users []model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &users))
	require.Len(t, users, 1)
	require.Equal(t, "alice", users[0].Username)

	status, _ = s.do(http.MethodPut, aliceURL, adminToken, model.UpdateRoleRequest{Role: "superuser"})
	require.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(http.MethodPut, aliceURL, adminToken, model.UpdateRoleRequest{Role: "admin"})
	require.Equal(t, http.StatusOK, status)
	var promoted model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &promoted))
	require.Equal(t, model.RoleAdmin, promoted.Role)

	status, _ = s.do(http.MethodGet, "/api/admin/users/9999", adminToken, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, _ = s.do(http.MethodGet, "/api/admin/users/abc", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodDelete, aliceURL, adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodDelete, aliceURL, adminToken, nil)
	require.Equal(t, http.StatusNotFound, status)

	status, env = s.do(http.MethodGet, "/api/admin/audit?action=user.delete", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var audit model.AuditListData
	require.NoError(t, json.Unmarshal(env.Data, &audit))
	require.Len(t, audit.Items, 1)
	require.Equal(t, "root", audit.Items[0].Actor.Username)
	require.Equal(t, model.AuditStatusSuccess, audit.Items[0].Status)
	require.Equal(t, 1, env.Meta.Total)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")
	adminToken := s.login("root", "root-password")

	status, env := s.do(http.MethodGet, "/api/user/info", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me model.AuthUser
	require.NoError(t, json.Unmarshal(env.Data, &me))

	status, _ = s.do(http.MethodDelete, "/api/admin/users/"+strconv.FormatInt(me.ID, 10), adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestCatalogAndFavorites(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	s.do(http.MethodPost, "/api/register", "", model.RegisterRequest{Username: "alice", Password: "pw1"})
	userToken := s.login("alice", "pw1")
	adminToken := s.login("root", "root-password")

	inceptionID := createMovie(t, s, adminToken, sampleMovie(27205, "Inception"))
	createMovie(t, s, adminToken, sampleMovie(155, "The Dark Knight"))

	t.Run("invalid movie input", func(t *testing.T) {
		in := sampleMovie(1, "Broken")
		in.ReleaseDate = "15/07/2010"
		status, env := s.do(http.MethodPost, "/api/admin/movies", adminToken, in)
		require.Equal(t, http.StatusBadRequest, status)
		require.Contains(t, env.Error.Details, "ReleaseDate")
	})

	t.Run("public listing is paginated and searchable", func(t *testing.T) {
		status, env := s.do(http.MethodGet, "/api/movies?search=knight&limit=1", "", nil)
		require.Equal(t, http.StatusOK, status)

		var movies []model.Movie
		require.NoError(t, json.Unmarshal(env.Data, &movies))
		require.Len(t, movies, 1)
		require.Equal(t, "The Dark Knight", movies[0].Title)
		require.Equal(t, model.Meta{Page: 1, Limit: 1, Total: 1, TotalPages: 1}, *env.Meta)
	})

	inceptionURL := strconv.FormatInt(inceptionID, 10)

	t.Run("movie detail needs a token but public detail does not", func(t *testing.T) {
		status, _ := s.do(http.MethodGet, "/api/movies/"+inceptionURL, "", nil)
		require.Equal(t, http.StatusUnauthorized, status)

		status, _ = s.do(http.MethodGet, "/api/movies/"+inceptionURL, userToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, env := s.do(http.MethodGet, "/api/public/movies/"+inceptionURL, "", nil)
		require.Equal(t, http.StatusOK, status)
		var movie model.Movie
		require.NoError(t, json.Unmarshal(env.Data, &movie))
		require.Equal(t, "Inception", movie.Title)
		require.Len(t, movie.Genres, 1)

		status, _ = s.do(http.MethodGet, "/api/public/movies/424242", "", nil)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("favorites lifecycle", func(t *testing.T) {
		status, env := s.do(http.MethodGet, "/api/user/favorites", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `[]`, string(env.Data))

		status, _ = s.do(http.MethodPost, "/api/user/favorites", userToken, model.AddFavoriteRequest{MovieID: inceptionID})
		require.Equal(t, http.StatusCreated, status)

		status, env = s.do(http.MethodPost, "/api/user/favorites", userToken, model.AddFavoriteRequest{MovieID: inceptionID})
		require.Equal(t, http.StatusConflict, status)
		require.Equal(t, "CONFLICT", env.Error.Code)

		status, _ = s.do(http.MethodPost, "/api/user/favorites", userToken, model.AddFavoriteRequest{MovieID: 424242})
		require.Equal(t, http.StatusNotFound, status)

		status, _ = s.do(http.MethodPost, "/api/user/favorites", userToken, map[string]any{})
		require.Equal(t, http.StatusBadRequest, status)

		status, env = s.do(http.MethodGet, "/api/user/favorites/status/"+inceptionURL, userToken, nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"isFavorited":true}`, string(env.Data))

		status, env = s.do(http.MethodGet, "/api/user/favorites", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		var favorites []model.Movie
		require.NoError(t, json.Unmarshal(env.Data, &favorites))
		require.Len(t, favorites, 1)
		require.Equal(t, inceptionID, favorites[0].ID)

		status, _ = s.do(http.MethodDelete, "/api/user/favorites/"+inceptionURL, userToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, _ = s.do(http.MethodDelete, "/api/user/favorites/"+inceptionURL, userToken, nil)
		require.Equal(t, http.StatusNotFound, status)

		status, env = s.do(http.MethodGet, "/api/user/favorites/status/"+inceptionURL, userToken, nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"isFavorited":false}`, string(env.Data))
	})

	t.Run("admin update and delete", func(t *testing.T) {
		s.do(http.MethodPost, "/api/user/favorites", userToken, model.AddFavoriteRequest{MovieID: inceptionID})

		updated := sampleMovie(27205, "Inception (2010)")
		status, _ := s.do(http.MethodPut, "/api/admin/movies/"+inceptionURL, adminToken, updated)
		require.Equal(t, http.StatusOK, status)

		status, _ = s.do(http.MethodPut, "/api/admin/movies/424242", adminToken, updated)
		require.Equal(t, http.StatusNotFound, status)

		status, _ = s.do(http.MethodDelete, "/api/admin/movies/"+inceptionURL, adminToken, nil)
		require.Equal(t, http.StatusOK, status)

		status, env := s.do(http.MethodGet, "/api/user/favorites", userToken, nil)
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `[]`, string(env.Data))

		status, env = s.do(http.MethodGet, "/api/admin/audit?status=success", adminToken, nil)
		require.Equal(t, http.StatusOK, status)
		var audit model.AuditListData
		require.NoError(t, json.Unmarshal(env.Data, &audit))
		require.Len(t, audit.Items, 4)
		require.Equal(t, model.AuditActionMovieDelete, audit.Items[0].Action)
	})
}

func TestTMDBPassThrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/movie":
			_, _ = w.Write([]byte(`{"results":[{"id":27205,"title":"Inception"}]}`))
		case "/movie/27205":
			_, _ = w.Write([]byte(`{"id":27205,"title":"Inception","credits":{"crew":[{"name":"Christopher Nolan","job":"Director"}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer upstream.Close()

	s := newTestServer(t, upstream.URL)

	status, env := s.do(http.MethodGet, "/api/public/tmdb/search?query=inception", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[{"id":27205,"title":"Inception"}]`, string(env.Data))

	status, _ = s.do(http.MethodGet, "/api/public/tmdb/search", "", nil)
	require.Equal(t, http.StatusBadRequest, status)

	status, env = s.do(http.MethodGet, "/api/public/tmdb/movie/27205", "", nil)
	require.Equal(t, http.StatusOK, status)
	var movie model.MovieInput
	require.NoError(t, json.Unmarshal(env.Data, &movie))
	require.Equal(t, "Christopher Nolan", movie.Director)

	status, env = s.do(http.MethodGet, "/api/public/tmdb/movie/1", "", nil)
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "http://127.0.0.1:0")

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())

	s.do(http.MethodGet, "/api/movies", "", nil)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `route="/api/movies"`)
}
