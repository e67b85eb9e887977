//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-movie-catalog/internal/config"
	"go-movie-catalog/internal/database"
	"go-movie-catalog/internal/handler"
	"go-movie-catalog/internal/middleware"
	"go-movie-catalog/internal/repository"
	"go-movie-catalog/internal/router"
	"go-movie-catalog/internal/service"
	"go-movie-catalog/internal/tmdb"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

// newTestDB connects to TEST_DATABASE_URL, applies migrations and empties
// every table. Tests in this package share one database and must not run
// in parallel.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	db, err := database.New(ctx, url, 5, 0)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))
	_, err = db.Pool.Exec(ctx, `TRUNCATE favorite_movies, movies, users, audit_entries RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return db
}

func newServer(t *testing.T) (*httptest.Server, *database.DB) {
	t.Helper()

	db := newTestDB(t)
	pool := db.Pool

	tokens, err := service.NewTokenService("test-secret", 15*time.Minute)
	require.NoError(t, err)

	audit := service.NewAuditService(repository.NewAuditRepository(pool))
	accounts, err := service.NewAccountService(repository.NewUserRepository(pool), tokens, audit, bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, accounts.EnsureAdmin(context.Background(), adminUsername, adminPassword))

	favorites := service.NewFavoriteService(repository.NewFavoriteRepository(pool))
	movies := service.NewMovieService(repository.NewMovieRepository(pool), audit)

	cfg := &config.Config{
		RequestTimeout:   30 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	server := httptest.NewServer(router.New(cfg, middleware.NewAuthMiddleware(tokens), middleware.NewMetrics(), router.Handlers{
		Health:   handler.NewHealthHandler(db),
		Auth:     handler.NewAuthHandler(accounts),
		Profile:  handler.NewProfileHandler(accounts),
		User:     handler.NewUserHandler(accounts),
		Favorite: handler.NewFavoriteHandler(favorites),
		Movie:    handler.NewMovieHandler(movies),
		TMDB:     handler.NewTMDBHandler(tmdb.NewClient("http://127.0.0.1:0", "", "", time.Second)),
		Audit:    handler.NewAuditHandler(audit),
	}))
	t.Cleanup(server.Close)

	return server, db
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func login(t *testing.T, serverURL string, username string, password string) string {
	t.Helper()

	resp := doJSON(t, http.MethodPost, serverURL+"/api/login", map[string]string{"username": username, "password": password}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.Data.AccessToken)

	return parsed.Data.AccessToken
}

func doJSON(t *testing.T, method string, url string, payload any, accessToken string) *http.Response {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}
