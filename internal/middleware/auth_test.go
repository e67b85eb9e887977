package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-movie-catalog/internal/model"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(token string) (*model.AuthClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*model.AuthClaims)
	return claims, args.Error(1)
}

func okHandler(t *testing.T, wantRole string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, wantRole, claims.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	t.Run("missing header is 401 without calling verifier", func(t *testing.T) {
		verifier := &mockVerifier{}
		mw := NewAuthMiddleware(verifier)

		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/user/info", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
		verifier.AssertNotCalled(t, "Verify", mock.Anything)
	})

	t.Run("non bearer scheme is 401", func(t *testing.T) {
		verifier := &mockVerifier{}
		mw := NewAuthMiddleware(verifier)

		req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(t, "")).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		verifier.AssertNotCalled(t, "Verify", mock.Anything)
	})

	t.Run("rejected token is 401", func(t *testing.T) {
		verifier := &mockVerifier{}
		verifier.On("Verify", "expired").Return(nil, model.ErrTokenExpired).Once()
		mw := NewAuthMiddleware(verifier)

		req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(t, "")).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid or expired token")
		verifier.AssertExpectations(t)
	})

	t.Run("valid token passes claims downstream", func(t *testing.T) {
		verifier := &mockVerifier{}
		verifier.On("Verify", "good").Return(&model.AuthClaims{UserID: 7, Username: "alice", Role: model.RoleUser}, nil).Once()
		mw := NewAuthMiddleware(verifier)

		req := httptest.NewRequest(http.MethodGet, "/api/user/info", nil)
		req.Header.Set("Authorization", "bearer good")
		rec := httptest.NewRecorder()
		mw.RequireAuth(okHandler(t, model.RoleUser)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		verifier.AssertExpectations(t)
	})
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	verifier := &mockVerifier{}
	verifier.On("Verify", "user-token").Return(&model.AuthClaims{UserID: 2, Username: "alice", Role: model.RoleUser}, nil)
	verifier.On("Verify", "admin-token").Return(&model.AuthClaims{UserID: 1, Username: "root", Role: model.RoleAdmin}, nil)
	mw := NewAuthMiddleware(verifier)

	gated := mw.RequireAuth(mw.RequireRoles(model.RoleAdmin)(okHandler(t, model.RoleAdmin)))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "no token", header: "", status: http.StatusUnauthorized},
		{name: "user role", header: "Bearer user-token", status: http.StatusForbidden},
		{name: "admin role", header: "Bearer admin-token", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			gated.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("without RequireAuth is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mw.RequireRoles(model.RoleAdmin)(okHandler(t, "")).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestClaimsFromContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	require.False(t, ok)

	ctx := WithClaims(context.Background(), &model.AuthClaims{UserID: 3})
	claims, ok := ClaimsFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, int64(3), claims.UserID)
}
