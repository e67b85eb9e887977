package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-movie-catalog/internal/model"
	"go-movie-catalog/pkg/apierror"
)

// bcrypt only looks at the first 72 bytes of its input.
const maxPasswordBytes = 72

// AccountService owns the credential store: registration, login, profile
// changes and the admin user operations.
type AccountService struct {
	users      UserStore
	tokens     *TokenService
	audit      *AuditService
	bcryptCost int
	dummyHash  []byte
}

func NewAccountService(users UserStore, tokens *TokenService, audit *AuditService, bcryptCost int) (*AccountService, error) {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
	}

	// Compared against when the username is unknown so both login failure
	// paths spend the same hashing time.
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("movie-catalog-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AccountService{
		users:      users,
		tokens:     tokens,
		audit:      audit,
		bcryptCost: bcryptCost,
		dummyHash:  dummyHash,
	}, nil
}

func (s *AccountService) Register(ctx context.Context, username string, password string) (model.AuthUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.AuthUser{}, apierror.BadRequest("username and password are required", "")
	}

	user, err := s.createUser(ctx, username, password, model.RoleUser)
	if err != nil {
		return model.AuthUser{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user.Public(), nil
}

// Authenticate never tells an unknown username apart from a wrong password.
func (s *AccountService) Authenticate(ctx context.Context, username string, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, apierror.BadRequest("username and password are required", "")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return model.User{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, model.ErrInvalidCredentials
	}

	return user, nil
}

func (s *AccountService) Login(ctx context.Context, username string, password string) (model.LoginResult, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return model.LoginResult{}, err
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user.Public(),
	}, nil
}

func (s *AccountService) GetUser(ctx context.Context, id int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

// UpdateProfile changes the caller's own username and/or password. The new
// username is not pre-checked for uniqueness; a collision is rejected by the
// storage constraint and reported as a conflict.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, username *string, password *string) (model.AuthUser, error) {
	var newUsername string
	if username != nil {
		newUsername = strings.TrimSpace(*username)
	}
	var newPassword string
	if password != nil {
		newPassword = *password
	}

	if newUsername == "" && newPassword == "" {
		return model.AuthUser{}, apierror.BadRequest("username or password is required", "")
	}

	var hash string
	if newPassword != "" {
		var err error
		if hash, err = s.hashPassword(newPassword); err != nil {
			return model.AuthUser{}, err
		}
	}

	if newUsername != "" {
		if err := s.users.UpdateUsername(ctx, userID, newUsername); err != nil {
			return model.AuthUser{}, err
		}
	}

	if hash != "" {
		if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
			return model.AuthUser{}, err
		}
	}

	return s.GetUser(ctx, userID)
}

func (s *AccountService) ListUsers(ctx context.Context, search string) ([]model.AuthUser, error) {
	return s.users.List(ctx, search)
}

func (s *AccountService) UpdateRole(ctx context.Context, actor model.AuditActor, userID int64, role string) (model.AuthUser, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !model.ValidRole(role) {
		return model.AuthUser{}, apierror.BadRequest("invalid role", role)
	}

	before, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}

	resource := userResource(userID)
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		s.audit.Log(ctx, model.AuditActionUserRoleUpdate, actor, model.AuditStatusFailure, resource, before.Public(), nil, err.Error())
		return model.AuthUser{}, err
	}

	after := before.Public()
	after.Role = role
	s.audit.Log(ctx, model.AuditActionUserRoleUpdate, actor, model.AuditStatusSuccess, resource, before.Public(), after, "")
	return after, nil
}

func (s *AccountService) DeleteUser(ctx context.Context, actor model.AuditActor, userID int64) error {
	if userID == actor.UserID {
		return apierror.BadRequest("administrators cannot delete their own account", "")
	}

	before, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	resource := userResource(userID)
	if err := s.users.Delete(ctx, userID); err != nil {
		s.audit.Log(ctx, model.AuditActionUserDelete, actor, model.AuditStatusFailure, resource, before.Public(), nil, err.Error())
		return err
	}

	s.audit.Log(ctx, model.AuditActionUserDelete, actor, model.AuditStatusSuccess, resource, before.Public(), nil, "")
	return nil
}

// EnsureAdmin creates the bootstrap administrator when it does not exist yet.
// An existing account with that username is left untouched.
func (s *AccountService) EnsureAdmin(ctx context.Context, username string, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	user, err := s.createUser(ctx, username, password, model.RoleAdmin)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "bootstrap admin created", "user_id", user.ID, "username", user.Username)
	return nil
}

func (s *AccountService) createUser(ctx context.Context, username string, password string, role string) (model.User, error) {
	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, apierror.Conflict("username already exists", username)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	return s.users.Create(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *AccountService) hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", apierror.BadRequest("password is too long", fmt.Sprintf("at most %d bytes", maxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func userResource(id int64) string {
	return "users/" + strconv.FormatInt(id, 10)
}
