package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mesubash/library-management-system-sub000/internal/users"
	"github.com/mesubash/library-management-system-sub000/pkg/auth"
	"github.com/mesubash/library-management-system-sub000/pkg/auth/session"
	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/security"
)

// Service issues and revokes credentials for library accounts.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*users.UserView, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	repo        users.Repository
	sessions    sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
	now         func() time.Time
}

// NewService wires the auth service.
func NewService(
	repo users.Repository,
	sessions sessionManager,
	jwtCfg config.JWTConfig,
	passwordCfg config.PasswordConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		logg:        logg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*users.UserView, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return nil, errors.New(errors.CodeValidation, "name, email, and password are required")
	}
	if len(input.Password) < 8 {
		return nil, errors.New(errors.CodeValidation, "password must be at least 8 characters")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "checking email")
	}
	if existing != nil {
		return nil, errors.New(errors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "hashing password")
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleMember,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		if db.IsUniqueViolation(err, "email") {
			return nil, errors.New(errors.CodeConflict, "email already registered")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating user")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "account registered")
	view := users.FromModel(user)
	return &view, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, errors.New(errors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil || !user.IsActive {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	match, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "verifying password")
	}
	if !match {
		return nil, errors.New(errors.CodeUnauthorized, "invalid credentials")
	}

	pair, err := s.issueTokens(ctx, *user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "recording last login failed")
	}

	s.logg.Info(s.logg.WithUserID(ctx, user.ID.String()), "login succeeded")
	return pair, nil
}

func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPair, error) {
	claims, err := auth.ParseAccessTokenAllowExpired(s.jwtCfg, input.AccessToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		return nil, errors.New(errors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading user")
	}
	if user == nil || !user.IsActive {
		return nil, errors.New(errors.CodeUnauthorized, "account unavailable")
	}

	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "minting access token")
	}

	return &TokenPair{
		AccessToken:  token,
		RefreshToken: newRefresh,
		User:         users.FromModel(*user),
	}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return errors.New(errors.CodeValidation, "access id is required")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return errors.Wrap(errors.CodeInternal, err, "revoking session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, user models.User) (*TokenPair, error) {
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "minting access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating session")
	}

	return &TokenPair{
		AccessToken:  token,
		RefreshToken: refresh,
		User:         users.FromModel(user),
	}, nil
}
