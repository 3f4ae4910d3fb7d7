package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserSnapshot `json:"user"`
}

// Principal is the caller of one request. TokenID is uuid.Nil for session callers.
type Principal struct {
	User    *model.User
	TokenID uuid.UUID
}

// AuthConfig configures bearer token issuance.
type AuthConfig struct {
	Secret    []byte
	Issuer    string
	TTL       time.Duration // 0 issues tokens without expiry
	TokenName string
}

// AuthService issues, validates and revokes bearer credentials.
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Authenticate(ctx context.Context, bearer string) (*Principal, error)
	UserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	Logout(ctx context.Context, tokenID uuid.UUID) error
	PruneExpired(ctx context.Context) (int64, error)
}

type authService struct {
	users  repository.UserRepository
	tokens repository.AccessTokenRepository
	hasher PasswordHasher
	cfg    AuthConfig
	now    func() time.Time

	// compared against when the email is unknown so both paths cost one bcrypt run
	dummyHash string
}

// NewAuthService returns a new instance of AuthService
func NewAuthService(repos repository.Repositories, hasher PasswordHasher, cfg AuthConfig) (AuthService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("auth: token secret is required")
	}
	if cfg.TokenName == "" {
		cfg.TokenName = "auth-token"
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &authService{
		users:     repos.Users,
		tokens:    repos.AccessTokens,
		hasher:    hasher,
		cfg:       cfg,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.Compare(s.dummyHash, req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Compare(user.Password, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: Snapshot(user)}, nil
}

// issue stores a new access token row and signs a JWT whose jti is the row id.
func (s *authService) issue(ctx context.Context, userID uuid.UUID) (string, error) {
	now := s.now().UTC()
	row := &model.AccessToken{
		ID:     uuid.New(),
		UserID: userID,
		Name:   s.cfg.TokenName,
	}
	claims := jwt.RegisteredClaims{
		ID:       row.ID.String(),
		Subject:  userID.String(),
		Issuer:   s.cfg.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.cfg.TTL > 0 {
		exp := now.Add(s.cfg.TTL)
		row.ExpiresAt = &exp
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	if err := s.tokens.Create(ctx, row); err != nil {
		return "", err
	}
	return signed, nil
}

func (s *authService) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(bearer, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	row, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	now := s.now()
	if row.Expired(now) || row.UserID.String() != claims.Subject {
		return nil, ErrUnauthenticated
	}

	user, err := s.UserByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Touch(ctx, row.ID, now.UTC()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return &Principal{User: user, TokenID: row.ID}, nil
}

// UserByID loads a user with grants. A missing user means the credential is stale.
func (s *authService) UserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) Logout(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.tokens.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	return nil
}

func (s *authService) PruneExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, s.now().UTC())
}
