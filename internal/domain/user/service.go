package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/hospital"
	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

// TokenIssuer mints bearer tokens at login.
type TokenIssuer interface {
	Issue(userID, username, role, hospitalID string) (string, error)
}

// HospitalDirectory resolves hospitals during hospital-admin signup.
type HospitalDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// ErrInvalidCredentials covers both unknown username and wrong password so
// login failures don't leak which one it was.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	repo      Repository
	hospitals HospitalDirectory
	tokens    TokenIssuer
	logger    zerolog.Logger
}

func NewService(repo Repository, hospitals HospitalDirectory, tokens TokenIssuer, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hospitals: hospitals,
		tokens:    tokens,
		logger:    logger.With().Str("component", "user").Logger(),
	}
}

// Signup registers an account. A hospital-admin signup must name an existing
// hospital that nobody administers yet.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*User, error) {
	if req.Username == "" || req.Email == "" {
		return nil, fmt.Errorf("username and email are required")
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("password must be at least 6 characters")
	}
	role := req.Role
	if role == "" {
		role = auth.RoleUser
	}
	if role != auth.RoleUser && role != auth.RoleHospital {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered")
	}

	u := &User{
		Username: req.Username,
		Email:    req.Email,
		Role:     role,
	}

	if role == auth.RoleHospital {
		hospitalID, err := uuid.Parse(req.HospitalID)
		if err != nil {
			return nil, fmt.Errorf("hospitalId is required for hospital accounts")
		}
		if _, err := s.hospitals.GetByID(ctx, hospitalID); err != nil {
			return nil, fmt.Errorf("hospital not found")
		}
		taken, err := s.repo.HospitalHasAdmin(ctx, hospitalID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("hospital already has an admin account")
		}
		u.HospitalID = &hospitalID
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", u.Username).Str("role", u.Role).Msg("account created")
	return u, nil
}

// Login checks credentials and mints a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	hospitalID := ""
	if u.HospitalID != nil {
		hospitalID = u.HospitalID.String()
	}
	token, err := s.tokens.Issue(u.ID.String(), u.Username, u.Role, hospitalID)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: u}, nil
}

// Get returns one account by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}
