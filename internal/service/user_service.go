package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/byterize/byterize-backend/internal/apperr"
	"github.com/byterize/byterize-backend/internal/auth"
	"github.com/byterize/byterize-backend/internal/models"
	"github.com/byterize/byterize-backend/internal/repository"
)

// UserService handles registration, credential verification and approval.
type UserService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, tokens *auth.TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		logger: logger.With("component", "user-service"),
	}
}

// Register creates an account. Passwords are stored as bcrypt hashes only.
// Admin registrations are auto-approved; customers wait for an admin.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if err := ValidateRegisterRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleCustomer
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           newID("usr"),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Approved:     role == models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role, "approved", user.Approved)
	return user, nil
}

// Login verifies the submitted secret against the stored hash and mints a
// token. Unknown emails and wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	if !user.Approved {
		return nil, apperr.ErrNotApproved
	}

	token, err := s.tokens.Mint(user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", "user_id", user.ID, "role", user.Role)
	return &models.LoginResponse{
		Token:    token,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		Approved: true,
	}, nil
}

// List returns all accounts. The password hash is excluded at the
// serialization layer.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// Approve marks an account as approved for login.
func (s *UserService) Approve(ctx context.Context, email string) error {
	matched, err := s.users.Approve(ctx, email, time.Now().UTC())
	if err != nil {
		return err
	}
	if matched == 0 {
		return apperr.ErrNotFound
	}

	s.logger.Info("User approved", "email", email)
	return nil
}
