package service

import (
	"context"
	stderrors "errors"
	"strings"

	"aura/backend/internal/models"
	"aura/backend/internal/repository"
	"aura/backend/pkg/errors"
	"aura/backend/pkg/jwt"
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(userID, email string, role jwt.Role) (string, error)
}

// UserService handles user-related operations
type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

// NewUserService creates a new user service
func NewUserService(users repository.UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register creates an account and signs a token for it
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return nil, errors.NewValidationError("A valid email and a password of at least 8 characters are required")
	}

	hash, err := models.HashPassword(req.Password)
	if err != nil {
		return nil, errors.NewInternalServerError("Failed to create user account").Wrap(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         string(jwt.RoleUser),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError("A user with this email already exists")
		}
		return nil, errors.NewStorageError("Failed to create user account", err)
	}

	return s.issue(user)
}

// Login checks the credentials and signs a token
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if err != nil {
		return nil, errors.NewStorageError("An error occurred during login", err)
	}

	if !models.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	return s.issue(user)
}

// GetByID returns the account of the authenticated caller
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, errors.NewStorageError("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *UserService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user.ID, user.Email, jwt.Role(user.Role))
	if err != nil {
		return nil, errors.NewInternalServerError("Failed to sign token").Wrap(err)
	}
	return &models.AuthResponse{User: user, Token: token}, nil
}
