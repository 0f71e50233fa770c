package services

import (
	"errors"
	"fmt"
	"strings"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// --- Auth DTOs ---

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterUserRequest struct {
	Username string  `json:"username" binding:"required,min=3"`
	Password string  `json:"password" binding:"required,min=8"`
	Email    *string `json:"email" binding:"omitempty,email"`
	FullName *string `json:"full_name"`
	Role     string  `json:"role"` // Admin or Staff; defaults to Staff
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// AuthService handles registration, login and token refresh.
type AuthService interface {
	RegisterUser(req RegisterUserRequest) (*models.User, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)
	RefreshTokens(req RefreshTokenRequest) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

type authService struct {
	store repositories.Store
}

func NewAuthService(store repositories.Store) AuthService {
	return &authService{store: store}
}

func (s *authService) RegisterUser(req RegisterUserRequest) (*models.User, error) {
	role := req.Role
	switch role {
	case "":
		role = models.RoleStaff
	case models.RoleAdmin, models.RoleStaff:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    req.Email,
		FullName: req.FullName,
		Role:     role,
	}
	userID, err := s.store.Users().CreateUser(user, string(hashedPasswordBytes))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrUserAlreadyExists, user.Username)
		}
		return nil, err
	}
	user.ID = userID
	user.IsActive = true
	return user, nil
}

func (s *authService) LoginUser(req LoginRequest) (*AuthResponse, error) {
	user, hashedPassword, err := s.store.Users().FindUserByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(user)
}

// RefreshTokens exchanges a valid refresh token for a fresh token pair. The
// user is re-read so role changes and deactivation take effect immediately.
func (s *authService) RefreshTokens(req RefreshTokenRequest) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.store.Users().FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return s.issueTokens(user)
}

func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.store.Users().FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
