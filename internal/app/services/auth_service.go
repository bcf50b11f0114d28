package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/auth"
	"github.com/yigit/registrar/internal/pkg/validation"
)

// AuthService handles registration, login and profile lookups
type AuthService struct {
	store      repositories.Store
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(store repositories.Store, jwtService *auth.JWTService, logger zerolog.Logger) *AuthService {
	return &AuthService{
		store:      store,
		jwtService: jwtService,
		logger:     logger,
	}
}

// validateEmail validates an already lower-cased email address
func (s *AuthService) validateEmail(email string) error {
	if email == "" {
		return apperrors.NewValidationError("email cannot be empty")
	}
	if !validation.NewStringValidation(email).WithPattern(validation.CompiledPatterns.Email).Validate() {
		return apperrors.NewValidationError("invalid email format")
	}
	return nil
}

// validatePassword checks if password meets requirements
func (s *AuthService) validatePassword(password string) error {
	if err := validation.CheckPassword(password); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// Register creates a user account and signs the user in
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := s.validatePassword(req.Password); err != nil {
		return nil, err
	}

	role := models.RoleType(req.Role)
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("role must be student or instructor")
	}

	name := strings.TrimSpace(req.Name)
	universityID := strings.TrimSpace(req.UniversityID)
	if !validation.NewStringValidation(name).WithMaxLength(validation.NameMaxLength).Validate() {
		return nil, apperrors.NewValidationError("name is required and must be at most 255 characters")
	}
	if !validation.NewStringValidation(universityID).WithMaxLength(validation.UniversityIDMaxLength).Validate() {
		return nil, apperrors.NewValidationError("universityId is required and must be at most 50 characters")
	}

	var department *string
	if req.Department != nil {
		if d := strings.TrimSpace(*req.Department); d != "" {
			department = &d
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		Password:     hash,
		RoleType:     role,
		UniversityID: universityID,
		Department:   department,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if !apperrors.Is(err, apperrors.ErrEmailAlreadyExists) {
			s.logger.Error().Err(err).Str("email", email).Msg("Failed to create user")
		}
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User registered")
	return s.issue(user)
}

// Login verifies credentials and returns an access token. Unknown emails and
// wrong passwords give the same error.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Warn().Int64("userID", user.ID).Msg("Failed login attempt")
		return nil, apperrors.ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetProfile returns the public profile of a user
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := dto.NewUserResponse(user)
	return &profile, nil
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresIn, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", user.ID).Msg("Failed to generate access token")
		return nil, err
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   expiresIn,
		},
		User: dto.NewUserResponse(user),
	}, nil
}
