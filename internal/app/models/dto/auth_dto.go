package dto

import "github.com/yigit/registrar/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@university.edu"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Name         string  `json:"name" binding:"required,max=255" example:"Ada Lovelace"`
	Email        string  `json:"email" binding:"required,email" example:"ada@university.edu"`
	Password     string  `json:"password" binding:"required,min=8,max=72" example:"s3cretpass"`
	Role         string  `json:"role" binding:"required,oneof=student instructor" example:"student"`
	UniversityID string  `json:"universityId" binding:"required,max=50" example:"STU001"`
	Department   *string `json:"department,omitempty" binding:"omitempty,max=255" example:"Computer Science"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int    `json:"expiresIn" example:"86400"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID           int64   `json:"id" example:"1"`
	Name         string  `json:"name" example:"Ada Lovelace"`
	Email        string  `json:"email" example:"ada@university.edu"`
	Role         string  `json:"role" example:"student"`
	UniversityID string  `json:"universityId" example:"STU001"`
	Department   *string `json:"department,omitempty" example:"Computer Science"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserResponse  `json:"user"`
}

// NewUserResponse maps a user to its public representation
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.RoleType),
		UniversityID: u.UniversityID,
		Department:   u.Department,
	}
}
