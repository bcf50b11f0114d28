package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

func registerRequest(email, password, role string) *dto.RegisterRequest {
	return &dto.RegisterRequest{
		Name:         "Alice Student",
		Email:        email,
		Password:     password,
		Role:         role,
		UniversityID: "STU001",
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	resp, err := f.svc.Auth.Register(ctx, registerRequest("  Alice@Uni.EDU ", "secret123", "student"))
	require.NoError(t, err)
	assert.Equal(t, "alice@uni.edu", resp.User.Email)
	assert.Equal(t, "student", resp.User.Role)
	assert.Equal(t, "Bearer", resp.Token.TokenType)
	assert.Positive(t, resp.Token.ExpiresIn)

	claims, err := f.jwt.ValidateToken(resp.Token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, string(models.RoleStudent), claims.RoleType)

	stored, err := f.store.Users().GetByID(ctx, resp.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password, "passwords are stored hashed")

	tests := []struct {
		name    string
		req     *dto.RegisterRequest
		wantErr error
	}{
		{"duplicate email in other case", registerRequest("ALICE@uni.edu", "secret123", "student"), apperrors.ErrEmailAlreadyExists},
		{"bad email", registerRequest("not-an-email", "secret123", "student"), apperrors.ErrValidationFailed},
		{"short password", registerRequest("bob@uni.edu", "s3cret", "student"), apperrors.ErrValidationFailed},
		{"password without digit", registerRequest("bob@uni.edu", "secretpassword", "student"), apperrors.ErrValidationFailed},
		{"password without letter", registerRequest("bob@uni.edu", "12345678", "student"), apperrors.ErrValidationFailed},
		{"unknown role", registerRequest("bob@uni.edu", "secret123", "admin"), apperrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.Register(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	registered, err := f.svc.Auth.Register(ctx, registerRequest("prof@uni.edu", "teach1234", "instructor"))
	require.NoError(t, err)

	resp, err := f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "Prof@Uni.edu", Password: "teach1234"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.Equal(t, "instructor", resp.User.Role)

	_, err = f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "prof@uni.edu", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "nobody@uni.edu", Password: "teach1234"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Auth.Login(ctx, &dto.LoginRequest{Email: "prof@uni.edu", Password: "password123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials, "no shared fallback password is accepted")
}

func TestGetProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.student(t, "Alice")

	profile, err := f.svc.Auth.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, profile.Email)
	assert.Equal(t, "Alice", profile.Name)

	_, err = f.svc.Auth.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
