package seed

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appModels "github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/models/dto"
	"github.com/yigit/registrar/internal/app/repositories/memory"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

func newServices(t *testing.T) (*memory.Store, *appServices.Services) {
	t.Helper()
	auth.BcryptCost = bcrypt.MinCost
	store := memory.New()
	jwtService := auth.NewJWTService(auth.JWTConfig{SecretKey: "seed-test", AccessTokenExp: time.Hour, TokenIssuer: "registrar"})
	return store, appServices.NewServices(store, jwtService, appServices.Options{FanoutConcurrency: 2}, zerolog.Nop())
}

func TestCreateDefaultData(t *testing.T) {
	ctx := context.Background()
	store, svc := newServices(t)

	require.NoError(t, CreateDefaultData(ctx, store, svc, "demo1234", zerolog.Nop()))

	courses, err := svc.Course.ListCourses(ctx, appModels.CourseFilter{})
	require.NoError(t, err)
	require.Len(t, courses, 3)

	seats := map[string]int{}
	for _, c := range courses {
		seats[c.CourseCode] = c.AvailableSeats
		assert.Equal(t, "Dr. Jamil Acad", c.InstructorName)
	}
	assert.Equal(t, map[string]int{"CS101": 12, "CS233": 0, "CS250": 5}, seats)

	sarah, err := store.Users().GetByEmail(ctx, "sarah@university.edu")
	require.NoError(t, err)
	enrollments, err := svc.Enrollment.ListEnrollmentsByStudent(ctx, sarah.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, appModels.EnrollmentApproved, enrollments[0].Status)
	assert.Equal(t, "CS101", enrollments[0].CourseCode)

	login, err := svc.Auth.Login(ctx, &dto.LoginRequest{Email: "john@university.edu", Password: "demo1234"})
	require.NoError(t, err)
	assert.Equal(t, "student", login.User.Role)

	t.Run("second run changes nothing", func(t *testing.T) {
		require.NoError(t, CreateDefaultData(ctx, store, svc, "other5678", zerolog.Nop()))

		again, err := svc.Course.ListCourses(ctx, appModels.CourseFilter{})
		require.NoError(t, err)
		assert.Len(t, again, 3)

		_, err = svc.Auth.Login(ctx, &dto.LoginRequest{Email: "john@university.edu", Password: "demo1234"})
		assert.NoError(t, err, "existing accounts keep their password")
	})
}

func TestCreateDefaultData_GeneratesPassword(t *testing.T) {
	ctx := context.Background()
	store, svc := newServices(t)

	require.NoError(t, CreateDefaultData(ctx, store, svc, "", zerolog.Nop()))

	_, err := store.Users().GetByEmail(ctx, "jamil@university.edu")
	assert.NoError(t, err)
}
