package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appModels "github.com/yigit/registrar/internal/app/models"
	appRepos "github.com/yigit/registrar/internal/app/repositories"
	appServices "github.com/yigit/registrar/internal/app/services"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/auth"
)

const demoSemester = "Fall 2024"

type demoUser struct {
	name         string
	email        string
	role         appModels.RoleType
	universityID string
	department   string
}

var demoUsers = []demoUser{
	{"Dr. Jamil Acad", "jamil@university.edu", appModels.RoleInstructor, "INS001", "Computer Science"},
	{"John Student", "john@university.edu", appModels.RoleStudent, "STU001", "Computer Science"},
	{"Sarah Student", "sarah@university.edu", appModels.RoleStudent, "STU002", "Engineering"},
}

type demoCourse struct {
	code           string
	title          string
	totalSeats     int
	availableSeats int
	prerequisites  []string
	description    string
	// students whose enrollment is approved at seed time
	approved []string
}

var demoCourses = []demoCourse{
	{"CS101", "Introduction to Computer Science", 30, 12, nil,
		"Fundamental concepts of computer science and programming.", []string{"sarah@university.edu"}},
	{"CS233", "Software Design Methods", 25, 0, []string{"CS101"},
		"Advanced software design patterns and methodologies.", nil},
	{"CS250", "Systems Analysis", 20, 5, []string{"CS101"},
		"Analysis and design of computer systems.", nil},
}

// CreateDefaultData creates the demo instructor, students and courses when
// they don't exist. Errors are collected so one failure doesn't stop the rest.
func CreateDefaultData(ctx context.Context, store appRepos.Store, svc *appServices.Services, password string, lgr zerolog.Logger) error {
	if password == "" {
		password = uuid.NewString()
		lgr.Warn().Str("password", password).Msg("No seed password configured, generated one for the demo accounts")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	lgr.Info().Msg("Checking/Creating default data (users/courses)...")
	var finalErr error

	users := make(map[string]*appModels.User, len(demoUsers))
	for _, du := range demoUsers {
		user, err := ensureUser(ctx, store, du, hash)
		if err != nil {
			lgr.Error().Err(err).Str("email", du.email).Msg("Error creating demo user")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		users[du.email] = user
	}

	instructor, ok := users[demoUsers[0].email]
	if !ok {
		return finalErr
	}

	for _, dc := range demoCourses {
		if err := ensureCourse(ctx, svc, instructor.ID, dc, users); err != nil {
			lgr.Error().Err(err).Str("courseCode", dc.code).Msg("Error creating demo course")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if finalErr == nil {
		lgr.Info().Int("users", len(demoUsers)).Int("courses", len(demoCourses)).Msg("Default data ready")
	}
	return finalErr
}

func ensureUser(ctx context.Context, store appRepos.Store, du demoUser, hash string) (*appModels.User, error) {
	existing, err := store.Users().GetByEmail(ctx, du.email)
	if err == nil {
		return existing, nil
	}
	if !apperrors.Is(err, apperrors.ErrResourceNotFound) {
		return nil, err
	}

	department := du.department
	user := &appModels.User{
		Name:         du.name,
		Email:        strings.ToLower(du.email),
		Password:     hash,
		RoleType:     du.role,
		UniversityID: du.universityID,
		Department:   &department,
	}
	if err := store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ensureCourse creates the course, approves its seeded enrollments and then
// sets the demo seat count. An existing course is left untouched.
func ensureCourse(ctx context.Context, svc *appServices.Services, instructorID int64, dc demoCourse, users map[string]*appModels.User) error {
	course, err := svc.Course.CreateCourse(ctx, &appModels.Course{
		CourseCode:    dc.code,
		Title:         dc.title,
		InstructorID:  instructorID,
		Semester:      demoSemester,
		TotalSeats:    dc.totalSeats,
		Prerequisites: dc.prerequisites,
		Description:   dc.description,
	})
	if apperrors.Is(err, apperrors.ErrCourseCodeExists) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, email := range dc.approved {
		student, ok := users[email]
		if !ok {
			continue
		}
		enrollment, err := svc.Enrollment.CreateEnrollment(ctx, student.ID, course.ID)
		if err != nil {
			return err
		}
		if _, err := svc.Enrollment.ApproveEnrollment(ctx, enrollment.ID); err != nil {
			return err
		}
	}

	available := dc.availableSeats
	_, err = svc.Course.UpdateCourse(ctx, course.ID, appModels.CourseUpdate{AvailableSeats: &available})
	return err
}
