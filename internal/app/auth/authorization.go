package auth

import (
	"context"
	"fmt"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/logger"
)

// Ownership errors returned by the Validate* helpers
var (
	ErrNotCourseOwner      = apperrors.NewForbiddenError("only the course instructor can perform this action")
	ErrNotOwnStudentRecord = apperrors.NewForbiddenError("students can only access their own records")
	ErrNotOwnNotification  = apperrors.NewForbiddenError("notification belongs to another student")
)

// AuthorizationService answers role and ownership questions against the store
type AuthorizationService struct {
	store repositories.Store
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(store repositories.Store) *AuthorizationService {
	return &AuthorizationService{store: store}
}

// GetUserInfo returns user information
func (s *AuthorizationService) GetUserInfo(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error getting user by ID in GetUserInfo")
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	return user, nil
}

// CanManageCourse reports whether the user is the instructor of the course
func (s *AuthorizationService) CanManageCourse(ctx context.Context, courseID, userID int64) (bool, error) {
	course, err := s.store.Courses().GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	return course.InstructorID == userID, nil
}

// ValidateCourseOwnership validates if the user owns the course or returns an error
func (s *AuthorizationService) ValidateCourseOwnership(ctx context.Context, courseID, userID int64) error {
	ok, err := s.CanManageCourse(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotCourseOwner
	}
	return nil
}

// ValidateEnrollmentOwnership checks that the user instructs the course the
// enrollment belongs to.
func (s *AuthorizationService) ValidateEnrollmentOwnership(ctx context.Context, enrollmentID, userID int64) error {
	enrollment, err := s.store.Enrollments().GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}
	return s.ValidateCourseOwnership(ctx, enrollment.CourseID, userID)
}

// ValidateStudentAccess lets students read only their own records.
// Instructors may read any student's records.
func (s *AuthorizationService) ValidateStudentAccess(ctx context.Context, studentID, userID int64) error {
	if studentID == userID {
		return nil
	}
	user, err := s.GetUserInfo(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsInstructor() {
		return nil
	}
	return ErrNotOwnStudentRecord
}

// ValidateNotificationOwnership checks that the notification belongs to the user
func (s *AuthorizationService) ValidateNotificationOwnership(ctx context.Context, notificationID, userID int64) error {
	n, err := s.store.Notifications().GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.StudentID != userID {
		return ErrNotOwnNotification
	}
	return nil
}
