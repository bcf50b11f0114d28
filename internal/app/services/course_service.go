package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/validation"
)

// CourseService handles the course registry
type CourseService struct {
	store         repositories.Store
	notifications *NotificationService
	logger        zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(store repositories.Store, notifications *NotificationService, logger zerolog.Logger) *CourseService {
	return &CourseService{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// normalizePrerequisites trims codes and drops blanks and repeats, keeping order
func normalizePrerequisites(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func validateCourse(c *models.Course) error {
	switch {
	case c.CourseCode == "":
		return apperrors.NewValidationError("courseCode is required")
	case !validation.NewStringValidation(c.CourseCode).WithMaxLength(validation.CourseCodeMaxLength).Validate():
		return apperrors.NewValidationError("courseCode must be at most 50 characters")
	case c.Title == "":
		return apperrors.NewValidationError("title is required")
	case !validation.NewStringValidation(c.Title).WithMaxLength(validation.NameMaxLength).Validate():
		return apperrors.NewValidationError("title must be at most 255 characters")
	case c.Semester == "":
		return apperrors.NewValidationError("semester is required")
	case !validation.NewStringValidation(c.Semester).WithMaxLength(validation.SemesterMaxLength).Validate():
		return apperrors.NewValidationError("semester must be at most 50 characters")
	case c.TotalSeats < 1:
		return apperrors.NewValidationError("totalSeats must be at least 1")
	case c.AvailableSeats < 0 || c.AvailableSeats > c.TotalSeats:
		return apperrors.NewValidationError("availableSeats must be between 0 and totalSeats")
	}
	return nil
}

// CreateCourse registers a new course owned by course.InstructorID. All
// seats start available.
func (s *CourseService) CreateCourse(ctx context.Context, course *models.Course) (*models.Course, error) {
	course.CourseCode = strings.TrimSpace(course.CourseCode)
	course.Title = strings.TrimSpace(course.Title)
	course.Semester = strings.TrimSpace(course.Semester)
	course.Prerequisites = normalizePrerequisites(course.Prerequisites)
	course.AvailableSeats = course.TotalSeats

	if err := validateCourse(course); err != nil {
		return nil, err
	}

	instructor, err := s.store.Users().GetByID(ctx, course.InstructorID)
	if err != nil {
		return nil, err
	}
	if !instructor.IsInstructor() {
		return nil, apperrors.ErrNotInstructor
	}

	if err := s.store.Courses().Create(ctx, course); err != nil {
		if !apperrors.Is(err, apperrors.ErrCourseCodeExists) {
			s.logger.Error().Err(err).Str("courseCode", course.CourseCode).Msg("Failed to create course")
		}
		return nil, err
	}
	course.InstructorName = instructor.Name

	s.logger.Info().Int64("courseID", course.ID).Str("courseCode", course.CourseCode).Msg("Course created")
	return course, nil
}

// GetCourse returns a course by id
func (s *CourseService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	return s.store.Courses().GetByID(ctx, id)
}

// ListCourses returns courses ordered by course code
func (s *CourseService) ListCourses(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	filter.Semester = strings.TrimSpace(filter.Semester)
	return s.store.Courses().List(ctx, filter)
}

// ListCoursesByInstructor returns the courses taught by the instructor
func (s *CourseService) ListCoursesByInstructor(ctx context.Context, instructorID int64) ([]*models.Course, error) {
	if _, err := s.store.Users().GetByID(ctx, instructorID); err != nil {
		return nil, err
	}
	return s.store.Courses().List(ctx, models.CourseFilter{InstructorID: instructorID})
}

// applyCourseUpdate merges upd into c. When total seats change without an
// explicit available count, available shifts by the same amount so the
// number of allocated seats is kept.
func applyCourseUpdate(c *models.Course, upd models.CourseUpdate) error {
	if upd.CourseCode != nil {
		c.CourseCode = strings.TrimSpace(*upd.CourseCode)
	}
	if upd.Title != nil {
		c.Title = strings.TrimSpace(*upd.Title)
	}
	if upd.Semester != nil {
		c.Semester = strings.TrimSpace(*upd.Semester)
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.Prerequisites != nil {
		c.Prerequisites = normalizePrerequisites(upd.Prerequisites)
	}

	if upd.TotalSeats != nil {
		if *upd.TotalSeats < 1 {
			return apperrors.NewValidationError("totalSeats must be at least 1")
		}
		delta := *upd.TotalSeats - c.TotalSeats
		c.TotalSeats = *upd.TotalSeats
		if upd.AvailableSeats == nil {
			c.AvailableSeats += delta
			if c.AvailableSeats < 0 {
				return apperrors.ErrSeatsBelowAllocated
			}
		}
	}
	if upd.AvailableSeats != nil {
		c.AvailableSeats = *upd.AvailableSeats
	}

	return validateCourse(c)
}

// UpdateCourse applies a partial edit. An edit that takes a full course back
// to having seats alerts subscribers and pending applicants after the commit.
func (s *CourseService) UpdateCourse(ctx context.Context, id int64, upd models.CourseUpdate) (*models.Course, error) {
	var (
		updated  *models.Course
		reopened bool
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		course, err := tx.Courses().LockByID(ctx, id)
		if err != nil {
			return err
		}
		wasFull := course.IsFull()

		if err := applyCourseUpdate(course, upd); err != nil {
			return err
		}
		if err := tx.Courses().Update(ctx, course); err != nil {
			return err
		}

		updated = course
		reopened = wasFull && !course.IsFull()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("courseID", id).Msg("Course updated")

	if reopened {
		if _, err := s.notifications.NotifySeatAvailable(context.WithoutCancel(ctx), updated); err != nil {
			s.logger.Error().Err(err).Int64("courseID", id).Msg("Seat available fan-out finished with errors")
		}
	}
	return updated, nil
}

// DeleteCourse removes a course that has never had an enrollment request
// or a notification. Both kinds of record are permanent.
func (s *CourseService) DeleteCourse(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.Courses().LockByID(ctx, id); err != nil {
			return err
		}
		count, err := tx.Enrollments().CountByCourse(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count enrollments: %w", err)
		}
		if count > 0 {
			return apperrors.ErrCourseHasEnrollments
		}
		return tx.Courses().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info().Int64("courseID", id).Msg("Course deleted")
	return nil
}
