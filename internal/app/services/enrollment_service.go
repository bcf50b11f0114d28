package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// EnrollmentService runs the enrollment ledger: requests, approvals and
// rejections with their seat effects.
type EnrollmentService struct {
	store         repositories.Store
	notifications *NotificationService
	logger        zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(store repositories.Store, notifications *NotificationService, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// CreateEnrollment files a pending request for the student. A student holds
// at most one record per course whatever its status, so a rejected student
// cannot apply again.
func (s *EnrollmentService) CreateEnrollment(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error) {
	student, err := s.store.Users().GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !student.IsStudent() {
		return nil, apperrors.ErrNotStudent
	}

	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID: studentID,
		CourseID:  courseID,
		Status:    models.EnrollmentPending,
	}
	if err := s.store.Enrollments().Create(ctx, enrollment); err != nil {
		if !apperrors.Is(err, apperrors.ErrEnrollmentExists, apperrors.ErrCourseNotFound) {
			s.logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Failed to create enrollment")
		}
		return nil, err
	}

	s.logger.Info().
		Int64("enrollmentID", enrollment.ID).
		Int64("studentID", studentID).
		Int64("courseID", courseID).
		Msg("Enrollment request created")
	return enrollment, nil
}

// GetByID returns one enrollment record
func (s *EnrollmentService) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return s.store.Enrollments().GetByID(ctx, id)
}

// ApproveEnrollment takes a seat and approves the request in one transaction,
// and leaves an approval alert for the student.
func (s *EnrollmentService) ApproveEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	var (
		approved *models.Enrollment
		alert    *models.Notification
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		enrollment, err := tx.Enrollments().LockByID(ctx, id)
		if err != nil {
			return err
		}

		switch enrollment.Status {
		case models.EnrollmentApproved:
			return apperrors.ErrEnrollmentAlreadyApproved
		case models.EnrollmentRejected:
			return apperrors.ErrInvalidStatusTransition
		}

		course, err := tx.Courses().DecrementSeat(ctx, enrollment.CourseID)
		if err != nil {
			return err
		}

		approved, err = tx.Enrollments().UpdateStatus(ctx, id, models.EnrollmentApproved)
		if err != nil {
			return err
		}

		alert = &models.Notification{
			StudentID: enrollment.StudentID,
			CourseID:  course.ID,
			Kind:      models.NotificationAlert,
			Message:   approvedMessage(course),
		}
		return tx.Notifications().Create(ctx, alert)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("enrollmentID", id).Int64("courseID", approved.CourseID).Msg("Enrollment approved")
	s.notifications.Publish(ctx, alert)
	return approved, nil
}

// RejectEnrollment rejects a request. Rejecting an approved record gives its
// seat back; when that reopens a full course, subscribers and pending
// applicants are alerted after the commit. Rejecting twice is a no-op.
func (s *EnrollmentService) RejectEnrollment(ctx context.Context, id int64) (*models.Enrollment, error) {
	var (
		rejected *models.Enrollment
		reopened *models.Course
	)

	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		enrollment, err := tx.Enrollments().LockByID(ctx, id)
		if err != nil {
			return err
		}

		switch enrollment.Status {
		case models.EnrollmentRejected:
			rejected = enrollment
			return nil
		case models.EnrollmentApproved:
			course, err := tx.Courses().IncrementSeat(ctx, enrollment.CourseID)
			switch {
			case apperrors.Is(err, apperrors.ErrSeatCapacityReached):
				// Counter already at capacity after a manual seat edit
				s.logger.Warn().Int64("enrollmentID", id).Int64("courseID", enrollment.CourseID).
					Msg("Seat not returned on rejection, course already at capacity")
			case err != nil:
				return err
			case course.AvailableSeats == 1:
				reopened = course
			}
		}

		rejected, err = tx.Enrollments().UpdateStatus(ctx, id, models.EnrollmentRejected)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("enrollmentID", id).Int64("courseID", rejected.CourseID).Msg("Enrollment rejected")

	if reopened != nil {
		s.announceReopened(ctx, reopened)
	}
	return rejected, nil
}

// announceReopened runs the fan-out outside the request's cancellation: the
// seat change is committed and the alerts must follow it.
func (s *EnrollmentService) announceReopened(ctx context.Context, course *models.Course) {
	if _, err := s.notifications.NotifySeatAvailable(context.WithoutCancel(ctx), course); err != nil {
		s.logger.Error().Err(err).Int64("courseID", course.ID).Msg("Seat available fan-out finished with errors")
	}
}

// UpdateStatus dispatches a status change to approve or reject
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	switch status {
	case models.EnrollmentApproved:
		return s.ApproveEnrollment(ctx, id)
	case models.EnrollmentRejected:
		return s.RejectEnrollment(ctx, id)
	case models.EnrollmentPending:
		return nil, apperrors.NewValidationError("an enrollment cannot be moved back to pending")
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown enrollment status %q", status))
	}
}

// ListEnrollmentsByCourse returns the course's requests, newest first
func (s *EnrollmentService) ListEnrollmentsByCourse(ctx context.Context, courseID int64) ([]*models.EnrollmentDetail, error) {
	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.Enrollments().ListByCourse(ctx, courseID)
}

// ListEnrollmentsByStudent returns the student's requests, newest first
func (s *EnrollmentService) ListEnrollmentsByStudent(ctx context.Context, studentID int64) ([]*models.EnrollmentDetail, error) {
	if _, err := s.store.Users().GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.store.Enrollments().ListByStudent(ctx, studentID)
}
