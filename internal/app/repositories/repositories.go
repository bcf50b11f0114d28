package repositories

import (
	"context"

	"github.com/yigit/registrar/internal/app/models"
)

// UserRepository stores user accounts.
type UserRepository interface {
	// Create inserts the user and fills ID and timestamps.
	// Returns apperrors.ErrEmailAlreadyExists on a duplicate email.
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// CourseRepository stores courses and owns the seat counters.
type CourseRepository interface {
	// Create inserts the course and fills ID and timestamps.
	// Returns apperrors.ErrCourseCodeExists on a duplicate course code.
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	// LockByID reads the course and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error)
	// Update writes every mutable column of the course.
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
	// DecrementSeat takes one seat if any is left, as a single conditional
	// update. Returns apperrors.ErrNoSeatsAvailable when the course is full.
	DecrementSeat(ctx context.Context, id int64) (*models.Course, error)
	// IncrementSeat gives one seat back unless available already equals
	// total, in which case apperrors.ErrSeatCapacityReached is returned.
	IncrementSeat(ctx context.Context, id int64) (*models.Course, error)
}

// EnrollmentRepository stores the enrollment ledger.
type EnrollmentRepository interface {
	// Create inserts a new record. The (student, course) pair is unique
	// regardless of status; a duplicate yields apperrors.ErrEnrollmentExists.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id int64) (*models.Enrollment, error)
	LockByID(ctx context.Context, id int64) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error)
	// ListByCourse and ListByStudent order by submission time, newest first.
	ListByCourse(ctx context.Context, courseID int64) ([]*models.EnrollmentDetail, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.EnrollmentDetail, error)
	PendingStudentIDs(ctx context.Context, courseID int64) ([]int64, error)
	CountByCourse(ctx context.Context, courseID int64) (int, error)
}

// NotificationRepository stores alerts and subscription markers.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// CreateSubscription inserts a subscription marker unless an active one
	// exists for the same (student, course), as one atomic step.
	// Returns apperrors.ErrAlreadySubscribed otherwise.
	CreateSubscription(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	// ListAlertsByStudent never returns subscription markers.
	ListAlertsByStudent(ctx context.Context, studentID int64) ([]*models.NotificationDetail, error)
	CountUnreadAlerts(ctx context.Context, studentID int64) (int, error)
	// MarkAsRead flips an alert to read. Subscription markers are not
	// addressable here and report apperrors.ErrNotificationNotFound.
	MarkAsRead(ctx context.Context, id int64) (*models.Notification, error)
	DeactivateSubscription(ctx context.Context, studentID, courseID int64) error
	ActiveSubscriberIDs(ctx context.Context, courseID int64) ([]int64, error)
}

// Store is the storage port. Adapters live in the memory and postgres
// subpackages.
type Store interface {
	Users() UserRepository
	Courses() CourseRepository
	Enrollments() EnrollmentRepository
	Notifications() NotificationRepository

	// WithTx runs fn against a transactional view of the store. Changes are
	// committed when fn returns nil and discarded otherwise. Calling WithTx on
	// the view passed to fn reuses the same transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close()
}
