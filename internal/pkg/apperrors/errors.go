package apperrors

import "errors"

// Error kinds. Every domain error below wraps exactly one of these so the
// HTTP boundary can map it without knowing the domain.
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// User errors
var (
	ErrUserNotFound       = NewResourceNotFoundError("user not found")
	ErrEmailAlreadyExists = NewAlreadyExistsError("email already exists")
	ErrNotStudent         = NewForbiddenError("only students can perform this action")
	ErrNotInstructor      = NewForbiddenError("only instructors can perform this action")
)

// Course errors
var (
	ErrCourseNotFound         = NewResourceNotFoundError("course not found")
	ErrCourseCodeExists       = NewAlreadyExistsError("course code already exists")
	ErrCourseHasEnrollments   = NewConflictError("course has enrollment records and cannot be deleted")
	ErrCourseHasNotifications = NewConflictError("course has notification records and cannot be deleted")
	ErrSeatsBelowAllocated    = NewConflictError("total seats cannot drop below the seats already allocated")
	ErrSeatCapacityReached    = NewConflictError("available seats already equal total seats")
)

// Enrollment errors
var (
	ErrEnrollmentNotFound        = NewResourceNotFoundError("enrollment not found")
	ErrEnrollmentExists          = NewConflictError("already enrolled or enrollment request exists")
	ErrNoSeatsAvailable          = NewConflictError("no seats available")
	ErrEnrollmentAlreadyApproved = NewConflictError("enrollment is already approved")
	ErrInvalidStatusTransition   = NewConflictError("enrollment status transition is not allowed")
)

// Notification errors
var (
	ErrNotificationNotFound = NewResourceNotFoundError("notification not found")
	ErrAlreadySubscribed    = NewConflictError("already subscribed to notifications for this course")
	ErrSubscriptionNotFound = NewResourceNotFoundError("no active subscription for this course")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewAlreadyExistsError creates a new custom error for duplicate resources
func NewAlreadyExistsError(message string) error {
	return &CustomError{
		Err:     ErrResourceAlreadyExists,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewValidationError creates a new custom error for invalid input with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// Message returns the human readable message of the first CustomError in the
// chain, or the error text itself.
func Message(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// CustomError is a domain error: its own message over one error kind
type CustomError struct {
	Err     error
	Message string
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}
