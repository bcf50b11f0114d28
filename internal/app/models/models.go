package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent    RoleType = "student"
	RoleInstructor RoleType = "instructor"
)

// IsValid reports whether the role is one the system knows about
func (r RoleType) IsValid() bool {
	return r == RoleStudent || r == RoleInstructor
}

// EnrollmentStatus is the lifecycle state of an enrollment request
type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// IsValid reports whether the status is a known enrollment status
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentPending, EnrollmentApproved, EnrollmentRejected:
		return true
	}
	return false
}

// NotificationKind discriminates user-visible alerts from subscription markers
// stored in the same outbox.
type NotificationKind string

const (
	NotificationAlert        NotificationKind = "alert"
	NotificationSubscription NotificationKind = "subscription"
)
