package models

import "time"

// Notification is a per-student outbox record. Alerts are shown to the
// student; subscription markers record "notify me when a seat opens" and are
// active while unread.
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	StudentID int64            `json:"studentId" db:"student_id"`
	CourseID  int64            `json:"courseId" db:"course_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Message   string           `json:"message" db:"message"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

// IsSubscription reports whether the record is a subscription marker
func (n *Notification) IsSubscription() bool {
	return n.Kind == NotificationSubscription
}

// NotificationDetail joins course info for display
type NotificationDetail struct {
	Notification
	CourseCode  string `json:"courseCode"`
	CourseTitle string `json:"courseTitle"`
}
