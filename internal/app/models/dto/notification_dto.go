package dto

import (
	"time"

	"github.com/yigit/registrar/internal/app/models"
)

// SubscribeRequest asks to be alerted when a seat opens in the course
type SubscribeRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1" example:"2"`
}

// NotificationResponse represents an alert
type NotificationResponse struct {
	ID          int64     `json:"id" example:"1"`
	StudentID   int64     `json:"studentId" example:"2"`
	CourseID    int64     `json:"courseId" example:"1"`
	Kind        string    `json:"kind" example:"alert"`
	Message     string    `json:"message" example:"A seat is now available for CS233 - Data Structures"`
	Read        bool      `json:"read" example:"false"`
	CreatedAt   time.Time `json:"createdAt"`
	CourseCode  string    `json:"courseCode,omitempty" example:"CS233"`
	CourseTitle string    `json:"courseTitle,omitempty" example:"Data Structures"`
}

// UnreadCountResponse carries the unread alert count
type UnreadCountResponse struct {
	Count int `json:"count" example:"3"`
}

// NewNotificationResponse maps a notification
func NewNotificationResponse(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		StudentID: n.StudentID,
		CourseID:  n.CourseID,
		Kind:      string(n.Kind),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// NewNotificationDetailResponses maps joined notifications
func NewNotificationDetailResponses(details []*models.NotificationDetail) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(details))
	for _, d := range details {
		r := NewNotificationResponse(&d.Notification)
		r.CourseCode = d.CourseCode
		r.CourseTitle = d.CourseTitle
		out = append(out, r)
	}
	return out
}
