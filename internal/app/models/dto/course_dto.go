package dto

import (
	"time"

	"github.com/yigit/registrar/internal/app/models"
)

// CreateCourseRequest represents a new course. The instructor is the caller;
// instructorId, when sent, must match the caller.
type CreateCourseRequest struct {
	CourseCode    string   `json:"courseCode" binding:"required,max=50" example:"CS101"`
	Title         string   `json:"title" binding:"required,max=255" example:"Introduction to Programming"`
	InstructorID  int64    `json:"instructorId,omitempty" binding:"omitempty,min=1" example:"1"`
	Semester      string   `json:"semester" binding:"required,max=50" example:"Fall 2025"`
	TotalSeats    int      `json:"totalSeats" binding:"required,min=1" example:"30"`
	Prerequisites []string `json:"prerequisites,omitempty" binding:"omitempty,dive,max=50" example:"CS100"`
	Description   string   `json:"description,omitempty" example:"Basics of programming"`
}

// UpdateCourseRequest represents a partial course edit; absent fields are kept
type UpdateCourseRequest struct {
	CourseCode     *string  `json:"courseCode,omitempty" binding:"omitempty,min=1,max=50"`
	Title          *string  `json:"title,omitempty" binding:"omitempty,min=1,max=255"`
	Semester       *string  `json:"semester,omitempty" binding:"omitempty,min=1,max=50"`
	TotalSeats     *int     `json:"totalSeats,omitempty" binding:"omitempty,min=1"`
	AvailableSeats *int     `json:"availableSeats,omitempty" binding:"omitempty,min=0"`
	Prerequisites  []string `json:"prerequisites,omitempty" binding:"omitempty,dive,max=50"`
	Description    *string  `json:"description,omitempty"`
}

// ToModel converts the request into a course update
func (r *UpdateCourseRequest) ToModel() models.CourseUpdate {
	return models.CourseUpdate{
		CourseCode:     r.CourseCode,
		Title:          r.Title,
		Semester:       r.Semester,
		TotalSeats:     r.TotalSeats,
		AvailableSeats: r.AvailableSeats,
		Prerequisites:  r.Prerequisites,
		Description:    r.Description,
	}
}

// CourseResponse represents a course
type CourseResponse struct {
	ID             int64     `json:"id" example:"1"`
	CourseCode     string    `json:"courseCode" example:"CS101"`
	Title          string    `json:"title" example:"Introduction to Programming"`
	InstructorID   int64     `json:"instructorId" example:"1"`
	InstructorName string    `json:"instructorName,omitempty" example:"Dr. Smith"`
	Semester       string    `json:"semester" example:"Fall 2025"`
	TotalSeats     int       `json:"totalSeats" example:"30"`
	AvailableSeats int       `json:"availableSeats" example:"12"`
	Prerequisites  []string  `json:"prerequisites"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// NewCourseResponse maps a course model
func NewCourseResponse(c *models.Course) CourseResponse {
	prerequisites := c.Prerequisites
	if prerequisites == nil {
		prerequisites = []string{}
	}
	return CourseResponse{
		ID:             c.ID,
		CourseCode:     c.CourseCode,
		Title:          c.Title,
		InstructorID:   c.InstructorID,
		InstructorName: c.InstructorName,
		Semester:       c.Semester,
		TotalSeats:     c.TotalSeats,
		AvailableSeats: c.AvailableSeats,
		Prerequisites:  prerequisites,
		Description:    c.Description,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// NewCourseResponses maps a list of courses
func NewCourseResponses(courses []*models.Course) []CourseResponse {
	out := make([]CourseResponse, 0, len(courses))
	for _, c := range courses {
		out = append(out, NewCourseResponse(c))
	}
	return out
}
