package dto

import (
	"time"

	"github.com/yigit/registrar/internal/app/models"
)

// CreateEnrollmentRequest asks for a seat in a course for the caller
type CreateEnrollmentRequest struct {
	CourseID int64 `json:"courseId" binding:"required,min=1" example:"1"`
}

// UpdateEnrollmentStatusRequest moves an enrollment to approved or rejected
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending approved rejected" example:"approved"`
}

// EnrollmentResponse represents an enrollment record with display fields
type EnrollmentResponse struct {
	ID                  int64     `json:"id" example:"1"`
	StudentID           int64     `json:"studentId" example:"2"`
	CourseID            int64     `json:"courseId" example:"1"`
	Status              string    `json:"status" example:"pending"`
	SubmittedAt         time.Time `json:"submittedAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
	StudentName         string    `json:"studentName,omitempty" example:"Ada Lovelace"`
	StudentUniversityID string    `json:"studentUniversityId,omitempty" example:"STU001"`
	CourseCode          string    `json:"courseCode,omitempty" example:"CS101"`
	CourseTitle         string    `json:"courseTitle,omitempty" example:"Introduction to Programming"`
	Semester            string    `json:"semester,omitempty" example:"Fall 2025"`
}

// NewEnrollmentResponse maps a bare enrollment record
func NewEnrollmentResponse(e *models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:          e.ID,
		StudentID:   e.StudentID,
		CourseID:    e.CourseID,
		Status:      string(e.Status),
		SubmittedAt: e.SubmittedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// NewEnrollmentDetailResponses maps joined enrollment records
func NewEnrollmentDetailResponses(details []*models.EnrollmentDetail) []EnrollmentResponse {
	out := make([]EnrollmentResponse, 0, len(details))
	for _, d := range details {
		r := NewEnrollmentResponse(&d.Enrollment)
		r.StudentName = d.StudentName
		r.StudentUniversityID = d.StudentUniversityID
		r.CourseCode = d.CourseCode
		r.CourseTitle = d.CourseTitle
		r.Semester = d.Semester
		out = append(out, r)
	}
	return out
}
