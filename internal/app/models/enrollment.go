package models

import "time"

// Enrollment is a student's request for a seat in a course. At most one
// exists per (student, course) pair and it is never deleted.
type Enrollment struct {
	ID          int64            `json:"id" db:"id"`
	StudentID   int64            `json:"studentId" db:"student_id"`
	CourseID    int64            `json:"courseId" db:"course_id"`
	Status      EnrollmentStatus `json:"status" db:"status"`
	SubmittedAt time.Time        `json:"submittedAt" db:"submitted_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName         string `json:"studentName"`
	StudentUniversityID string `json:"studentUniversityId"`
	CourseCode          string `json:"courseCode"`
	CourseTitle         string `json:"courseTitle"`
	Semester            string `json:"semester"`
	InstructorID        int64  `json:"instructorId"`
}
