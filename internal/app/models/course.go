package models

import "time"

// Course represents a course offered in a semester. Seat counters are owned
// by the course; the enrollment ledger moves them one seat at a time.
type Course struct {
	ID             int64     `json:"id" db:"id"`
	CourseCode     string    `json:"courseCode" db:"course_code"`
	Title          string    `json:"title" db:"title"`
	InstructorID   int64     `json:"instructorId" db:"instructor_id"`
	Semester       string    `json:"semester" db:"semester"`
	TotalSeats     int       `json:"totalSeats" db:"total_seats"`
	AvailableSeats int       `json:"availableSeats" db:"available_seats"`
	Prerequisites  []string  `json:"prerequisites" db:"prerequisites"`
	Description    string    `json:"description" db:"description"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`

	// Populated at read time
	InstructorName string `json:"instructorName,omitempty"`
}

// IsFull reports whether no seats are left
func (c *Course) IsFull() bool {
	return c.AvailableSeats <= 0
}

// CourseUpdate carries a partial course edit; nil fields are left untouched.
type CourseUpdate struct {
	CourseCode     *string
	Title          *string
	Semester       *string
	TotalSeats     *int
	AvailableSeats *int
	Prerequisites  []string
	Description    *string
}

// CourseFilter narrows course listings
type CourseFilter struct {
	InstructorID int64
	Semester     string
}
