package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID           int64     `json:"id" db:"id" example:"1"`
	Name         string    `json:"name" db:"name" example:"John Student"`
	Email        string    `json:"email" db:"email" example:"john@university.edu"`
	Password     string    `json:"-" db:"password"` // bcrypt hash, never serialized
	RoleType     RoleType  `json:"role" db:"role" example:"student"`
	UniversityID string    `json:"universityId" db:"university_id" example:"STU001"`
	Department   *string   `json:"department,omitempty" db:"department" example:"Computer Science"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// IsInstructor reports whether the user holds the instructor role
func (u *User) IsInstructor() bool {
	return u != nil && u.RoleType == RoleInstructor
}

// IsStudent reports whether the user holds the student role
func (u *User) IsStudent() bool {
	return u != nil && u.RoleType == RoleStudent
}
