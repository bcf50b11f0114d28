package memory

import (
	"context"
	"sort"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type courseRepository struct {
	s session
}

func codeTaken(d *data, code string, exceptID int64) bool {
	for _, c := range d.courses {
		if c.ID != exceptID && c.CourseCode == code {
			return true
		}
	}
	return false
}

func withInstructorName(d *data, c *models.Course) *models.Course {
	out := copyCourse(c)
	if u, ok := d.users[c.InstructorID]; ok {
		out.InstructorName = u.Name
	}
	return out
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		if codeTaken(d, course.CourseCode, 0) {
			return apperrors.ErrCourseCodeExists
		}
		d.lastCourseID++
		now := r.s.now()
		course.ID = d.lastCourseID
		course.CreatedAt = now
		course.UpdatedAt = now
		d.touchCourse(course.ID)
		d.courses[course.ID] = copyCourse(course)
		return nil
	})
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var course *models.Course
	err := r.s.do(func(d *data) error {
		c, ok := d.courses[id]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		course = withInstructorName(d, c)
		return nil
	})
	return course, err
}

// LockByID is GetByID: the store lock already serializes transactions.
func (r *courseRepository) LockByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *courseRepository) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	courses := make([]*models.Course, 0)
	err := r.s.do(func(d *data) error {
		for _, c := range d.courses {
			if filter.InstructorID != 0 && c.InstructorID != filter.InstructorID {
				continue
			}
			if filter.Semester != "" && c.Semester != filter.Semester {
				continue
			}
			courses = append(courses, withInstructorName(d, c))
		}
		return nil
	})
	sort.Slice(courses, func(i, j int) bool {
		return courses[i].CourseCode < courses[j].CourseCode
	})
	return courses, err
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		existing, ok := d.courses[course.ID]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		if codeTaken(d, course.CourseCode, course.ID) {
			return apperrors.ErrCourseCodeExists
		}
		updated := copyCourse(course)
		updated.InstructorName = ""
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = r.s.now()
		d.touchCourse(course.ID)
		d.courses[course.ID] = updated
		course.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r *courseRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		if _, ok := d.courses[id]; !ok {
			return apperrors.ErrCourseNotFound
		}
		for _, e := range d.enrollments {
			if e.CourseID == id {
				return apperrors.ErrCourseHasEnrollments
			}
		}
		for _, n := range d.notifications {
			if n.CourseID == id {
				return apperrors.ErrCourseHasNotifications
			}
		}
		d.touchCourse(id)
		delete(d.courses, id)
		return nil
	})
}

func (r *courseRepository) DecrementSeat(ctx context.Context, id int64) (*models.Course, error) {
	return r.adjustSeats(ctx, id, -1)
}

func (r *courseRepository) IncrementSeat(ctx context.Context, id int64) (*models.Course, error) {
	return r.adjustSeats(ctx, id, 1)
}

func (r *courseRepository) adjustSeats(ctx context.Context, id int64, delta int) (*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var course *models.Course
	err := r.s.do(func(d *data) error {
		c, ok := d.courses[id]
		if !ok {
			return apperrors.ErrCourseNotFound
		}
		next := c.AvailableSeats + delta
		switch {
		case next < 0:
			return apperrors.ErrNoSeatsAvailable
		case next > c.TotalSeats:
			return apperrors.ErrSeatCapacityReached
		}
		d.touchCourse(id)
		c.AvailableSeats = next
		c.UpdatedAt = r.s.now()
		course = withInstructorName(d, c)
		return nil
	})
	return course, err
}
