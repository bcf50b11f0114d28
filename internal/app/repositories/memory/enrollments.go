package memory

import (
	"context"
	"sort"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type enrollmentRepository struct {
	s session
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		for _, e := range d.enrollments {
			if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
				return apperrors.ErrEnrollmentExists
			}
		}
		d.lastEnrollmentID++
		now := r.s.now()
		enrollment.ID = d.lastEnrollmentID
		enrollment.SubmittedAt = now
		enrollment.UpdatedAt = now
		d.touchEnrollment(enrollment.ID)
		d.enrollments[enrollment.ID] = copyEnrollment(enrollment)
		return nil
	})
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var enrollment *models.Enrollment
	err := r.s.do(func(d *data) error {
		e, ok := d.enrollments[id]
		if !ok {
			return apperrors.ErrEnrollmentNotFound
		}
		enrollment = copyEnrollment(e)
		return nil
	})
	return enrollment, err
}

func (r *enrollmentRepository) LockByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return r.GetByID(ctx, id)
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var enrollment *models.Enrollment
	err := r.s.do(func(d *data) error {
		e, ok := d.enrollments[id]
		if !ok {
			return apperrors.ErrEnrollmentNotFound
		}
		d.touchEnrollment(id)
		e.Status = status
		e.UpdatedAt = r.s.now()
		enrollment = copyEnrollment(e)
		return nil
	})
	return enrollment, err
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.EnrollmentDetail, error) {
	return r.list(ctx, func(e *models.Enrollment) bool { return e.CourseID == courseID })
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.EnrollmentDetail, error) {
	return r.list(ctx, func(e *models.Enrollment) bool { return e.StudentID == studentID })
}

func (r *enrollmentRepository) list(ctx context.Context, match func(*models.Enrollment) bool) ([]*models.EnrollmentDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	details := make([]*models.EnrollmentDetail, 0)
	err := r.s.do(func(d *data) error {
		for _, e := range d.enrollments {
			if !match(e) {
				continue
			}
			detail := &models.EnrollmentDetail{Enrollment: *e}
			if u, ok := d.users[e.StudentID]; ok {
				detail.StudentName = u.Name
				detail.StudentUniversityID = u.UniversityID
			}
			if c, ok := d.courses[e.CourseID]; ok {
				detail.CourseCode = c.CourseCode
				detail.CourseTitle = c.Title
				detail.Semester = c.Semester
				detail.InstructorID = c.InstructorID
			}
			details = append(details, detail)
		}
		return nil
	})
	sort.Slice(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if !a.SubmittedAt.Equal(b.SubmittedAt) {
			return a.SubmittedAt.After(b.SubmittedAt)
		}
		return a.ID > b.ID
	})
	return details, err
}

func (r *enrollmentRepository) PendingStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	err := r.s.do(func(d *data) error {
		for _, e := range d.enrollments {
			if e.CourseID == courseID && e.Status == models.EnrollmentPending {
				ids = append(ids, e.StudentID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := r.s.do(func(d *data) error {
		for _, e := range d.enrollments {
			if e.CourseID == courseID {
				count++
			}
		}
		return nil
	})
	return count, err
}
