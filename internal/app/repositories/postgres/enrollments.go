package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"github.com/yigit/registrar/internal/pkg/dberrors"
	"github.com/yigit/registrar/internal/pkg/logger"
)

const enrollmentReturning = "RETURNING id, student_id, course_id, status, submitted_at, updated_at"

type enrollmentRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	var (
		e      models.Enrollment
		status string
	)
	if err := row.Scan(&e.ID, &e.StudentID, &e.CourseID, &status, &e.SubmittedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Status = models.EnrollmentStatus(status)
	return &e, nil
}

// Create relies on enrollments_student_course_key; two concurrent requests
// for the same pair cannot both succeed.
func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	sql, args, err := r.sb.Insert("enrollments").
		Columns("student_id", "course_id", "status").
		Values(enrollment.StudentID, enrollment.CourseID, string(enrollment.Status)).
		Suffix("RETURNING id, submitted_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	err = r.q.QueryRow(ctx, sql, args...).Scan(&enrollment.ID, &enrollment.SubmittedAt, &enrollment.UpdatedAt)
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, constraintStudentCourse):
			return apperrors.ErrEnrollmentExists
		case dberrors.IsForeignKeyError(err, "enrollments_course_id_fkey"):
			return apperrors.ErrCourseNotFound
		case dberrors.IsForeignKeyError(err, "enrollments_student_id_fkey"):
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).
			Int64("studentID", enrollment.StudentID).
			Int64("courseID", enrollment.CourseID).
			Msg("Error creating enrollment")
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

func (r *enrollmentRepository) GetByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return r.getOne(ctx, id, "")
}

func (r *enrollmentRepository) LockByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	return r.getOne(ctx, id, "FOR UPDATE")
}

func (r *enrollmentRepository) getOne(ctx context.Context, id int64, suffix string) (*models.Enrollment, error) {
	query := r.sb.Select("id", "student_id", "course_id", "status", "submitted_at", "updated_at").
		From("enrollments").
		Where(squirrel.Eq{"id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}

	e, err := scanEnrollment(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepository) UpdateStatus(ctx context.Context, id int64, status models.EnrollmentStatus) (*models.Enrollment, error) {
	sql, args, err := r.sb.Update("enrollments").
		Set("status", string(status)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix(enrollmentReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update enrollment query: %w", err)
	}

	e, err := scanEnrollment(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		logger.Error().Err(err).Int64("enrollmentID", id).Msg("Error updating enrollment status")
		return nil, fmt.Errorf("error updating enrollment status: %w", err)
	}
	return e, nil
}

func (r *enrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.EnrollmentDetail, error) {
	return r.list(ctx, squirrel.Eq{"e.course_id": courseID})
}

func (r *enrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.EnrollmentDetail, error) {
	return r.list(ctx, squirrel.Eq{"e.student_id": studentID})
}

func (r *enrollmentRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.EnrollmentDetail, error) {
	sql, args, err := r.sb.Select(
		"e.id", "e.student_id", "e.course_id", "e.status", "e.submitted_at", "e.updated_at",
		"COALESCE(u.name, '')", "COALESCE(u.university_id, '')",
		"c.course_code", "c.title", "c.semester", "c.instructor_id",
	).
		From("enrollments e").
		Join("courses c ON c.id = e.course_id").
		LeftJoin("users u ON u.id = e.student_id").
		Where(where).
		OrderBy("e.submitted_at DESC", "e.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	details := make([]*models.EnrollmentDetail, 0)
	for rows.Next() {
		var (
			d      models.EnrollmentDetail
			status string
		)
		if err := rows.Scan(
			&d.ID, &d.StudentID, &d.CourseID, &status, &d.SubmittedAt, &d.UpdatedAt,
			&d.StudentName, &d.StudentUniversityID,
			&d.CourseCode, &d.CourseTitle, &d.Semester, &d.InstructorID,
		); err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		d.Status = models.EnrollmentStatus(status)
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *enrollmentRepository) PendingStudentIDs(ctx context.Context, courseID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("student_id").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID, "status": string(models.EnrollmentPending)}).
		OrderBy("student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending students query: %w", err)
	}
	return collectIDs(ctx, r.q, sql, args)
}

func (r *enrollmentRepository) CountByCourse(ctx context.Context, courseID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("enrollments").
		Where(squirrel.Eq{"course_id": courseID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count enrollments query: %w", err)
	}

	var count int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting enrollments: %w", err)
	}
	return count, nil
}

func collectIDs(ctx context.Context, q DBTX, sql string, args []any) ([]int64, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
