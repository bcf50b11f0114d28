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

var courseColumns = []string{
	"c.id", "c.course_code", "c.title", "c.instructor_id", "c.semester",
	"c.total_seats", "c.available_seats", "c.prerequisites", "c.description",
	"c.created_at", "c.updated_at",
}

const courseReturning = "RETURNING id, course_code, title, instructor_id, semester, total_seats, available_seats, prerequisites, description, created_at, updated_at"

type courseRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func courseDest(c *models.Course) []any {
	return []any{
		&c.ID,
		&c.CourseCode,
		&c.Title,
		&c.InstructorID,
		&c.Semester,
		&c.TotalSeats,
		&c.AvailableSeats,
		&c.Prerequisites,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}

func (r *courseRepository) selectCourses() squirrel.SelectBuilder {
	return r.sb.Select(append(courseColumns, "COALESCE(u.name, '')")...).
		From("courses c").
		LeftJoin("users u ON u.id = c.instructor_id")
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	prerequisites := course.Prerequisites
	if prerequisites == nil {
		prerequisites = []string{}
	}

	sql, args, err := r.sb.Insert("courses").
		Columns("course_code", "title", "instructor_id", "semester", "total_seats", "available_seats", "prerequisites", "description").
		Values(course.CourseCode, course.Title, course.InstructorID, course.Semester, course.TotalSeats, course.AvailableSeats, prerequisites, course.Description).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	err = r.q.QueryRow(ctx, sql, args...).Scan(&course.ID, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintCourseCode) {
			return apperrors.ErrCourseCodeExists
		}
		if dberrors.IsForeignKeyError(err, "") {
			return apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Str("courseCode", course.CourseCode).Msg("Error creating course")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.getOne(ctx, id, "")
}

// LockByID takes a row lock on the course for the rest of the transaction
func (r *courseRepository) LockByID(ctx context.Context, id int64) (*models.Course, error) {
	return r.getOne(ctx, id, "FOR UPDATE OF c")
}

func (r *courseRepository) getOne(ctx context.Context, id int64, suffix string) (*models.Course, error) {
	query := r.selectCourses().Where(squirrel.Eq{"c.id": id})
	if suffix != "" {
		query = query.Suffix(suffix)
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	var course models.Course
	err = r.q.QueryRow(ctx, sql, args...).Scan(append(courseDest(&course), &course.InstructorName)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Int64("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	return &course, nil
}

func (r *courseRepository) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	where := squirrel.And{}
	if filter.InstructorID != 0 {
		where = append(where, squirrel.Eq{"c.instructor_id": filter.InstructorID})
	}
	if filter.Semester != "" {
		where = append(where, squirrel.Eq{"c.semester": filter.Semester})
	}

	sql, args, err := r.selectCourses().
		Where(where).
		OrderBy("c.course_code ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing courses: %w", err)
	}
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		var course models.Course
		if err := rows.Scan(append(courseDest(&course), &course.InstructorName)...); err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, &course)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Update(ctx context.Context, course *models.Course) error {
	prerequisites := course.Prerequisites
	if prerequisites == nil {
		prerequisites = []string{}
	}

	sql, args, err := r.sb.Update("courses").
		Set("course_code", course.CourseCode).
		Set("title", course.Title).
		Set("semester", course.Semester).
		Set("total_seats", course.TotalSeats).
		Set("available_seats", course.AvailableSeats).
		Set("prerequisites", prerequisites).
		Set("description", course.Description).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": course.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update course query: %w", err)
	}

	err = r.q.QueryRow(ctx, sql, args...).Scan(&course.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.ErrCourseNotFound
		case dberrors.IsDuplicateConstraintError(err, constraintCourseCode):
			return apperrors.ErrCourseCodeExists
		case dberrors.IsCheckConstraintError(err, ""):
			return apperrors.ErrSeatsBelowAllocated
		}
		logger.Error().Err(err).Int64("courseID", course.ID).Msg("Error updating course")
		return fmt.Errorf("error updating course: %w", err)
	}
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("courses").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete course query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		if dberrors.IsForeignKeyError(err, "notifications_course_id_fkey") {
			return apperrors.ErrCourseHasNotifications
		}
		if dberrors.IsForeignKeyError(err, "") {
			return apperrors.ErrCourseHasEnrollments
		}
		return fmt.Errorf("error deleting course: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// DecrementSeat is a single conditional update; concurrent callers cannot
// drive the counter below zero.
func (r *courseRepository) DecrementSeat(ctx context.Context, id int64) (*models.Course, error) {
	return r.adjustSeats(ctx, id,
		"available_seats - 1",
		squirrel.Gt{"available_seats": 0},
		apperrors.ErrNoSeatsAvailable,
	)
}

func (r *courseRepository) IncrementSeat(ctx context.Context, id int64) (*models.Course, error) {
	return r.adjustSeats(ctx, id,
		"available_seats + 1",
		squirrel.Expr("available_seats < total_seats"),
		apperrors.ErrSeatCapacityReached,
	)
}

func (r *courseRepository) adjustSeats(ctx context.Context, id int64, expr string, guard squirrel.Sqlizer, guardErr error) (*models.Course, error) {
	sql, args, err := r.sb.Update("courses").
		Set("available_seats", squirrel.Expr(expr)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(guard).
		Suffix(courseReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build seat update query: %w", err)
	}

	var course models.Course
	err = r.q.QueryRow(ctx, sql, args...).Scan(courseDest(&course)...)
	if err == nil {
		return &course, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		logger.Error().Err(err).Int64("courseID", id).Msg("Error updating seats")
		return nil, fmt.Errorf("error updating seats: %w", err)
	}

	// No row matched: either the course is gone or the guard failed
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, guardErr
}
