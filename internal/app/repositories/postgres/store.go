// Package postgres implements repositories.Store on PostgreSQL through pgx.
package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/db"
)

// Constraint and index names from migrations/001_init.sql
const (
	constraintUserEmail          = "users_email_key"
	constraintCourseCode         = "courses_course_code_key"
	constraintStudentCourse      = "enrollments_student_course_key"
	constraintActiveSubscription = "notifications_active_subscription_idx"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL store
type Store struct {
	db   *db.PostgresDB
	q    DBTX
	sb   squirrel.StatementBuilderType
	inTx bool
}

// NewStore creates a store over an open connection pool
func NewStore(pg *db.PostgresDB) *Store {
	return &Store{
		db: pg,
		q:  pg.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) Users() repositories.UserRepository {
	return &userRepository{q: s.q, sb: s.sb}
}

func (s *Store) Courses() repositories.CourseRepository {
	return &courseRepository{q: s.q, sb: s.sb}
}

func (s *Store) Enrollments() repositories.EnrollmentRepository {
	return &enrollmentRepository{q: s.q, sb: s.sb}
}

func (s *Store) Notifications() repositories.NotificationRepository {
	return &notificationRepository{q: s.q, sb: s.sb}
}

// WithTx runs fn inside a database transaction. Inside a transaction it
// reuses the open one.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(&Store{db: s.db, q: tx, sb: s.sb, inTx: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool. It is a no-op on a transactional view.
func (s *Store) Close() {
	if !s.inTx {
		s.db.Close()
	}
}
