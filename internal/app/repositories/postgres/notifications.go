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

const notificationReturning = "RETURNING id, student_id, course_id, kind, message, read, created_at"

type notificationRepository struct {
	q  DBTX
	sb squirrel.StatementBuilderType
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var (
		n    models.Notification
		kind string
	)
	if err := row.Scan(&n.ID, &n.StudentID, &n.CourseID, &kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Kind = models.NotificationKind(kind)
	return &n, nil
}

func (r *notificationRepository) insert(ctx context.Context, n *models.Notification) error {
	sql, args, err := r.sb.Insert("notifications").
		Columns("student_id", "course_id", "kind", "message", "read").
		Values(n.StudentID, n.CourseID, string(n.Kind), n.Message, n.Read).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create notification query: %w", err)
	}
	return r.q.QueryRow(ctx, sql, args...).Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.insert(ctx, notification); err != nil {
		if dberrors.IsForeignKeyError(err, "") {
			return apperrors.NewResourceNotFoundError("notification target does not exist")
		}
		logger.Error().Err(err).Int64("studentID", notification.StudentID).Msg("Error creating notification")
		return fmt.Errorf("error creating notification: %w", err)
	}
	return nil
}

// CreateSubscription relies on the partial unique index over active markers
// for its check-and-insert.
func (r *notificationRepository) CreateSubscription(ctx context.Context, notification *models.Notification) error {
	notification.Kind = models.NotificationSubscription
	notification.Read = false
	if err := r.insert(ctx, notification); err != nil {
		if dberrors.IsDuplicateConstraintError(err, constraintActiveSubscription) {
			return apperrors.ErrAlreadySubscribed
		}
		logger.Error().Err(err).Int64("studentID", notification.StudentID).Msg("Error creating subscription")
		return fmt.Errorf("error creating subscription: %w", err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := r.sb.Select("id", "student_id", "course_id", "kind", "message", "read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get notification query: %w", err)
	}

	n, err := scanNotification(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error getting notification: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) ListAlertsByStudent(ctx context.Context, studentID int64) ([]*models.NotificationDetail, error) {
	sql, args, err := r.sb.Select(
		"n.id", "n.student_id", "n.course_id", "n.kind", "n.message", "n.read", "n.created_at",
		"COALESCE(c.course_code, '')", "COALESCE(c.title, '')",
	).
		From("notifications n").
		LeftJoin("courses c ON c.id = n.course_id").
		Where(squirrel.Eq{"n.student_id": studentID, "n.kind": string(models.NotificationAlert)}).
		OrderBy("n.created_at DESC", "n.id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	details := make([]*models.NotificationDetail, 0)
	for rows.Next() {
		var (
			d    models.NotificationDetail
			kind string
		)
		if err := rows.Scan(
			&d.ID, &d.StudentID, &d.CourseID, &kind, &d.Message, &d.Read, &d.CreatedAt,
			&d.CourseCode, &d.CourseTitle,
		); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		d.Kind = models.NotificationKind(kind)
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

func (r *notificationRepository) CountUnreadAlerts(ctx context.Context, studentID int64) (int, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("notifications").
		Where(squirrel.Eq{"student_id": studentID, "kind": string(models.NotificationAlert), "read": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build unread count query: %w", err)
	}

	var count int
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := r.sb.Update("notifications").
		Set("read", true).
		Where(squirrel.Eq{"id": id, "kind": string(models.NotificationAlert)}).
		Suffix(notificationReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build mark as read query: %w", err)
	}

	n, err := scanNotification(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error marking notification as read: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) DeactivateSubscription(ctx context.Context, studentID, courseID int64) error {
	sql, args, err := r.sb.Update("notifications").
		Set("read", true).
		Where(squirrel.Eq{
			"student_id": studentID,
			"course_id":  courseID,
			"kind":       string(models.NotificationSubscription),
			"read":       false,
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build unsubscribe query: %w", err)
	}

	tag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deactivating subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSubscriptionNotFound
	}
	return nil
}

func (r *notificationRepository) ActiveSubscriberIDs(ctx context.Context, courseID int64) ([]int64, error) {
	sql, args, err := r.sb.Select("DISTINCT student_id").
		From("notifications").
		Where(squirrel.Eq{
			"course_id": courseID,
			"kind":      string(models.NotificationSubscription),
			"read":      false,
		}).
		OrderBy("student_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build active subscribers query: %w", err)
	}
	return collectIDs(ctx, r.q, sql, args)
}
