package memory

import (
	"context"
	"sort"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type notificationRepository struct {
	s session
}

func (r *notificationRepository) insert(d *data, n *models.Notification) {
	d.lastNotificationID++
	n.ID = d.lastNotificationID
	n.CreatedAt = r.s.now()
	d.touchNotification(n.ID)
	d.notifications[n.ID] = copyNotification(n)
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		r.insert(d, notification)
		return nil
	})
}

func activeSubscription(d *data, studentID, courseID int64) *models.Notification {
	for _, n := range d.notifications {
		if n.IsSubscription() && !n.Read && n.StudentID == studentID && n.CourseID == courseID {
			return n
		}
	}
	return nil
}

func (r *notificationRepository) CreateSubscription(ctx context.Context, notification *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		if activeSubscription(d, notification.StudentID, notification.CourseID) != nil {
			return apperrors.ErrAlreadySubscribed
		}
		notification.Kind = models.NotificationSubscription
		notification.Read = false
		r.insert(d, notification)
		return nil
	})
}

func (r *notificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var notification *models.Notification
	err := r.s.do(func(d *data) error {
		n, ok := d.notifications[id]
		if !ok {
			return apperrors.ErrNotificationNotFound
		}
		notification = copyNotification(n)
		return nil
	})
	return notification, err
}

func (r *notificationRepository) ListAlertsByStudent(ctx context.Context, studentID int64) ([]*models.NotificationDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	details := make([]*models.NotificationDetail, 0)
	err := r.s.do(func(d *data) error {
		for _, n := range d.notifications {
			if n.IsSubscription() || n.StudentID != studentID {
				continue
			}
			detail := &models.NotificationDetail{Notification: *n}
			if c, ok := d.courses[n.CourseID]; ok {
				detail.CourseCode = c.CourseCode
				detail.CourseTitle = c.Title
			}
			details = append(details, detail)
		}
		return nil
	})
	sort.Slice(details, func(i, j int) bool {
		a, b := details[i], details[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return details, err
}

func (r *notificationRepository) CountUnreadAlerts(ctx context.Context, studentID int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := r.s.do(func(d *data) error {
		for _, n := range d.notifications {
			if !n.IsSubscription() && !n.Read && n.StudentID == studentID {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64) (*models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var notification *models.Notification
	err := r.s.do(func(d *data) error {
		n, ok := d.notifications[id]
		if !ok || n.IsSubscription() {
			return apperrors.ErrNotificationNotFound
		}
		d.touchNotification(id)
		n.Read = true
		notification = copyNotification(n)
		return nil
	})
	return notification, err
}

func (r *notificationRepository) DeactivateSubscription(ctx context.Context, studentID, courseID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		n := activeSubscription(d, studentID, courseID)
		if n == nil {
			return apperrors.ErrSubscriptionNotFound
		}
		d.touchNotification(n.ID)
		n.Read = true
		return nil
	})
}

func (r *notificationRepository) ActiveSubscriberIDs(ctx context.Context, courseID int64) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	err := r.s.do(func(d *data) error {
		for _, n := range d.notifications {
			if n.IsSubscription() && !n.Read && n.CourseID == courseID {
				ids = append(ids, n.StudentID)
			}
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}
