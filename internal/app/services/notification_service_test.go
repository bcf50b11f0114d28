package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories/memory"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS233", 1)

	marker, err := f.svc.Notification.Subscribe(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSubscription, marker.Kind)
	assert.False(t, marker.Read)
	assert.Equal(t, "Subscribed to seat notifications for CS233 - Title CS233", marker.Message)
	assert.Empty(t, f.alerts(t, alice.ID), "markers are not listed as alerts")

	count, err := f.svc.Notification.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.Notification.Subscribe(ctx, alice.ID, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubscribed)

	_, err = f.svc.Notification.Subscribe(ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = f.svc.Notification.Subscribe(ctx, 9999, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.svc.Notification.Subscribe(ctx, prof.ID, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotStudent)

	t.Run("unsubscribe then subscribe again", func(t *testing.T) {
		require.NoError(t, f.svc.Notification.Unsubscribe(ctx, alice.ID, course.ID))
		assert.ErrorIs(t, f.svc.Notification.Unsubscribe(ctx, alice.ID, course.ID), apperrors.ErrSubscriptionNotFound)

		_, err := f.svc.Notification.Subscribe(ctx, alice.ID, course.ID)
		assert.NoError(t, err)
	})

	assert.ErrorIs(t, f.svc.Notification.Unsubscribe(ctx, alice.ID, 9999), apperrors.ErrCourseNotFound)
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 2)

	e := f.enroll(t, alice.ID, course.ID)
	_, err := f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
	require.NoError(t, err)

	count, err := f.svc.Notification.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	alerts := f.alerts(t, alice.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, "CS101", alerts[0].CourseCode)

	read, err := f.svc.Notification.MarkAsRead(ctx, alerts[0].ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	again, err := f.svc.Notification.MarkAsRead(ctx, alerts[0].ID)
	require.NoError(t, err)
	assert.True(t, again.Read)

	count, err = f.svc.Notification.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.svc.Notification.MarkAsRead(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)

	t.Run("markers cannot be marked read", func(t *testing.T) {
		marker, err := f.svc.Notification.Subscribe(ctx, alice.ID, f.course(t, prof.ID, "CS102", 1).ID)
		require.NoError(t, err)
		_, err = f.svc.Notification.MarkAsRead(ctx, marker.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
	})
}

func TestNotifySeatAvailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS233", 5)

	var students []*models.User
	for _, name := range []string{"A", "B", "C", "D", "E", "F"} {
		s := f.student(t, name)
		students = append(students, s)
		_, err := f.svc.Notification.Subscribe(ctx, s.ID, course.ID)
		require.NoError(t, err)
	}
	// Half of them also hold pending requests
	for _, s := range students[:3] {
		f.enroll(t, s.ID, course.ID)
	}

	delivered, err := f.svc.Notification.NotifySeatAvailable(ctx, course)
	require.NoError(t, err)
	assert.Equal(t, len(students), delivered)
	for _, s := range students {
		assert.Len(t, f.alerts(t, s.ID), 1)
	}

	var alertEvents int
	for _, ev := range f.publisher.recorded() {
		if ev.Kind == models.NotificationAlert {
			alertEvents++
		}
	}
	assert.Equal(t, len(students), alertEvents)

	t.Run("nobody to notify", func(t *testing.T) {
		quiet := f.course(t, prof.ID, "CS999", 1)
		delivered, err := f.svc.Notification.NotifySeatAvailable(ctx, quiet)
		require.NoError(t, err)
		assert.Zero(t, delivered)
	})
}

func TestNotifySeatAvailable_CollectsFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.New(memory.WithClock(steppingClock()))
	base := newFixtureWithStore(t, store)
	prof := base.instructor(t, "Ada Prof")
	course := base.course(t, prof.ID, "CS233", 1)
	ok1 := base.student(t, "Ok One")
	broken := base.student(t, "Broken")
	ok2 := base.student(t, "Ok Two")
	for _, s := range []*models.User{ok1, broken, ok2} {
		_, err := base.svc.Notification.Subscribe(ctx, s.ID, course.ID)
		require.NoError(t, err)
	}

	f := newFixtureWithStore(t, &flakyStore{Store: store, failFor: broken.ID})
	delivered, err := f.svc.Notification.NotifySeatAvailable(ctx, course)
	assert.Equal(t, 2, delivered)
	require.Error(t, err)
	assert.ErrorIs(t, err, errDeliveryFailed)

	assert.Len(t, f.alerts(t, ok1.ID), 1)
	assert.Len(t, f.alerts(t, ok2.ID), 1)
	assert.Empty(t, f.alerts(t, broken.ID))
}

func TestPublish_BrokerFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.err = assert.AnError
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 1)

	e := f.enroll(t, alice.ID, course.ID)
	approved, err := f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentApproved, approved.Status)
	assert.Len(t, f.publisher.recorded(), 1)
}

func TestMergeRecipients(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 3, 7}, mergeRecipients([]int64{7, 2, 3}, []int64{3, 1, 2}))
	assert.Empty(t, mergeRecipients(nil, nil))
	assert.Equal(t, []int64{4}, mergeRecipients([]int64{4, 4}))
}
