package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories/memory"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

func TestCreateEnrollment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 2)

	enrollment, err := f.svc.Enrollment.CreateEnrollment(ctx, alice.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, enrollment.Status)
	assert.NotZero(t, enrollment.ID)
	assert.False(t, enrollment.SubmittedAt.IsZero())
	assert.Equal(t, 2, f.seats(t, course.ID), "a pending request does not take a seat")

	t.Run("duplicate request", func(t *testing.T) {
		_, err := f.svc.Enrollment.CreateEnrollment(ctx, alice.ID, course.ID)
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentExists)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := f.svc.Enrollment.CreateEnrollment(ctx, alice.ID, 9999)
		assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := f.svc.Enrollment.CreateEnrollment(ctx, 9999, course.ID)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("instructor cannot enroll", func(t *testing.T) {
		_, err := f.svc.Enrollment.CreateEnrollment(ctx, prof.ID, course.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotStudent)
	})

	t.Run("full course still accepts requests", func(t *testing.T) {
		full := f.course(t, prof.ID, "CS102", 1)
		first := f.student(t, "First")
		f.enroll(t, first.ID, full.ID)
		_, err := f.svc.Enrollment.ApproveEnrollment(ctx, f.enroll(t, f.student(t, "Second").ID, full.ID).ID)
		require.NoError(t, err)
		require.Equal(t, 0, f.seats(t, full.ID))

		late := f.enroll(t, f.student(t, "Late").ID, full.ID)
		assert.Equal(t, models.EnrollmentPending, late.Status)
	})
}

func TestCreateEnrollment_RejectedEnrollmentStillBlocksReenrollment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 3)

	e := f.enroll(t, alice.ID, course.ID)
	_, err := f.svc.Enrollment.RejectEnrollment(ctx, e.ID)
	require.NoError(t, err)

	_, err = f.svc.Enrollment.CreateEnrollment(ctx, alice.ID, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentExists)
}

func TestApproveEnrollment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 2)
	e := f.enroll(t, alice.ID, course.ID)

	approved, err := f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentApproved, approved.Status)
	assert.Equal(t, 1, f.seats(t, course.ID))

	alerts := f.alerts(t, alice.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Your enrollment for CS101 - Title CS101 has been approved.", alerts[0].Message)
	assert.False(t, alerts[0].Read)

	events := f.publisher.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, eventNotificationCreated, events[0].Type)
	assert.Equal(t, alice.ID, events[0].StudentID)
	assert.Equal(t, models.NotificationAlert, events[0].Kind)

	t.Run("approving twice is a conflict", func(t *testing.T) {
		_, err := f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentAlreadyApproved)
		assert.Equal(t, 1, f.seats(t, course.ID))
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		_, err := f.svc.Enrollment.ApproveEnrollment(ctx, 9999)
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentNotFound)
	})
}

func TestApproveEnrollment_NoSeatsLeavesRequestPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 1)

	first := f.enroll(t, f.student(t, "Alice").ID, course.ID)
	bob := f.student(t, "Bob")
	second := f.enroll(t, bob.ID, course.ID)

	_, err := f.svc.Enrollment.ApproveEnrollment(ctx, first.ID)
	require.NoError(t, err)

	_, err = f.svc.Enrollment.ApproveEnrollment(ctx, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrNoSeatsAvailable)

	stored, err := f.svc.Enrollment.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, stored.Status)
	assert.Equal(t, 0, f.seats(t, course.ID))
	assert.Empty(t, f.alerts(t, bob.ID), "failed approval must not leave an alert behind")
}

func TestApproveEnrollment_RejectedCannotBeApproved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 2)
	e := f.enroll(t, f.student(t, "Alice").ID, course.ID)

	_, err := f.svc.Enrollment.RejectEnrollment(ctx, e.ID)
	require.NoError(t, err)

	_, err = f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	assert.Equal(t, 2, f.seats(t, course.ID))
}

func TestApproveEnrollment_ConcurrentApprovalsForLastSeat(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 1)

	const applicants = 8
	ids := make([]int64, applicants)
	for i := range ids {
		ids[i] = f.enroll(t, f.student(t, "Student").ID, course.ID).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		noSeats   int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.svc.Enrollment.ApproveEnrollment(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperrors.Is(err, apperrors.ErrNoSeatsAvailable):
				noSeats++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, applicants-1, noSeats)
	assert.Equal(t, 0, f.seats(t, course.ID))

	details, err := f.svc.Enrollment.ListEnrollmentsByCourse(ctx, course.ID)
	require.NoError(t, err)
	approved := 0
	for _, d := range details {
		if d.Status == models.EnrollmentApproved {
			approved++
		}
	}
	assert.Equal(t, 1, approved)
}

func TestCreateEnrollment_ConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	course := f.course(t, prof.ID, "CS101", 5)

	const attempts = 6
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Enrollment.CreateEnrollment(ctx, alice.ID, course.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	created := 0
	for err := range results {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrEnrollmentExists)
	}
	assert.Equal(t, 1, created)
}

func TestRejectEnrollment_Pending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 1)
	e := f.enroll(t, f.student(t, "Alice").ID, course.ID)
	watcher := f.student(t, "Watcher")
	_, err := f.svc.Notification.Subscribe(ctx, watcher.ID, course.ID)
	require.NoError(t, err)

	rejected, err := f.svc.Enrollment.RejectEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentRejected, rejected.Status)
	assert.Equal(t, 1, f.seats(t, course.ID))
	assert.Empty(t, f.alerts(t, watcher.ID))

	t.Run("rejecting again is a no-op", func(t *testing.T) {
		again, err := f.svc.Enrollment.RejectEnrollment(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentRejected, again.Status)
		assert.Equal(t, 1, f.seats(t, course.ID))
	})
}

func TestRejectEnrollment_ApprovedReopensFullCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS233", 1)

	alice := f.student(t, "Alice")
	bob := f.student(t, "Bob")
	carol := f.student(t, "Carol")
	dave := f.student(t, "Dave")

	seated := f.enroll(t, alice.ID, course.ID)
	_, err := f.svc.Enrollment.ApproveEnrollment(ctx, seated.ID)
	require.NoError(t, err)
	require.Equal(t, 0, f.seats(t, course.ID))

	// Bob is both pending and subscribed, Carol only subscribed
	f.enroll(t, bob.ID, course.ID)
	_, err = f.svc.Notification.Subscribe(ctx, bob.ID, course.ID)
	require.NoError(t, err)
	_, err = f.svc.Notification.Subscribe(ctx, carol.ID, course.ID)
	require.NoError(t, err)
	// Dave unsubscribed before the seat opened
	_, err = f.svc.Notification.Subscribe(ctx, dave.ID, course.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Notification.Unsubscribe(ctx, dave.ID, course.ID))

	rejected, err := f.svc.Enrollment.RejectEnrollment(ctx, seated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentRejected, rejected.Status)
	assert.Equal(t, 1, f.seats(t, course.ID))

	const want = "A seat is now available for CS233 - Title CS233"
	for _, s := range []*models.User{bob, carol} {
		alerts := f.alerts(t, s.ID)
		require.Len(t, alerts, 1, "student %s", s.Name)
		assert.Equal(t, want, alerts[0].Message)
		assert.Equal(t, course.ID, alerts[0].CourseID)
	}
	assert.Empty(t, f.alerts(t, dave.ID))

	aliceAlerts := f.alerts(t, alice.ID)
	require.Len(t, aliceAlerts, 1)
	assert.Contains(t, aliceAlerts[0].Message, "has been approved")
}

func TestRejectEnrollment_ApprovedOnOpenCourseDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 2)

	e := f.enroll(t, f.student(t, "Alice").ID, course.ID)
	_, err := f.svc.Enrollment.ApproveEnrollment(ctx, e.ID)
	require.NoError(t, err)

	watcher := f.student(t, "Watcher")
	_, err = f.svc.Notification.Subscribe(ctx, watcher.ID, course.ID)
	require.NoError(t, err)

	_, err = f.svc.Enrollment.RejectEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, f.seats(t, course.ID))
	assert.Empty(t, f.alerts(t, watcher.ID))
}

func TestRejectEnrollment_FanoutFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	store := memory.New(memory.WithClock(steppingClock()))
	base := newFixtureWithStore(t, store)
	prof := base.instructor(t, "Ada Prof")
	alice := base.student(t, "Alice")
	broken := base.student(t, "Broken")
	carol := base.student(t, "Carol")
	course := base.course(t, prof.ID, "CS233", 1)

	seated := base.enroll(t, alice.ID, course.ID)
	_, err := base.svc.Enrollment.ApproveEnrollment(ctx, seated.ID)
	require.NoError(t, err)
	for _, s := range []*models.User{broken, carol} {
		_, err := base.svc.Notification.Subscribe(ctx, s.ID, course.ID)
		require.NoError(t, err)
	}

	f := newFixtureWithStore(t, &flakyStore{Store: store, failFor: broken.ID})
	rejected, err := f.svc.Enrollment.RejectEnrollment(ctx, seated.ID)
	require.NoError(t, err, "a failed delivery must not fail the rejection")
	assert.Equal(t, models.EnrollmentRejected, rejected.Status)
	assert.Equal(t, 1, f.seats(t, course.ID))

	assert.Len(t, f.alerts(t, carol.ID), 1)
	assert.Empty(t, f.alerts(t, broken.ID))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	course := f.course(t, prof.ID, "CS101", 2)
	e := f.enroll(t, f.student(t, "Alice").ID, course.ID)

	_, err := f.svc.Enrollment.UpdateStatus(ctx, e.ID, models.EnrollmentPending)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.Enrollment.UpdateStatus(ctx, e.ID, "waitlisted")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	updated, err := f.svc.Enrollment.UpdateStatus(ctx, e.ID, models.EnrollmentApproved)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentApproved, updated.Status)

	updated, err = f.svc.Enrollment.UpdateStatus(ctx, e.ID, models.EnrollmentRejected)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentRejected, updated.Status)
	assert.Equal(t, 2, f.seats(t, course.ID))
}

func TestListEnrollments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	prof := f.instructor(t, "Ada Prof")
	alice := f.student(t, "Alice")
	bob := f.student(t, "Bob")
	cs101 := f.course(t, prof.ID, "CS101", 5)
	cs250 := f.course(t, prof.ID, "CS250", 5)

	first := f.enroll(t, alice.ID, cs101.ID)
	second := f.enroll(t, bob.ID, cs101.ID)
	third := f.enroll(t, alice.ID, cs250.ID)

	byCourse, err := f.svc.Enrollment.ListEnrollmentsByCourse(ctx, cs101.ID)
	require.NoError(t, err)
	require.Len(t, byCourse, 2)
	assert.Equal(t, second.ID, byCourse[0].ID)
	assert.Equal(t, first.ID, byCourse[1].ID)
	assert.Equal(t, "Bob", byCourse[0].StudentName)
	assert.Equal(t, "CS101", byCourse[0].CourseCode)

	byStudent, err := f.svc.Enrollment.ListEnrollmentsByStudent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
	assert.Equal(t, third.ID, byStudent[0].ID)
	assert.Equal(t, "CS250", byStudent[0].CourseCode)

	_, err = f.svc.Enrollment.ListEnrollmentsByCourse(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	_, err = f.svc.Enrollment.ListEnrollmentsByStudent(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
