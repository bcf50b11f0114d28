package postgres

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/registrar/internal/app/migrations"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/db"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

// openStore connects with the DB_* environment variables. Set
// REGISTRAR_POSTGRES_TESTS=1 against a disposable database to run these.
func openStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("REGISTRAR_POSTGRES_TESTS") == "" {
		t.Skip("REGISTRAR_POSTGRES_TESTS not set")
	}
	t.Setenv("STORAGE_DRIVER", config.StoragePostgres)
	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "test")
	}

	ctx := context.Background()
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	pg, err := db.NewPostgresDB(ctx, cfg)
	require.NoError(t, err)

	migrator := migrations.NewMigrator(pg.Pool, zerolog.Nop())
	require.NoError(t, migrator.MigrateFromDirectory(ctx, "../../../../migrations"))

	_, err = pg.Pool.Exec(ctx, `TRUNCATE notifications, enrollments, courses, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	store := NewStore(pg)
	t.Cleanup(store.Close)
	return store
}

func seedUsers(t *testing.T, s *Store) (instructor, alice, bob *models.User) {
	t.Helper()
	ctx := context.Background()
	mk := func(name, email string, role models.RoleType) *models.User {
		u := &models.User{Name: name, Email: email, Password: "x", RoleType: role, UniversityID: name}
		require.NoError(t, s.Users().Create(ctx, u))
		return u
	}
	return mk("Ada", "ada@uni.edu", models.RoleInstructor),
		mk("Alice", "alice@uni.edu", models.RoleStudent),
		mk("Bob", "bob@uni.edu", models.RoleStudent)
}

func TestPostgres_UsersAndCourses(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada, _, _ := seedUsers(t, s)

	err := s.Users().Create(ctx, &models.User{Name: "Dup", Email: "ada@uni.edu", Password: "x", RoleType: models.RoleStudent, UniversityID: "D"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	found, err := s.Users().GetByEmail(ctx, "ada@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, found.ID)

	course := &models.Course{
		CourseCode: "CS101", Title: "Intro", InstructorID: ada.ID, Semester: "Fall 2025",
		TotalSeats: 2, AvailableSeats: 2, Prerequisites: []string{"MATH100"},
	}
	require.NoError(t, s.Courses().Create(ctx, course))
	assert.NotZero(t, course.ID)

	dup := *course
	assert.ErrorIs(t, s.Courses().Create(ctx, &dup), apperrors.ErrCourseCodeExists)

	got, err := s.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH100"}, got.Prerequisites)
	assert.Equal(t, "Ada", got.InstructorName)

	list, err := s.Courses().List(ctx, models.CourseFilter{Semester: "Fall 2025", InstructorID: ada.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Courses().GetByID(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestPostgres_SeatCounterBounds(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada, _, _ := seedUsers(t, s)
	course := &models.Course{CourseCode: "CS233", Title: "DS", InstructorID: ada.ID, Semester: "Fall 2025", TotalSeats: 1, AvailableSeats: 1}
	require.NoError(t, s.Courses().Create(ctx, course))

	_, err := s.Courses().IncrementSeat(ctx, course.ID)
	assert.ErrorIs(t, err, apperrors.ErrSeatCapacityReached)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Courses().DecrementSeat(ctx, course.ID); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperrors.ErrNoSeatsAvailable)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)

	got, err := s.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, got.AvailableSeats)
}

func TestPostgres_EnrollmentsAndTransactions(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada, alice, bob := seedUsers(t, s)
	course := &models.Course{CourseCode: "CS250", Title: "Systems", InstructorID: ada.ID, Semester: "Fall 2025", TotalSeats: 3, AvailableSeats: 3}
	require.NoError(t, s.Courses().Create(ctx, course))

	first := &models.Enrollment{StudentID: alice.ID, CourseID: course.ID, Status: models.EnrollmentPending}
	require.NoError(t, s.Enrollments().Create(ctx, first))
	err := s.Enrollments().Create(ctx, &models.Enrollment{StudentID: alice.ID, CourseID: course.ID, Status: models.EnrollmentPending})
	assert.ErrorIs(t, err, apperrors.ErrEnrollmentExists)
	err = s.Enrollments().Create(ctx, &models.Enrollment{StudentID: alice.ID, CourseID: 9999, Status: models.EnrollmentPending})
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)

	second := &models.Enrollment{StudentID: bob.ID, CourseID: course.ID, Status: models.EnrollmentPending}
	require.NoError(t, s.Enrollments().Create(ctx, second))

	details, err := s.Enrollments().ListByCourse(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, second.ID, details[0].ID)
	assert.Equal(t, "Bob", details[0].StudentName)

	pending, err := s.Enrollments().PendingStudentIDs(ctx, course.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{alice.ID, bob.ID}, pending)

	// A failing transaction leaves both the seat and the status untouched
	err = s.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.Courses().DecrementSeat(ctx, course.ID); err != nil {
			return err
		}
		if _, err := tx.Enrollments().UpdateStatus(ctx, first.ID, models.EnrollmentApproved); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := s.Courses().GetByID(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AvailableSeats)
	e, err := s.Enrollments().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentPending, e.Status)

	assert.ErrorIs(t, s.Courses().Delete(ctx, course.ID), apperrors.ErrCourseHasEnrollments)
}

func TestPostgres_Notifications(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	ada, alice, _ := seedUsers(t, s)
	course := &models.Course{CourseCode: "CS300", Title: "Compilers", InstructorID: ada.ID, Semester: "Fall 2025", TotalSeats: 1, AvailableSeats: 0}
	require.NoError(t, s.Courses().Create(ctx, course))

	marker := &models.Notification{StudentID: alice.ID, CourseID: course.ID, Kind: models.NotificationSubscription, Message: "sub"}
	require.NoError(t, s.Notifications().CreateSubscription(ctx, marker))
	again := &models.Notification{StudentID: alice.ID, CourseID: course.ID, Kind: models.NotificationSubscription, Message: "sub"}
	assert.ErrorIs(t, s.Notifications().CreateSubscription(ctx, again), apperrors.ErrAlreadySubscribed)

	subscribers, err := s.Notifications().ActiveSubscriberIDs(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{alice.ID}, subscribers)

	alert := &models.Notification{StudentID: alice.ID, CourseID: course.ID, Kind: models.NotificationAlert, Message: "seat"}
	require.NoError(t, s.Notifications().Create(ctx, alert))

	alerts, err := s.Notifications().ListAlertsByStudent(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "CS300", alerts[0].CourseCode)

	count, err := s.Notifications().CountUnreadAlerts(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = s.Notifications().MarkAsRead(ctx, marker.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotificationNotFound)
	read, err := s.Notifications().MarkAsRead(ctx, alert.ID)
	require.NoError(t, err)
	assert.True(t, read.Read)

	require.NoError(t, s.Notifications().DeactivateSubscription(ctx, alice.ID, course.ID))
	assert.ErrorIs(t, s.Notifications().DeactivateSubscription(ctx, alice.ID, course.ID), apperrors.ErrSubscriptionNotFound)
	require.NoError(t, s.Notifications().CreateSubscription(ctx, again))

	assert.ErrorIs(t, s.Courses().Delete(ctx, course.ID), apperrors.ErrCourseHasNotifications)
	_, err = s.Notifications().GetByID(ctx, alert.ID)
	assert.NoError(t, err)
	_, err = s.Courses().GetByID(ctx, course.ID)
	assert.NoError(t, err)
}
