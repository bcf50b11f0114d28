// Package memory is an in-process implementation of repositories.Store.
// A single mutex guards all tables. Transactions write in place and keep a
// journal of the first prior version of every row they touch, which is
// restored when the transaction fails.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
)

type data struct {
	users         map[int64]*models.User
	courses       map[int64]*models.Course
	enrollments   map[int64]*models.Enrollment
	notifications map[int64]*models.Notification

	lastUserID         int64
	lastCourseID       int64
	lastEnrollmentID   int64
	lastNotificationID int64

	journal *journal
}

func newData() *data {
	return &data{
		users:         make(map[int64]*models.User),
		courses:       make(map[int64]*models.Course),
		enrollments:   make(map[int64]*models.Enrollment),
		notifications: make(map[int64]*models.Notification),
	}
}

// journal holds the pre-transaction version of each touched row. A nil
// entry means the row did not exist.
type journal struct {
	users         map[int64]*models.User
	courses       map[int64]*models.Course
	enrollments   map[int64]*models.Enrollment
	notifications map[int64]*models.Notification

	lastUserID         int64
	lastCourseID       int64
	lastEnrollmentID   int64
	lastNotificationID int64
}

func (d *data) begin() {
	d.journal = &journal{
		users:              make(map[int64]*models.User),
		courses:            make(map[int64]*models.Course),
		enrollments:        make(map[int64]*models.Enrollment),
		notifications:      make(map[int64]*models.Notification),
		lastUserID:         d.lastUserID,
		lastCourseID:       d.lastCourseID,
		lastEnrollmentID:   d.lastEnrollmentID,
		lastNotificationID: d.lastNotificationID,
	}
}

func (d *data) commit() {
	d.journal = nil
}

// rollback puts every touched row back the way it was before begin
func (d *data) rollback() {
	j := d.journal
	if j == nil {
		return
	}
	d.journal = nil

	restore(d.users, j.users)
	restore(d.courses, j.courses)
	restore(d.enrollments, j.enrollments)
	restore(d.notifications, j.notifications)

	d.lastUserID = j.lastUserID
	d.lastCourseID = j.lastCourseID
	d.lastEnrollmentID = j.lastEnrollmentID
	d.lastNotificationID = j.lastNotificationID
}

func restore[T any](table, saved map[int64]*T) {
	for id, prev := range saved {
		if prev == nil {
			delete(table, id)
			continue
		}
		table[id] = prev
	}
}

// save journals the current version of a row before its first change in
// the running transaction.
func save[T any](saved, table map[int64]*T, id int64, copyFn func(*T) *T) {
	if _, ok := saved[id]; ok {
		return
	}
	if cur, ok := table[id]; ok {
		saved[id] = copyFn(cur)
		return
	}
	saved[id] = nil
}

// The touch helpers must run before a row is inserted, replaced, mutated
// or deleted. Outside a transaction they do nothing.

func (d *data) touchUser(id int64) {
	if d.journal != nil {
		save(d.journal.users, d.users, id, copyUser)
	}
}

func (d *data) touchCourse(id int64) {
	if d.journal != nil {
		save(d.journal.courses, d.courses, id, copyCourse)
	}
}

func (d *data) touchEnrollment(id int64) {
	if d.journal != nil {
		save(d.journal.enrollments, d.enrollments, id, copyEnrollment)
	}
}

func (d *data) touchNotification(id int64) {
	if d.journal != nil {
		save(d.journal.notifications, d.notifications, id, copyNotification)
	}
}

// session gives a repository access to the tables. The root session locks
// per call; a transaction session is already running under the store lock.
type session interface {
	do(fn func(d *data) error) error
	now() time.Time
}

// Store is the in-memory store. The zero value is not usable; call New.
type Store struct {
	mu    sync.Mutex
	data  *data
	clock func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for timestamps
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		data:  newData(),
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ repositories.Store = (*Store)(nil)

func (s *Store) do(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

func (s *Store) now() time.Time {
	return s.clock()
}

func (s *Store) Users() repositories.UserRepository {
	return &userRepository{s: s}
}

func (s *Store) Courses() repositories.CourseRepository {
	return &courseRepository{s: s}
}

func (s *Store) Enrollments() repositories.EnrollmentRepository {
	return &enrollmentRepository{s: s}
}

func (s *Store) Notifications() repositories.NotificationRepository {
	return &notificationRepository{s: s}
}

// WithTx holds the store lock for the whole of fn, so transactions are
// serialized and readers never see uncommitted rows. fn must use the tx
// view; calling back into s would deadlock. A failed or panicking fn leaves
// the data as it was.
func (s *Store) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.begin()
	committed := false
	defer func() {
		if !committed {
			s.data.rollback()
		}
	}()

	if err := fn(&txStore{d: s.data, clock: s.clock}); err != nil {
		return err
	}
	s.data.commit()
	committed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

type txStore struct {
	d     *data
	clock func() time.Time
}

func (t *txStore) do(fn func(d *data) error) error {
	return fn(t.d)
}

func (t *txStore) now() time.Time {
	return t.clock()
}

func (t *txStore) Users() repositories.UserRepository {
	return &userRepository{s: t}
}

func (t *txStore) Courses() repositories.CourseRepository {
	return &courseRepository{s: t}
}

func (t *txStore) Enrollments() repositories.EnrollmentRepository {
	return &enrollmentRepository{s: t}
}

func (t *txStore) Notifications() repositories.NotificationRepository {
	return &notificationRepository{s: t}
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t)
}

func (t *txStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (t *txStore) Close() {}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Department != nil {
		dept := *u.Department
		c.Department = &dept
	}
	return &c
}

func copyCourse(course *models.Course) *models.Course {
	c := *course
	c.Prerequisites = make([]string, len(course.Prerequisites))
	copy(c.Prerequisites, course.Prerequisites)
	return &c
}

func copyEnrollment(e *models.Enrollment) *models.Enrollment {
	c := *e
	return &c
}

func copyNotification(n *models.Notification) *models.Notification {
	c := *n
	return &c
}
