package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/apperrors"
	"golang.org/x/sync/errgroup"
)

// EventPublisher relays JSON events to an external broker
type EventPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// NotificationEvent is the payload relayed for every created notification
type NotificationEvent struct {
	Type           string                  `json:"type"`
	NotificationID int64                   `json:"notificationId"`
	StudentID      int64                   `json:"studentId"`
	CourseID       int64                   `json:"courseId"`
	Kind           models.NotificationKind `json:"kind"`
	Message        string                  `json:"message"`
	CreatedAt      time.Time               `json:"createdAt"`
}

const eventNotificationCreated = "notification.created"

// NotificationService manages the notification outbox: alerts, subscription
// markers and the seat-reopened fan-out.
type NotificationService struct {
	store       repositories.Store
	publisher   EventPublisher
	concurrency int
	logger      zerolog.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be
// nil; concurrency bounds parallel deliveries in a fan-out.
func NewNotificationService(store repositories.Store, publisher EventPublisher, concurrency int, logger zerolog.Logger) *NotificationService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &NotificationService{
		store:       store,
		publisher:   publisher,
		concurrency: concurrency,
		logger:      logger,
	}
}

func seatAvailableMessage(course *models.Course) string {
	return fmt.Sprintf("A seat is now available for %s - %s", course.CourseCode, course.Title)
}

func approvedMessage(course *models.Course) string {
	return fmt.Sprintf("Your enrollment for %s - %s has been approved.", course.CourseCode, course.Title)
}

func subscribedMessage(course *models.Course) string {
	return fmt.Sprintf("Subscribed to seat notifications for %s - %s", course.CourseCode, course.Title)
}

// Subscribe registers the student for a seat-available alert on the course
func (s *NotificationService) Subscribe(ctx context.Context, studentID, courseID int64) (*models.Notification, error) {
	course, err := s.store.Courses().GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}

	student, err := s.store.Users().GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if !student.IsStudent() {
		return nil, apperrors.ErrNotStudent
	}

	marker := &models.Notification{
		StudentID: studentID,
		CourseID:  courseID,
		Kind:      models.NotificationSubscription,
		Message:   subscribedMessage(course),
	}
	if err := s.store.Notifications().CreateSubscription(ctx, marker); err != nil {
		if !apperrors.Is(err, apperrors.ErrAlreadySubscribed) {
			s.logger.Error().Err(err).Int64("studentID", studentID).Int64("courseID", courseID).Msg("Failed to create subscription")
		}
		return nil, err
	}

	s.logger.Info().Int64("studentID", studentID).Int64("courseID", courseID).Msg("Student subscribed to seat notifications")
	s.publish(ctx, marker)
	return marker, nil
}

// Unsubscribe deactivates the student's active subscription on the course
func (s *NotificationService) Unsubscribe(ctx context.Context, studentID, courseID int64) error {
	if _, err := s.store.Courses().GetByID(ctx, courseID); err != nil {
		return err
	}
	return s.store.Notifications().DeactivateSubscription(ctx, studentID, courseID)
}

// ListForStudent returns the student's alerts, newest first
func (s *NotificationService) ListForStudent(ctx context.Context, studentID int64) ([]*models.NotificationDetail, error) {
	if _, err := s.store.Users().GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.store.Notifications().ListAlertsByStudent(ctx, studentID)
}

// UnreadCount returns the number of unread alerts for the student
func (s *NotificationService) UnreadCount(ctx context.Context, studentID int64) (int, error) {
	if _, err := s.store.Users().GetByID(ctx, studentID); err != nil {
		return 0, err
	}
	return s.store.Notifications().CountUnreadAlerts(ctx, studentID)
}

// MarkAsRead flips an alert to read. Marking an already read alert is a no-op.
func (s *NotificationService) MarkAsRead(ctx context.Context, id int64) (*models.Notification, error) {
	return s.store.Notifications().MarkAsRead(ctx, id)
}

// Publish relays an already stored notification to the broker, if any
func (s *NotificationService) Publish(ctx context.Context, n *models.Notification) {
	s.publish(ctx, n)
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if s.publisher == nil {
		return
	}
	event := NotificationEvent{
		Type:           eventNotificationCreated,
		NotificationID: n.ID,
		StudentID:      n.StudentID,
		CourseID:       n.CourseID,
		Kind:           n.Kind,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
	if err := s.publisher.PublishJSON(ctx, event); err != nil {
		s.logger.Warn().Err(err).Int64("notificationID", n.ID).Msg("Failed to relay notification event")
	}
}

// NotifySeatAvailable alerts every active subscriber and every pending
// applicant of the course, once each. A failed delivery is logged and
// collected; it never stops the other deliveries. It returns the number of
// alerts created and the joined delivery errors.
func (s *NotificationService) NotifySeatAvailable(ctx context.Context, course *models.Course) (int, error) {
	subscribers, err := s.store.Notifications().ActiveSubscriberIDs(ctx, course.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load subscribers: %w", err)
	}
	pending, err := s.store.Enrollments().PendingStudentIDs(ctx, course.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending applicants: %w", err)
	}

	recipients := mergeRecipients(subscribers, pending)
	if len(recipients) == 0 {
		return 0, nil
	}

	message := seatAvailableMessage(course)

	var (
		mu        sync.Mutex
		delivered int
		failures  []error
		g         errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, studentID := range recipients {
		g.Go(func() error {
			alert := &models.Notification{
				StudentID: studentID,
				CourseID:  course.ID,
				Kind:      models.NotificationAlert,
				Message:   message,
			}
			if err := s.store.Notifications().Create(ctx, alert); err != nil {
				s.logger.Error().Err(err).
					Int64("studentID", studentID).
					Int64("courseID", course.ID).
					Msg("Failed to deliver seat available notification")
				mu.Lock()
				failures = append(failures, fmt.Errorf("student %d: %w", studentID, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			delivered++
			mu.Unlock()
			s.publish(ctx, alert)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().
		Int64("courseID", course.ID).
		Int("recipients", len(recipients)).
		Int("delivered", delivered).
		Msg("Seat available notifications sent")

	return delivered, errors.Join(failures...)
}

// mergeRecipients returns the sorted union of the given id lists
func mergeRecipients(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
