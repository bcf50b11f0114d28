// Package services holds the business logic. Services talk to storage only
// through repositories.Store and return apperrors kinds for the HTTP layer
// to map.
package services

import (
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/pkg/auth"
)

// Services bundles the application services
type Services struct {
	Auth         *AuthService
	Course       *CourseService
	Enrollment   *EnrollmentService
	Notification *NotificationService
}

// Options configures NewServices
type Options struct {
	// Publisher relays notification events; nil disables relaying
	Publisher EventPublisher
	// FanoutConcurrency bounds parallel deliveries in a seat fan-out
	FanoutConcurrency int
}

// NewServices wires every service over one store
func NewServices(store repositories.Store, jwtService *auth.JWTService, opts Options, logger zerolog.Logger) *Services {
	notifications := NewNotificationService(store, opts.Publisher, opts.FanoutConcurrency,
		logger.With().Str("service", "notification").Logger())

	return &Services{
		Auth:         NewAuthService(store, jwtService, logger.With().Str("service", "auth").Logger()),
		Course:       NewCourseService(store, notifications, logger.With().Str("service", "course").Logger()),
		Enrollment:   NewEnrollmentService(store, notifications, logger.With().Str("service", "enrollment").Logger()),
		Notification: notifications,
	}
}
