package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorsWrapTheirKind(t *testing.T) {
	wrapped := fmt.Errorf("approve enrollment: %w", ErrNoSeatsAvailable)

	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrResourceNotFound)
	assert.True(t, Is(wrapped, ErrResourceNotFound, ErrConflict))
	assert.False(t, Is(wrapped, ErrResourceNotFound))

	assert.ErrorIs(t, ErrCourseHasNotifications, ErrConflict)
	assert.ErrorIs(t, NewValidationError("bad seats"), ErrValidationFailed)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "no seats available", Message(fmt.Errorf("approve: %w", ErrNoSeatsAvailable)))
	assert.Equal(t, "disk on fire", Message(errors.New("disk on fire")))
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "conflict", (&CustomError{Err: ErrConflict}).Error())
}
