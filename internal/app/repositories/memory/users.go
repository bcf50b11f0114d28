package memory

import (
	"context"
	"strings"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/apperrors"
)

type userRepository struct {
	s session
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.s.do(func(d *data) error {
		for _, existing := range d.users {
			if strings.EqualFold(existing.Email, user.Email) {
				return apperrors.ErrEmailAlreadyExists
			}
		}
		d.lastUserID++
		now := r.s.now()
		user.ID = d.lastUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		d.touchUser(user.ID)
		d.users[user.ID] = copyUser(user)
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.User
	err := r.s.do(func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return apperrors.ErrUserNotFound
		}
		user = copyUser(u)
		return nil
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var user *models.User
	err := r.s.do(func(d *data) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, email) {
				user = copyUser(u)
				return nil
			}
		}
		return apperrors.ErrUserNotFound
	})
	return user, err
}
