package database

import (
	"context"

	"github.com/emilythestrangee/anime-awards/backend/internal/awards"
	"github.com/emilythestrangee/anime-awards/backend/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error, awards.ErrConflict)
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Save(user).Error, awards.ErrConflict)
}

func (s *Store) UserByID(ctx context.Context, id int) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	return user, translate(err, awards.ErrConflict)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	return user, translate(err, awards.ErrConflict)
}

// UserByGoogle finds an account linked to the Google subject or, failing
// that, one registered with the same email.
func (s *Store) UserByGoogle(ctx context.Context, googleID, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("google_id = ? OR email = ?", googleID, email).
		Order("google_id = '' asc").
		Take(&user).Error
	return user, translate(err, awards.ErrConflict)
}

func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error
	return n > 0, err
}

// SetRoles updates the capabilities that are non-nil and returns the user.
func (s *Store) SetRoles(ctx context.Context, id int, isAdmin, isJury *bool) (models.User, error) {
	updates := map[string]any{}
	if isAdmin != nil {
		updates["is_admin"] = *isAdmin
	}
	if isJury != nil {
		updates["is_jury"] = *isJury
	}

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return models.User{}, res.Error
		}
		if res.RowsAffected == 0 {
			return models.User{}, awards.ErrNotFound
		}
	}
	return s.UserByID(ctx, id)
}
