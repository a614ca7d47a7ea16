package sqlite

import (
	"context"
	"errors"
	"strings"

	"patient-access/internal/domain/users"

	"gorm.io/gorm"
)

type UsersStore struct{ db *gorm.DB }

func NewUsersStore(db *gorm.DB) *UsersStore { return &UsersStore{db: db} }

func (s *UsersStore) Create(ctx context.Context, u users.User) error {
	row := userRow{
		ID:          u.ID,
		Name:        u.Name,
		Email:       users.NormalizeEmail(u.Email),
		Role:        string(u.Role),
		CreatedUnix: toUnix(u.CreatedAt),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return users.ErrEmailTaken
	}
	return err
}

func (s *UsersStore) FindByID(ctx context.Context, id string) (users.User, error) {
	return s.first(ctx, "id = ?", strings.TrimSpace(id))
}

func (s *UsersStore) FindByEmail(ctx context.Context, email string) (users.User, error) {
	return s.first(ctx, "email = ?", users.NormalizeEmail(email))
}

func (s *UsersStore) first(ctx context.Context, cond string, arg string) (users.User, error) {
	if arg == "" {
		return users.User{}, users.ErrNotFound
	}
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	return row.toDomain(), nil
}
