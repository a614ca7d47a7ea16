package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"patient-access/internal/domain/users"
)

type UsersRepo struct {
	db *sql.DB
}

func NewUsersRepo(db *sql.DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		u.ID,
		u.Name,
		users.NormalizeEmail(u.Email),
		string(u.Role),
		u.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return users.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (users.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (users.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *UsersRepo) findOne(ctx context.Context, where string, arg string) (users.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, email, role, created_at
		FROM users
	`+where, arg)

	var u users.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, err
	}
	u.Role = users.Role(role)
	return u, nil
}
