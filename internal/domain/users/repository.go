package users

import "context"

// Directory es lo único que los otros módulos necesitan de users.
type Directory interface {
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
}

type Repository interface {
	Directory
	Create(ctx context.Context, u User) error
}
