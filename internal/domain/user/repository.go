package user

import "context"

type Repository interface {
	Get(ctx context.Context, id int64) (*User, error)
	// GetForUpdate loads the user and holds it for the rest of the unit of work.
	GetForUpdate(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Insert(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}
