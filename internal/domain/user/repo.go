package user

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	HospitalHasAdmin(ctx context.Context, hospitalID uuid.UUID) (bool, error)
}
