package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage contract for hospitals.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	Update(ctx context.Context, h *Hospital) error
	Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Hospital, int, error)
	ListAll(ctx context.Context) ([]*Hospital, error)
	FilterOptions(ctx context.Context) (*FilterOptions, error)
}
