package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the storage contract for appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Appointment, error)
	ListByHospital(ctx context.Context, hospitalID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error)
	Stats(ctx context.Context, hospitalID uuid.UUID) (*Stats, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	DueForReminder(ctx context.Context, from, to time.Time) ([]*Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
