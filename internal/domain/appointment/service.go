package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/hospital"
	"github.com/healthconnect/healthconnect/internal/realtime"
)

// Broadcaster is the slice of the realtime hub this service uses. Room
// broadcasts go to hospital dashboards; user sends go to the booking patient.
type Broadcaster interface {
	BroadcastToRoom(room string, ev realtime.Event)
	SendToUser(userID string, ev realtime.Event)
}

// HospitalDirectory resolves hospitals at booking time.
type HospitalDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

var (
	ErrNotOwner      = errors.New("appointment does not belong to this user")
	ErrWrongHospital = errors.New("appointment belongs to another hospital")
)

type Service struct {
	repo      Repository
	hospitals HospitalDirectory
	hub       Broadcaster
	logger    zerolog.Logger
}

func NewService(repo Repository, hospitals HospitalDirectory, hub Broadcaster, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		hospitals: hospitals,
		hub:       hub,
		logger:    logger.With().Str("component", "appointment").Logger(),
	}
}

// Create books an appointment for a patient and notifies the hospital room.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, username string, req CreateRequest) (*Appointment, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}
	if req.HospitalID == uuid.Nil {
		return nil, fmt.Errorf("hospitalId is required")
	}

	h, err := s.hospitals.GetByID(ctx, req.HospitalID)
	if err != nil {
		return nil, fmt.Errorf("hospital not found")
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date, want YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", req.Time); err != nil {
		return nil, fmt.Errorf("invalid time, want HH:MM")
	}

	a := &Appointment{
		UserID:       userID,
		HospitalID:   req.HospitalID,
		Date:         date,
		TimeSlot:     req.Time,
		Reason:       req.Reason,
		Status:       StatusPending,
		PatientName:  username,
		HospitalName: h.Name,
	}
	if a.StartsAt().Before(time.Now()) {
		return nil, fmt.Errorf("appointment must be in the future")
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	a.CreatedAt = time.Now().UTC()

	if s.hub != nil {
		s.hub.BroadcastToRoom(a.HospitalID.String(), realtime.NewAppointment{
			Appointment: a.toRecord(),
			Message:     fmt.Sprintf("New appointment booked by %s", username),
		})
	}
	return a, nil
}

// ListMine returns a patient's booking history, newest first.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Cancel lets the booking patient cancel a pending or confirmed appointment
// and notifies the hospital room.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrNotOwner
	}
	if !CanTransition(a.Status, StatusCancelled) {
		return nil, fmt.Errorf("cannot cancel a %s appointment", a.Status)
	}

	if err := s.repo.UpdateStatus(ctx, a.ID, StatusCancelled); err != nil {
		return nil, err
	}
	a.Status = StatusCancelled

	if s.hub != nil {
		s.hub.BroadcastToRoom(a.HospitalID.String(), realtime.AppointmentCancelled{
			Appointment: a.toRecord(),
			Message:     fmt.Sprintf("Appointment cancelled by %s", a.PatientName),
		})
	}
	return a, nil
}

// AdminList returns a hospital's appointments plus the summary stats block.
func (s *Service) AdminList(ctx context.Context, hospitalID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, *Stats, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, nil, fmt.Errorf("unknown status %q", f.Status)
	}
	appts, total, err := s.repo.ListByHospital(ctx, hospitalID, f, limit, offset)
	if err != nil {
		return nil, 0, nil, err
	}
	stats, err := s.repo.Stats(ctx, hospitalID)
	if err != nil {
		return nil, 0, nil, err
	}
	return appts, total, stats, nil
}

// UpdateStatus moves an appointment through the status machine on behalf of
// the owning hospital and notifies the booking patient directly. The hospital
// room gets nothing; dashboards already reflect their own action.
func (s *Service) UpdateStatus(ctx context.Context, id, hospitalID uuid.UUID, to Status) (*Appointment, error) {
	if !ValidStatus(to) {
		return nil, fmt.Errorf("unknown status %q", to)
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.HospitalID != hospitalID {
		return nil, ErrWrongHospital
	}
	if !CanTransition(a.Status, to) {
		return nil, fmt.Errorf("cannot move appointment from %s to %s", a.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, a.ID, to); err != nil {
		return nil, err
	}
	a.Status = to

	if s.hub != nil {
		s.hub.SendToUser(a.UserID.String(), realtime.AppointmentStatusChanged{
			Appointment: a.toRecord(),
			Status:      string(to),
			Message:     statusMessage(to, a.HospitalName),
		})
	}
	return a, nil
}

func statusMessage(to Status, hospitalName string) string {
	switch to {
	case StatusConfirmed:
		return fmt.Sprintf("Your appointment at %s has been confirmed", hospitalName)
	case StatusRejected:
		return fmt.Sprintf("Your appointment at %s has been rejected", hospitalName)
	case StatusCompleted:
		return fmt.Sprintf("Your appointment at %s has been marked completed", hospitalName)
	case StatusCancelled:
		return fmt.Sprintf("Your appointment at %s has been cancelled", hospitalName)
	}
	return fmt.Sprintf("Your appointment at %s has been updated", hospitalName)
}
