package hospital

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/realtime"
)

// Broadcaster is the slice of the realtime hub this service uses. Broadcasts
// happen only after a successful write and never fail the write.
type Broadcaster interface {
	BroadcastToRoom(room string, ev realtime.Event)
}

type Service struct {
	repo   Repository
	hub    Broadcaster
	logger zerolog.Logger
}

func NewService(repo Repository, hub Broadcaster, logger zerolog.Logger) *Service {
	return &Service{repo: repo, hub: hub, logger: logger.With().Str("component", "hospital").Logger()}
}

func (s *Service) Search(ctx context.Context, params SearchParams, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.Search(ctx, params, limit, offset)
}

func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	return s.repo.FilterOptions(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

// Dashboard computes the admin overview for one hospital. Occupancy above 90%
// is flagged critical.
func (s *Service) Dashboard(ctx context.Context, id uuid.UUID) (*Dashboard, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var rate float64
	if h.TotalBeds > 0 {
		rate = math.Round(float64(h.TotalBeds-h.AvailableBeds) / float64(h.TotalBeds) * 100)
	}
	return &Dashboard{
		Hospital:          h,
		OccupancyRate:     rate,
		CriticalOccupancy: rate > 90,
		UpdatedMinutesAgo: int(time.Since(h.LastUpdated).Minutes()),
	}, nil
}

// UpdateBeds applies a bed-count change and, on success, broadcasts the new
// available count to the hospital's room.
func (s *Service) UpdateBeds(ctx context.Context, id uuid.UUID, upd BedUpdate) (*Hospital, error) {
	if upd.AvailableBeds == nil {
		return nil, fmt.Errorf("availableBeds is required")
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if *upd.AvailableBeds < 0 {
		return nil, fmt.Errorf("availableBeds cannot be negative")
	}
	if *upd.AvailableBeds > h.TotalBeds {
		return nil, fmt.Errorf("availableBeds cannot exceed totalBeds (%d)", h.TotalBeds)
	}
	h.AvailableBeds = *upd.AvailableBeds
	if upd.ICUBeds != nil {
		if *upd.ICUBeds < 0 {
			return nil, fmt.Errorf("icuBeds cannot be negative")
		}
		h.ICUBeds = *upd.ICUBeds
	}
	if upd.EmergencyBeds != nil {
		if *upd.EmergencyBeds < 0 {
			return nil, fmt.Errorf("emergencyBeds cannot be negative")
		}
		h.EmergencyBeds = *upd.EmergencyBeds
	}
	h.LastUpdated = time.Now().UTC()

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(h.ID.String(), realtime.BedAvailabilityChanged{
			HospitalID:    h.ID.String(),
			AvailableBeds: h.AvailableBeds,
			LastUpdated:   h.LastUpdated,
		})
	}
	return h, nil
}

// UpdateFacilityStatus merges status entries into the hospital's facility
// map. The broadcast carries the full merged map, so clients replace rather
// than patch their local copy.
func (s *Service) UpdateFacilityStatus(ctx context.Context, id uuid.UUID, updates map[string]string) (*Hospital, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no facility updates given")
	}

	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(h.Facilities))
	for _, f := range h.Facilities {
		known[f] = true
	}
	if h.FacilityStatus == nil {
		h.FacilityStatus = map[string]string{}
	}
	for facility, status := range updates {
		if !known[facility] {
			return nil, fmt.Errorf("unknown facility %q", facility)
		}
		if status == "" {
			return nil, fmt.Errorf("empty status for facility %q", facility)
		}
		h.FacilityStatus[facility] = status
	}
	h.LastUpdated = time.Now().UTC()

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(h.ID.String(), realtime.FacilityStatusChanged{
			HospitalID:     h.ID.String(),
			FacilityStatus: h.FacilityStatus,
			LastUpdated:    h.LastUpdated,
		})
	}
	return h, nil
}

// UpdateInfo applies profile edits and broadcasts only the fields that
// actually changed.
func (s *Service) UpdateInfo(ctx context.Context, id uuid.UUID, upd InfoUpdate) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changed := map[string]interface{}{}
	if upd.Name != nil && *upd.Name != h.Name {
		if *upd.Name == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		h.Name = *upd.Name
		changed["name"] = h.Name
	}
	if upd.City != nil && *upd.City != h.City {
		h.City = *upd.City
		changed["city"] = h.City
	}
	if upd.Address != nil && *upd.Address != h.Address {
		h.Address = *upd.Address
		changed["address"] = h.Address
	}
	if upd.ContactNumber != nil && *upd.ContactNumber != h.ContactNumber {
		h.ContactNumber = *upd.ContactNumber
		changed["contactNumber"] = h.ContactNumber
	}
	if upd.Email != nil && *upd.Email != h.Email {
		h.Email = *upd.Email
		changed["email"] = h.Email
	}
	if upd.Website != nil && *upd.Website != h.Website {
		h.Website = *upd.Website
		changed["website"] = h.Website
	}
	if upd.TotalBeds != nil && *upd.TotalBeds != h.TotalBeds {
		if *upd.TotalBeds < 0 {
			return nil, fmt.Errorf("totalBeds cannot be negative")
		}
		if *upd.TotalBeds < h.AvailableBeds {
			return nil, fmt.Errorf("totalBeds cannot be below current availableBeds (%d)", h.AvailableBeds)
		}
		h.TotalBeds = *upd.TotalBeds
		changed["totalBeds"] = h.TotalBeds
	}
	if upd.MedicalSpecialties != nil {
		h.MedicalSpecialties = *upd.MedicalSpecialties
		changed["medicalSpecialties"] = h.MedicalSpecialties
	}
	if upd.Rating != nil && *upd.Rating != h.Rating {
		if *upd.Rating < 0 || *upd.Rating > 5 {
			return nil, fmt.Errorf("rating must be between 0 and 5")
		}
		h.Rating = *upd.Rating
		changed["rating"] = h.Rating
	}

	if len(changed) == 0 {
		return h, nil
	}
	h.LastUpdated = time.Now().UTC()

	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(h.ID.String(), realtime.HospitalInfoChanged{
			HospitalID:  h.ID.String(),
			Changed:     changed,
			LastUpdated: h.LastUpdated,
		})
	}
	return h, nil
}

// UpdateNotes stores admin notes. Notes are internal, so nothing is broadcast.
func (s *Service) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Hospital, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	h.Notes = notes
	h.LastUpdated = time.Now().UTC()
	if err := s.repo.Update(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

// FacilityStatus returns the current facility map for the admin view.
func (s *Service) FacilityStatus(ctx context.Context, id uuid.UUID) (map[string]string, error) {
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.FacilityStatus == nil {
		return map[string]string{}, nil
	}
	return h.FacilityStatus, nil
}
