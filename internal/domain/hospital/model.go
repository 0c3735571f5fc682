// Package hospital implements the hospital directory: searchable listings,
// per-hospital detail, and the admin mutations (beds, facility status, info,
// notes) that feed the realtime broadcast layer.
package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital is a facility listing. AvailableBeds is the live headline number;
// ICU and emergency counts are tracked separately and never subtracted from it.
type Hospital struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	City               string            `json:"city"`
	Address            string            `json:"address"`
	ContactNumber      string            `json:"contactNumber"`
	Email              string            `json:"email"`
	Website            string            `json:"website,omitempty"`
	TotalBeds          int               `json:"totalBeds"`
	AvailableBeds      int               `json:"availableBeds"`
	ICUBeds            int               `json:"icuBeds"`
	EmergencyBeds      int               `json:"emergencyBeds"`
	Facilities         []string          `json:"facilities"`
	FacilityStatus     map[string]string `json:"facilityStatus"`
	MedicalSpecialties []string          `json:"medicalSpecialties"`
	Rating             float64           `json:"rating"`
	Notes              string            `json:"notes,omitempty"`
	LastUpdated        time.Time         `json:"lastUpdated"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// SearchParams are the public listing filters. Zero values mean "no filter".
type SearchParams struct {
	City          string // case-insensitive match
	Facility      string // exact facility name
	AvailableOnly bool   // availableBeds > 0
	Search        string // substring of name
	SortBy        string // "beds" (default, desc), "name", "updated"
}

// FilterOptions feeds the search UI's dropdowns.
type FilterOptions struct {
	Cities     []string `json:"cities"`
	Facilities []string `json:"facilities"`
}

// Dashboard is the admin overview block.
type Dashboard struct {
	Hospital          *Hospital `json:"hospital"`
	OccupancyRate     float64   `json:"occupancyRate"`
	CriticalOccupancy bool      `json:"criticalOccupancy"`
	UpdatedMinutesAgo int       `json:"updatedMinutesAgo"`
}

// InfoUpdate carries the admin-editable profile fields. Nil pointers leave
// the stored value untouched.
type InfoUpdate struct {
	Name               *string   `json:"name"`
	City               *string   `json:"city"`
	Address            *string   `json:"address"`
	ContactNumber      *string   `json:"contactNumber"`
	Email              *string   `json:"email"`
	Website            *string   `json:"website"`
	TotalBeds          *int      `json:"totalBeds"`
	MedicalSpecialties *[]string `json:"medicalSpecialties"`
	Rating             *float64  `json:"rating"`
}

// BedUpdate carries the bed-count mutation. AvailableBeds is required; the
// ICU and emergency counts are optional.
type BedUpdate struct {
	AvailableBeds *int `json:"availableBeds"`
	ICUBeds       *int `json:"icuBeds"`
	EmergencyBeds *int `json:"emergencyBeds"`
}
