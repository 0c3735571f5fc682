// Package realtime implements the live update layer: a registry of connected
// users, hospital-scoped broadcast rooms, and a dispatcher that fans state
// changes out to room members or to a single registered user. Delivery is
// best-effort and at-most-once; clients that miss an event pick up current
// state on their next fetch.
package realtime

import "time"

// Event is a realtime message pushed to subscribed clients. The set of
// implementations below is closed: every mutation that broadcasts maps to
// exactly one of these payload shapes.
type Event interface {
	EventName() string
}

// BedAvailabilityChanged is sent to a hospital room after an admin updates
// the available bed count.
type BedAvailabilityChanged struct {
	HospitalID    string    `json:"hospitalId"`
	AvailableBeds int       `json:"availableBeds"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

func (BedAvailabilityChanged) EventName() string { return "bed-availability-changed" }

// FacilityStatusChanged carries the full facility-status map, not just the
// changed entry. Existing clients replace their whole map on receipt, so the
// asymmetry with BedAvailabilityChanged is kept for compatibility.
type FacilityStatusChanged struct {
	HospitalID     string            `json:"hospitalId"`
	FacilityStatus map[string]string `json:"facilityStatus"`
	LastUpdated    time.Time         `json:"lastUpdated"`
}

func (FacilityStatusChanged) EventName() string { return "facility-status-changed" }

// HospitalInfoChanged carries only the fields the admin actually changed.
type HospitalInfoChanged struct {
	HospitalID  string                 `json:"hospitalId"`
	Changed     map[string]interface{} `json:"changed"`
	LastUpdated time.Time              `json:"lastUpdated"`
}

func (HospitalInfoChanged) EventName() string { return "hospital-info-changed" }

// AppointmentRecord is the wire shape of an appointment inside realtime
// events. It mirrors the REST representation so dashboards can render the
// event without a follow-up fetch.
type AppointmentRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	HospitalID   string    `json:"hospitalId"`
	Date         time.Time `json:"date"`
	Time         string    `json:"time"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	PatientName  string    `json:"patientName,omitempty"`
	HospitalName string    `json:"hospitalName,omitempty"`
}

// NewAppointment is sent to the hospital room when a patient books.
type NewAppointment struct {
	Appointment AppointmentRecord `json:"appointment"`
	Message     string            `json:"message"`
}

func (NewAppointment) EventName() string { return "new-appointment" }

// AppointmentCancelled is sent to the hospital room when a patient cancels.
type AppointmentCancelled struct {
	Appointment AppointmentRecord `json:"appointment"`
	Message     string            `json:"message"`
}

func (AppointmentCancelled) EventName() string { return "appointment-cancelled" }

// AppointmentStatusChanged is sent to the booking patient when a hospital
// admin moves their appointment to a new status.
type AppointmentStatusChanged struct {
	Appointment AppointmentRecord `json:"appointment"`
	Status      string            `json:"status"`
	Message     string            `json:"message"`
}

func (AppointmentStatusChanged) EventName() string { return "appointment-status-changed" }

// Envelope is the server-to-client wire frame.
type Envelope struct {
	Event string `json:"event"`
	Data  Event  `json:"data"`
}
