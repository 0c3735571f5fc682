// Package appointment implements patient bookings against hospitals: booking
// and cancellation by patients, status management by hospital admins, and the
// realtime notifications each of those emits.
package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/healthconnect/healthconnect/internal/realtime"
)

// Status of an appointment. Transitions are restricted to the table below;
// everything else is rejected server-side.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	// rejected, cancelled and completed are terminal
}

// CanTransition reports whether an appointment may move from one status to
// another.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is a known appointment status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment is one booking. PatientName, PatientEmail and HospitalName are
// join artifacts populated on reads, never stored.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	HospitalID   uuid.UUID `json:"hospitalId"`
	Date         time.Time `json:"date"`
	TimeSlot     string    `json:"time"`
	Reason       string    `json:"reason"`
	Status       Status    `json:"status"`
	ReminderSent bool      `json:"reminderSent"`
	CreatedAt    time.Time `json:"createdAt"`

	PatientName  string `json:"patientName,omitempty"`
	PatientEmail string `json:"-"`
	HospitalName string `json:"hospitalName,omitempty"`
}

// StartsAt combines the date and time slot into the appointment's start
// instant.
func (a *Appointment) StartsAt() time.Time {
	slot, err := time.Parse("15:04", a.TimeSlot)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(),
		slot.Hour(), slot.Minute(), 0, 0, a.Date.Location())
}

func (a *Appointment) toRecord() realtime.AppointmentRecord {
	return realtime.AppointmentRecord{
		ID:           a.ID.String(),
		UserID:       a.UserID.String(),
		HospitalID:   a.HospitalID.String(),
		Date:         a.Date,
		Time:         a.TimeSlot,
		Reason:       a.Reason,
		Status:       string(a.Status),
		PatientName:  a.PatientName,
		HospitalName: a.HospitalName,
	}
}

// Filters narrow the admin appointment list.
type Filters struct {
	Status Status
	Date   string // YYYY-MM-DD
	Search string // substring of patient name
}

// Stats is the admin list's summary block.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}

// CreateRequest is the booking payload.
type CreateRequest struct {
	HospitalID uuid.UUID `json:"hospitalId"`
	Date       string    `json:"date"` // YYYY-MM-DD
	Time       string    `json:"time"` // HH:MM
	Reason     string    `json:"reason"`
}
