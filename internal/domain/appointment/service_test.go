package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/domain/hospital"
	"github.com/healthconnect/healthconnect/internal/realtime"
)

// -- Mocks --

type mockRepo struct {
	appts      map[uuid.UUID]*Appointment
	failCreate bool
	failUpdate bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	if m.failCreate {
		return fmt.Errorf("write failed")
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockRepo) ListByHospital(_ context.Context, hospitalID uuid.UUID, f Filters, limit, offset int) ([]*Appointment, int, error) {
	var result []*Appointment
	for _, a := range m.appts {
		if a.HospitalID != hospitalID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		result = append(result, a)
	}
	return result, len(result), nil
}

func (m *mockRepo) Stats(_ context.Context, hospitalID uuid.UUID) (*Stats, error) {
	s := &Stats{}
	for _, a := range m.appts {
		if a.HospitalID != hospitalID {
			continue
		}
		s.Total++
		switch a.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCancelled:
			s.Cancelled++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status) error {
	if m.failUpdate {
		return fmt.Errorf("write failed")
	}
	a, ok := m.appts[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	a.Status = status
	return nil
}

func (m *mockRepo) DueForReminder(_ context.Context, from, to time.Time) ([]*Appointment, error) {
	var result []*Appointment
	for _, a := range m.appts {
		start := a.StartsAt()
		if a.Status == StatusConfirmed && !a.ReminderSent && !start.Before(from) && start.Before(to) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	a, ok := m.appts[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	a.ReminderSent = true
	return nil
}

type mockHospitals struct {
	hospitals map[uuid.UUID]*hospital.Hospital
}

func (m *mockHospitals) GetByID(_ context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return h, nil
}

type recordingBroadcaster struct {
	rooms      []string
	roomEvents []realtime.Event
	users      []string
	userEvents []realtime.Event
}

func (r *recordingBroadcaster) BroadcastToRoom(room string, ev realtime.Event) {
	r.rooms = append(r.rooms, room)
	r.roomEvents = append(r.roomEvents, ev)
}

func (r *recordingBroadcaster) SendToUser(userID string, ev realtime.Event) {
	r.users = append(r.users, userID)
	r.userEvents = append(r.userEvents, ev)
}

type fixture struct {
	svc        *Service
	repo       *mockRepo
	bc         *recordingBroadcaster
	hospitalID uuid.UUID
	userID     uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	bc := &recordingBroadcaster{}
	hospID := uuid.New()
	hosps := &mockHospitals{hospitals: map[uuid.UUID]*hospital.Hospital{
		hospID: {ID: hospID, Name: "City General"},
	}}
	return &fixture{
		svc:        NewService(repo, hosps, bc, zerolog.Nop()),
		repo:       repo,
		bc:         bc,
		hospitalID: hospID,
		userID:     uuid.New(),
	}
}

func (f *fixture) book(t *testing.T) *Appointment {
	t.Helper()
	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	a, err := f.svc.Create(context.Background(), f.userID, "asha", CreateRequest{
		HospitalID: f.hospitalID,
		Date:       tomorrow,
		Time:       "10:30",
		Reason:     "checkup",
	})
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	return a
}

// -- Tests --

func TestCreate_BroadcastsNewAppointmentToHospitalRoom(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if a.Status != StatusPending {
		t.Errorf("new appointment should be pending, got %s", a.Status)
	}
	if len(f.bc.roomEvents) != 1 {
		t.Fatalf("expected one room broadcast, got %d", len(f.bc.roomEvents))
	}
	if f.bc.rooms[0] != f.hospitalID.String() {
		t.Errorf("broadcast to room %q, want %q", f.bc.rooms[0], f.hospitalID)
	}
	ev, ok := f.bc.roomEvents[0].(realtime.NewAppointment)
	if !ok {
		t.Fatalf("expected NewAppointment, got %T", f.bc.roomEvents[0])
	}
	if ev.Appointment.PatientName != "asha" || ev.Appointment.HospitalName != "City General" {
		t.Errorf("unexpected event payload: %+v", ev.Appointment)
	}
	if len(f.bc.userEvents) != 0 {
		t.Errorf("booking should not send user events, got %d", len(f.bc.userEvents))
	}
}

func TestCreate_ValidationFailuresBroadcastNothing(t *testing.T) {
	f := newFixture()
	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")

	cases := []CreateRequest{
		{HospitalID: f.hospitalID, Date: tomorrow, Time: "10:30"},                                  // no reason
		{HospitalID: uuid.New(), Date: tomorrow, Time: "10:30", Reason: "x"},                      // unknown hospital
		{HospitalID: f.hospitalID, Date: "not-a-date", Time: "10:30", Reason: "x"},                // bad date
		{HospitalID: f.hospitalID, Date: tomorrow, Time: "25:99", Reason: "x"},                    // bad time
		{HospitalID: f.hospitalID, Date: "2020-01-01", Time: "10:30", Reason: "x"},                // in the past
	}
	for i, req := range cases {
		if _, err := f.svc.Create(context.Background(), f.userID, "asha", req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
	if len(f.bc.roomEvents) != 0 {
		t.Errorf("expected zero broadcasts, got %d", len(f.bc.roomEvents))
	}
}

func TestCreate_WriteFailureBroadcastsNothing(t *testing.T) {
	f := newFixture()
	f.repo.failCreate = true

	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	_, err := f.svc.Create(context.Background(), f.userID, "asha", CreateRequest{
		HospitalID: f.hospitalID, Date: tomorrow, Time: "10:30", Reason: "checkup",
	})
	if err == nil {
		t.Fatal("expected error from failed write")
	}
	if len(f.bc.roomEvents) != 0 {
		t.Errorf("expected zero broadcasts after failed write, got %d", len(f.bc.roomEvents))
	}
}

func TestCancel_ByOwnerBroadcastsToRoom(t *testing.T) {
	f := newFixture()
	a := f.book(t)
	f.bc.roomEvents = nil
	f.bc.rooms = nil

	cancelled, err := f.svc.Cancel(context.Background(), a.ID, f.userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", cancelled.Status)
	}
	if len(f.bc.roomEvents) != 1 {
		t.Fatalf("expected one room broadcast, got %d", len(f.bc.roomEvents))
	}
	if _, ok := f.bc.roomEvents[0].(realtime.AppointmentCancelled); !ok {
		t.Fatalf("expected AppointmentCancelled, got %T", f.bc.roomEvents[0])
	}
}

func TestCancel_NotOwnerForbidden(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.Cancel(context.Background(), a.ID, uuid.New()); err != ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestCancel_TerminalStatusRejected(t *testing.T) {
	f := newFixture()
	a := f.book(t)
	f.repo.appts[a.ID].Status = StatusCompleted
	f.bc.roomEvents = nil

	if _, err := f.svc.Cancel(context.Background(), a.ID, f.userID); err == nil {
		t.Error("expected error cancelling a completed appointment")
	}
	if len(f.bc.roomEvents) != 0 {
		t.Errorf("expected zero broadcasts, got %d", len(f.bc.roomEvents))
	}
}

func TestUpdateStatus_ConfirmSendsExactlyOneUserEvent(t *testing.T) {
	f := newFixture()
	a := f.book(t)
	f.bc.roomEvents = nil

	updated, err := f.svc.UpdateStatus(context.Background(), a.ID, f.hospitalID, StatusConfirmed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}

	if len(f.bc.userEvents) != 1 {
		t.Fatalf("expected exactly one user event, got %d", len(f.bc.userEvents))
	}
	if f.bc.users[0] != f.userID.String() {
		t.Errorf("event sent to %q, want %q", f.bc.users[0], f.userID)
	}
	ev, ok := f.bc.userEvents[0].(realtime.AppointmentStatusChanged)
	if !ok {
		t.Fatalf("expected AppointmentStatusChanged, got %T", f.bc.userEvents[0])
	}
	if ev.Status != string(StatusConfirmed) {
		t.Errorf("unexpected status in event: %s", ev.Status)
	}
	// Status changes notify the patient only, never the hospital room.
	if len(f.bc.roomEvents) != 0 {
		t.Errorf("expected zero room broadcasts, got %d", len(f.bc.roomEvents))
	}
}

// Clients match on the capitalized status values, so the frame must carry
// "Confirmed", not "confirmed".
func TestUpdateStatus_FrameCarriesCapitalizedStatus(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, f.hospitalID, StatusConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.bc.userEvents) != 1 {
		t.Fatalf("expected one user event, got %d", len(f.bc.userEvents))
	}

	ev := f.bc.userEvents[0]
	frame, err := json.Marshal(realtime.Envelope{Event: ev.EventName(), Data: ev})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if !strings.Contains(string(frame), `"status":"Confirmed"`) {
		t.Errorf("frame missing capitalized status: %s", frame)
	}
	if strings.Contains(string(frame), `"status":"confirmed"`) {
		t.Errorf("frame carries lowercase status: %s", frame)
	}
}

func TestUpdateStatus_WrongHospitalForbidden(t *testing.T) {
	f := newFixture()
	a := f.book(t)

	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, uuid.New(), StatusConfirmed); err != ErrWrongHospital {
		t.Errorf("expected ErrWrongHospital, got %v", err)
	}
}

func TestUpdateStatus_TransitionTable(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusPending, false},
		{StatusConfirmed, StatusRejected, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusRejected, StatusConfirmed, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tc := range cases {
		f := newFixture()
		a := f.book(t)
		f.repo.appts[a.ID].Status = tc.from
		f.bc.userEvents = nil

		_, err := f.svc.UpdateStatus(context.Background(), a.ID, f.hospitalID, tc.to)
		if tc.ok && err != nil {
			t.Errorf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s -> %s: expected rejection", tc.from, tc.to)
		}
		if !tc.ok && len(f.bc.userEvents) != 0 {
			t.Errorf("%s -> %s: rejected transition must not notify", tc.from, tc.to)
		}
	}
}

func TestUpdateStatus_WriteFailureSendsNothing(t *testing.T) {
	f := newFixture()
	a := f.book(t)
	f.repo.failUpdate = true

	if _, err := f.svc.UpdateStatus(context.Background(), a.ID, f.hospitalID, StatusConfirmed); err == nil {
		t.Fatal("expected error from failed write")
	}
	if len(f.bc.userEvents) != 0 {
		t.Errorf("expected zero user events after failed write, got %d", len(f.bc.userEvents))
	}
}

func TestAdminList_StatsBlock(t *testing.T) {
	f := newFixture()
	a1 := f.book(t)
	f.book(t)
	f.repo.appts[a1.ID].Status = StatusConfirmed

	appts, total, stats, err := f.svc.AdminList(context.Background(), f.hospitalID, Filters{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(appts) != 2 {
		t.Errorf("expected 2 appointments, got total=%d len=%d", total, len(appts))
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Confirmed != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAdminList_UnknownStatusFilterRejected(t *testing.T) {
	f := newFixture()
	if _, _, _, err := f.svc.AdminList(context.Background(), f.hospitalID, Filters{Status: "snoozed"}, 20, 0); err == nil {
		t.Error("expected error for unknown status filter")
	}
}

func TestStartsAt_CombinesDateAndSlot(t *testing.T) {
	a := &Appointment{
		Date:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TimeSlot: "14:45",
	}
	got := a.StartsAt()
	want := time.Date(2026, 9, 1, 14, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartsAt() = %v, want %v", got, want)
	}
}
