package realtime

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSender records every envelope it receives.
type fakeSender struct {
	envs []Envelope
	err  error
}

func (f *fakeSender) Send(env Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.envs = append(f.envs, env)
	return nil
}

func newTestHub() *Hub {
	return NewHub(zerolog.Nop(), nil)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "conn-a")
	r.Register("u1", "conn-b")

	connID, ok := r.Resolve("u1")
	if !ok {
		t.Fatal("expected u1 to be registered")
	}
	if connID != "conn-b" {
		t.Errorf("expected most recent connection conn-b, got %s", connID)
	}
}

func TestRegistry_UnregisterByConnection(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "conn-a")
	r.Unregister("conn-a")

	if _, ok := r.Resolve("u1"); ok {
		t.Error("expected u1 to be gone after its connection unregistered")
	}
}

func TestRegistry_ResolveAbsentUser(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Resolve("nobody"); ok {
		t.Error("expected absent user to resolve to nothing")
	}
}

func TestRooms_NoDuplicateMembership(t *testing.T) {
	rm := NewRooms()
	rm.Join("conn-a", "hospital-1")
	rm.Join("conn-a", "hospital-1")

	members := rm.MembersOf("hospital-1")
	if len(members) != 1 {
		t.Errorf("expected exactly one member after duplicate join, got %d", len(members))
	}
}

func TestRooms_LeaveWithoutJoinIsSafe(t *testing.T) {
	rm := NewRooms()
	rm.Join("conn-a", "hospital-1")

	rm.Leave("conn-b", "room-never-joined")
	rm.Leave("conn-a", "room-never-joined")

	if got := rm.MembersOf("hospital-1"); len(got) != 1 {
		t.Errorf("leave of unjoined room changed state: %v", got)
	}
	if got := rm.MembersOf("room-never-joined"); len(got) != 0 {
		t.Errorf("expected empty room, got %v", got)
	}
}

func TestRooms_EmptyRoomIsDeleted(t *testing.T) {
	rm := NewRooms()
	rm.Join("conn-a", "hospital-1")
	rm.Leave("conn-a", "hospital-1")

	rm.mu.RLock()
	_, exists := rm.members["hospital-1"]
	rm.mu.RUnlock()
	if exists {
		t.Error("expected empty room to be removed")
	}
}

func TestHub_BroadcastReachesOnlyMembers(t *testing.T) {
	h := newTestHub()
	x, y, z := &fakeSender{}, &fakeSender{}, &fakeSender{}
	h.Attach("x", x)
	h.Attach("y", y)
	h.Attach("z", z)
	h.JoinRoom("x", "A")
	h.JoinRoom("y", "A")
	h.JoinRoom("z", "B")

	h.BroadcastToRoom("A", BedAvailabilityChanged{HospitalID: "A", AvailableBeds: 3, LastUpdated: time.Now()})

	if len(x.envs) != 1 || len(y.envs) != 1 {
		t.Errorf("expected members of A to receive 1 event, got x=%d y=%d", len(x.envs), len(y.envs))
	}
	if len(z.envs) != 0 {
		t.Errorf("expected member of B to receive nothing, got %d", len(z.envs))
	}
	if x.envs[0].Event != "bed-availability-changed" {
		t.Errorf("unexpected event name %q", x.envs[0].Event)
	}
}

func TestHub_SendToUnregisteredUserIsNoOp(t *testing.T) {
	h := newTestHub()
	// Must not panic or error; nothing is connected.
	h.SendToUser("nobody-registered", NewAppointment{Message: "hi"})
}

func TestHub_SendToUser(t *testing.T) {
	h := newTestHub()
	s := &fakeSender{}
	h.Attach("conn-1", s)
	h.RegisterUser("u1", "conn-1")

	h.SendToUser("u1", AppointmentStatusChanged{Status: "Confirmed", Message: "Appointment confirmed"})

	if len(s.envs) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(s.envs))
	}
	if s.envs[0].Event != "appointment-status-changed" {
		t.Errorf("unexpected event name %q", s.envs[0].Event)
	}
}

func TestHub_DetachCleansEverything(t *testing.T) {
	h := newTestHub()
	s := &fakeSender{}
	h.Attach("conn-1", s)
	h.RegisterUser("u1", "conn-1")
	h.JoinRoom("conn-1", "hospital-1")
	h.JoinRoom("conn-1", "hospital-2")

	h.Detach("conn-1")

	if _, ok := h.Resolve("u1"); ok {
		t.Error("expected registry entry to be removed on detach")
	}
	for _, room := range []string{"hospital-1", "hospital-2"} {
		if got := h.MembersOf(room); len(got) != 0 {
			t.Errorf("expected %s to be empty after detach, got %v", room, got)
		}
	}

	// Events after detach go nowhere.
	h.BroadcastToRoom("hospital-1", BedAvailabilityChanged{HospitalID: "hospital-1"})
	h.SendToUser("u1", NewAppointment{})
	if len(s.envs) != 0 {
		t.Errorf("expected no deliveries after detach, got %d", len(s.envs))
	}
}

func TestHub_ReRegistrationRedirectsDelivery(t *testing.T) {
	h := newTestHub()
	old, fresh := &fakeSender{}, &fakeSender{}
	h.Attach("conn-old", old)
	h.Attach("conn-new", fresh)
	h.RegisterUser("u1", "conn-old")
	h.RegisterUser("u1", "conn-new")

	h.SendToUser("u1", AppointmentStatusChanged{Status: "Confirmed"})

	if len(old.envs) != 0 {
		t.Errorf("expected stale connection to receive nothing, got %d", len(old.envs))
	}
	if len(fresh.envs) != 1 {
		t.Errorf("expected fresh connection to receive the event, got %d", len(fresh.envs))
	}
}

func TestHub_FailedSendIsSkipped(t *testing.T) {
	h := newTestHub()
	bad := &fakeSender{err: errors.New("write: broken pipe")}
	good := &fakeSender{}
	h.Attach("bad", bad)
	h.Attach("good", good)
	h.JoinRoom("bad", "hospital-1")
	h.JoinRoom("good", "hospital-1")

	// Must not panic; the healthy member still gets the event.
	h.BroadcastToRoom("hospital-1", FacilityStatusChanged{
		HospitalID:     "hospital-1",
		FacilityStatus: map[string]string{"ICU": "Operational"},
	})

	if len(good.envs) != 1 {
		t.Errorf("expected healthy member to receive 1 event, got %d", len(good.envs))
	}
}

func TestRooms_MembersOfReturnsSnapshot(t *testing.T) {
	rm := NewRooms()
	rm.Join("a", "r")
	rm.Join("b", "r")

	members := rm.MembersOf("r")
	sort.Strings(members)
	members[0] = "mutated"

	fresh := rm.MembersOf("r")
	sort.Strings(fresh)
	if fresh[0] != "a" || fresh[1] != "b" {
		t.Errorf("internal state mutated through snapshot: %v", fresh)
	}
}
