package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/healthconnect/healthconnect/internal/platform/metrics"
)

// Sender delivers one framed event to a single connection. The websocket
// session implements it; tests supply recording fakes.
type Sender interface {
	Send(env Envelope) error
}

// Hub is the broadcast dispatcher. It owns the user registry, the room
// membership state, and the live senders, and is the single handle request
// handlers use to push events after a successful write.
//
// Delivery is synchronous and fire-and-forget: a failed write to one
// connection is logged and skipped, never surfaced to the caller. The hub is
// constructed once by the composition root and passed to handlers by
// reference; there is no package-level instance.
type Hub struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	senders map[string]Sender // connID -> transport

	registry *Registry
	rooms    *Rooms
}

func NewHub(logger zerolog.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		logger:   logger.With().Str("component", "realtime").Logger(),
		metrics:  m,
		senders:  make(map[string]Sender),
		registry: NewRegistry(),
		rooms:    NewRooms(),
	}
}

// Attach makes a new connection known to the hub. Until the client registers
// or joins a room it receives nothing.
func (h *Hub) Attach(connID string, s Sender) {
	h.mu.Lock()
	h.senders[connID] = s
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Debug().Str("conn_id", connID).Msg("connection attached")
}

// Detach tears a connection down: it is dropped from the sender table, from
// every room, and from the user registry.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	_, known := h.senders[connID]
	delete(h.senders, connID)
	h.mu.Unlock()

	h.rooms.LeaveAll(connID)
	h.registry.Unregister(connID)

	if known && h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Debug().Str("conn_id", connID).Msg("connection detached")
}

// RegisterUser binds a user identity to a connection (last registration wins).
func (h *Hub) RegisterUser(userID, connID string) {
	h.registry.Register(userID, connID)
	h.logger.Debug().Str("user_id", userID).Str("conn_id", connID).Msg("user registered")
}

// JoinRoom adds a connection to a hospital room; duplicate joins are no-ops.
func (h *Hub) JoinRoom(connID, room string) {
	h.rooms.Join(connID, room)
	h.logger.Debug().Str("conn_id", connID).Str("room", room).Msg("joined room")
}

// LeaveRoom removes a connection from a room; safe without a prior join.
func (h *Hub) LeaveRoom(connID, room string) {
	h.rooms.Leave(connID, room)
}

// MembersOf returns the connections currently in a room.
func (h *Hub) MembersOf(room string) []string {
	return h.rooms.MembersOf(room)
}

// Resolve returns the connection currently registered for a user.
func (h *Hub) Resolve(userID string) (string, bool) {
	return h.registry.Resolve(userID)
}

// BroadcastToRoom delivers ev to every current member of the room.
// Best-effort, at-most-once per connected member; late joiners miss it.
func (h *Hub) BroadcastToRoom(room string, ev Event) {
	if h.metrics != nil {
		h.metrics.EventsPublished.WithLabelValues(ev.EventName()).Inc()
	}
	env := Envelope{Event: ev.EventName(), Data: ev}
	for _, connID := range h.rooms.MembersOf(room) {
		h.deliver(connID, env)
	}
}

// SendToUser delivers ev to the user's registered connection. An offline
// user is a silent no-op; they see current state on their next fetch.
func (h *Hub) SendToUser(userID string, ev Event) {
	if h.metrics != nil {
		h.metrics.EventsPublished.WithLabelValues(ev.EventName()).Inc()
	}
	connID, ok := h.registry.Resolve(userID)
	if !ok {
		return
	}
	h.deliver(connID, Envelope{Event: ev.EventName(), Data: ev})
}

func (h *Hub) deliver(connID string, env Envelope) {
	h.mu.RLock()
	s, ok := h.senders[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	if err := s.Send(env); err != nil {
		if h.metrics != nil {
			h.metrics.EventsDropped.Inc()
		}
		h.logger.Warn().Err(err).
			Str("conn_id", connID).
			Str("event", env.Event).
			Msg("dropped realtime event")
		return
	}
	if h.metrics != nil {
		h.metrics.EventsDelivered.Inc()
	}
}
