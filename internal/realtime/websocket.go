package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	writeTimeout = 10 * time.Second

	// Client control message types.
	msgRegisterUser      = "register-user"
	msgJoinHospitalRoom  = "join-hospital-room"
	msgLeaveHospitalRoom = "leave-hospital-room"
)

// controlMessage is the client-to-server wire frame.
type controlMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// wsSession wraps a websocket connection with a write lock so the dispatcher
// and the transport never interleave frames.
type wsSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSession) Send(env Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(env)
}

// Server upgrades HTTP requests to websocket connections and feeds their
// control messages into the hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewServer(hub *Hub, logger zerolog.Logger) *Server {
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browsers connect from the SPA origin; CORS is enforced on the
			// REST surface and the token is checked before upgrade.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

// Handle upgrades the request and runs the read loop until the client goes
// away. All hub state for the connection is torn down on exit, which
// guarantees rooms and the registry never hold dead connections.
func (s *Server) Handle(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return nil // upgrader already wrote the error response
	}
	defer conn.Close()

	connID := uuid.NewString()
	s.hub.Attach(connID, &wsSession{conn: conn})
	defer s.hub.Detach(connID)

	s.logger.Info().Str("conn_id", connID).Str("remote", c.RealIP()).Msg("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break // client disconnected
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug().Str("conn_id", connID).Msg("ignoring malformed control message")
			continue
		}
		if msg.Payload == "" {
			continue
		}

		switch msg.Type {
		case msgRegisterUser:
			s.hub.RegisterUser(msg.Payload, connID)
		case msgJoinHospitalRoom:
			s.hub.JoinRoom(connID, msg.Payload)
		case msgLeaveHospitalRoom:
			s.hub.LeaveRoom(connID, msg.Payload)
		default:
			s.logger.Debug().Str("conn_id", connID).Str("type", msg.Type).Msg("unknown control message")
		}
	}

	s.logger.Info().Str("conn_id", connID).Msg("client disconnected")
	return nil
}
