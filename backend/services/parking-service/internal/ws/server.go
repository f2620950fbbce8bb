package ws

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP connections to occupancy feed subscriptions.
type Server struct {
	hub      *Hub
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewServer builds ws server.
func NewServer(hub *Hub, logger *zap.Logger) *Server {
	return &Server{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is HTTP handler for /ws/occupancy. Optional lot_id query limits the feed to one lot.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	lotID := r.URL.Query().Get("lot_id")
	if s.hub.Closed() {
		http.Error(w, "occupancy feed is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	sub := NewSubscriber(id, lotID, conn, s.hub.pingInterval, s.hub.writeTimeout, s.logger, s.hub.Remove)
	if err := s.hub.Add(sub); err != nil {
		// Hub shut down during the upgrade.
		sub.Close()
		return
	}

	go sub.Start()
	s.logger.Info("occupancy subscriber connected", zap.String("subscriber_id", id), zap.String("lot_id", lotID))
}
