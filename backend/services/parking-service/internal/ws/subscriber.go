package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBuffer   = 16
	maxReadBytes = 512
)

// Subscriber is one websocket client of the occupancy feed.
type Subscriber struct {
	id           string
	lotID        string
	ws           *websocket.Conn
	send         chan []byte
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	onClose      func(id string)
}

// NewSubscriber wraps conn. An empty lotID subscribes to every lot.
func NewSubscriber(id, lotID string, conn *websocket.Conn, pingInterval, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Subscriber {
	return &Subscriber{
		id:           id,
		lotID:        lotID,
		ws:           conn,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
		onClose:      onClose,
	}
}

// ID returns identifier.
func (s *Subscriber) ID() string {
	return s.id
}

// Wants reports whether events of lotID go to this subscriber.
func (s *Subscriber) Wants(lotID string) bool {
	return s.lotID == "" || s.lotID == lotID
}

// Start launches the write pump and reads until the peer goes away.
func (s *Subscriber) Start() {
	go s.writePump()
	s.readPump()
}

// Send enqueues a message, dropping it when the buffer is full.
func (s *Subscriber) Send(msg []byte) {
	select {
	case <-s.done:
	case s.send <- msg:
	default:
		s.logger.Warn("dropping occupancy event, subscriber buffer full", zap.String("subscriber_id", s.id))
	}
}

// Close disconnects subscriber. Safe to call more than once.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.ws.Close()
		if s.onClose != nil {
			s.onClose(s.id)
		}
	})
}

// readPump only drains control frames; clients never send data.
func (s *Subscriber) readPump() {
	defer s.Close()
	readWait := 2 * s.pingInterval
	s.ws.SetReadLimit(maxReadBytes)
	_ = s.ws.SetReadDeadline(time.Now().Add(readWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(readWait))
	})

	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			s.logger.Debug("subscriber read closed", zap.String("subscriber_id", s.id), zap.Error(err))
			return
		}
	}
}

func (s *Subscriber) writePump() {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Subscriber) write(messageType int, data []byte) error {
	_ = s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return s.ws.WriteMessage(messageType, data)
}
