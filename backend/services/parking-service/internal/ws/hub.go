package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"smartpark/backend/services/parking-service/internal/models"
)

// ErrHubClosed is returned by Add after the hub has shut down.
var ErrHubClosed = errors.New("ws: hub closed")

// Hub fans occupancy events out to websocket subscribers.
type Hub struct {
	mu           sync.RWMutex
	subscribers  map[string]*Subscriber
	closed       bool
	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewHub builds subscriber hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Hub{
		subscribers:  make(map[string]*Subscriber),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Add registers subscriber. It fails once Run has shut the hub down.
func (h *Hub) Add(sub *Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.subscribers[sub.ID()] = sub
	return nil
}

// Closed reports whether the hub has shut down.
func (h *Hub) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Remove forgets subscriber.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, id)
}

// Count returns number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Publish delivers event to every interested subscriber without blocking.
func (h *Hub) Publish(event models.OccupancyEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode occupancy event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.Wants(event.LotID) {
			sub.Send(payload)
		}
	}
}

// Run blocks until ctx is done, then disconnects all subscribers.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	subs := make([]*Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.subscribers = make(map[string]*Subscriber)
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
	h.logger.Info("occupancy feed closed", zap.Int("subscribers", len(subs)))
	return nil
}
