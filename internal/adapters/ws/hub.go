package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// frame is the outbound wire envelope.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub maps connection ids to their sockets and implements the
// dispatcher's Emitter port. It owns the transport side of a
// connection's lifetime; the registry owns the relay side.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*wsConn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnID]*wsConn)}
}

func (h *Hub) add(id domain.ConnID, c *wsConn) {
	h.mu.Lock()
	h.conns[id] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id domain.ConnID) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

func (h *Hub) get(id domain.ConnID) (*wsConn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.conns[id]
	return c, ok
}

func (h *Hub) EmitTo(id domain.ConnID, event string, payload any) {
	c, ok := h.get(id)
	if !ok {
		return
	}
	h.send(id, c, event, payload)
}

func (h *Hub) EmitAll(event string, payload any, exclude domain.ConnID) {
	h.mu.RLock()
	snapshot := make(map[domain.ConnID]*wsConn, len(h.conns))
	for id, c := range h.conns {
		snapshot[id] = c
	}
	h.mu.RUnlock()
	for id, c := range snapshot {
		if id == exclude {
			continue
		}
		h.send(id, c, event, payload)
	}
}

func (h *Hub) Kick(id domain.ConnID) {
	c, ok := h.get(id)
	if !ok {
		return
	}
	h.remove(id)
	c.Close()
	log.Warn().Str("module", "ws.hub").Str("conn", string(id)).Msg("connection kicked")
}

// CloseAll tears down every live socket. Process shutdown only.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	for id, c := range h.conns {
		c.Close()
		delete(h.conns, id)
	}
	h.mu.Unlock()
}

func (h *Hub) send(id domain.ConnID, c *wsConn, event string, payload any) {
	b, err := json.Marshal(frame{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("event", event).Msg("marshal frame")
		return
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "ws.hub").Str("conn", string(id)).Str("event", event).Msg("frame dropped")
	}
}
