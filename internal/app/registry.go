package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// Connection is the registry's record of one live endpoint: the rooms it
// joined and an optional back-link to its call session. The Rooms set and
// Call link are touched only by the dispatcher goroutine.
type Connection struct {
	ID    domain.ConnID
	Rooms map[domain.RoomName]struct{}
	Call  *domain.CallSession
}

// Registry tracks live connections. The dispatcher is the single writer;
// the lock makes the map safe for reads from the HTTP surface.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*Connection)}
}

func (r *Registry) Register(id domain.ConnID) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return nil, domain.ErrAlreadyRegistered
	}
	c := &Connection{ID: id, Rooms: make(map[domain.RoomName]struct{})}
	r.conns[id] = c
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection registered")
	return c, nil
}

func (r *Registry) Unregister(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection unregistered")
}

func (r *Registry) Lookup(id domain.ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
