package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// Directory maps room names to member sets. Rooms exist implicitly: the
// first join creates one, the last leave discards it. Membership is kept
// in both the room's set and the connection's Rooms set; the dispatcher's
// sequential processing keeps the two views consistent.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomName]map[domain.ConnID]struct{}
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomName]map[domain.ConnID]struct{})}
}

// Join is idempotent. Returns false if the connection was already a member.
func (d *Directory) Join(c *Connection, name domain.RoomName) bool {
	if _, ok := c.Rooms[name]; ok {
		return false
	}
	d.mu.Lock()
	members, ok := d.rooms[name]
	if !ok {
		members = make(map[domain.ConnID]struct{})
		d.rooms[name] = members
	}
	members[c.ID] = struct{}{}
	d.mu.Unlock()
	c.Rooms[name] = struct{}{}
	log.Info().Str("module", "app.rooms").Str("conn", string(c.ID)).Str("room", string(name)).Msg("joined room")
	return true
}

// Leave is idempotent. An empty room is discarded.
func (d *Directory) Leave(c *Connection, name domain.RoomName) bool {
	if _, ok := c.Rooms[name]; !ok {
		return false
	}
	delete(c.Rooms, name)
	d.mu.Lock()
	if members, ok := d.rooms[name]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(d.rooms, name)
		}
	}
	d.mu.Unlock()
	log.Info().Str("module", "app.rooms").Str("conn", string(c.ID)).Str("room", string(name)).Msg("left room")
	return true
}

// LeaveAll removes the connection from every room it joined and returns
// the rooms it left. Used by disconnect cleanup.
func (d *Directory) LeaveAll(c *Connection) []domain.RoomName {
	left := make([]domain.RoomName, 0, len(c.Rooms))
	for name := range c.Rooms {
		left = append(left, name)
	}
	for _, name := range left {
		d.Leave(c, name)
	}
	return left
}

// Members returns a snapshot of the room's member set. Nil if the room
// does not exist.
func (d *Directory) Members(name domain.RoomName) []domain.ConnID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	members, ok := d.rooms[name]
	if !ok {
		return nil
	}
	out := make([]domain.ConnID, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

func (d *Directory) List() []domain.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.RoomInfo, 0, len(d.rooms))
	for name, members := range d.rooms {
		out = append(out, domain.RoomInfo{Name: name, MemberCount: len(members)})
	}
	return out
}
