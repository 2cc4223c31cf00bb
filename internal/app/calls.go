package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/domain"
)

// CallManager owns call session lifetime: ringing on initiate, active on
// accept, ended on reject or either party's disconnect. A connection can
// participate in at most one live session; the participants index
// enforces it. Ending a session releases it from live state together
// with both connection back-links.
type CallManager struct {
	mu       sync.RWMutex
	sessions map[domain.CallID]*domain.CallSession
	parts    map[domain.ConnID]*Connection
}

func NewCallManager() *CallManager {
	return &CallManager{
		sessions: make(map[domain.CallID]*domain.CallSession),
		parts:    make(map[domain.ConnID]*Connection),
	}
}

// Initiate creates a ringing session between caller and target and links
// it to both connections.
func (m *CallManager) Initiate(caller, target *Connection) (*domain.CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parts[caller.ID]; ok {
		return nil, domain.ErrAlreadyInCall
	}
	if _, ok := m.parts[target.ID]; ok {
		return nil, domain.ErrPeerBusy
	}
	s := domain.NewCallSession(caller.ID, target.ID)
	m.sessions[s.ID] = s
	m.parts[caller.ID] = caller
	m.parts[target.ID] = target
	caller.Call = s
	target.Call = s
	log.Info().Str("module", "app.calls").Str("call", string(s.ID)).
		Str("caller", string(caller.ID)).Str("receiver", string(target.ID)).Msg("call ringing")
	return s, nil
}

// Accept transitions the receiver's ringing session to active.
func (m *CallManager) Accept(receiver *Connection) (*domain.CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := receiver.Call
	if s == nil {
		return nil, domain.ErrNoSession
	}
	if s.State != domain.CallRinging || s.Receiver != receiver.ID {
		return nil, domain.ErrNotRinging
	}
	s.State = domain.CallActive
	log.Info().Str("module", "app.calls").Str("call", string(s.ID)).Msg("call active")
	return s, nil
}

// Reject ends the receiver's ringing session and releases it.
func (m *CallManager) Reject(receiver *Connection) (*domain.CallSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := receiver.Call
	if s == nil {
		return nil, domain.ErrNoSession
	}
	if s.State != domain.CallRinging || s.Receiver != receiver.ID {
		return nil, domain.ErrNotRinging
	}
	m.end(s)
	log.Info().Str("module", "app.calls").Str("call", string(s.ID)).Msg("call rejected")
	return s, nil
}

// DisconnectParticipant ends whatever live session the connection holds.
// Returns the session so the dispatcher can notify the other party.
func (m *CallManager) DisconnectParticipant(c *Connection) (*domain.CallSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := c.Call
	if s == nil {
		return nil, false
	}
	m.end(s)
	log.Info().Str("module", "app.calls").Str("call", string(s.ID)).
		Str("conn", string(c.ID)).Msg("call ended by disconnect")
	return s, true
}

func (m *CallManager) List() []domain.CallInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CallInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, domain.CallInfo{
			ID:        s.ID,
			Caller:    s.Caller,
			Receiver:  s.Receiver,
			State:     s.State,
			CreatedAt: s.CreatedAt,
		})
	}
	return out
}

func (m *CallManager) SessionOf(id domain.ConnID) (*domain.CallSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.parts[id]
	if !ok {
		return nil, false
	}
	return c.Call, true
}

// end marks the session terminal and drops it from live state, clearing
// both participants' back-links. Callers hold the lock.
func (m *CallManager) end(s *domain.CallSession) {
	s.State = domain.CallEnded
	delete(m.sessions, s.ID)
	for _, pid := range []domain.ConnID{s.Caller, s.Receiver} {
		if c, ok := m.parts[pid]; ok {
			c.Call = nil
			delete(m.parts, pid)
		}
	}
}
