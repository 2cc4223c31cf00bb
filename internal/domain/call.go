package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallState is the lifecycle state of a call session.
// Keep values stable, they show up in logs and API responses.
type CallState string

const (
	CallRinging CallState = "ringing"
	CallActive  CallState = "active"
	CallEnded   CallState = "ended"
)

type CallID string

// CallSession is the negotiation context between exactly two connections.
// The call manager owns its lifetime; connections hold a non-owning
// back-link used to find "my current session" on disconnect.
type CallSession struct {
	ID        CallID
	Caller    ConnID
	Receiver  ConnID
	State     CallState
	CreatedAt time.Time
}

func NewCallSession(caller, receiver ConnID) *CallSession {
	return &CallSession{
		ID:        CallID(uuid.NewString()),
		Caller:    caller,
		Receiver:  receiver,
		State:     CallRinging,
		CreatedAt: time.Now(),
	}
}

func (s *CallSession) Live() bool {
	return s.State != CallEnded
}

func (s *CallSession) Has(id ConnID) bool {
	return s.Caller == id || s.Receiver == id
}

// Peer returns the other participant.
func (s *CallSession) Peer(id ConnID) ConnID {
	if s.Caller == id {
		return s.Receiver
	}
	return s.Caller
}

// CallInfo is a read-only view for APIs.
type CallInfo struct {
	ID        CallID    `json:"id"`
	Caller    ConnID    `json:"caller"`
	Receiver  ConnID    `json:"receiver"`
	State     CallState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
}
