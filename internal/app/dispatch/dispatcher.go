// Package dispatch routes inbound wire events to the relay's state
// stores and emits the resulting outbound events through the transport
// port. All mutation happens on the Run goroutine: every event is
// processed to completion before the next one starts, which is what
// keeps the membership and call-session invariants lock-step without
// the stores coordinating with each other.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/domain"
)

type itemKind int

const (
	itemConnect itemKind = iota
	itemDisconnect
	itemEvent
)

type item struct {
	kind itemKind
	id   domain.ConnID
	raw  []byte
}

type handlerFunc func(c *app.Connection, data json.RawMessage)

type Dispatcher struct {
	registry *app.Registry
	rooms    *app.Directory
	calls    *app.CallManager
	emitter  Emitter

	validate *validator.Validate
	handlers map[string]handlerFunc
	inbox    chan item
}

func New(registry *app.Registry, rooms *app.Directory, calls *app.CallManager, emitter Emitter) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		rooms:    rooms,
		calls:    calls,
		emitter:  emitter,
		validate: validator.New(),
		inbox:    make(chan item, 256),
	}
	d.handlers = map[string]handlerFunc{
		EventChatMessage: d.handleChat,
		EventJoinRoom:    d.handleJoinRoom,
		EventLeaveRoom:   d.handleLeaveRoom,
		EventCallUser:    d.handleCallUser,
		EventAcceptCall:  d.handleAcceptCall,
		EventRejectCall:  d.handleRejectCall,
		EventSignal:      d.handleSignal,
	}
	return d
}

// Run drains the inbox until the context is canceled. It is the only
// goroutine that mutates the stores.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "dispatch").Msg("dispatcher stopped")
			return
		case it := <-d.inbox:
			d.process(it)
		}
	}
}

// Connect enqueues the lifecycle event for a freshly assigned id.
func (d *Dispatcher) Connect(id domain.ConnID) {
	d.inbox <- item{kind: itemConnect, id: id}
}

// Disconnect enqueues the expiring id's cleanup.
func (d *Dispatcher) Disconnect(id domain.ConnID) {
	d.inbox <- item{kind: itemDisconnect, id: id}
}

// Post enqueues one raw inbound frame from the transport.
func (d *Dispatcher) Post(id domain.ConnID, raw []byte) {
	d.inbox <- item{kind: itemEvent, id: id, raw: raw}
}

func (d *Dispatcher) process(it item) {
	switch it.kind {
	case itemConnect:
		d.handleConnect(it.id)
	case itemDisconnect:
		d.handleDisconnect(it.id)
	case itemEvent:
		d.handleFrame(it.id, it.raw)
	}
}

func (d *Dispatcher) handleConnect(id domain.ConnID) {
	if _, err := d.registry.Register(id); err != nil {
		// Transport-layer bug; drop the offending connection only.
		log.Error().Err(err).Str("module", "dispatch").Str("conn", string(id)).Msg("register failed")
		d.emitter.Kick(id)
		return
	}
	d.emitter.EmitTo(id, EventWelcome, notificationPayload{
		Message: "You are connected as ID: " + string(id),
	})
}

// handleDisconnect unwinds everything the connection holds: room
// membership, any live call session, and finally the registry entry.
// Idempotent, a second disconnect for the same id is a no-op.
func (d *Dispatcher) handleDisconnect(id domain.ConnID) {
	c, ok := d.registry.Lookup(id)
	if !ok {
		return
	}
	d.rooms.LeaveAll(c)
	if s, ended := d.calls.DisconnectParticipant(c); ended {
		d.emitter.EmitTo(s.Peer(id), EventCallEnded, callEndedPayload{PeerID: string(id)})
	}
	d.registry.Unregister(id)
	d.emitter.EmitAll(EventNotification, notificationPayload{
		Message: "User " + string(id) + " disconnected",
	}, id)
}

func (d *Dispatcher) handleFrame(id domain.ConnID, raw []byte) {
	c, ok := d.registry.Lookup(id)
	if !ok {
		// Frame from a connection that already disconnected.
		return
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
		log.Warn().Str("module", "dispatch").Str("conn", string(id)).Msg("malformed frame")
		d.sendErr(id, "malformed frame")
		return
	}
	h, ok := d.handlers[env.Event]
	if !ok {
		log.Warn().Str("module", "dispatch").Str("event", env.Event).Msg("unknown event")
		return
	}
	h(c, env.Data)
}

// decode unmarshals and shape-checks an inbound payload. A payload that
// fails either step is dropped and answered with a diagnostic frame.
func (d *Dispatcher) decode(c *app.Connection, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "dispatch").Str("conn", string(c.ID)).Msg("bad payload")
		d.sendErr(c.ID, "bad payload")
		return false
	}
	if err := d.validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("module", "dispatch").Str("conn", string(c.ID)).Msg("missing payload fields")
		d.sendErr(c.ID, "missing payload fields")
		return false
	}
	return true
}

// handleChat relays the original content verbatim: to the named room's
// members when a room is given, to every other connection otherwise.
func (d *Dispatcher) handleChat(c *app.Connection, data json.RawMessage) {
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "dispatch").Str("conn", string(c.ID)).Msg("bad chat payload")
		d.sendErr(c.ID, "bad payload")
		return
	}
	if p.Room == "" {
		d.emitter.EmitAll(EventChatMessage, data, c.ID)
		return
	}
	for _, id := range d.rooms.Members(domain.RoomName(p.Room)) {
		if id == c.ID {
			continue
		}
		d.emitter.EmitTo(id, EventChatMessage, data)
	}
}

func (d *Dispatcher) handleJoinRoom(c *app.Connection, data json.RawMessage) {
	var p joinRoomPayload
	if !d.decode(c, data, &p) {
		return
	}
	d.rooms.Join(c, domain.RoomName(p.Room))
}

func (d *Dispatcher) handleLeaveRoom(c *app.Connection, data json.RawMessage) {
	var p leaveRoomPayload
	if !d.decode(c, data, &p) {
		return
	}
	d.rooms.Leave(c, domain.RoomName(p.Room))
}

// handleCallUser rings the target. A non-existent target is a silent
// no-op; a busy party is answered with a diagnostic.
func (d *Dispatcher) handleCallUser(c *app.Connection, data json.RawMessage) {
	var p callUserPayload
	if !d.decode(c, data, &p) {
		return
	}
	target, ok := d.registry.Lookup(domain.ConnID(p.TargetUserID))
	if !ok {
		log.Debug().Str("module", "dispatch").Str("target", p.TargetUserID).Msg("call target not connected")
		return
	}
	if _, err := d.calls.Initiate(c, target); err != nil {
		if errors.Is(err, domain.ErrAlreadyInCall) || errors.Is(err, domain.ErrPeerBusy) {
			d.sendErr(c.ID, err.Error())
		}
		return
	}
	d.emitter.EmitTo(target.ID, EventIncomingCall, incomingCallPayload{CallerID: string(c.ID)})
}

func (d *Dispatcher) handleAcceptCall(c *app.Connection, data json.RawMessage) {
	var p acceptCallPayload
	if !d.decode(c, data, &p) {
		return
	}
	s, err := d.calls.Accept(c)
	if err != nil {
		d.sendErr(c.ID, err.Error())
		return
	}
	d.emitter.EmitTo(s.Caller, EventCallAccepted, callAcceptedPayload{ReceiverID: string(c.ID)})
}

func (d *Dispatcher) handleRejectCall(c *app.Connection, data json.RawMessage) {
	var p rejectCallPayload
	if !d.decode(c, data, &p) {
		return
	}
	s, err := d.calls.Reject(c)
	if err != nil {
		d.sendErr(c.ID, err.Error())
		return
	}
	d.emitter.EmitTo(s.Caller, EventCallRejected, struct{}{})
}

// handleSignal forwards the negotiation payload verbatim, tagged with
// the sender. Accepted independent of call state; an unknown target is
// a silent no-op.
func (d *Dispatcher) handleSignal(c *app.Connection, data json.RawMessage) {
	var p signalPayload
	if !d.decode(c, data, &p) {
		return
	}
	if _, ok := d.registry.Lookup(domain.ConnID(p.TargetUserID)); !ok {
		return
	}
	d.emitter.EmitTo(domain.ConnID(p.TargetUserID), EventSignal, signalOutPayload{
		Signal:   p.Signal,
		SenderID: string(c.ID),
	})
}

func (d *Dispatcher) sendErr(id domain.ConnID, msg string) {
	d.emitter.EmitTo(id, EventError, errorPayload{Message: msg})
}
