package dispatch

import "encoding/json"

// Wire events. Names are the public contract, keep them stable.
const (
	EventWelcome      = "welcome-message"
	EventChatMessage  = "chat-message"
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventCallUser     = "call-user"
	EventIncomingCall = "incoming-call"
	EventAcceptCall   = "accept-call"
	EventCallAccepted = "call-accepted"
	EventRejectCall   = "reject-call"
	EventCallRejected = "call-rejected"
	EventSignal       = "webrtc-signal"
	EventCallEnded    = "call-ended"
	EventNotification = "notification"
	EventError        = "error"
)

// Envelope frames every inbound message. Data stays raw so chat content
// can be relayed verbatim.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound payloads. Required fields are validated before dispatch;
// a frame missing any of them is dropped.

type chatPayload struct {
	Room string `json:"room"`
}

type joinRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

type leaveRoomPayload struct {
	Room string `json:"room" validate:"required"`
}

type callUserPayload struct {
	TargetUserID string `json:"targetUserId" validate:"required"`
	CallerID     string `json:"callerId" validate:"required"`
}

type acceptCallPayload struct {
	CallerID   string `json:"callerId" validate:"required"`
	ReceiverID string `json:"receiverId" validate:"required"`
}

type rejectCallPayload struct {
	CallerID string `json:"callerId" validate:"required"`
}

type signalPayload struct {
	TargetUserID string          `json:"targetUserId" validate:"required"`
	Signal       json.RawMessage `json:"signal" validate:"required"`
}

// Outbound payloads.

type incomingCallPayload struct {
	CallerID string `json:"callerId"`
}

type callAcceptedPayload struct {
	ReceiverID string `json:"receiverId"`
}

type callEndedPayload struct {
	PeerID string `json:"peerId"`
}

type signalOutPayload struct {
	Signal   json.RawMessage `json:"signal"`
	SenderID string          `json:"senderId"`
}

type notificationPayload struct {
	Message string `json:"message"`
}

type errorPayload struct {
	Message string `json:"message"`
}
