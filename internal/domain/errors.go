package domain

import "errors"

var (
	// ErrAlreadyRegistered means the transport handed out a duplicate
	// connection id. Transport-layer bug; only the offending connection
	// is torn down.
	ErrAlreadyRegistered = errors.New("connection id already registered")
	ErrNotRegistered     = errors.New("connection not registered")

	ErrAlreadyInCall = errors.New("caller already in a call")
	ErrPeerBusy      = errors.New("peer already in a call")
	ErrNoSession     = errors.New("no call session")
	ErrNotRinging    = errors.New("call session is not ringing")
)
