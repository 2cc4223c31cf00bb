package dispatch

import "github.com/dkeye/Relay/internal/domain"

// Emitter is the dispatcher's port to the transport layer. Delivery is
// best-effort and must not block: a recipient that cannot take the frame
// simply misses it. Room broadcasts are expanded by the dispatcher from
// the directory's member set, so the transport only needs to address
// single connections or the whole set.
type Emitter interface {
	// EmitTo delivers an event to one connection. No-op for unknown ids.
	EmitTo(id domain.ConnID, event string, payload any)
	// EmitAll delivers an event to every live connection except exclude.
	EmitAll(event string, payload any, exclude domain.ConnID)
	// Kick tears down a single connection's transport. Used when a
	// connection's setup violates an invariant.
	Kick(id domain.ConnID)
}
