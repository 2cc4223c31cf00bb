// Package domain contains entity records without logic, just meta-data.
package domain

// ConnID identifies one live transport endpoint. Assigned by the
// transport layer at upgrade time, dies with the socket.
type ConnID string

type RoomName string

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	Name        RoomName `json:"name"`
	MemberCount int      `json:"member_count"`
}
