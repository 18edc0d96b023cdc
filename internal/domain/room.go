// Package domain contains identifiers and room meta-data, no logic.
package domain

type (
	// ClientID identifies one live signaling connection. Assigned at
	// connect time, never reused across reconnects.
	ClientID string

	// RoomID is the client-supplied room name.
	RoomID string
)

// Role of a member inside a room, as reported to the client on join.
type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
)

const MaxRoomIDLen = 64
