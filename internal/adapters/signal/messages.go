package signal

import (
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// Outbound envelopes produced by the signaling core.

type idMsg struct {
	Type string          `json:"type"`
	ID   domain.ClientID `json:"id"`
}

type peersMsg struct {
	Type   string            `json:"type"`
	Peers  []domain.ClientID `json:"peers"`
	HostID domain.ClientID   `json:"hostId"`
	Role   domain.Role       `json:"role"`
}

type joinedMsg struct {
	Type   string        `json:"type"`
	RoomID domain.RoomID `json:"roomId"`
}

type newPeerMsg struct {
	Type   string          `json:"type"`
	PeerID domain.ClientID `json:"peerId"`
}

type leaveMsg struct {
	Type string          `json:"type"`
	From domain.ClientID `json:"from"`
}

type hostChangedMsg struct {
	Type   string          `json:"type"`
	HostID domain.ClientID `json:"hostId"`
}

type meetingEventMsg struct {
	Type         string `json:"type"`
	Event        string `json:"event"`
	Question     string `json:"question,omitempty"`
	TargetUserID string `json:"targetUserId,omitempty"`
}

type subtitleMsg struct {
	Type string          `json:"type"`
	From domain.ClientID `json:"from"`
	Text string          `json:"text"`
}

type pongMsg struct {
	Type string `json:"type"`
}
