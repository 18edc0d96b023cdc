package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// Dispatch parses one inbound frame and routes it by its type field.
// Malformed or unknown frames are logged and dropped; the connection stays
// open either way.
func (ctl *Controller) Dispatch(ctx context.Context, id domain.ClientID, data []byte) {
	var env struct {
		Type string          `json:"type"`
		To   domain.ClientID `json:"to"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(ctx, id, data)
	case "leave":
		ctl.leaveRoom(ctx, id)
	case "offer", "answer", "candidate":
		if env.To != "" {
			ctl.relayVerbatim(id, env.To, data)
			return
		}
		if ctl.Media == nil {
			log.Warn().Str("module", "signal").Str("client", string(id)).
				Str("type", env.Type).Msg("relay message without target")
			return
		}
		switch env.Type {
		case "offer":
			ctl.handleOffer(ctx, id, data)
		case "candidate":
			ctl.handleCandidate(ctx, id, data)
		default:
			log.Warn().Str("module", "signal").Str("client", string(id)).Msg("unexpected answer from client")
		}
	case "meeting_event":
		ctl.handleMeetingEvent(id, data)
	case "subtitle":
		ctl.handleSubtitle(id, data)
	case "ping":
		ctl.Broadcast.Relay(id, pongMsg{Type: "pong"})
	default:
		log.Warn().Str("module", "signal").Str("client", string(id)).Str("type", env.Type).Msg("unknown signal type")
	}
}

func (ctl *Controller) handleJoin(ctx context.Context, id domain.ClientID, data []byte) {
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.RoomID == "" {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("join without roomId")
		return
	}
	if len(p.RoomID) > domain.MaxRoomIDLen {
		p.RoomID = p.RoomID[:domain.MaxRoomIDLen]
	}
	room := domain.RoomID(p.RoomID)

	// A connection occupies at most one room; re-joining moves it.
	if prev, ok := ctl.Registry.RoomOf(id); ok && prev != room {
		ctl.leaveRoom(ctx, id)
	}

	res := ctl.Rooms.Join(id, room)
	ctl.Registry.SetRoom(id, room)

	if ctl.Media != nil {
		if err := ctl.Media.EnsureSession(ctx, room); err != nil {
			// Signaling keeps working; the participant just gets no media.
			log.Error().Err(err).Str("module", "signal").Str("room", string(room)).Msg("media session unavailable")
		}
		ctl.Broadcast.Relay(id, joinedMsg{Type: "joined", RoomID: room})
	}

	ctl.Broadcast.Relay(id, peersMsg{Type: "peers", Peers: res.Peers, HostID: res.Host, Role: res.Role})
	ctl.Broadcast.Broadcast(room, newPeerMsg{Type: "new_peer", PeerID: id}, id)
}

// relayVerbatim forwards the original payload to its target with the sender
// id stamped as "from". A missing target is a silent drop.
func (ctl *Controller) relayVerbatim(id, to domain.ClientID, data []byte) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("client", string(id)).Msg("bad relay payload")
		return
	}
	payload["from"] = string(id)
	ctl.Broadcast.Relay(to, payload)
}

func (ctl *Controller) handleOffer(ctx context.Context, id domain.ClientID, data []byte) {
	var p struct {
		Offer string `json:"offer"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Offer == "" {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("offer without sdp")
		return
	}
	room, ok := ctl.Registry.RoomOf(id)
	if !ok {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("offer before join")
		return
	}
	ctl.Media.HandleOffer(ctx, id, room, p.Offer)
}

func (ctl *Controller) handleCandidate(ctx context.Context, id domain.ClientID, data []byte) {
	var p struct {
		Candidate *webrtc.ICECandidateInit `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Candidate == nil {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("malformed candidate")
		return
	}
	room, ok := ctl.Registry.RoomOf(id)
	if !ok {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("candidate before join")
		return
	}
	ctl.Media.HandleCandidate(ctx, id, room, *p.Candidate)
}

func (ctl *Controller) handleMeetingEvent(id domain.ClientID, data []byte) {
	room, ok := ctl.Registry.RoomOf(id)
	if !ok {
		return
	}
	if host, ok := ctl.Rooms.HostOf(room); !ok || host != id {
		// Best-effort semantics: no error back to the sender.
		log.Warn().Str("module", "signal").Str("client", string(id)).
			Str("room", string(room)).Msg("meeting_event from non-host rejected")
		return
	}

	var p struct {
		Event        string `json:"event"`
		Question     string `json:"question"`
		TargetUserID string `json:"targetUserId"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Event == "" {
		log.Warn().Str("module", "signal").Str("client", string(id)).Msg("meeting_event without event")
		return
	}

	switch p.Event {
	case "start":
		ctl.Rooms.SetStarted(room, true)
	case "end":
		ctl.Rooms.SetStarted(room, false)
	}

	ctl.Broadcast.Broadcast(room, meetingEventMsg{
		Type:         "meeting_event",
		Event:        p.Event,
		Question:     p.Question,
		TargetUserID: p.TargetUserID,
	})
}

func (ctl *Controller) handleSubtitle(id domain.ClientID, data []byte) {
	room, ok := ctl.Registry.RoomOf(id)
	if !ok {
		return
	}
	var p struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Text == "" {
		return
	}
	ctl.Broadcast.Broadcast(room, subtitleMsg{Type: "subtitle", From: id, Text: p.Text})
}
