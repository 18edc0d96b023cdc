package app

import (
	"context"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/core"
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// SendFunc pushes an outbound message to one connection. Must not block.
type SendFunc func(id domain.ClientID, v any) bool

// mediaSession owns the media-server resources of one room: a dedicated
// client, its pipeline, and one endpoint per participant. Nothing else may
// hold or release these handles.
type mediaSession struct {
	room domain.RoomID

	// mu serializes all media work on this room, including teardown, so a
	// pipeline is never released under an in-flight offer.
	mu        sync.Mutex
	client    core.MediaClient
	pipeline  core.MediaPipeline
	endpoints map[domain.ClientID]core.MediaEndpoint
	pending   map[domain.ClientID][]webrtc.ICECandidateInit
	closed    bool
}

// MediaManager orchestrates per-room media sessions on an external
// selective-forwarding media server. Sessions are created lazily on first
// join and destroyed exactly once when the room empties; different rooms
// proceed fully in parallel.
type MediaManager struct {
	Dialer core.MediaDialer
	Rooms  *Rooms
	Send   SendFunc

	mu       sync.Mutex
	sessions map[domain.RoomID]*mediaSession
}

func NewMediaManager(dialer core.MediaDialer, rooms *Rooms, send SendFunc) *MediaManager {
	return &MediaManager{
		Dialer:   dialer,
		Rooms:    rooms,
		Send:     send,
		sessions: make(map[domain.RoomID]*mediaSession),
	}
}

type answerMsg struct {
	Type   string `json:"type"`
	Answer string `json:"answer"`
}

type candidateMsg struct {
	Type      string                  `json:"type"`
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}

// EnsureSession creates the room's media session if absent: a dedicated
// media-server client with one pipeline on it. The remote calls happen
// outside the manager lock so other rooms are not held up.
func (m *MediaManager) EnsureSession(ctx context.Context, room domain.RoomID) error {
	var sess *mediaSession
	for {
		m.mu.Lock()
		var ok bool
		sess, ok = m.sessions[room]
		if !ok {
			sess = &mediaSession{
				room:      room,
				endpoints: make(map[domain.ClientID]core.MediaEndpoint),
				pending:   make(map[domain.ClientID][]webrtc.ICECandidateInit),
			}
			m.sessions[room] = sess
		}
		m.mu.Unlock()

		sess.mu.Lock()
		if !sess.closed {
			break
		}
		// Lost a race with teardown on the previous occupancy of this
		// room id; start over with a fresh shell.
		sess.mu.Unlock()
	}
	defer sess.mu.Unlock()
	if sess.client != nil {
		return nil
	}

	client, err := m.Dialer.Dial(ctx)
	if err != nil {
		m.dropSession(room, sess)
		return err
	}
	pipeline, err := client.CreatePipeline(ctx)
	if err != nil {
		if derr := client.Destroy(); derr != nil {
			log.Warn().Err(derr).Str("module", "app.media").Str("room", string(room)).Msg("destroy after failed pipeline")
		}
		m.dropSession(room, sess)
		return err
	}
	sess.client = client
	sess.pipeline = pipeline
	log.Info().Str("module", "app.media").Str("room", string(room)).Msg("media session created")
	return nil
}

// dropSession removes a session shell whose initialization failed, so the
// next join can retry with fresh handles. Caller holds sess.mu.
func (m *MediaManager) dropSession(room domain.RoomID, sess *mediaSession) {
	sess.closed = true
	m.mu.Lock()
	if m.sessions[room] == sess {
		delete(m.sessions, room)
	}
	m.mu.Unlock()
}

func (m *MediaManager) session(room domain.RoomID) (*mediaSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[room]
	return sess, ok
}

// HandleOffer processes an SDP offer from a room member. On the member's
// first offer a fresh endpoint is created on the room pipeline, wired
// bidirectionally to every existing endpoint and subscribed to local ICE
// discovery; subsequent offers renegotiate on the same endpoint. The SDP
// answer goes back to the sender, then any ICE candidates that arrived
// before the endpoint existed are applied in receipt order, then gathering
// starts.
func (m *MediaManager) HandleOffer(ctx context.Context, id domain.ClientID, room domain.RoomID, offer string) {
	if !m.Rooms.IsMember(room, id) {
		log.Warn().Str("module", "app.media").Str("client", string(id)).Str("room", string(room)).Msg("offer from non-member")
		return
	}
	sess, ok := m.session(room)
	if !ok {
		log.Warn().Str("module", "app.media").Str("room", string(room)).Msg("offer for room without media session")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || sess.pipeline == nil {
		log.Warn().Str("module", "app.media").Str("room", string(room)).Msg("offer after session teardown")
		return
	}

	ep, exists := sess.endpoints[id]
	created := false
	if !exists {
		var err error
		ep, err = sess.pipeline.CreateEndpoint(ctx)
		if err != nil {
			log.Error().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("create endpoint")
			return
		}
		created = true

		// Forward every locally discovered candidate back to the owning
		// connection. The callback only enqueues onto the send channel.
		ep.OnICECandidate(func(cand webrtc.ICECandidateInit) {
			m.Send(id, candidateMsg{Type: "candidate", Candidate: cand})
		})

		// Full-mesh wiring through the shared pipeline, first offer only.
		for otherID, other := range sess.endpoints {
			if err := ep.Connect(ctx, other); err != nil {
				log.Error().Err(err).Str("module", "app.media").
					Str("from", string(id)).Str("to", string(otherID)).Msg("connect endpoints")
			}
			if err := other.Connect(ctx, ep); err != nil {
				log.Error().Err(err).Str("module", "app.media").
					Str("from", string(otherID)).Str("to", string(id)).Msg("connect endpoints")
			}
		}
		sess.endpoints[id] = ep
		log.Info().Str("module", "app.media").Str("client", string(id)).Str("room", string(room)).Msg("endpoint created")
	}

	answer, err := ep.ProcessOffer(ctx, offer)
	if err != nil {
		log.Error().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("process offer")
		if created {
			if rerr := ep.Release(); rerr != nil {
				log.Warn().Err(rerr).Str("module", "app.media").Str("client", string(id)).Msg("release half-built endpoint")
			}
			delete(sess.endpoints, id)
		}
		return
	}
	m.Send(id, answerMsg{Type: "answer", Answer: answer})

	if queued := sess.pending[id]; len(queued) > 0 {
		log.Info().Str("module", "app.media").Str("client", string(id)).
			Int("count", len(queued)).Msg("flushing queued candidates")
		for _, cand := range queued {
			if err := ep.AddICECandidate(ctx, cand); err != nil {
				log.Error().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("apply queued candidate")
			}
		}
		delete(sess.pending, id)
	}

	if err := ep.GatherCandidates(ctx); err != nil {
		log.Error().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("gather candidates")
	}
}

// HandleCandidate applies an ICE candidate to the member's endpoint, or
// queues it if the endpoint does not exist yet. Browsers may emit candidates
// before the offer round-trip completes; queued candidates are never dropped
// while the endpoint is pending.
func (m *MediaManager) HandleCandidate(ctx context.Context, id domain.ClientID, room domain.RoomID, cand webrtc.ICECandidateInit) {
	sess, ok := m.session(room)
	if !ok {
		log.Warn().Str("module", "app.media").Str("room", string(room)).Msg("candidate for room without media session")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}

	ep, ok := sess.endpoints[id]
	if !ok {
		sess.pending[id] = append(sess.pending[id], cand)
		log.Debug().Str("module", "app.media").Str("client", string(id)).
			Int("queued", len(sess.pending[id])).Msg("queued candidate, endpoint pending")
		return
	}
	if err := ep.AddICECandidate(ctx, cand); err != nil {
		log.Error().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("add ice candidate")
	}
}

// Teardown releases every media resource of the room, exactly once, in the
// order endpoints, then pipeline, then client. Per-endpoint failures are
// logged and the remaining releases continue. After teardown the room id is
// free for a brand-new session with fresh handles.
func (m *MediaManager) Teardown(room domain.RoomID) {
	m.mu.Lock()
	sess, ok := m.sessions[room]
	if ok {
		delete(m.sessions, room)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.closed = true

	for id, ep := range sess.endpoints {
		if err := ep.Release(); err != nil {
			log.Warn().Err(err).Str("module", "app.media").Str("client", string(id)).Msg("release endpoint")
		}
	}
	sess.endpoints = make(map[domain.ClientID]core.MediaEndpoint)
	sess.pending = make(map[domain.ClientID][]webrtc.ICECandidateInit)

	if sess.pipeline != nil {
		if err := sess.pipeline.Release(); err != nil {
			log.Warn().Err(err).Str("module", "app.media").Str("room", string(room)).Msg("release pipeline")
		}
	}
	if sess.client != nil {
		if err := sess.client.Destroy(); err != nil {
			log.Warn().Err(err).Str("module", "app.media").Str("room", string(room)).Msg("destroy media client")
		}
	}
	log.Info().Str("module", "app.media").Str("room", string(room)).Msg("media session destroyed")
}
