package app

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// roomState is the directory entry for one room. A room exists in the
// directory iff its member set is non-empty; while members exist the host is
// always one of them.
type roomState struct {
	members map[domain.ClientID]struct{}
	// joined keeps insertion order so host succession is deterministic
	// within one reassignment event.
	joined  []domain.ClientID
	host    domain.ClientID
	started bool
}

// Rooms is the room directory plus lifecycle and host election.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[domain.RoomID]*roomState)}
}

// JoinResult is what the joining client needs to hear back.
type JoinResult struct {
	Peers []domain.ClientID
	Host  domain.ClientID
	Role  domain.Role
}

// Join attaches the connection to the room, creating the room if absent.
// The first member becomes host.
func (r *Rooms) Join(id domain.ClientID, room domain.RoomID) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[room]
	if !ok {
		st = &roomState{members: make(map[domain.ClientID]struct{})}
		r.rooms[room] = st
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room created")
	}
	if st.host == "" {
		st.host = id
	}

	peers := lo.Filter(st.joined, func(m domain.ClientID, _ int) bool { return m != id })

	if _, member := st.members[id]; !member {
		st.members[id] = struct{}{}
		st.joined = append(st.joined, id)
	}

	role := domain.RoleParticipant
	if st.host == id {
		role = domain.RoleHost
	}
	log.Info().Str("module", "app.rooms").Str("room", string(room)).Str("client", string(id)).
		Str("role", string(role)).Int("members", len(st.members)).Msg("member joined")
	return JoinResult{Peers: peers, Host: st.host, Role: role}
}

// LeaveResult describes what happened when a member left.
type LeaveResult struct {
	WasMember   bool
	HostChanged bool
	NewHost     domain.ClientID
	Empty       bool
	Remaining   []domain.ClientID
}

// Leave removes the connection from the room. If the departing member was
// host and members remain, the earliest-joined remaining member becomes the
// new host. A room whose member set becomes empty is removed from the
// directory in the same step.
func (r *Rooms) Leave(id domain.ClientID, room domain.RoomID) LeaveResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[room]
	if !ok {
		return LeaveResult{}
	}
	if _, member := st.members[id]; !member {
		return LeaveResult{}
	}
	delete(st.members, id)
	st.joined = lo.Filter(st.joined, func(m domain.ClientID, _ int) bool { return m != id })

	res := LeaveResult{WasMember: true, Remaining: append([]domain.ClientID(nil), st.joined...)}
	if len(st.members) == 0 {
		delete(r.rooms, room)
		res.Empty = true
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room destroyed (empty)")
		return res
	}
	if st.host == id {
		st.host = st.joined[0]
		res.HostChanged = true
		res.NewHost = st.host
		log.Info().Str("module", "app.rooms").Str("room", string(room)).
			Str("host", string(st.host)).Msg("host reassigned")
	}
	return res
}

// Members snapshots the current member set of a room.
func (r *Rooms) Members(room domain.RoomID) []domain.ClientID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[room]
	if !ok {
		return nil
	}
	return append([]domain.ClientID(nil), st.joined...)
}

// Exists reports whether the room is present in the directory.
func (r *Rooms) Exists(room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room]
	return ok
}

// IsMember reports whether id currently belongs to room.
func (r *Rooms) IsMember(room domain.RoomID, id domain.ClientID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[room]
	if !ok {
		return false
	}
	_, member := st.members[id]
	return member
}

// HostOf returns the current host of room.
func (r *Rooms) HostOf(room domain.RoomID) (domain.ClientID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[room]
	if !ok {
		return "", false
	}
	return st.host, true
}

// SetStarted flips the interview-started flag. Returns false if the room is
// absent.
func (r *Rooms) SetStarted(room domain.RoomID, started bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.rooms[room]
	if !ok {
		return false
	}
	st.started = started
	return true
}

// Started reports the interview-started flag.
func (r *Rooms) Started(room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.rooms[room]
	return ok && st.started
}
