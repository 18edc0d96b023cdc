package app

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/core"
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// Registry maps live connections to their transport handles and keeps the
// reverse connection -> room index so leave handling is O(1).
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ClientID]core.SignalConn
	rooms map[domain.ClientID]domain.RoomID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ClientID]core.SignalConn),
		rooms: make(map[domain.ClientID]domain.RoomID),
	}
}

// Register stores the transport handle under a fresh connection id.
func (r *Registry) Register(conn core.SignalConn) domain.ClientID {
	id := domain.ClientID(uuid.NewString())
	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("registered connection")
	return id
}

// Lookup returns the transport handle for id. After Unregister it returns
// not-found, never a stale handle.
func (r *Registry) Lookup(id domain.ClientID) (core.SignalConn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

func (r *Registry) Unregister(id domain.ClientID) {
	r.mu.Lock()
	delete(r.conns, id)
	delete(r.rooms, id)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("client", string(id)).Msg("unregistered connection")
}

// SetRoom records which room the connection currently occupies.
func (r *Registry) SetRoom(id domain.ClientID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[id] = room
}

// RoomOf returns the room the connection occupies, if any.
func (r *Registry) RoomOf(id domain.ClientID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// ClearRoom drops the connection's room association and reports the room it
// had, if any. The connection itself stays registered.
func (r *Registry) ClearRoom(id domain.ClientID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if ok {
		delete(r.rooms, id)
	}
	return room, ok
}
