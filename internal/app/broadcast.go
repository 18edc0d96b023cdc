package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/athar-taj/Live-Cogbee/internal/core"
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// Broadcaster fans messages out to single targets or whole rooms. Delivery
// is best-effort: a recipient that disconnected or is backpressured is
// skipped without affecting the rest of the batch.
type Broadcaster struct {
	Registry *Registry
	Rooms    *Rooms
}

// PublishResult reports delivery stats for one broadcast.
type PublishResult struct {
	Sent    int
	Dropped []domain.ClientID
}

// Relay marshals v and sends it to a single target. A missing target is a
// silent drop: it may have disconnected between lookup and send.
func (b *Broadcaster) Relay(id domain.ClientID, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("relay marshal")
		return false
	}
	return b.relayFrame(id, data)
}

func (b *Broadcaster) relayFrame(id domain.ClientID, data core.Frame) bool {
	conn, ok := b.Registry.Lookup(id)
	if !ok {
		return false
	}
	if err := conn.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "app.broadcast").Str("client", string(id)).Msg("relay dropped")
		return false
	}
	return true
}

// Broadcast sends v to every member of room not in exclude. The payload is
// marshaled once; per-recipient failures are isolated and reported in
// aggregate.
func (b *Broadcaster) Broadcast(room domain.RoomID, v any, exclude ...domain.ClientID) PublishResult {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Msg("broadcast marshal")
		return PublishResult{}
	}

	skip := make(map[domain.ClientID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	res := PublishResult{}
	for _, id := range b.Rooms.Members(room) {
		if _, excluded := skip[id]; excluded {
			continue
		}
		if b.relayFrame(id, data) {
			res.Sent++
		} else {
			res.Dropped = append(res.Dropped, id)
		}
	}
	if len(res.Dropped) > 0 {
		log.Warn().Str("module", "app.broadcast").Str("room", string(room)).
			Int("sent", res.Sent).Int("dropped", len(res.Dropped)).Msg("broadcast incomplete")
	}
	return res
}
