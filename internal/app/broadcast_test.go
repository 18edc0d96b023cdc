package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

func newBroadcastFixture(t *testing.T) (*Broadcaster, map[domain.ClientID]*fakeConn) {
	t.Helper()
	reg := NewRegistry()
	rooms := NewRooms()
	b := &Broadcaster{Registry: reg, Rooms: rooms}
	conns := make(map[domain.ClientID]*fakeConn)
	for i := 0; i < 3; i++ {
		c := &fakeConn{}
		id := reg.Register(c)
		rooms.Join(id, "r1")
		conns[id] = c
	}
	return b, conns
}

func TestBroadcast_DeliversToAllMembers(t *testing.T) {
	req := require.New(t)
	b, conns := newBroadcastFixture(t)

	res := b.Broadcast("r1", map[string]string{"type": "subtitle"})

	req.Equal(3, res.Sent)
	req.Empty(res.Dropped)
	for _, c := range conns {
		req.Len(c.decoded(t), 1)
	}
}

func TestBroadcast_ExcludesRequestedMembers(t *testing.T) {
	req := require.New(t)
	b, conns := newBroadcastFixture(t)

	var excluded domain.ClientID
	for id := range conns {
		excluded = id
		break
	}
	res := b.Broadcast("r1", map[string]string{"type": "new_peer"}, excluded)

	req.Equal(2, res.Sent)
	req.Empty(conns[excluded].decoded(t))
}

func TestBroadcast_FailedRecipientDoesNotBlockOthers(t *testing.T) {
	req := require.New(t)
	b, conns := newBroadcastFixture(t)

	var broken domain.ClientID
	for id, c := range conns {
		broken = id
		c.fail = true
		break
	}

	res := b.Broadcast("r1", map[string]string{"type": "leave"})

	req.Equal(2, res.Sent)
	req.Equal([]domain.ClientID{broken}, res.Dropped)
	for id, c := range conns {
		if id == broken {
			continue
		}
		req.Len(c.decoded(t), 1)
	}
}

func TestRelay_MissingTargetIsSilentDrop(t *testing.T) {
	req := require.New(t)
	b := &Broadcaster{Registry: NewRegistry(), Rooms: NewRooms()}

	req.False(b.Relay("nobody", map[string]string{"type": "answer"}))
}

func TestRelay_DeliversToTarget(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	b := &Broadcaster{Registry: reg, Rooms: NewRooms()}
	c := &fakeConn{}
	id := reg.Register(c)

	req.True(b.Relay(id, map[string]string{"type": "answer", "answer": "sdp"}))

	msgs := c.decoded(t)
	req.Len(msgs, 1)
	req.Equal("answer", msgs[0]["type"])
}
