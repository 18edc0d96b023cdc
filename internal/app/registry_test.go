package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athar-taj/Live-Cogbee/internal/core"
	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

// fakeConn records frames; with fail set every send errors.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("closed")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func TestRegistry_RegisterAssignsUniqueIDs(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()

	a := reg.Register(&fakeConn{})
	b := reg.Register(&fakeConn{})
	req.NotEqual(a, b)

	_, ok := reg.Lookup(a)
	req.True(ok)
	_, ok = reg.Lookup(b)
	req.True(ok)
}

func TestRegistry_LookupAfterUnregisterIsNotFound(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	id := reg.Register(&fakeConn{})

	reg.Unregister(id)

	_, ok := reg.Lookup(id)
	req.False(ok)
}

func TestRegistry_RoomIndex(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	id := reg.Register(&fakeConn{})

	_, ok := reg.RoomOf(id)
	req.False(ok)

	reg.SetRoom(id, "r1")
	room, ok := reg.RoomOf(id)
	req.True(ok)
	req.Equal(domain.RoomID("r1"), room)

	cleared, had := reg.ClearRoom(id)
	req.True(had)
	req.Equal(domain.RoomID("r1"), cleared)
	_, ok = reg.RoomOf(id)
	req.False(ok)

	// Connection itself stays registered.
	_, ok = reg.Lookup(id)
	req.True(ok)
}

func TestRegistry_UnregisterClearsRoomIndex(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	id := reg.Register(&fakeConn{})
	reg.SetRoom(id, "r1")

	reg.Unregister(id)

	_, ok := reg.RoomOf(id)
	req.False(ok)
}
