package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athar-taj/Live-Cogbee/internal/domain"
)

func TestRooms_FirstJoinerBecomesHost(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	res := rooms.Join("a", "r1")

	req.Empty(res.Peers)
	req.Equal(domain.ClientID("a"), res.Host)
	req.Equal(domain.RoleHost, res.Role)
	req.True(rooms.Exists("r1"))
}

func TestRooms_SecondJoinerIsParticipantAndSeesPeers(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("a", "r1")

	res := rooms.Join("b", "r1")

	req.Equal([]domain.ClientID{"a"}, res.Peers)
	req.Equal(domain.ClientID("a"), res.Host)
	req.Equal(domain.RoleParticipant, res.Role)
	req.ElementsMatch([]domain.ClientID{"a", "b"}, rooms.Members("r1"))
}

func TestRooms_RoomExistsIffNonEmpty(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	req.False(rooms.Exists("r1"))
	rooms.Join("a", "r1")
	rooms.Join("b", "r1")
	req.True(rooms.Exists("r1"))

	rooms.Leave("a", "r1")
	req.True(rooms.Exists("r1"))

	res := rooms.Leave("b", "r1")
	req.True(res.Empty)
	req.False(rooms.Exists("r1"))
	req.Empty(rooms.Members("r1"))
}

func TestRooms_HostDepartureElectsEarliestRemainingMember(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("a", "r1")
	rooms.Join("b", "r1")
	rooms.Join("c", "r1")

	res := rooms.Leave("a", "r1")

	req.True(res.WasMember)
	req.True(res.HostChanged)
	req.Equal(domain.ClientID("b"), res.NewHost)

	// New host is always a current member.
	host, ok := rooms.HostOf("r1")
	req.True(ok)
	req.Contains(rooms.Members("r1"), host)
}

func TestRooms_ParticipantDepartureKeepsHost(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("a", "r1")
	rooms.Join("b", "r1")

	res := rooms.Leave("b", "r1")

	req.True(res.WasMember)
	req.False(res.HostChanged)
	host, ok := rooms.HostOf("r1")
	req.True(ok)
	req.Equal(domain.ClientID("a"), host)
}

func TestRooms_LeaveUnknownMemberIsNoop(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("a", "r1")

	res := rooms.Leave("ghost", "r1")
	req.False(res.WasMember)
	req.True(rooms.Exists("r1"))

	res = rooms.Leave("a", "nosuchroom")
	req.False(res.WasMember)
}

func TestRooms_InterviewStartedFlag(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()

	req.False(rooms.SetStarted("r1", true))

	rooms.Join("a", "r1")
	req.True(rooms.SetStarted("r1", true))
	req.True(rooms.Started("r1"))
	req.True(rooms.SetStarted("r1", false))
	req.False(rooms.Started("r1"))
}

func TestRooms_RejoinAfterDestroyStartsFresh(t *testing.T) {
	req := require.New(t)
	rooms := NewRooms()
	rooms.Join("a", "r1")
	rooms.SetStarted("r1", true)
	rooms.Leave("a", "r1")

	res := rooms.Join("b", "r1")
	req.Equal(domain.ClientID("b"), res.Host)
	req.False(rooms.Started("r1"))
}
