package app

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"docuhub/internal/core"
	"docuhub/internal/domain"
)

type capturingConn struct {
	frames []core.Frame
}

func (c *capturingConn) TrySend(f core.Frame) error {
	c.frames = append(c.frames, f)
	return nil
}

func (c *capturingConn) Close() {}

func (c *capturingConn) events(t *testing.T) []map[string]any {
	t.Helper()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var ev map[string]any
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev)
	}
	return out
}

func newCoordinator() *Coordinator {
	return NewCoordinator(NewRegistry(), NewRoomManager())
}

func admit(c *Coordinator, sid core.SessionID, id, name string) *capturingConn {
	conn := &capturingConn{}
	user := &domain.User{ID: domain.UserID(id), Username: name}
	c.Registry.Bind(sid, user, core.NewMemberSession(user, conn), nil)
	return conn
}

func TestScenarioTwoEditors(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	alice := admit(coord, "sid-a", "1", "alice")
	bob := admit(coord, "sid-b", "2", "bob")

	req.NoError(coord.Join("sid-a", "doc-42"))
	req.NoError(coord.Join("sid-b", "doc-42"))

	// Alice is told about bob; bob receives nothing about himself.
	evs := alice.events(t)
	req.Len(evs, 1)
	req.Equal(EventUserJoined, evs[0]["type"])
	req.Equal("2", evs[0]["userId"])
	req.Equal("bob", evs[0]["username"])
	req.Empty(bob.frames)

	req.NoError(coord.RelayChange("sid-b", "doc-42", json.RawMessage(`{"op":"insert","text":"hi"}`)))

	evs = alice.events(t)
	req.Len(evs, 2)
	update := evs[1]
	req.Equal(EventDocumentUpdate, update["type"])
	req.Equal("doc-42", update["documentId"])
	user := update["user"].(map[string]any)
	req.Equal("2", user["id"])
	req.Equal("bob", user["username"])
	_, err := time.Parse(time.RFC3339, update["timestamp"].(string))
	req.NoError(err)
	req.Empty(bob.frames)

	coord.OnDisconnect("sid-b")
	evs = alice.events(t)
	req.Len(evs, 3)
	req.Equal(EventUserLeft, evs[2]["type"])
	req.Equal("2", evs[2]["userId"])
	req.Equal("bob", evs[2]["username"])
}

func TestJoinIdempotent(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	alice := admit(coord, "sid-a", "1", "alice")
	admit(coord, "sid-b", "2", "bob")

	req.NoError(coord.Join("sid-a", "doc-1"))
	req.NoError(coord.Join("sid-b", "doc-1"))
	req.NoError(coord.Join("sid-b", "doc-1"))

	req.Len(alice.frames, 1)
	room, ok := coord.Rooms.Get("doc-1")
	req.True(ok)
	req.Equal(2, room.MemberCount())
}

func TestLeaveIdempotent(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	alice := admit(coord, "sid-a", "1", "alice")
	admit(coord, "sid-b", "2", "bob")

	req.NoError(coord.Join("sid-a", "doc-1"))
	req.NoError(coord.Join("sid-b", "doc-1"))
	req.NoError(coord.Leave("sid-b", "doc-1"))
	req.NoError(coord.Leave("sid-b", "doc-1"))

	evs := alice.events(t)
	req.Len(evs, 2)
	req.Equal(EventUserJoined, evs[0]["type"])
	req.Equal(EventUserLeft, evs[1]["type"])
}

func TestUnauthenticatedOpsRejected(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	alice := admit(coord, "sid-a", "1", "alice")
	req.NoError(coord.Join("sid-a", "doc-1"))

	req.ErrorIs(coord.Join("sid-ghost", "doc-1"), ErrUnauthenticated)
	req.ErrorIs(coord.Leave("sid-ghost", "doc-1"), ErrUnauthenticated)
	req.ErrorIs(coord.RelayChange("sid-ghost", "doc-1", json.RawMessage(`{}`)), ErrUnauthenticated)
	req.Empty(alice.frames)
}

func TestMalformedChangeRejected(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	alice := admit(coord, "sid-a", "1", "alice")
	bob := admit(coord, "sid-b", "2", "bob")
	req.NoError(coord.Join("sid-a", "doc-1"))

	req.ErrorIs(coord.RelayChange("sid-b", "", json.RawMessage(`{"x":1}`)), ErrMalformedChange)
	req.ErrorIs(coord.RelayChange("sid-b", "doc-1", nil), ErrMalformedChange)
	req.ErrorIs(coord.RelayChange("sid-b", "doc-1", json.RawMessage(`null`)), ErrMalformedChange)

	req.Empty(alice.frames)
	req.Empty(bob.frames)
}

func TestDisconnectSweepsAllRooms(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	inR1 := admit(coord, "sid-1", "1", "one")
	inR2 := admit(coord, "sid-2", "2", "two")
	inR3 := admit(coord, "sid-3", "3", "three")
	leaver := admit(coord, "sid-x", "9", "leaver")

	req.NoError(coord.Join("sid-1", "r1"))
	req.NoError(coord.Join("sid-2", "r2"))
	req.NoError(coord.Join("sid-3", "r3"))
	req.NoError(coord.Join("sid-x", "r1"))
	req.NoError(coord.Join("sid-x", "r2"))

	inR1.frames = nil
	inR2.frames = nil
	inR3.frames = nil

	coord.OnDisconnect("sid-x")

	evs1 := inR1.events(t)
	req.Len(evs1, 1)
	req.Equal(EventUserLeft, evs1[0]["type"])
	req.Equal("9", evs1[0]["userId"])

	evs2 := inR2.events(t)
	req.Len(evs2, 1)
	req.Equal(EventUserLeft, evs2[0]["type"])

	req.Empty(inR3.frames)
	req.Empty(coord.Registry.Rooms("sid-x"))

	// Repeated disconnect signal is a no-op.
	coord.OnDisconnect("sid-x")
	req.Len(inR1.frames, 1)
	req.Len(inR2.frames, 1)

	// The leaver itself is never told about its own departure.
	req.Empty(leaver.frames)
}

func TestPreAdmissionDisconnectIgnored(t *testing.T) {
	coord := newCoordinator()
	coord.OnDisconnect("sid-never-admitted")
}

func TestRelayToUnjoinedRoom(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	viewer := admit(coord, "sid-v", "1", "viewer")
	admit(coord, "sid-w", "2", "writer")
	req.NoError(coord.Join("sid-v", "doc-1"))

	// The relay trusts the sender-supplied document id; joining first is
	// not required.
	req.NoError(coord.RelayChange("sid-w", "doc-1", json.RawMessage(`{"x":1}`)))

	evs := viewer.events(t)
	req.Len(evs, 1)
	req.Equal(EventDocumentUpdate, evs[0]["type"])

	// No room exists for the document: nothing to deliver, not an error.
	req.NoError(coord.RelayChange("sid-w", "doc-nobody", json.RawMessage(`{"x":1}`)))
}

// pausingFactory lets a test inject work between a join's room lookup
// and its membership insert, emulating an adversarial schedule.
type pausingFactory struct {
	core.RoomFactory
	once      sync.Once
	beforeAdd func()
}

func (f *pausingFactory) Add(id domain.DocumentID, sid core.SessionID, ms core.MemberSession) core.RoomService {
	if f.beforeAdd != nil {
		f.once.Do(f.beforeAdd)
	}
	return f.RoomFactory.Add(id, sid, ms)
}

func TestJoinDuringLastMemberLeave(t *testing.T) {
	req := require.New(t)
	rooms := &pausingFactory{RoomFactory: NewRoomManager()}
	coord := NewCoordinator(NewRegistry(), rooms)

	admit(coord, "sid-a", "1", "alice")
	bob := admit(coord, "sid-b", "2", "bob")
	carol := admit(coord, "sid-c", "3", "carol")

	req.NoError(coord.Join("sid-a", "doc-1"))

	// Alice's leave empties and drops doc-1 just as bob's join reaches
	// the room insert. Bob must still land in the live room, not a
	// stranded copy the manager has forgotten.
	rooms.beforeAdd = func() {
		req.NoError(coord.Leave("sid-a", "doc-1"))
	}
	req.NoError(coord.Join("sid-b", "doc-1"))

	req.NoError(coord.Join("sid-c", "doc-1"))
	req.NoError(coord.RelayChange("sid-c", "doc-1", json.RawMessage(`{"x":1}`)))

	evs := bob.events(t)
	req.Len(evs, 2)
	req.Equal(EventUserJoined, evs[0]["type"])
	req.Equal("3", evs[0]["userId"])
	req.Equal(EventDocumentUpdate, evs[1]["type"])
	req.Empty(carol.frames)

	room, ok := coord.Rooms.Get("doc-1")
	req.True(ok)
	req.Equal(2, room.MemberCount())
}

func TestEmptyRoomDropped(t *testing.T) {
	req := require.New(t)
	coord := newCoordinator()

	admit(coord, "sid-a", "1", "alice")
	req.NoError(coord.Join("sid-a", "doc-1"))
	req.NoError(coord.Leave("sid-a", "doc-1"))

	_, ok := coord.Rooms.Get("doc-1")
	req.False(ok)
}
