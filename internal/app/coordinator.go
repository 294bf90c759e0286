package app

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"docuhub/internal/core"
	"docuhub/internal/domain"
)

var (
	// ErrUnauthenticated guards room operations reached without a bound
	// identity. Admission gating makes this unreachable in practice, but
	// the coordinator still refuses rather than trusting the caller.
	ErrUnauthenticated = errors.New("unauthenticated session")

	// ErrMalformedChange rejects a relay payload missing its document id
	// or its changes.
	ErrMalformedChange = errors.New("malformed change payload")
)

// Coordinator owns the per-document collaboration sessions: room
// membership, presence events and change relay. All room state is reached
// through the injected registry and room factory, never ambient globals.
type Coordinator struct {
	Registry *Registry
	Rooms    core.RoomFactory
}

func NewCoordinator(reg *Registry, rooms core.RoomFactory) *Coordinator {
	return &Coordinator{Registry: reg, Rooms: rooms}
}

// Join adds the connection to the room for doc, creating the room on first
// join, and announces the newcomer to the other members. Joining a room
// twice is a no-op.
func (c *Coordinator) Join(sid core.SessionID, doc domain.DocumentID) error {
	user, ok := c.Registry.User(sid)
	if !ok {
		return ErrUnauthenticated
	}
	sess, ok := c.Registry.Session(sid)
	if !ok {
		return ErrUnauthenticated
	}

	added := c.Registry.AddRoom(sid, doc)
	room := c.Rooms.Add(doc, sid, sess)
	if !added {
		return nil
	}

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("doc", string(doc)).Str("user", user.Username).Msg("joined document")
	c.broadcast(room, sid, PresenceEvent{
		Type:     EventUserJoined,
		UserID:   user.ID,
		Username: user.Username,
	})
	return nil
}

// Leave removes the connection from the room and announces the departure
// to the remaining members. Leaving a room it is not in is a no-op.
func (c *Coordinator) Leave(sid core.SessionID, doc domain.DocumentID) error {
	user, ok := c.Registry.User(sid)
	if !ok {
		return ErrUnauthenticated
	}

	wasMember := c.Registry.RemoveRoom(sid, doc)
	room, exists := c.Rooms.Get(doc)
	if exists {
		room.RemoveMember(sid)
	}
	if !wasMember || !exists {
		return nil
	}

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("doc", string(doc)).Str("user", user.Username).Msg("left document")
	c.broadcast(room, sid, PresenceEvent{
		Type:     EventUserLeft,
		UserID:   user.ID,
		Username: user.Username,
	})
	if room.MemberCount() == 0 {
		c.Rooms.Drop(doc)
	}
	return nil
}

// RelayChange stamps the sender identity and a timestamp onto the change
// and fans it out to every other member of the target room. The target is
// selected by the sender-supplied document id; membership in that room is
// deliberately not re-checked (raw relay, no authorization layer).
func (c *Coordinator) RelayChange(sid core.SessionID, doc domain.DocumentID, changes json.RawMessage) error {
	user, ok := c.Registry.User(sid)
	if !ok {
		return ErrUnauthenticated
	}
	if doc == "" || len(changes) == 0 || string(changes) == "null" {
		return ErrMalformedChange
	}

	room, exists := c.Rooms.Get(doc)
	if !exists {
		// Nobody is viewing the document; nothing to deliver.
		return nil
	}
	c.broadcast(room, sid, UpdateEvent{
		Type:       EventDocumentUpdate,
		DocumentID: doc,
		Changes:    changes,
		User:       *user,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// OnDisconnect sweeps the connection out of every room it joined and
// announces the departure to each. Safe to call more than once; a
// pre-admission disconnect (no identity bound) is silently ignored.
func (c *Coordinator) OnDisconnect(sid core.SessionID) {
	user, rooms, ok := c.Registry.Unbind(sid)
	if !ok {
		return
	}

	log.Info().Str("module", "app.coordinator").Str("sid", string(sid)).Str("user", user.Username).Int("rooms", len(rooms)).Msg("disconnected")
	ev := PresenceEvent{
		Type:     EventUserLeft,
		UserID:   user.ID,
		Username: user.Username,
	}
	for _, doc := range rooms {
		room, exists := c.Rooms.Get(doc)
		if !exists {
			continue
		}
		room.RemoveMember(sid)
		c.broadcast(room, sid, ev)
		if room.MemberCount() == 0 {
			c.Rooms.Drop(doc)
		}
	}
}

func (c *Coordinator) broadcast(room core.RoomService, from core.SessionID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal event")
		return
	}
	room.Broadcast(from, b)
}
