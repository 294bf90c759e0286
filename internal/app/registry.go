package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"docuhub/internal/core"
	"docuhub/internal/domain"
)

type sessionEntry struct {
	User    *domain.User
	Session core.MemberSession
	Rooms   map[domain.DocumentID]struct{}
	Cancel  context.CancelFunc
}

// Registry tracks every admitted connection: its identity, its transport
// session and the set of document rooms it has joined. It is the only
// place a connection's memberships are enumerated from on disconnect.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[core.SessionID]*sessionEntry)}
}

// Bind registers an admitted connection. The identity is fixed for the
// lifetime of the session.
func (r *Registry) Bind(sid core.SessionID, user *domain.User, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		User:    user,
		Session: sess,
		Rooms:   make(map[domain.DocumentID]struct{}),
		Cancel:  cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("user", string(user.ID)).Msg("bound session")
}

// Unbind removes the entry and returns its room memberships exactly once.
// A second call for the same sid finds nothing and reports ok=false, which
// makes the disconnect sweep idempotent.
func (r *Registry) Unbind(sid core.SessionID) (*domain.User, []domain.DocumentID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil, nil, false
	}
	delete(r.sessions, sid)
	rooms := make([]domain.DocumentID, 0, len(e.Rooms))
	for doc := range e.Rooms {
		rooms = append(rooms, doc)
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("unbound session")
	return e.User, rooms, true
}

func (r *Registry) User(sid core.SessionID) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.User, true
	}
	return nil, false
}

func (r *Registry) Session(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// AddRoom records a joined room on the connection. Reports whether the
// membership was newly recorded; a repeated join is not an error but must
// not trigger a second presence broadcast.
func (r *Registry) AddRoom(sid core.SessionID, doc domain.DocumentID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if _, member := e.Rooms[doc]; member {
		return false
	}
	e.Rooms[doc] = struct{}{}
	return true
}

// RemoveRoom forgets a membership. Reports whether the connection was
// actually a member, so callers can suppress duplicate departure events.
func (r *Registry) RemoveRoom(sid core.SessionID, doc domain.DocumentID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if _, member := e.Rooms[doc]; !member {
		return false
	}
	delete(e.Rooms, doc)
	return true
}

func (r *Registry) Rooms(sid core.SessionID) []domain.DocumentID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.DocumentID, 0, len(e.Rooms))
	for doc := range e.Rooms {
		out = append(out, doc)
	}
	return out
}
