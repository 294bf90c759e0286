package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"docuhub/internal/domain"
)

// roomImpl is a threadsafe in-memory room.
// It never closes adapter-owned resources.
type roomImpl struct {
	doc   domain.DocumentID
	mu    sync.RWMutex
	bySID map[SessionID]MemberSession
}

func NewRoomService(doc domain.DocumentID) RoomService {
	return &roomImpl{
		doc:   doc,
		bySID: make(map[SessionID]MemberSession),
	}
}

func (r *roomImpl) Document() domain.DocumentID { return r.doc }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

// AddMember is idempotent: re-adding the same session has no effect.
func (r *roomImpl) AddMember(sid SessionID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; ok {
		return
	}
	r.bySID[sid] = ms
	log.Info().Str("module", "core.room").Str("doc", string(r.doc)).Str("sid", string(sid)).Msg("member added")
}

// RemoveMember reports whether the session was a member.
func (r *roomImpl) RemoveMember(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bySID[sid]; !ok {
		return false
	}
	delete(r.bySID, sid)
	log.Info().Str("module", "core.room").Str("doc", string(r.doc)).Str("sid", string(sid)).Msg("member removed")
	return true
}

// Broadcast fans a frame out to every member except the sender.
// A failed send to one member never aborts delivery to the rest.
func (r *roomImpl) Broadcast(from SessionID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, m := range r.bySID {
		if sid == from {
			continue
		}
		if err := m.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("doc", string(r.doc)).Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.bySID))
	for _, ms := range r.bySID {
		u := ms.User()
		out = append(out, MemberDTO{ID: u.ID, Username: u.Username})
	}
	return out
}
