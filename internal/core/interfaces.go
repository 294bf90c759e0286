package core

import "docuhub/internal/domain"

// Frame is a marshalled JSON event ready for the wire.
type Frame []byte

type SessionID string

// SignalConnection abstracts the messaging transport of one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberSession binds a verified identity and its transport endpoint.
// This is what a room stores and fans out to.
type MemberSession interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the coordinator.
type PublishResult struct {
	SentTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.UserID `json:"id"`
	Username string        `json:"username"`
}

// RoomService is the core-facing API of a document room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Document() domain.DocumentID
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(sid SessionID, ms MemberSession)
	RemoveMember(sid SessionID) bool
	Broadcast(from SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	Document    domain.DocumentID `json:"document"`
	MemberCount int               `json:"member_count"`
}

type RoomFactory interface {
	// Add inserts the member into the room for id, creating the room if
	// needed. Creation and insert happen atomically with respect to Drop,
	// so a member can never end up in a room the factory has forgotten.
	Add(id domain.DocumentID, sid SessionID, ms MemberSession) RoomService
	Get(id domain.DocumentID) (RoomService, bool)
	List() []RoomInfo
	Drop(id domain.DocumentID)
}
