package app

import (
	"encoding/json"

	"docuhub/internal/domain"
)

const (
	EventUserJoined     = "userJoined"
	EventUserLeft       = "userLeft"
	EventDocumentUpdate = "documentUpdate"
)

// PresenceEvent announces a membership change to the other room members.
type PresenceEvent struct {
	Type     string        `json:"type"`
	UserID   domain.UserID `json:"userId"`
	Username string        `json:"username"`
}

// UpdateEvent carries a relayed document change, stamped with the sender
// identity and an ISO-8601 timestamp. Changes stay opaque: the server
// never inspects or merges them.
type UpdateEvent struct {
	Type       string            `json:"type"`
	DocumentID domain.DocumentID `json:"documentId"`
	Changes    json.RawMessage   `json:"changes"`
	User       domain.User       `json:"user"`
	Timestamp  string            `json:"timestamp"`
}
