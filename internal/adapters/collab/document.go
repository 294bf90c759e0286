package collab

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"docuhub/internal/app"
	"docuhub/internal/core"
	"docuhub/internal/domain"
)

func (ctl *Controller) handleJoinDocument(sid core.SessionID, data []byte) {
	type joinPayload struct {
		Type       string `json:"type"`
		DocumentID string `json:"documentId"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("bad join payload")
		return
	}
	if p.DocumentID == "" {
		log.Warn().Str("module", "collab").Str("sid", string(sid)).Msg("join without documentId dropped")
		return
	}

	log.Info().Str("module", "collab").Str("sid", string(sid)).Str("doc", p.DocumentID).Msg("joinDocument")
	if err := ctl.Coord.Join(sid, domain.DocumentID(p.DocumentID)); err != nil {
		log.Error().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("join rejected")
	}
}

func (ctl *Controller) handleDocumentChange(sid core.SessionID, data []byte) {
	type changePayload struct {
		Type       string          `json:"type"`
		DocumentID string          `json:"documentId"`
		Changes    json.RawMessage `json:"changes"`
	}
	var p changePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("bad change payload")
		return
	}

	err := ctl.Coord.RelayChange(sid, domain.DocumentID(p.DocumentID), p.Changes)
	switch {
	case err == nil:
	case errors.Is(err, app.ErrMalformedChange):
		// Dropped without a response; only the offending event dies.
		log.Warn().Str("module", "collab").Str("sid", string(sid)).Msg("malformed change dropped")
	default:
		log.Error().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("relay failed")
	}
}

func (ctl *Controller) handleLeaveDocument(sid core.SessionID, data []byte) {
	type leavePayload struct {
		Type       string `json:"type"`
		DocumentID string `json:"documentId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "collab").Msg("bad leave payload")
		return
	}

	log.Info().Str("module", "collab").Str("sid", string(sid)).Str("doc", p.DocumentID).Msg("leaveDocument")
	if err := ctl.Coord.Leave(sid, domain.DocumentID(p.DocumentID)); err != nil {
		log.Error().Err(err).Str("module", "collab").Str("sid", string(sid)).Msg("leave rejected")
	}
}
