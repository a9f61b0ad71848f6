package signal

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Pi-Bouf/geckos.io/internal/domain"
)

func (ctl *Controller) sendCandidate(c *WsSignalConn, ci webrtc.ICECandidateInit) {
	resp := struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid,omitempty"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
	}{
		Type:      "candidate",
		Candidate: ci.Candidate,
	}
	if ci.SDPMid != nil {
		resp.SDPMid = *ci.SDPMid
	}
	if ci.SDPMLineIndex != nil {
		resp.SDPMLineIndex = *ci.SDPMLineIndex
	}
	ctl.sendJSON(c, resp)
}

// handleConnect creates the peer and pushes the server offer back over the
// socket. Local candidates are pushed as they trickle.
func (ctl *Controller) handleConnect(
	ctx context.Context,
	sid string,
	conn *WsSignalConn,
	data []byte,
) {
	if conn.peerID() != "" {
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "already connected",
		})
		return
	}

	type connectPayload struct {
		Type string `json:"type"`
		Room string `json:"room,omitempty"`
	}
	var p connectPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad connect payload")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "bad_payload",
		})
		return
	}

	var room domain.RoomID
	if p.Room != "" {
		parsed, err := domain.ParseRoomID(p.Room)
		if err != nil {
			ctl.sendJSON(conn, map[string]any{
				"type":  "error",
				"error": err.Error(),
			})
			return
		}
		room = parsed
	}

	offer, err := ctl.Srv.CreateConnection(ctx, room)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", sid).Msg("create connection")
		ctl.sendJSON(conn, map[string]any{
			"type":  "error",
			"error": "could not create connection",
		})
		return
	}
	conn.setPeer(offer.ID)

	if peer, ok := ctl.Srv.Peer(offer.ID); ok {
		peer.OnICECandidate(func(ci webrtc.ICECandidateInit) {
			ctl.sendCandidate(conn, ci)
		})
	}

	ctl.sendJSON(conn, map[string]any{
		"type": "offer",
		"id":   offer.ID,
		"sdp":  offer.LocalDescription.SDP,
	})
}

func (ctl *Controller) handleAnswer(
	sid string,
	conn *WsSignalConn,
	data []byte,
) {
	type answerPayload struct {
		Type string `json:"type"`
		SDP  string `json:"sdp"`
	}
	var p answerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}

	peer, ok := ctl.Srv.Peer(conn.peerID())
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", sid).Msg("answer: no peer for socket")
		return
	}
	answer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  p.SDP,
	}
	if err := peer.SetAnswer(answer); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("apply answer")
	}
}

func (ctl *Controller) handleCandidate(
	sid string,
	conn *WsSignalConn,
	data []byte,
) {
	type candidatePayload struct {
		Type          string `json:"type"`
		Candidate     string `json:"candidate"`
		SDPMid        string `json:"sdpMid"`
		SDPMLineIndex uint16 `json:"sdpMLineIndex"`
	}
	var p candidatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}

	peer, ok := ctl.Srv.Peer(conn.peerID())
	if !ok {
		log.Warn().Str("module", "signal").Str("sid", sid).Msg("candidate: no peer for socket")
		return
	}
	cand := webrtc.ICECandidateInit{
		Candidate: p.Candidate,
	}
	if p.SDPMid != "" {
		cand.SDPMid = &p.SDPMid
	}
	cand.SDPMLineIndex = &p.SDPMLineIndex
	if err := peer.AddICECandidate(cand); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("add ice candidate")
	}
}

func (ctl *Controller) handleClose(sid string, conn *WsSignalConn) {
	id := conn.peerID()
	if id == "" {
		return
	}
	log.Info().Str("module", "signal").Str("sid", sid).Str("channel", string(id)).Msg("close requested")
	ctl.Srv.CloseConnection(id)
	conn.setPeer("")
	ctl.sendJSON(conn, map[string]string{"type": "closed"})
}
