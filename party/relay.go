/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultBroadcastActions are the authoritative state transitions that the
// coordinator publishes and must see echoed back like everybody else.
var DefaultBroadcastActions = []string{
	"quadmatch_game_started",
	"quadmatch_turn_change",
	"quadmatch_round_complete",
	"quadmatch_game_over",
	"quadmatch_play_again",
	"quadmatch_full_state_sync",
}

// Relay decides who receives a relayed game action.
type Relay struct {
	broadcast map[string]struct{}
}

func NewRelay(actions []string) *Relay {
	r := &Relay{broadcast: make(map[string]struct{}, len(actions))}
	for _, a := range actions {
		if a = strings.TrimSpace(a); a != "" {
			r.broadcast[a] = struct{}{}
		}
	}
	return r
}

// FullRebroadcast reports whether action is delivered to its sender as well.
func (r *Relay) FullRebroadcast(action string) bool {
	_, ok := r.broadcast[action]
	return ok
}

func (h *Hub) handleGameAction(id ParticipantID, env *Envelope) {
	room, ok := h.roomOf(id)
	if !ok || room.Status != StatusActive {
		h.log.Debug("dropping game action outside active game", zap.String("player", string(id)), zap.String("action", env.Action))
		return
	}

	if env.Action == "" {
		h.log.Warn("dropping game action without label", zap.String("player", string(id)))
		return
	}

	full := h.relay.FullRebroadcast(env.Action)
	if full && h.opts.EnforceHostAuthority && !room.isCoordinator(id) {
		h.fail(id, ErrNotAuthorized)
		return
	}

	var seat Seat
	if p, ok := room.Participant(id); ok {
		seat = p.Seat
	}

	msg := ActionMessage{
		Type:           TypeGameAction,
		PlayerID:       id,
		SenderPosition: seat,
		Action:         env.Action,
		Data:           env.Data,
	}

	skip := id
	if full {
		skip = ""
	}

	h.broadcast(room, msg, skip)
}

func (h *Hub) handleUpdateGameState(id ParticipantID, env *Envelope) {
	room, ok := h.roomOf(id)
	if !ok {
		return
	}

	if h.opts.EnforceHostAuthority && !room.isCoordinator(id) {
		h.fail(id, ErrNotAuthorized)
		return
	}

	room.Snapshot = env.GameState

	h.broadcast(room, GameStateMessage{Type: TypeGameStateUpdated, GameState: env.GameState}, id)
}

func (h *Hub) handleChat(id ParticipantID, env *Envelope) {
	room, ok := h.roomOf(id)
	if !ok {
		return
	}

	text := strings.TrimSpace(env.Message)
	if text == "" {
		return
	}

	p, ok := room.Participant(id)
	if !ok {
		return
	}

	h.broadcast(room, ChatMessage{
		Type:       TypeChat,
		PlayerID:   id,
		PlayerName: p.Name,
		Message:    text,
	}, "")
}
