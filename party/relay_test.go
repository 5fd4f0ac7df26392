/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedTable returns a host and guest seated in a game that has started.
func startedTable(t *testing.T, opts Options) (*Hub, player, player) {
	t.Helper()
	h := newTestHub(opts)
	host, guest := join(h), join(h)
	room := createRoom(t, h, host, nil)
	joinRoom(t, h, guest, room.Code, "guest")
	send(t, h, guest, map[string]any{"type": TypeToggleReady})
	send(t, h, host, map[string]any{"type": TypeStartGame})
	host.conn.drain()
	guest.conn.drain()
	return h, host, guest
}

func TestRelay_FullRebroadcast(t *testing.T) {
	r := NewRelay([]string{"sync", " ", "turn "})

	assert.True(t, r.FullRebroadcast("sync"))
	assert.True(t, r.FullRebroadcast("turn"))
	assert.False(t, r.FullRebroadcast(""))
	assert.False(t, r.FullRebroadcast("move"))
}

func TestHub_GameAction_PeerRelaySkipsSender(t *testing.T) {
	h, host, guest := startedTable(t, Options{})

	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "card_selected", "data": map[string]any{"card": 7}})

	assert.Empty(t, guest.conn.msgs)
	require.Equal(t, 1, count[ActionMessage](host.conn))
	msg := last[ActionMessage](t, host.conn)
	assert.Equal(t, guest.id, msg.PlayerID)
	assert.Equal(t, SeatWest, msg.SenderPosition)
	assert.Equal(t, "card_selected", msg.Action)
	assert.JSONEq(t, `{"card":7}`, string(msg.Data))
}

func TestHub_GameAction_FullRebroadcastReachesSender(t *testing.T) {
	h, host, guest := startedTable(t, Options{})

	for _, action := range DefaultBroadcastActions {
		send(t, h, host, map[string]any{"type": TypeGameAction, "action": action})

		for _, p := range []player{host, guest} {
			require.Equal(t, 1, count[ActionMessage](p.conn), action)
			msg := last[ActionMessage](t, p.conn)
			assert.Equal(t, action, msg.Action)
			assert.Equal(t, SeatSouth, msg.SenderPosition)
			p.conn.drain()
		}
	}
}

func TestHub_GameAction_DroppedOutsideActiveGame(t *testing.T) {
	h := newTestHub(Options{})
	host, guest := join(h), join(h)
	room := createRoom(t, h, host, nil)
	joinRoom(t, h, guest, room.Code, "guest")
	host.conn.drain()

	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "card_selected"})
	assert.Empty(t, host.conn.msgs)

	loner := join(h)
	send(t, h, loner, map[string]any{"type": TypeGameAction, "action": "card_selected"})
	assert.Empty(t, loner.conn.msgs)
}

func TestHub_GameAction_DroppedWithoutLabel(t *testing.T) {
	h, host, guest := startedTable(t, Options{})

	send(t, h, guest, map[string]any{"type": TypeGameAction})

	assert.Empty(t, host.conn.msgs)
}

func TestHub_GameAction_EnforcedHostAuthority(t *testing.T) {
	h, host, guest := startedTable(t, Options{EnforceHostAuthority: true})

	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "quadmatch_turn_change"})
	assert.Equal(t, "not_authorized", errorCode(t, guest.conn))
	assert.Empty(t, host.conn.msgs)

	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "card_selected"})
	assert.Equal(t, "card_selected", last[ActionMessage](t, host.conn).Action)
}

func TestHub_GameAction_CustomBroadcastList(t *testing.T) {
	h, host, guest := startedTable(t, Options{BroadcastActions: []string{"sync"}})

	send(t, h, host, map[string]any{"type": TypeGameAction, "action": "quadmatch_turn_change"})
	assert.Empty(t, host.conn.msgs)

	send(t, h, host, map[string]any{"type": TypeGameAction, "action": "sync"})
	assert.Equal(t, "sync", last[ActionMessage](t, host.conn).Action)
	assert.Equal(t, "sync", last[ActionMessage](t, guest.conn).Action)
}

func TestHub_UpdateGameState(t *testing.T) {
	h := newTestHub(Options{})
	host, guest := join(h), join(h)
	room := createRoom(t, h, host, nil)
	joinRoom(t, h, guest, room.Code, "guest")
	host.conn.drain()
	guest.conn.drain()

	send(t, h, host, map[string]any{"type": TypeUpdateGameState, "gameState": map[string]any{"turn": 3}})

	assert.Empty(t, host.conn.msgs)
	msg := last[GameStateMessage](t, guest.conn)
	assert.JSONEq(t, `{"turn":3}`, string(msg.GameState))

	r, ok := h.store.FindByCode(room.Code)
	require.True(t, ok)
	assert.JSONEq(t, `{"turn":3}`, string(r.Snapshot))
}

func TestHub_UpdateGameState_EnforcedHostAuthority(t *testing.T) {
	h, host, guest := startedTable(t, Options{EnforceHostAuthority: true})

	send(t, h, guest, map[string]any{"type": TypeUpdateGameState, "gameState": map[string]any{"turn": 1}})

	assert.Equal(t, "not_authorized", errorCode(t, guest.conn))
	assert.Empty(t, host.conn.msgs)
}

func TestHub_Chat(t *testing.T) {
	h := newTestHub(Options{})
	host, guest := join(h), join(h)
	room := createRoom(t, h, host, nil)
	joinRoom(t, h, guest, room.Code, "guest")
	host.conn.drain()
	guest.conn.drain()

	send(t, h, guest, map[string]any{"type": TypeChat, "playerName": "impostor", "message": "  hello  "})

	for _, p := range []player{host, guest} {
		msg := last[ChatMessage](t, p.conn)
		assert.Equal(t, "guest", msg.PlayerName)
		assert.Equal(t, "hello", msg.Message)
		assert.Equal(t, guest.id, msg.PlayerID)
	}

	send(t, h, guest, map[string]any{"type": TypeChat, "message": "   "})
	assert.Len(t, host.conn.msgs, 1)
}

func TestHub_GameAction_PreservesOrder(t *testing.T) {
	h, host, guest := startedTable(t, Options{})

	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "first"})
	send(t, h, host, map[string]any{"type": TypeGameAction, "action": "quadmatch_full_state_sync"})
	send(t, h, guest, map[string]any{"type": TypeGameAction, "action": "second"})

	actions := func(c *fakeConn) []string {
		var out []string
		for _, m := range c.msgs {
			if a, ok := m.(ActionMessage); ok {
				out = append(out, a.Action)
			}
		}
		return out
	}

	assert.Equal(t, []string{"first", "quadmatch_full_state_sync", "second"}, actions(host.conn))
	assert.Equal(t, []string{"quadmatch_full_state_sync"}, actions(guest.conn))
}
