/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chanConn is safe to use from the hub goroutine and the test goroutine.
type chanConn struct {
	out    chan any
	closed atomic.Bool
}

func newChanConn() *chanConn {
	return &chanConn{out: make(chan any, 16)}
}

func (c *chanConn) Send(msg any) bool {
	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

func (c *chanConn) Close() error {
	c.closed.Store(true)
	return nil
}

// recv waits for one message so tests never hang.
func recv[T any](t *testing.T, c *chanConn) T {
	t.Helper()
	select {
	case msg := <-c.out:
		m, ok := msg.(T)
		require.Truef(t, ok, "got %T (%s)", msg, typeOf(msg))
		return m
	case <-time.After(time.Second):
		var zero T
		require.FailNowf(t, "timed out", "waiting for %T", zero)
		return zero
	}
}

func runHub(t *testing.T, opts Options) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	h := NewHub(nil, opts)
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() { errs <- h.Run(ctx) }()
	t.Cleanup(cancel)
	return h, cancel, errs
}

func deliver(t *testing.T, h *Hub, id ParticipantID, msg map[string]any) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	h.Deliver(id, raw)
}

func TestHub_Run_EndToEnd(t *testing.T) {
	h, _, _ := runHub(t, Options{})
	ctx := context.Background()

	hostConn, guestConn := newChanConn(), newChanConn()

	hostID, err := h.Connect(ctx, hostConn)
	require.NoError(t, err)
	assert.Equal(t, hostID, recv[ConnectedMessage](t, hostConn).PlayerID)

	guestID, err := h.Connect(ctx, guestConn)
	require.NoError(t, err)
	recv[ConnectedMessage](t, guestConn)

	deliver(t, h, hostID, map[string]any{"type": TypeCreateRoom, "playerName": "host", "isPublic": true})
	created := recv[RoomMessage](t, hostConn)

	n, err := h.RoomCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	info, found, err := h.RoomByCode(ctx, created.Room.Code)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, created.Room.ID, info.ID)

	rooms, err := h.PublicRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	deliver(t, h, guestID, map[string]any{"type": TypeJoinRoom, "roomCode": created.Room.Code, "playerName": "guest"})
	recv[PlayerJoinedMessage](t, hostConn)
	recv[RoomMessage](t, guestConn)

	h.Disconnect(hostID)

	left := recv[PlayerLeftMessage](t, guestConn)
	assert.Equal(t, guestID, left.Room.HostID)

	_, found, err = h.RoomByCode(ctx, created.Room.Code)
	require.NoError(t, err)
	assert.True(t, found)

	h.Disconnect(guestID)

	require.Eventually(t, func() bool {
		n, err := h.RoomCount(ctx)
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_Run_ShutdownClosesConnections(t *testing.T) {
	h, cancel, errs := runHub(t, Options{})

	conn := newChanConn()
	_, err := h.Connect(context.Background(), conn)
	require.NoError(t, err)

	cancel()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		require.FailNow(t, "hub did not stop")
	}

	assert.True(t, conn.closed.Load())

	_, err = h.Connect(context.Background(), newChanConn())
	assert.ErrorIs(t, err, ErrHubClosed)

	_, err = h.RoomCount(context.Background())
	assert.ErrorIs(t, err, ErrHubClosed)

	// Must not block once the loop is gone.
	h.Disconnect("gone")
	h.Deliver("gone", []byte(`{}`))
}

func TestHub_Connect_HonorsContext(t *testing.T) {
	h := NewHub(nil, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Connect(ctx, newChanConn())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHub_Run_DisconnectDestroysSoloRoom(t *testing.T) {
	h, _, _ := runHub(t, Options{})
	ctx := context.Background()

	conn := newChanConn()
	id, err := h.Connect(ctx, conn)
	require.NoError(t, err)
	recv[ConnectedMessage](t, conn)

	h.Deliver(id, []byte(`{"type":"create_room"}`))
	recv[RoomMessage](t, conn)

	h.Disconnect(id)

	require.Eventually(t, func() bool {
		n, err := h.RoomCount(ctx)
		return err == nil && n == 0
	}, time.Second, 5*time.Millisecond)
}

func TestHub_Run_DisconnectAfterPendingMessages(t *testing.T) {
	h, _, _ := runHub(t, Options{})
	ctx := context.Background()

	hostConn, guestConn := newChanConn(), newChanConn()

	hostID, err := h.Connect(ctx, hostConn)
	require.NoError(t, err)
	recv[ConnectedMessage](t, hostConn)

	guestID, err := h.Connect(ctx, guestConn)
	require.NoError(t, err)
	recv[ConnectedMessage](t, guestConn)

	deliver(t, h, hostID, map[string]any{"type": TypeCreateRoom})
	created := recv[RoomMessage](t, hostConn)

	deliver(t, h, guestID, map[string]any{"type": TypeJoinRoom, "roomCode": created.Room.Code})
	recv[PlayerJoinedMessage](t, hostConn)
	recv[RoomMessage](t, guestConn)

	deliver(t, h, guestID, map[string]any{"type": TypeToggleReady})
	recv[PlayerReadyMessage](t, hostConn)
	recv[PlayerReadyMessage](t, guestConn)

	deliver(t, h, hostID, map[string]any{"type": TypeStartGame})
	recv[RoomMessage](t, hostConn)
	recv[RoomMessage](t, guestConn)

	// Stall the loop so the action and the disconnect queue up behind it.
	busy, gate := make(chan struct{}), make(chan struct{})
	stalled := make(chan error, 1)
	go func() {
		stalled <- h.query(ctx, func() {
			close(busy)
			<-gate
		})
	}()
	<-busy

	deliver(t, h, guestID, map[string]any{"type": TypeGameAction, "action": "card_selected"})
	deliver(t, h, guestID, map[string]any{"type": TypeGameAction, "action": "quadmatch_turn_change"})
	h.Disconnect(guestID)

	close(gate)
	require.NoError(t, <-stalled)

	assert.Equal(t, "card_selected", recv[ActionMessage](t, hostConn).Action)
	assert.Equal(t, "quadmatch_turn_change", recv[ActionMessage](t, hostConn).Action)

	left := recv[PlayerLeftMessage](t, hostConn)
	assert.Equal(t, guestID, left.PlayerID)

	assert.Equal(t, "quadmatch_turn_change", recv[ActionMessage](t, guestConn).Action)
}

func TestNewHub_Defaults(t *testing.T) {
	h := NewHub(nil, Options{DefaultCapacity: 9})

	assert.Equal(t, MaxCapacity, h.opts.DefaultCapacity)
	assert.Equal(t, DefaultBroadcastActions, h.opts.BroadcastActions)
	assert.Equal(t, defaultInboxSize, h.opts.InboxSize)
	assert.Equal(t, defaultInboxSize, cap(h.inbox))
}
