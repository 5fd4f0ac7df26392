/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConn records every message queued for it.
type fakeConn struct {
	msgs   []any
	full   bool
	closed bool
}

func (c *fakeConn) Send(msg any) bool {
	if c.full {
		return false
	}
	c.msgs = append(c.msgs, msg)
	return true
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

// drain returns and forgets everything queued so far.
func (c *fakeConn) drain() []any {
	out := c.msgs
	c.msgs = nil
	return out
}

func (c *fakeConn) types() []string {
	out := make([]string, 0, len(c.msgs))
	for _, m := range c.msgs {
		out = append(out, typeOf(m))
	}
	return out
}

func typeOf(msg any) string {
	raw, err := json.Marshal(msg)
	if err != nil {
		return ""
	}
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &env)
	return env.Type
}

// last returns the most recent message of type T.
func last[T any](t *testing.T, c *fakeConn) T {
	t.Helper()
	for i := len(c.msgs) - 1; i >= 0; i-- {
		if m, ok := c.msgs[i].(T); ok {
			return m
		}
	}
	var zero T
	require.Failf(t, "message not found", "no %T among %v", zero, c.types())
	return zero
}

// count reports how many queued messages have type T.
func count[T any](c *fakeConn) int {
	n := 0
	for _, m := range c.msgs {
		if _, ok := m.(T); ok {
			n++
		}
	}
	return n
}

type player struct {
	id   ParticipantID
	conn *fakeConn
}

func newTestHub(opts Options) *Hub {
	return NewHub(nil, opts)
}

func join(h *Hub) player {
	c := &fakeConn{}
	id := h.connect(c)
	c.drain()
	return player{id: id, conn: c}
}

func send(t *testing.T, h *Hub, p player, msg map[string]any) {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	h.handle(p.id, raw)
}

// createRoom has p found a room and returns its snapshot.
func createRoom(t *testing.T, h *Hub, p player, extra map[string]any) RoomInfo {
	t.Helper()
	msg := map[string]any{"type": TypeCreateRoom, "playerName": "host"}
	for k, v := range extra {
		msg[k] = v
	}
	send(t, h, p, msg)
	created := last[RoomMessage](t, p.conn)
	require.Equal(t, TypeRoomCreated, created.Type)
	p.conn.drain()
	return created.Room
}

func joinRoom(t *testing.T, h *Hub, p player, code, name string) {
	t.Helper()
	send(t, h, p, map[string]any{"type": TypeJoinRoom, "roomCode": code, "playerName": name})
}

func errorCode(t *testing.T, c *fakeConn) string {
	t.Helper()
	return last[ErrorMessage](t, c).Code
}

func lower(s string) string {
	return strings.ToLower(s)
}
