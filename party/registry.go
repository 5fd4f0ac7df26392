/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"go.uber.org/multierr"
)

// Conn is the outbound half of a client connection. Send must not block:
// it reports false when the message could not be queued.
type Conn interface {
	Send(msg any) bool
	Close() error
}

type entry struct {
	conn   Conn
	roomID string
}

// Registry maps live participant ids to their connection and current room.
type Registry struct {
	entries map[ParticipantID]*entry
	newID   func() ParticipantID
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[ParticipantID]*entry),
		newID:   newParticipantID,
	}
}

// Connect registers conn under a freshly generated id that is unique among
// live connections.
func (r *Registry) Connect(conn Conn) ParticipantID {
	id := r.newID()
	for {
		if _, taken := r.entries[id]; !taken {
			break
		}
		id = r.newID()
	}

	r.entries[id] = &entry{conn: conn}

	return id
}

// Disconnect discards the entry for id and returns the room it was in, if any.
func (r *Registry) Disconnect(id ParticipantID) (string, bool) {
	e, ok := r.entries[id]
	if !ok {
		return "", false
	}
	delete(r.entries, id)
	return e.roomID, true
}

func (r *Registry) Conn(id ParticipantID) (Conn, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// RoomOf returns the id of the room id is seated in, or "" if none.
func (r *Registry) RoomOf(id ParticipantID) string {
	if e, ok := r.entries[id]; ok {
		return e.roomID
	}
	return ""
}

func (r *Registry) SetRoom(id ParticipantID, roomID string) {
	if e, ok := r.entries[id]; ok {
		e.roomID = roomID
	}
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// CloseAll closes every registered connection and empties the registry.
func (r *Registry) CloseAll() error {
	var err error
	for id, e := range r.entries {
		err = multierr.Append(err, e.conn.Close())
		delete(r.entries, id)
	}
	return err
}
