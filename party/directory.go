/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

func (h *Hub) directory() []RoomInfo {
	rooms := h.store.ListPublicJoinable()

	out := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Info())
	}

	return out
}

func (h *Hub) handlePublicRooms(id ParticipantID) {
	h.send(id, PublicRoomsMessage{Type: TypePublicRooms, Rooms: h.directory()})
}
