/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"go.uber.org/zap"
)

const (
	defaultVariant = "classic"
	defaultTheme   = "default"
)

func (h *Hub) defaultSettings() Settings {
	return Settings{
		Capacity:   h.opts.DefaultCapacity,
		Visibility: VisibilityPrivate,
		Variant:    defaultVariant,
		Theme:      defaultTheme,
	}
}

func (h *Hub) handleCreate(id ParticipantID, env *Envelope) {
	settings := env.apply(h.defaultSettings(), true)
	if err := settings.validate(1); err != nil {
		h.fail(id, err)
		return
	}

	name := displayName(env.PlayerName)

	// The old seat is only given up once the new room exists.
	room, err := h.store.Create(id, name, settings)
	if err != nil {
		h.log.Error("room creation failed", zap.String("player", string(id)), zap.Error(err))
		h.fail(id, err)
		return
	}

	if current := h.registry.RoomOf(id); current != "" {
		h.leaveRoom(id, current, true)
	}

	h.registry.SetRoom(id, room.ID)

	h.log.Info("room created",
		zap.String("room", room.Code),
		zap.String("host", name),
		zap.Int("capacity", settings.Capacity),
		zap.Bool("public", settings.Visibility == VisibilityPublic),
	)

	h.send(id, RoomMessage{Type: TypeRoomCreated, Room: room.Info()})
}

func (h *Hub) handleJoin(id ParticipantID, env *Envelope) {
	var (
		room *Room
		ok   bool
	)
	switch {
	case env.RoomCode != "":
		room, ok = h.store.FindByCode(env.RoomCode)
	case env.RoomID != "":
		room, ok = h.store.FindByID(env.RoomID)
	}
	if !ok {
		h.fail(id, ErrRoomNotFound)
		return
	}

	current := h.registry.RoomOf(id)
	if current == room.ID {
		h.send(id, RoomMessage{Type: TypeJoinedRoom, Room: room.Info()})
		return
	}

	if err := room.admit(); err != nil {
		h.fail(id, err)
		return
	}

	if current != "" {
		h.leaveRoom(id, current, true)
	}

	player, err := room.addParticipant(id, displayName(env.PlayerName), h.now())
	if err != nil {
		h.fail(id, err)
		return
	}

	h.registry.SetRoom(id, room.ID)

	h.log.Info("player joined",
		zap.String("room", room.Code),
		zap.String("player", player.Name),
		zap.String("seat", string(player.Seat)),
	)

	info := room.Info()

	h.broadcast(room, PlayerJoinedMessage{Type: TypePlayerJoined, Player: player.info(), Room: info}, id)
	h.send(id, RoomMessage{Type: TypeJoinedRoom, Room: info})
}

func (h *Hub) handleLeave(id ParticipantID) {
	roomID := h.registry.RoomOf(id)
	if roomID == "" {
		return
	}
	h.leaveRoom(id, roomID, true)
}

// leaveRoom removes id from roomID. Intentional leavers get a left_room
// acknowledgement; everybody still seated gets the updated membership.
func (h *Hub) leaveRoom(id ParticipantID, roomID string, intentional bool) {
	h.registry.SetRoom(id, "")

	if intentional {
		h.send(id, LeftRoomMessage{Type: TypeLeftRoom})
	}

	room, ok := h.store.FindByID(roomID)
	if !ok {
		return
	}

	removed, promoted := room.removeParticipant(id)
	if removed == nil {
		return
	}

	h.log.Info("player left",
		zap.String("room", room.Code),
		zap.String("player", removed.Name),
		zap.Bool("intentional", intentional),
	)

	if room.Len() == 0 {
		h.store.Remove(room.ID)
		h.log.Info("room closed", zap.String("room", room.Code))
		return
	}

	if promoted != nil {
		h.log.Info("host transferred", zap.String("room", room.Code), zap.String("host", promoted.Name))
	}

	h.broadcast(room, PlayerLeftMessage{Type: TypePlayerLeft, PlayerID: id, Room: room.Info()}, "")
}

func (h *Hub) handleToggleReady(id ParticipantID) {
	room, ok := h.roomOf(id)
	if !ok {
		return
	}

	p, ok := room.Participant(id)
	if !ok {
		return
	}

	p.IsReady = !p.IsReady

	h.broadcast(room, PlayerReadyMessage{
		Type:     TypePlayerReady,
		PlayerID: id,
		IsReady:  p.IsReady,
		Room:     room.Info(),
	}, "")
}

func (h *Hub) handleStart(id ParticipantID) {
	room, ok := h.roomOf(id)
	if !ok {
		h.fail(id, ErrNotInRoom)
		return
	}

	if err := room.startGate(id); err != nil {
		h.fail(id, err)
		return
	}

	room.Status = StatusActive

	h.log.Info("game started",
		zap.String("room", room.Code),
		zap.Int("players", room.Len()),
		zap.Int("synthetic", room.Settings.SyntheticCount),
	)

	h.broadcast(room, RoomMessage{Type: TypeGameStarted, Room: room.Info()}, "")
}

func (h *Hub) handleUpdateSettings(id ParticipantID, env *Envelope) {
	room, ok := h.roomOf(id)
	if !ok {
		h.fail(id, ErrNotInRoom)
		return
	}

	if !room.isCoordinator(id) {
		h.fail(id, ErrNotAuthorized)
		return
	}

	if room.Status != StatusWaiting {
		h.fail(id, ErrGameInProgress)
		return
	}

	settings := env.apply(room.Settings, false)
	if err := settings.validate(room.Len()); err != nil {
		h.fail(id, err)
		return
	}

	room.Settings = settings

	h.broadcast(room, RoomMessage{Type: TypeSettingsUpdated, Room: room.Info()}, "")
}

func (h *Hub) handleEndGame(id ParticipantID, env *Envelope) {
	room, ok := h.roomOf(id)
	if !ok || room.Status != StatusActive {
		return
	}

	room.Status = StatusFinished

	h.log.Info("game ended", zap.String("room", room.Code))

	h.broadcast(room, GameEndedMessage{Type: TypeGameEnded, Results: env.Results}, "")
}
