/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import "encoding/json"

// Inbound message types.
const (
	TypeCreateRoom      = "create_room"
	TypeJoinRoom        = "join_room"
	TypeLeaveRoom       = "leave_room"
	TypeToggleReady     = "toggle_ready"
	TypeStartGame       = "start_game"
	TypeUpdateSettings  = "update_settings"
	TypeGameAction      = "game_action"
	TypeUpdateGameState = "update_game_state"
	TypeEndGame         = "end_game"
	TypeChat            = "chat"
	TypeGetPublicRooms  = "get_public_rooms"
)

// Outbound message types.
const (
	TypeConnected        = "connected"
	TypeRoomCreated      = "room_created"
	TypeJoinedRoom       = "joined_room"
	TypeLeftRoom         = "left_room"
	TypePlayerJoined     = "player_joined"
	TypePlayerLeft       = "player_left"
	TypePlayerReady      = "player_ready_changed"
	TypeSettingsUpdated  = "settings_updated"
	TypeGameStarted      = "game_started"
	TypeGameStateUpdated = "game_state_updated"
	TypeGameEnded        = "game_ended"
	TypePublicRooms      = "public_rooms"
	TypeError            = "error"
)

// Envelope is the union of every field a client may send. Game payloads stay
// raw so the relay never has to understand them.
type Envelope struct {
	Type       string          `json:"type"`
	PlayerName string          `json:"playerName,omitempty"`
	RoomCode   string          `json:"roomCode,omitempty"`
	RoomID     string          `json:"roomId,omitempty"`
	MaxPlayers *int            `json:"maxPlayers,omitempty"`
	IsPublic   *bool           `json:"isPublic,omitempty"`
	AICount    *int            `json:"aiCount,omitempty"`
	GameMode   *string         `json:"gameMode,omitempty"`
	DeckTheme  *string         `json:"deckTheme,omitempty"`
	Action     string          `json:"action,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	GameState  json.RawMessage `json:"gameState,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// apply overlays the optional settings fields onto s. Capacity is only
// honored when allowCapacity is set, since it is fixed after creation.
func (e *Envelope) apply(s Settings, allowCapacity bool) Settings {
	if allowCapacity && e.MaxPlayers != nil {
		s.Capacity = *e.MaxPlayers
	}
	if e.IsPublic != nil {
		s.Visibility = VisibilityPrivate
		if *e.IsPublic {
			s.Visibility = VisibilityPublic
		}
	}
	if e.AICount != nil {
		s.SyntheticCount = *e.AICount
	}
	if e.GameMode != nil {
		s.Variant = *e.GameMode
	}
	if e.DeckTheme != nil {
		s.Theme = *e.DeckTheme
	}
	return s
}

type PlayerInfo struct {
	ID       ParticipantID `json:"id"`
	Name     string        `json:"name"`
	IsHost   bool          `json:"isHost"`
	IsReady  bool          `json:"isReady"`
	Position Seat          `json:"position,omitempty"`
}

type RoomInfo struct {
	ID              string                 `json:"id"`
	Code            string                 `json:"code"`
	HostID          ParticipantID          `json:"hostId"`
	HostName        string                 `json:"hostName"`
	Players         []PlayerInfo           `json:"players"`
	MaxPlayers      int                    `json:"maxPlayers"`
	IsPublic        bool                   `json:"isPublic"`
	AICount         int                    `json:"aiCount"`
	GameMode        string                 `json:"gameMode"`
	DeckTheme       string                 `json:"deckTheme"`
	Status          Status                 `json:"status"`
	PlayerCount     int                    `json:"playerCount"`
	PlayerPositions map[ParticipantID]Seat `json:"playerPositions"`
}

type ConnectedMessage struct {
	Type     string        `json:"type"`
	PlayerID ParticipantID `json:"playerId"`
}

// RoomMessage carries a full snapshot; used for room_created, joined_room,
// settings_updated and game_started.
type RoomMessage struct {
	Type string   `json:"type"`
	Room RoomInfo `json:"room"`
}

type LeftRoomMessage struct {
	Type string `json:"type"`
}

type PlayerJoinedMessage struct {
	Type   string     `json:"type"`
	Player PlayerInfo `json:"player"`
	Room   RoomInfo   `json:"room"`
}

type PlayerLeftMessage struct {
	Type     string        `json:"type"`
	PlayerID ParticipantID `json:"playerId"`
	Room     RoomInfo      `json:"room"`
}

type PlayerReadyMessage struct {
	Type     string        `json:"type"`
	PlayerID ParticipantID `json:"playerId"`
	IsReady  bool          `json:"isReady"`
	Room     RoomInfo      `json:"room"`
}

type ActionMessage struct {
	Type           string          `json:"type"`
	PlayerID       ParticipantID   `json:"playerId"`
	SenderPosition Seat            `json:"senderPosition,omitempty"`
	Action         string          `json:"action"`
	Data           json.RawMessage `json:"data"`
}

type GameStateMessage struct {
	Type      string          `json:"type"`
	GameState json.RawMessage `json:"gameState"`
}

type GameEndedMessage struct {
	Type    string          `json:"type"`
	Results json.RawMessage `json:"results"`
}

type ChatMessage struct {
	Type       string        `json:"type"`
	PlayerID   ParticipantID `json:"playerId"`
	PlayerName string        `json:"playerName"`
	Message    string        `json:"message"`
}

type PublicRoomsMessage struct {
	Type  string     `json:"type"`
	Rooms []RoomInfo `json:"rooms"`
}

type ErrorMessage struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}
