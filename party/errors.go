/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomFull         = errors.New("room is full")
	ErrGameInProgress   = errors.New("game already in progress")
	ErrNotAuthorized    = errors.New("only the host can do that")
	ErrNotAllReady      = errors.New("not all players are ready")
	ErrNotEnoughPlayers = errors.New("need at least 2 players")
	ErrInvalidSettings  = errors.New("invalid room settings")
	ErrNotInRoom        = errors.New("not in a room")
	ErrCodeExhausted    = errors.New("could not allocate a unique room code")
	ErrHubClosed        = errors.New("hub is not running")
)

type wireError struct {
	code    string
	message string
}

var wireErrors = map[error]wireError{
	ErrRoomNotFound:     {"room_not_found", "Room not found"},
	ErrRoomFull:         {"room_full", "Room is full"},
	ErrGameInProgress:   {"game_in_progress", "Game already in progress"},
	ErrNotAuthorized:    {"not_authorized", "Only the host can do that"},
	ErrNotAllReady:      {"not_all_ready", "Not all players are ready"},
	ErrNotEnoughPlayers: {"not_enough_players", "Need at least 2 players"},
	ErrInvalidSettings:  {"invalid_settings", "Invalid room settings"},
	ErrNotInRoom:        {"not_in_room", "Not in a room"},
	ErrCodeExhausted:    {"internal", "Could not create room"},
}

// errorMessage maps a domain error onto the error envelope sent to clients.
func errorMessage(err error) ErrorMessage {
	for sentinel, w := range wireErrors {
		if errors.Is(err, sentinel) {
			return ErrorMessage{Type: TypeError, Code: w.code, Error: w.message}
		}
	}
	return ErrorMessage{Type: TypeError, Code: "internal", Error: "Internal error"}
}
