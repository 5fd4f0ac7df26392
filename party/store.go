/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"cmp"
	"slices"
	"time"
)

// Store indexes rooms by id and by join code.
type Store struct {
	rooms map[string]*Room
	codes map[string]string
	seq   uint64

	newID   func() string
	newCode func() (string, error)
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		rooms:   make(map[string]*Room),
		codes:   make(map[string]string),
		newID:   newRoomID,
		newCode: newJoinCode,
		now:     time.Now,
	}
}

// Create stores a new room with founder seated as its coordinator.
func (s *Store) Create(founder ParticipantID, name string, settings Settings) (*Room, error) {
	if err := settings.validate(1); err != nil {
		return nil, err
	}

	code, err := s.uniqueCode()
	if err != nil {
		return nil, err
	}

	id := s.newID()
	for s.rooms[id] != nil {
		id = s.newID()
	}

	s.seq++

	now := s.now()

	room := &Room{
		ID:        id,
		Code:      code,
		Settings:  settings,
		Status:    StatusWaiting,
		CreatedAt: now,
		seq:       s.seq,
	}

	if _, err := room.addParticipant(founder, name, now); err != nil {
		return nil, err
	}

	s.rooms[id] = room
	s.codes[code] = id

	return room, nil
}

func (s *Store) uniqueCode() (string, error) {
	for range maxCodeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		if _, taken := s.codes[code]; !taken {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

// FindByCode looks a room up by join code, ignoring case and surrounding space.
func (s *Store) FindByCode(code string) (*Room, bool) {
	id, ok := s.codes[NormalizeCode(code)]
	if !ok {
		return nil, false
	}
	return s.FindByID(id)
}

func (s *Store) FindByID(id string) (*Room, bool) {
	room, ok := s.rooms[id]
	return room, ok
}

func (s *Store) Remove(id string) {
	room, ok := s.rooms[id]
	if !ok {
		return
	}
	delete(s.codes, room.Code)
	delete(s.rooms, id)
}

// ListPublicJoinable returns public rooms in waiting status with a free seat,
// oldest first.
func (s *Store) ListPublicJoinable() []*Room {
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if room.Settings.Visibility == VisibilityPublic && room.joinable() {
			rooms = append(rooms, room)
		}
	}

	slices.SortFunc(rooms, func(a, b *Room) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.seq, b.seq))
	})

	return rooms
}

func (s *Store) Len() int {
	return len(s.rooms)
}
