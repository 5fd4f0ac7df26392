/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"encoding/json"
	"slices"
	"time"
)

// ParticipantID identifies a live connection. It is only stable for the
// lifetime of that connection.
type ParticipantID string

// Seat is a fixed positional slot at the table.
type Seat string

const (
	SeatSouth Seat = "south"
	SeatWest  Seat = "west"
	SeatNorth Seat = "north"
	SeatEast  Seat = "east"
)

// SeatOrder is the order in which seats are handed out to joining participants.
var SeatOrder = [...]Seat{SeatSouth, SeatWest, SeatNorth, SeatEast}

// MaxCapacity is the largest table supported.
const MaxCapacity = len(SeatOrder)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "playing"
	StatusFinished Status = "finished"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Settings is the room configuration chosen by the coordinator. Variant and
// Theme are passed through to clients untouched.
type Settings struct {
	Capacity       int
	Visibility     Visibility
	SyntheticCount int
	Variant        string
	Theme          string
}

// validate checks the settings against the number of human participants
// currently seated.
func (s Settings) validate(humans int) error {
	if s.Capacity < 1 || s.Capacity > MaxCapacity {
		return ErrInvalidSettings
	}
	if s.SyntheticCount < 0 || humans+s.SyntheticCount > s.Capacity {
		return ErrInvalidSettings
	}
	if s.Visibility != VisibilityPublic && s.Visibility != VisibilityPrivate {
		return ErrInvalidSettings
	}
	return nil
}

type Participant struct {
	ID            ParticipantID
	Name          string
	IsCoordinator bool
	IsReady       bool
	Seat          Seat
	JoinedAt      time.Time
}

// Room holds membership, configuration and the last published snapshot for
// one table. It is owned by the Hub loop and never touched concurrently.
type Room struct {
	ID        string
	Code      string
	Settings  Settings
	Status    Status
	Snapshot  json.RawMessage
	CreatedAt time.Time

	// participants is kept in join order.
	participants []*Participant
	seq          uint64
}

func (r *Room) Len() int {
	return len(r.participants)
}

// Participants returns the seated participants in join order.
func (r *Room) Participants() []*Participant {
	out := make([]*Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

func (r *Room) Participant(id ParticipantID) (*Participant, bool) {
	for _, p := range r.participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Coordinator returns the host, or nil for an empty room.
func (r *Room) Coordinator() *Participant {
	for _, p := range r.participants {
		if p.IsCoordinator {
			return p
		}
	}
	return nil
}

func (r *Room) isCoordinator(id ParticipantID) bool {
	c := r.Coordinator()
	return c != nil && c.ID == id
}

// occupancy counts humans and synthetic seats together.
func (r *Room) occupancy() int {
	return len(r.participants) + r.Settings.SyntheticCount
}

func (r *Room) joinable() bool {
	return r.Status == StatusWaiting && r.occupancy() < r.Settings.Capacity
}

// admit reports whether one more participant may join right now.
func (r *Room) admit() error {
	if r.occupancy() >= r.Settings.Capacity {
		return ErrRoomFull
	}
	if r.Status != StatusWaiting {
		return ErrGameInProgress
	}
	if _, ok := r.nextSeat(); !ok {
		return ErrRoomFull
	}
	return nil
}

func (r *Room) nextSeat() (Seat, bool) {
	taken := make(map[Seat]bool, len(r.participants))
	for _, p := range r.participants {
		taken[p.Seat] = true
	}
	for _, s := range SeatOrder {
		if !taken[s] {
			return s, true
		}
	}
	return "", false
}

func (r *Room) addParticipant(id ParticipantID, name string, now time.Time) (*Participant, error) {
	if err := r.admit(); err != nil {
		return nil, err
	}
	seat, _ := r.nextSeat()
	p := &Participant{
		ID:            id,
		Name:          name,
		IsCoordinator: len(r.participants) == 0,
		Seat:          seat,
		JoinedAt:      now,
	}
	// The founder is ready by default; everybody else has to opt in.
	p.IsReady = p.IsCoordinator
	r.participants = append(r.participants, p)
	return p, nil
}

// removeParticipant drops id from the room. If the departing participant was
// the coordinator, the remaining participant with the earliest join time is
// promoted and returned. Ties go to whoever is seated first in join order.
func (r *Room) removeParticipant(id ParticipantID) (removed, promoted *Participant) {
	idx := -1
	for i, p := range r.participants {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil
	}

	removed = r.participants[idx]
	r.participants = append(r.participants[:idx], r.participants[idx+1:]...)

	if removed.IsCoordinator && len(r.participants) > 0 {
		promoted = slices.MinFunc(r.participants, func(a, b *Participant) int {
			return a.JoinedAt.Compare(b.JoinedAt)
		})
		promoted.IsCoordinator = true
	}
	return removed, promoted
}

// startGate evaluates the start preconditions in order; the first failure wins.
func (r *Room) startGate(requester ParticipantID) error {
	if !r.isCoordinator(requester) {
		return ErrNotAuthorized
	}
	if r.Status != StatusWaiting {
		return ErrGameInProgress
	}
	if len(r.participants) > 1 {
		for _, p := range r.participants {
			if !p.IsReady {
				return ErrNotAllReady
			}
		}
	}
	if r.occupancy() < 2 {
		return ErrNotEnoughPlayers
	}
	return nil
}

// Info renders the room snapshot that is sent on every membership change.
func (r *Room) Info() RoomInfo {
	info := RoomInfo{
		ID:              r.ID,
		Code:            r.Code,
		Players:         make([]PlayerInfo, 0, len(r.participants)),
		MaxPlayers:      r.Settings.Capacity,
		IsPublic:        r.Settings.Visibility == VisibilityPublic,
		AICount:         r.Settings.SyntheticCount,
		GameMode:        r.Settings.Variant,
		DeckTheme:       r.Settings.Theme,
		Status:          r.Status,
		PlayerCount:     len(r.participants),
		PlayerPositions: make(map[ParticipantID]Seat, len(r.participants)),
	}

	if c := r.Coordinator(); c != nil {
		info.HostID = c.ID
		info.HostName = c.Name
	}

	for _, p := range r.participants {
		info.Players = append(info.Players, p.info())
		info.PlayerPositions[p.ID] = p.Seat
	}

	return info
}

func (p *Participant) info() PlayerInfo {
	return PlayerInfo{
		ID:       p.ID,
		Name:     p.Name,
		IsHost:   p.IsCoordinator,
		IsReady:  p.IsReady,
		Position: p.Seat,
	}
}
