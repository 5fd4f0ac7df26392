/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package party

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultInboxSize = 256

// Options tune a Hub.
type Options struct {
	// DefaultCapacity is used when create_room does not name maxPlayers.
	DefaultCapacity int
	// BroadcastActions lists the action labels echoed back to their sender.
	BroadcastActions []string
	// EnforceHostAuthority restricts authoritative messages to the coordinator.
	EnforceHostAuthority bool
	InboxSize            int
}

// event is anything the Hub loop processes. Every event shares one inbox,
// so a connection's disconnect is never handled before the frames it read
// earlier.
type event interface {
	apply(h *Hub)
}

type registration struct {
	conn  Conn
	reply chan ParticipantID
}

func (r registration) apply(h *Hub) {
	r.reply <- h.connect(r.conn)
}

type departure ParticipantID

func (d departure) apply(h *Hub) {
	id := ParticipantID(d)
	h.safely(id, func() { h.disconnect(id) })
}

type inbound struct {
	id   ParticipantID
	data []byte
}

func (m inbound) apply(h *Hub) {
	h.safely(m.id, func() { h.handle(m.id, m.data) })
}

type query struct {
	fn   func()
	done chan struct{}
}

func (q query) apply(*Hub) {
	q.fn()
	close(q.done)
}

// Hub owns the registry and the room store. All mutation happens on the
// goroutine running Run, so handlers never lock.
type Hub struct {
	log      *zap.Logger
	opts     Options
	registry *Registry
	store    *Store
	relay    *Relay
	now      func() time.Time

	inbox chan event
	done  chan struct{}
}

func NewHub(log *zap.Logger, opts Options) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DefaultCapacity <= 0 || opts.DefaultCapacity > MaxCapacity {
		opts.DefaultCapacity = MaxCapacity
	}
	if opts.BroadcastActions == nil {
		opts.BroadcastActions = DefaultBroadcastActions
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = defaultInboxSize
	}

	return &Hub{
		log:      log,
		opts:     opts,
		registry: NewRegistry(),
		store:    NewStore(),
		relay:    NewRelay(opts.BroadcastActions),
		now:      time.Now,
		inbox:    make(chan event, opts.InboxSize),
		done:     make(chan struct{}),
	}
}

// Run processes events until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub stopping", zap.Int("connections", h.registry.Len()), zap.Int("rooms", h.store.Len()))
			return h.registry.CloseAll()
		case ev := <-h.inbox:
			ev.apply(h)
		}
	}
}

func (h *Hub) safely(id ParticipantID, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("handler panic", zap.String("player", string(id)), zap.Any("panic", r))
		}
	}()
	fn()
}

// Connect registers conn and returns the id it was assigned. The connected
// notice is queued on conn before Connect returns.
func (h *Hub) Connect(ctx context.Context, conn Conn) (ParticipantID, error) {
	r := registration{conn: conn, reply: make(chan ParticipantID, 1)}

	if err := h.post(ctx, r); err != nil {
		return "", err
	}

	select {
	case id := <-r.reply:
		return id, nil
	case <-h.done:
		return "", ErrHubClosed
	}
}

// Disconnect treats id as having left its room involuntarily. It is handled
// after every message already delivered for id.
func (h *Hub) Disconnect(id ParticipantID) {
	_ = h.post(context.Background(), departure(id))
}

// Deliver queues a raw inbound envelope from id.
func (h *Hub) Deliver(id ParticipantID, data []byte) {
	_ = h.post(context.Background(), inbound{id: id, data: data})
}

// post appends ev to the inbox, blocking while it is full.
func (h *Hub) post(ctx context.Context, ev event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}

	select {
	case h.inbox <- ev:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) query(ctx context.Context, fn func()) error {
	q := query{fn: fn, done: make(chan struct{})}

	if err := h.post(ctx, q); err != nil {
		return err
	}

	select {
	case <-q.done:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

// RoomCount reports the number of live rooms.
func (h *Hub) RoomCount(ctx context.Context) (int, error) {
	var n int
	err := h.query(ctx, func() { n = h.store.Len() })
	return n, err
}

// PublicRooms returns the directory listing.
func (h *Hub) PublicRooms(ctx context.Context) ([]RoomInfo, error) {
	var rooms []RoomInfo
	err := h.query(ctx, func() { rooms = h.directory() })
	return rooms, err
}

// RoomByCode returns a snapshot of the room with the given join code.
func (h *Hub) RoomByCode(ctx context.Context, code string) (RoomInfo, bool, error) {
	var (
		info  RoomInfo
		found bool
	)
	err := h.query(ctx, func() {
		if room, ok := h.store.FindByCode(code); ok {
			info, found = room.Info(), true
		}
	})
	return info, found, err
}

func (h *Hub) connect(conn Conn) ParticipantID {
	id := h.registry.Connect(conn)

	h.log.Info("player connected", zap.String("player", string(id)))

	h.send(id, ConnectedMessage{Type: TypeConnected, PlayerID: id})

	return id
}

func (h *Hub) disconnect(id ParticipantID) {
	if roomID := h.registry.RoomOf(id); roomID != "" {
		h.leaveRoom(id, roomID, false)
	}

	if _, ok := h.registry.Disconnect(id); ok {
		h.log.Info("player disconnected", zap.String("player", string(id)))
	}
}

func (h *Hub) handle(id ParticipantID, data []byte) {
	if _, ok := h.registry.Conn(id); !ok {
		return
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		h.log.Warn("dropping malformed message", zap.String("player", string(id)), zap.Error(err))
		return
	}

	switch env.Type {
	case TypeCreateRoom:
		h.handleCreate(id, &env)
	case TypeJoinRoom:
		h.handleJoin(id, &env)
	case TypeLeaveRoom:
		h.handleLeave(id)
	case TypeGetPublicRooms:
		h.handlePublicRooms(id)
	case TypeToggleReady:
		h.handleToggleReady(id)
	case TypeStartGame:
		h.handleStart(id)
	case TypeUpdateSettings:
		h.handleUpdateSettings(id, &env)
	case TypeGameAction:
		h.handleGameAction(id, &env)
	case TypeUpdateGameState:
		h.handleUpdateGameState(id, &env)
	case TypeEndGame:
		h.handleEndGame(id, &env)
	case TypeChat:
		h.handleChat(id, &env)
	default:
		h.log.Warn("dropping unknown message type", zap.String("player", string(id)), zap.String("type", env.Type))
	}
}

// send queues msg for id without blocking. A full queue drops the message.
func (h *Hub) send(id ParticipantID, msg any) {
	conn, ok := h.registry.Conn(id)
	if !ok {
		return
	}
	if !conn.Send(msg) {
		h.log.Warn("send queue full, dropping message", zap.String("player", string(id)))
	}
}

func (h *Hub) fail(id ParticipantID, err error) {
	h.log.Debug("request rejected", zap.String("player", string(id)), zap.Error(err))
	h.send(id, errorMessage(err))
}

// broadcast sends msg to every participant in room except skip.
func (h *Hub) broadcast(room *Room, msg any, skip ParticipantID) {
	for _, p := range room.participants {
		if p.ID == skip {
			continue
		}
		h.send(p.ID, msg)
	}
}

// roomOf resolves the room id is seated in.
func (h *Hub) roomOf(id ParticipantID) (*Room, bool) {
	roomID := h.registry.RoomOf(id)
	if roomID == "" {
		return nil, false
	}
	return h.store.FindByID(roomID)
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	const maxName = 32
	if r := []rune(name); len(r) > maxName {
		name = string(r[:maxName])
	}
	return name
}
