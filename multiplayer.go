/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/partyroom/party"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	writeWait = 10 * time.Second
	qrSize    = 320
)

// Client adapts one websocket to party.Conn. The hub only ever queues
// messages; writePump owns the socket's write side.
type Client struct {
	conn *websocket.Conn
	send chan any
	id   party.ParticipantID

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan any, buffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) Send(msg any) bool {
	select {
	case <-c.closed:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which sends a close frame and tears the
// connection down.
func (c *Client) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *Client) readPump(cfg *Config, hub *party.Hub) {
	defer func() {
		hub.Disconnect(c.id)
		_ = c.Close()
		_ = c.conn.Close()
	}()

	deadline := 2 * cfg.pingInterval

	c.conn.SetReadLimit(cfg.maxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				cfg.logger().Warn("websocket read failed", zap.String("player", string(c.id)), zap.Error(err))
			}
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))

		hub.Deliver(c.id, data)
	}
}

func (c *Client) writePump(cfg *Config) {
	ticker := time.NewTicker(cfg.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.closed:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// checkOrigin allows every origin when no allow-list is configured. Requests
// without an Origin header come from non-browser clients and are accepted.
func checkOrigin(cfg *Config) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(cfg.allowedOrigins) == 0 {
			return true
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		return slices.ContainsFunc(cfg.allowedOrigins, func(allowed string) bool {
			return strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin)
		})
	}
}

func serveWS(cfg *Config, hub *party.Hub) httprouter.Handle {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(cfg),
	}

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ROOMS: Upgrade from %s failed: %v", realIP(r), err)
			return
		}

		client := newClient(conn, cfg.sendBuffer)

		go client.writePump(cfg)

		id, err := hub.Connect(r.Context(), client)
		if err != nil {
			_ = client.Close()
			return
		}

		client.id = id

		logf(cfg, "ROOMS: Player %s connected from %s", id, realIP(r))

		client.readPump(cfg, hub)

		logf(cfg, "ROOMS: Player %s disconnected", id)
	}
}

type roomsResponse struct {
	Rooms []party.RoomInfo `json:"rooms"`
}

func serveRooms(cfg *Config, hub *party.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		rooms, err := hub.PublicRooms(r.Context())
		if err != nil {
			http.Error(w, "directory unavailable", http.StatusServiceUnavailable)
			return
		}

		data, err := json.Marshal(roomsResponse{Rooms: rooms})
		if err != nil {
			errs <- err
			http.Error(w, "encoding failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room directory (%s, %d rooms) to %s in %s",
			humanReadableSize(int64(written)),
			len(rooms),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// joinURL is the address a scanned QR code opens.
func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := cfg.scheme()
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: url.Values{"join": {code}}.Encode(),
	}

	return u.String()
}

func serveQR(cfg *Config, hub *party.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		room, found, err := hub.RoomByCode(r.Context(), ps.ByName("code"))
		if err != nil {
			http.Error(w, "rooms unavailable", http.StatusServiceUnavailable)
			return
		}
		if !found {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		png, err := qrcode.Encode(joinURL(cfg, r, room.Code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code for room %s to %s", room.Code, realIP(r))
	}
}

func registerMultiplayer(cfg *Config, hub *party.Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, hub))
	mux.GET(cfg.prefix+"/rooms", serveRooms(cfg, hub, errs))
	mux.GET(cfg.prefix+"/rooms/:code/qr", serveQR(cfg, hub, errs))
}
