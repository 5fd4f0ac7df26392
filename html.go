/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/partyroom/party"
	"github.com/julienschmidt/httprouter"
)

func serveHomePage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var body strings.Builder
		body.WriteString("<h1>partyroom</h1>")
		body.WriteString("<p>Session coordinator for small multiplayer party games.</p><ul>")
		for _, route := range []string{"/ws", "/rooms", "/rooms/:code/qr", "/health", "/healthz", "/version"} {
			fmt.Fprintf(&body, "<li><code>%s%s</code></li>", cfg.prefix, route)
		}
		body.WriteString("</ul>")

		page := newPage("partyroom v"+releaseVersion, body.String())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(page)))
		securityHeaders(cfg, w)

		written, err := w.Write([]byte(page))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Home page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

type healthStatus struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func serveHealthCheck(cfg *Config, hub *party.Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		rooms, err := hub.RoomCount(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthStatus{Status: "unavailable"})

			return
		}

		if err := json.NewEncoder(w).Encode(healthStatus{Status: "ok", Rooms: rooms}); err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data := `User-agent: *
Disallow: ` + cfg.prefix + `/ws
Disallow: ` + cfg.prefix + `/rooms

User-agent: CCBot
Disallow: /

User-agent: GPTBot
Disallow: /
`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
