package main

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Server bundles what the HTTP routes need.
type Server struct {
	Hub       *Hub
	Game      *Game
	Auth      *Auth
	Analytics *Analytics // may be nil
	// AdminSecret gates /token. Empty disables token issuing.
	AdminSecret string
	// Open lets observers connect without a token (read-only).
	Open bool
}

// SetupRoutes configures HTTP routes
func SetupRoutes(s *Server) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		stats := s.Game.Stats()
		stats.Clients = s.Hub.ClientCount()
		if s.Analytics != nil {
			counts, err := s.Analytics.EventCounts(stats.RunID)
			if err != nil {
				s.Hub.logger.Error("stats: event counts", "err", err)
			}
			stats.Events = counts
		}
		writeJSON(w, http.StatusOK, stats)
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if !s.Auth.checkRate(extractIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, feed.ErrorMsg{Msg: "too many token requests"})
			return
		}
		if !s.checkAdmin(r) {
			writeJSON(w, http.StatusUnauthorized, feed.ErrorMsg{Msg: "admin secret required"})
			return
		}
		sub := r.URL.Query().Get("sub")
		if sub == "" {
			sub = "observer"
		}
		drive := r.URL.Query().Get("drive") == "1"
		token, err := s.Auth.IssueToken(sub, drive)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, feed.ErrorMsg{Msg: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, TokenMsg{Token: token, Drive: drive})
	})

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.authorize(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		ip := extractIP(r)
		if !s.Hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.Hub.logger.Warn("upgrade", "err", err)
			return
		}

		s.Hub.TrackConnect(ip)

		enc := feed.ParseEncoding(r.URL.Query().Get("enc"))
		client := NewClient(s.Hub, conn, ip, claims, enc)
		client.SendJSON(feed.Envelope{T: feed.MsgHello, Data: feed.HelloMsg{
			RunID:    s.Game.RunID(),
			Seed:     s.Game.Seed(),
			TickRate: s.Game.TickRate(),
			Drive:    claims.Drive,
			Enc:      string(enc),
		}})
		if !s.Hub.Register(client) {
			s.Hub.TrackDisconnect(ip)
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	})

	return mux
}

func (s *Server) checkAdmin(r *http.Request) bool {
	if s.AdminSecret == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(got), []byte(s.AdminSecret)) == 1
}

func (s *Server) authorize(r *http.Request) (ObserverClaims, error) {
	tok := r.URL.Query().Get("token")
	if tok == "" {
		if s.Open {
			return ObserverClaims{Subject: "anonymous"}, nil
		}
		return ObserverClaims{}, errors.New("token required")
	}
	return s.Auth.ValidateToken(tok)
}
