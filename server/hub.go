package main

import (
	"context"
	"sync"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/charmbracelet/log"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 200
)

// Hub tracks connected observers and fans frames out to them.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	game   *Game
	codec  *feed.Codec
	logger *log.Logger
}

// NewHub creates a hub publishing frames of game.
func NewHub(game *Game, codec *feed.Codec, logger *log.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		ipConns:    make(map[string]int),
		game:       game,
		codec:      codec,
		logger:     logger,
	}
}

func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("observer connected", "addr", client.remoteAddr, "sub", client.claims.Subject, "drive", client.claims.Drive)

		case client := <-h.unregister:
			h.remove(client)
			h.logger.Info("observer disconnected", "addr", client.remoteAddr)

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register hands c to the hub loop. It reports false once the hub has shut
// down; the caller then owns closing the connection.
func (h *Hub) Register(c *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast encodes f once per encoding and queues it on every client.
func (h *Hub) Broadcast(f *feed.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	raw, err := feed.MarshalFrame(f)
	if err != nil {
		h.logger.Error("encode frame", "tick", f.Tick, "err", err)
		return
	}
	var packed []byte
	for c := range h.clients {
		if c.enc == feed.EncZstd {
			if packed == nil {
				packed = h.codec.Compress(raw)
			}
			c.SendBinary(packed)
			continue
		}
		c.SendBinary(raw)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
