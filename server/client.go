package main

import (
	"encoding/json"
	"time"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 1024
	sendBufSize       = 64
	maxMessagesPerSec = 50
)

// binaryMarker prefixes queued binary messages so WritePump can tell them
// from JSON text.
const binaryMarker = 0xFF

// Client is one observer connection.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	claims     ObserverClaims
	enc        feed.Encoding
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, claims ObserverClaims, enc feed.Encoding) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		claims:     claims,
		enc:        enc,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws read", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.hub.logger.Warn("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			break
		}

		if msgType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			var err error
			if len(message) > 0 && message[0] == binaryMarker {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal", "err", err)
		return
	}
	c.queue(data)
}

// SendBinary queues data as a binary WebSocket message.
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = binaryMarker
	copy(msg[1:], data)
	c.queue(msg)
}

func (c *Client) queue(msg []byte) {
	defer func() { recover() }() // send on a client closed by the hub
	select {
	case c.send <- msg:
	default:
		// Client too slow, drop message
	}
}

func (c *Client) handleMessage(raw []byte) {
	var env feed.InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.SendJSON(feed.Envelope{T: feed.MsgError, Data: feed.ErrorMsg{Msg: "malformed message"}})
		return
	}

	switch env.T {
	case feed.MsgInput:
		c.handleInput(env.D)
	default:
		c.SendJSON(feed.Envelope{T: feed.MsgError, Data: feed.ErrorMsg{Msg: "unknown message type"}})
	}
}

func (c *Client) handleInput(data json.RawMessage) {
	if !c.claims.Drive {
		c.SendJSON(feed.Envelope{T: feed.MsgError, Data: feed.ErrorMsg{Msg: "read-only observer"}})
		return
	}
	var msg feed.InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.hub.game.SetInput(inputFromMsg(msg))
}
