// Package feed defines the observer wire protocol shared by the server and
// the terminal viewer.
package feed

import "encoding/json"

// Client -> Server message types
const (
	MsgInput = "input" // driving client axis input
)

// Server -> Client message types
const (
	MsgHello = "hello" // sent once after the upgrade
	MsgError = "error"
)

// Envelope wraps all JSON text messages with a type field. Frames travel as
// binary messages and are not enveloped.
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages; json.RawMessage avoids a double decode.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputMsg carries the two input axes, each in [-1, 1].
type InputMsg struct {
	H float64 `json:"h"` // turn
	V float64 `json:"v"` // throttle
}

// HelloMsg tells a new observer what it is looking at.
type HelloMsg struct {
	RunID    string `json:"run"`
	Seed     uint64 `json:"seed"`
	TickRate int    `json:"hz"`
	Drive    bool   `json:"drive"`
	Enc      string `json:"enc,omitempty"`
}

// ErrorMsg reports a rejected request.
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// PlayerFrame is the player as seen in one frame. The viewer centers its
// camera on it.
type PlayerFrame struct {
	X     float64 `msgpack:"x"`
	Z     float64 `msgpack:"z"`
	Yaw   float64 `msgpack:"r"`
	Speed float64 `msgpack:"v"`
}

// AgentFrame is one agent with its animation parameters and visual offsets.
type AgentFrame struct {
	ID    uint64  `msgpack:"id"`
	X     float64 `msgpack:"x"`
	Y     float64 `msgpack:"y"` // bob or sink offset
	Z     float64 `msgpack:"z"`
	Yaw   float64 `msgpack:"r"`
	State uint8   `msgpack:"s"`
	Scale float64 `msgpack:"sc"`

	MovementSpeed float64 `msgpack:"ms"`
	IsMoving      bool    `msgpack:"mv,omitempty"`
	IsEscaping    bool    `msgpack:"es,omitempty"`
	IsDying       bool    `msgpack:"dy,omitempty"`
}

// Frame is the full state broadcast.
type Frame struct {
	Tick      uint64       `msgpack:"tick"`
	Player    PlayerFrame  `msgpack:"p"`
	Agents    []AgentFrame `msgpack:"a"`
	Spawned   int          `msgpack:"ns,omitempty"`
	Killed    int          `msgpack:"nk,omitempty"`
	Destroyed int          `msgpack:"nd,omitempty"`
}
