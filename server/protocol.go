package main

import (
	"math"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/adoringonion/ecs-practice/sim"
)

// StatsMsg is served at /stats.
type StatsMsg struct {
	RunID   string         `json:"run_id"`
	Seed    uint64         `json:"seed"`
	Tick    uint64         `json:"tick"`
	Live    int            `json:"live"`
	Clients int            `json:"clients"`
	Digest  string         `json:"digest"`
	Events  map[string]int `json:"events,omitempty"`
}

// TokenMsg is the /token response.
type TokenMsg struct {
	Token string `json:"token"`
	Drive bool   `json:"drive"`
}

// inputFromMsg clamps both axes into [-1, 1]. NaN reads as no input.
func inputFromMsg(m feed.InputMsg) sim.PlayerInput {
	return sim.PlayerInput{Horizontal: axis(m.H), Vertical: axis(m.V)}
}

func axis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return Clamp(v, -1, 1)
}
