package main

import (
	"fmt"
	"math"
	"time"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/adoringonion/ecs-practice/sim"
	"github.com/gdamore/tcell/v2"
)

// Terminal cells are about twice as tall as wide; rows cover twice the
// world distance of columns.
const cellAspect = 2.0

// Camera maps world XZ coordinates to terminal cells around a followed point.
type Camera struct {
	X, Z  float64 // followed point
	Scale float64 // columns per world unit
	W, H  int
}

// Project returns the cell of world point (x, z). +Z is drawn upward.
func (c Camera) Project(x, z float64) (col, row int, ok bool) {
	col = c.W/2 + int(math.Round((x-c.X)*c.Scale))
	row = c.H/2 - int(math.Round((z-c.Z)*c.Scale/cellAspect))
	ok = col >= 0 && col < c.W && row >= 1 && row < c.H
	return col, row, ok
}

func agentGlyph(a feed.AgentFrame) (rune, tcell.Style) {
	state := sim.AgentState(a.State)
	if !state.Valid() {
		return '?', tcell.StyleDefault.Foreground(tcell.ColorPurple)
	}
	switch state {
	case sim.Fleeing:
		return '!', tcell.StyleDefault.Foreground(tcell.ColorYellow)
	case sim.Dying:
		if a.Scale < 0.5 {
			return '.', tcell.StyleDefault.Foreground(tcell.ColorRed)
		}
		return 'x', tcell.StyleDefault.Foreground(tcell.ColorRed)
	case sim.Dead:
		return ' ', tcell.StyleDefault
	default:
		return 'o', tcell.StyleDefault.Foreground(tcell.ColorGreen)
	}
}

// playerGlyph points along the player's yaw, 0 facing +Z (up on screen).
func playerGlyph(yaw float64) rune {
	arrows := []rune{'^', '/', '>', '\\', 'v', '/', '<', '\\'}
	i := int(math.Round(yaw/(math.Pi/4))) % 8
	if i < 0 {
		i += 8
	}
	// yaw grows clockwise seen from above with +X to the right
	return arrows[i]
}

func drawText(s tcell.Screen, col, row int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(col+i, row, r, nil, style)
	}
}

// draw renders one frame centered on the player.
func draw(s tcell.Screen, f *feed.Frame, scale float64, drive bool, status string) {
	s.Clear()
	w, h := s.Size()
	cam := Camera{X: f.Player.X, Z: f.Player.Z, Scale: scale, W: w, H: h}

	for _, a := range f.Agents {
		col, row, ok := cam.Project(a.X, a.Z)
		if !ok {
			continue
		}
		r, style := agentGlyph(a)
		s.SetContent(col, row, r, nil, style)
	}
	pc, pr, _ := cam.Project(f.Player.X, f.Player.Z)
	s.SetContent(pc, pr, playerGlyph(f.Player.Yaw), nil, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))

	mode := "watch"
	if drive {
		mode = "drive"
	}
	header := fmt.Sprintf("tick %d  agents %d  speed %5.2f  [%s] %s", f.Tick, len(f.Agents), f.Player.Speed, mode, status)
	drawText(s, 0, 0, tcell.StyleDefault.Reverse(true), header)
	s.Show()
}

// axisHold keeps a pressed direction active for a short while, since
// terminals report key presses but not releases.
type axisHold struct {
	value float64
	until time.Time
}

func (a *axisHold) press(v float64, now time.Time, hold time.Duration) {
	a.value = v
	a.until = now.Add(hold)
}

func (a *axisHold) at(now time.Time) float64 {
	if now.After(a.until) {
		return 0
	}
	return a.value
}
