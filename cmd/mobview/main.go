// Command mobview is a terminal observer for a running mob simulation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
)

const (
	inputRate = 20 // input messages per second while driving
	keyHold   = 250 * time.Millisecond
)

func main() {
	addr := flag.String("url", "ws://localhost:8080/ws", "Observer feed URL")
	token := flag.String("token", "", "Observer token (needed to drive)")
	useZstd := flag.Bool("zstd", true, "Request zstd-compressed frames")
	scale := flag.Float64("scale", 2, "Columns per world unit")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "mobview"})
	if err := run(*addr, *token, *useZstd, *scale); err != nil {
		logger.Fatal("viewer stopped", "err", err)
	}
}

func feedURL(base, token string, useZstd bool) (string, feed.Encoding, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", "", err
	}
	q := u.Query()
	enc := feed.EncMsgpack
	if useZstd {
		enc = feed.EncZstd
		q.Set("enc", string(enc))
	}
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), enc, nil
}

func run(base, token string, useZstd bool, scale float64) error {
	target, enc, err := feedURL(base, token, useZstd)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", base, err)
	}
	defer conn.Close()

	codec, err := feed.NewCodec()
	if err != nil {
		return err
	}
	defer codec.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	frames := make(chan *feed.Frame, 4)
	notes := make(chan string, 4)
	readErr := make(chan error, 1)
	go readLoop(conn, codec, enc, frames, notes, readErr)

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	var (
		last   = &feed.Frame{}
		drive  bool
		status string
		turn   axisHold
		gas    axisHold
		sent   feed.InputMsg
	)
	ticker := time.NewTicker(time.Second / inputRate)
	defer ticker.Stop()

	for {
		select {
		case f := <-frames:
			last = f
			draw(screen, last, scale, drive, status)

		case n := <-notes:
			var env feed.InEnvelope
			if json.Unmarshal([]byte(n), &env) != nil {
				continue
			}
			switch env.T {
			case feed.MsgHello:
				var hm feed.HelloMsg
				if json.Unmarshal(env.D, &hm) == nil {
					drive = hm.Drive
					status = "run " + hm.RunID
				}
			case feed.MsgError:
				var em feed.ErrorMsg
				if json.Unmarshal(env.D, &em) == nil {
					status = "server: " + em.Msg
				}
			}
			draw(screen, last, scale, drive, status)

		case err := <-readErr:
			return err

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				now := time.Now()
				switch {
				case ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC:
					return nil
				case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
					return nil
				case ev.Key() == tcell.KeyUp:
					gas.press(1, now, keyHold)
				case ev.Key() == tcell.KeyDown:
					gas.press(-1, now, keyHold)
				case ev.Key() == tcell.KeyLeft:
					turn.press(-1, now, keyHold)
				case ev.Key() == tcell.KeyRight:
					turn.press(1, now, keyHold)
				case ev.Key() == tcell.KeyRune && (ev.Rune() == '+' || ev.Rune() == '='):
					scale *= 1.25
				case ev.Key() == tcell.KeyRune && ev.Rune() == '-':
					scale /= 1.25
				}
			case *tcell.EventResize:
				screen.Sync()
				draw(screen, last, scale, drive, status)
			}

		case <-ticker.C:
			if !drive {
				continue
			}
			now := time.Now()
			in := feed.InputMsg{H: turn.at(now), V: gas.at(now)}
			if in == sent {
				continue
			}
			raw, _ := json.Marshal(feed.Envelope{T: feed.MsgInput, Data: in})
			if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return fmt.Errorf("send input: %w", err)
			}
			sent = in
		}
	}
}

// readLoop forwards decoded frames and raw text messages until the
// connection fails. Frames are dropped when the drawer lags behind.
func readLoop(conn *websocket.Conn, codec *feed.Codec, enc feed.Encoding, frames chan<- *feed.Frame, notes chan<- string, errc chan<- error) {
	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		if msgType == websocket.TextMessage {
			notes <- string(raw)
			continue
		}
		f, err := codec.Decode(raw, enc)
		if err != nil {
			errc <- err
			return
		}
		select {
		case frames <- f:
		default:
		}
	}
}
