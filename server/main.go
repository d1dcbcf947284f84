package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adoringonion/ecs-practice/feed"
	"github.com/adoringonion/ecs-practice/sim"
	"github.com/charmbracelet/log"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	configPath := flag.String("config", "", "Path to a yaml tuning file (default: built-in tuning)")
	dbPath := flag.String("db", "mobsim.db", "SQLite analytics database, empty to disable")
	secret := flag.String("secret", os.Getenv("MOBSIM_SECRET"), "Admin secret for /token; also signs observer tokens")
	seed := flag.Uint64("seed", 0, "Override the config seed (0 keeps it)")
	open := flag.Bool("open", true, "Allow read-only observers without a token")
	showQR := flag.Bool("qr", false, "Print a QR code of a driving observer URL")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "mobsim",
	})

	cfg := sim.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = sim.LoadConfig(*configPath)
		if err != nil {
			logger.Fatal("load config", "path", *configPath, "err", err)
		}
	}
	cfg = cfg.Normalize()
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	runID := NewRunID()
	var (
		db        *DB
		analytics *Analytics
	)
	if *dbPath != "" {
		var err error
		db, err = OpenDB(*dbPath)
		if err != nil {
			logger.Fatal("open database", "path", *dbPath, "err", err)
		}
		defer db.Close()
		analytics = NewAnalytics(db, logger.WithPrefix("analytics"))
		defer analytics.Stop()
	}

	game := NewGame(cfg, GameOptions{
		RunID:     runID,
		Analytics: analytics,
		Logger:    logger,
		Seed:      *seed,
	})
	if db != nil {
		if err := db.RecordRun(RunRow{
			ID:        runID,
			Seed:      game.Seed(),
			Workers:   cfg.Workers,
			TickRate:  cfg.TickRateHz,
			StartedAt: time.Now(),
		}); err != nil {
			logger.Error("record run", "err", err)
		}
	}

	codec, err := feed.NewCodec()
	if err != nil {
		logger.Fatal("frame codec", "err", err)
	}
	defer codec.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewHub(game, codec, logger.WithPrefix("hub"))
	game.SetBroadcaster(hub)
	go hub.Run(ctx)
	go game.Run(ctx)

	auth := NewAuth(*secret)
	mux := SetupRoutes(&Server{
		Hub:         hub,
		Game:        game,
		Auth:        auth,
		Analytics:   analytics,
		AdminSecret: *secret,
		Open:        *open,
	})

	if *showQR {
		printDriveQR(logger, auth, *addr)
	}

	server := &http.Server{Addr: *addr, Handler: mux}
	go func() {
		logger.Info("server starting", "addr", *addr, "run", runID)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}

func printDriveQR(logger *log.Logger, auth *Auth, addr string) {
	token, err := auth.IssueToken("local", true)
	if err != nil {
		logger.Error("issue drive token", "err", err)
		return
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	u := fmt.Sprintf("ws://%s%s/ws?token=%s", host, portOf(addr), token)
	code, err := TerminalQR(u)
	if err != nil {
		logger.Error("qr code", "err", err)
		return
	}
	fmt.Fprint(os.Stderr, code)
	logger.Info("driving observer", "url", u)
}

func portOf(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[i:]
		}
	}
	return ""
}
