// Package main runs the wire inspector: an HTTP debug API over the envelope
// journal, optionally next to a lobby server that records into it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ZentaChain/zentalk-wire/pkg/inspect"
	"github.com/ZentaChain/zentalk-wire/pkg/journal"
	"github.com/ZentaChain/zentalk-wire/pkg/lobby"
)

// config is filled from flags, then overridden by WIRE_* variables
type config struct {
	Port        int           `env:"WIRE_PORT"`
	Journal     string        `env:"WIRE_JOURNAL"`
	Retention   time.Duration `env:"WIRE_RETENTION"`
	LogLevel    string        `env:"WIRE_LOG_LEVEL"`
	LobbyAddr   string        `env:"WIRE_LOBBY_ADDR"`
	StampEvents bool          `env:"WIRE_STAMP_EVENTS"`
	EnableCORS  bool          `env:"WIRE_CORS"`
	RateLimit   int           `env:"WIRE_RATE_LIMIT"`
}

func main() {
	var cfg config
	flag.IntVar(&cfg.Port, "port", 8080, "HTTP port")
	flag.StringVar(&cfg.Journal, "journal", "./wire-journal.db", "Journal database path (empty disables the journal)")
	flag.DurationVar(&cfg.Retention, "retention", journal.DefaultRetention, "How long journal frames are kept")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LobbyAddr, "lobby", "", "Also serve the lobby on this TCP address, e.g. :9100")
	flag.BoolVar(&cfg.StampEvents, "stamp", false, "Stamp lobby events with their send time")
	flag.BoolVar(&cfg.EnableCORS, "cors", true, "Enable CORS headers")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 600, "Requests per minute per client (0 disables)")

	flag.Parse()

	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "wire-inspect: parse env: %v\n", err)
		os.Exit(2)
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wire-inspect: %v\n", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("wire-inspect failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var j *journal.Journal
	if cfg.Journal != "" {
		var err error
		j, err = journal.Open(cfg.Journal, cfg.Retention, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		logger.Info("journal opened", "path", cfg.Journal, "retention", cfg.Retention)
	}

	if cfg.LobbyAddr != "" {
		srv := lobby.NewServer(lobby.New(nil, logger), lobby.ServerConfig{StampEvents: cfg.StampEvents}, logger)
		if j != nil {
			srv.AttachJournal(j)
		}
		if err := srv.Start(cfg.LobbyAddr); err != nil {
			return err
		}
		defer srv.Stop()
	}

	api := inspect.NewServer(j, &inspect.Config{
		Port:         cfg.Port,
		EnableCORS:   cfg.EnableCORS,
		RateLimit:    cfg.RateLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, logger)

	return api.Start(ctx)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
