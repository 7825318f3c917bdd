// Package market decides whether the current wall-clock time falls inside
// the exchange's regular trading hours.
package market

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Gate answers "is the market open right now" for a fixed weekday window
// evaluated in the exchange's local zone, never the machine's.
type Gate struct {
	loc       *time.Location
	openSecs  int // seconds since midnight, inclusive
	closeSecs int // seconds since midnight, inclusive
	logger    *slog.Logger
}

type GateConfig struct {
	Timezone string // IANA zone name, e.g. "America/New_York"
	Open     string // "HH:MM"
	Close    string // "HH:MM"
	Logger   *slog.Logger
}

func NewGate(cfg GateConfig) (*Gate, error) {
	if cfg.Timezone == "" {
		cfg.Timezone = "America/New_York"
	}
	if cfg.Open == "" {
		cfg.Open = "09:30"
	}
	if cfg.Close == "" {
		cfg.Close = "16:00"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}
	open, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("parse open time %q: %w", cfg.Open, err)
	}
	closing, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("parse close time %q: %w", cfg.Close, err)
	}
	if open >= closing {
		return nil, fmt.Errorf("open time %s is not before close time %s", cfg.Open, cfg.Close)
	}

	return &Gate{loc: loc, openSecs: open, closeSecs: closing, logger: cfg.Logger}, nil
}

// Open reports whether now falls inside the trading window. Both bounds are
// inclusive: 09:30:00 and 16:00:00 are open, 16:00:01 is closed. Saturdays
// and Sundays are always closed.
func (g *Gate) Open(now time.Time) bool {
	local := now.In(g.loc)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		g.logger.Debug("market gate closed", "reason", "weekend", "weekday", local.Weekday().String())
		return false
	}

	secs := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if secs < g.openSecs || secs > g.closeSecs {
		g.logger.Debug("market gate closed", "reason", "outside window",
			"local", local.Format("15:04:05"))
		return false
	}
	return true
}

// Location returns the exchange zone the gate evaluates in.
func (g *Gate) Location() *time.Location { return g.loc }

func parseClock(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return h*3600 + m*60, nil
}
