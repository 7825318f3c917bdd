package market

import (
	"testing"
	"time"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	g, err := NewGate(GateConfig{})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return g
}

// eastern builds a timestamp in the gate's own zone. 2025-06-02 is a Monday.
func eastern(t *testing.T, g *Gate, day int, hour, min, sec int) time.Time {
	t.Helper()
	return time.Date(2025, 6, day, hour, min, sec, 0, g.Location())
}

func TestGate_Boundaries(t *testing.T) {
	g := newTestGate(t)

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"monday just before open", eastern(t, g, 2, 9, 29, 59), false},
		{"monday at open", eastern(t, g, 2, 9, 30, 0), true},
		{"monday midday", eastern(t, g, 2, 12, 0, 0), true},
		{"monday at close", eastern(t, g, 2, 16, 0, 0), true},
		{"monday just after close", eastern(t, g, 2, 16, 0, 1), false},
		{"friday at open", eastern(t, g, 6, 9, 30, 0), true},
		{"saturday midday", eastern(t, g, 7, 12, 0, 0), false},
		{"sunday midday", eastern(t, g, 8, 12, 0, 0), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := g.Open(tc.at); got != tc.want {
				t.Fatalf("Open(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestGate_EvaluatesInExchangeZone(t *testing.T) {
	g := newTestGate(t)

	// 18:00 UTC on a Monday in June is 14:00 ET (DST): inside the window
	// even though a naive UTC reading would be outside it.
	utc := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	if !g.Open(utc) {
		t.Fatal("expected gate open for 18:00 UTC / 14:00 ET")
	}

	// 22:00 UTC is 18:00 ET: closed.
	utc = time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC)
	if g.Open(utc) {
		t.Fatal("expected gate closed for 22:00 UTC / 18:00 ET")
	}
}

func TestNewGate_Validation(t *testing.T) {
	if _, err := NewGate(GateConfig{Timezone: "Not/AZone"}); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
	if _, err := NewGate(GateConfig{Open: "930"}); err == nil {
		t.Fatal("expected error for malformed open time")
	}
	if _, err := NewGate(GateConfig{Open: "16:00", Close: "09:30"}); err == nil {
		t.Fatal("expected error for open after close")
	}
}

func TestGate_CustomWindow(t *testing.T) {
	g, err := NewGate(GateConfig{Timezone: "UTC", Open: "08:00", Close: "17:30"})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if !g.Open(time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)) {
		t.Fatal("expected open at custom open bound")
	}
	if g.Open(time.Date(2025, 6, 2, 17, 30, 1, 0, time.UTC)) {
		t.Fatal("expected closed after custom close bound")
	}
}
