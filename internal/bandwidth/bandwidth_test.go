package bandwidth

import (
	"testing"
	"time"
)

func TestDelay(t *testing.T) {
	cases := []struct {
		percent int
		want    time.Duration
	}{
		{100, 0},
		{0, 0},
		{-5, 0},
		{50, 10 * time.Millisecond},
		{40, 15 * time.Millisecond},
		{10, 90 * time.Millisecond},
	}
	for _, c := range cases {
		if got := (Throttle{Percent: c.percent}).Delay(); got != c.want {
			t.Fatalf("Delay(%d) = %v, want %v", c.percent, got, c.want)
		}
	}
}

func TestMonitor(t *testing.T) {
	m := NewMonitor()
	m.Add(1024)
	m.Add(1024)
	if m.Bytes() != 2048 {
		t.Fatalf("bytes %d", m.Bytes())
	}
	if m.Rate() < 0 {
		t.Fatal("negative rate")
	}
}
