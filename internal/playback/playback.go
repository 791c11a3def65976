// Package playback advances a time cursor over a band's capture timeline at
// a fixed rate, producing the (t0, t1, cursor) windows a streaming transport
// would push to a client. The cursor wraps around at the end of the
// timeline.
package playback

import (
	"context"
	"time"
)

// Window is one playback step: the visible time range in relative seconds
// and the cursor position in absolute time.
type Window struct {
	T0         float64 `json:"t0"`
	T1         float64 `json:"t1"`
	CursorUnix float64 `json:"cursor_unix"`
}

// Cursor steps through a band's relative time axis. It is not safe for
// concurrent use; create one per playback session.
type Cursor struct {
	times     []int64
	unix0     int64
	windowSec float64
	rate      float64
	index     int
}

// NewCursor creates a cursor over the relative time axis. windowSec is the
// visible window width; rate is steps per second, forced to 1 when not
// positive.
func NewCursor(times []int64, unix0 int64, windowSec, rate float64) *Cursor {
	if rate <= 0 {
		rate = 1
	}
	return &Cursor{times: times, unix0: unix0, windowSec: windowSec, rate: rate}
}

// Interval is the wall-clock delay between steps.
func (c *Cursor) Interval() time.Duration {
	return time.Duration(float64(time.Second) / c.rate)
}

// Step returns the current window and advances the cursor, wrapping at the
// end of the timeline. An empty timeline yields a zero-width window pinned
// at the epoch.
func (c *Cursor) Step() Window {
	if len(c.times) == 0 {
		return Window{CursorUnix: float64(c.unix0)}
	}
	cursor := float64(c.times[c.index])
	t0 := cursor - c.windowSec
	if first := float64(c.times[0]); t0 < first {
		t0 = first
	}
	c.index = (c.index + 1) % len(c.times)
	return Window{T0: t0, T1: cursor, CursorUnix: float64(c.unix0) + cursor}
}

// Run emits windows at the cursor's rate until the context is canceled or
// emit returns an error. The first window is emitted immediately.
func (c *Cursor) Run(ctx context.Context, emit func(Window) error) error {
	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()

	for {
		if err := emit(c.Step()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
