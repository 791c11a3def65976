package playback

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCursor_StepAndWraparound(t *testing.T) {
	times := []int64{0, 5, 10, 15}
	c := NewCursor(times, 1_700_000_000, 8, 1)

	// First step: cursor at 0, window clamped to the timeline start.
	w := c.Step()
	if w.T0 != 0 || w.T1 != 0 {
		t.Errorf("step 0 window = (%v, %v), want (0, 0)", w.T0, w.T1)
	}
	if w.CursorUnix != 1_700_000_000 {
		t.Errorf("step 0 cursor = %v, want 1700000000", w.CursorUnix)
	}

	w = c.Step()
	if w.T0 != 0 || w.T1 != 5 {
		t.Errorf("step 1 window = (%v, %v), want (0, 5)", w.T0, w.T1)
	}

	// At cursor 10 the 8-second window no longer clamps.
	w = c.Step()
	if w.T0 != 2 || w.T1 != 10 {
		t.Errorf("step 2 window = (%v, %v), want (2, 10)", w.T0, w.T1)
	}

	w = c.Step()
	if w.T1 != 15 {
		t.Errorf("step 3 cursor = %v, want 15", w.T1)
	}

	// Past the end the cursor wraps to the start.
	w = c.Step()
	if w.T1 != 0 {
		t.Errorf("wrapped cursor = %v, want 0", w.T1)
	}
}

func TestCursor_EmptyTimeline(t *testing.T) {
	c := NewCursor(nil, 1_700_000_000, 10, 1)
	for i := 0; i < 3; i++ {
		w := c.Step()
		if w.T0 != 0 || w.T1 != 0 || w.CursorUnix != 1_700_000_000 {
			t.Errorf("step %d = %+v, want zero window pinned at epoch", i, w)
		}
	}
}

func TestCursor_Interval(t *testing.T) {
	if got := NewCursor(nil, 0, 0, 4).Interval(); got != 250*time.Millisecond {
		t.Errorf("Interval at rate 4 = %v, want 250ms", got)
	}
	// Non-positive rates fall back to one step per second.
	if got := NewCursor(nil, 0, 0, 0).Interval(); got != time.Second {
		t.Errorf("Interval at rate 0 = %v, want 1s", got)
	}
}

func TestCursor_RunStopsOnEmitError(t *testing.T) {
	c := NewCursor([]int64{0, 1, 2}, 0, 1, 1000)

	wantErr := errors.New("client gone")
	var emitted []Window
	err := c.Run(context.Background(), func(w Window) error {
		emitted = append(emitted, w)
		if len(emitted) == 3 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Run returned %v, want emit error", err)
	}
	if len(emitted) != 3 {
		t.Errorf("emitted %d windows, want 3", len(emitted))
	}
}

func TestCursor_RunStopsOnCancel(t *testing.T) {
	// Slow rate: the ticker never fires, so canceling during the first
	// emit is the only exit.
	c := NewCursor([]int64{0, 1}, 0, 1, 0.01)

	ctx, cancel := context.WithCancel(context.Background())
	steps := 0
	err := c.Run(ctx, func(Window) error {
		steps++
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
	if steps != 1 {
		t.Errorf("emitted %d windows before cancellation, want 1", steps)
	}
}
