package world

import (
	"errors"
	"testing"
	"time"

	"github.com/voxelkit/world/world/voxel"
)

func TestPumpDrainsTicksUpToCap(t *testing.T) {
	ticks := 0
	tm := NewTiming(nil, func() error {
		ticks++
		return nil
	}, func() error { return nil }, func() error { return nil }, 4)

	start := time.Unix(0, 0)
	if err := tm.Pump(start); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if ticks != 0 {
		t.Fatalf("expected no ticks on the first Pump, got %d", ticks)
	}

	// Ten tick intervals have elapsed, but ticksPerFrame caps a single Pump
	// at 4; the rest of the backlog is discarded, not carried forward.
	later := start.Add(10 * time.Second / voxel.TicksPerSecond)
	if err := tm.Pump(later); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if ticks != 4 {
		t.Fatalf("expected exactly 4 ticks (the cap), got %d", ticks)
	}

	// The backlog was discarded: a Pump right after should not tick again.
	if err := tm.Pump(later.Add(time.Millisecond)); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if ticks != 4 {
		t.Fatalf("expected the discarded backlog to stay discarded, got %d ticks", ticks)
	}
}

// TestPumpRunsUpdateBeforeRemeshWhenATickIsDue pins down the full per-frame
// order, not just remesh-before-render: update must run before remesh, since
// Recenter (expected to run inside update) admits the chunks that same
// call's remesh pass can pick up. A chunk admitted mid-update is meshable
// by the very same Pump call, most visibly under a prime-load Recenter.
func TestPumpRunsUpdateBeforeRemeshWhenATickIsDue(t *testing.T) {
	var order []string
	tm := NewTiming(nil,
		func() error { order = append(order, "update"); return nil },
		func() error { order = append(order, "remesh"); return nil },
		func() error { order = append(order, "render"); return nil },
		4)

	start := time.Unix(0, 0)
	if err := tm.Pump(start); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	order = nil // the first Pump only primes lastUpdate; no tick is due yet

	due := start.Add(time.Second / voxel.TicksPerSecond)
	if err := tm.Pump(due); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if len(order) != 3 || order[0] != "update" || order[1] != "remesh" || order[2] != "render" {
		t.Fatalf("expected [update remesh render], got %v", order)
	}
}

func TestPumpRunsRemeshThenRenderEachCall(t *testing.T) {
	var order []string
	tm := NewTiming(nil,
		func() error { return nil },
		func() error { order = append(order, "remesh"); return nil },
		func() error { order = append(order, "render"); return nil },
		4)

	if err := tm.Pump(time.Unix(0, 0)); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if len(order) != 2 || order[0] != "remesh" || order[1] != "render" {
		t.Fatalf("expected [remesh render], got %v", order)
	}
}

func TestPumpQuarantinesAllCallbacksOnError(t *testing.T) {
	boom := errors.New("boom")
	renderCalls := 0
	tm := NewTiming(nil,
		func() error { return nil },
		func() error { return boom },
		func() error { renderCalls++; return nil },
		4)

	if err := tm.Pump(time.Unix(0, 0)); !errors.Is(err, boom) {
		t.Fatalf("expected Pump to surface the remesh error, got %v", err)
	}
	if !tm.Quarantined() {
		t.Fatalf("expected Timing to quarantine after a callback error")
	}
	if renderCalls != 0 {
		t.Fatalf("expected render to never run once remesh failed")
	}

	if err := tm.Pump(time.Unix(1, 0)); !errors.Is(err, boom) {
		t.Fatalf("expected a quarantined Timing to keep returning the same error, got %v", err)
	}
	if renderCalls != 0 {
		t.Fatalf("expected a quarantined Timing to stay a no-op")
	}
}

func TestPumpQuarantinesOnPanic(t *testing.T) {
	tm := NewTiming(nil,
		func() error { return nil },
		func() error { panic("unreachable invariant") },
		func() error { return nil },
		4)

	err := tm.Pump(time.Unix(0, 0))
	if err == nil {
		t.Fatalf("expected a panicking callback to surface as an error")
	}
	if !tm.Quarantined() {
		t.Fatalf("expected a panic to quarantine the harness same as a returned error")
	}
}

func TestAveragesTrackRecordedDurations(t *testing.T) {
	tm := NewTiming(nil,
		func() error { return nil },
		func() error { time.Sleep(time.Millisecond); return nil },
		func() error { return nil },
		4)
	if err := tm.Pump(time.Unix(0, 0)); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if tm.RemeshAverage() <= 0 {
		t.Fatalf("expected a nonzero remesh average after one sample")
	}
}

func TestWorldNewTimingWiresRemeshAndMetrics(t *testing.T) {
	r, stone := testRegistry(t)
	w := testWorld(t, r, flatLoader(4, stone))
	w.Recenter(0, 0, 0, true)

	renderCalls := 0
	tm := w.NewTiming(func() error { return nil }, func() error { renderCalls++; return nil }, 4)
	if err := tm.Pump(time.Unix(0, 0)); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if renderCalls != 1 {
		t.Fatalf("expected render to run once, got %d", renderCalls)
	}
	if tm.RemeshAverage() < 0 {
		t.Fatalf("expected a recorded remesh duration")
	}
}
