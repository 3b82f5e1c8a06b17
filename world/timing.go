package world

import (
	"log/slog"
	"time"

	"github.com/voxelkit/world/world/voxel"
)

// tickInterval is 1000/kTicksPerSecond ms, the fixed grid update runs on.
const tickInterval = time.Second / voxel.TicksPerSecond

// Timing drives three caller-supplied callbacks — update, remesh, render —
// in a fixed order within a frame: pending updates are
// drained up to a per-pump cap, then remesh, then render. It is not itself
// safe for concurrent use; it models cooperative single-threaded
// interleaving, not multithreading. Recenter is expected to be called from
// inside the update callback; because update runs before remesh, chunks it
// admits can be meshed by the same Pump call once they are ready.
type Timing struct {
	update, remesh, render func() error
	log                    *slog.Logger
	observe                func(callback string, d time.Duration)

	ticksPerFrame int
	lastUpdate    time.Time
	started       bool

	updateMeter perfMeter
	remeshMeter perfMeter
	renderMeter perfMeter

	quarantined bool
	err         error
}

// NewTiming returns a Timing harness that calls update, remesh and render
// in that order each Pump, capping update ticks per call at ticksPerFrame.
// If log is nil, slog.Default() is used.
func NewTiming(log *slog.Logger, update, remesh, render func() error, ticksPerFrame int) *Timing {
	if log == nil {
		log = slog.Default()
	}
	if ticksPerFrame <= 0 {
		ticksPerFrame = voxel.TicksPerFrame
	}
	return &Timing{update: update, remesh: remesh, render: render, log: log, ticksPerFrame: ticksPerFrame}
}

// NewTiming returns a Timing harness whose remesh callback is w.Remesh and
// whose per-callback durations feed w's callback_duration_seconds
// histogram, labeled by callback name. update and render are still
// supplied by the embedding application, which owns game logic and draws.
func (w *World) NewTiming(update, render func() error, ticksPerFrame int) *Timing {
	t := NewTiming(w.conf.Log, update, func() error {
		w.Remesh()
		return nil
	}, render, ticksPerFrame)
	t.observe = func(callback string, d time.Duration) {
		w.metrics.callbackDuration.WithLabelValues(callback).Observe(d.Seconds())
	}
	return t
}

// Quarantined reports whether a callback error has permanently silenced
// update/remesh/render. Err returns the error that caused it.
func (t *Timing) Quarantined() bool { return t.quarantined }
func (t *Timing) Err() error        { return t.err }

// Pump is called once per platform animation-frame ping. It drains pending
// update ticks (capped at ticksPerFrame; excess elapsed time is discarded
// by snapping lastUpdate forward rather than catching up tick-by-tick),
// then remeshes, then renders. Any error escaping update/remesh/render
// permanently quarantines all three: Pump becomes a no-op and the error is
// returned from every subsequent call.
func (t *Timing) Pump(now time.Time) error {
	if t.quarantined {
		return t.err
	}
	if !t.started {
		t.lastUpdate = now
		t.started = true
	}

	ticks := 0
	for now.Sub(t.lastUpdate) >= tickInterval && ticks < t.ticksPerFrame {
		if err := t.run(&t.updateMeter, "update", t.update); err != nil {
			return t.quarantine(err)
		}
		t.lastUpdate = t.lastUpdate.Add(tickInterval)
		ticks++
	}
	if ticks == t.ticksPerFrame {
		// Capped out: don't try to catch up on the backlog next frame.
		t.lastUpdate = now
	}

	if err := t.run(&t.remeshMeter, "remesh", t.remesh); err != nil {
		return t.quarantine(err)
	}
	if err := t.run(&t.renderMeter, "render", t.render); err != nil {
		return t.quarantine(err)
	}
	return nil
}

func (t *Timing) run(m *perfMeter, name string, fn func() error) (err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		m.record(d)
		if t.observe != nil {
			t.observe(name, d)
		}
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = assertionErr("callback panic", "%v", r)
			}
		}
	}()
	return fn()
}

func (t *Timing) quarantine(err error) error {
	t.quarantined = true
	t.err = err
	t.log.Error("callback error, quarantining update/remesh/render", "err", err)
	return err
}

// UpdateAverage, RemeshAverage and RenderAverage report each callback's
// rolling 60-sample average duration.
func (t *Timing) UpdateAverage() time.Duration { return t.updateMeter.average() }
func (t *Timing) RemeshAverage() time.Duration { return t.remeshMeter.average() }
func (t *Timing) RenderAverage() time.Duration { return t.renderMeter.average() }
