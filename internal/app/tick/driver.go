package tick

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Arrivals resolves due travel legs. Implemented by the travel use case.
type Arrivals interface {
	ProcessArrivals(ctx context.Context, now time.Time) (int, error)
}

// Deadlines expires overdue missions. Implemented by the mission use case.
type Deadlines interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// Drift relaxes market prices toward equilibrium.
type Drift interface {
	DriftAll(ctx context.Context, now time.Time) (int, error)
}

// Replenish tops the mission board back up to target.
type Replenish interface {
	Generate(ctx context.Context, target int, now time.Time) (int, error)
}

// Notices rolls for an ambient world notice broadcast.
type Notices interface {
	Emit(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	// DriftEvery runs market drift on every Nth tick; arrivals and
	// deadlines run on all of them.
	DriftEvery int
	// MissionTarget is the open-mission count Replenish restores.
	MissionTarget int
	// NoticeEvery rolls for a world notice on every Nth tick.
	NoticeEvery int
}

func DefaultConfig() Config {
	return Config{DriftEvery: 5, MissionTarget: 20, NoticeEvery: 24}
}

// Driver advances the world clock. Each phase isolates its own failures, so
// one stuck aggregate never stalls the tick, and overlapping ticks are
// skipped rather than queued.
type Driver struct {
	Arrivals  Arrivals
	Deadlines Deadlines
	Drift     Drift
	Replenish Replenish
	Notices   Notices
	Cfg       Config
	Log       zerolog.Logger

	mu    sync.Mutex
	ticks int
}

// Advance runs one tick at the given instant. Returns false when a previous
// tick is still running.
func (d *Driver) Advance(ctx context.Context, now time.Time) bool {
	if !d.mu.TryLock() {
		d.Log.Warn().Time("now", now).Msg("tick overlap, skipping")
		return false
	}
	defer d.mu.Unlock()
	d.ticks++

	if d.Arrivals != nil {
		n, err := d.Arrivals.ProcessArrivals(ctx, now)
		d.phase(now, "arrivals", n, err)
	}
	if d.Deadlines != nil {
		n, err := d.Deadlines.ExpireDue(ctx, now)
		d.phase(now, "deadlines", n, err)
	}
	if d.Drift != nil && d.Cfg.DriftEvery > 0 && d.ticks%d.Cfg.DriftEvery == 0 {
		n, err := d.Drift.DriftAll(ctx, now)
		d.phase(now, "drift", n, err)
	}
	if d.Replenish != nil && d.Cfg.MissionTarget > 0 {
		n, err := d.Replenish.Generate(ctx, d.Cfg.MissionTarget, now)
		d.phase(now, "replenish", n, err)
	}
	if d.Notices != nil && d.Cfg.NoticeEvery > 0 && d.ticks%d.Cfg.NoticeEvery == 0 {
		n, err := d.Notices.Emit(ctx, now)
		d.phase(now, "notices", n, err)
	}
	return true
}

// Run drives Advance on the interval until the context ends.
func (d *Driver) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.Advance(ctx, now)
		}
	}
}

func (d *Driver) phase(now time.Time, name string, n int, err error) {
	ev := d.Log.Debug()
	if err != nil {
		// Partial progress is normal: joined per-aggregate errors arrive
		// alongside a non-zero count.
		ev = d.Log.Error().Err(err)
	}
	ev.Time("now", now).Str("phase", name).Int("processed", n).Msg("tick phase")
}
