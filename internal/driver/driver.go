// Package driver pumps analyser output into the frequency store once per
// display frame.
package driver

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/store"
)

// DefaultFPS is used when New gets a non-positive rate.
const DefaultFPS = 60

// Source produces one spectrum snapshot, filling dst with byte magnitudes.
type Source interface {
	FrequencyData(dst []uint8) analyzer.Snapshot
}

// Hook runs after the store was updated for a frame. delta is the time since
// the previous frame in seconds.
type Hook func(snap analyzer.Snapshot, delta float64)

// Driver reads the source every tick and publishes the result.
type Driver struct {
	source   Source
	store    *store.FrequencyStore
	interval time.Duration
	bins     []uint8

	noiseFloor atomic.Uint64 // math.Float64bits
	frames     atomic.Uint64
	running    atomic.Bool

	mu    sync.RWMutex
	hooks []Hook

	// owned by the loop goroutine
	last time.Time
}

// New returns a stopped driver ticking fps times per second.
func New(source Source, st *store.FrequencyStore, fps float64) *Driver {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &Driver{
		source:   source,
		store:    st,
		interval: time.Duration(float64(time.Second) / fps),
		bins:     make([]uint8, st.BinCount()),
	}
}

// Interval is the time between ticks.
func (d *Driver) Interval() time.Duration { return d.interval }

// Frames counts completed ticks.
func (d *Driver) Frames() uint64 { return d.frames.Load() }

// SetNoiseFloor gates band values below floor to zero. 0 disables gating.
func (d *Driver) SetNoiseFloor(floor float64) {
	d.noiseFloor.Store(floatBits(floor))
}

// OnFrame registers fn to run on every tick, in registration order.
func (d *Driver) OnFrame(fn Hook) {
	d.mu.Lock()
	d.hooks = append(d.hooks, fn)
	d.mu.Unlock()
}

// Start runs the loop until ctx is done or stop is called. stop blocks until
// the loop goroutine has exited. Starting a running driver returns a no-op.
func (d *Driver) Start(ctx context.Context) (stop func()) {
	if !d.running.CompareAndSwap(false, true) {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer d.running.Store(false)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		d.last = time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				delta := now.Sub(d.last).Seconds()
				d.last = now
				d.Step(delta)
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Step runs one frame synchronously: snapshot, then store, then hooks. It
// must not be called while the loop is running.
func (d *Driver) Step(delta float64) analyzer.Snapshot {
	if delta <= 0 {
		delta = d.interval.Seconds()
	}
	snap := d.source.FrequencyData(d.bins)
	if floor := bitsFloat(d.noiseFloor.Load()); floor > 0 {
		snap = snap.Gate(floor)
	}
	d.store.Update(snap)
	published := d.store.Snapshot()

	d.mu.RLock()
	hooks := d.hooks
	d.mu.RUnlock()
	for _, fn := range hooks {
		fn(published, delta)
	}
	d.frames.Add(1)
	return published
}

func floatBits(v float64) uint64 {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	return math.Float64bits(v)
}

func bitsFloat(b uint64) float64 { return math.Float64frombits(b) }
