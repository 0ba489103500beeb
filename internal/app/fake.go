package app

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/guidoenr/spectraviz/internal/analyzer"
)

// fakeGenerator stands in for the analyser when running without audio. Band
// energies follow slow sines with a little noise and the bins are shaped
// from them, so every visualizer has something to react to.
type fakeGenerator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	now       func() time.Time
	last      time.Time
	phaseBass float64
	phaseMid  float64
	phaseHigh float64
}

func newFakeGenerator(seed int64) *fakeGenerator {
	return &fakeGenerator{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// FrequencyData advances the phases by the wall time since the last call.
func (f *fakeGenerator) FrequencyData(dst []uint8) analyzer.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.now()
	delta := 1.0 / 60
	if !f.last.IsZero() {
		delta = math.Min(now.Sub(f.last).Seconds(), 0.5)
	}
	f.last = now
	return f.next(dst, delta)
}

func (f *fakeGenerator) next(dst []uint8, delta float64) analyzer.Snapshot {
	f.phaseBass += delta * 0.7
	f.phaseMid += delta * 1.2
	f.phaseHigh += delta * 2.1

	bass := clamp01(0.5 + 0.5*math.Sin(f.phaseBass) + f.rng.Float64()*0.1)
	mid := clamp01(0.4 + 0.4*math.Sin(f.phaseMid+0.5) + f.rng.Float64()*0.1)
	treble := clamp01(0.3 + 0.3*math.Sin(f.phaseHigh+1.0) + f.rng.Float64()*0.1)

	// a kick now and then
	if f.rng.Float64() < 0.02 {
		bass = 1
	}

	n := len(dst)
	for i := range dst {
		t := float64(i) / math.Max(1, float64(n-1))
		var v float64
		switch {
		case t < 0.05:
			v = bass
		case t < 0.3:
			v = lerp(bass, mid, (t-0.05)/0.25)
		default:
			v = lerp(mid, treble, (t-0.3)/0.7) * (1 - t*0.5)
		}
		v += (f.rng.Float64() - 0.5) * 0.1
		dst[i] = uint8(clamp01(v) * 255)
	}
	return analyzer.Snapshot{Low: bass, Mid: mid, High: treble, Bins: dst}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
