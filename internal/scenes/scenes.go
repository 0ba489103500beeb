// Package scenes contains the bundled visualizers and registers them.
package scenes

import (
	"context"
	"math"

	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

type scene struct {
	id      string
	name    string
	factory func() visualizer.Renderer
}

// catalog is in display order.
var catalog = []scene{
	{"kaleidoscope", "Kaleidoscope", func() visualizer.Renderer { return &kaleidoscope{} }},
	{"bars2d", "Frequency Bars 2D", func() visualizer.Renderer { return &bars2D{} }},
	{"particlecircle", "Particle Circle 2D", func() visualizer.Renderer { return &particleCircle{} }},
	{"spiralwaves", "Spiral Waves", func() visualizer.Renderer { return &spiralWaves{} }},
	{"circularwaveform", "Circular Waveform", func() visualizer.Renderer { return &circularWaveform{} }},
	{"symmetrymirror", "Symmetry Mirror", func() visualizer.Renderer { return &symmetryMirror{} }},
	{"geometricmandala", "Geometric Mandala", func() visualizer.Renderer { return &geometricMandala{} }},
	{"starfield", "Star Field", func() visualizer.Renderer { return newStarField(1) }},
	{"nebulacloud", "Nebula Cloud", func() visualizer.Renderer { return &nebulaCloud{} }},
	{"energyparticles", "Energy Particles", func() visualizer.Renderer { return newEnergyParticles(2) }},
	{"plasma", "Plasma", func() visualizer.Renderer { return &plasma{} }},
}

// Register adds every bundled scene to reg. Renderers are built on Resolve.
func Register(reg *visualizer.Registry) error {
	for _, s := range catalog {
		factory := s.factory
		if err := reg.Register(s.id, s.name, func(context.Context) (visualizer.Renderer, error) {
			return factory(), nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a registry holding every bundled scene.
func Default() *visualizer.Registry {
	reg := visualizer.NewRegistry()
	if err := Register(reg); err != nil {
		panic(err)
	}
	return reg
}

// param reads a value, falling back to def when missing or not finite.
func param(v params.Values, name string, def float64) float64 {
	x := v.Get(name, def)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return def
	}
	return x
}

// count reads an integer parameter bounded to [lo, hi].
func count(v params.Values, name string, def float64, lo, hi int) int {
	n := int(math.Round(param(v, name, def)))
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// binAt samples the spectrum at t in [0,1] and returns it normalized.
func binAt(bins []uint8, t float64) float64 {
	if len(bins) == 0 {
		return 0
	}
	i := int(clamp01(t) * float64(len(bins)-1))
	return float64(bins[i]) / 255
}

// cycle samples the palette at t wrapped into [0,1).
func cycle(p palette.Palette, t float64) palette.RGB {
	t = math.Mod(t, 1)
	if t < 0 {
		t++
	}
	return p.At(t)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(current, target, factor float64) float64 {
	return current*(1-factor) + target*factor
}

// frames converts a tick length into 60 Hz frame units.
func frames(delta float64) float64 {
	if !(delta > 0) {
		return 1
	}
	return math.Min(delta*60, 10)
}
