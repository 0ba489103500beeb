package scenes

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

func TestRegistryMatchesSchemas(t *testing.T) {
	reg := Default()
	schemas := params.Builtin()

	ids := reg.IDs()
	require.Len(t, ids, 11)
	assert.Equal(t, "kaleidoscope", ids[0])

	for _, id := range ids {
		if s, ok := schemas[id]; ok {
			assert.NoError(t, s.Validate(), id)
		}
	}
	for id := range schemas {
		_, ok := reg.Lookup(id)
		assert.True(t, ok, "schema %q has no renderer", id)
	}
	_, hasPlasma := schemas["plasma"]
	assert.False(t, hasPlasma)
}

func TestResolveReturnsFreshInstances(t *testing.T) {
	reg := Default()
	a, err := reg.Resolve(context.Background(), "starfield")
	require.NoError(t, err)
	b, err := reg.Resolve(context.Background(), "starfield")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, reg.Loads("starfield"))
}

func loudSnapshot(n int) analyzer.Snapshot {
	bins := make([]uint8, n)
	for i := range bins {
		bins[i] = uint8(255 - i%200)
	}
	return analyzer.Snapshot{Low: 1, Mid: 0.8, High: 0.6, Bins: bins}
}

func maxValues(s params.Schema) params.Values {
	v := params.Values{}
	for _, d := range s {
		v[d.Name] = d.Max
	}
	return v
}

func TestScenesRenderWithoutPanic(t *testing.T) {
	schemas := params.Builtin()
	pal := palette.Builtin()[0]

	for _, s := range catalog {
		s := s
		t.Run(s.id, func(t *testing.T) {
			frames := []visualizer.Frame{
				{Snapshot: analyzer.ZeroSnapshot(1024), Params: schemas[s.id].Defaults(), Palette: pal, Delta: 1.0 / 60},
				{Snapshot: loudSnapshot(1024), Params: schemas[s.id].Defaults(), Palette: pal, Delta: 1.0 / 60},
				{Snapshot: loudSnapshot(1024), Params: maxValues(schemas[s.id]), Palette: pal, Delta: 0.5},
				{Snapshot: loudSnapshot(3), Params: params.Values{"sensitivity": math.NaN()}, Delta: -1},
				{Snapshot: analyzer.Snapshot{}, Params: nil, Palette: pal},
			}
			r := s.factory()
			c := render.NewCanvas(80, 24, render.TerminalCellAspect)
			for i, f := range frames {
				f.Time = float64(i)
				assert.NotPanics(t, func() { r.Render(c, f) })
			}
			tiny := render.NewCanvas(1, 1, 1)
			assert.NotPanics(t, func() { r.Render(tiny, frames[1]) })
		})
	}
}

func TestLoudFrameLightsCanvas(t *testing.T) {
	pal := palette.Builtin()[0]
	schemas := params.Builtin()
	for _, s := range catalog {
		r := s.factory()
		c := render.NewCanvas(80, 24, render.TerminalCellAspect)
		for i := 0; i < 5; i++ {
			r.Render(c, visualizer.Frame{
				Snapshot: loudSnapshot(1024),
				Params:   schemas[s.id].Defaults(),
				Palette:  pal,
				Delta:    1.0 / 60,
			})
		}
		lit := 0
		for y := 0; y < c.Height(); y++ {
			for x := 0; x < c.Width(); x++ {
				if level, _, _ := c.At(x, y); level > 0 {
					lit++
				}
			}
		}
		assert.Greater(t, lit, 0, s.id)
	}
}

func TestMotionDecaysInSilence(t *testing.T) {
	var m motion
	m.update(loudSnapshot(8), 1, 1.0/60)
	loud := m.energy
	require.Greater(t, loud, 0.0)
	for i := 0; i < 30; i++ {
		m.update(analyzer.ZeroSnapshot(8), 1, 1.0/60)
	}
	assert.Less(t, m.energy, loud*0.1)
}

func TestHelpers(t *testing.T) {
	v := params.Values{"n": 1e9, "x": math.Inf(1)}
	assert.Equal(t, 64, count(v, "n", 6, 1, 64))
	assert.Equal(t, 6, count(v, "missing", 6, 1, 64))
	assert.Equal(t, 2.0, param(v, "x", 2))
	assert.Equal(t, 0.0, binAt(nil, 0.5))
	assert.Equal(t, 1.0, binAt([]uint8{0, 255}, 2))
	assert.Equal(t, 1.0, frames(0))
	assert.Equal(t, 10.0, frames(5))
}
