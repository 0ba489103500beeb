package scenes

import (
	"math"

	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

// plasma fills the screen with interfering sine fields. It has no
// adjustable parameters.
type plasma struct {
	m motion
	t float64
}

func (p *plasma) Render(c *render.Canvas, f visualizer.Frame) {
	p.m.update(f.Snapshot, 1, f.Delta)
	p.t += (0.02 + p.m.energy*0.08) * frames(f.Delta)

	w := float64(c.Width())
	h := float64(c.Height())
	for y := 0; y < c.Height(); y++ {
		vy := (float64(y)/h - 0.5) * c.Aspect
		for x := 0; x < c.Width(); x++ {
			vx := float64(x)/w - 0.5
			v := plasmaField(vx*(2+p.m.low*2), vy*2, p.t)
			detail := render.FractalNoise(vx*3+p.t*0.4, vy*3-p.t*0.3, 2)
			v = v*0.8 + detail*0.2*(0.3+p.m.high)
			level := clamp01((v + 1) * 0.5 * (0.4 + p.m.energy))
			c.Plot(x, y, level, cycle(f.Palette, (v+1)*0.5+p.t*0.05))
		}
	}
}

func plasmaField(x, y, t float64) float64 {
	v1 := math.Sin((x*3.4 + t*1.2) * 0.9)
	v2 := math.Sin((y*4.1 - t*0.7) * 1.1)
	v3 := math.Sin((x+y)*2.3 + t*1.7)
	return (v1 + v2 + v3) / 3.0
}
