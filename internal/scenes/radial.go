package scenes

import (
	"math"

	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

// kaleidoscope mirrors a fan of spectrum rays around the center.
type kaleidoscope struct {
	m motion
}

func (k *kaleidoscope) Render(c *render.Canvas, f visualizer.Frame) {
	segments := count(f.Params, "segments", 6, 1, 64)
	rayCount := count(f.Params, "rayCount", 40, 1, 512)
	rayLength := param(f.Params, "rayLength", 0.7)
	speed := param(f.Params, "rotationSpeed", 1)
	sensitivity := param(f.Params, "sensitivity", 1)

	c.Fade(0.9)
	k.m.update(f.Snapshot, 1, f.Delta)
	rotation := k.m.spin(0.01, 0.05, speed, f.Delta)

	cx, cy := c.Center()
	maxRadius := c.Radius()
	total := segments * 2
	segAngle := 2 * math.Pi / float64(total)
	highBoost := 0.5 + f.Snapshot.High*0.5
	half := len(f.Snapshot.Bins) / 2

	for seg := 0; seg < total; seg++ {
		base := segAngle*float64(seg) + rotation
		flip := 1.0
		if seg%2 == 1 {
			flip = -1
		}
		for i := 0; i < rayCount; i++ {
			progress := float64(i) / float64(rayCount)
			v := 0.0
			if half > 0 {
				v = float64(f.Snapshot.Bins[int(progress*float64(half))]) / 255
			}
			if v < 0.05 {
				continue
			}
			dist := maxRadius * math.Min(1, 0.3+v*rayLength*sensitivity)
			angle := base + flip*progress*math.Pi*0.5/float64(segments)
			x, y := c.Polar(cx, cy, dist, angle)
			col := f.Palette.At(progress)
			level := (0.3 + v*0.7) * highBoost
			c.Line(cx, cy, x, y, level*0.6, col)
			if v > 0.5 {
				c.Disc(x, y, 1+v*2, level, col)
			}
		}
	}

	core := math.Min(maxRadius*0.5, 2+f.Snapshot.Low*maxRadius*0.4*sensitivity)
	c.Disc(cx, cy, core, 0.8, f.Palette.Color(0))
}

// particleCircle spaces particles on a ring pushed outward by their bin.
type particleCircle struct {
	m motion
}

func (p *particleCircle) Render(c *render.Canvas, f visualizer.Frame) {
	n := count(f.Params, "particleCount", 150, 1, 4096)
	sensitivity := param(f.Params, "sensitivity", 1)
	size := param(f.Params, "particleSize", 1)
	speed := param(f.Params, "rotationSpeed", 1)

	c.Fade(0.75)
	p.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := p.m.spin(0.005, 0.03, speed, f.Delta)

	cx, cy := c.Center()
	base := c.Radius() * (0.45 + p.m.low*0.2)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)
		v := binAt(f.Snapshot.Bins, t*0.5) * sensitivity
		r := math.Min(c.Radius(), base+v*c.Radius()*0.45)
		x, y := c.Polar(cx, cy, r, t*2*math.Pi+rotation)
		c.Disc(x, y, size*(0.5+v), 0.4+math.Min(v, 1)*0.6, cycle(f.Palette, t+f.Time*0.05))
	}
}

// spiralWaves draws spiral arms whose radius wobbles with the spectrum.
type spiralWaves struct {
	m motion
}

func (s *spiralWaves) Render(c *render.Canvas, f visualizer.Frame) {
	arms := count(f.Params, "spiralCount", 6, 1, 64)
	sensitivity := param(f.Params, "sensitivity", 1)
	speed := param(f.Params, "rotationSpeed", 1)
	amplitude := param(f.Params, "waveAmplitude", 1)

	c.Fade(0.8)
	s.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := s.m.spin(0.01, 0.04, speed, f.Delta)

	cx, cy := c.Center()
	maxR := c.Radius()
	const steps = 160
	for arm := 0; arm < arms; arm++ {
		offset := float64(arm) / float64(arms) * 2 * math.Pi
		col := f.Palette.Color(arm)
		px, py := cx, cy
		for i := 1; i <= steps; i++ {
			t := float64(i) / steps
			v := binAt(f.Snapshot.Bins, t*0.6) * sensitivity
			wave := math.Sin(t*12+f.Time*3) * amplitude * v * maxR * 0.08
			r := math.Min(maxR, t*maxR+wave)
			x, y := c.Polar(cx, cy, r, offset+rotation+t*3*math.Pi)
			c.Line(px, py, x, y, 0.3+math.Min(v, 1)*0.7, col)
			px, py = x, y
		}
	}
}

// circularWaveform bends the spectrum around a circle.
type circularWaveform struct {
	m motion
}

func (w *circularWaveform) Render(c *render.Canvas, f visualizer.Frame) {
	radius := param(f.Params, "radius", 150)
	sensitivity := param(f.Params, "sensitivity", 1)
	thickness := param(f.Params, "lineThickness", 2)
	speed := param(f.Params, "rotationSpeed", 0.5)

	c.Fade(0.6)
	w.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := w.m.spin(0.01, 0.02, speed, f.Delta)

	cx, cy := c.Center()
	// radius is expressed against a 300 px reference circle
	base := c.Radius() * math.Min(1, math.Max(0.05, radius/300)) * 0.7
	level := math.Min(1, 0.35+thickness*0.08)
	const points = 180
	var fx, fy, px, py float64
	for i := 0; i <= points; i++ {
		t := float64(i%points) / points
		// mirror the spectrum so the ring closes smoothly
		mt := t * 2
		if mt > 1 {
			mt = 2 - mt
		}
		v := binAt(f.Snapshot.Bins, mt*0.5) * sensitivity
		r := base + v*c.Radius()*0.3
		x, y := c.Polar(cx, cy, r, t*2*math.Pi+rotation)
		if i == 0 {
			fx, fy = x, y
		} else {
			c.Line(px, py, x, y, level, cycle(f.Palette, t+f.Time*0.05))
		}
		px, py = x, y
	}
	c.Line(px, py, fx, fy, level, f.Palette.Color(0))
	c.Ring(cx, cy, base*0.9, 0.25+w.m.low*0.5, f.Palette.Color(1))
}

// symmetryMirror reflects a field of spectrum particles into wedges.
type symmetryMirror struct {
	m motion
}

func (s *symmetryMirror) Render(c *render.Canvas, f visualizer.Frame) {
	segments := count(f.Params, "mirrorSegments", 4, 1, 32)
	sensitivity := param(f.Params, "sensitivity", 1)
	size := param(f.Params, "particleSize", 1)
	bloom := param(f.Params, "bloomIntensity", 1)

	c.Fade(0.7)
	s.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := s.m.spin(0.004, 0.02, 1, f.Delta)

	cx, cy := c.Center()
	maxR := c.Radius()
	const particles = 24
	wedge := 2 * math.Pi / float64(segments)
	for i := 0; i < particles; i++ {
		t := float64(i) / particles
		v := binAt(f.Snapshot.Bins, t*0.7) * sensitivity
		r := maxR * (0.15 + t*0.75)
		local := wedge * 0.5 * math.Sin(f.Time*0.7+t*6) * math.Min(v+0.2, 1)
		col := f.Palette.At(t)
		for seg := 0; seg < segments; seg++ {
			a := rotation + wedge*float64(seg)
			for _, sign := range []float64{1, -1} {
				x, y := c.Polar(cx, cy, r, a+sign*local)
				c.Disc(x, y, size*(0.6+v*bloom), math.Min(1, 0.3+v*0.7*math.Max(bloom, 0.3)), col)
			}
		}
	}
}

// geometricMandala stacks rotating layers of petals.
type geometricMandala struct {
	m motion
}

func (g *geometricMandala) Render(c *render.Canvas, f visualizer.Frame) {
	petals := count(f.Params, "petalCount", 12, 1, 128)
	layers := count(f.Params, "layers", 4, 1, 32)
	sensitivity := param(f.Params, "sensitivity", 1)
	speed := param(f.Params, "rotationSpeed", 1)

	c.Clear()
	g.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := g.m.spin(0.005, 0.02, speed, f.Delta)

	cx, cy := c.Center()
	maxR := c.Radius()
	for layer := 0; layer < layers; layer++ {
		lt := float64(layer+1) / float64(layers)
		v := binAt(f.Snapshot.Bins, lt*0.5) * sensitivity
		r := maxR * lt * (0.8 + math.Min(v, 1)*0.2)
		dir := 1.0
		if layer%2 == 1 {
			dir = -1
		}
		col := f.Palette.At(lt)
		for p := 0; p < petals; p++ {
			a := dir*rotation + float64(p)/float64(petals)*2*math.Pi
			inner := r * 0.35
			x0, y0 := c.Polar(cx, cy, inner, a)
			x1, y1 := c.Polar(cx, cy, r, a-math.Pi/float64(petals))
			x2, y2 := c.Polar(cx, cy, r, a+math.Pi/float64(petals))
			level := 0.35 + math.Min(v, 1)*0.65
			c.Line(x0, y0, x1, y1, level, col)
			c.Line(x0, y0, x2, y2, level, col)
			tipX, tipY := c.Polar(cx, cy, r*1.05, a)
			c.PlotF(tipX, tipY, 1, palette.Multiply(col, 1.5))
		}
	}
	c.Disc(cx, cy, 1+g.m.low*maxR*0.2, 0.9, f.Palette.Color(0))
}
