package scenes

import (
	"math"
	"math/rand"

	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

const maxStars = 400

type star struct {
	x, y, z float64
}

// starField flies through stars; low end sets the speed.
type starField struct {
	rng   *rand.Rand
	stars []star
	m     motion
}

func newStarField(seed int64) *starField {
	return &starField{rng: rand.New(rand.NewSource(seed))}
}

func (s *starField) respawn(st *star) {
	st.x = s.rng.Float64()*2 - 1
	st.y = s.rng.Float64()*2 - 1
	st.z = 0.2 + s.rng.Float64()*0.8
}

func (s *starField) Render(c *render.Canvas, f visualizer.Frame) {
	sensitivity := param(f.Params, "sensitivity", 1)
	size := param(f.Params, "particleSize", 1)
	speed := param(f.Params, "rotationSpeed", 1)
	bloom := param(f.Params, "bloomIntensity", 1)

	if len(s.stars) == 0 {
		s.stars = make([]star, maxStars)
		for i := range s.stars {
			s.respawn(&s.stars[i])
		}
	}

	c.Fade(0.5)
	s.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := s.m.spin(0.001, 0.01, speed, f.Delta)
	step := (0.004 + s.m.energy*0.03) * frames(f.Delta)

	cx, cy := c.Center()
	maxR := c.Radius()
	sin, cos := math.Sincos(rotation)
	for i := range s.stars {
		st := &s.stars[i]
		st.z -= step
		if st.z <= 0.01 {
			s.respawn(st)
			st.z = 1
		}
		px := st.x / st.z * 0.5
		py := st.y / st.z * 0.5
		rx := px*cos - py*sin
		ry := px*sin + py*cos
		x := cx + rx*maxR
		y := cy + ry*maxR/c.Aspect
		if x < 0 || y < 0 || x >= float64(c.Width()) || y >= float64(c.Height()) {
			s.respawn(st)
			continue
		}
		near := 1 - st.z
		col := cycle(f.Palette, float64(i)/maxStars)
		if near > 0.8 && bloom > 0 {
			c.Disc(x, y, size*near*bloom, near, col)
			continue
		}
		c.PlotF(x, y, 0.2+near*0.8, col)
	}
}

type particle struct {
	x, y, vx, vy float64
	life         float64
	hue          float64
}

const maxParticles = 1500

// energyParticles spawns sparks from emitters on a ring; gravity pulls them
// toward the center.
type energyParticles struct {
	rng       *rand.Rand
	particles []particle
	m         motion
}

func newEnergyParticles(seed int64) *energyParticles {
	return &energyParticles{rng: rand.New(rand.NewSource(seed))}
}

func (e *energyParticles) Render(c *render.Canvas, f visualizer.Frame) {
	emitters := count(f.Params, "emitterCount", 6, 1, 64)
	sensitivity := param(f.Params, "sensitivity", 1)
	size := param(f.Params, "particleSize", 1)
	gravity := param(f.Params, "gravityStrength", 1)

	c.Fade(0.7)
	e.m.update(f.Snapshot, sensitivity, f.Delta)
	rotation := e.m.spin(0.005, 0.02, 1, f.Delta)
	dt := frames(f.Delta)

	cx, cy := c.Center()
	ring := c.Radius() * 0.6
	spawn := int(1 + e.m.energy*8)
	for em := 0; em < emitters; em++ {
		a := rotation + float64(em)/float64(emitters)*2*math.Pi
		ex, ey := c.Polar(cx, cy, ring, a)
		for i := 0; i < spawn && len(e.particles) < maxParticles; i++ {
			angle := e.rng.Float64() * 2 * math.Pi
			v := 0.2 + e.rng.Float64()*(0.3+e.m.high)
			e.particles = append(e.particles, particle{
				x: ex, y: ey,
				vx:   math.Cos(angle) * v,
				vy:   math.Sin(angle) * v / c.Aspect,
				life: 1,
				hue:  float64(em) / float64(emitters),
			})
		}
	}

	alive := e.particles[:0]
	for _, p := range e.particles {
		dx := cx - p.x
		dy := (cy - p.y) * c.Aspect
		d := math.Max(1, math.Hypot(dx, dy))
		pull := gravity * 0.02 * dt
		p.vx += dx / d * pull
		p.vy += dy / d * pull / c.Aspect
		p.x += p.vx * dt
		p.y += p.vy * dt
		p.life -= 0.02 * dt
		if p.life <= 0 {
			continue
		}
		col := palette.Multiply(f.Palette.At(p.hue), 0.6+p.life*0.8)
		if size > 1.5 {
			c.Disc(p.x, p.y, size*0.5, p.life, col)
		} else {
			c.PlotF(p.x, p.y, p.life, col)
		}
		alive = append(alive, p)
	}
	e.particles = alive
}

// nebulaCloud lights sample points of a drifting noise field.
type nebulaCloud struct {
	m     motion
	swirl float64
}

func (n *nebulaCloud) Render(c *render.Canvas, f visualizer.Frame) {
	particles := count(f.Params, "particleCount", 800, 1, 20000)
	sensitivity := param(f.Params, "sensitivity", 1)
	size := param(f.Params, "particleSize", 1)
	bloom := param(f.Params, "bloomIntensity", 1)
	swirlSpeed := param(f.Params, "swirlSpeed", 1)

	c.Fade(0.6)
	n.m.update(f.Snapshot, sensitivity, f.Delta)
	n.swirl += (0.003 + n.m.mid*0.01) * swirlSpeed * frames(f.Delta)

	cx, cy := c.Center()
	maxR := c.Radius()
	// golden-angle spiral gives an even spread of sample points
	const golden = 2.399963229728653
	for i := 0; i < particles; i++ {
		t := float64(i) / float64(particles)
		r := math.Sqrt(t) * maxR
		a := float64(i)*golden + n.swirl*(1.5-t)
		x, y := c.Polar(cx, cy, r, a)
		density := render.FractalNoise(x*0.08+n.swirl, y*0.16-n.swirl*0.5, 3)
		if density < 0.1-n.m.energy*0.4 {
			continue
		}
		level := clamp01((density + 1) * 0.5 * (0.5 + n.m.energy*bloom))
		col := f.Palette.At(clamp01((density + 1) * 0.5))
		if size > 2 && level > 0.7 {
			c.Disc(x, y, size*0.4, level, col)
			continue
		}
		c.PlotF(x, y, level, col)
	}
}
