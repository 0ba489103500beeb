package scenes

import (
	"math"

	"github.com/guidoenr/spectraviz/internal/analyzer"
)

// motion smooths band energies between frames so scenes react to kicks
// without jitter, and settles back to rest during silence.
type motion struct {
	low    float64
	mid    float64
	high   float64
	energy float64
	angle  float64
}

func (m *motion) update(s analyzer.Snapshot, sensitivity, delta float64) {
	if s.Low == 0 && s.Mid == 0 && s.High == 0 {
		m.decay(delta)
		return
	}
	attack := 1 - math.Pow(0.4, frames(delta))
	m.low = lerp(m.low, clamp01(s.Low*sensitivity), attack)
	m.mid = lerp(m.mid, clamp01(s.Mid*sensitivity), attack)
	m.high = lerp(m.high, clamp01(s.High*sensitivity), attack)
	// energy leans on the low end where kicks live
	m.energy = math.Max(0.05, m.low*0.7+m.mid*0.2+m.high*0.1)
}

func (m *motion) decay(delta float64) {
	d := math.Pow(0.92, frames(delta))
	m.low *= d
	m.mid *= d
	m.high *= d
	m.energy *= d
}

// spin advances the rotation angle by base plus a mid-driven boost.
func (m *motion) spin(base, boost, speed, delta float64) float64 {
	m.angle = math.Mod(m.angle+(base+m.mid*boost)*speed*frames(delta), 2*math.Pi)
	return m.angle
}
