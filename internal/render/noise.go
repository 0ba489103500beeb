package render

import "math"

// FractalNoise sums octaves of value noise and returns a value in [-1,1].
func FractalNoise(x, y float64, octaves int) float64 {
	if octaves < 1 {
		octaves = 1
	}
	amp := 0.5
	freq := 1.0
	total := 0.0
	sumAmp := 0.0

	for i := 0; i < octaves; i++ {
		total += ValueNoise(x*freq, y*freq) * amp
		sumAmp += amp
		amp *= 0.5
		freq *= 2.0
	}
	return (total/sumAmp)*2.0 - 1.0
}

// ValueNoise is smooth lattice noise in [0,1].
func ValueNoise(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	x1 := x0 + 1.0
	y1 := y0 + 1.0

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := hash2(x0, y0)
	n10 := hash2(x1, y0)
	n01 := hash2(x0, y1)
	n11 := hash2(x1, y1)

	ix0 := lerp(n00, n10, sx)
	ix1 := lerp(n01, n11, sx)
	return lerp(ix0, ix1, sy)
}

// Hash returns a stable pseudo-random value in [0,1) for a lattice point.
func Hash(x, y float64) float64 {
	return hash2(x, y)
}

func hash2(x, y float64) float64 {
	return frac(math.Sin(x*127.1+y*311.7) * 43758.5453123)
}

func smoothstep(v float64) float64 {
	return v * v * (3 - 2*v)
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

func frac(v float64) float64 {
	return v - math.Floor(v)
}
