package analyzer

import (
	"math"
	"sync"
)

// Defaults mirror a browser AnalyserNode.
const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
	DefaultSampleRate  = 44_100.0

	minFFTSize = 32
	maxFFTSize = 32768
)

// Config controls Analyser behavior.
type Config struct {
	SampleRate  float64
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
	Transform   string
}

// Analyser turns the most recent mono samples into byte-range magnitudes per
// frequency bin. Writes come from the audio callback, reads from the frame
// driver, so both sides take the same lock.
type Analyser struct {
	sampleRate float64
	fftSize    int
	smoothing  float64
	minDB      float64
	maxDB      float64

	mu        sync.Mutex
	ring      []float32
	index     int
	window    []float64
	input     []float64
	mags      []float64
	smoothed  []float64
	transform Transform
}

// New creates an Analyser. The FFT size is rounded up to a power of two and
// kept inside [32, 32768]; an unknown transform name falls back to go-dsp.
func New(cfg Config) *Analyser {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FFTSize <= 0 {
		cfg.FFTSize = DefaultFFTSize
	}
	size := clampInt(nextPow2(cfg.FFTSize), minFFTSize, maxFFTSize)
	if cfg.Smoothing < 0 || cfg.Smoothing >= 1 || math.IsNaN(cfg.Smoothing) {
		cfg.Smoothing = DefaultSmoothing
	}
	if cfg.MinDecibels == 0 && cfg.MaxDecibels == 0 {
		cfg.MinDecibels = DefaultMinDecibels
		cfg.MaxDecibels = DefaultMaxDecibels
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		cfg.MinDecibels = DefaultMinDecibels
		cfg.MaxDecibels = DefaultMaxDecibels
	}
	transform, err := NewTransform(cfg.Transform)
	if err != nil {
		transform = &dspTransform{}
	}

	a := &Analyser{
		sampleRate: cfg.SampleRate,
		fftSize:    size,
		smoothing:  cfg.Smoothing,
		minDB:      cfg.MinDecibels,
		maxDB:      cfg.MaxDecibels,
		ring:       make([]float32, size),
		window:     make([]float64, size),
		input:      make([]float64, size),
		mags:       make([]float64, size/2),
		smoothed:   make([]float64, size/2),
		transform:  transform,
	}
	sizeF := float64(size)
	for i := range a.window {
		a.window[i] = hann(float64(i), sizeF)
	}
	return a
}

// SampleRate returns the rate the analyser assumes for its input.
func (a *Analyser) SampleRate() float64 { return a.sampleRate }

// FFTSize returns the transform size.
func (a *Analyser) FFTSize() int { return a.fftSize }

// BinCount returns the number of frequency bins (FFTSize/2).
func (a *Analyser) BinCount() int { return a.fftSize / 2 }

// Write pushes mono samples into the time-domain ring.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	a.mixIntoBuffer(samples)
	a.mu.Unlock()
}

// Reset clears buffered samples and smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	clear(a.ring)
	clear(a.smoothed)
	a.index = 0
	a.mu.Unlock()
}

// ByteFrequencyData fills dst with magnitudes mapped from
// [MinDecibels, MaxDecibels] onto 0..255 and returns the number of bins
// written. dst shorter than BinCount receives the lowest bins only.
func (a *Analyser) ByteFrequencyData(dst []uint8) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := a.fftSize
	for i := 0; i < size; i++ {
		a.input[i] = float64(a.ring[(a.index+i)%size]) * a.window[i]
	}
	a.transform.Magnitudes(a.input, a.mags)

	n := min(len(dst), len(a.mags))
	scale := 255 / (a.maxDB - a.minDB)
	invSize := 1 / float64(size)
	for k := range a.mags {
		mag := a.mags[k] * invSize
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= n {
			continue
		}
		if a.smoothed[k] <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		dst[k] = uint8(clamp((db-a.minDB)*scale, 0, 255))
	}
	return n
}

func (a *Analyser) mixIntoBuffer(in []float32) {
	if len(in) == 0 {
		return
	}

	if len(in) >= len(a.ring) {
		copy(a.ring, in[len(in)-len(a.ring):])
		a.index = 0
		return
	}

	if a.index+len(in) <= len(a.ring) {
		copy(a.ring[a.index:], in)
		a.index += len(in)
		if a.index == len(a.ring) {
			a.index = 0
		}
		return
	}

	remaining := len(a.ring) - a.index
	copy(a.ring[a.index:], in[:remaining])
	copy(a.ring, in[remaining:])
	a.index = len(in) - remaining
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
