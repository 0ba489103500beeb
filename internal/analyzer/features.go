package analyzer

import "math"

// Band is a named frequency range in Hz.
type Band struct {
	Name    string
	StartHz float64
	EndHz   float64
}

// The three fixed bands every snapshot reports.
var (
	LowBand  = Band{Name: "low", StartHz: 10, EndHz: 250}
	MidBand  = Band{Name: "mid", StartHz: 250, EndHz: 4000}
	HighBand = Band{Name: "high", StartHz: 4000, EndHz: 16000}
)

// Snapshot is one frame of analysis output. Bins are ordered low to high
// frequency.
type Snapshot struct {
	Low  float64
	Mid  float64
	High float64
	Bins []uint8
}

// ZeroSnapshot returns silent bands and binCount zeroed bins.
func ZeroSnapshot(binCount int) Snapshot {
	if binCount < 0 {
		binCount = 0
	}
	return Snapshot{Bins: make([]uint8, binCount)}
}

// Summarize computes the three band energies over bins. The returned
// snapshot shares bins.
func Summarize(bins []uint8, sampleRate float64) Snapshot {
	return Snapshot{
		Low:  BandAverage(bins, LowBand.StartHz, LowBand.EndHz, sampleRate),
		Mid:  BandAverage(bins, MidBand.StartHz, MidBand.EndHz, sampleRate),
		High: BandAverage(bins, HighBand.StartHz, HighBand.EndHz, sampleRate),
		Bins: bins,
	}
}

// BandAverage is the mean magnitude of the bins covering [startHz, endHz),
// normalized to [0,1]. Empty ranges and non-finite results yield 0.
func BandAverage(bins []uint8, startHz, endHz, sampleRate float64) float64 {
	n := len(bins)
	if n == 0 || !(sampleRate > 0) {
		return 0
	}
	nyquist := sampleRate / 2
	startF := math.Floor(startHz / nyquist * float64(n))
	endF := math.Floor(endHz / nyquist * float64(n))
	if math.IsNaN(startF) || math.IsNaN(endF) {
		return 0
	}
	start := int(clamp(startF, 0, float64(n)))
	end := int(clamp(endF, 0, float64(n)))
	if end <= start {
		return 0
	}

	sum := 0
	for _, v := range bins[start:end] {
		sum += int(v)
	}
	avg := float64(sum) / float64(end-start) / 255
	if math.IsNaN(avg) {
		return 0
	}
	return clamp(avg, 0, 1)
}

// Overall is the mean of the three band energies.
func (s Snapshot) Overall() float64 {
	return average([]float64{s.Low, s.Mid, s.High})
}

// Clone returns a copy with its own bins.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Bins = make([]uint8, len(s.Bins))
	copy(out.Bins, s.Bins)
	return out
}

// Gate applies a noise floor so weak band energies read as silence and the
// rest is rescaled to [0,1]. A non-positive floor returns s unchanged.
func (s Snapshot) Gate(floor float64) Snapshot {
	if floor <= 0 {
		return s
	}
	if floor >= 1 {
		s.Low, s.Mid, s.High = 0, 0, 0
		return s
	}
	gate := func(v float64) float64 {
		if v <= floor {
			return 0
		}
		return clamp((v-floor)/(1.0-floor), 0, 1)
	}
	s.Low = gate(s.Low)
	s.Mid = gate(s.Mid)
	s.High = gate(s.High)
	return s
}
