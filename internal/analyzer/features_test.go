package analyzer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandAverageIsFiniteAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	rates := []float64{0, -1, 8000, 22050, 44100, 48000, math.NaN()}
	for i := 0; i < 2000; i++ {
		bins := make([]uint8, rng.Intn(2048))
		switch i % 3 {
		case 0:
			// all zero
		case 1:
			for j := range bins {
				bins[j] = 255
			}
		default:
			for j := range bins {
				bins[j] = uint8(rng.Intn(256))
			}
		}
		start := rng.Float64()*30000 - 5000
		end := rng.Float64()*30000 - 5000
		rate := rates[rng.Intn(len(rates))]

		got := BandAverage(bins, start, end, rate)
		if math.IsNaN(got) || got < 0 || got > 1 {
			t.Fatalf("BandAverage(len=%d, %f, %f, %f) = %f", len(bins), start, end, rate, got)
		}
	}
}

func TestBandAverageEmptyRange(t *testing.T) {
	bins := make([]uint8, 1024)
	for i := range bins {
		bins[i] = 200
	}
	assert.Zero(t, BandAverage(bins, 250, 250, 44100))
	assert.Zero(t, BandAverage(bins, 4000, 250, 44100))
	assert.Zero(t, BandAverage(nil, 10, 250, 44100))
	assert.Zero(t, BandAverage(bins, 10, 11, 44100), "range narrower than one bin")
}

func TestBandAverageIndexes(t *testing.T) {
	bins := make([]uint8, 1024)
	// low band at 44.1 kHz covers [0, 11)
	for i := 0; i < 11; i++ {
		bins[i] = 255
	}
	bins[11] = 255
	assert.InDelta(t, 1.0, BandAverage(bins, 10, 250, 44100), 1e-9)

	bins[0] = 0
	assert.InDelta(t, 10.0/11.0, BandAverage(bins, 10, 250, 44100), 1e-9)
}

func TestBandAverageClampsEndToBinCount(t *testing.T) {
	bins := make([]uint8, 1024)
	for i := range bins {
		bins[i] = 51
	}
	// 16 kHz lies above Nyquist at 22.05 kHz
	assert.InDelta(t, 0.2, BandAverage(bins, 4000, 16000, 22050), 1e-9)
}

func TestSummarizeZeroBins(t *testing.T) {
	snap := Summarize(make([]uint8, 1024), 44100)
	assert.Zero(t, snap.Low)
	assert.Zero(t, snap.Mid)
	assert.Zero(t, snap.High)
	assert.Len(t, snap.Bins, 1024)
}

func TestZeroSnapshot(t *testing.T) {
	snap := ZeroSnapshot(1024)
	assert.Len(t, snap.Bins, 1024)
	assert.Zero(t, snap.Overall())
	assert.NotNil(t, ZeroSnapshot(-3).Bins)
}

func TestGate(t *testing.T) {
	s := Snapshot{Low: 0.05, Mid: 0.55, High: 1}
	assert.Equal(t, s, s.Gate(0))

	g := s.Gate(0.1)
	assert.Zero(t, g.Low)
	assert.InDelta(t, 0.5, g.Mid, 1e-9)
	assert.InDelta(t, 1, g.High, 1e-9)

	all := s.Gate(1)
	assert.Zero(t, all.Overall())
}

func TestCloneOwnsBins(t *testing.T) {
	s := Snapshot{Bins: []uint8{1, 2, 3}}
	c := s.Clone()
	c.Bins[0] = 9
	assert.Equal(t, uint8(1), s.Bins[0])
}
