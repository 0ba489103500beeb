package analyzer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverage(t *testing.T) {
	vals := []float64{0.2, 0.4, 0.6, 0.8}
	want := 0.5
	if got := average(vals); math.Abs(got-want) > 1e-6 {
		t.Fatalf("average=%f want=%f", got, want)
	}
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{
		0:    1,
		1:    1,
		3:    4,
		31:   32,
		257:  512,
		2048: 2048,
	}
	for input, want := range cases {
		if got := nextPow2(input); got != want {
			t.Fatalf("nextPow2(%d)=%d want=%d", input, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	if clamp(2, 0, 1) != 1 {
		t.Fatalf("expected clamp high to be 1")
	}
	if clamp(-1, 0, 1) != 0 {
		t.Fatalf("expected clamp low to be 0")
	}
	if clamp(0.5, 0, 1) != 0.5 {
		t.Fatalf("expected clamp middle to be unchanged")
	}
}

func TestNewRoundsFFTSize(t *testing.T) {
	a := New(Config{FFTSize: 1000})
	assert.Equal(t, 1024, a.FFTSize())
	assert.Equal(t, 512, a.BinCount())

	a = New(Config{})
	assert.Equal(t, DefaultFFTSize, a.FFTSize())
	assert.Equal(t, DefaultSampleRate, a.SampleRate())
}

func TestSilenceProducesZeroBins(t *testing.T) {
	for _, name := range TransformNames() {
		a := New(Config{Transform: name})
		a.Write(make([]float32, 4096))

		bins := make([]uint8, a.BinCount())
		for frame := 0; frame < 10; frame++ {
			require.Equal(t, a.BinCount(), a.ByteFrequencyData(bins))
			for i, v := range bins {
				require.Zerof(t, v, "%s bin %d", name, i)
			}
		}
	}
}

func TestSineLandsInExpectedBand(t *testing.T) {
	for _, name := range TransformNames() {
		a := New(Config{Transform: name, Smoothing: 0.01})
		samples := make([]float32, a.FFTSize())
		for i := range samples {
			samples[i] = float32(0.8 * math.Sin(2*math.Pi*100*float64(i)/a.SampleRate()))
		}
		a.Write(samples)

		bins := make([]uint8, a.BinCount())
		a.ByteFrequencyData(bins)
		snap := Summarize(bins, a.SampleRate())

		assert.Greater(t, snap.Low, snap.Mid, name)
		assert.Greater(t, snap.Low, snap.High, name)
		assert.Greater(t, snap.Low, 0.0, name)
	}
}

func TestResetClearsHistory(t *testing.T) {
	a := New(Config{Smoothing: 0.5})
	samples := make([]float32, a.FFTSize())
	for i := range samples {
		samples[i] = float32(math.Sin(float64(i) * 0.3))
	}
	a.Write(samples)
	bins := make([]uint8, a.BinCount())
	a.ByteFrequencyData(bins)

	a.Reset()
	a.ByteFrequencyData(bins)
	for _, v := range bins {
		require.Zero(t, v)
	}
}

func TestShortDestinationGetsLowBins(t *testing.T) {
	a := New(Config{})
	dst := make([]uint8, 16)
	assert.Equal(t, 16, a.ByteFrequencyData(dst))
}

func TestMixIntoBufferWraps(t *testing.T) {
	a := New(Config{FFTSize: 32})
	a.Write([]float32{1, 2, 3})
	assert.Equal(t, 3, a.index)

	long := make([]float32, 31)
	a.Write(long)
	assert.Equal(t, 2, a.index)

	full := make([]float32, 64)
	full[63] = 9
	a.Write(full)
	assert.Equal(t, 0, a.index)
	assert.Equal(t, float32(9), a.ring[31])
}

func TestUnknownTransform(t *testing.T) {
	_, err := NewTransform("fftw")
	assert.Error(t, err)

	tr, err := NewTransform("")
	require.NoError(t, err)
	assert.IsType(t, &dspTransform{}, tr)
}
