package analyzer

import (
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Transform computes |X[k]| for k in [0, len(out)) of a real input block.
type Transform interface {
	Magnitudes(in []float64, out []float64)
}

const (
	TransformDSP   = "dsp"
	TransformGonum = "gonum"
)

var transforms = map[string]func() Transform{
	TransformDSP:   func() Transform { return &dspTransform{} },
	TransformGonum: func() Transform { return &gonumTransform{} },
}

// NewTransform returns the FFT backend called name; "" selects go-dsp.
func NewTransform(name string) (Transform, error) {
	if name == "" {
		name = TransformDSP
	}
	ctor, ok := transforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown fft transform %q", name)
	}
	return ctor(), nil
}

// TransformNames lists the available FFT backends.
func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type dspTransform struct{}

func (dspTransform) Magnitudes(in []float64, out []float64) {
	coeffs := fft.FFTReal(in)
	for k := range out {
		if k >= len(coeffs) {
			out[k] = 0
			continue
		}
		out[k] = cmplx.Abs(coeffs[k])
	}
}

// gonumTransform reuses one plan and coefficient buffer per input size.
type gonumTransform struct {
	plan   *fourier.FFT
	coeffs []complex128
	size   int
}

func (g *gonumTransform) Magnitudes(in []float64, out []float64) {
	if g.plan == nil || g.size != len(in) {
		g.plan = fourier.NewFFT(len(in))
		g.coeffs = make([]complex128, len(in)/2+1)
		g.size = len(in)
	}
	g.coeffs = g.plan.Coefficients(g.coeffs, in)
	for k := range out {
		if k >= len(g.coeffs) {
			out[k] = 0
			continue
		}
		out[k] = cmplx.Abs(g.coeffs[k])
	}
}
