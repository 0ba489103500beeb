// Package audiotest provides an audio.Output that tests pull by hand.
package audiotest

import "sync"

// Output records the render callback instead of driving a device.
type Output struct {
	Rate  float64
	Chans int

	mu     sync.Mutex
	render func([]float32)
	closed bool
}

// NewOutput returns an output with the given layout.
func NewOutput(rate float64, channels int) *Output {
	return &Output{Rate: rate, Chans: channels}
}

func (o *Output) SampleRate() float64 { return o.Rate }
func (o *Output) Channels() int       { return o.Chans }

func (o *Output) Start(render func([]float32)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.render = render
	return nil
}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// Closed reports whether Close was called.
func (o *Output) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Pull runs the render callback for frames frames and returns the
// interleaved result. Before Start it returns silence.
func (o *Output) Pull(frames int) []float32 {
	out := make([]float32, frames*o.Chans)
	o.mu.Lock()
	render := o.render
	o.mu.Unlock()
	if render != nil {
		render(out)
	}
	return out
}
