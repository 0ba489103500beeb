// Package audio owns playback and spectral analysis: one output device, at
// most one decoded source, and the analyser the source feeds.
package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/decode"
)

// GraphState mirrors an audio context that may start suspended until a user
// gesture unlocks it.
type GraphState int32

const (
	Suspended GraphState = iota
	Running
	Closed
)

func (s GraphState) String() string {
	switch s {
	case Suspended:
		return "suspended"
	case Running:
		return "running"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("GraphState(%d)", int32(s))
}

// Config configures an Engine.
type Config struct {
	// Output receives rendered audio. When nil a PortAudio device is opened.
	Output     Output
	DeviceName string
	Decoders   *decode.Registry
	Analyser   analyzer.Config
	// Autoplay starts the graph running without waiting for Unlock.
	Autoplay bool
	Log      *log.Logger
}

// Engine is the single owner of the output, the current source and the
// analyser. Construct one per process and pass it to consumers.
type Engine struct {
	out      Output
	decoders *decode.Registry
	analyser *analyzer.Analyser
	element  *Element
	log      *log.Logger

	state      atomic.Int32
	unlockOnce sync.Once
	loadGen    atomic.Uint64

	mu           sync.Mutex
	src          *source
	nextSourceID uint64
	connected    int
	disconnected int

	// touched only by the render goroutine
	mono []float32

	posted    chan string
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewEngine opens the output and starts the render callback. A failure here
// means there is no audio subsystem and is meant to be fatal.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}
	if cfg.Decoders == nil {
		cfg.Decoders = decode.Default()
	}

	out := cfg.Output
	if out == nil {
		if err := Initialize(); err != nil {
			return nil, err
		}
		dev, err := OpenDeviceOutput(OutputConfig{DeviceName: cfg.DeviceName})
		if err != nil {
			return nil, fmt.Errorf("audio output: %w", err)
		}
		cfg.Log.Printf("audio output on %q @ %.0f Hz", dev.DeviceName(), dev.SampleRate())
		out = dev
	}
	if out.Channels() <= 0 || !(out.SampleRate() > 0) {
		return nil, fmt.Errorf("audio output: invalid layout %d ch @ %.0f Hz", out.Channels(), out.SampleRate())
	}

	acfg := cfg.Analyser
	acfg.SampleRate = out.SampleRate()

	e := &Engine{
		out:      out,
		decoders: cfg.Decoders,
		analyser: analyzer.New(acfg),
		log:      cfg.Log,
		posted:   make(chan string, 8),
		done:     make(chan struct{}),
	}
	e.element = &Element{engine: e}
	e.state.Store(int32(Suspended))

	e.wg.Add(1)
	go e.dispatch()

	if err := out.Start(e.render); err != nil {
		e.stopDispatch()
		return nil, fmt.Errorf("audio output: %w", err)
	}
	if cfg.Autoplay {
		e.Unlock()
	}
	return e, nil
}

// Element returns the playable handle for lifecycle listeners.
func (e *Engine) Element() *Element { return e.element }

// State returns the graph state.
func (e *Engine) State() GraphState { return GraphState(e.state.Load()) }

// Unlock resumes a suspended graph. Only the first call has an effect.
func (e *Engine) Unlock() {
	e.unlockOnce.Do(func() {
		if e.state.CompareAndSwap(int32(Suspended), int32(Running)) {
			e.log.Println("audio graph running")
		}
	})
}

// SampleRate is the output rate; decoded audio is resampled to it.
func (e *Engine) SampleRate() float64 { return e.out.SampleRate() }

// BinCount is the fixed length of every snapshot's bins.
func (e *Engine) BinCount() int { return e.analyser.BinCount() }

// LoadAudioFile decodes data, replaces the current source and starts playing
// from 0. On failure the previous source is left as it was. If a newer load
// begins before this decode finishes, ErrSuperseded is returned.
func (e *Engine) LoadAudioFile(ctx context.Context, data []byte) error {
	gen := e.loadGen.Add(1)

	buf, err := e.decoders.Decode(data)
	if err != nil {
		e.log.Printf("load failed: %v", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	buf = buf.Resample(int(math.Round(e.out.SampleRate())))

	e.mu.Lock()
	if e.State() == Closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if gen != e.loadGen.Load() {
		e.mu.Unlock()
		return ErrSuperseded
	}
	if e.src != nil {
		e.src.disconnect()
		e.disconnected++
	}
	e.nextSourceID++
	e.src = newSource(e.nextSourceID, buf)
	e.src.playing = true
	e.connected++
	id := e.src.id
	e.mu.Unlock()

	e.log.Printf("source %d loaded: %.1fs, %d ch @ %d Hz", id, buf.Seconds(), buf.Channels, buf.SampleRate)
	e.element.emit(EventLoadedMetadata)
	e.element.emit(EventPlay)
	return nil
}

// GetFrequencyData returns a fresh snapshot with its own bins.
func (e *Engine) GetFrequencyData() analyzer.Snapshot {
	return e.FrequencyData(nil)
}

// FrequencyData fills dst with the current bins and summarizes them. dst is
// reallocated when its length is not BinCount.
func (e *Engine) FrequencyData(dst []uint8) analyzer.Snapshot {
	if len(dst) != e.analyser.BinCount() {
		dst = make([]uint8, e.analyser.BinCount())
	}
	e.analyser.ByteFrequencyData(dst)
	return analyzer.Summarize(dst, e.analyser.SampleRate())
}

// Loaded reports whether a source is connected.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src != nil
}

// Playing reports whether the current source is playing.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src != nil && e.src.playing
}

// Play starts or resumes the current source. A source at its end restarts
// from 0. No-op without a source.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.src == nil || e.src.playing {
		e.mu.Unlock()
		return
	}
	if e.src.atEnd() {
		e.src.pos = 0
	}
	e.src.playing = true
	e.mu.Unlock()
	e.element.emit(EventPlay)
}

// Pause halts the current source in place. No-op without a source.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.src == nil || !e.src.playing {
		e.mu.Unlock()
		return
	}
	e.src.playing = false
	e.mu.Unlock()
	e.element.emit(EventPause)
}

// Stop pauses and rewinds to 0. No-op without a source.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.src == nil {
		e.mu.Unlock()
		return
	}
	wasPlaying := e.src.playing
	e.src.playing = false
	e.src.pos = 0
	e.mu.Unlock()
	if wasPlaying {
		e.element.emit(EventPause)
	}
}

// CurrentTime is the playhead in seconds, 0 without a source.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.currentTime()
}

// Duration is the current source length in seconds, 0 without a source.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.duration()
}

// SetCurrentTime moves the playhead, clamped to [0, Duration]. No-op
// without a source.
func (e *Engine) SetCurrentTime(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return
	}
	e.src.seek(t)
}

// ConnectedSources counts sources ever wired into the analyser.
func (e *Engine) ConnectedSources() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// DisconnectedSources counts sources torn down by a later load.
func (e *Engine) DisconnectedSources() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disconnected
}

// ActiveSources is the number of sources feeding the analyser: 0 or 1.
func (e *Engine) ActiveSources() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src != nil && e.src.connected {
		return 1
	}
	return 0
}

// Close stops the output. The engine cannot be reused.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.state.Store(int32(Closed))
		if e.src != nil {
			e.src.disconnect()
		}
		e.mu.Unlock()
		err = e.out.Close()
		e.stopDispatch()
	})
	return err
}

func (e *Engine) render(out []float32) {
	for i := range out {
		out[i] = 0
	}
	if e.State() != Running {
		return
	}

	outCh := e.out.Channels()
	frames := len(out) / outCh
	if cap(e.mono) < frames {
		e.mono = make([]float32, frames)
	}
	mono := e.mono[:frames]
	for i := range mono {
		mono[i] = 0
	}

	ended := false
	e.mu.Lock()
	if e.src != nil && e.src.playing {
		e.src.mix(out, outCh, mono)
		if e.src.atEnd() {
			e.src.playing = false
			e.src.pos = 0
			ended = true
		}
	}
	e.mu.Unlock()

	e.analyser.Write(mono)
	if ended {
		e.post(EventEnded)
	}
}

// post hands an event from the render goroutine to the dispatcher so
// listeners never run on the output callback.
func (e *Engine) post(event string) {
	select {
	case e.posted <- event:
	case <-e.done:
	default:
		e.log.Printf("dropped %s event", event)
	}
}

func (e *Engine) dispatch() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case ev := <-e.posted:
			e.element.emit(ev)
		}
	}
}

func (e *Engine) stopDispatch() {
	close(e.done)
	e.wg.Wait()
}
