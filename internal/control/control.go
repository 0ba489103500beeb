// Package control is the set of user actions shared by the keyboard host and
// the web surface: song loading, transport, visualizer, parameter and palette
// selection.
package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"sync"
	"time"

	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/catalog"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/store"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

var (
	ErrUnknownVisualizer = errors.New("unknown visualizer")
	ErrUnknownParam      = errors.New("unknown parameter")
	ErrUnknownAction     = errors.New("unknown transport action")
	ErrNoSongs           = errors.New("no songs in catalog")
)

// PositionPollInterval is how often the playhead is copied into the
// playback store.
const PositionPollInterval = 100 * time.Millisecond

// Transport actions accepted by Transport.
const (
	ActionPlay   = "play"
	ActionPause  = "pause"
	ActionToggle = "toggle"
	ActionStop   = "stop"
	ActionSeek   = "seek" // absolute, seconds
	ActionSkip   = "skip" // relative, seconds
)

// Player is the engine surface the controller drives.
type Player interface {
	LoadAudioFile(ctx context.Context, data []byte) error
	Unlock()
	Play()
	Pause()
	Stop()
	Playing() bool
	CurrentTime() float64
	Duration() float64
	SetCurrentTime(t float64)
}

// Config wires a Controller. Element is optional; when set its media events
// are mirrored into Playback.
type Config struct {
	Player      Player
	Element     store.MediaElement
	Catalog     *catalog.Catalog
	Playback    *store.PlaybackStore
	Frequency   *store.FrequencyStore
	Params      *params.Store
	Palettes    *palette.Model
	Visualizers *visualizer.Registry
	Log         *log.Logger
}

// Status is a point-in-time view of everything a control surface shows.
type Status struct {
	Playback   store.PlaybackState
	SongPath   string
	Visualizer string
	Palette    string
	Low        float64
	Mid        float64
	High       float64
}

// Controller applies user actions to the engine and the stores.
type Controller struct {
	cfg    Config
	log    *log.Logger
	unbind func()

	mu       sync.Mutex
	songPath string
}

// New checks cfg and binds the element, if any.
func New(cfg Config) (*Controller, error) {
	switch {
	case cfg.Player == nil:
		return nil, fmt.Errorf("control: player is required")
	case cfg.Playback == nil || cfg.Frequency == nil || cfg.Params == nil:
		return nil, fmt.Errorf("control: stores are required")
	case cfg.Palettes == nil || cfg.Visualizers == nil:
		return nil, fmt.Errorf("control: palettes and visualizers are required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}
	c := &Controller{cfg: cfg, log: cfg.Log, unbind: func() {}}
	if cfg.Element != nil {
		c.unbind = cfg.Playback.Bind(cfg.Element)
	}
	return c, nil
}

// Close detaches the element listeners.
func (c *Controller) Close() {
	c.unbind()
}

// Unlock starts the audio graph. Key presses and clicks call it.
func (c *Controller) Unlock() {
	c.cfg.Player.Unlock()
}

// Songs lists the catalog. Without a catalog the list is empty.
func (c *Controller) Songs() ([]catalog.Song, error) {
	if c.cfg.Catalog == nil {
		return []catalog.Song{}, nil
	}
	return c.cfg.Catalog.Songs()
}

// LoadSong fetches a catalog song and plays it.
func (c *Controller) LoadSong(ctx context.Context, songPath string) error {
	if c.cfg.Catalog == nil {
		return ErrNoSongs
	}
	data, err := c.cfg.Catalog.Fetch(songPath)
	if err != nil {
		return err
	}
	label := catalog.Label(data, catalog.DisplayName(path.Base(songPath)))
	if err := c.LoadBytes(ctx, label, data); err != nil {
		return err
	}
	c.mu.Lock()
	c.songPath = songPath
	c.mu.Unlock()
	return nil
}

// LoadBytes decodes and plays raw audio. The playback store shows Loading
// until the engine reports back; a failed load restores the prior state.
func (c *Controller) LoadBytes(ctx context.Context, label string, data []byte) error {
	c.cfg.Player.Unlock()
	c.cfg.Playback.BeginLoad(label)
	err := c.cfg.Player.LoadAudioFile(ctx, data)
	switch {
	case err == nil:
		c.log.Printf("playing %q", label)
		return nil
	case errors.Is(err, audio.ErrSuperseded):
		// the newer load owns the store now
		return err
	default:
		c.cfg.Playback.LoadFailed()
		c.log.Printf("load %q failed: %v", label, err)
		return err
	}
}

// StepSong loads the song step places after the current one, wrapping.
func (c *Controller) StepSong(ctx context.Context, step int) error {
	songs, err := c.Songs()
	if err != nil {
		return err
	}
	if len(songs) == 0 {
		return ErrNoSongs
	}
	c.mu.Lock()
	current := c.songPath
	c.mu.Unlock()

	idx := -1
	for i, s := range songs {
		if s.Path == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		// nothing loaded yet: forward starts at the first song
		if step > 0 {
			step--
		}
		idx = 0
	}
	next := ((idx+step)%len(songs) + len(songs)) % len(songs)
	return c.LoadSong(ctx, songs[next].Path)
}

// Transport applies a play/pause/stop/seek action. value is only used by
// the seek actions.
func (c *Controller) Transport(action string, value float64) error {
	p := c.cfg.Player
	p.Unlock()
	switch action {
	case ActionPlay:
		p.Play()
	case ActionPause:
		p.Pause()
	case ActionToggle:
		if p.Playing() {
			p.Pause()
		} else {
			p.Play()
		}
	case ActionStop:
		p.Stop()
		c.cfg.Playback.Stop()
	case ActionSeek:
		p.SetCurrentTime(value)
	case ActionSkip:
		p.SetCurrentTime(p.CurrentTime() + value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	c.SyncPosition()
	return nil
}

// SyncPosition copies the engine playhead into the playback store.
func (c *Controller) SyncPosition() {
	c.cfg.Playback.SyncPosition(c.cfg.Player.CurrentTime(), c.cfg.Player.Duration())
}

// PollPosition syncs the playhead every PositionPollInterval until ctx is
// done. stop waits for the goroutine to exit.
func (c *Controller) PollPosition(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(PositionPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.SyncPosition()
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// Visualizers lists the registry in display order.
func (c *Controller) Visualizers() []visualizer.Entry {
	return c.cfg.Visualizers.Entries()
}

// ActiveVisualizer returns the selected visualizer id.
func (c *Controller) ActiveVisualizer() string {
	return c.cfg.Params.Active()
}

// SetVisualizer selects a registered visualizer.
func (c *Controller) SetVisualizer(id string) error {
	if _, ok := c.cfg.Visualizers.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVisualizer, id)
	}
	c.cfg.Params.Activate(id)
	return nil
}

// StepVisualizer selects the visualizer step places away and returns its id.
func (c *Controller) StepVisualizer(step int) string {
	id := c.cfg.Visualizers.Next(c.ActiveVisualizer(), step)
	if id != "" {
		c.cfg.Params.Activate(id)
	}
	return id
}

// Params returns the schema and current values of a registered visualizer.
func (c *Controller) Params(id string) (params.Schema, params.Values, error) {
	if _, ok := c.cfg.Visualizers.Lookup(id); !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownVisualizer, id)
	}
	return c.cfg.Params.Schema(id), c.cfg.Params.Params(id), nil
}

// SetParam writes one value. The name must be in the visualizer's schema;
// the value is stored as given.
func (c *Controller) SetParam(id, name string, value float64) error {
	schema, _, err := c.Params(id)
	if err != nil {
		return err
	}
	if _, ok := schema.Lookup(name); !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownParam, id, name)
	}
	c.cfg.Params.SetParam(id, name, value)
	return nil
}

// NudgeParam moves a value by whole steps and snaps it onto the
// descriptor's range and grid. It returns the stored value.
func (c *Controller) NudgeParam(id, name string, steps int) (float64, error) {
	schema, values, err := c.Params(id)
	if err != nil {
		return 0, err
	}
	d, ok := schema.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownParam, id, name)
	}
	v := d.Clamp(values.Get(name, d.DefaultValue) + float64(steps)*d.Step)
	c.cfg.Params.SetParam(id, name, v)
	return v, nil
}

// ResetParams restores the defaults of a visualizer.
func (c *Controller) ResetParams(id string) error {
	if _, ok := c.cfg.Visualizers.Lookup(id); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVisualizer, id)
	}
	c.cfg.Params.Reset(id)
	return nil
}

// Palettes lists the palettes in display order.
func (c *Controller) Palettes() []palette.Palette {
	names := c.cfg.Palettes.Names()
	out := make([]palette.Palette, 0, len(names))
	for _, name := range names {
		if p, ok := c.cfg.Palettes.Lookup(name); ok {
			out = append(out, p)
		}
	}
	return out
}

// SetPalette selects a palette by name.
func (c *Controller) SetPalette(name string) error {
	return c.cfg.Palettes.SetActive(name)
}

// NextPalette cycles to the following palette.
func (c *Controller) NextPalette() palette.Palette {
	return c.cfg.Palettes.Next()
}

// TogglePanel flips the expanded flag of the control panel.
func (c *Controller) TogglePanel() {
	c.cfg.Playback.TogglePanel()
}

// Status gathers the current state.
func (c *Controller) Status() Status {
	snap := c.cfg.Frequency.Snapshot()
	c.mu.Lock()
	songPath := c.songPath
	c.mu.Unlock()
	return Status{
		Playback:   c.cfg.Playback.State(),
		SongPath:   songPath,
		Visualizer: c.cfg.Params.Active(),
		Palette:    c.cfg.Palettes.ActiveName(),
		Low:        snap.Low,
		Mid:        snap.Mid,
		High:       snap.High,
	}
}

// Subscribe calls fn whenever playback, selection or parameters change.
func (c *Controller) Subscribe(fn func()) (unsubscribe func()) {
	offs := []func(){
		c.cfg.Playback.Subscribe(func(store.PlaybackState) { fn() }),
		c.cfg.Params.Subscribe(func(params.Change) { fn() }),
		c.cfg.Palettes.Subscribe(func(palette.Palette) { fn() }),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}
