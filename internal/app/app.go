// Package app wires the engine, the stores, the frame driver and the
// presenters into the running visualizer.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/term"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/catalog"
	"github.com/guidoenr/spectraviz/internal/config"
	"github.com/guidoenr/spectraviz/internal/control"
	"github.com/guidoenr/spectraviz/internal/driver"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/scenes"
	"github.com/guidoenr/spectraviz/internal/store"
	"github.com/guidoenr/spectraviz/internal/visualizer"
	"github.com/guidoenr/spectraviz/internal/web"
)

// SDL windows render onto a fixed pixel grid that the window scales.
const (
	sdlCanvasWidth  = 320
	sdlCanvasHeight = 180
	sdlWindowScale  = 3
)

// Config configures the application runtime.
type Config struct {
	config.Config

	// Width and Height are the initial terminal size; the real size is
	// measured every frame when stdout is a terminal.
	Width  int
	Height int

	// Output replaces the PortAudio device; Presenter replaces the ANSI
	// terminal writer.
	Output    audio.Output
	Presenter render.Presenter
	// NoInput skips the keyboard listener.
	NoInput bool
	Log     *log.Logger
}

// App ties together playback, analysis and rendering.
type App struct {
	cfg Config
	log *log.Logger

	engine    *audio.Engine
	source    driver.Source
	frequency *store.FrequencyStore
	playback  *store.PlaybackStore
	params    *params.Store
	palettes  *palette.Model
	registry  *visualizer.Registry
	ctl       *control.Controller
	driver    *driver.Driver
	web       *web.Server

	presenter render.Presenter
	ansi      *render.ANSI
	canvas    *render.Canvas
	profiler  *profiler

	// owned by the frame goroutine
	renderer     visualizer.Renderer
	rendererID   string
	width        int
	height       int
	renderHeight int
	elapsed      float64

	resized     atomic.Bool
	paramCursor atomic.Int32
	quit        chan struct{}
	quitOnce    sync.Once
	inputEvents chan inputEvent
	loads       sync.WaitGroup
}

// New builds every component. Nothing runs until Run.
func New(cfg Config) (*App, error) {
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}

	a := &App{
		cfg:      cfg,
		log:      cfg.Log,
		playback: store.NewPlaybackStore(cfg.ResizeDelay),
		params:   params.NewStore(params.Builtin(), ""),
		palettes: palette.NewModel(cfg.Palette),
		registry: scenes.Default(),
		width:    cfg.Width,
		height:   cfg.Height,
		quit:     make(chan struct{}),
	}
	if _, ok := a.registry.Lookup(cfg.Visualizer); ok {
		a.params.Activate(cfg.Visualizer)
	} else {
		first := a.registry.Next("", 0)
		a.log.Printf("unknown visualizer %q, using %q", cfg.Visualizer, first)
		a.params.Activate(first)
	}

	out := cfg.Output
	if out == nil && cfg.Synthetic {
		out = idleOutput{}
	}
	engine, err := audio.NewEngine(audio.Config{
		Output:     out,
		DeviceName: cfg.DeviceName,
		Analyser:   cfg.Analyser(),
		Autoplay:   cfg.Autoplay,
		Log:        cfg.Log,
	})
	if err != nil {
		a.playback.Close()
		return nil, fmt.Errorf("audio engine: %w", err)
	}
	a.engine = engine
	a.frequency = store.NewFrequencyStore(engine.BinCount())
	a.source = engine
	if cfg.Synthetic {
		a.source = newFakeGenerator(time.Now().UnixNano())
		a.log.Println("audio disabled, using synthetic generator")
	}

	a.ctl, err = control.New(control.Config{
		Player:      engine,
		Element:     engine.Element(),
		Catalog:     catalog.New(cfg.SongsDir, nil),
		Playback:    a.playback,
		Frequency:   a.frequency,
		Params:      a.params,
		Palettes:    a.palettes,
		Visualizers: a.registry,
		Log:         cfg.Log,
	})
	if err != nil {
		a.closeCore()
		return nil, err
	}

	a.driver = driver.New(a.source, a.frequency, cfg.FPS)
	a.driver.SetNoiseFloor(cfg.NoiseFloor)
	a.driver.OnFrame(a.frame)
	a.playback.OnResize(func(bool) { a.resized.Store(true) })

	if err := a.setupPresenter(); err != nil {
		a.closeCore()
		return nil, err
	}
	a.profiler = newProfiler(cfg.ProfilePath, a.log)
	if cfg.WebAddr != "" {
		a.web = web.NewServer(a.ctl, a.log)
	}
	return a, nil
}

func (a *App) setupPresenter() error {
	switch {
	case a.cfg.Presenter != nil:
		a.presenter = a.cfg.Presenter
		a.ansi, _ = a.cfg.Presenter.(*render.ANSI)
	case a.cfg.SDL:
		sdl, err := render.NewSDL("spectraviz", sdlCanvasWidth*sdlWindowScale, sdlCanvasHeight*sdlWindowScale)
		if err != nil {
			return fmt.Errorf("sdl: %w", err)
		}
		a.presenter = sdl
	default:
		a.ansi = render.NewANSI(os.Stdout, a.cfg.Ramp, a.cfg.Color)
		a.presenter = a.ansi
	}

	if a.ansi == nil {
		a.canvas = render.NewCanvas(sdlCanvasWidth, sdlCanvasHeight, 1)
		return nil
	}
	a.renderHeight = a.layoutHeight(a.height, nil)
	a.canvas = render.NewCanvas(a.width, a.renderHeight, render.TerminalCellAspect)
	return nil
}

// Controller exposes the action set, mainly for the web surface.
func (a *App) Controller() *control.Controller { return a.ctl }

// Run starts the frame driver and handles input until ctx is done, the user
// quits or the window is closed.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.web != nil {
		webDone := make(chan struct{})
		go func() {
			defer close(webDone)
			if err := a.web.ListenAndServe(ctx, a.cfg.WebAddr); err != nil {
				a.log.Printf("[web] server stopped: %v", err)
			}
		}()
		defer func() { <-webDone }()
		defer cancel()
	}

	if !a.cfg.NoInput {
		a.startInputListener(ctx, a.ctl.Unlock)
	}
	stopPoll := a.ctl.PollPosition(ctx)
	defer stopPoll()
	stopDriver := a.driver.Start(ctx)
	defer stopDriver()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.quit:
			return nil
		case evt, ok := <-a.inputEvents:
			if !ok {
				a.inputEvents = nil
				continue
			}
			if evt == inputEventQuit {
				return nil
			}
			a.handleInput(ctx, evt)
		}
	}
}

func (a *App) handleInput(ctx context.Context, evt inputEvent) {
	var err error
	switch evt {
	case inputEventTogglePlay:
		err = a.ctl.Transport(control.ActionToggle, 0)
	case inputEventStop:
		err = a.ctl.Transport(control.ActionStop, 0)
	case inputEventSeekBack:
		err = a.ctl.Transport(control.ActionSkip, -seekStep)
	case inputEventSeekForward:
		err = a.ctl.Transport(control.ActionSkip, seekStep)
	case inputEventNextVisualizer:
		a.ctl.StepVisualizer(1)
	case inputEventPrevVisualizer:
		a.ctl.StepVisualizer(-1)
	case inputEventNextPalette:
		a.ctl.NextPalette()
	case inputEventNextSong:
		a.stepSong(ctx, 1)
	case inputEventPrevSong:
		a.stepSong(ctx, -1)
	case inputEventReset:
		err = a.ctl.ResetParams(a.ctl.ActiveVisualizer())
	case inputEventTogglePanel:
		a.ctl.TogglePanel()
	case inputEventPrevParam:
		a.moveParamCursor(-1)
	case inputEventNextParam:
		a.moveParamCursor(1)
	case inputEventParamDown:
		err = a.nudgeParam(-1)
	case inputEventParamUp:
		err = a.nudgeParam(1)
	}
	if err != nil {
		a.log.Printf("input: %v", err)
	}
}

func (a *App) moveParamCursor(step int) {
	n := len(a.params.Schema(a.ctl.ActiveVisualizer()))
	if n == 0 {
		a.paramCursor.Store(0)
		return
	}
	next := (int(a.paramCursor.Load()) + step + n) % n
	a.paramCursor.Store(int32(next))
}

// nudgeParam steps the parameter under the panel cursor.
func (a *App) nudgeParam(steps int) error {
	id := a.ctl.ActiveVisualizer()
	schema := a.params.Schema(id)
	if len(schema) == 0 {
		return nil
	}
	i := int(a.paramCursor.Load()) % len(schema)
	_, err := a.ctl.NudgeParam(id, schema[i].Name, steps)
	return err
}

// stepSong decodes off the input loop so keys stay responsive.
func (a *App) stepSong(ctx context.Context, step int) {
	a.loads.Add(1)
	go func() {
		defer a.loads.Done()
		if err := a.ctl.StepSong(ctx, step); err != nil && !errors.Is(err, audio.ErrSuperseded) {
			a.log.Printf("load song: %v", err)
		}
	}()
}

// frame runs on the driver goroutine after the store was updated.
func (a *App) frame(snap analyzer.Snapshot, delta float64) {
	a.profiler.beginFrame()
	a.elapsed += delta
	footer := a.footer()
	a.ensureDimensions(footer)
	a.ensureRenderer()
	a.profiler.markSection("setup")

	if a.renderer != nil {
		a.renderer.Render(a.canvas, visualizer.Frame{
			Snapshot: snap,
			Params:   a.params.Params(a.rendererID),
			Palette:  a.palettes.Active(),
			Time:     a.elapsed,
			Delta:    delta,
		})
	} else {
		a.canvas.Clear()
	}
	a.profiler.markSection("render")

	status := ""
	if a.cfg.ShowStatus {
		status = a.statusText(delta)
	}
	if a.ansi != nil {
		a.ansi.SetFooter(footer)
	}
	err := a.presenter.Present(a.canvas, status)
	a.profiler.markSection("present")
	a.profiler.endFrame()

	if err != nil {
		if !errors.Is(err, render.ErrPresenterQuit) {
			a.log.Printf("present: %v", err)
		}
		a.quitOnce.Do(func() { close(a.quit) })
	}
}

// ensureRenderer resolves the active visualizer when the selection changed.
func (a *App) ensureRenderer() {
	id := a.params.Active()
	if id == a.rendererID && (a.renderer != nil || id == "") {
		return
	}
	r, err := a.registry.Resolve(context.Background(), id)
	if err != nil {
		a.log.Printf("load visualizer %q: %v", id, err)
	}
	a.renderer = r
	a.rendererID = id
	a.canvas.Clear()
}

func (a *App) footer() []string {
	if a.ansi == nil {
		return nil
	}
	st := a.playback.State()
	if !st.PanelExpanded {
		return nil
	}
	id := a.params.Active()
	return panelView(panelInfo{
		Playback:   st,
		Visualizer: a.visualizerName(id),
		Palette:    a.palettes.ActiveName(),
		Schema:     a.params.Schema(id),
		Values:     a.params.Params(id),
		Selected:   int(a.paramCursor.Load()),
	}, a.width)
}

func (a *App) statusText(delta float64) string {
	st := a.playback.State()
	song := "no song ([ ] to load)"
	if st.HasSong {
		song = fmt.Sprintf("%s %s/%s", st.SongLabel, clock(st.CurrentTime), clock(st.Duration))
	}
	fps := 0.0
	if delta > 0 {
		fps = 1 / delta
	}
	text := fmt.Sprintf("%s | %s | %s | %s | fps=%.0f",
		a.visualizerName(a.rendererID), a.palettes.ActiveName(), st.Status, song, fps)
	if a.engine.State() == audio.Suspended && !a.cfg.Synthetic {
		text = "press any key to start audio | " + text
	}
	return text
}

func (a *App) visualizerName(id string) string {
	if e, ok := a.registry.Lookup(id); ok {
		return e.Name
	}
	return id
}

// layoutHeight is the canvas height left after the status bar and footer.
func (a *App) layoutHeight(height int, footer []string) int {
	h := height - len(footer)
	if a.cfg.ShowStatus {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

func (a *App) ensureDimensions(footer []string) {
	if a.ansi == nil {
		return
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		a.width, a.height = w, h
	}
	renderHeight := a.layoutHeight(a.height, footer)
	if a.resized.Swap(false) || renderHeight != a.renderHeight || a.width != a.canvas.Width() {
		a.renderHeight = renderHeight
		a.canvas.Resize(a.width, renderHeight)
	}
}

func (a *App) closeCore() {
	if a.ctl != nil {
		a.ctl.Close()
	}
	if a.engine != nil {
		_ = a.engine.Close()
	}
	a.playback.Close()
}

// Close releases held resources. Run must have returned.
func (a *App) Close() error {
	a.loads.Wait()
	a.closeCore()
	var errs []error
	if a.presenter != nil {
		errs = append(errs, a.presenter.Close())
	}
	errs = append(errs, a.profiler.Close())
	return errors.Join(errs...)
}

// idleOutput satisfies the engine in synthetic mode. It never pulls audio.
type idleOutput struct{}

func (idleOutput) SampleRate() float64             { return 44100 }
func (idleOutput) Channels() int                   { return 2 }
func (idleOutput) Start(func(out []float32)) error { return nil }
func (idleOutput) Close() error                    { return nil }
