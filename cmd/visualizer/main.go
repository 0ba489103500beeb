package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/integrii/flaggy"
	"golang.org/x/term"

	"github.com/guidoenr/spectraviz/internal/app"
	"github.com/guidoenr/spectraviz/internal/audio"
	"github.com/guidoenr/spectraviz/internal/catalog"
	"github.com/guidoenr/spectraviz/internal/config"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/scenes"
)

const (
	AppName = "spectraviz"
	AppDesc = "audio-reactive terminal visualizer"
)

var version = "dev"

type command int

const (
	commandRun command = iota
	commandListDevices
	commandListSongs
	commandListVisualizers
)

func main() {
	cfg := config.FromEnv()
	cmd := doFlags(&cfg)

	logger := log.New(os.Stdout, "["+AppName+"] ", log.LstdFlags)
	if !cfg.Debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	switch cmd {
	case commandListDevices:
		listDevices(logger)
		return
	case commandListSongs:
		listSongs(cfg, logger)
		return
	case commandListVisualizers:
		listVisualizers()
		return
	}

	chk(logger, cfg.Validate(), "invalid configuration")

	width, height := 80, 24
	if fd := int(os.Stdout.Fd()); fd >= 0 {
		if w, h, err := term.GetSize(fd); err == nil && w > 0 && h > 0 {
			width, height = w, h
		}
	}

	if !cfg.Synthetic {
		chk(logger, audio.Initialize(), "failed to initialize PortAudio")
		defer audio.Terminate()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(app.Config{
		Config: cfg,
		Width:  width,
		Height: height,
		Log:    logger,
	})
	chk(logger, err, "failed to create app")
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Printf("runtime error: %v", err)
	}
}

func doFlags(cfg *config.Config) command {
	parser := flaggy.NewParser(AppName)
	parser.Description = AppDesc
	parser.Version = version

	listDevicesCmd := flaggy.Subcommand{
		Name:        "list-devices",
		ShortName:   "ld",
		Description: "list audio output devices ('*' marks the default)",
	}
	parser.AttachSubcommand(&listDevicesCmd, 1)

	listSongsCmd := flaggy.Subcommand{
		Name:        "list-songs",
		ShortName:   "ls",
		Description: "list the songs found in the songs directory",
	}
	parser.AttachSubcommand(&listSongsCmd, 1)

	listVisualizersCmd := flaggy.Subcommand{
		Name:        "list-visualizers",
		ShortName:   "lv",
		Description: "list visualizers and their parameters",
	}
	parser.AttachSubcommand(&listVisualizersCmd, 1)

	parser.String(&cfg.DeviceName, "d", "device", "output device name (substring match)")
	parser.Float64(&cfg.FPS, "f", "fps", "frames per second")
	parser.Int(&cfg.FFTSize, "n", "fft-size", "FFT size (power of two)")
	parser.String(&cfg.Transform, "t", "fft-backend", "FFT backend (dsp|gonum)")
	parser.Float64(&cfg.Smoothing, "sm", "smoothing", "analyser smoothing time constant [0, 1)")
	parser.Float64(&cfg.MinDecibels, "", "min-db", "analyser floor in dB")
	parser.Float64(&cfg.MaxDecibels, "", "max-db", "analyser ceiling in dB")
	parser.Float64(&cfg.NoiseFloor, "nf", "noise-floor", "gate band energies below this level [0, 1)")
	parser.String(&cfg.SongsDir, "s", "songs", "songs directory")
	parser.String(&cfg.Visualizer, "v", "visualizer", "initial visualizer id")
	parser.String(&cfg.Palette, "p", "palette", "initial palette")
	parser.String(&cfg.Ramp, "r", "ramp", "glyph ramp (default|box|lines|spark)")
	parser.Bool(&cfg.Autoplay, "a", "autoplay", "start audio without waiting for a key press")
	parser.Bool(&cfg.Synthetic, "", "no-audio", "run with synthetic bands and no audio device")
	parser.Bool(&cfg.ShowStatus, "", "status", "display the status bar")
	parser.Bool(&cfg.Color, "", "color", "use ANSI colors")
	parser.Bool(&cfg.SDL, "", "sdl", "render in an SDL window (needs -tags sdl)")
	parser.String(&cfg.WebAddr, "w", "web", "serve the control API on this address (e.g. :8080)")
	parser.String(&cfg.ProfilePath, "", "profile", "append frame timings to this CSV file")
	parser.Bool(&cfg.Debug, "", "debug", "verbose logging")

	if err := parser.Parse(); err != nil {
		log.Fatalln("failed to parse arguments: ", err)
	}

	switch {
	case listDevicesCmd.Used:
		return commandListDevices
	case listSongsCmd.Used:
		return commandListSongs
	case listVisualizersCmd.Used:
		return commandListVisualizers
	}
	return commandRun
}

func listDevices(logger *log.Logger) {
	chk(logger, audio.Initialize(), "failed to initialize PortAudio")
	defer audio.Terminate()

	devices, err := audio.ListOutputDevices()
	chk(logger, err, "list devices")
	fmt.Printf("\n=== Audio Output Devices ===\n\n")
	for _, dev := range devices {
		fmt.Println(dev)
	}
}

func listSongs(cfg config.Config, logger *log.Logger) {
	songs, err := catalog.New(cfg.SongsDir, nil).Songs()
	chk(logger, err, "list songs")
	if len(songs) == 0 {
		fmt.Printf("no songs in %s\n", cfg.SongsDir)
		return
	}
	for _, s := range songs {
		fmt.Printf("- %-32s %s\n", s.Name, s.Path)
	}
}

func listVisualizers() {
	schemas := params.Builtin()
	for _, e := range scenes.Default().Entries() {
		fmt.Printf("- %-18s %s\n", e.ID, e.Name)
		for _, d := range schemas[e.ID] {
			fmt.Printf("    %-16s [%g, %g] step %g default %g\n", d.Name, d.Min, d.Max, d.Step, d.DefaultValue)
		}
	}
}

func chk(logger *log.Logger, err error, wrap string) {
	if err != nil {
		logger.Fatalln(wrap+": ", err)
	}
}
