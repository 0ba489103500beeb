// Package config holds the runtime settings shared by the CLI, the terminal
// host and the web surface.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/palette"
)

// EnvPrefix namespaces every environment variable read by FromEnv.
const EnvPrefix = "SPECTRAVIZ_"

var ErrInvalid = errors.New("invalid configuration")

// Config holds all runtime configuration.
type Config struct {
	// Audio
	DeviceName  string
	FFTSize     int
	Transform   string // dsp | gonum
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
	NoiseFloor  float64
	Autoplay    bool // start the graph without waiting for a key press
	Synthetic   bool // drive visuals from generated bands, no audio device

	// Content
	SongsDir   string
	Visualizer string
	Palette    string

	// Display
	FPS         float64
	ShowStatus  bool
	Color       bool
	Ramp        string
	SDL         bool
	ResizeDelay time.Duration

	// Control and diagnostics
	WebAddr     string // empty disables the web surface
	ProfilePath string
	Debug       bool
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		FFTSize:     2048,
		Transform:   analyzer.TransformDSP,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
		SongsDir:    "assets",
		Visualizer:  "kaleidoscope",
		Palette:     palette.DefaultName,
		FPS:         60,
		ShowStatus:  true,
		Color:       true,
		Ramp:        "default",
		ResizeDelay: 100 * time.Millisecond,
	}
}

// FromEnv overlays SPECTRAVIZ_* variables on the defaults. Unparsable values
// keep the default.
func FromEnv() Config {
	d := Default()
	return Config{
		DeviceName:  envStr("DEVICE", d.DeviceName),
		FFTSize:     envInt("FFT_SIZE", d.FFTSize),
		Transform:   envStr("FFT_BACKEND", d.Transform),
		Smoothing:   envFloat("SMOOTHING", d.Smoothing),
		MinDecibels: envFloat("MIN_DB", d.MinDecibels),
		MaxDecibels: envFloat("MAX_DB", d.MaxDecibels),
		NoiseFloor:  envFloat("NOISE_FLOOR", d.NoiseFloor),
		Autoplay:    envBool("AUTOPLAY", d.Autoplay),
		Synthetic:   envBool("SYNTHETIC", d.Synthetic),

		SongsDir:   envStr("SONGS_DIR", d.SongsDir),
		Visualizer: envStr("VISUALIZER", d.Visualizer),
		Palette:    envStr("PALETTE", d.Palette),

		FPS:         envFloat("FPS", d.FPS),
		ShowStatus:  envBool("STATUS", d.ShowStatus),
		Color:       envBool("COLOR", d.Color),
		Ramp:        envStr("RAMP", d.Ramp),
		SDL:         envBool("SDL", d.SDL),
		ResizeDelay: time.Duration(envInt("RESIZE_DELAY_MS", int(d.ResizeDelay/time.Millisecond))) * time.Millisecond,

		WebAddr:     envStr("WEB_ADDR", d.WebAddr),
		ProfilePath: envStr("PROFILE", d.ProfilePath),
		Debug:       envBool("DEBUG", d.Debug),
	}
}

// Analyser returns the analyser settings. The sample rate is filled in by the
// engine from the output device.
func (c Config) Analyser() analyzer.Config {
	return analyzer.Config{
		FFTSize:     c.FFTSize,
		Smoothing:   c.Smoothing,
		MinDecibels: c.MinDecibels,
		MaxDecibels: c.MaxDecibels,
		Transform:   c.Transform,
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("%w: fft size must be a power of two in [32, 32768] (got %d)", ErrInvalid, c.FFTSize)
	case c.Smoothing < 0 || c.Smoothing >= 1:
		return fmt.Errorf("%w: smoothing must be in [0, 1) (got %.2f)", ErrInvalid, c.Smoothing)
	case c.MinDecibels >= c.MaxDecibels:
		return fmt.Errorf("%w: min decibels %.1f must be below max %.1f", ErrInvalid, c.MinDecibels, c.MaxDecibels)
	case c.NoiseFloor < 0 || c.NoiseFloor >= 1:
		return fmt.Errorf("%w: noise floor must be in [0, 1) (got %.2f)", ErrInvalid, c.NoiseFloor)
	case !(c.FPS > 0) || c.FPS > 240:
		return fmt.Errorf("%w: fps must be in (0, 240] (got %.2f)", ErrInvalid, c.FPS)
	case c.ResizeDelay < 0:
		return fmt.Errorf("%w: resize delay must not be negative", ErrInvalid)
	}
	if !validTransform(c.Transform) {
		return fmt.Errorf("%w: unknown fft backend %q", ErrInvalid, c.Transform)
	}
	return nil
}

func validTransform(name string) bool {
	if name == "" {
		return true
	}
	for _, n := range analyzer.TransformNames() {
		if n == name {
			return true
		}
	}
	return false
}

func envKey(key string) string { return EnvPrefix + key }

func envStr(key, fallback string) string {
	if v := os.Getenv(envKey(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envKey(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(envKey(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(envKey(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
