package audio

import "errors"

var (
	// ErrSuperseded is returned by a load whose decode finished after a newer
	// load started. The newer load owns the graph.
	ErrSuperseded = errors.New("audio load superseded by a newer load")
	// ErrNoOutputDevice means no device can play audio.
	ErrNoOutputDevice = errors.New("no suitable audio output device found")
	ErrEngineClosed   = errors.New("audio engine closed")
)
