package decode

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput        = errors.New("empty audio input")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNoFrames          = errors.New("no audio frames decoded")
	ErrInvalidLayout     = errors.New("invalid sample rate or channel layout")
	ErrNotWavFile        = errors.New("not a WAV file")
	ErrNotAiffFile       = errors.New("not an AIFF file")
)

// DecodeError reports audio bytes that could not be turned into PCM.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode audio: %v", e.Err)
	}
	return fmt.Sprintf("decode audio (%s): %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
