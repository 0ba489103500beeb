package decode

import (
	"bytes"

	"github.com/jfreymuth/oggvorbis"
	"github.com/pkg/errors"
)

// Vorbis decodes Ogg Vorbis streams.
type Vorbis struct{}

func (Vorbis) Decode(data []byte) (*Buffer, error) {
	samples, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "ogg vorbis")
	}
	return &Buffer{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Samples:    samples,
	}, nil
}
