package decode

import (
	"bytes"
	"encoding/binary"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/pkg/errors"
)

// MP3 decodes MPEG-1/2 layer III. go-mp3 always yields 16-bit stereo.
type MP3 struct{}

func (MP3) Decode(data []byte) (*Buffer, error) {
	dec, err := gomp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "mp3 header")
	}
	pcm, err := io.ReadAll(dec)
	if err != nil && len(pcm) == 0 {
		return nil, errors.Wrap(err, "mp3 frames")
	}
	return &Buffer{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Samples:    int16LEToFloat(pcm),
	}, nil
}

func int16LEToFloat(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768.0
	}
	return out
}
