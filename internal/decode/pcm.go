package decode

import (
	"bytes"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WAV decodes RIFF/WAVE integer PCM.
type WAV struct{}

func (WAV) Decode(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "wav pcm")
	}
	// 8-bit WAV is stored unsigned
	return intBufferToBuffer(buf, int(dec.BitDepth), dec.BitDepth == 8)
}

// AIFF decodes AIFF/AIFC integer PCM.
type AIFF struct{}

func (AIFF) Decode(data []byte) (*Buffer, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "aiff pcm")
	}
	return intBufferToBuffer(buf, int(dec.BitDepth), false)
}

func intBufferToBuffer(buf *goaudio.IntBuffer, bitDepth int, unsigned bool) (*Buffer, error) {
	if buf == nil || buf.Format == nil {
		return nil, ErrInvalidLayout
	}
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	var maxVal float32
	switch bitDepth {
	case 8:
		maxVal = 128.0
	case 16:
		maxVal = 32768.0
	case 24:
		maxVal = 8388608.0
	case 32:
		maxVal = 2147483648.0
	default:
		return nil, errors.Errorf("unsupported bit depth %d", bitDepth)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		if unsigned {
			v -= 128
		}
		samples[i] = float32(v) / maxVal
	}
	return &Buffer{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    samples,
	}, nil
}
