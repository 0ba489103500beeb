package decode_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/spectraviz/internal/decode"
	"github.com/guidoenr/spectraviz/internal/decode/decodetest"
)

func TestDecodeWAV(t *testing.T) {
	data := decodetest.WAV16(8000, 2, []int16{0, 16384, -32768, 32767, 100, -100})
	buf, err := decode.Default().Decode(data)
	require.NoError(t, err)

	assert.Equal(t, 8000, buf.SampleRate)
	assert.Equal(t, 2, buf.Channels)
	assert.Equal(t, 3, buf.Frames())
	assert.InDelta(t, 0.5, buf.Samples[1], 1e-6)
	assert.InDelta(t, -1.0, buf.Samples[2], 1e-6)
}

func TestDecodeSilenceDuration(t *testing.T) {
	buf, err := decode.Default().Decode(decodetest.Silence(44100, 3))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, buf.Seconds(), 1e-9)
}

func TestDecodeFailuresAreDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		data []byte
		want error
	}{
		"empty":   {nil, decode.ErrEmptyInput},
		"garbage": {[]byte("definitely not audio"), decode.ErrUnsupportedFormat},
		"no data": {decodetest.WAV16(8000, 1, nil), decode.ErrNoFrames},
		"bad mp3": {[]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), nil},
	}
	reg := decode.Default()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Decode(tc.data)
			require.Error(t, err)
			var decErr *decode.DecodeError
			require.True(t, errors.As(err, &decErr), "got %T: %v", err, err)
			if tc.want != nil {
				assert.True(t, errors.Is(err, tc.want), "got %v", err)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	reg := decode.Default()
	cases := map[string]string{
		"RIFF\x00\x00\x00\x00WAVEfmt ": "wav",
		"FORM\x00\x00\x00\x00AIFC":     "aiff",
		"OggS\x00":                     "ogg",
		"ID3\x03":                      "mp3",
		"\xff\xfb\x90\x00":             "mp3",
	}
	for head, want := range cases {
		got, ok := reg.Detect([]byte(head))
		require.True(t, ok, "%q", head)
		assert.Equal(t, want, got)
	}
	_, ok := reg.Detect([]byte("fLaC"))
	assert.False(t, ok)
}

func TestSupports(t *testing.T) {
	reg := decode.Default()
	assert.True(t, reg.Supports("song.MP3"))
	assert.True(t, reg.Supports("loop.wav"))
	assert.False(t, reg.Supports("cover.png"))
}

func TestCustomDecoderReplacesBuiltin(t *testing.T) {
	reg := decode.Default()
	reg.Register("wav", stubDecoder{}, func(b []byte) bool { return len(b) > 0 && b[0] == 'R' }, ".wav")

	buf, err := reg.Decode([]byte("RIFF"))
	require.NoError(t, err)
	assert.Equal(t, 1, buf.Frames())
}

type stubDecoder struct{}

func (stubDecoder) Decode([]byte) (*decode.Buffer, error) {
	return &decode.Buffer{SampleRate: 1, Channels: 1, Samples: []float32{0.25}}, nil
}

func TestResampleAndMono(t *testing.T) {
	buf := &decode.Buffer{SampleRate: 2, Channels: 2, Samples: []float32{0, 1, 1, 1}}
	mono := buf.Mono()
	assert.Equal(t, []float32{0.5, 1}, mono)

	up := buf.Resample(4)
	assert.Equal(t, 4, up.SampleRate)
	assert.Equal(t, 4, up.Frames())
	assert.InDelta(t, 0.5, up.Samples[2], 1e-6)
	assert.Same(t, buf, buf.Resample(2))
}
