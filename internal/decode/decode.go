// Package decode turns encoded audio files into interleaved float32 PCM.
package decode

import (
	"bytes"
	"sort"
	"strings"
	"sync"
)

// Buffer is fully decoded audio. Samples are interleaved and lie in [-1,1].
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Seconds returns the playback length.
func (b *Buffer) Seconds() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono averages the channels of every frame.
func (b *Buffer) Mono() []float32 {
	frames := b.Frames()
	out := make([]float32, frames)
	if b.Channels == 1 {
		copy(out, b.Samples)
		return out
	}
	inv := 1 / float32(b.Channels)
	for i := range out {
		sum := float32(0)
		base := i * b.Channels
		for ch := 0; ch < b.Channels; ch++ {
			sum += b.Samples[base+ch]
		}
		out[i] = sum * inv
	}
	return out
}

// Resample converts the buffer to rate with linear interpolation. The
// receiver is returned as is when the rate already matches.
func (b *Buffer) Resample(rate int) *Buffer {
	if rate <= 0 || b.SampleRate == rate || b.Frames() == 0 {
		return b
	}
	ratio := float64(b.SampleRate) / float64(rate)
	inFrames := b.Frames()
	outFrames := int(float64(inFrames) / ratio)
	if outFrames < 1 {
		outFrames = 1
	}
	ch := b.Channels
	out := make([]float32, outFrames*ch)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		i0 := int(pos)
		if i0 >= inFrames {
			i0 = inFrames - 1
		}
		i1 := i0 + 1
		if i1 >= inFrames {
			i1 = inFrames - 1
		}
		frac := float32(pos - float64(i0))
		for c := 0; c < ch; c++ {
			s0 := b.Samples[i0*ch+c]
			s1 := b.Samples[i1*ch+c]
			out[i*ch+c] = s0 + (s1-s0)*frac
		}
	}
	return &Buffer{SampleRate: rate, Channels: ch, Samples: out}
}

// Decoder decodes one container/codec pair.
type Decoder interface {
	Decode(data []byte) (*Buffer, error)
}

// Sniffer reports whether data starts like a given format.
type Sniffer func(data []byte) bool

type format struct {
	name  string
	dec   Decoder
	sniff Sniffer
	exts  []string
}

// Registry resolves decoders by format name or by sniffing magic bytes.
// Sniffers run in registration order.
type Registry struct {
	mu      sync.RWMutex
	formats []format
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with WAV, AIFF, Ogg Vorbis and MP3 support.
func Default() *Registry {
	r := NewRegistry()
	r.Register("wav", WAV{}, sniffWAV, ".wav", ".wave")
	r.Register("aiff", AIFF{}, sniffAIFF, ".aiff", ".aif", ".aifc")
	r.Register("ogg", Vorbis{}, sniffOgg, ".ogg", ".oga")
	r.Register("mp3", MP3{}, sniffMP3, ".mp3")
	return r
}

// Register adds or replaces the decoder for name.
func (r *Registry) Register(name string, dec Decoder, sniff Sniffer, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lower := make([]string, len(exts))
	for i, e := range exts {
		lower[i] = strings.ToLower(e)
	}
	for i := range r.formats {
		if r.formats[i].name == name {
			r.formats[i] = format{name: name, dec: dec, sniff: sniff, exts: lower}
			return
		}
	}
	r.formats = append(r.formats, format{name: name, dec: dec, sniff: sniff, exts: lower})
}

// Get returns the decoder registered under name.
func (r *Registry) Get(name string) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f.name == name {
			return f.dec, true
		}
	}
	return nil, false
}

// Detect returns the first format whose sniffer accepts data.
func (r *Registry) Detect(data []byte) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f.sniff != nil && f.sniff(data) {
			return f.name, true
		}
	}
	return "", false
}

// Extensions lists the file extensions of all registered formats, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, f := range r.formats {
		out = append(out, f.exts...)
	}
	sort.Strings(out)
	return out
}

// Supports reports whether a file name has a registered extension.
func (r *Registry) Supports(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range r.Extensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Decode sniffs data and decodes it. Every failure is a *DecodeError.
func (r *Registry) Decode(data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: ErrEmptyInput}
	}
	name, ok := r.Detect(data)
	if !ok {
		return nil, &DecodeError{Err: ErrUnsupportedFormat}
	}
	dec, _ := r.Get(name)
	buf, err := dec.Decode(data)
	if err != nil {
		return nil, &DecodeError{Format: name, Err: err}
	}
	if buf == nil || buf.SampleRate <= 0 || buf.Channels <= 0 {
		return nil, &DecodeError{Format: name, Err: ErrInvalidLayout}
	}
	if buf.Frames() == 0 {
		return nil, &DecodeError{Format: name, Err: ErrNoFrames}
	}
	return buf, nil
}

func sniffWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

func sniffAIFF(data []byte) bool {
	if len(data) < 12 || !bytes.Equal(data[:4], []byte("FORM")) {
		return false
	}
	kind := string(data[8:12])
	return kind == "AIFF" || kind == "AIFC"
}

func sniffOgg(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("OggS"))
}

func sniffMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")) {
		return true
	}
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}
