package audio

import "github.com/guidoenr/spectraviz/internal/decode"

// source is one decoded buffer connected to the graph.
type source struct {
	id        uint64
	buf       *decode.Buffer
	pos       int
	playing   bool
	connected bool
}

func newSource(id uint64, buf *decode.Buffer) *source {
	return &source{id: id, buf: buf, connected: true}
}

func (s *source) frames() int { return s.buf.Frames() }

func (s *source) duration() float64 { return s.buf.Seconds() }

func (s *source) currentTime() float64 {
	return float64(s.pos) / float64(s.buf.SampleRate)
}

func (s *source) seek(seconds float64) {
	d := s.duration()
	if !(seconds > 0) {
		seconds = 0
	}
	if seconds > d {
		seconds = d
	}
	s.pos = int(seconds * float64(s.buf.SampleRate))
	if s.pos > s.frames() {
		s.pos = s.frames()
	}
}

func (s *source) atEnd() bool { return s.pos >= s.frames() }

func (s *source) disconnect() {
	s.playing = false
	s.connected = false
}

// mix writes up to len(mono) frames into the interleaved out buffer and the
// mono downmix into mono. It returns the number of frames taken from the
// source and advances the playhead.
func (s *source) mix(out []float32, outCh int, mono []float32) int {
	srcCh := s.buf.Channels
	samples := s.buf.Samples
	n := len(mono)
	if remaining := s.frames() - s.pos; n > remaining {
		n = remaining
	}
	inv := 1 / float32(srcCh)
	for f := 0; f < n; f++ {
		base := (s.pos + f) * srcCh
		sum := float32(0)
		for c := 0; c < srcCh; c++ {
			sum += samples[base+c]
		}
		mono[f] = sum * inv
		for c := 0; c < outCh; c++ {
			switch {
			case srcCh == outCh:
				out[f*outCh+c] = samples[base+c]
			case outCh == 1:
				out[f] = mono[f]
			default:
				out[f*outCh+c] = samples[base+c%srcCh]
			}
		}
	}
	s.pos += n
	return n
}
