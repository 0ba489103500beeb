// Package decodetest builds small in-memory audio files for tests.
package decodetest

import (
	"encoding/binary"
	"math"
)

// WAV16 encodes interleaved 16-bit PCM as a canonical 44-byte-header WAV.
func WAV16(sampleRate, channels int, samples []int16) []byte {
	bitsPerSample := 16
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := len(samples) * 2

	out := make([]byte, 44+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[44+2*i:], uint16(s))
	}
	return out
}

// Silence returns a mono WAV of the given length.
func Silence(sampleRate int, seconds float64) []byte {
	return WAV16(sampleRate, 1, make([]int16, int(float64(sampleRate)*seconds)))
}

// Sine returns a mono WAV holding a sine at freq Hz and amplitude in [0,1].
func Sine(sampleRate int, seconds, freq, amplitude float64) []byte {
	samples := make([]int16, int(float64(sampleRate)*seconds))
	for i := range samples {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		samples[i] = int16(v * 32767)
	}
	return WAV16(sampleRate, 1, samples)
}
