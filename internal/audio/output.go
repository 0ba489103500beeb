package audio

import (
	"sort"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Output is a sink that pulls interleaved float32 frames from a render
// callback. The callback runs on the output's own goroutine.
type Output interface {
	SampleRate() float64
	Channels() int
	Start(render func(out []float32)) error
	Close() error
}

// OutputConfig controls how a DeviceOutput is opened.
type OutputConfig struct {
	DeviceName      string
	Channels        int
	FramesPerBuffer int
}

const defaultFramesPerBuffer = 512

// DeviceOutput plays through a PortAudio output stream.
type DeviceOutput struct {
	cfg        OutputConfig
	device     *portaudio.DeviceInfo
	sampleRate float64

	mu     sync.Mutex
	stream *portaudio.Stream
}

// OpenDeviceOutput selects an output device. The stream is opened by Start.
func OpenDeviceOutput(cfg OutputConfig) (*DeviceOutput, error) {
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = defaultFramesPerBuffer
	}
	device, err := findOutputDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}
	if device.MaxOutputChannels < cfg.Channels {
		cfg.Channels = device.MaxOutputChannels
	}
	return &DeviceOutput{
		cfg:        cfg,
		device:     device,
		sampleRate: device.DefaultSampleRate,
	}, nil
}

func (o *DeviceOutput) SampleRate() float64 { return o.sampleRate }

func (o *DeviceOutput) Channels() int { return o.cfg.Channels }

// DeviceName returns the name of the selected device.
func (o *DeviceOutput) DeviceName() string {
	if o.device == nil {
		return ""
	}
	return o.device.Name
}

// Start opens and starts the stream. render fills each output buffer.
func (o *DeviceOutput) Start(render func(out []float32)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream != nil {
		return errors.New("output already started")
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   o.device,
			Channels: o.cfg.Channels,
			Latency:  o.device.DefaultLowOutputLatency,
		},
		SampleRate:      o.sampleRate,
		FramesPerBuffer: o.cfg.FramesPerBuffer,
	}, render)
	if err != nil {
		return errors.Wrapf(err, "open output stream on %q", o.device.Name)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return errors.Wrap(err, "start output stream")
	}
	o.stream = stream
	return nil
}

// Close stops and closes the stream.
func (o *DeviceOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stream == nil {
		return nil
	}
	stream := o.stream
	o.stream = nil
	if err := stream.Stop(); err != nil && !isInvalidStreamState(err) {
		_ = stream.Close()
		return errors.Wrap(err, "stop output stream")
	}
	return stream.Close()
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findOutputDeviceByName(name)
	}

	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil && dev.MaxOutputChannels > 0 {
		return dev, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "list audio devices")
	}
	if candidate := pickBestOutput(devices); candidate != nil {
		return candidate, nil
	}
	return nil, ErrNoOutputDevice
}

func findOutputDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "list audio devices")
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxOutputChannels == 0 {
			continue
		}
		if strings.Contains(strings.ToLower(device.Name), name) {
			return device, nil
		}
	}
	return nil, errors.Errorf("audio output device %q not found", name)
}

// pickBestOutput prefers the host default, then stereo-capable devices.
func pickBestOutput(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	defaultHostIndex := -1
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil && host.DefaultOutputDevice != nil {
		defaultHostIndex = host.DefaultOutputDevice.Index
	}
	return bestOutput(devices, defaultHostIndex)
}

func bestOutput(devices []*portaudio.DeviceInfo, defaultIndex int) *portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}

	var results []scored
	for _, d := range devices {
		if d == nil || d.MaxOutputChannels <= 0 {
			continue
		}
		score := 0
		if d.MaxOutputChannels >= 2 {
			score += 10
		}
		if d.Index == defaultIndex {
			score += 50
		}
		lower := strings.ToLower(d.Name)
		if strings.Contains(lower, "default") || strings.Contains(lower, "speaker") {
			score += 10
		}
		if strings.Contains(lower, "hdmi") || strings.Contains(lower, "monitor") {
			score -= 5
		}
		results = append(results, scored{dev: d, score: score})
	}
	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})
	return results[0].dev
}

// isInvalidStreamState reports an error from stopping an already stopped stream.
func isInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}
