package audio

import (
	"fmt"
	"sort"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// Device describes a PortAudio device.
type Device struct {
	Name            string
	MaxOutput       int
	DefaultSampleHz float64
	HostAPI         string
	IsDefaultOutput bool
}

func (d Device) String() string {
	mark := " "
	if d.IsDefaultOutput {
		mark = "*"
	}
	return fmt.Sprintf("%s %-14s %-40s out=%d %.0f Hz", mark, d.HostAPI, d.Name, d.MaxOutput, d.DefaultSampleHz)
}

// ListOutputDevices returns every device that can play audio, sorted by host
// API and name.
func ListOutputDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, errors.Wrap(err, "host apis")
	}

	defaultOutputIndex := -1
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultOutputIndex = def.Index
	}

	devices := make([]Device, 0, len(hosts)*4)
	for _, host := range hosts {
		for _, d := range host.Devices {
			if d.MaxOutputChannels <= 0 {
				continue
			}
			devices = append(devices, Device{
				Name:            d.Name,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				HostAPI:         host.Name,
				IsDefaultOutput: d.Index == defaultOutputIndex,
			})
		}
	}
	sortDevices(devices)
	return devices, nil
}

func sortDevices(devices []Device) {
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
}
