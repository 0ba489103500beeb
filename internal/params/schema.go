// Package params describes the adjustable knobs of each visualizer and keeps
// their current values.
package params

import (
	"fmt"
	"math"
)

// Category groups descriptors in the control surface.
type Category string

const (
	Audio  Category = "audio"
	Visual Category = "visual"
	Motion Category = "motion"
	Color  Category = "color"
)

// Descriptor is one numeric parameter.
type Descriptor struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	Min          float64  `json:"min"`
	Max          float64  `json:"max"`
	Step         float64  `json:"step"`
	DefaultValue float64  `json:"defaultValue"`
	Category     Category `json:"category"`
}

// Validate checks min <= default <= max and step > 0.
func (d Descriptor) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("descriptor: empty name")
	case !(d.Step > 0):
		return fmt.Errorf("descriptor %q: step %v must be positive", d.Name, d.Step)
	case !(d.Min <= d.DefaultValue && d.DefaultValue <= d.Max):
		return fmt.Errorf("descriptor %q: default %v outside [%v, %v]", d.Name, d.DefaultValue, d.Min, d.Max)
	}
	return nil
}

// Clamp snaps v onto the descriptor's range and step grid. The store never
// calls it; controls that nudge values do.
func (d Descriptor) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return d.DefaultValue
	}
	if v < d.Min {
		v = d.Min
	}
	if v > d.Max {
		v = d.Max
	}
	if d.Step > 0 {
		steps := math.Round((v - d.Min) / d.Step)
		v = d.Min + steps*d.Step
		if v > d.Max {
			v = d.Max
		}
		// trim float noise from the step multiplication
		v = math.Round(v*1e9) / 1e9
	}
	return v
}

// Schema is the ordered descriptor list of one visualizer.
type Schema []Descriptor

// Defaults maps every parameter to its default value.
func (s Schema) Defaults() Values {
	out := make(Values, len(s))
	for _, d := range s {
		out[d.Name] = d.DefaultValue
	}
	return out
}

// Lookup finds a descriptor by name.
func (s Schema) Lookup(name string) (Descriptor, bool) {
	for _, d := range s {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// Validate checks every descriptor and name uniqueness.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, d := range s {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("descriptor %q: duplicate name", d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func sensitivity() Descriptor {
	return Descriptor{Name: "sensitivity", Label: "Audio Sensitivity", Min: 0.1, Max: 3.0, Step: 0.1, DefaultValue: 1.0, Category: Audio}
}

func rotationSpeed(def float64) Descriptor {
	return Descriptor{Name: "rotationSpeed", Label: "Rotation Speed", Min: 0, Max: 2, Step: 0.1, DefaultValue: def, Category: Motion}
}

func particleSize(label string) Descriptor {
	return Descriptor{Name: "particleSize", Label: label, Min: 0.5, Max: 3.0, Step: 0.1, DefaultValue: 1.0, Category: Visual}
}

func bloomIntensity() Descriptor {
	return Descriptor{Name: "bloomIntensity", Label: "Bloom Intensity", Min: 0, Max: 2, Step: 0.1, DefaultValue: 1.0, Category: Visual}
}

// Builtin returns the schemas of the bundled visualizers keyed by id.
func Builtin() map[string]Schema {
	return map[string]Schema{
		"kaleidoscope": {
			{Name: "segments", Label: "Segments", Min: 4, Max: 12, Step: 1, DefaultValue: 6, Category: Visual},
			{Name: "rayCount", Label: "Ray Count", Min: 20, Max: 80, Step: 10, DefaultValue: 40, Category: Visual},
			{Name: "rayLength", Label: "Ray Length", Min: 0.3, Max: 1.0, Step: 0.05, DefaultValue: 0.7, Category: Visual},
			rotationSpeed(1.0),
			sensitivity(),
		},
		"bars2d": {
			{Name: "barCount", Label: "Bar Count", Min: 32, Max: 256, Step: 16, DefaultValue: 64, Category: Visual},
			sensitivity(),
			{Name: "barSpacing", Label: "Bar Spacing", Min: 0, Max: 1, Step: 0.05, DefaultValue: 0.2, Category: Visual},
			{Name: "smoothing", Label: "Smoothing", Min: 0, Max: 1, Step: 0.05, DefaultValue: 0.5, Category: Visual},
		},
		"particlecircle": {
			{Name: "particleCount", Label: "Particle Count", Min: 50, Max: 300, Step: 10, DefaultValue: 150, Category: Visual},
			sensitivity(),
			particleSize("Particle Size"),
			rotationSpeed(1.0),
		},
		"spiralwaves": {
			{Name: "spiralCount", Label: "Spiral Arms", Min: 2, Max: 12, Step: 1, DefaultValue: 6, Category: Visual},
			sensitivity(),
			rotationSpeed(1.0),
			{Name: "waveAmplitude", Label: "Wave Amplitude", Min: 0.3, Max: 2.0, Step: 0.1, DefaultValue: 1.0, Category: Visual},
		},
		"circularwaveform": {
			{Name: "radius", Label: "Circle Radius", Min: 50, Max: 300, Step: 10, DefaultValue: 150, Category: Visual},
			sensitivity(),
			{Name: "lineThickness", Label: "Line Thickness", Min: 1, Max: 10, Step: 0.5, DefaultValue: 2, Category: Visual},
			rotationSpeed(0.5),
		},
		"symmetrymirror": {
			{Name: "mirrorSegments", Label: "Mirror Segments", Min: 2, Max: 8, Step: 1, DefaultValue: 4, Category: Visual},
			sensitivity(),
			particleSize("Particle Size"),
			bloomIntensity(),
		},
		"geometricmandala": {
			{Name: "petalCount", Label: "Petal Count", Min: 6, Max: 24, Step: 1, DefaultValue: 12, Category: Visual},
			{Name: "layers", Label: "Layer Count", Min: 2, Max: 8, Step: 1, DefaultValue: 4, Category: Visual},
			sensitivity(),
			rotationSpeed(1.0),
		},
		"starfield": {
			sensitivity(),
			particleSize("Star Size"),
			rotationSpeed(1.0),
			bloomIntensity(),
		},
		"nebulacloud": {
			{Name: "particleCount", Label: "Particle Count", Min: 400, Max: 1200, Step: 100, DefaultValue: 800, Category: Visual},
			sensitivity(),
			particleSize("Particle Size"),
			bloomIntensity(),
			{Name: "swirlSpeed", Label: "Swirl Speed", Min: 0, Max: 2, Step: 0.1, DefaultValue: 1.0, Category: Motion},
		},
		"energyparticles": {
			{Name: "emitterCount", Label: "Emitter Count", Min: 3, Max: 12, Step: 1, DefaultValue: 6, Category: Visual},
			sensitivity(),
			particleSize("Particle Size"),
			{Name: "gravityStrength", Label: "Gravity Strength", Min: 0, Max: 2, Step: 0.1, DefaultValue: 1.0, Category: Motion},
		},
	}
}
