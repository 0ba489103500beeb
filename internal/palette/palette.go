package palette

import (
	"fmt"
	"math"
	"sync"

	"github.com/guidoenr/spectraviz/internal/store"
)

// DefaultName is the palette selected at startup.
const DefaultName = "neon"

var white = RGB{R: 255, G: 255, B: 255}

// Palette is a named, ordered list of color stops.
type Palette struct {
	Name   string
	Colors []RGB
}

// At samples the stops as a piecewise-linear gradient, t in [0,1].
func (p Palette) At(t float64) RGB {
	switch len(p.Colors) {
	case 0:
		return white
	case 1:
		return p.Colors[0]
	}
	t = clamp01(t)
	pos := t * float64(len(p.Colors)-1)
	i := int(math.Floor(pos))
	if i >= len(p.Colors)-1 {
		return p.Colors[len(p.Colors)-1]
	}
	return Lerp(p.Colors[i], p.Colors[i+1], pos-float64(i))
}

// Color returns stop i, wrapping around the palette.
func (p Palette) Color(i int) RGB {
	if len(p.Colors) == 0 {
		return white
	}
	i %= len(p.Colors)
	if i < 0 {
		i += len(p.Colors)
	}
	return p.Colors[i]
}

// Hex returns the stops formatted as hex strings.
func (p Palette) Hex() []string {
	out := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		out[i] = c.Hex()
	}
	return out
}

var builtin = []struct {
	name  string
	stops []string
}{
	{"neon", []string{"#00ffff", "#ff00ff", "#ffff00"}},
	{"synthwave", []string{"#ff00c1", "#9a00ff", "#00b8ff"}},
	{"cosmic", []string{"#ffffff", "#a0a0ff", "#ffa0a0"}},
	{"fire", []string{"#ff0000", "#ff8800", "#ffff00"}},
	{"ocean", []string{"#001f3f", "#0074d9", "#7fdbff"}},
	{"forest", []string{"#2ecc40", "#3d9970", "#01ff70"}},
	{"sunset", []string{"#ff4136", "#ff851b", "#ffdc00"}},
	{"purple", []string{"#b10dc9", "#f012be", "#d946ef"}},
}

// Builtin returns the stock palettes in display order.
func Builtin() []Palette {
	out := make([]Palette, 0, len(builtin))
	for _, b := range builtin {
		colors := make([]RGB, len(b.stops))
		for i, s := range b.stops {
			colors[i] = MustHex(s)
		}
		out = append(out, Palette{Name: b.name, Colors: colors})
	}
	return out
}

// Model holds the known palettes and the active selection.
type Model struct {
	mu       sync.RWMutex
	order    []string
	palettes map[string]Palette
	active   string
	changes  store.Topic[Palette]
}

// NewModel seeds a model with the builtin palettes and selects active.
// An empty or unknown active name falls back to DefaultName.
func NewModel(active string) *Model {
	m := &Model{palettes: make(map[string]Palette)}
	for _, p := range Builtin() {
		m.order = append(m.order, p.Name)
		m.palettes[p.Name] = p
	}
	m.active = DefaultName
	if _, ok := m.palettes[active]; ok {
		m.active = active
	}
	return m
}

// Register adds or replaces a palette. Palettes need two or more stops.
func (m *Model) Register(p Palette) error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownPalette)
	}
	if len(p.Colors) < 2 {
		return fmt.Errorf("%w: %q has %d", ErrTooFewColors, p.Name, len(p.Colors))
	}
	colors := make([]RGB, len(p.Colors))
	copy(colors, p.Colors)

	m.mu.Lock()
	if _, exists := m.palettes[p.Name]; !exists {
		m.order = append(m.order, p.Name)
	}
	m.palettes[p.Name] = Palette{Name: p.Name, Colors: colors}
	m.mu.Unlock()
	return nil
}

// Names lists palettes in registration order.
func (m *Model) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Lookup returns the palette called name.
func (m *Model) Lookup(name string) (Palette, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.palettes[name]
	return p, ok
}

// ActiveName returns the selected palette name.
func (m *Model) ActiveName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Active returns the selected palette.
func (m *Model) Active() Palette {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.palettes[m.active]
}

// SetActive selects a palette. Unknown names are rejected and the previous
// selection is kept.
func (m *Model) SetActive(name string) error {
	m.mu.Lock()
	p, ok := m.palettes[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	changed := m.active != name
	m.active = name
	m.mu.Unlock()

	if changed {
		m.changes.Publish(p)
	}
	return nil
}

// Next selects the palette after the active one, wrapping around.
func (m *Model) Next() Palette {
	m.mu.RLock()
	next := m.order[0]
	for i, name := range m.order {
		if name == m.active {
			next = m.order[(i+1)%len(m.order)]
			break
		}
	}
	m.mu.RUnlock()

	_ = m.SetActive(next)
	return m.Active()
}

// Subscribe registers fn for selection changes.
func (m *Model) Subscribe(fn func(Palette)) (unsubscribe func()) {
	return m.changes.Subscribe(fn)
}
