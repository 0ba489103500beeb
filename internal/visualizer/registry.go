// Package visualizer is the catalog of renderers: which ids exist, what they
// are called and how to load them.
package visualizer

import (
	"context"
	"fmt"
	"sync"

	"github.com/guidoenr/spectraviz/internal/analyzer"
	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/render"
)

// Frame is everything a renderer reads for one tick.
type Frame struct {
	Snapshot analyzer.Snapshot
	Params   params.Values
	Palette  palette.Palette
	// Time is seconds since the renderer was mounted; Delta the last tick.
	Time  float64
	Delta float64
}

// Renderer draws one frame onto the canvas.
type Renderer interface {
	Render(c *render.Canvas, f Frame)
}

// RendererFunc adapts a plain function to Renderer.
type RendererFunc func(c *render.Canvas, f Frame)

func (fn RendererFunc) Render(c *render.Canvas, f Frame) { fn(c, f) }

// Loader builds a renderer on demand.
type Loader func(ctx context.Context) (Renderer, error)

// Entry is one registered visualizer.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	load Loader
}

// Registry maps ids to entries, keeping registration order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Entry
	loads   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
		loads:   make(map[string]int),
	}
}

// Register adds id. Registering an existing id replaces its name and loader
// in place.
func (r *Registry) Register(id, name string, load Loader) error {
	if id == "" {
		return fmt.Errorf("register visualizer: empty id")
	}
	if load == nil {
		return fmt.Errorf("register visualizer %q: nil loader", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = Entry{ID: id, Name: name, load: load}
	return nil
}

// Entries lists every entry in registration order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// IDs lists ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the entry for id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Resolve runs the loader for id. An unknown id yields (nil, nil): the host
// renders nothing.
func (r *Registry) Resolve(ctx context.Context, id string) (Renderer, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		r.loads[id]++
	}
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rend, err := e.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load visualizer %q: %w", id, err)
	}
	return rend, nil
}

// Loads counts loader calls for id.
func (r *Registry) Loads(id string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loads[id]
}

// Next returns the id step places away from id in registration order,
// wrapping around. Unknown ids start from the first entry.
func (r *Registry) Next(id string, step int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.order)
	if n == 0 {
		return ""
	}
	cur := -1
	for i, v := range r.order {
		if v == id {
			cur = i
			break
		}
	}
	if cur < 0 {
		return r.order[0]
	}
	return r.order[((cur+step)%n+n)%n]
}
