package params

import (
	"sort"
	"sync"

	"github.com/guidoenr/spectraviz/internal/store"
)

// Values maps parameter names to current values.
type Values map[string]float64

// Get returns the named value or fallback when absent.
func (v Values) Get(name string, fallback float64) float64 {
	if x, ok := v[name]; ok {
		return x
	}
	return fallback
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		out[k] = x
	}
	return out
}

// Change describes one store mutation. Name is empty for whole-bucket
// changes (activation, reset).
type Change struct {
	Visualizer string
	Name       string
	Value      float64
	Active     string
}

// Store holds the current parameter values of every visualizer. Buckets are
// created from schema defaults on first use and never reset implicitly.
type Store struct {
	mu      sync.RWMutex
	schemas map[string]Schema
	values  map[string]Values
	active  string
	changes store.Topic[Change]
}

// NewStore seeds the bucket of the initially active visualizer.
func NewStore(schemas map[string]Schema, active string) *Store {
	if schemas == nil {
		schemas = map[string]Schema{}
	}
	s := &Store{
		schemas: schemas,
		values:  make(map[string]Values),
		active:  active,
	}
	if active != "" {
		s.ensureLocked(active)
	}
	return s
}

// Schema returns the descriptors for id. Ids without a schema have no
// adjustable parameters.
func (s *Store) Schema(id string) Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemas[id]
}

// IDs lists every visualizer with a schema, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.schemas))
	for id := range s.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Params returns a copy of the current values of id, creating the bucket
// and backfilling keys the schema gained since it was created.
func (s *Store) Params(id string) Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(id).Clone()
}

// SetParam overwrites one value. No range check is applied.
func (s *Store) SetParam(id, name string, value float64) {
	s.mu.Lock()
	bucket := s.ensureLocked(id)
	bucket[name] = value
	active := s.active
	s.mu.Unlock()
	s.changes.Publish(Change{Visualizer: id, Name: name, Value: value, Active: active})
}

// Activate selects id and makes sure its bucket exists.
func (s *Store) Activate(id string) {
	s.mu.Lock()
	s.active = id
	s.ensureLocked(id)
	s.mu.Unlock()
	s.changes.Publish(Change{Visualizer: id, Active: id})
}

// Active returns the selected visualizer id.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Reset restores the schema defaults of id.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	s.values[id] = s.schemas[id].Defaults()
	active := s.active
	s.mu.Unlock()
	s.changes.Publish(Change{Visualizer: id, Active: active})
}

// Subscribe is called after every mutation.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

func (s *Store) ensureLocked(id string) Values {
	bucket, ok := s.values[id]
	if !ok {
		bucket = s.schemas[id].Defaults()
		s.values[id] = bucket
		return bucket
	}
	for _, d := range s.schemas[id] {
		if _, ok := bucket[d.Name]; !ok {
			bucket[d.Name] = d.DefaultValue
		}
	}
	return bucket
}
