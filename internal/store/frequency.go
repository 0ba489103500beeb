package store

import (
	"math"
	"sync/atomic"

	"github.com/guidoenr/spectraviz/internal/analyzer"
)

// FrequencyStore publishes the latest spectral snapshot. Update swaps the
// whole value, so readers never see a half-written frame.
type FrequencyStore struct {
	binCount int
	zero     *analyzer.Snapshot
	current  atomic.Pointer[analyzer.Snapshot]
	updates  Topic[analyzer.Snapshot]
}

// NewFrequencyStore returns a store whose snapshots always carry binCount bins.
func NewFrequencyStore(binCount int) *FrequencyStore {
	zero := analyzer.ZeroSnapshot(binCount)
	s := &FrequencyStore{binCount: len(zero.Bins), zero: &zero}
	s.current.Store(s.zero)
	return s
}

// BinCount is the fixed bin length.
func (s *FrequencyStore) BinCount() int { return s.binCount }

// Update replaces the snapshot. Bins are copied so the producer may reuse its
// buffer; nil or wrong-length bins fall back to the zero default.
func (s *FrequencyStore) Update(snap analyzer.Snapshot) {
	next := analyzer.Snapshot{
		Low:  sanitize(snap.Low),
		Mid:  sanitize(snap.Mid),
		High: sanitize(snap.High),
	}
	if len(snap.Bins) == s.binCount && snap.Bins != nil {
		next.Bins = make([]uint8, s.binCount)
		copy(next.Bins, snap.Bins)
	} else {
		next.Bins = s.zero.Bins
	}
	s.current.Store(&next)
	s.updates.Publish(next)
}

// Snapshot returns the last published value, or the zero default before the
// first Update. Bins must be treated as read-only.
func (s *FrequencyStore) Snapshot() analyzer.Snapshot {
	return *s.current.Load()
}

// Reset publishes the zero default.
func (s *FrequencyStore) Reset() {
	s.current.Store(s.zero)
	s.updates.Publish(*s.zero)
}

// Subscribe is called after every Update.
func (s *FrequencyStore) Subscribe(fn func(analyzer.Snapshot)) (unsubscribe func()) {
	return s.updates.Subscribe(fn)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
