package store

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Status is the transport state shown to the user.
type Status int

const (
	Stopped Status = iota
	Loading
	Playing
	Paused
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// PlaybackState is an immutable copy of the transport state.
type PlaybackState struct {
	Status        Status
	IsPlaying     bool
	SongLabel     string
	HasSong       bool
	CurrentTime   float64
	Duration      float64
	PanelExpanded bool
}

// MediaElement is the engine seam the store listens to.
type MediaElement interface {
	On(event string, fn func()) (off func())
	CurrentTime() float64
	Duration() float64
}

// Media event names understood by Bind.
const (
	mediaPlay           = "play"
	mediaPause          = "pause"
	mediaEnded          = "ended"
	mediaLoadedMetadata = "loadedmetadata"
)

// DefaultResizeDelay lets the panel transition finish before renderers
// measure their surface again.
const DefaultResizeDelay = 100 * time.Millisecond

// PlaybackStore mirrors engine transport state plus UI-only flags.
type PlaybackStore struct {
	mu          sync.Mutex
	state       PlaybackState
	beforeLoad  PlaybackState
	resizeDelay time.Duration
	resizeTimer *time.Timer

	changes Topic[PlaybackState]
	resize  Topic[bool]
}

// NewPlaybackStore returns a stopped store. A negative resizeDelay uses
// DefaultResizeDelay; zero signals resizes synchronously.
func NewPlaybackStore(resizeDelay time.Duration) *PlaybackStore {
	if resizeDelay < 0 {
		resizeDelay = DefaultResizeDelay
	}
	return &PlaybackStore{resizeDelay: resizeDelay}
}

// State returns a copy of the current state.
func (s *PlaybackStore) State() PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe is called with the new state after every change.
func (s *PlaybackStore) Subscribe(fn func(PlaybackState)) (unsubscribe func()) {
	return s.changes.Subscribe(fn)
}

// OnResize is called with the panel flag once the resize delay has passed.
func (s *PlaybackStore) OnResize(fn func(expanded bool)) (unsubscribe func()) {
	return s.resize.Subscribe(fn)
}

func (s *PlaybackStore) update(fn func(st *PlaybackState)) {
	s.mu.Lock()
	prev := s.state
	fn(&s.state)
	s.state.IsPlaying = s.state.Status == Playing
	next := s.state
	s.mu.Unlock()
	if next != prev {
		s.changes.Publish(next)
	}
}

// BeginLoad records the label of a song about to be decoded. A load started
// while another is in flight keeps the state from before the first one.
func (s *PlaybackStore) BeginLoad(label string) {
	s.mu.Lock()
	if s.state.Status != Loading {
		s.beforeLoad = s.state
	}
	s.mu.Unlock()
	s.update(func(st *PlaybackState) {
		st.Status = Loading
		st.SongLabel = label
		st.HasSong = true
	})
}

// LoadFailed restores the state from before BeginLoad.
func (s *PlaybackStore) LoadFailed() {
	s.mu.Lock()
	prior := s.beforeLoad
	s.mu.Unlock()
	s.update(func(st *PlaybackState) {
		panel := st.PanelExpanded
		*st = prior
		st.PanelExpanded = panel
	})
}

// Play marks the transport as playing.
func (s *PlaybackStore) Play() {
	s.update(func(st *PlaybackState) {
		st.Status = Playing
	})
}

// Pause marks the transport as paused. A stopped transport stays stopped.
func (s *PlaybackStore) Pause() {
	s.update(func(st *PlaybackState) {
		if st.Status == Playing || st.Status == Loading {
			st.Status = Paused
		}
	})
}

// Stop halts and rewinds.
func (s *PlaybackStore) Stop() {
	s.update(func(st *PlaybackState) {
		st.Status = Stopped
		st.CurrentTime = 0
	})
}

// Ended is the end-of-track transition: not playing, position 0.
func (s *PlaybackStore) Ended() {
	s.Stop()
}

// SetDuration records the track length from loaded metadata.
func (s *PlaybackStore) SetDuration(d float64) {
	s.update(func(st *PlaybackState) {
		st.Duration = nonNegative(d)
	})
}

// SyncPosition copies the engine playhead and duration.
func (s *PlaybackStore) SyncPosition(current, duration float64) {
	s.update(func(st *PlaybackState) {
		st.Duration = nonNegative(duration)
		st.CurrentTime = nonNegative(current)
		if st.Duration > 0 && st.CurrentTime > st.Duration {
			st.CurrentTime = st.Duration
		}
	})
}

// SetPanelExpanded toggles the panel and schedules a resize signal.
func (s *PlaybackStore) SetPanelExpanded(expanded bool) {
	s.mu.Lock()
	changed := s.state.PanelExpanded != expanded
	s.mu.Unlock()
	if !changed {
		return
	}
	s.update(func(st *PlaybackState) { st.PanelExpanded = expanded })
	s.scheduleResize(expanded)
}

// TogglePanel flips the panel flag.
func (s *PlaybackStore) TogglePanel() {
	s.SetPanelExpanded(!s.State().PanelExpanded)
}

func (s *PlaybackStore) scheduleResize(expanded bool) {
	if s.resizeDelay == 0 {
		s.resize.Publish(expanded)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
	}
	s.resizeTimer = time.AfterFunc(s.resizeDelay, func() {
		s.resize.Publish(expanded)
	})
}

// Close cancels a pending resize signal.
func (s *PlaybackStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resizeTimer != nil {
		s.resizeTimer.Stop()
		s.resizeTimer = nil
	}
}

// Bind mirrors the element's media events into the store and returns a func
// that detaches every listener.
func (s *PlaybackStore) Bind(el MediaElement) (unbind func()) {
	offs := []func(){
		el.On(mediaPlay, s.Play),
		el.On(mediaPause, s.Pause),
		el.On(mediaEnded, s.Ended),
		el.On(mediaLoadedMetadata, func() { s.SetDuration(el.Duration()) }),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
