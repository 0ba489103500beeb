package audio

import "github.com/guidoenr/spectraviz/internal/store"

// Media events an Element emits.
const (
	EventPlay           = "play"
	EventPause          = "pause"
	EventEnded          = "ended"
	EventLoadedMetadata = "loadedmetadata"
)

// Element is the playable handle of the engine. External code attaches
// lifecycle listeners to it; the engine does not own UI state.
type Element struct {
	engine *Engine
	events store.Topic[string]
}

// On registers fn for one event name and returns a func that removes it.
func (el *Element) On(event string, fn func()) (off func()) {
	return el.events.Subscribe(func(got string) {
		if got == event {
			fn()
		}
	})
}

func (el *Element) Paused() bool             { return !el.engine.Playing() }
func (el *Element) CurrentTime() float64     { return el.engine.CurrentTime() }
func (el *Element) Duration() float64        { return el.engine.Duration() }
func (el *Element) SetCurrentTime(t float64) { el.engine.SetCurrentTime(t) }

func (el *Element) emit(event string) {
	el.events.Publish(event)
}
