package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
)

type inputEvent int

const (
	inputEventTogglePlay inputEvent = iota
	inputEventStop
	inputEventSeekBack
	inputEventSeekForward
	inputEventNextVisualizer
	inputEventPrevVisualizer
	inputEventNextPalette
	inputEventNextSong
	inputEventPrevSong
	inputEventReset
	inputEventTogglePanel
	inputEventPrevParam
	inputEventNextParam
	inputEventParamDown
	inputEventParamUp
	inputEventQuit
)

// seekStep is how far the arrow keys move the playhead, in seconds.
const seekStep = 5.0

// keyEvent maps one key press to an event.
func keyEvent(char rune, key keyboard.Key) (inputEvent, bool) {
	switch key {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return inputEventQuit, true
	case keyboard.KeySpace:
		return inputEventTogglePlay, true
	case keyboard.KeyArrowLeft:
		return inputEventSeekBack, true
	case keyboard.KeyArrowRight:
		return inputEventSeekForward, true
	case keyboard.KeyTab:
		return inputEventTogglePanel, true
	}
	switch char {
	case 'q', 'Q':
		return inputEventQuit, true
	case ' ':
		return inputEventTogglePlay, true
	case 's', 'S':
		return inputEventStop, true
	case 'n', 'N':
		return inputEventNextVisualizer, true
	case 'p', 'P':
		return inputEventPrevVisualizer, true
	case 'c', 'C':
		return inputEventNextPalette, true
	case ']':
		return inputEventNextSong, true
	case '[':
		return inputEventPrevSong, true
	case 'r', 'R':
		return inputEventReset, true
	case ',':
		return inputEventPrevParam, true
	case '.':
		return inputEventNextParam, true
	case '-', '_':
		return inputEventParamDown, true
	case '+', '=':
		return inputEventParamUp, true
	}
	return 0, false
}

// startInputListener reads keys until ctx is done. The first key press of
// any kind calls unlock.
func (a *App) startInputListener(ctx context.Context, unlock func()) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		a.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	a.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		unlocked := false
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			if !unlocked {
				unlock()
				unlocked = true
			}
			evt, ok := keyEvent(char, key)
			if !ok {
				continue
			}
			if evt == inputEventQuit {
				events <- evt
				return
			}
			select {
			case events <- evt:
			default:
			}
		}
	}()
}
