package audio

import (
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

// Initialize brings PortAudio up once per process. Later calls return the
// first result.
func Initialize() error {
	initOnce.Do(func() {
		if err := portaudio.Initialize(); err != nil {
			initErr = errors.Wrap(err, "initialize portaudio")
		}
	})
	return initErr
}

// Terminate balances a successful Initialize.
func Terminate() {
	if initErr != nil {
		return
	}
	termOnce.Do(func() {
		_ = portaudio.Terminate()
	})
}
