//go:build !sdl

package render

import "errors"

// SDL is unavailable without the sdl build tag.
type SDL struct{}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return false }

// NewSDL always fails in builds without the sdl tag.
func NewSDL(title string, windowWidth, windowHeight int) (*SDL, error) {
	return nil, errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (s *SDL) Present(c *Canvas, status string) error { return ErrPresenterQuit }

func (s *SDL) Close() error { return nil }
