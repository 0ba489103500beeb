//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

// SDL shows the canvas in a window, one pixel per cell scaled up by the
// renderer.
type SDL struct {
	window      *sdl.Window
	renderer    *sdl.Renderer
	texture     *sdl.Texture
	pixelBuffer []byte
	width       int
	height      int
	pitch       int
	windowTitle string
}

// SupportsSDL reports whether the binary was built with the sdl tag.
func SupportsSDL() bool { return true }

// NewSDL opens a window of the given size in screen pixels.
func NewSDL(title string, windowWidth, windowHeight int) (*SDL, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	window, err := sdl.CreateWindow(
		title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(windowWidth), int32(windowHeight),
		sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return nil, fmt.Errorf("sdl renderer: %w", err)
	}
	return &SDL{window: window, renderer: renderer, windowTitle: title}, nil
}

func (s *SDL) ensureTexture(width, height int) error {
	if s.texture != nil && s.width == width && s.height == height {
		return nil
	}
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	tex, err := s.renderer.CreateTexture(
		sdl.PIXELFORMAT_ABGR8888,
		sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height),
	)
	if err != nil {
		return err
	}
	_ = s.renderer.SetLogicalSize(int32(width), int32(height))
	s.texture = tex
	s.width = width
	s.height = height
	s.pitch = width * 4
	s.pixelBuffer = make([]byte, s.pitch*height)
	return nil
}

// Present uploads the canvas and uses status as the window title.
func (s *SDL) Present(c *Canvas, status string) error {
	if err := s.ensureTexture(c.Width(), c.Height()); err != nil {
		return err
	}
	for y := 0; y < s.height; y++ {
		rowOffset := y * s.pitch
		for x := 0; x < s.width; x++ {
			level, col, _ := c.At(x, y)
			r, g, b := col.Floats()
			offset := rowOffset + x*4
			s.pixelBuffer[offset+0] = byte(clampFloat(r*level*255, 0, 255))
			s.pixelBuffer[offset+1] = byte(clampFloat(g*level*255, 0, 255))
			s.pixelBuffer[offset+2] = byte(clampFloat(b*level*255, 0, 255))
			s.pixelBuffer[offset+3] = 255
		}
	}

	if status != "" && status != s.windowTitle {
		s.window.SetTitle(status)
		s.windowTitle = status
	}
	if err := s.texture.Update(nil, s.pixelBuffer, s.pitch); err != nil {
		return err
	}
	if err := s.renderer.Clear(); err != nil {
		return err
	}
	if err := s.renderer.Copy(s.texture, nil, nil); err != nil {
		return err
	}
	s.renderer.Present()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if _, ok := event.(*sdl.QuitEvent); ok {
			return ErrPresenterQuit
		}
	}
	return nil
}

// Close destroys the window.
func (s *SDL) Close() error {
	if s.texture != nil {
		s.texture.Destroy()
		s.texture = nil
	}
	if s.renderer != nil {
		s.renderer.Destroy()
		s.renderer = nil
	}
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
	}
	s.pixelBuffer = nil
	return nil
}
