package render

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidoenr/spectraviz/internal/palette"
)

var white = palette.RGB{R: 255, G: 255, B: 255}

func TestCanvasPlotKeepsBrighter(t *testing.T) {
	c := NewCanvas(4, 3, 1)
	red := palette.RGB{R: 255}
	c.Plot(1, 1, 0.8, red)
	c.Plot(1, 1, 0.3, white)

	level, col, _ := c.At(1, 1)
	assert.InDelta(t, 0.8, level, 1e-9)
	assert.Equal(t, red, col)

	c.Plot(-1, 0, 1, white)
	c.Plot(4, 0, 1, white)
	level, _, _ = c.At(9, 9)
	assert.Zero(t, level)
}

func TestCanvasFadeAndClear(t *testing.T) {
	c := NewCanvas(2, 2, 1)
	c.Plot(0, 0, 1, white)
	c.Fade(0.5)
	level, _, _ := c.At(0, 0)
	assert.InDelta(t, 0.5, level, 1e-9)

	c.Fade(0.01)
	level, _, _ = c.At(0, 0)
	assert.Zero(t, level)

	c.Plot(1, 1, 1, white)
	c.Clear()
	level, _, _ = c.At(1, 1)
	assert.Zero(t, level)
}

func TestCanvasResize(t *testing.T) {
	c := NewCanvas(0, -3, 0)
	assert.Equal(t, 1, c.Width())
	assert.Equal(t, 1, c.Height())
	assert.Equal(t, 1.0, c.Aspect)

	c.Resize(10, 5)
	assert.Equal(t, 10, c.Width())
	assert.Equal(t, 5, c.Height())
}

func TestCanvasPolarHonorsAspect(t *testing.T) {
	c := NewCanvas(40, 20, TerminalCellAspect)
	cx, cy := c.Center()
	x, y := c.Polar(cx, cy, 10, math.Pi/2)
	assert.InDelta(t, cx, x, 1e-9)
	assert.InDelta(t, cy+5, y, 1e-9)
	assert.InDelta(t, 20, c.Radius(), 1e-9)
}

func TestCanvasLineAndDisc(t *testing.T) {
	c := NewCanvas(10, 10, 1)
	c.Line(0, 0, 9, 9, 1, white)
	for i := 0; i < 10; i++ {
		level, _, _ := c.At(i, i)
		require.Equal(t, 1.0, level, "cell %d", i)
	}

	d := NewCanvas(11, 11, 1)
	d.Disc(5.5, 5.5, 3, 1, white)
	center, _, _ := d.At(5, 5)
	edge, _, _ := d.At(5, 8)
	outside, _, _ := d.At(0, 0)
	assert.Greater(t, center, edge)
	assert.Zero(t, outside)
}

func TestTextOverridesGlyph(t *testing.T) {
	c := NewCanvas(5, 1, 1)
	c.Text(1, 0, "hi", 1, white)
	a := NewANSI(&bytes.Buffer{}, "default", false)
	lines := a.Lines(c, nil)
	require.Len(t, lines, 1)
	assert.Equal(t, " hi  ", lines[0])
}

func TestGlyph(t *testing.T) {
	ramp := Ramp("default")
	assert.Equal(t, ' ', Glyph(ramp, 0))
	assert.Equal(t, '@', Glyph(ramp, 1))
	assert.Equal(t, '@', Glyph(ramp, 7))
	assert.Equal(t, ' ', Glyph(ramp, math.NaN()))
	assert.Equal(t, ' ', Glyph(nil, 1))
	assert.Equal(t, Ramp("default"), Ramp("nope"))
	assert.Contains(t, RampNames(), "box")
}

func TestANSILinesPlain(t *testing.T) {
	c := NewCanvas(3, 2, 1)
	c.Plot(0, 0, 1, white)
	c.Plot(2, 1, 1, white)

	a := NewANSI(&bytes.Buffer{}, "default", false)
	lines := a.Lines(c, nil)
	assert.Equal(t, []string{"@  ", "  @"}, lines)
}

func TestANSILinesColor(t *testing.T) {
	c := NewCanvas(2, 1, 1)
	c.Plot(0, 0, 1, palette.RGB{R: 255})
	a := NewANSI(&bytes.Buffer{}, "default", true)
	lines := a.Lines(c, nil)
	assert.True(t, strings.HasPrefix(lines[0], colorCode(rgbToANSI(1, 0, 0))))
	assert.True(t, strings.HasSuffix(lines[0], resetANSI))
}

func TestANSIPresentAndClose(t *testing.T) {
	var buf bytes.Buffer
	a := NewANSI(&buf, "default", false)
	c := NewCanvas(4, 1, 1)
	require.NoError(t, a.Present(c, "ok"))
	out := buf.String()
	assert.Contains(t, out, "\x1b[?1049h")
	assert.Contains(t, out, "ok  ")

	a.SetFooter([]string{"panel"})
	require.NoError(t, a.Present(c, ""))
	assert.True(t, strings.HasSuffix(buf.String(), "\r\npanel\x1b[J"))

	require.NoError(t, a.Close())
	assert.Contains(t, buf.String(), "\x1b[?1049l")
}

func TestStatusBar(t *testing.T) {
	assert.Equal(t, "abc  ", StatusBar("abc", 5))
	assert.Equal(t, "ab", StatusBar("abc", 2))
	assert.Equal(t, "abc", StatusBar("abc", 0))
}

func TestRGBToANSI(t *testing.T) {
	assert.Equal(t, 232, rgbToANSI(0, 0, 0))
	assert.Equal(t, 255, rgbToANSI(1, 1, 1))
	assert.Equal(t, 196, rgbToANSI(1, 0, 0))
	assert.Equal(t, "\x1b[38;5;0m", colorCode(-4))
}

func TestNoiseRanges(t *testing.T) {
	for i := 0; i < 500; i++ {
		x := float64(i) * 0.37
		y := float64(i) * -0.21
		v := ValueNoise(x, y)
		require.True(t, v >= 0 && v <= 1, "value noise %f", v)
		f := FractalNoise(x, y, 4)
		require.True(t, f >= -1 && f <= 1, "fractal noise %f", f)
	}
	assert.Equal(t, Hash(3, 4), Hash(3, 4))
}
