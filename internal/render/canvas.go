// Package render holds the drawing surface visualizers paint on and the
// presenters that put it on screen.
package render

import (
	"math"

	"github.com/guidoenr/spectraviz/internal/palette"
)

// TerminalCellAspect is the height/width ratio of a typical terminal cell.
const TerminalCellAspect = 2.0

// Canvas is a grid of light levels in [0,1], each with a color and an
// optional explicit glyph. Coordinates are cell units; Aspect is the
// height/width ratio of one cell so round shapes stay round.
type Canvas struct {
	width  int
	height int
	Aspect float64

	level []float64
	color []palette.RGB
	glyph []rune
}

// NewCanvas returns a cleared canvas. Non-positive sizes become 1.
func NewCanvas(width, height int, aspect float64) *Canvas {
	c := &Canvas{Aspect: aspect}
	if !(c.Aspect > 0) {
		c.Aspect = 1
	}
	c.Resize(width, height)
	return c
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// Resize reallocates the grid when the size changes and clears it.
func (c *Canvas) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	n := width * height
	c.level = make([]float64, n)
	c.color = make([]palette.RGB, n)
	c.glyph = make([]rune, n)
}

// Clear sets every cell dark.
func (c *Canvas) Clear() {
	for i := range c.level {
		c.level[i] = 0
		c.glyph[i] = 0
	}
}

// Fade scales every level by keep, leaving trails of the previous frame.
func (c *Canvas) Fade(keep float64) {
	keep = clampFloat(keep, 0, 1)
	for i := range c.level {
		c.level[i] *= keep
		if c.level[i] < 0.02 {
			c.level[i] = 0
			c.glyph[i] = 0
		}
	}
}

// At returns the cell at x, y. Out of range cells read dark.
func (c *Canvas) At(x, y int) (level float64, col palette.RGB, glyph rune) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0, palette.RGB{}, 0
	}
	i := y*c.width + x
	return c.level[i], c.color[i], c.glyph[i]
}

// Center returns the middle of the grid in cell units.
func (c *Canvas) Center() (float64, float64) {
	return float64(c.width) / 2, float64(c.height) / 2
}

// Radius is the largest circle radius, in horizontal cell units, that fits.
func (c *Canvas) Radius() float64 {
	return math.Min(float64(c.width), float64(c.height)*c.Aspect) / 2
}

// Polar converts an angle and a radius in horizontal cell units around
// (cx, cy) into cell coordinates.
func (c *Canvas) Polar(cx, cy, radius, angle float64) (float64, float64) {
	sin, cos := math.Sincos(angle)
	return cx + cos*radius, cy + sin*radius/c.Aspect
}

// Plot lights one cell. The brighter of the old and new light wins.
func (c *Canvas) Plot(x, y int, level float64, col palette.RGB) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	level = clamp01(level)
	i := y*c.width + x
	if level >= c.level[i] {
		c.level[i] = level
		c.color[i] = col
		c.glyph[i] = 0
	}
}

// PlotF lights the cell nearest to a fractional position.
func (c *Canvas) PlotF(x, y, level float64, col palette.RGB) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	c.Plot(int(math.Floor(x)), int(math.Floor(y)), level, col)
}

// SetGlyph writes an explicit character that overrides the glyph ramp.
func (c *Canvas) SetGlyph(x, y int, g rune, level float64, col palette.RGB) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	i := y*c.width + x
	c.level[i] = clamp01(level)
	c.color[i] = col
	c.glyph[i] = g
}

// Text writes s left to right starting at x, y.
func (c *Canvas) Text(x, y int, s string, level float64, col palette.RGB) {
	for _, r := range s {
		c.SetGlyph(x, y, r, level, col)
		x++
	}
}

// Line draws a straight segment.
func (c *Canvas) Line(x0, y0, x1, y1, level float64, col palette.RGB) {
	dx := x1 - x0
	dy := y1 - y0
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		c.PlotF(x0, y0, level, col)
		return
	}
	if steps > 4096 {
		steps = 4096
	}
	sx := dx / float64(steps)
	sy := dy / float64(steps)
	for i := 0; i <= steps; i++ {
		c.PlotF(x0+sx*float64(i), y0+sy*float64(i), level, col)
	}
}

// Disc draws a filled circle whose light falls off toward the rim. The
// radius is in horizontal cell units.
func (c *Canvas) Disc(cx, cy, radius, level float64, col palette.RGB) {
	if !(radius > 0) {
		c.PlotF(cx, cy, level, col)
		return
	}
	ry := radius / c.Aspect
	y0 := int(math.Floor(cy - ry))
	y1 := int(math.Ceil(cy + ry))
	x0 := int(math.Floor(cx - radius))
	x1 := int(math.Ceil(cx + radius))
	y0, y1 = clampInt(y0, 0, c.height-1), clampInt(y1, 0, c.height-1)
	x0, x1 = clampInt(x0, 0, c.width-1), clampInt(x1, 0, c.width-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := (float64(x) + 0.5 - cx) / radius
			dy := (float64(y) + 0.5 - cy) / ry
			d := dx*dx + dy*dy
			if d > 1 {
				continue
			}
			c.Plot(x, y, level*(1-d*0.6), col)
		}
	}
}

// Ring draws a circle outline with the given number of segments.
func (c *Canvas) Ring(cx, cy, radius, level float64, col palette.RGB) {
	segments := int(math.Max(12, radius*4))
	px, py := c.Polar(cx, cy, radius, 0)
	for i := 1; i <= segments; i++ {
		a := float64(i) / float64(segments) * 2 * math.Pi
		x, y := c.Polar(cx, cy, radius, a)
		c.Line(px, py, x, y, level, col)
		px, py = x, y
	}
}

// FillRect lights every cell in [x0,x1) x [y0,y1).
func (c *Canvas) FillRect(x0, y0, x1, y1 int, level float64, col palette.RGB) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.Plot(x, y, level, col)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
