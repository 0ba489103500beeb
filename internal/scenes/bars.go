package scenes

import (
	"math"

	"github.com/guidoenr/spectraviz/internal/palette"
	"github.com/guidoenr/spectraviz/internal/render"
	"github.com/guidoenr/spectraviz/internal/visualizer"
)

// bars2D draws the lower three quarters of the spectrum as vertical bars.
type bars2D struct {
	smoothed []float64
}

func (b *bars2D) Render(c *render.Canvas, f visualizer.Frame) {
	barCount := count(f.Params, "barCount", 64, 1, 1024)
	sensitivity := param(f.Params, "sensitivity", 1)
	spacing := clamp01(param(f.Params, "barSpacing", 0.2))
	smoothing := clamp01(param(f.Params, "smoothing", 0.5))

	c.Clear()
	bins := f.Snapshot.Bins
	if len(bins) == 0 {
		return
	}
	if len(b.smoothed) != barCount {
		b.smoothed = make([]float64, barCount)
	}

	usable := len(bins) * 3 / 4
	perBar := usable / barCount
	if perBar < 1 {
		perBar = 1
	}
	width := float64(c.Width())
	height := float64(c.Height())
	slot := width / float64(barCount)
	barWidth := math.Max(1, slot*(1-spacing))

	for i := 0; i < barCount; i++ {
		start := i * perBar
		end := start + perBar
		if end > usable {
			end = usable
		}
		if start >= end {
			continue
		}
		sum := 0
		for _, v := range bins[start:end] {
			sum += int(v)
		}
		value := math.Pow(math.Min(float64(sum)/float64(end-start)/255, 1), 0.8)
		b.smoothed[i] = b.smoothed[i]*smoothing + value*sensitivity*(1-smoothing)

		barHeight := math.Max(1, math.Min(b.smoothed[i], 1)*height*0.9)
		base := cycle(f.Palette, float64(i)/float64(barCount)+f.Time*0.1)

		x0 := int(float64(i) * slot)
		x1 := int(float64(i)*slot + barWidth)
		if x1 <= x0 {
			x1 = x0 + 1
		}
		top := int(height - barHeight)
		for y := top; y < c.Height(); y++ {
			// dark at the floor, bright toward the top
			t := 1 - float64(y-top)/math.Max(1, barHeight)
			col := palette.Multiply(base, 0.3+t*1.5)
			for x := x0; x < x1; x++ {
				c.Plot(x, y, 0.35+t*0.65, col)
			}
		}
		if barHeight > 2 {
			for x := x0; x < x1; x++ {
				c.Plot(x, top, 1, palette.Multiply(base, 2.5))
			}
		}
	}
}
