package render

import (
	"bufio"
	"errors"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// ErrPresenterQuit is returned by a presenter whose window was closed.
var ErrPresenterQuit = errors.New("presenter closed by user")

// Presenter puts a finished canvas on screen.
type Presenter interface {
	Present(c *Canvas, status string) error
	Close() error
}

var (
	resetANSI       = "\x1b[0m"
	precomputedANSI [256]string
)

func init() {
	for i := range precomputedANSI {
		precomputedANSI[i] = "\x1b[38;5;" + strconv.Itoa(i) + "m"
	}
}

// ANSI draws a canvas as text using 256-color escape codes.
type ANSI struct {
	out     *bufio.Writer
	ramp    []rune
	color   bool
	started bool
	lines   []string
	footer  []string
}

// NewANSI writes frames to w. With color off only glyphs are emitted.
func NewANSI(w io.Writer, rampName string, color bool) *ANSI {
	return &ANSI{
		out:   bufio.NewWriterSize(w, 64*1024),
		ramp:  Ramp(rampName),
		color: color,
	}
}

// SetRamp switches the glyph ramp.
func (a *ANSI) SetRamp(name string) { a.ramp = Ramp(name) }

// SetFooter sets pre-styled lines drawn below the status bar. They are
// written as is.
func (a *ANSI) SetFooter(lines []string) { a.footer = lines }

// Present switches to the alternate screen on first use and redraws the
// whole frame from the top-left corner, followed by the status bar and the
// footer.
func (a *ANSI) Present(c *Canvas, status string) error {
	if !a.started {
		a.out.WriteString("\x1b[?1049h\x1b[2J\x1b[?25l")
		a.started = true
	}
	a.lines = a.Lines(c, a.lines)
	a.out.WriteString("\x1b[H")
	for i, line := range a.lines {
		a.out.WriteString(line)
		if i < len(a.lines)-1 || status != "" {
			a.out.WriteString("\r\n")
		}
	}
	if status != "" {
		a.out.WriteString(StatusBar(status, c.Width()))
	}
	for _, line := range a.footer {
		a.out.WriteString("\r\n")
		a.out.WriteString(line)
	}
	a.out.WriteString("\x1b[J")
	return a.out.Flush()
}

// Close restores the cursor and the main screen.
func (a *ANSI) Close() error {
	if !a.started {
		return nil
	}
	a.started = false
	a.out.WriteString("\x1b[?25h\x1b[?1049l" + resetANSI)
	return a.out.Flush()
}

// Lines renders every row of c. Rows are built in parallel; dst is reused
// when it has the right length.
func (a *ANSI) Lines(c *Canvas, dst []string) []string {
	width := c.Width()
	height := c.Height()
	if len(dst) != height {
		dst = make([]string, height)
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > height {
		numWorkers = height
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	rowJobs := make(chan int, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for y := range rowJobs {
				var builder strings.Builder
				builder.Grow(width * 8)
				lastColor := -1
				for x := 0; x < width; x++ {
					level, col, g := c.At(x, y)
					if g == 0 {
						g = Glyph(a.ramp, level)
					}
					if a.color && g != ' ' {
						r, gg, b := col.Floats()
						fg := rgbToANSI(r*shade(level), gg*shade(level), b*shade(level))
						if fg != lastColor {
							builder.WriteString(colorCode(fg))
							lastColor = fg
						}
					}
					builder.WriteRune(g)
				}
				if a.color {
					builder.WriteString(resetANSI)
				}
				dst[y] = builder.String()
			}
		}()
	}

	for y := 0; y < height; y++ {
		rowJobs <- y
	}
	close(rowJobs)
	wg.Wait()
	return dst
}

// StatusBar pads or cuts text to exactly width runes.
func StatusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return text + strings.Repeat(" ", width-len(runes))
}

// shade keeps dim cells visible instead of collapsing them to black.
func shade(level float64) float64 {
	return 0.35 + 0.65*clamp01(level)
}

func colorCode(index int) string {
	if index < 0 {
		index = 0
	} else if index >= len(precomputedANSI) {
		index = len(precomputedANSI) - 1
	}
	return precomputedANSI[index]
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// grayscale ramp for near-neutral colors
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}
