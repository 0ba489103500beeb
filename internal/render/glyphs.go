package render

import "sort"

var (
	defaultRamp = []rune(" .,:-;+=*%#@")
	blockRamp   = []rune(" ░▒▓█")
	lineRamp    = []rune(" `.-=+*/|╱╳╬")
	sparkRamp   = []rune(" ´`^\"~:;*+×•¤°oO@#█")
)

var ramps = map[string][]rune{
	"default": defaultRamp,
	"box":     blockRamp,
	"lines":   lineRamp,
	"spark":   sparkRamp,
}

// Ramp returns the glyphs used to map light levels to characters, darkest
// first. Unknown names get the default ramp.
func Ramp(name string) []rune {
	if r, ok := ramps[name]; ok {
		return r
	}
	return defaultRamp
}

// RampNames lists the available ramps.
func RampNames() []string {
	names := make([]string, 0, len(ramps))
	for name := range ramps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Glyph picks the ramp character for a light level.
func Glyph(ramp []rune, level float64) rune {
	if len(ramp) == 0 {
		return ' '
	}
	index := clampInt(int(clamp01(level)*float64(len(ramp)-1)+0.5), 0, len(ramp)-1)
	return ramp[index]
}
