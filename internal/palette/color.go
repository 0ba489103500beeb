package palette

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// ParseHex accepts "#rrggbb", "rrggbb" and the short "#rgb" form.
func ParseHex(hex string) (RGB, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(clean) == 3 {
		clean = string([]byte{clean[0], clean[0], clean[1], clean[1], clean[2], clean[2]})
	}
	if len(clean) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}
	v, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustHex is ParseHex for package-level tables; it panics on bad input.
func MustHex(hex string) RGB {
	c, err := ParseHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats the color as lowercase "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA formats the color as a CSS rgba() string.
func (c RGB) RGBA(alpha float64) string {
	return "rgba(" + strconv.Itoa(int(c.R)) + ", " + strconv.Itoa(int(c.G)) + ", " +
		strconv.Itoa(int(c.B)) + ", " + strconv.FormatFloat(alpha, 'f', -1, 64) + ")"
}

// Floats returns the channels scaled to [0,1].
func (c RGB) Floats() (float64, float64, float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

// Lerp interpolates each channel independently and rounds to the nearest
// integer. factor is clamped to [0,1].
func Lerp(a, b RGB, factor float64) RGB {
	t := clamp01(factor)
	return RGB{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

// LerpHex is Lerp for hex strings.
func LerpHex(hex1, hex2 string, factor float64) (string, error) {
	a, err := ParseHex(hex1)
	if err != nil {
		return "", err
	}
	b, err := ParseHex(hex2)
	if err != nil {
		return "", err
	}
	return Lerp(a, b, factor).Hex(), nil
}

// Multiply scales brightness, saturating each channel at 255.
func Multiply(c RGB, scalar float64) RGB {
	return RGB{
		R: scaleChannel(c.R, scalar),
		G: scaleChannel(c.G, scalar),
		B: scaleChannel(c.B, scalar),
	}
}

// HexToRGBA converts a hex color straight to an rgba() string.
func HexToRGBA(hex string, alpha float64) (string, error) {
	c, err := ParseHex(hex)
	if err != nil {
		return "", err
	}
	return c.RGBA(alpha), nil
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := math.Round(float64(a) + (float64(b)-float64(a))*t)
	return uint8(clampFloat(v, 0, 255))
}

func scaleChannel(v uint8, scalar float64) uint8 {
	return uint8(clampFloat(math.Round(float64(v)*scalar), 0, 255))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clampFloat(v, 0, 1)
}

func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
