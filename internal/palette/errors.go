package palette

import "errors"

var (
	ErrInvalidHex     = errors.New("invalid hex color")
	ErrUnknownPalette = errors.New("unknown palette")
	ErrTooFewColors   = errors.New("palette needs at least two colors")
)
