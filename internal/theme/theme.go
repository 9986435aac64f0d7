// Package theme supplies the color palettes the karaoke view renders with,
// including one derived from hymn cover art.
package theme

import (
	"fmt"
	"strconv"
)

// Palette is a closed set of display colors. Gradient runs from Dim to
// Accent and backs the smooth-highlight fill.
type Palette struct {
	Name      string
	Primary   string
	Secondary string
	Accent    string
	Dim       string
	Gradient  []string
}

const gradientSteps = 12

const (
	Classic  = "classic"
	Light    = "light"
	Midnight = "midnight"
	Sepia    = "sepia"
	// Dynamic is extracted from cover art at load time; it falls back to
	// Classic when no art is available.
	Dynamic = "dynamic"
)

// Names lists the selectable themes in cycle order.
func Names() []string {
	return []string{Classic, Light, Midnight, Sepia, Dynamic}
}

func Named(name string) Palette {
	switch name {
	case Light:
		return build(Light, "#1A1A2E", "#44446A", "#B8541F", "#9A9AB0")
	case Midnight:
		return build(Midnight, "#7DD3FC", "#38BDF8", "#F472B6", "#334155")
	case Sepia:
		return build(Sepia, "#E8D5B7", "#C4A878", "#D98E32", "#6B5D48")
	default:
		return build(Classic, "#FFFFFF", "#A8A8C0", "#FFB86C", "#55556A")
	}
}

func build(name, primary, secondary, accent, dim string) Palette {
	return Palette{
		Name:      name,
		Primary:   primary,
		Secondary: secondary,
		Accent:    accent,
		Dim:       dim,
		Gradient:  GradientBetween(dim, accent, gradientSteps),
	}
}

// GradientBetween interpolates steps hex colors from start to end with a
// smoothstep ease so the fill front does not band at the extremes.
func GradientBetween(startHex, endHex string, steps int) []string {
	if steps < 2 {
		steps = 2
	}

	sr, sg, sb := HexToRGB(startHex)
	er, eg, eb := HexToRGB(endHex)

	gradient := make([]string, steps)
	for i := 0; i < steps; i++ {
		t := smoothStep(float64(i) / float64(steps-1))
		r := lerpChannel(sr, er, t)
		g := lerpChannel(sg, eg, t)
		b := lerpChannel(sb, eb, t)
		gradient[i] = fmt.Sprintf("#%02X%02X%02X", r, g, b)
	}
	return gradient
}

// HexToRGB parses "#RRGGBB" (with or without the hash). Bad input reads as
// white; a wrong color beats a crashed frame.
func HexToRGB(hex string) (uint8, uint8, uint8) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0xFF, 0xFF, 0xFF
	}

	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0xFF, 0xFF, 0xFF
	}

	return uint8(value >> 16), uint8(value >> 8), uint8(value)
}

// Luminance approximates perceived brightness in [0,1].
func Luminance(hex string) float64 {
	r, g, b := HexToRGB(hex)
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255
}

func lerpChannel(a, b uint8, t float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*t
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

func smoothStep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}
