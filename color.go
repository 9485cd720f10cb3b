package slidescene

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Color is a resolved colour in "#RRGGBBAA" form.
type Color string

// Transparent is the fully transparent sentinel colour.
const Transparent Color = "#00000000"

// Predefined colors.
const (
	ColorBlack Color = "#000000FF"
	ColorWhite Color = "#FFFFFFFF"
)

// RGBA builds a Color from its components.
func RGBA(r, g, b, a uint8) Color {
	return Color(fmt.Sprintf("#%02X%02X%02X%02X", r, g, b, a))
}

// ParseColor accepts "RRGGBB" or "RRGGBBAA" with an optional leading '#'.
func ParseColor(s string) (Color, bool) {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	switch len(s) {
	case 6:
		s += "FF"
	case 8:
	default:
		return "", false
	}
	for i := 0; i < len(s); i++ {
		if hexVal(s[i]) < 0 {
			return "", false
		}
	}
	return Color("#" + s), true
}

// Components returns the red, green, blue and alpha channels. Malformed
// colours decode as opaque black.
func (c Color) Components() (r, g, b, a uint8) {
	s := strings.TrimPrefix(string(c), "#")
	if len(s) != 8 {
		return 0, 0, 0, 255
	}
	return parseHexByte(s, 0), parseHexByte(s, 2), parseHexByte(s, 4), parseHexByte(s, 6)
}

// Alpha returns the alpha channel.
func (c Color) Alpha() uint8 {
	_, _, _, a := c.Components()
	return a
}

// IsTransparent reports whether the colour has zero alpha.
func (c Color) IsTransparent() bool {
	return c == "" || c.Alpha() == 0
}

// NRGBA converts the colour to a non-premultiplied image/color value.
func (c Color) NRGBA() color.NRGBA {
	r, g, b, a := c.Components()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Hex returns the colour without the leading '#', suitable for gg.Hex.
func (c Color) Hex() string {
	return strings.TrimPrefix(string(c), "#")
}

// parseHexByte parses two hex characters at offset into a uint8.
// Returns 0 on any error (out of range, invalid chars).
func parseHexByte(s string, offset int) uint8 {
	if offset+2 > len(s) {
		return 0
	}
	h := hexVal(s[offset])
	l := hexVal(s[offset+1])
	if h < 0 || l < 0 {
		return 0
	}
	return uint8(h<<4 | l)
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return -1
	}
}

// rgb is a working colour with float channels in [0,255].
type rgb struct {
	r, g, b float64
	a       float64 // [0,1]
}

func rgbFromColor(c Color) rgb {
	r, g, b, a := c.Components()
	return rgb{float64(r), float64(g), float64(b), float64(a) / 255}
}

func (c rgb) color() Color {
	return RGBA(channel(c.r), channel(c.g), channel(c.b), channel(c.a*255))
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}

// toHSL converts to hue [0,360), saturation and lightness in [0,1].
func (c rgb) toHSL() (h, s, l float64) {
	r, g, b := c.r/255, c.g/255, c.b/255
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	l = (mx + mn) / 2
	if mx == mn {
		return 0, 0, l
	}
	d := mx - mn
	if l > 0.5 {
		s = d / (2 - mx - mn)
	} else {
		s = d / (mx + mn)
	}
	switch mx {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	return h * 60, s, l
}

func hslToRGB(h, s, l, a float64) rgb {
	if s == 0 {
		v := l * 255
		return rgb{v, v, v, a}
	}
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	hk := h / 360
	return rgb{
		r: hueToChannel(p, q, hk+1.0/3) * 255,
		g: hueToChannel(p, q, hk) * 255,
		b: hueToChannel(p, q, hk-1.0/3) * 255,
		a: a,
	}
}

func hueToChannel(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}
