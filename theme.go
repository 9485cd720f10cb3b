package slidescene

import (
	"fmt"
	"math"
	"strings"
)

// ColorUsage tells the resolver where a colour reference is being applied.
// Scheme resolution is context-sensitive (see Resolver.Resolve).
type ColorUsage int

const (
	UsageText ColorUsage = iota
	UsageFill
	UsageBackground
)

// Scheme slot names as they appear in a:clrScheme.
const (
	SlotDark1             = "dk1"
	SlotLight1            = "lt1"
	SlotDark2             = "dk2"
	SlotLight2            = "lt2"
	SlotAccent1           = "accent1"
	SlotAccent2           = "accent2"
	SlotAccent3           = "accent3"
	SlotAccent4           = "accent4"
	SlotAccent5           = "accent5"
	SlotAccent6           = "accent6"
	SlotHyperlink         = "hlink"
	SlotFollowedHyperlink = "folHlink"
)

// SchemeSlots lists the 12 palette slots in theme order.
var SchemeSlots = []string{
	SlotDark1, SlotLight1, SlotDark2, SlotLight2,
	SlotAccent1, SlotAccent2, SlotAccent3, SlotAccent4, SlotAccent5, SlotAccent6,
	SlotHyperlink, SlotFollowedHyperlink,
}

// defaultScheme is the Office 2013+ palette used when no theme part is found.
var defaultScheme = map[string]Color{
	SlotDark1:             "#000000FF",
	SlotLight1:            "#FFFFFFFF",
	SlotDark2:             "#44546AFF",
	SlotLight2:            "#E7E6E6FF",
	SlotAccent1:           "#4472C4FF",
	SlotAccent2:           "#ED7D31FF",
	SlotAccent3:           "#A5A5A5FF",
	SlotAccent4:           "#FFC000FF",
	SlotAccent5:           "#5B9BD5FF",
	SlotAccent6:           "#70AD47FF",
	SlotHyperlink:         "#0563C1FF",
	SlotFollowedHyperlink: "#954F72FF",
}

// defaultColorMap is the p:clrMap of a stock master.
var defaultColorMap = map[string]string{
	"bg1":      SlotLight1,
	"tx1":      SlotDark1,
	"bg2":      SlotLight2,
	"tx2":      SlotDark2,
	"accent1":  SlotAccent1,
	"accent2":  SlotAccent2,
	"accent3":  SlotAccent3,
	"accent4":  SlotAccent4,
	"accent5":  SlotAccent5,
	"accent6":  SlotAccent6,
	"hlink":    SlotHyperlink,
	"folHlink": SlotFollowedHyperlink,
}

var systemColors = map[string]Color{
	"window":          "#FFFFFFFF",
	"windowText":      "#000000FF",
	"menu":            "#F0F0F0FF",
	"menuText":        "#000000FF",
	"btnFace":         "#F0F0F0FF",
	"btnText":         "#000000FF",
	"highlight":       "#0078D7FF",
	"highlightText":   "#FFFFFFFF",
	"grayText":        "#6D6D6DFF",
	"captionText":     "#000000FF",
	"3dDkShadow":      "#696969FF",
	"3dLight":         "#E3E3E3FF",
	"infoBk":          "#FFFFE1FF",
	"infoText":        "#000000FF",
	"activeCaption":   "#99B4D1FF",
	"inactiveCaption": "#BFCDDBFF",
	"background":      "#000000FF",
}

var presetColors = map[string]Color{
	"black":     "#000000FF",
	"white":     "#FFFFFFFF",
	"red":       "#FF0000FF",
	"green":     "#008000FF",
	"lime":      "#00FF00FF",
	"blue":      "#0000FFFF",
	"yellow":    "#FFFF00FF",
	"cyan":      "#00FFFFFF",
	"magenta":   "#FF00FFFF",
	"orange":    "#FFA500FF",
	"purple":    "#800080FF",
	"gray":      "#808080FF",
	"grey":      "#808080FF",
	"silver":    "#C0C0C0FF",
	"navy":      "#000080FF",
	"maroon":    "#800000FF",
	"teal":      "#008080FF",
	"olive":     "#808000FF",
	"brown":     "#A52A2AFF",
	"pink":      "#FFC0CBFF",
	"gold":      "#FFD700FF",
	"ltGray":    "#D3D3D3FF",
	"dkGray":    "#A9A9A9FF",
	"darkBlue":  "#00008BFF",
	"darkRed":   "#8B0000FF",
	"darkGreen": "#006400FF",
}

// ColorSource is the base colour of a reference before transforms.
type ColorSource interface {
	colorSource()
}

// RGBSource is an explicit colour.
type RGBSource struct{ Hex string }

// SchemeSource names a palette slot or one of its aliases (tx1, bg1, tx2,
// bg2, phClr).
type SchemeSource struct{ Slot string }

// SystemSource is a system colour with its last-known value.
type SystemSource struct{ Name, LastColor string }

// PresetSource is a named preset colour (a:prstClr).
type PresetSource struct{ Name string }

func (RGBSource) colorSource()    {}
func (SchemeSource) colorSource() {}
func (SystemSource) colorSource() {}
func (PresetSource) colorSource() {}

// ModKind identifies a colour transform.
type ModKind int

const (
	ModTint ModKind = iota
	ModShade
	ModAlpha
	ModLumMod
	ModLumOff
	ModSatMod
)

// ColorMod is a transform with its value as a fraction (0.75 for 75%).
type ColorMod struct {
	Kind  ModKind
	Value float64
}

// ColorRef is an unresolved colour: a source plus ordered transforms.
type ColorRef struct {
	Source ColorSource
	Mods   []ColorMod
}

// Scheme returns a reference to a palette slot.
func Scheme(slot string, mods ...ColorMod) ColorRef {
	return ColorRef{Source: SchemeSource{Slot: slot}, Mods: mods}
}

// Explicit returns a reference to a literal RRGGBB colour.
func Explicit(hex string, mods ...ColorMod) ColorRef {
	return ColorRef{Source: RGBSource{Hex: hex}, Mods: mods}
}

// FontScheme holds the major (headings) and minor (body) latin typefaces.
type FontScheme struct {
	Major string `json:"major"`
	Minor string `json:"minor"`
}

var defaultFontScheme = FontScheme{Major: "Calibri Light", Minor: "Calibri"}

// Resolve maps theme font tokens (+mj-lt, +mn-ea, ...) to a family name.
func (f FontScheme) Resolve(typeface string) string {
	switch {
	case strings.HasPrefix(typeface, "+mj"):
		return f.Major
	case strings.HasPrefix(typeface, "+mn"):
		return f.Minor
	}
	return typeface
}

// Theme is the parsed theme part of a document. It is built once per
// document and not modified afterwards.
type Theme struct {
	Name    string
	colors  map[string]Color
	Fonts   FontScheme
	bgFills []*node // a:bgFillStyleLst entries, 1-based via idx-1000
	fills   []*node // a:fillStyleLst entries
	lines   []*node // a:lnStyleLst entries
	// part is the package part the theme was read from; picture fills in
	// the style matrix resolve their relationships against it.
	part string
	// fallback records that the theme part was missing or unreadable.
	fallback bool
}

// DefaultTheme returns the stock Office theme.
func DefaultTheme() *Theme {
	colors := make(map[string]Color, len(defaultScheme))
	for k, v := range defaultScheme {
		colors[k] = v
	}
	return &Theme{Name: "Office Theme", colors: colors, Fonts: defaultFontScheme, fallback: true}
}

// parseTheme reads an a:theme part. Missing slots keep their default value.
func parseTheme(data []byte) (*Theme, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse theme: %w", err)
	}
	t := DefaultTheme()
	t.fallback = false
	t.Name = root.attrOr("name", t.Name)

	elems := root.child("themeElements")
	if scheme := elems.child("clrScheme"); scheme != nil {
		for _, slot := range SchemeSlots {
			el := scheme.child(slot)
			if el == nil {
				continue
			}
			if c, ok := literalColor(el); ok {
				t.colors[slot] = c
			}
		}
	}
	if fs := elems.child("fontScheme"); fs != nil {
		if v, ok := fs.path("majorFont", "latin").attr("typeface"); ok && v != "" {
			t.Fonts.Major = v
		}
		if v, ok := fs.path("minorFont", "latin").attr("typeface"); ok && v != "" {
			t.Fonts.Minor = v
		}
	}
	matrix := elems.child("fmtScheme")
	t.bgFills = matrix.child("bgFillStyleLst").elements()
	t.fills = matrix.child("fillStyleLst").elements()
	t.lines = matrix.child("lnStyleLst").elements()
	return t, nil
}

// literalColor reads the direct colour child of a clrScheme slot.
func literalColor(slot *node) (Color, bool) {
	for _, c := range slot.children {
		switch c.name {
		case "srgbClr":
			if v, ok := c.attr("val"); ok {
				return ParseColor(v)
			}
		case "sysClr":
			if v, ok := c.attr("lastClr"); ok {
				return ParseColor(v)
			}
			if v, ok := c.attr("val"); ok {
				if sc, ok := systemColors[v]; ok {
					return sc, true
				}
			}
		}
	}
	return "", false
}

// Palette returns the theme colours keyed by slot, for deck metadata.
func (t *Theme) Palette() map[string]Color {
	out := make(map[string]Color, len(SchemeSlots))
	for _, slot := range SchemeSlots {
		out[slot] = t.slotColor(slot)
	}
	return out
}

func (t *Theme) slotColor(slot string) Color {
	if t != nil {
		if c, ok := t.colors[slot]; ok {
			return c
		}
	}
	if c, ok := defaultScheme[slot]; ok {
		return c
	}
	return ColorBlack
}

// backgroundFill returns the bgFillStyleLst entry for a p:bgRef idx
// (1001 is the first entry).
func (t *Theme) backgroundFill(idx int64) *node {
	if t == nil || idx < 1001 {
		return nil
	}
	i := int(idx - 1001)
	if i >= len(t.bgFills) {
		return nil
	}
	return t.bgFills[i]
}

// styleEntry returns entry idx (1-based) of a style matrix list.
func styleEntry(list []*node, idx int64) *node {
	if idx < 1 || int(idx) > len(list) {
		return nil
	}
	return list[idx-1]
}

// ResolveColor resolves ref with the default colour map.
func (t *Theme) ResolveColor(ref ColorRef, usage ColorUsage) Color {
	return NewResolver(t, nil).Resolve(ref, usage)
}

// Resolver binds a theme to a master colour map (and optionally a
// placeholder colour for style-matrix references).
type Resolver struct {
	theme       *Theme
	colorMap    map[string]string
	placeholder Color
}

// NewResolver creates a Resolver. A nil colorMap uses the stock mapping.
func NewResolver(t *Theme, colorMap map[string]string) *Resolver {
	if t == nil {
		t = DefaultTheme()
	}
	m := make(map[string]string, len(defaultColorMap))
	for k, v := range defaultColorMap {
		m[k] = v
	}
	for k, v := range colorMap {
		m[k] = v
	}
	return &Resolver{theme: t, colorMap: m}
}

// Theme returns the bound theme.
func (r *Resolver) Theme() *Theme { return r.theme }

// withPlaceholder returns a copy that resolves phClr to c.
func (r *Resolver) withPlaceholder(c Color) *Resolver {
	cp := *r
	cp.placeholder = c
	return &cp
}

// withOverride applies a slide-level p:clrMapOvr.
func (r *Resolver) withOverride(override map[string]string) *Resolver {
	if len(override) == 0 {
		return r
	}
	cp := *r
	cp.colorMap = make(map[string]string, len(r.colorMap))
	for k, v := range r.colorMap {
		cp.colorMap[k] = v
	}
	for k, v := range override {
		cp.colorMap[k] = v
	}
	return &cp
}

// Resolve turns a reference into a concrete colour. The result is always
// "#RRGGBBAA".
//
// tx1 and dk1 used as a background resolve to Transparent: authoring tools
// write them where the background should fall through to the parent. The
// same references used for text or shape fills keep their real colour.
func (r *Resolver) Resolve(ref ColorRef, usage ColorUsage) Color {
	var base Color
	switch src := ref.Source.(type) {
	case RGBSource:
		c, ok := ParseColor(src.Hex)
		if !ok {
			c = ColorBlack
		}
		base = c
	case SchemeSource:
		if usage == UsageBackground && (src.Slot == "tx1" || src.Slot == SlotDark1) {
			return Transparent
		}
		base = r.schemeColor(src.Slot)
	case SystemSource:
		if c, ok := ParseColor(src.LastColor); ok {
			base = c
		} else if c, ok := systemColors[src.Name]; ok {
			base = c
		} else {
			base = ColorBlack
		}
	case PresetSource:
		if c, ok := presetColors[src.Name]; ok {
			base = c
		} else {
			base = ColorBlack
		}
	default:
		base = ColorBlack
	}
	return applyMods(base, ref.Mods)
}

func (r *Resolver) schemeColor(name string) Color {
	if name == "phClr" {
		if r.placeholder != "" {
			return r.placeholder
		}
		name = SlotDark1
	}
	if slot, ok := r.colorMap[name]; ok {
		name = slot
	}
	return r.theme.slotColor(name)
}

// applyMods applies transforms in document order. Tint and shade are linear
// RGB blends toward white and black; lumMod/lumOff/satMod work in HSL.
func applyMods(c Color, mods []ColorMod) Color {
	if len(mods) == 0 {
		return c
	}
	w := rgbFromColor(c)
	for _, m := range mods {
		switch m.Kind {
		case ModTint:
			t := clamp01(m.Value)
			w.r = w.r*t + 255*(1-t)
			w.g = w.g*t + 255*(1-t)
			w.b = w.b*t + 255*(1-t)
		case ModShade:
			s := clamp01(m.Value)
			w.r *= s
			w.g *= s
			w.b *= s
		case ModAlpha:
			w.a = clamp01(m.Value)
		case ModLumMod, ModLumOff, ModSatMod:
			h, s, l := w.toHSL()
			switch m.Kind {
			case ModLumMod:
				l *= m.Value
			case ModLumOff:
				l += m.Value
			case ModSatMod:
				s *= m.Value
			}
			w = hslToRGB(h, clamp01(s), clamp01(l), w.a)
		}
	}
	w.r = math.Max(0, math.Min(255, w.r))
	w.g = math.Max(0, math.Min(255, w.g))
	w.b = math.Max(0, math.Min(255, w.b))
	return w.color()
}

// parseColorRef reads a DrawingML colour choice element (srgbClr, schemeClr,
// sysClr, prstClr, scrgbClr, hslClr) together with its transform children.
func parseColorRef(el *node) (ColorRef, bool) {
	if el == nil {
		return ColorRef{}, false
	}
	var ref ColorRef
	switch el.name {
	case "srgbClr":
		ref.Source = RGBSource{Hex: el.attrOr("val", "000000")}
	case "schemeClr":
		v, ok := el.attr("val")
		if !ok {
			return ColorRef{}, false
		}
		ref.Source = SchemeSource{Slot: v}
	case "sysClr":
		ref.Source = SystemSource{Name: el.attrOr("val", ""), LastColor: el.attrOr("lastClr", "")}
	case "prstClr":
		ref.Source = PresetSource{Name: el.attrOr("val", "black")}
	case "scrgbClr":
		r, _ := el.attrInt("r")
		g, _ := el.attrInt("g")
		b, _ := el.attrInt("b")
		ref.Source = RGBSource{Hex: string(RGBA(
			channel(percentToFraction(r)*255),
			channel(percentToFraction(g)*255),
			channel(percentToFraction(b)*255), 255))}
	case "hslClr":
		h, _ := el.attrInt("hue")
		s, _ := el.attrInt("sat")
		l, _ := el.attrInt("lum")
		c := hslToRGB(float64(h)/rotationUnit, percentToFraction(s), percentToFraction(l), 1)
		ref.Source = RGBSource{Hex: string(c.color())}
	default:
		return ColorRef{}, false
	}
	for _, m := range el.children {
		v, ok := m.attrInt("val")
		if !ok {
			continue
		}
		f := percentToFraction(v)
		switch m.name {
		case "tint":
			ref.Mods = append(ref.Mods, ColorMod{ModTint, f})
		case "shade":
			ref.Mods = append(ref.Mods, ColorMod{ModShade, f})
		case "alpha":
			ref.Mods = append(ref.Mods, ColorMod{ModAlpha, f})
		case "lumMod":
			ref.Mods = append(ref.Mods, ColorMod{ModLumMod, f})
		case "lumOff":
			ref.Mods = append(ref.Mods, ColorMod{ModLumOff, f})
		case "satMod":
			ref.Mods = append(ref.Mods, ColorMod{ModSatMod, f})
		}
	}
	return ref, true
}

// colorChild finds the colour choice element directly under parent.
func colorChild(parent *node) (ColorRef, bool) {
	if parent == nil {
		return ColorRef{}, false
	}
	for _, c := range parent.children {
		if ref, ok := parseColorRef(c); ok {
			return ref, true
		}
	}
	return ColorRef{}, false
}

// parseColorMap reads p:clrMap (or the a:overrideClrMapping child of
// p:clrMapOvr).
func parseColorMap(n *node) map[string]string {
	if n == nil {
		return nil
	}
	out := make(map[string]string)
	for _, a := range n.attrs {
		out[a.Name.Local] = a.Value
	}
	return out
}
