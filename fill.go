package slidescene

import (
	"slices"
	"strconv"
)

// fillNames are the DrawingML fill choice elements.
var fillNames = map[string]bool{
	"noFill": true, "solidFill": true, "gradFill": true,
	"blipFill": true, "pattFill": true, "grpFill": true,
}

// fillSource says where relationship ids and group fills of a fill resolve.
type fillSource struct {
	part    string
	colors  *Resolver
	usage   ColorUsage
	grpFill *node // enclosing p:grpSpPr, for a:grpFill
}

// readFill returns the first fill choice under props (spPr, bgPr, tcPr).
func (sc *slideContext) readFill(props *node, src fillSource) (Fill, bool) {
	if props == nil {
		return nil, false
	}
	for _, c := range props.children {
		if fillNames[c.name] {
			return sc.fillFromElement(c, src)
		}
	}
	return nil, false
}

// fillFromElement converts a single fill choice element.
func (sc *slideContext) fillFromElement(el *node, src fillSource) (Fill, bool) {
	switch el.name {
	case "noFill":
		return NoFill{}, true
	case "solidFill":
		ref, ok := colorChild(el)
		if !ok {
			return SolidFill{Color: src.colors.Resolve(Scheme("phClr"), src.usage)}, true
		}
		return SolidFill{Color: src.colors.Resolve(ref, src.usage)}, true
	case "gradFill":
		g, ok := readGradient(el, src.colors, src.usage)
		if !ok {
			return nil, false
		}
		return GradientFill{Gradient: g}, true
	case "blipFill":
		img, _, ok := sc.readBlip(el, src.part)
		if !ok {
			return nil, false
		}
		return PictureFill{Image: *img}, true
	case "pattFill":
		if ref, ok := colorChild(el.child("fgClr")); ok {
			return SolidFill{Color: src.colors.Resolve(ref, src.usage)}, true
		}
		return nil, false
	case "grpFill":
		if src.grpFill == nil {
			return nil, false
		}
		outer := src
		outer.grpFill = nil
		return sc.readFill(src.grpFill, outer)
	}
	return nil, false
}

// readGradient reads a:gradFill. Stops are sorted by position.
func readGradient(el *node, colors *Resolver, usage ColorUsage) (Gradient, bool) {
	var g Gradient
	for _, gs := range el.path("gsLst").all("gs") {
		ref, ok := colorChild(gs)
		if !ok {
			continue
		}
		pos, _ := gs.attrInt("pos")
		g.Stops = append(g.Stops, GradientStop{
			Position: clamp01(percentToFraction(pos)),
			Color:    colors.Resolve(ref, usage),
		})
	}
	if len(g.Stops) == 0 {
		return Gradient{}, false
	}
	slices.SortStableFunc(g.Stops, func(a, b GradientStop) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})
	if lin := el.child("lin"); lin != nil {
		ang, _ := lin.attrInt("ang")
		g.Angle = RotationFromOOXML(ang)
	} else if el.child("path") != nil {
		g.Radial = true
	}
	return g, true
}

// shapeFill resolves the fill of a shape: its own spPr, then the matching
// layout and master placeholders, then the p:style fill reference.
func (sc *slideContext) shapeFill(el *node, inherited []*node, src fillSource) Fill {
	if f, ok := sc.readFill(el.child("spPr"), src); ok {
		return f
	}
	for _, ph := range inherited {
		if f, ok := sc.readFill(ph.child("spPr"), src); ok {
			return f
		}
	}
	if ref := el.path("style", "fillRef"); ref != nil {
		return sc.styleFill(ref, src)
	}
	return NoFill{}
}

// styleFill resolves a:fillRef against the theme fill style list with the
// reference colour standing in for phClr.
func (sc *slideContext) styleFill(ref *node, src fillSource) Fill {
	idx, _ := ref.attrInt("idx")
	if idx == 0 {
		return NoFill{}
	}
	phc := ColorBlack
	if c, ok := colorChild(ref); ok {
		phc = src.colors.Resolve(c, UsageFill)
	}
	themed := src
	themed.colors = src.colors.withPlaceholder(phc)
	themed.part = sc.theme.part
	if entry := styleEntry(sc.theme.fills, idx); entry != nil && entry.name != "blipFill" {
		if f, ok := sc.fillFromElement(entry, themed); ok {
			return f
		}
	}
	return SolidFill{Color: phc}
}

// Theme line widths for lnRef idx 1..3 when the theme has no a:lnStyleLst.
var defaultStyleLineWidths = []int64{6350, 12700, 19050}

// lineEnds reports the arrowhead types of a:ln.
func lineEnds(ln *node) (head, tail string) {
	if v := ln.child("headEnd").attrOr("type", "none"); v != "none" {
		head = v
	}
	if v := ln.child("tailEnd").attrOr("type", "none"); v != "none" {
		tail = v
	}
	return head, tail
}

// shapeStroke resolves the outline of a shape from a:ln on the shape and
// its placeholder ancestry, then the p:style line reference. The returned
// line node carries the arrowhead settings.
func (sc *slideContext) shapeStroke(el *node, inherited []*node, src fillSource) (Stroke, *node) {
	lines := []*node{el.path("spPr", "ln")}
	for _, ph := range inherited {
		lines = append(lines, ph.path("spPr", "ln"))
	}

	var themeLine *node
	var refColor Color
	ref := el.path("style", "lnRef")
	if ref != nil {
		idx, _ := ref.attrInt("idx")
		if idx > 0 {
			refColor = ColorBlack
			if c, ok := colorChild(ref); ok {
				refColor = src.colors.Resolve(c, UsageFill)
			}
			themeLine = styleEntry(sc.theme.lines, idx)
			if themeLine == nil {
				w := defaultStyleLineWidths[min(int(idx), len(defaultStyleLineWidths))-1]
				themeLine = &node{name: "ln", attrs: xmlAttrs("w", strconv.FormatInt(w, 10))}
			}
		}
	}
	lines = append(lines, themeLine)

	stroke := Stroke{Color: Transparent}
	width, ok := firstOf(lines, func(n *node) (int64, bool) { return n.attrInt("w") })
	if !ok {
		width = 9525
	}
	stroke.Width = sc.px(width)

	lineSrc := src
	lineSrc.usage = UsageFill
	colorFound := false
	for _, ln := range lines {
		if ln == nil {
			continue
		}
		s := lineSrc
		if ln == themeLine {
			s.colors = src.colors.withPlaceholder(refColor)
		}
		if f, ok := sc.readFill(ln, s); ok {
			if c, ok := strokeColor(f); ok {
				stroke.Color = c
				colorFound = true
				break
			}
		}
	}
	if !colorFound {
		if refColor != "" {
			stroke.Color = refColor
		} else {
			stroke.Width = 0
		}
	}
	if dash, ok := firstOf(lines, func(n *node) (string, bool) {
		v, ok := n.child("prstDash").attr("val")
		return v, ok && v != "solid"
	}); ok {
		stroke.Dash = dash
	}
	var arrows *node
	for _, ln := range lines {
		if ln != nil && (ln.child("headEnd") != nil || ln.child("tailEnd") != nil) {
			arrows = ln
			break
		}
	}
	return stroke, arrows
}

// strokeColor reduces a line fill to one colour.
func strokeColor(f Fill) (Color, bool) {
	switch v := f.(type) {
	case NoFill:
		return Transparent, true
	case SolidFill:
		return v.Color, true
	case GradientFill:
		return v.Stops[0].Color, true
	}
	return "", false
}

// visible reports whether a fill or stroke would paint anything.
func visible(f Fill, s Stroke) bool {
	if s.Visible() {
		return true
	}
	switch v := f.(type) {
	case SolidFill:
		return !v.Color.IsTransparent()
	case GradientFill, PictureFill:
		return true
	}
	return false
}

// backgroundLevel is one link of the slide, layout, master background chain.
type backgroundLevel struct {
	source string
	part   string
	tree   *node
}

// resolveBackground walks slide, layout and master for the first background
// that defines a visible fill. tx1/dk1 backgrounds resolve to Transparent
// and therefore fall through to the parent. Without any definition the
// background is the theme's light colour.
func (sc *slideContext) resolveBackground() BackgroundProps {
	levels := []backgroundLevel{
		{"slide", sc.part, sc.root},
		{"layout", sc.layoutPart, sc.layout},
		{"master", sc.masterPart, sc.master},
	}
	bg := BackgroundProps{Frame: sc.canvasFrame()}
	for _, lvl := range levels {
		el := lvl.tree.path("cSld", "bg")
		if el == nil {
			continue
		}
		f, ok := sc.backgroundFill(el, lvl.part)
		if !ok {
			continue
		}
		switch v := f.(type) {
		case SolidFill:
			if v.Color.IsTransparent() {
				continue
			}
			bg.Color = v.Color
		case GradientFill:
			g := v.Gradient
			bg.Color = g.Stops[0].Color
			bg.Gradient = &g
		case PictureFill:
			img := v.Image
			bg.Color = Transparent
			bg.Image = &img
		default:
			continue
		}
		bg.Source = lvl.source
		return bg
	}
	bg.Color = sc.colors.Resolve(Scheme("bg1"), UsageFill)
	bg.Source = "default"
	return bg
}

// backgroundFill reads p:bgPr or p:bgRef.
func (sc *slideContext) backgroundFill(bg *node, part string) (Fill, bool) {
	src := fillSource{part: part, colors: sc.colors, usage: UsageBackground}
	if pr := bg.child("bgPr"); pr != nil {
		return sc.readFill(pr, src)
	}
	ref := bg.child("bgRef")
	if ref == nil {
		return nil, false
	}
	idx, _ := ref.attrInt("idx")
	if idx == 0 {
		return NoFill{}, true
	}
	c, ok := colorChild(ref)
	if !ok {
		c = Scheme("bg1")
	}
	phc := sc.colors.Resolve(c, UsageBackground)
	if phc.IsTransparent() {
		return SolidFill{Color: Transparent}, true
	}
	var entry *node
	if idx >= 1001 {
		entry = sc.theme.backgroundFill(idx)
	} else {
		entry = styleEntry(sc.theme.fills, idx)
	}
	if entry != nil {
		themed := fillSource{part: sc.theme.part, colors: sc.colors.withPlaceholder(phc), usage: UsageFill}
		if f, ok := sc.fillFromElement(entry, themed); ok {
			return f, true
		}
	}
	return SolidFill{Color: phc}, true
}
