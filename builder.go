package slidescene

import (
	"math"
	"slices"
	"strings"
)

// slideBuilder accumulates the components of one slide in document order.
type slideBuilder struct {
	sc *slideContext
	// part is the package part whose relationships the tree being walked
	// resolves against (the slide, or its layout or master).
	part       string
	inherited  bool
	components []Component
	z          int
	stats      Stats
	title      string
	background BackgroundProps
	hasImage   bool
}

func newSlideBuilder(sc *slideContext) *slideBuilder {
	return &slideBuilder{sc: sc, part: sc.part}
}

func (b *slideBuilder) nextZ() int {
	b.z++
	return b.z
}

// emit appends a component and returns its id.
func (b *slideBuilder) emit(p Props) string {
	id := b.sc.doc.cfg.newID()
	b.components = append(b.components, newComponent(id, p))
	b.stats.count(p.ComponentType())
	if p.ComponentType() == TypeImage {
		b.hasImage = true
	}
	return id
}

func (b *slideBuilder) addBackground() {
	b.background = b.sc.resolveBackground()
	b.emit(b.background)
}

// addInheritedShapes emits the non-placeholder drawing of the master and
// layout (logos, rules, decorations) beneath the slide's own shapes.
func (b *slideBuilder) addInheritedShapes() {
	sc := b.sc
	if hidesMasterShapes(sc.root) {
		return
	}
	b.inherited = true
	defer func() {
		b.inherited = false
		b.part = sc.part
	}()
	if sc.master != nil && !hidesMasterShapes(sc.layout) {
		b.part = sc.masterPart
		b.walk(sc.master.path("cSld", "spTree"), IdentityTransform(), nil)
	}
	if sc.layout != nil {
		b.part = sc.layoutPart
		b.walk(sc.layout.path("cSld", "spTree"), IdentityTransform(), nil)
	}
}

func hidesMasterShapes(tree *node) bool {
	v, ok := tree.attrBool("showMasterSp")
	return ok && !v
}

// walk dispatches every child of a shape tree and returns the ids of the
// components it produced directly.
func (b *slideBuilder) walk(tree *node, t Transform, grpFill *node) []string {
	var ids []string
	for _, el := range tree.elements() {
		if el.name == "AlternateContent" {
			ids = append(ids, b.walk(alternateBranch(el), t, grpFill)...)
			continue
		}
		if id, ok := b.dispatch(el, t, grpFill); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (b *slideBuilder) dispatch(el *node, t Transform, grpFill *node) (string, bool) {
	if b.inherited {
		if _, isPh := placeholderOf(el); isPh {
			return "", false
		}
	}
	switch el.name {
	case "pic":
		return b.addPicture(el, t)
	case "graphicFrame":
		return b.addGraphicFrame(el, t)
	case "grpSp":
		return b.addGroup(el, t)
	case "cxnSp":
		return b.addConnector(el, t)
	case "sp":
		return b.addShape(el, t, grpFill)
	}
	return "", false
}

// alternateBranch picks the mc:Fallback of an mc:AlternateContent, which
// carries plain DrawingML, over mc:Choice content that may rely on
// extensions.
func alternateBranch(el *node) *node {
	if branch := el.child("Fallback"); branch != nil {
		return branch
	}
	return el.child("Choice")
}

// placeholderAncestry returns the matching layout and master placeholder
// shapes, nearest first.
func (b *slideBuilder) placeholderAncestry(ph placeholder, isPh bool) []*node {
	if !isPh || b.inherited {
		return nil
	}
	var out []*node
	if n := findPlaceholder(b.sc.layout, ph); n != nil {
		out = append(out, n)
	}
	if n := findPlaceholder(b.sc.master, ph); n != nil {
		out = append(out, n)
	}
	return out
}

// shapeBox reads the shape's own xfrm, falling back to its placeholder
// ancestry.
func shapeBox(props *node, ancestry []*node, propsName string) (Box, bool) {
	if box, ok := readXfrm(props.child("xfrm")); ok {
		return box, true
	}
	for _, a := range ancestry {
		if box, ok := readXfrm(a.path(propsName, "xfrm")); ok {
			return box, true
		}
	}
	return Box{}, false
}

func (b *slideBuilder) frame(box Box, t Transform) (Frame, Box) {
	abs := t.Apply(box)
	f := toCanvas(abs, b.sc.scale)
	f.ZIndex = b.nextZ()
	return f, abs
}

func (b *slideBuilder) fillSource(grpFill *node, usage ColorUsage) fillSource {
	return fillSource{part: b.part, colors: b.sc.colors, usage: usage, grpFill: grpFill}
}

func cNvPr(el *node) *node {
	for _, c := range el.children {
		if strings.HasPrefix(c.name, "nv") {
			return c.child("cNvPr")
		}
	}
	return nil
}

func isHidden(el *node) bool {
	v, _ := cNvPr(el).attrBool("hidden")
	return v
}

func (b *slideBuilder) addPicture(el *node, t Transform) (string, bool) {
	if isHidden(el) {
		return "", false
	}
	ph, isPh := placeholderOf(el)
	ancestry := b.placeholderAncestry(ph, isPh)
	spPr := el.child("spPr")
	box, ok := shapeBox(spPr, ancestry, "spPr")
	if !ok {
		return "", false
	}
	img, opacity, ok := b.sc.readBlip(el.child("blipFill"), b.part)
	if !ok {
		return "", false
	}
	f, abs := b.frame(box, t)
	img.FlipH, img.FlipV = abs.FlipH, abs.FlipV
	f.Opacity = opacity
	props := ImageProps{
		Frame:     f,
		Image:     *img,
		ObjectFit: "fill",
		Alt:       normalizeText(cNvPr(el).attrOr("descr", "")),
	}
	if g := classifyShape(spPr, abs.Width, abs.Height); g.Preset != "rect" {
		props.Mask = &g
	}
	return b.emit(props), true
}

func (b *slideBuilder) addGraphicFrame(el *node, t Transform) (string, bool) {
	if isHidden(el) {
		return "", false
	}
	data := el.path("graphic", "graphicData")
	uri := data.attrOr("uri", "")
	box, ok := readXfrm(el.child("xfrm"))
	if !ok {
		ph, isPh := placeholderOf(el)
		box, ok = shapeBox(nil, b.placeholderAncestry(ph, isPh), "spPr")
		if !ok {
			return "", false
		}
	}
	switch {
	case data.child("tbl") != nil:
		f, _ := b.frame(box, t)
		return b.emit(b.sc.readTable(data.child("tbl"), f, b.part)), true
	case strings.HasSuffix(uri, "/chart") || data.child("chart") != nil:
		props, ok := b.sc.readChart(data.child("chart"), b.part)
		if !ok {
			return "", false
		}
		props.Frame, _ = b.frame(box, t)
		return b.emit(props), true
	}
	b.sc.doc.log.Debug("graphic frame skipped", "uri", uri)
	return "", false
}

func (b *slideBuilder) addGroup(el *node, t Transform) (string, bool) {
	if isHidden(el) {
		return "", false
	}
	grpSpPr := el.child("grpSpPr")
	g, ok := readGroupXfrm(grpSpPr.child("xfrm"))
	if !ok {
		// A group without placement contributes its children unchanged.
		b.walk(el, t, grpSpPr)
		return "", false
	}
	f, _ := b.frame(g.Box, t)
	idx := len(b.components)
	id := b.emit(GroupProps{Frame: f})
	children := b.walk(el, t.Enter(g), grpSpPr)
	props := b.components[idx].Props.(GroupProps)
	props.Children = append([]string{}, children...)
	b.components[idx].Props = props
	return id, true
}

// addConnector handles p:cxnSp.
func (b *slideBuilder) addConnector(el *node, t Transform) (string, bool) {
	if isHidden(el) {
		return "", false
	}
	box, ok := readXfrm(el.path("spPr", "xfrm"))
	if !ok {
		return "", false
	}
	return b.addLine(el, box, t, nil)
}

// addLine converts a line-like shape into a segment between its absolute
// end points. The frame is the bounding box of the segment with no
// rotation of its own.
func (b *slideBuilder) addLine(el *node, box Box, t Transform, ancestry []*node) (string, bool) {
	abs := t.Apply(box)
	start := Position{X: abs.X, Y: abs.Y}
	end := Position{X: abs.X + abs.Width, Y: abs.Y + abs.Height}
	if abs.FlipH {
		start.X, end.X = end.X, start.X
	}
	if abs.FlipV {
		start.Y, end.Y = end.Y, start.Y
	}
	if abs.Rotation != 0 {
		cx, cy := abs.Center()
		c := Position{X: cx, Y: cy}
		start = rotatePoint(start, c, abs.Rotation)
		end = rotatePoint(end, c, abs.Rotation)
	}
	scale := b.sc.scale / emuPerPixel
	start = Position{X: start.X * scale, Y: start.Y * scale}
	end = Position{X: end.X * scale, Y: end.Y * scale}

	stroke, arrows := b.sc.shapeStroke(el, ancestry, b.fillSource(nil, UsageFill))
	if stroke.Width == 0 && el.path("spPr", "ln", "noFill") == nil {
		stroke = Stroke{Color: b.sc.colors.Resolve(Scheme("tx1"), UsageFill), Width: b.sc.scale}
	}
	head, tail := lineEnds(arrows)
	props := LineProps{
		Frame: Frame{
			Position: Position{X: math.Min(start.X, end.X), Y: math.Min(start.Y, end.Y)},
			Width:    math.Abs(end.X - start.X),
			Height:   math.Abs(end.Y - start.Y),
			Opacity:  1,
			ZIndex:   b.nextZ(),
		},
		Start:      start,
		End:        end,
		Stroke:     stroke,
		StartArrow: head,
		EndArrow:   tail,
	}
	return b.emit(props), true
}

// addShape classifies p:sp: picture-filled shapes become masked images,
// line presets become lines, text-bearing shapes become text blocks or
// shapes with text, and the rest are decorative shapes.
func (b *slideBuilder) addShape(el *node, t Transform, grpFill *node) (string, bool) {
	if isHidden(el) {
		return "", false
	}
	sc := b.sc
	spPr := el.child("spPr")
	ph, isPh := placeholderOf(el)
	ancestry := b.placeholderAncestry(ph, isPh)
	box, ok := shapeBox(spPr, ancestry, "spPr")
	if !ok {
		return "", false
	}

	geomProps := spPr
	if spPr.child("prstGeom") == nil && spPr.child("custGeom") == nil {
		for _, a := range ancestry {
			if p := a.child("spPr"); p.child("prstGeom") != nil || p.child("custGeom") != nil {
				geomProps = p
				break
			}
		}
	}
	absW := box.Width * math.Abs(t.scaleX)
	absH := box.Height * math.Abs(t.scaleY)
	geom := classifyShape(geomProps, absW, absH)

	if bf := spPr.child("blipFill"); bf != nil {
		if img, opacity, ok := sc.readBlip(bf, b.part); ok {
			f, abs := b.frame(box, t)
			img.FlipH, img.FlipV = abs.FlipH, abs.FlipV
			f.Opacity = opacity
			return b.emit(ImageProps{Frame: f, Image: *img, ObjectFit: "cover", Mask: &geom}), true
		}
	}

	if lineLikePresets[geom.Preset] {
		return b.addLine(el, box, t, ancestry)
	}

	var phRef *placeholder
	if isPh {
		phRef = &ph
	}
	body, hasText := sc.readText(el, el.child("txBody"), phRef)
	fill := sc.shapeFill(el, ancestry, b.fillSource(grpFill, UsageFill))
	stroke, _ := sc.shapeStroke(el, ancestry, b.fillSource(grpFill, UsageFill))

	if hasText {
		if isPh && ph.isTitle() && b.title == "" && !b.inherited {
			b.title = strings.TrimSpace(strings.ReplaceAll(body.PlainText(), "\n", " "))
		}
		f, _ := b.frame(box, t)
		if isTextBox(el) || (!visible(fill, stroke) && geom.Kind == ShapeRectangle) {
			bg, ok := fillColor(fill)
			if !ok {
				bg = Transparent
			}
			props := TextBlockProps{Frame: f, TextBody: *body, BackgroundColor: bg}
			if isPh {
				props.PlaceholderType = ph.Type
			}
			return b.emit(props), true
		}
		return b.emit(ShapeProps{Frame: f, Geometry: geom, Fill: fill, Stroke: stroke, Text: body}), true
	}

	// Empty placeholders are authoring prompts; invisible empty shapes
	// draw nothing.
	if isPh || !visible(fill, stroke) {
		return "", false
	}
	f, _ := b.frame(box, t)
	return b.emit(ShapeProps{Frame: f, Geometry: geom, Fill: fill, Stroke: stroke}), true
}

func isTextBox(el *node) bool {
	v, _ := el.path("nvSpPr", "cNvSpPr").attrBool("txBox")
	return v
}

// synthesizeBackgroundImage turns a picture background into an Image
// component when the slide has no other image.
func (b *slideBuilder) synthesizeBackgroundImage() {
	if b.hasImage || b.background.Image == nil {
		return
	}
	f := b.sc.canvasFrame()
	b.emit(ImageProps{Frame: f, Image: *b.background.Image, ObjectFit: "cover", IsBackground: true})
}

// typeRank orders component kinds: background, images, shapes, text, then
// everything else.
func typeRank(c Component) int {
	switch c.Type {
	case TypeBackground:
		return 0
	case TypeImage:
		return 1
	case TypeShape:
		return 2
	case TypeTextBlock:
		return 3
	}
	return 4
}

// sorted returns the components stably ordered by kind; document order is
// kept within each kind.
func (b *slideBuilder) sorted() []Component {
	out := slices.Clone(b.components)
	slices.SortStableFunc(out, func(x, y Component) int {
		return typeRank(x) - typeRank(y)
	})
	if out == nil {
		out = []Component{}
	}
	return out
}
