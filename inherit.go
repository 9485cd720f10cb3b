package slidescene

import "strconv"

// placeholder identifies a p:ph reference.
type placeholder struct {
	Type   string
	Idx    int64
	HasIdx bool
}

// placeholderOf reads the p:ph element of a slide/layout/master shape.
func placeholderOf(el *node) (placeholder, bool) {
	var nv *node
	for _, name := range []string{"nvSpPr", "nvPicPr", "nvGraphicFramePr", "nvGrpSpPr", "nvCxnSpPr"} {
		if nv = el.child(name); nv != nil {
			break
		}
	}
	ph := nv.path("nvPr", "ph")
	if ph == nil {
		return placeholder{}, false
	}
	p := placeholder{Type: ph.attrOr("type", "obj")}
	p.Idx, p.HasIdx = ph.attrInt("idx")
	return p, true
}

// category groups placeholder types the way master text styles do.
func (p placeholder) category() string {
	switch p.Type {
	case "title", "ctrTitle":
		return "title"
	case "body", "subTitle", "obj", "":
		return "body"
	}
	return "other"
}

func (p placeholder) isTitle() bool { return p.category() == "title" }

// masterType maps a slide placeholder type onto the type used by masters,
// which only carry title, body, dt, ftr and sldNum placeholders.
func (p placeholder) masterType() string {
	switch p.category() {
	case "title":
		return "title"
	case "body":
		return "body"
	}
	return p.Type
}

// defaultFontSize is the point size used when nothing in the inheritance
// chain declares one.
func defaultFontSize(p *placeholder) float64 {
	if p == nil {
		return 12
	}
	switch p.Type {
	case "title", "ctrTitle":
		return 44
	case "subTitle":
		return 32
	case "body", "obj", "":
		return 18
	}
	return 12
}

// findPlaceholder searches an spTree for the placeholder matching p: same
// idx first, then same type, then same master category.
func findPlaceholder(tree *node, p placeholder) *node {
	shapes := tree.path("cSld", "spTree")
	if shapes == nil {
		return nil
	}
	var byType, byCategory *node
	for _, el := range shapes.children {
		q, ok := placeholderOf(el)
		if !ok {
			continue
		}
		if p.HasIdx && q.HasIdx && q.Idx == p.Idx && (q.Type == p.Type || q.category() == p.category()) {
			return el
		}
		if byType == nil && q.Type == p.Type {
			byType = el
		}
		if byCategory == nil && q.masterType() == p.masterType() {
			byCategory = el
		}
	}
	if byType != nil {
		return byType
	}
	return byCategory
}

// styleChain is an ordered list of property sources; the first link that
// defines a property wins. Nil links are skipped.
type styleChain []*node

func firstOf[T any](chain styleChain, get func(*node) (T, bool)) (T, bool) {
	for _, n := range chain {
		if n == nil {
			continue
		}
		if v, ok := get(n); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// levelNode returns a:lvlNpPr of a list style (level is 0-based).
func levelNode(listStyle *node, level int) *node {
	if listStyle == nil {
		return nil
	}
	return listStyle.child("lvl" + strconv.Itoa(level+1) + "pPr")
}

// textInheritance holds the resolved ancestry of one text frame.
type textInheritance struct {
	sc        *slideContext
	ph        *placeholder
	ownList   *node // a:lstStyle of the shape itself
	layoutPh  *node
	masterPh  *node
	fontRef   *node // synthesized defRPr from p:style/a:fontRef
	bodyPrs   styleChain
	textStyle *node // master txStyles entry for this category
}

func (sc *slideContext) inheritanceFor(el *node, txBody *node, ph *placeholder) *textInheritance {
	ti := &textInheritance{sc: sc, ph: ph, ownList: txBody.child("lstStyle")}
	if ph != nil && sc.inheritsPlaceholders() {
		ti.layoutPh = findPlaceholder(sc.layout, *ph)
		ti.masterPh = findPlaceholder(sc.master, *ph)
	}
	ti.fontRef = fontRefProps(el.path("style", "fontRef"))
	ti.bodyPrs = styleChain{
		txBody.child("bodyPr"),
		ti.layoutPh.path("txBody", "bodyPr"),
		ti.masterPh.path("txBody", "bodyPr"),
	}
	styles := sc.master.child("txStyles")
	switch {
	case ph != nil && ph.category() == "title":
		ti.textStyle = styles.child("titleStyle")
	case ph != nil && ph.category() == "body":
		ti.textStyle = styles.child("bodyStyle")
	default:
		ti.textStyle = styles.child("otherStyle")
	}
	return ti
}

// paragraphChain lists paragraph-property sources for a level.
func (ti *textInheritance) paragraphChain(pPr *node, level int) styleChain {
	chain := styleChain{
		pPr,
		levelNode(ti.ownList, level),
		levelNode(ti.layoutPh.path("txBody", "lstStyle"), level),
		levelNode(ti.masterPh.path("txBody", "lstStyle"), level),
		levelNode(ti.textStyle, level),
	}
	if ti.ph == nil {
		chain = append(chain, levelNode(ti.sc.doc.defaultTextStyle, level))
	}
	return chain
}

// runChain lists character-property sources for a run: the run itself,
// the paragraph default, the shape list style, the shape style font
// reference, then the placeholder ancestry and master text styles.
func (ti *textInheritance) runChain(rPr, pPr *node, level int) styleChain {
	chain := styleChain{
		rPr,
		pPr.child("defRPr"),
		levelNode(ti.ownList, level).child("defRPr"),
		ti.fontRef,
		levelNode(ti.layoutPh.path("txBody", "lstStyle"), level).child("defRPr"),
		levelNode(ti.masterPh.path("txBody", "lstStyle"), level).child("defRPr"),
		levelNode(ti.textStyle, level).child("defRPr"),
	}
	if ti.ph == nil {
		chain = append(chain, levelNode(ti.sc.doc.defaultTextStyle, level).child("defRPr"))
	}
	return chain
}

// fontRefProps turns p:style/a:fontRef into an rPr-shaped node so it can
// sit in a run chain.
func fontRefProps(ref *node) *node {
	if ref == nil {
		return nil
	}
	n := &node{name: "defRPr"}
	switch ref.attrOr("idx", "") {
	case "major":
		n.children = append(n.children, &node{name: "latin", attrs: xmlAttrs("typeface", "+mj-lt")})
	case "minor":
		n.children = append(n.children, &node{name: "latin", attrs: xmlAttrs("typeface", "+mn-lt")})
	}
	if len(ref.children) > 0 {
		n.children = append(n.children, &node{name: "solidFill", children: ref.children})
	}
	return n
}

// Property extractors over rPr-shaped nodes.

func propFamily(n *node) (string, bool) {
	v, ok := n.child("latin").attr("typeface")
	return v, ok && v != ""
}

func propSize(n *node) (float64, bool) {
	v, ok := n.attrInt("sz")
	if !ok || v <= 0 {
		return 0, false
	}
	return float64(v) / 100, true
}

func propBold(n *node) (bool, bool)   { return n.attrBool("b") }
func propItalic(n *node) (bool, bool) { return n.attrBool("i") }

func propUnderline(n *node) (bool, bool) {
	v, ok := n.attr("u")
	if !ok {
		return false, false
	}
	return v != "none", true
}

func propStrike(n *node) (bool, bool) {
	v, ok := n.attr("strike")
	if !ok {
		return false, false
	}
	return v != "noStrike", true
}

func propColor(n *node) (ColorRef, bool) {
	return colorChild(n.child("solidFill"))
}

func propHighlight(n *node) (ColorRef, bool) {
	return colorChild(n.child("highlight"))
}

func propAlign(n *node) (HorizontalAlignment, bool) {
	v, ok := n.attr("algn")
	if !ok {
		return "", false
	}
	return horizontalFromOOXML(v)
}

// propBullet returns the bullet glyph, "" for buNone, or "auto" for
// numbered lists.
func propBullet(n *node) (string, bool) {
	if n.child("buNone") != nil {
		return "", true
	}
	if c, ok := n.child("buChar").attr("char"); ok {
		return c, true
	}
	if n.child("buAutoNum") != nil {
		return "auto", true
	}
	return "", false
}

func propAnchor(n *node) (VerticalAlignment, bool) {
	v, ok := n.attr("anchor")
	if !ok {
		return "", false
	}
	return verticalFromOOXML(v)
}

func propWrap(n *node) (bool, bool) {
	v, ok := n.attr("wrap")
	if !ok {
		return false, false
	}
	return v != "none", true
}

func propInset(name string) func(*node) (int64, bool) {
	return func(n *node) (int64, bool) { return n.attrInt(name) }
}

func propFontScale(n *node) (float64, bool) {
	fs, ok := n.child("normAutofit").attrInt("fontScale")
	if !ok || fs <= 0 {
		return 0, false
	}
	return percentToFraction(fs), true
}
