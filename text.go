package slidescene

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Default text frame insets in EMU.
const (
	defaultInsetX = 91440
	defaultInsetY = 45720
)

// normalizeText puts text into NFC form so composed and decomposed input
// measure and compare the same.
func normalizeText(s string) string {
	return norm.NFC.String(s)
}

// readText builds a fully resolved TextBody from p:txBody. The boolean is
// false when the body has no visible characters.
func (sc *slideContext) readText(el, txBody *node, ph *placeholder) (*TextBody, bool) {
	if txBody == nil {
		return nil, false
	}
	ti := sc.inheritanceFor(el, txBody, ph)

	body := &TextBody{
		VerticalAlignment: VerticalTop,
		Wrap:              true,
	}
	if v, ok := firstOf(ti.bodyPrs, propAnchor); ok {
		body.VerticalAlignment = v
	}
	if v, ok := firstOf(ti.bodyPrs, propWrap); ok {
		body.Wrap = v
	}
	inset := func(name string, def int64) float64 {
		v, ok := firstOf(ti.bodyPrs, propInset(name))
		if !ok {
			v = def
		}
		return sc.px(v)
	}
	body.Padding = Insets{
		Left:   inset("lIns", defaultInsetX),
		Top:    inset("tIns", defaultInsetY),
		Right:  inset("rIns", defaultInsetX),
		Bottom: inset("bIns", defaultInsetY),
	}
	fontScale := 1.0
	if v, ok := firstOf(ti.bodyPrs[:1], propFontScale); ok {
		fontScale = v
	}

	for _, p := range txBody.all("p") {
		body.Paragraphs = append(body.Paragraphs, ti.paragraph(p, fontScale))
	}
	if body.Empty() {
		return body, false
	}
	return body, true
}

func (ti *textInheritance) paragraph(p *node, fontScale float64) Paragraph {
	pPr := p.child("pPr")
	level := 0
	if v, ok := pPr.attrInt("lvl"); ok && v > 0 && v < 9 {
		level = int(v)
	}
	pchain := ti.paragraphChain(pPr, level)
	para := Paragraph{Alignment: HorizontalLeft, Level: level, Runs: []TextRun{}}
	if v, ok := firstOf(pchain, propAlign); ok {
		para.Alignment = v
	}
	if v, ok := firstOf(pchain, propBullet); ok {
		para.Bullet = v
	}

	for _, c := range p.children {
		switch c.name {
		case "r", "fld":
			text := normalizeText(c.child("t").textContent())
			if text == "" {
				continue
			}
			run := ti.run(c.child("rPr"), pPr, level, fontScale)
			run.Text = text
			para.Runs = append(para.Runs, run)
		case "br":
			run := ti.run(c.child("rPr"), pPr, level, fontScale)
			run.Text = "\n"
			run.Break = true
			para.Runs = append(para.Runs, run)
		}
	}
	if len(para.Runs) == 0 {
		// An empty paragraph still takes a line but never shows its bullet.
		para.Bullet = ""
	}
	return para
}

// run resolves every character property of one run.
func (ti *textInheritance) run(rPr, pPr *node, level int, fontScale float64) TextRun {
	chain := ti.runChain(rPr, pPr, level)
	fonts := ti.sc.theme.Fonts

	run := TextRun{BackgroundColor: Transparent}

	size, ok := firstOf(chain, propSize)
	if !ok {
		size = defaultFontSize(ti.ph)
	}
	run.FontSize = PointsToPixels(size) * ti.sc.scale * fontScale

	family, ok := firstOf(chain, propFamily)
	switch {
	case ok:
		run.FontFamily = fonts.Resolve(family)
	case ti.ph != nil && ti.ph.isTitle():
		run.FontFamily = fonts.Major
	default:
		run.FontFamily = fonts.Minor
	}
	if strings.TrimSpace(run.FontFamily) == "" {
		run.FontFamily = defaultFontScheme.Minor
	}

	run.Bold, _ = firstOf(chain, propBold)
	run.Italic, _ = firstOf(chain, propItalic)
	run.Underline, _ = firstOf(chain, propUnderline)
	run.Strike, _ = firstOf(chain, propStrike)

	colorRef, ok := firstOf(chain, propColor)
	if !ok {
		colorRef = Scheme("tx1")
	}
	run.TextColor = ti.sc.colors.Resolve(colorRef, UsageText)
	if hl, ok := firstOf(chain, propHighlight); ok {
		run.BackgroundColor = ti.sc.colors.Resolve(hl, UsageFill)
	}
	return run
}
