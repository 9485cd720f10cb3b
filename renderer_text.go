package slidescene

import (
	"image"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// fontKey identifies a face by family, pixel size and style.
type fontKey struct {
	name   string
	size   float64
	bold   bool
	italic bool
}

// faceCache memoises faces for a single render.
type faceCache struct {
	fonts *FontCache
	faces map[fontKey]font.Face
}

func newFaceCache(fc *FontCache) *faceCache {
	return &faceCache{fonts: fc, faces: make(map[fontKey]font.Face)}
}

func (c *faceCache) face(run TextRun) font.Face {
	key := fontKey{name: foldName(run.FontFamily), size: run.FontSize, bold: run.Bold, italic: run.Italic}
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := c.fonts.Face(run.FontFamily, run.FontSize, run.Bold, run.Italic)
	c.faces[key] = f
	return f
}

// overflowTolerance absorbs rounding in line metrics before text is
// reported as overflowing its box.
const overflowTolerance = 0.5

// lineSpacing is the line height for paragraphs without runs, as a
// multiple of the font size.
const lineSpacing = 1.2

// textSpan is a piece of a line drawn in one style.
type textSpan struct {
	text  string
	run   TextRun
	face  font.Face
	width float64
}

// textLine is one laid-out line of text.
type textLine struct {
	spans  []textSpan
	width  float64
	ascent float64
	height float64
	align  HorizontalAlignment
	indent float64
}

func measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

func (r *Renderer) span(run TextRun, text string) textSpan {
	face := r.faces.face(run)
	return textSpan{text: text, run: run, face: face, width: measure(face, text)}
}

func (r *Renderer) paintTextBlock(dst *image.RGBA, p TextBlockProps) (bool, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return false, nil
	}
	const pad = 1
	layer := newLayer(p.Width, p.Height, pad)
	box := Rect{X: pad, Y: pad, Width: p.Width, Height: p.Height}
	if !p.BackgroundColor.IsTransparent() {
		fillRect(layer, box, p.BackgroundColor)
	}
	overflow := false
	if !p.TextBody.Empty() {
		overflow = r.drawTextBody(layer, p.TextBody, box)
	}
	composite(dst, layer, p.Frame)
	return overflow, nil
}

// drawTextBody lays out and draws the body inside box and reports whether
// the wrapped text is taller than the box minus its padding.
func (r *Renderer) drawTextBody(dst *image.RGBA, body TextBody, box Rect) bool {
	inner := Rect{
		X:      box.X + body.Padding.Left,
		Y:      box.Y + body.Padding.Top,
		Width:  box.Width - body.Padding.Left - body.Padding.Right,
		Height: box.Height - body.Padding.Top - body.Padding.Bottom,
	}
	lines := r.layoutText(body, inner.Width)
	total := 0.0
	for _, ln := range lines {
		total += ln.height
	}

	y := inner.Y
	switch body.VerticalAlignment {
	case VerticalMiddle:
		y += (inner.Height - total) / 2
	case VerticalBottom:
		y += inner.Height - total
	}
	for _, ln := range lines {
		x := inner.X + ln.indent
		avail := inner.Width - ln.indent
		switch ln.align {
		case HorizontalCenter:
			x += (avail - ln.width) / 2
		case HorizontalRight:
			x += avail - ln.width
		}
		baseline := y + ln.ascent
		for _, sp := range ln.spans {
			drawSpan(dst, sp, x, baseline)
			x += sp.width
		}
		y += ln.height
	}
	return total > max(inner.Height, 0)+overflowTolerance
}

// layoutText turns paragraphs into lines, wrapping at maxWidth when the
// body wraps.
func (r *Renderer) layoutText(body TextBody, maxWidth float64) []textLine {
	var lines []textLine
	number := 0
	for _, para := range body.Paragraphs {
		size := paragraphSize(para)
		indent := float64(para.Level) * size
		prefix := bulletPrefix(para, &number)

		var spans []textSpan
		flush := func() {
			lines = append(lines, r.breakLine(spans, para.Alignment, indent, size, body.Wrap, maxWidth)...)
			spans = nil
		}
		if prefix != "" && len(para.Runs) > 0 {
			spans = append(spans, r.span(para.Runs[0], prefix))
		}
		for _, run := range para.Runs {
			if run.Break {
				flush()
				continue
			}
			if run.Text != "" {
				spans = append(spans, r.span(run, run.Text))
			}
		}
		flush()
	}
	return lines
}

// paragraphSize is the size of the first sized run, used for indents and
// empty lines.
func paragraphSize(p Paragraph) float64 {
	for _, run := range p.Runs {
		if run.FontSize > 0 {
			return run.FontSize
		}
	}
	return PointsToPixels(18)
}

// bulletPrefix returns the marker drawn before a paragraph. Consecutive
// auto-numbered paragraphs count up from 1.
func bulletPrefix(p Paragraph, number *int) string {
	if p.Bullet == "auto" {
		*number++
		return strconv.Itoa(*number) + ". "
	}
	*number = 0
	if p.Bullet == "" {
		return ""
	}
	return p.Bullet + " "
}

// breakLine wraps one logical line into lines no wider than maxWidth.
// A word wider than the line is kept whole on its own line.
func (r *Renderer) breakLine(spans []textSpan, align HorizontalAlignment, indent, size float64, wrap bool, maxWidth float64) []textLine {
	if len(spans) == 0 {
		return []textLine{{height: size * lineSpacing, ascent: size, align: align, indent: indent}}
	}
	avail := maxWidth - indent
	width := 0.0
	for _, sp := range spans {
		width += sp.width
	}
	if !wrap || avail <= 0 || width <= avail {
		return []textLine{newTextLine(spans, align, indent, size)}
	}

	var out []textLine
	var cur []textSpan
	curWidth := 0.0
	space := false
	for _, sp := range spans {
		words := strings.Fields(sp.text)
		if len(words) == 0 {
			space = space || sp.text != ""
			continue
		}
		lead, _ := utf8.DecodeRuneInString(sp.text)
		space = space || unicode.IsSpace(lead)
		for i, w := range words {
			if i > 0 || space {
				w = " " + w
			}
			word := r.span(sp.run, w)
			if curWidth+word.width > avail && len(cur) > 0 {
				out = append(out, newTextLine(cur, align, indent, size))
				cur, curWidth = nil, 0
				word = r.span(sp.run, strings.TrimLeft(w, " "))
			}
			if len(cur) == 0 && strings.HasPrefix(word.text, " ") {
				word = r.span(sp.run, strings.TrimLeft(word.text, " "))
			}
			cur = append(cur, word)
			curWidth += word.width
		}
		last, _ := utf8.DecodeLastRuneInString(sp.text)
		space = unicode.IsSpace(last)
	}
	if len(cur) > 0 {
		out = append(out, newTextLine(cur, align, indent, size))
	}
	return out
}

func newTextLine(spans []textSpan, align HorizontalAlignment, indent, size float64) textLine {
	ln := textLine{spans: spans, align: align, indent: indent}
	for _, sp := range spans {
		m := sp.face.Metrics()
		ln.width += sp.width
		ln.ascent = max(ln.ascent, float64(m.Ascent)/64)
		ln.height = max(ln.height, float64(m.Height)/64)
	}
	if ln.height <= 0 {
		ln.height, ln.ascent = size*lineSpacing, size
	}
	return ln
}

// drawSpan draws one span with its highlight and decorations.
func drawSpan(dst *image.RGBA, sp textSpan, x, baseline float64) {
	m := sp.face.Metrics()
	ascent := float64(m.Ascent) / 64
	if !sp.run.BackgroundColor.IsTransparent() {
		fillRect(dst, Rect{X: x, Y: baseline - ascent, Width: sp.width, Height: float64(m.Height) / 64}, sp.run.BackgroundColor)
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(sp.run.TextColor.NRGBA()),
		Face: sp.face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(baseline * 64))},
	}
	d.DrawString(sp.text)

	thickness := max(1, sp.run.FontSize/18)
	if sp.run.Underline {
		fillRect(dst, Rect{X: x, Y: baseline + thickness, Width: sp.width, Height: thickness}, sp.run.TextColor)
	}
	if sp.run.Strike {
		fillRect(dst, Rect{X: x, Y: baseline - ascent*0.3, Width: sp.width, Height: thickness}, sp.run.TextColor)
	}
}

// fillRect paints an axis-aligned rectangle over dst.
func fillRect(dst *image.RGBA, rc Rect, c Color) {
	rect := image.Rect(
		int(math.Round(rc.X)), int(math.Round(rc.Y)),
		int(math.Round(rc.Right())), int(math.Round(rc.Bottom())),
	)
	draw.Draw(dst, rect, image.NewUniform(c.NRGBA()), image.Point{}, draw.Over)
}

// plainRun builds a fully styled run in the default face.
func plainRun(text string, size float64, bold bool) TextRun {
	return TextRun{
		Text:            text,
		TextColor:       ColorBlack,
		BackgroundColor: Transparent,
		Bold:            bold,
		FontSize:        size,
		FontFamily:      "Calibri",
	}
}
