package slidescene

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ggColor converts a Color to gg's straight-alpha colour.
func ggColor(c Color) gg.RGBA {
	return gg.Hex(c.Hex())
}

func (r *Renderer) paintBackground(dst *image.RGBA, p BackgroundProps) error {
	full := dst.Bounds()
	if p.Image != nil {
		img, err := decodeImageRef(*p.Image)
		if err == nil {
			draw.Draw(dst, full, fitImage(img, full.Dx(), full.Dy(), "cover"), image.Point{}, draw.Over)
			return nil
		}
		r.log.Debug("background image not drawn", "err", err)
	}
	if p.Gradient != nil && len(p.Gradient.Stops) > 0 {
		w, h := float64(full.Dx()), float64(full.Dy())
		dc := gg.NewContext(full.Dx(), full.Dy())
		defer dc.Close()
		dc.DrawRectangle(0, 0, w, h)
		dc.SetFillBrush(gradientBrush(*p.Gradient, 0, 0, w, h))
		if err := dc.Fill(); err != nil {
			return err
		}
		draw.Draw(dst, full, dc.Image(), image.Point{}, draw.Over)
		return nil
	}
	if !p.Color.IsTransparent() {
		draw.Draw(dst, full, image.NewUniform(p.Color.NRGBA()), image.Point{}, draw.Over)
	}
	return nil
}

// gradientBrush builds a gg brush spanning the box. Angle 0 runs left to
// right and grows clockwise.
func gradientBrush(g Gradient, x, y, w, h float64) gg.Brush {
	cx, cy := x+w/2, y+h/2
	if g.Radial {
		b := gg.NewRadialGradientBrush(cx, cy, 0, math.Hypot(w, h)/2)
		for _, s := range g.Stops {
			b.AddColorStop(s.Position, ggColor(s.Color))
		}
		return b
	}
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Cos(rad), math.Sin(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	b := gg.NewLinearGradientBrush(cx-dx*half, cy-dy*half, cx+dx*half, cy+dy*half)
	for _, s := range g.Stops {
		b.AddColorStop(s.Position, ggColor(s.Color))
	}
	return b
}

// setFill selects the brush for f and reports whether anything should be
// filled. Picture fills are imported as images and never reach here.
func setFill(dc *gg.Context, f Fill, x, y, w, h float64) bool {
	switch v := f.(type) {
	case SolidFill:
		if v.Color.IsTransparent() {
			return false
		}
		dc.SetFillBrush(gg.Solid(ggColor(v.Color)))
		return true
	case GradientFill:
		if len(v.Stops) == 0 {
			return false
		}
		dc.SetFillBrush(gradientBrush(v.Gradient, x, y, w, h))
		return true
	}
	return false
}

func setStroke(dc *gg.Context, s Stroke) {
	dc.SetStrokeBrush(gg.Solid(ggColor(s.Color)))
	dc.SetLineWidth(s.Width)
	pattern := dashPattern(s.Dash)
	if pattern == nil {
		dc.SetDash()
		return
	}
	lengths := make([]float64, len(pattern))
	for i, v := range pattern {
		lengths[i] = v * s.Width
	}
	dc.SetDash(lengths...)
}

func (r *Renderer) paintShape(dst *image.RGBA, p ShapeProps) (bool, error) {
	if p.Width <= 0 || p.Height <= 0 {
		return false, nil
	}
	pad := layerPad(p.Stroke.Width)
	dc := gg.NewContext(layerSize(p.Width, p.Height, pad))
	defer dc.Close()

	x, y := float64(pad), float64(pad)
	traceGeometry(dc, p.Geometry, x, y, p.Width, p.Height)
	if setFill(dc, p.Fill, x, y, p.Width, p.Height) {
		if err := dc.FillPreserve(); err != nil {
			return false, err
		}
	}
	if p.Stroke.Visible() {
		setStroke(dc, p.Stroke)
		if err := dc.StrokePreserve(); err != nil {
			return false, err
		}
	}
	dc.ClearPath()
	layer := toRGBA(dc.Image())

	overflow := false
	if p.Text != nil && !p.Text.Empty() {
		box := Rect{X: x, Y: y, Width: p.Width, Height: p.Height}
		overflow = r.drawTextBody(layer, *p.Text, box)
	}
	composite(dst, layer, p.Frame)
	return overflow, nil
}

// traceGeometry adds the outline of g, fitted to the box, to the current
// path.
func traceGeometry(dc *gg.Context, g Geometry, x, y, w, h float64) {
	switch g.Kind {
	case ShapeEllipse:
		dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
	case ShapeCircle:
		dc.DrawCircle(x+w/2, y+h/2, min(w, h)/2)
	case ShapeTriangle:
		switch {
		case g.RightAngle:
			polygon(dc, x, y, w, h, []Position{{0, 0}, {1, 1}, {0, 1}})
		case g.Inverted:
			polygon(dc, x, y, w, h, []Position{{0, 0}, {1, 0}, {0.5, 1}})
		default:
			polygon(dc, x, y, w, h, []Position{{0.5, 0}, {1, 1}, {0, 1}})
		}
	case ShapeDiamond:
		polygon(dc, x, y, w, h, []Position{{0.5, 0}, {1, 0.5}, {0.5, 1}, {0, 0.5}})
	case ShapePentagon:
		if g.Preset == "homePlate" {
			polygon(dc, x, y, w, h, []Position{{0, 0}, {0.8, 0}, {1, 0.5}, {0.8, 1}, {0, 1}})
			return
		}
		polygon(dc, x, y, w, h, regularPolygon(5))
	case ShapeHexagon:
		if g.Preset == "octagon" {
			polygon(dc, x, y, w, h, []Position{
				{0.29, 0}, {0.71, 0}, {1, 0.29}, {1, 0.71}, {0.71, 1}, {0.29, 1}, {0, 0.71}, {0, 0.29},
			})
			return
		}
		polygon(dc, x, y, w, h, []Position{{0.25, 0}, {0.75, 0}, {1, 0.5}, {0.75, 1}, {0.25, 1}, {0, 0.5}})
	case ShapeStar:
		polygon(dc, x, y, w, h, starPoints(g.Points))
	case ShapeHeart:
		dc.MoveTo(x+w/2, y+h*0.25)
		dc.CubicTo(x+w/2, y, x, y, x, y+h*0.3)
		dc.CubicTo(x, y+h*0.6, x+w/2, y+h*0.8, x+w/2, y+h)
		dc.CubicTo(x+w/2, y+h*0.8, x+w, y+h*0.6, x+w, y+h*0.3)
		dc.CubicTo(x+w, y, x+w/2, y, x+w/2, y+h*0.25)
		dc.ClosePath()
	case ShapeArrow:
		polygon(dc, x, y, w, h, arrowPoints(g, w, h))
	default:
		if g.CornerRadius > 0 {
			dc.DrawRoundedRectangle(x, y, w, h, g.CornerRadius*min(w, h))
			return
		}
		dc.DrawRectangle(x, y, w, h)
	}
}

// polygon adds a closed outline whose points are fractions of the box.
func polygon(dc *gg.Context, x, y, w, h float64, pts []Position) {
	for i, p := range pts {
		px, py := x+p.X*w, y+p.Y*h
		if i == 0 {
			dc.MoveTo(px, py)
			continue
		}
		dc.LineTo(px, py)
	}
	dc.ClosePath()
}

// regularPolygon returns n vertices on the unit box, first vertex on top.
func regularPolygon(n int) []Position {
	pts := make([]Position, n)
	for i := range pts {
		a := -math.Pi/2 + float64(i)*2*math.Pi/float64(n)
		pts[i] = Position{X: 0.5 + 0.5*math.Cos(a), Y: 0.5 + 0.5*math.Sin(a)}
	}
	return pts
}

// starInnerRatio is the inner to outer radius ratio of drawn stars.
const starInnerRatio = 0.38

func starPoints(n int) []Position {
	if n < 3 {
		n = 5
	}
	pts := make([]Position, 0, 2*n)
	for i := 0; i < 2*n; i++ {
		rad := 0.5
		if i%2 == 1 {
			rad *= starInnerRatio
		}
		a := -math.Pi/2 + float64(i)*math.Pi/float64(n)
		pts = append(pts, Position{X: 0.5 + rad*math.Cos(a), Y: 0.5 + rad*math.Sin(a)})
	}
	return pts
}

// arrowPoints returns the block-arrow outline for the arrow's direction.
// Points are (along, across) pairs mapped onto the box afterwards.
func arrowPoints(g Geometry, w, h float64) []Position {
	if g.Preset == "chevron" {
		head := min(0.5, h/2/max(w, 1))
		return []Position{{0, 0}, {1 - head, 0}, {1, 0.5}, {1 - head, 1}, {0, 1}, {head, 0.5}}
	}
	length, thickness := w, h
	vertical := g.Direction == ArrowUp || g.Direction == ArrowDown
	if vertical {
		length, thickness = h, w
	}
	head := min(0.4, thickness/max(length, 1))
	var pts []Position
	if g.Direction == ArrowBoth {
		head = min(head, 0.3)
		pts = []Position{
			{0, 0.5}, {head, 0}, {head, 0.25}, {1 - head, 0.25}, {1 - head, 0},
			{1, 0.5}, {1 - head, 1}, {1 - head, 0.75}, {head, 0.75}, {head, 1},
		}
	} else {
		pts = []Position{{0, 0.25}, {1 - head, 0.25}, {1 - head, 0}, {1, 0.5}, {1 - head, 1}, {1 - head, 0.75}, {0, 0.75}}
	}
	for i, p := range pts {
		switch g.Direction {
		case ArrowLeft:
			pts[i] = Position{X: 1 - p.X, Y: p.Y}
		case ArrowDown:
			pts[i] = Position{X: p.Y, Y: p.X}
		case ArrowUp:
			pts[i] = Position{X: p.Y, Y: 1 - p.X}
		}
	}
	return pts
}

func (r *Renderer) paintImage(dst *image.RGBA, p ImageProps) error {
	if p.Width <= 0 || p.Height <= 0 {
		return nil
	}
	src, err := decodeImageRef(p.Image)
	if err != nil {
		return err
	}
	w, h := int(math.Ceil(p.Width)), int(math.Ceil(p.Height))
	fitted := fitImage(src, w, h, p.ObjectFit)
	if p.Mask != nil && needsMask(*p.Mask) {
		if err := maskImage(fitted, *p.Mask); err != nil {
			return err
		}
	}
	const pad = 1
	layer := newLayer(p.Width, p.Height, pad)
	draw.Draw(layer, fitted.Bounds().Add(image.Pt(pad, pad)), fitted, image.Point{}, draw.Src)
	composite(dst, layer, p.Frame)
	return nil
}

// maxSourcePixels bounds the decoded size of an embedded image.
const maxSourcePixels = 1 << 26

// decodeImageRef decodes the payload and applies its crop and flips.
func decodeImageRef(ref ImageRef) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(ref.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.MimeType, err)
	}
	if cfg.Width*cfg.Height > maxSourcePixels {
		return nil, fmt.Errorf("decode %s: %dx%d image is too large", ref.MimeType, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(ref.Data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ref.MimeType, err)
	}
	img = cropImage(img, ref.Crop)
	if ref.FlipH || ref.FlipV {
		img = flipImage(toRGBA(img), ref.FlipH, ref.FlipV)
	}
	return img, nil
}

func cropImage(img image.Image, c *Crop) image.Image {
	if c.IsZero() {
		return img
	}
	b := img.Bounds()
	dx, dy := float64(b.Dx()), float64(b.Dy())
	rect := image.Rect(
		b.Min.X+int(math.Round(c.Left*dx)),
		b.Min.Y+int(math.Round(c.Top*dy)),
		b.Max.X-int(math.Round(c.Right*dx)),
		b.Max.Y-int(math.Round(c.Bottom*dy)),
	)
	if rect.Empty() {
		return img
	}
	if sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	}); ok {
		return sub.SubImage(rect)
	}
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(out, out.Bounds(), img, rect.Min, draw.Src)
	return out
}

func flipImage(img *image.RGBA, flipH, flipV bool) *image.RGBA {
	w, h := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	m := f64.Aff3{1, 0, 0, 0, 1, 0}
	if flipH {
		m[0], m[2] = -1, w
	}
	if flipV {
		m[4], m[5] = -1, h
	}
	out := image.NewRGBA(img.Bounds())
	draw.NearestNeighbor.Transform(out, m, img, img.Bounds(), draw.Src, nil)
	return out
}

// fitImage scales src into a w x h image following a CSS-like object-fit:
// "cover" crops to fill, "contain" letterboxes, anything else stretches.
func fitImage(src image.Image, w, h int, fit string) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	sb := src.Bounds()
	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	if sw <= 0 || sh <= 0 {
		return out
	}
	switch fit {
	case "contain":
		s := min(float64(w)/sw, float64(h)/sh)
		dw, dh := int(math.Round(sw*s)), int(math.Round(sh*s))
		x0, y0 := (w-dw)/2, (h-dh)/2
		draw.BiLinear.Scale(out, image.Rect(x0, y0, x0+dw, y0+dh), src, sb, draw.Src, nil)
	case "cover":
		s := max(float64(w)/sw, float64(h)/sh)
		vw, vh := float64(w)/s, float64(h)/s
		x0 := sb.Min.X + int(math.Round((sw-vw)/2))
		y0 := sb.Min.Y + int(math.Round((sh-vh)/2))
		visible := image.Rect(x0, y0, x0+int(math.Round(vw)), y0+int(math.Round(vh))).Intersect(sb)
		if visible.Empty() {
			visible = sb
		}
		draw.BiLinear.Scale(out, out.Bounds(), src, visible, draw.Src, nil)
	default:
		draw.BiLinear.Scale(out, out.Bounds(), src, sb, draw.Src, nil)
	}
	return out
}

// needsMask reports whether g clips anything off a rectangular image.
func needsMask(g Geometry) bool {
	return g.Kind != ShapeRectangle || g.CornerRadius > 0
}

// maskImage clears the pixels of img outside the geometry.
func maskImage(img *image.RGBA, g Geometry) error {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	traceGeometry(dc, g, 0, 0, float64(b.Dx()), float64(b.Dy()))
	dc.SetFillBrush(gg.Solid(gg.RGBA2(1, 1, 1, 1)))
	if err := dc.Fill(); err != nil {
		return err
	}
	out := image.NewRGBA(b)
	draw.DrawMask(out, b, img, b.Min, dc.Image(), image.Point{}, draw.Src)
	copy(img.Pix, out.Pix)
	return nil
}

func (r *Renderer) paintLine(dst *image.RGBA, p LineProps) error {
	if !p.Stroke.Visible() {
		return nil
	}
	box := Rect{
		X:      min(p.Start.X, p.End.X),
		Y:      min(p.Start.Y, p.End.Y),
		Width:  math.Abs(p.End.X - p.Start.X),
		Height: math.Abs(p.End.Y - p.Start.Y),
	}
	pad := layerPad(arrowLength(p.Stroke.Width))
	dc := gg.NewContext(layerSize(box.Width, box.Height, pad))
	defer dc.Close()

	ox, oy := float64(pad)-box.X, float64(pad)-box.Y
	x1, y1 := p.Start.X+ox, p.Start.Y+oy
	x2, y2 := p.End.X+ox, p.End.Y+oy

	setStroke(dc, p.Stroke)
	dc.SetLineCap(gg.LineCapButt)
	dc.DrawLine(x1, y1, x2, y2)
	if err := dc.Stroke(); err != nil {
		return err
	}
	dc.SetDash()
	if drawArrowHead(dc, x2, y2, x1, y1, p.StartArrow, p.Stroke) {
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	if drawArrowHead(dc, x1, y1, x2, y2, p.EndArrow, p.Stroke) {
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	layer := toRGBA(dc.Image())
	composite(dst, layer, Frame{
		Position: Position{X: box.X, Y: box.Y},
		Width:    box.Width,
		Height:   box.Height,
		Opacity:  p.Opacity,
	})
	return nil
}

func arrowLength(width float64) float64 {
	return max(width*3, 6)
}

// drawArrowHead traces a line end of the given kind at (tx, ty), pointing
// away from (fx, fy). It reports whether a path was added.
func drawArrowHead(dc *gg.Context, fx, fy, tx, ty float64, kind string, s Stroke) bool {
	if kind == "" || kind == "none" {
		return false
	}
	dx, dy := tx-fx, ty-fy
	d := math.Hypot(dx, dy)
	if d == 0 {
		return false
	}
	ux, uy := dx/d, dy/d
	nx, ny := -uy, ux
	l := arrowLength(s.Width)
	half := l / 2
	bx, by := tx-ux*l, ty-uy*l

	dc.SetFillBrush(gg.Solid(ggColor(s.Color)))
	switch kind {
	case "oval":
		dc.DrawCircle(tx, ty, half)
	case "diamond":
		dc.MoveTo(tx+ux*half, ty+uy*half)
		dc.LineTo(tx+nx*half, ty+ny*half)
		dc.LineTo(tx-ux*half, ty-uy*half)
		dc.LineTo(tx-nx*half, ty-ny*half)
		dc.ClosePath()
	case "stealth":
		mx, my := tx-ux*l*0.6, ty-uy*l*0.6
		dc.MoveTo(tx, ty)
		dc.LineTo(bx+nx*half, by+ny*half)
		dc.LineTo(mx, my)
		dc.LineTo(bx-nx*half, by-ny*half)
		dc.ClosePath()
	default:
		dc.MoveTo(tx, ty)
		dc.LineTo(bx+nx*half, by+ny*half)
		dc.LineTo(bx-nx*half, by-ny*half)
		dc.ClosePath()
	}
	return true
}

// Table grid style.
const (
	tableGridColor Color = "#BFBFBFFF"
	tableCellPad         = 4.0
)

func (r *Renderer) paintTable(dst *image.RGBA, p TableProps) (bool, error) {
	if p.Width <= 0 || p.Height <= 0 || len(p.Columns) == 0 || len(p.Rows) == 0 {
		return false, nil
	}
	cols := fitTracks(p.Columns, p.Width)
	heights := make([]float64, len(p.Rows))
	for i, row := range p.Rows {
		heights[i] = row.Height
	}
	rows := fitTracks(heights, p.Height)

	const pad = 1
	dc := gg.NewContext(layerSize(p.Width, p.Height, pad))
	defer dc.Close()

	type cellBox struct {
		cell TableCell
		box  Rect
	}
	var cells []cellBox
	y := float64(pad)
	for ri, row := range p.Rows {
		x := float64(pad)
		for ci, cell := range row.Cells {
			if ci >= len(cols) {
				break
			}
			w := spanSum(cols, ci, max(cell.GridSpan, 1))
			h := spanSum(rows, ri, max(cell.RowSpan, 1))
			if !cell.Merged {
				cells = append(cells, cellBox{cell: cell, box: Rect{X: x, Y: y, Width: w, Height: h}})
			}
			x += cols[ci]
		}
		y += rows[ri]
	}

	for _, c := range cells {
		if c.cell.Fill.IsTransparent() {
			continue
		}
		dc.DrawRectangle(c.box.X, c.box.Y, c.box.Width, c.box.Height)
		dc.SetFillBrush(gg.Solid(ggColor(c.cell.Fill)))
		if err := dc.Fill(); err != nil {
			return false, err
		}
	}
	setStroke(dc, Stroke{Color: tableGridColor, Width: 1})
	for _, c := range cells {
		dc.DrawRectangle(c.box.X, c.box.Y, c.box.Width, c.box.Height)
	}
	if err := dc.Stroke(); err != nil {
		return false, err
	}
	layer := toRGBA(dc.Image())

	overflow := false
	for _, c := range cells {
		if len(c.cell.Paragraphs) == 0 {
			continue
		}
		body := TextBody{
			Paragraphs:        c.cell.Paragraphs,
			VerticalAlignment: VerticalTop,
			Padding:           Insets{Left: tableCellPad, Top: tableCellPad, Right: tableCellPad, Bottom: tableCellPad},
			Wrap:              true,
		}
		if r.drawTextBody(layer, body, c.box) {
			overflow = true
		}
	}
	composite(dst, layer, p.Frame)
	return overflow, nil
}

// fitTracks scales track sizes so they sum to total. Missing sizes share
// the remainder evenly.
func fitTracks(sizes []float64, total float64) []float64 {
	out := make([]float64, len(sizes))
	sum := 0.0
	for _, s := range sizes {
		sum += max(s, 0)
	}
	for i, s := range sizes {
		if sum <= 0 {
			out[i] = total / float64(len(sizes))
			continue
		}
		out[i] = max(s, 0) * total / sum
	}
	return out
}

func spanSum(tracks []float64, from, span int) float64 {
	sum := 0.0
	for i := from; i < from+span && i < len(tracks); i++ {
		sum += tracks[i]
	}
	return sum
}

// chartColors are used for series without an imported colour.
var chartColors = []Color{"#4472C4FF", "#ED7D31FF", "#A5A5A5FF", "#FFC000FF", "#5B9BD5FF", "#70AD47FF"}

func seriesColor(s ChartSeries, i int) Color {
	if !s.Color.IsTransparent() {
		return s.Color
	}
	return chartColors[i%len(chartColors)]
}

// paintChart draws a simplified preview of the chart data: bars for bar
// and column charts, wedges for pies, polylines for everything else.
func (r *Renderer) paintChart(dst *image.RGBA, p ChartProps) error {
	if p.Width <= 0 || p.Height <= 0 {
		return nil
	}
	const pad = 2
	dc := gg.NewContext(layerSize(p.Width, p.Height, pad))
	defer dc.Close()

	plot := Rect{X: pad + p.Width*0.08, Y: pad + p.Height*0.1, Width: p.Width * 0.84, Height: p.Height * 0.8}
	var err error
	switch p.ChartType {
	case ChartPie, ChartDoughnut:
		err = drawPie(dc, p, plot)
	case ChartBar, ChartColumn:
		err = drawBars(dc, p, plot)
	default:
		err = drawSeriesLines(dc, p, plot)
	}
	if err != nil {
		return err
	}
	setStroke(dc, Stroke{Color: tableGridColor, Width: 1})
	if p.ChartType != ChartPie && p.ChartType != ChartDoughnut {
		dc.DrawLine(plot.X, plot.Bottom(), plot.Right(), plot.Bottom())
		dc.DrawLine(plot.X, plot.Y, plot.X, plot.Bottom())
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	layer := toRGBA(dc.Image())

	if p.Title != "" {
		size := max(10, p.Height*0.06)
		title := TextBody{
			Paragraphs: []Paragraph{{
				Alignment: HorizontalCenter,
				Runs:      []TextRun{plainRun(p.Title, size, true)},
			}},
			VerticalAlignment: VerticalTop,
			Wrap:              true,
		}
		r.drawTextBody(layer, title, Rect{X: pad, Y: pad, Width: p.Width, Height: p.Height * 0.1})
	}
	composite(dst, layer, p.Frame)
	return nil
}

// valueRange returns the span of all series values, always including zero.
func valueRange(series []ChartSeries) (lo, hi float64) {
	for _, s := range series {
		for _, v := range s.Values {
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func pointCount(series []ChartSeries) int {
	n := 0
	for _, s := range series {
		n = max(n, len(s.Values))
	}
	return n
}

func drawBars(dc *gg.Context, p ChartProps, plot Rect) error {
	n := pointCount(p.Series)
	if n == 0 || len(p.Series) == 0 {
		return nil
	}
	lo, hi := valueRange(p.Series)
	horizontal := p.ChartType == ChartBar
	extent, breadth := plot.Height, plot.Width
	if horizontal {
		extent, breadth = plot.Width, plot.Height
	}
	slot := breadth / float64(n)
	bar := slot * 0.8 / float64(len(p.Series))
	scale := extent / (hi - lo)
	zero := -lo * scale

	for si, s := range p.Series {
		dc.SetFillBrush(gg.Solid(ggColor(seriesColor(s, si))))
		for i, v := range s.Values {
			along := float64(i)*slot + slot*0.1 + float64(si)*bar
			from, to := zero, zero+v*scale
			if to < from {
				from, to = to, from
			}
			if horizontal {
				dc.DrawRectangle(plot.X+from, plot.Y+along, to-from, bar)
			} else {
				dc.DrawRectangle(plot.X+along, plot.Bottom()-to, bar, to-from)
			}
		}
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

func drawSeriesLines(dc *gg.Context, p ChartProps, plot Rect) error {
	n := pointCount(p.Series)
	if n == 0 {
		return nil
	}
	lo, hi := valueRange(p.Series)
	step := plot.Width / float64(max(n-1, 1))
	for si, s := range p.Series {
		c := seriesColor(s, si)
		for i, v := range s.Values {
			x := plot.X + float64(i)*step
			y := plot.Bottom() - (v-lo)/(hi-lo)*plot.Height
			if p.ChartType == ChartScatter || p.ChartType == ChartBubble {
				dc.DrawCircle(x, y, 3)
				continue
			}
			if i == 0 {
				dc.MoveTo(x, y)
				continue
			}
			dc.LineTo(x, y)
		}
		if p.ChartType == ChartScatter || p.ChartType == ChartBubble {
			dc.SetFillBrush(gg.Solid(ggColor(c)))
			if err := dc.Fill(); err != nil {
				return err
			}
			continue
		}
		setStroke(dc, Stroke{Color: c, Width: 2})
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}

func drawPie(dc *gg.Context, p ChartProps, plot Rect) error {
	if len(p.Series) == 0 {
		return nil
	}
	values := p.Series[0].Values
	total := 0.0
	for _, v := range values {
		total += max(v, 0)
	}
	if total <= 0 {
		return nil
	}
	cx, cy := plot.X+plot.Width/2, plot.Y+plot.Height/2
	radius := min(plot.Width, plot.Height) / 2
	angle := -math.Pi / 2
	for i, v := range values {
		if v <= 0 {
			continue
		}
		sweep := v / total * 2 * math.Pi
		dc.MoveTo(cx, cy)
		dc.LineTo(cx+radius*math.Cos(angle), cy+radius*math.Sin(angle))
		dc.DrawArc(cx, cy, radius, angle, angle+sweep)
		dc.ClosePath()
		dc.SetFillBrush(gg.Solid(ggColor(chartColors[i%len(chartColors)])))
		if err := dc.Fill(); err != nil {
			return err
		}
		angle += sweep
	}
	if p.ChartType == ChartDoughnut {
		dc.DrawCircle(cx, cy, radius/2)
		dc.SetFillBrush(gg.Solid(gg.RGBA2(1, 1, 1, 1)))
		return dc.Fill()
	}
	return nil
}
