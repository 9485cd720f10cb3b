package slidescene

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/bmp"
)

// Enhanced Metafiles are the usual format for pasted vector art and
// equations in presentations. Registering the format lets pictures and the
// renderer decode them like any other image.
func init() {
	image.RegisterFormat("emf", emfMagic, decodeEMF, decodeEMFConfig)
}

// emfMagic matches an EMR_HEADER record carrying the " EMF" signature.
var emfMagic = "\x01\x00\x00\x00" + strings.Repeat("?", 36) + " EMF"

// EMF record types.
const (
	emrHeader              = 0x01
	emrPolyBezier          = 0x02
	emrPolygon             = 0x03
	emrPolyline            = 0x04
	emrPolyBezierTo        = 0x05
	emrPolylineTo          = 0x06
	emrSetWindowExtEx      = 0x09
	emrSetWindowOrgEx      = 0x0A
	emrSetViewportExtEx    = 0x0B
	emrSetViewportOrgEx    = 0x0C
	emrEOF                 = 0x0E
	emrSetPolyFillMode     = 0x13
	emrMoveToEx            = 0x1B
	emrSelectObject        = 0x25
	emrCreatePen           = 0x26
	emrCreateBrushIndirect = 0x27
	emrDeleteObject        = 0x28
	emrEllipse             = 0x2A
	emrRectangle           = 0x2B
	emrLineTo              = 0x36
	emrBeginPath           = 0x3B
	emrEndPath             = 0x3C
	emrCloseFigure         = 0x3D
	emrFillPath            = 0x3E
	emrStrokeAndFillPath   = 0x3F
	emrStrokePath          = 0x40
	emrSelectClipPath      = 0x43
	emrAbortPath           = 0x44
	emrStretchDIBits       = 0x51
	emrPolyBezier16        = 0x55
	emrPolygon16           = 0x56
	emrPolyline16          = 0x57
	emrPolyBezierTo16      = 0x58
	emrPolylineTo16        = 0x59
)

// Stock objects selectable without creating them first.
const (
	stockWhiteBrush  = 0x80000000
	stockLtGrayBrush = 0x80000001
	stockGrayBrush   = 0x80000002
	stockDkGrayBrush = 0x80000003
	stockBlackBrush  = 0x80000004
	stockNullBrush   = 0x80000005
	stockWhitePen    = 0x80000006
	stockBlackPen    = 0x80000007
	stockNullPen     = 0x80000008
)

const (
	// emfMinSize is the smallest long edge of a rasterised metafile; small
	// device bounds are scaled up to it.
	emfMinSize = 300.0
	// emfMaxSize caps either dimension of the raster.
	emfMaxSize = 2000
)

var (
	errEMFHeader = errors.New("emf: invalid header")
	errEMFEmpty  = errors.New("emf: no drawing records")
)

type emfRecord struct {
	kind uint32
	data []byte // whole record, type and size included
}

func (r emfRecord) u32(off int) uint32 {
	if off+4 > len(r.data) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.data[off:])
}

func (r emfRecord) i32(off int) int32 { return int32(r.u32(off)) }

func (r emfRecord) i16(off int) int16 {
	if off+2 > len(r.data) {
		return 0
	}
	return int16(binary.LittleEndian.Uint16(r.data[off:]))
}

// colorRef reads a COLORREF (0x00BBGGRR) as an opaque colour.
func (r emfRecord) colorRef(off int) Color {
	if off+3 > len(r.data) {
		return ColorBlack
	}
	return RGBA(r.data[off], r.data[off+1], r.data[off+2], 255)
}

// emfRecords splits data into records, stopping at EMR_EOF or at the
// first record whose size runs past the data.
func emfRecords(data []byte) []emfRecord {
	var out []emfRecord
	for pos := 0; pos+8 <= len(data); {
		kind := binary.LittleEndian.Uint32(data[pos:])
		size := int(binary.LittleEndian.Uint32(data[pos+4:]))
		if size < 8 || size%4 != 0 || pos+size > len(data) {
			break
		}
		out = append(out, emfRecord{kind: kind, data: data[pos : pos+size]})
		if kind == emrEOF {
			break
		}
		pos += size
	}
	return out
}

// emfLayout is the raster size for a metafile and the factor mapping
// device units onto it.
type emfLayout struct {
	bounds        image.Rectangle
	width, height int
	scale         float64
}

func parseEMFLayout(records []emfRecord) (emfLayout, error) {
	if len(records) == 0 || records[0].kind != emrHeader || len(records[0].data) < 88 {
		return emfLayout{}, errEMFHeader
	}
	h := records[0]
	b := image.Rect(int(h.i32(8)), int(h.i32(12)), int(h.i32(16)), int(h.i32(20)))
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return emfLayout{}, errEMFHeader
	}
	scale := 1.0
	if long := float64(max(b.Dx(), b.Dy())); long < emfMinSize {
		scale = emfMinSize / long
	}
	w := min(int(float64(b.Dx())*scale)+2, emfMaxSize)
	hgt := min(int(float64(b.Dy())*scale)+2, emfMaxSize)
	return emfLayout{bounds: b, width: w, height: hgt, scale: scale}, nil
}

// emfDraws reports whether any record puts ink on the page.
func emfDraws(records []emfRecord) bool {
	for _, r := range records {
		switch r.kind {
		case emrPolyBezier, emrPolygon, emrPolyline, emrPolyBezierTo, emrPolylineTo,
			emrEllipse, emrRectangle, emrLineTo, emrFillPath, emrStrokeAndFillPath,
			emrStrokePath, emrStretchDIBits, emrPolyBezier16, emrPolygon16,
			emrPolyline16, emrPolyBezierTo16, emrPolylineTo16:
			return true
		}
	}
	return false
}

func decodeEMFConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	records := emfRecords(data)
	layout, err := parseEMFLayout(records)
	if err != nil {
		return image.Config{}, err
	}
	if !emfDraws(records) {
		return image.Config{}, errEMFEmpty
	}
	return image.Config{ColorModel: color.RGBAModel, Width: layout.width, Height: layout.height}, nil
}

func decodeEMF(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	records := emfRecords(data)
	layout, err := parseEMFLayout(records)
	if err != nil {
		return nil, err
	}
	p := newEMFPlayer(layout)
	defer p.dc.Close()
	p.play(records)
	if !p.drawn {
		return nil, errEMFEmpty
	}
	return toRGBA(p.dc.Image()), nil
}

type emfBrush struct {
	color Color
	null  bool
}

type emfPen struct {
	color Color
	width float64 // logical units, 0 is one device pixel
	null  bool
}

// emfPlayer replays drawing records onto a gg context. Path records between
// EMR_BEGINPATH and EMR_ENDPATH build the context's current path; outside a
// bracket every primitive is painted immediately.
type emfPlayer struct {
	dc     *gg.Context
	layout emfLayout

	winOrg, winExt image.Point
	vpOrg, vpExt   image.Point

	brushes map[uint32]emfBrush
	pens    map[uint32]emfPen
	brush   emfBrush
	pen     emfPen

	inPath bool
	cur    Position
	drawn  bool
}

func newEMFPlayer(l emfLayout) *emfPlayer {
	return &emfPlayer{
		dc:      gg.NewContext(l.width, l.height),
		layout:  l,
		winExt:  image.Pt(1, 1),
		vpExt:   image.Pt(1, 1),
		brushes: make(map[uint32]emfBrush),
		pens:    make(map[uint32]emfPen),
		brush:   emfBrush{color: ColorWhite},
		pen:     emfPen{null: true},
	}
}

// emfRatio is the logical to device factor along one axis.
func emfRatio(vp, win int) float64 {
	if win == 0 || vp == 0 {
		return 1
	}
	return float64(vp) / float64(win)
}

// point maps logical coordinates to raster pixels.
func (p *emfPlayer) point(lx, ly int32) Position {
	dx := float64(int(lx)-p.winOrg.X)*emfRatio(p.vpExt.X, p.winExt.X) + float64(p.vpOrg.X)
	dy := float64(int(ly)-p.winOrg.Y)*emfRatio(p.vpExt.Y, p.winExt.Y) + float64(p.vpOrg.Y)
	return Position{
		X: (dx-float64(p.layout.bounds.Min.X))*p.layout.scale + 1,
		Y: (dy-float64(p.layout.bounds.Min.Y))*p.layout.scale + 1,
	}
}

// points reads the point array of a poly record. Short records use 16-bit
// coordinates.
func (p *emfPlayer) points(r emfRecord, short bool) []Position {
	n := int(r.u32(24))
	stride := 8
	if short {
		stride = 4
	}
	if n <= 0 || 28+n*stride > len(r.data) {
		return nil
	}
	pts := make([]Position, n)
	for i := range pts {
		off := 28 + i*stride
		if short {
			pts[i] = p.point(int32(r.i16(off)), int32(r.i16(off+2)))
		} else {
			pts[i] = p.point(r.i32(off), r.i32(off+4))
		}
	}
	return pts
}

func (p *emfPlayer) play(records []emfRecord) {
	p.dc.SetFillRule(gg.FillRuleEvenOdd)
	for i, r := range records {
		switch r.kind {
		case emrSetWindowExtEx:
			p.winExt = image.Pt(int(r.i32(8)), int(r.i32(12)))
		case emrSetWindowOrgEx:
			p.winOrg = image.Pt(int(r.i32(8)), int(r.i32(12)))
		case emrSetViewportExtEx:
			p.vpExt = image.Pt(int(r.i32(8)), int(r.i32(12)))
		case emrSetViewportOrgEx:
			p.vpOrg = image.Pt(int(r.i32(8)), int(r.i32(12)))
		case emrSetPolyFillMode:
			if r.u32(8) == 2 {
				p.dc.SetFillRule(gg.FillRuleNonZero)
			} else {
				p.dc.SetFillRule(gg.FillRuleEvenOdd)
			}
		case emrCreatePen:
			p.pens[r.u32(8)] = emfPen{
				null:  r.u32(12)&0x0F == 5,
				width: float64(r.i32(16)),
				color: r.colorRef(24),
			}
		case emrCreateBrushIndirect:
			p.brushes[r.u32(8)] = emfBrush{null: r.u32(12) == 1, color: r.colorRef(16)}
		case emrDeleteObject:
			delete(p.brushes, r.u32(8))
			delete(p.pens, r.u32(8))
		case emrSelectObject:
			p.selectObject(r.u32(8))

		case emrBeginPath:
			p.dc.ClearPath()
			p.inPath = true
		case emrEndPath:
			p.inPath = false
		case emrCloseFigure:
			p.dc.ClosePath()
		case emrAbortPath, emrSelectClipPath:
			p.dc.ClearPath()
			p.inPath = false
		case emrFillPath:
			// Office writes clip regions as a fill immediately discarded by
			// CLOSEFIGURE and ABORTPATH.
			if i+2 < len(records) && records[i+1].kind == emrCloseFigure && records[i+2].kind == emrAbortPath {
				p.dc.ClearPath()
				continue
			}
			p.paint(true, false)
		case emrStrokeAndFillPath:
			p.paint(true, true)
		case emrStrokePath:
			p.paint(false, true)

		case emrMoveToEx:
			p.cur = p.point(r.i32(8), r.i32(12))
			if p.inPath {
				p.dc.MoveTo(p.cur.X, p.cur.Y)
			}
		case emrLineTo:
			to := p.point(r.i32(8), r.i32(12))
			p.polyline([]Position{to}, true)
		case emrPolyline, emrPolyline16:
			p.polyline(p.points(r, r.kind == emrPolyline16), false)
		case emrPolylineTo, emrPolylineTo16:
			p.polyline(p.points(r, r.kind == emrPolylineTo16), true)
		case emrPolygon, emrPolygon16:
			p.polygon(p.points(r, r.kind == emrPolygon16))
		case emrPolyBezier, emrPolyBezier16:
			p.bezier(p.points(r, r.kind == emrPolyBezier16), false)
		case emrPolyBezierTo, emrPolyBezierTo16:
			p.bezier(p.points(r, r.kind == emrPolyBezierTo16), true)
		case emrRectangle, emrEllipse:
			a := p.point(r.i32(8), r.i32(12))
			b := p.point(r.i32(16), r.i32(20))
			x, y := min(a.X, b.X), min(a.Y, b.Y)
			w, h := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)
			if r.kind == emrRectangle {
				p.dc.DrawRectangle(x, y, w, h)
			} else {
				p.dc.DrawEllipse(x+w/2, y+h/2, w/2, h/2)
			}
			if !p.inPath {
				p.paint(true, true)
			}
		case emrStretchDIBits:
			p.stretchDIBits(r)
		}
	}
}

func (p *emfPlayer) selectObject(handle uint32) {
	switch handle {
	case stockWhiteBrush:
		p.brush = emfBrush{color: ColorWhite}
	case stockLtGrayBrush:
		p.brush = emfBrush{color: "#C0C0C0FF"}
	case stockGrayBrush:
		p.brush = emfBrush{color: "#808080FF"}
	case stockDkGrayBrush:
		p.brush = emfBrush{color: "#404040FF"}
	case stockBlackBrush:
		p.brush = emfBrush{color: ColorBlack}
	case stockNullBrush:
		p.brush = emfBrush{null: true}
	case stockWhitePen:
		p.pen = emfPen{color: ColorWhite}
	case stockBlackPen:
		p.pen = emfPen{color: ColorBlack}
	case stockNullPen:
		p.pen = emfPen{null: true}
	default:
		if b, ok := p.brushes[handle]; ok {
			p.brush = b
		}
		if pen, ok := p.pens[handle]; ok {
			p.pen = pen
		}
	}
}

// polyline adds line segments through pts. Outside a path bracket the
// segments are stroked at once.
func (p *emfPlayer) polyline(pts []Position, fromCurrent bool) {
	if len(pts) == 0 {
		return
	}
	start := 0
	if fromCurrent {
		p.moveIfOpen(p.cur)
	} else {
		p.dc.MoveTo(pts[0].X, pts[0].Y)
		start = 1
	}
	for _, pt := range pts[start:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.cur = pts[len(pts)-1]
	if !p.inPath {
		p.paint(false, true)
	}
}

func (p *emfPlayer) polygon(pts []Position) {
	if len(pts) < 3 {
		return
	}
	p.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.dc.LineTo(pt.X, pt.Y)
	}
	p.dc.ClosePath()
	if !p.inPath {
		p.paint(true, true)
	}
}

// bezier adds cubic segments. PolyBezier records carry their own start
// point; PolyBezierTo continues from the current position.
func (p *emfPlayer) bezier(pts []Position, fromCurrent bool) {
	if fromCurrent {
		p.moveIfOpen(p.cur)
	} else {
		if len(pts) < 4 {
			return
		}
		p.dc.MoveTo(pts[0].X, pts[0].Y)
		p.cur = pts[0]
		pts = pts[1:]
	}
	for i := 0; i+2 < len(pts); i += 3 {
		p.dc.CubicTo(pts[i].X, pts[i].Y, pts[i+1].X, pts[i+1].Y, pts[i+2].X, pts[i+2].Y)
		p.cur = pts[i+2]
	}
	if !p.inPath {
		p.paint(false, true)
	}
}

// moveIfOpen starts a subpath at pt unless a path bracket is already
// collecting segments from the current position.
func (p *emfPlayer) moveIfOpen(pt Position) {
	if !p.inPath {
		p.dc.MoveTo(pt.X, pt.Y)
	}
}

// paint fills and strokes the current path with the selected objects and
// clears it.
func (p *emfPlayer) paint(fill, stroke bool) {
	defer p.dc.ClearPath()
	if fill && !p.brush.null {
		p.dc.SetFillBrush(gg.Solid(ggColor(p.brush.color)))
		if err := p.dc.FillPreserve(); err == nil {
			p.drawn = true
		}
	}
	if stroke && !p.pen.null {
		w := p.pen.width * math.Abs(emfRatio(p.vpExt.X, p.winExt.X)) * p.layout.scale
		p.dc.SetStrokeBrush(gg.Solid(ggColor(p.pen.color)))
		p.dc.SetLineWidth(max(w, 1))
		if err := p.dc.StrokePreserve(); err == nil {
			p.drawn = true
		}
	}
}

// stretchDIBits draws an embedded device-independent bitmap into its
// destination rectangle.
func (p *emfPlayer) stretchDIBits(r emfRecord) {
	offBmi, cbBmi := int(r.u32(48)), int(r.u32(52))
	offBits, cbBits := int(r.u32(56)), int(r.u32(60))
	img, err := decodeDIB(r.data, offBmi, cbBmi, offBits, cbBits)
	if err != nil {
		return
	}
	a := p.point(r.i32(24), r.i32(28))
	b := p.point(r.i32(24)+r.i32(72), r.i32(28)+r.i32(76))
	w, h := math.Abs(b.X-a.X), math.Abs(b.Y-a.Y)
	if w < 1 || h < 1 {
		return
	}
	p.dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         min(a.X, b.X),
		Y:         min(a.Y, b.Y),
		DstWidth:  w,
		DstHeight: h,
	})
	p.drawn = true
}

// decodeDIB decodes a bitmap header and pixel array by prefixing them with
// a BMP file header.
func decodeDIB(rec []byte, offBmi, cbBmi, offBits, cbBits int) (image.Image, error) {
	if cbBmi < 40 || cbBits <= 0 || offBmi < 0 || offBits < 0 ||
		offBmi+cbBmi > len(rec) || offBits+cbBits > len(rec) {
		return nil, errors.New("emf: bitmap out of range")
	}
	var buf bytes.Buffer
	buf.Grow(14 + cbBmi + cbBits)
	buf.WriteString("BM")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(14+cbBmi+cbBits))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(14+cbBmi))
	buf.Write(rec[offBmi : offBmi+cbBmi])
	buf.Write(rec[offBits : offBits+cbBits])
	return bmp.Decode(&buf)
}
