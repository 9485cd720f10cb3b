package slidescene

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Renderer composites slides of a Deck into raster previews and reports
// layout diagnostics. It holds no per-render state, so one Renderer can
// serve concurrent calls.
type Renderer struct {
	fonts  *FontCache
	log    *log.Logger
	canvas Size
	page   color.Color

	// faces is set only on the per-render copy made by session.
	faces *faceCache
}

// RenderOption configures a Renderer.
type RenderOption func(*Renderer)

// WithFontCache shares a pre-configured FontCache between renderers.
func WithFontCache(fc *FontCache) RenderOption {
	return func(r *Renderer) {
		if fc != nil {
			r.fonts = fc
		}
	}
}

// WithFontDirs builds a FontCache over the given directories. When
// systemFonts is false only the directories (and the embedded fallback)
// are used, which keeps output stable across machines.
func WithFontDirs(systemFonts bool, dirs ...string) RenderOption {
	return func(r *Renderer) {
		r.fonts = NewFontCache(systemFonts, dirs...)
	}
}

// WithRenderLogger routes debug output about skipped components to l.
func WithRenderLogger(l *log.Logger) RenderOption {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithCanvas sets the output size. Non-positive values are ignored.
func WithCanvas(width, height int) RenderOption {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.canvas = Size{Width: width, Height: height}
		}
	}
}

// WithPageColor sets the colour the canvas is cleared to before the
// background is painted. The default is white.
func WithPageColor(c Color) RenderOption {
	return func(r *Renderer) {
		if _, ok := ParseColor(string(c)); ok {
			r.page = c.NRGBA()
		}
	}
}

// NewRenderer creates a Renderer for a 1920x1080 canvas using system fonts.
func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{
		log:    discardLogger(),
		canvas: Size{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight},
		page:   color.White,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fonts == nil {
		r.fonts = NewFontCache(true)
	}
	return r
}

// Canvas returns the output size.
func (r *Renderer) Canvas() Size { return r.canvas }

// Render composites the slide and encodes it as PNG. The error is only
// non-nil when encoding fails; component failures are counted in the
// diagnostics instead.
func (r *Renderer) Render(slide Slide) ([]byte, *Diagnostics, error) {
	img, diag := r.RenderImage(slide)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, diag, fmt.Errorf("encode slide %d: %w", slide.Index, err)
	}
	return buf.Bytes(), diag, nil
}

// RenderImage composites the slide onto a new canvas.
func (r *Renderer) RenderImage(slide Slide) (*image.RGBA, *Diagnostics) {
	dst := image.NewRGBA(image.Rect(0, 0, r.canvas.Width, r.canvas.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.page), image.Point{}, draw.Src)

	s := r.session()
	diag := newDiagnostics()
	placed := make([]Component, 0, len(slide.Components))
	for _, c := range paintOrder(slide.Components) {
		overflow, err := s.paintSafe(dst, c)
		if err != nil {
			diag.Errors++
			r.log.Debug("component skipped", "slide", slide.Index, "component", c.ID, "type", c.Type, "err", err)
			continue
		}
		if overflow {
			diag.TextOverflows = append(diag.TextOverflows, TextOverflow{ComponentID: c.ID, ComponentType: c.Type})
		}
		placed = append(placed, c)
	}
	diag.Overlaps = DetectOverlaps(placed)
	return dst, diag
}

// RenderResult is the outcome of rendering one slide of a deck.
type RenderResult struct {
	Index       int
	SlideID     string
	PNG         []byte
	Diagnostics *Diagnostics
	Err         error
}

// RenderDeck renders every slide on the deck's canvas size, in order.
func (r *Renderer) RenderDeck(deck *Deck) []RenderResult {
	if deck == nil {
		return nil
	}
	rr := r.ForDeck(deck)
	out := make([]RenderResult, len(deck.Slides))
	for i, s := range deck.Slides {
		data, diag, err := rr.Render(s)
		out[i] = RenderResult{Index: i, SlideID: s.ID, PNG: data, Diagnostics: diag, Err: err}
	}
	return out
}

// ForDeck returns a renderer sharing r's fonts and logger whose canvas
// matches the deck.
func (r *Renderer) ForDeck(deck *Deck) *Renderer {
	rr := *r
	rr.faces = nil
	if deck != nil && deck.CanvasSize.Width > 0 && deck.CanvasSize.Height > 0 {
		rr.canvas = deck.CanvasSize
	}
	return &rr
}

// session returns a copy of r with its own face cache for one render.
func (r *Renderer) session() *Renderer {
	s := *r
	s.faces = newFaceCache(r.fonts)
	return &s
}

// paintOrder returns the components sorted by zIndex with backgrounds
// first. Ties keep slide order.
func paintOrder(components []Component) []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if c.Props != nil {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].Type == TypeBackground, out[j].Type == TypeBackground
		if bi != bj {
			return bi
		}
		return out[i].Props.Placement().ZIndex < out[j].Props.Placement().ZIndex
	})
	// Components without props cannot be placed; they still count as
	// failures when painted below.
	for _, c := range components {
		if c.Props == nil {
			out = append(out, c)
		}
	}
	return out
}

var (
	errNoProps       = errors.New("component has no props")
	errLayerTooLarge = errors.New("component layer too large")
)

// Layers larger than the budget are refused before allocation. The budget
// is layerCanvasFactor canvases, and never less than minLayerPixels.
const (
	minLayerPixels    = 4096 * 4096
	layerCanvasFactor = 16
)

func (r *Renderer) layerBudget() float64 {
	return max(minLayerPixels, layerCanvasFactor*float64(r.canvas.Width)*float64(r.canvas.Height))
}

// checkLayer rejects components whose paint layer would exceed the budget.
func (r *Renderer) checkLayer(p Props) error {
	var w, h, pad float64
	switch p := p.(type) {
	case BackgroundProps, GroupProps:
		return nil
	case LineProps:
		w, h = math.Abs(p.End.X-p.Start.X), math.Abs(p.End.Y-p.Start.Y)
		pad = math.Ceil(arrowLength(p.Stroke.Width)) + 2
	case ShapeProps:
		f := p.Placement()
		w, h = f.Width, f.Height
		pad = math.Ceil(p.Stroke.Width) + 2
	default:
		f := p.Placement()
		w, h = f.Width, f.Height
		pad = 2
	}
	lw, lh := math.Ceil(w)+2*pad, math.Ceil(h)+2*pad
	if area := lw * lh; math.IsNaN(area) || area > r.layerBudget() {
		return fmt.Errorf("%w: %.0fx%.0f", errLayerTooLarge, lw, lh)
	}
	return nil
}

// paintSafe paints one component, turning panics into errors.
func (r *Renderer) paintSafe(dst *image.RGBA, c Component) (overflow bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			overflow, err = false, fmt.Errorf("panic: %v", rec)
		}
	}()
	if c.Props == nil {
		return false, errNoProps
	}
	if err := r.checkLayer(c.Props); err != nil {
		return false, err
	}
	switch p := c.Props.(type) {
	case BackgroundProps:
		return false, r.paintBackground(dst, p)
	case ImageProps:
		return false, r.paintImage(dst, p)
	case ShapeProps:
		return r.paintShape(dst, p)
	case TextBlockProps:
		return r.paintTextBlock(dst, p)
	case LineProps:
		return false, r.paintLine(dst, p)
	case TableProps:
		return r.paintTable(dst, p)
	case ChartProps:
		return false, r.paintChart(dst, p)
	case GroupProps:
		// Children are absolute siblings; the group itself draws nothing.
		return false, nil
	}
	return false, fmt.Errorf("cannot paint component type %s", c.Type)
}

// layerPad is the margin around a layer that keeps strokes and rotated
// anti-aliased edges from being clipped.
func layerPad(strokeWidth float64) int {
	return int(math.Ceil(strokeWidth)) + 2
}

// layerSize is the pixel size of a layer holding a w x h frame plus pad
// on every side.
func layerSize(w, h float64, pad int) (int, int) {
	lw := int(math.Ceil(w)) + 2*pad
	lh := int(math.Ceil(h)) + 2*pad
	return max(lw, 1), max(lh, 1)
}

// newLayer allocates a transparent layer of layerSize.
func newLayer(w, h float64, pad int) *image.RGBA {
	lw, lh := layerSize(w, h, pad)
	return image.NewRGBA(image.Rect(0, 0, lw, lh))
}

// toRGBA returns img as *image.RGBA, copying only when needed.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// applyOpacity scales every premultiplied channel of layer by opacity.
func applyOpacity(layer *image.RGBA, opacity float64) {
	if opacity >= 1 {
		return
	}
	if opacity <= 0 {
		clear(layer.Pix)
		return
	}
	for i, v := range layer.Pix {
		layer.Pix[i] = uint8(float64(v)*opacity + 0.5)
	}
}

// composite pastes layer onto dst so that the layer's centre lands on the
// frame's centre, rotating it clockwise by the frame rotation.
func composite(dst *image.RGBA, layer *image.RGBA, f Frame) {
	applyOpacity(layer, f.Opacity)
	lw := float64(layer.Bounds().Dx())
	lh := float64(layer.Bounds().Dy())
	c := f.Bounds().Center()

	if f.Rotation == 0 {
		at := image.Pt(int(math.Round(c.X-lw/2)), int(math.Round(c.Y-lh/2)))
		draw.Draw(dst, layer.Bounds().Add(at), layer, image.Point{}, draw.Over)
		return
	}
	rad := f.Rotation * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	m := f64.Aff3{
		cos, -sin, c.X - cos*lw/2 + sin*lh/2,
		sin, cos, c.Y - sin*lw/2 - cos*lh/2,
	}
	draw.BiLinear.Transform(dst, m, layer, layer.Bounds(), draw.Over, nil)
}
