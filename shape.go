package slidescene

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"
)

// ShapeKind is the renderable geometry vocabulary. It is deliberately
// smaller than the preset vocabulary of the source format.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeEllipse   ShapeKind = "ellipse"
	ShapeCircle    ShapeKind = "circle"
	ShapeTriangle  ShapeKind = "triangle"
	ShapeDiamond   ShapeKind = "diamond"
	ShapePentagon  ShapeKind = "pentagon"
	ShapeHexagon   ShapeKind = "hexagon"
	ShapeStar      ShapeKind = "star"
	ShapeHeart     ShapeKind = "heart"
	ShapeArrow     ShapeKind = "arrow"
)

// ShapeKinds lists every kind the classifier can return.
var ShapeKinds = []ShapeKind{
	ShapeRectangle, ShapeEllipse, ShapeCircle, ShapeTriangle, ShapeDiamond,
	ShapePentagon, ShapeHexagon, ShapeStar, ShapeHeart, ShapeArrow,
}

// Arrow directions.
const (
	ArrowRight = "right"
	ArrowLeft  = "left"
	ArrowUp    = "up"
	ArrowDown  = "down"
	ArrowBoth  = "left-right"
)

// circleTolerance is the relative width/height difference under which an
// ellipse is treated as a circle.
const circleTolerance = 0.05

// Geometry is a classified shape with its kind-specific attributes.
type Geometry struct {
	Kind   ShapeKind `json:"kind"`
	Preset string    `json:"preset,omitempty"`
	// CornerRadius is a fraction of the shorter side (rounded rectangles).
	CornerRadius float64 `json:"cornerRadius,omitempty"`
	// Points is the number of star points.
	Points int `json:"points,omitempty"`
	// Direction is set for arrows.
	Direction string `json:"direction,omitempty"`
	// Inverted flips triangles vertically (flowchart merge).
	Inverted bool `json:"inverted,omitempty"`
	// RightAngle marks a right triangle.
	RightAngle bool `json:"rightAngle,omitempty"`
}

type presetRule struct {
	kind      ShapeKind
	direction string
	points    int
	inverted  bool
	right     bool
}

// presetKinds maps preset geometry names onto renderable kinds. Anything
// missing here falls back to a rectangle.
var presetKinds = map[string]presetRule{
	"rect":                       {kind: ShapeRectangle},
	"roundRect":                  {kind: ShapeRectangle},
	"round1Rect":                 {kind: ShapeRectangle},
	"round2SameRect":             {kind: ShapeRectangle},
	"round2DiagRect":             {kind: ShapeRectangle},
	"snip1Rect":                  {kind: ShapeRectangle},
	"snip2SameRect":              {kind: ShapeRectangle},
	"snipRoundRect":              {kind: ShapeRectangle},
	"flowChartProcess":           {kind: ShapeRectangle},
	"flowChartAlternateProcess":  {kind: ShapeRectangle},
	"flowChartPredefinedProcess": {kind: ShapeRectangle},
	"flowChartDocument":          {kind: ShapeRectangle},
	"plaque":                     {kind: ShapeRectangle},
	"frame":                      {kind: ShapeRectangle},
	"bevel":                      {kind: ShapeRectangle},
	"foldedCorner":               {kind: ShapeRectangle},
	"cube":                       {kind: ShapeRectangle},
	"wedgeRectCallout":           {kind: ShapeRectangle},
	"wedgeRoundRectCallout":      {kind: ShapeRectangle},
	"ellipse":                    {kind: ShapeEllipse},
	"oval":                       {kind: ShapeEllipse},
	"flowChartConnector":         {kind: ShapeEllipse},
	"donut":                      {kind: ShapeEllipse},
	"wedgeEllipseCallout":        {kind: ShapeEllipse},
	"cloud":                      {kind: ShapeEllipse},
	"cloudCallout":               {kind: ShapeEllipse},
	"smileyFace":                 {kind: ShapeEllipse},
	"noSmoking":                  {kind: ShapeEllipse},
	"pie":                        {kind: ShapeEllipse},
	"chord":                      {kind: ShapeEllipse},
	"triangle":                   {kind: ShapeTriangle},
	"rtTriangle":                 {kind: ShapeTriangle, right: true},
	"flowChartExtract":           {kind: ShapeTriangle},
	"flowChartMerge":             {kind: ShapeTriangle, inverted: true},
	"diamond":                    {kind: ShapeDiamond},
	"flowChartDecision":          {kind: ShapeDiamond},
	"pentagon":                   {kind: ShapePentagon},
	"homePlate":                  {kind: ShapePentagon},
	"hexagon":                    {kind: ShapeHexagon},
	"octagon":                    {kind: ShapeHexagon},
	"flowChartPreparation":       {kind: ShapeHexagon},
	"star4":                      {kind: ShapeStar, points: 4},
	"star5":                      {kind: ShapeStar, points: 5},
	"star6":                      {kind: ShapeStar, points: 6},
	"star7":                      {kind: ShapeStar, points: 7},
	"star8":                      {kind: ShapeStar, points: 8},
	"star10":                     {kind: ShapeStar, points: 10},
	"star12":                     {kind: ShapeStar, points: 12},
	"star16":                     {kind: ShapeStar, points: 16},
	"star24":                     {kind: ShapeStar, points: 24},
	"star32":                     {kind: ShapeStar, points: 32},
	"irregularSeal1":             {kind: ShapeStar, points: 12},
	"irregularSeal2":             {kind: ShapeStar, points: 12},
	"heart":                      {kind: ShapeHeart},
	"rightArrow":                 {kind: ShapeArrow, direction: ArrowRight},
	"leftArrow":                  {kind: ShapeArrow, direction: ArrowLeft},
	"upArrow":                    {kind: ShapeArrow, direction: ArrowUp},
	"downArrow":                  {kind: ShapeArrow, direction: ArrowDown},
	"leftRightArrow":             {kind: ShapeArrow, direction: ArrowBoth},
	"notchedRightArrow":          {kind: ShapeArrow, direction: ArrowRight},
	"stripedRightArrow":          {kind: ShapeArrow, direction: ArrowRight},
	"bentArrow":                  {kind: ShapeArrow, direction: ArrowRight},
	"uturnArrow":                 {kind: ShapeArrow, direction: ArrowDown},
	"curvedRightArrow":           {kind: ShapeArrow, direction: ArrowRight},
	"curvedLeftArrow":            {kind: ShapeArrow, direction: ArrowLeft},
	"curvedUpArrow":              {kind: ShapeArrow, direction: ArrowUp},
	"curvedDownArrow":            {kind: ShapeArrow, direction: ArrowDown},
	"rightArrowCallout":          {kind: ShapeArrow, direction: ArrowRight},
	"leftArrowCallout":           {kind: ShapeArrow, direction: ArrowLeft},
	"chevron":                    {kind: ShapeArrow, direction: ArrowRight},
}

// ClassifyPreset maps a preset geometry name and its size onto a Geometry.
// Unknown presets become rectangles; ellipses that are square within 5%
// become circles.
func ClassifyPreset(preset string, width, height float64) Geometry {
	rule, ok := presetKinds[preset]
	if !ok {
		return Geometry{Kind: ShapeRectangle, Preset: preset}
	}
	g := Geometry{
		Kind:       rule.kind,
		Preset:     preset,
		Points:     rule.points,
		Direction:  rule.direction,
		Inverted:   rule.inverted,
		RightAngle: rule.right,
	}
	if g.Kind == ShapeEllipse && nearlySquare(width, height, circleTolerance) {
		g.Kind = ShapeCircle
	}
	return g
}

// withAdjustments applies a:avLst guides that matter for rendering.
func (g Geometry) withAdjustments(avLst *node) Geometry {
	switch g.Preset {
	case "roundRect", "round1Rect", "round2SameRect", "round2DiagRect", "flowChartAlternateProcess":
		g.CornerRadius = 0.16667
		if v, ok := guideValue(avLst, "adj"); ok {
			g.CornerRadius = clamp01(v / percentUnit)
		}
	}
	return g
}

// guideValue reads "val N" from an a:gd formula.
func guideValue(avLst *node, name string) (float64, bool) {
	for _, gd := range avLst.all("gd") {
		if gd.attrOr("name", "") != name {
			continue
		}
		f := strings.Fields(gd.attrOr("fmla", ""))
		if len(f) == 2 && f[0] == "val" {
			v, err := strconv.ParseFloat(f[1], 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// FreeformPath summarises a custom geometry for classification.
type FreeformPath struct {
	path     *gg.Path
	lines    int
	curves   int
	closed   bool
	subpaths int
}

// Segments returns the number of drawing segments.
func (f *FreeformPath) Segments() int { return f.lines + f.curves }

// parseFreeform reads a:custGeom/a:pathLst. Coordinates are normalised to
// the unit square so differing path coordinate spaces compare cleanly.
func parseFreeform(custGeom *node) *FreeformPath {
	ff := &FreeformPath{path: gg.NewPath()}
	for _, p := range custGeom.path("pathLst").all("path") {
		w, _ := p.attrInt("w")
		h, _ := p.attrInt("h")
		sx, sy := 1.0, 1.0
		if w > 0 {
			sx = 1 / float64(w)
		}
		if h > 0 {
			sy = 1 / float64(h)
		}
		pt := func(n *node) (float64, float64) {
			x, _ := n.attrInt("x")
			y, _ := n.attrInt("y")
			return float64(x) * sx, float64(y) * sy
		}
		for _, cmd := range p.children {
			pts := cmd.all("pt")
			switch cmd.name {
			case "moveTo":
				if len(pts) > 0 {
					x, y := pt(pts[0])
					ff.path.MoveTo(x, y)
					ff.subpaths++
				}
			case "lnTo":
				if len(pts) > 0 {
					x, y := pt(pts[0])
					ff.path.LineTo(x, y)
					ff.lines++
				}
			case "cubicBezTo":
				if len(pts) == 3 {
					x1, y1 := pt(pts[0])
					x2, y2 := pt(pts[1])
					x3, y3 := pt(pts[2])
					ff.path.CubicTo(x1, y1, x2, y2, x3, y3)
					ff.curves++
				}
			case "quadBezTo":
				if len(pts) == 2 {
					x1, y1 := pt(pts[0])
					x2, y2 := pt(pts[1])
					ff.path.QuadraticTo(x1, y1, x2, y2)
					ff.curves++
				}
			case "arcTo":
				// Arcs are curvature without explicit end points; count them
				// without extending the path.
				ff.curves++
			case "close":
				ff.path.Close()
				ff.closed = true
			}
		}
	}
	return ff
}

// ClassifyFreeform classifies a custom geometry. It is a circle only when
// the frame is square within tolerance and the path looks curved; every
// other freeform is a rectangle.
func ClassifyFreeform(f *FreeformPath, width, height float64) Geometry {
	g := Geometry{Kind: ShapeRectangle, Preset: "custGeom"}
	if f == nil || !nearlySquare(width, height, circleTolerance) {
		return g
	}
	if f.curvy() {
		g.Kind = ShapeCircle
	}
	return g
}

// curvy is the best-effort curvature signal: either gg recognises the path
// as a circle or ellipse, or at least half of a multi-segment single
// outline is curved.
func (f *FreeformPath) curvy() bool {
	if f == nil {
		return false
	}
	switch gg.DetectShape(f.path).Kind {
	case gg.ShapeCircle, gg.ShapeEllipse:
		return true
	}
	return f.subpaths <= 1 && f.curves >= 2 && f.curves*2 >= f.Segments()
}

// classifyShape dispatches an spPr to the preset or freeform classifier.
func classifyShape(spPr *node, width, height float64) Geometry {
	if prst := spPr.child("prstGeom"); prst != nil {
		g := ClassifyPreset(prst.attrOr("prst", "rect"), width, height)
		return g.withAdjustments(prst.child("avLst"))
	}
	if cust := spPr.child("custGeom"); cust != nil {
		return ClassifyFreeform(parseFreeform(cust), width, height)
	}
	return Geometry{Kind: ShapeRectangle, Preset: "rect"}
}

// lineLikePresets are preset geometries drawn as open strokes.
var lineLikePresets = map[string]bool{
	"line":               true,
	"straightConnector1": true,
	"bentConnector2":     true,
	"bentConnector3":     true,
	"bentConnector4":     true,
	"bentConnector5":     true,
	"curvedConnector2":   true,
	"curvedConnector3":   true,
	"curvedConnector4":   true,
	"curvedConnector5":   true,
	"lineInv":            true,
}
