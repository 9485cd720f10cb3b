package slidescene

import "encoding/json"

// ComponentType tags a Component's variant.
type ComponentType string

const (
	TypeBackground ComponentType = "Background"
	TypeImage      ComponentType = "Image"
	TypeShape      ComponentType = "Shape"
	TypeLine       ComponentType = "Line"
	TypeTextBlock  ComponentType = "TiptapTextBlock"
	TypeTable      ComponentType = "Table"
	TypeChart      ComponentType = "Chart"
	TypeGroup      ComponentType = "Group"
)

// Deck is the canonical scene graph for one presentation. It is built by
// Import and never modified afterwards.
type Deck struct {
	ID         string   `json:"id"`
	Slides     []Slide  `json:"slides"`
	CanvasSize Size     `json:"canvasSize"`
	Metadata   Metadata `json:"metadata"`
}

// Size is a pixel size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata describes the source document.
type Metadata struct {
	Title       string           `json:"title,omitempty"`
	ThemeName   string           `json:"themeName,omitempty"`
	ThemeColors map[string]Color `json:"themeColors"`
	ThemeFonts  FontScheme       `json:"themeFonts"`
	SourceSize  SourceSize       `json:"sourceSize"`
	Stats       Stats            `json:"stats"`
	Importer    string           `json:"importer"`
}

// SourceSize is the native slide size and the factor used to map it onto
// the canvas.
type SourceSize struct {
	WidthEMU  int64   `json:"widthEmu"`
	HeightEMU int64   `json:"heightEmu"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Scale     float64 `json:"scale"`
}

// Stats counts what the importer produced.
type Stats struct {
	Slides     int `json:"slides"`
	Components int `json:"components"`
	Images     int `json:"images"`
	TextBlocks int `json:"textBlocks"`
	Shapes     int `json:"shapes"`
	Lines      int `json:"lines"`
	Tables     int `json:"tables"`
	Charts     int `json:"charts"`
	Groups     int `json:"groups"`
	Errors     int `json:"errors"`
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Slides += o.Slides
	s.Components += o.Components
	s.Images += o.Images
	s.TextBlocks += o.TextBlocks
	s.Shapes += o.Shapes
	s.Lines += o.Lines
	s.Tables += o.Tables
	s.Charts += o.Charts
	s.Groups += o.Groups
	s.Errors += o.Errors
}

func (s *Stats) count(t ComponentType) {
	s.Components++
	switch t {
	case TypeImage:
		s.Images++
	case TypeTextBlock:
		s.TextBlocks++
	case TypeShape:
		s.Shapes++
	case TypeLine:
		s.Lines++
	case TypeTable:
		s.Tables++
	case TypeChart:
		s.Charts++
	case TypeGroup:
		s.Groups++
	}
}

// Slide is one slide of the deck.
type Slide struct {
	ID         string      `json:"id"`
	Index      int         `json:"index"`
	Title      string      `json:"title"`
	Hidden     bool        `json:"hidden,omitempty"`
	Layout     string      `json:"layout,omitempty"`
	Components []Component `json:"components"`
	// Error is set when the slide could not be imported and was replaced by
	// an empty placeholder.
	Error string `json:"error,omitempty"`
}

// Component lookup by id.
func (s *Slide) Component(id string) (Component, bool) {
	for _, c := range s.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

// Component is one node of the scene graph.
type Component struct {
	ID    string        `json:"id"`
	Type  ComponentType `json:"type"`
	Props Props         `json:"props"`
}

// Props is implemented by the variant-specific property structs.
type Props interface {
	ComponentType() ComponentType
	// Placement returns the frame of the component on the canvas.
	Placement() Frame
}

// Frame is the placement shared by every positioned variant. Coordinates
// are canvas pixels; Rotation is in [0,360).
type Frame struct {
	Position Position `json:"position"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Rotation float64  `json:"rotation"`
	Opacity  float64  `json:"opacity"`
	ZIndex   int      `json:"zIndex"`
}

// Placement returns f; props structs satisfy Props by embedding Frame.
func (f Frame) Placement() Frame { return f }

// Bounds returns the unrotated frame rectangle.
func (f Frame) Bounds() Rect {
	return Rect{X: f.Position.X, Y: f.Position.Y, Width: f.Width, Height: f.Height}
}

// RotatedBounds returns the axis-aligned box around the rotated frame.
func (f Frame) RotatedBounds() Rect {
	b := f.Bounds()
	if f.Rotation == 0 {
		return b
	}
	c := b.Center()
	corners := []Position{
		{b.X, b.Y}, {b.Right(), b.Y}, {b.Right(), b.Bottom()}, {b.X, b.Bottom()},
	}
	var out Rect
	for i, p := range corners {
		q := rotatePoint(p, c, f.Rotation)
		pt := Rect{X: q.X, Y: q.Y}
		if i == 0 {
			out = pt
			continue
		}
		x0 := min(out.X, pt.X)
		y0 := min(out.Y, pt.Y)
		x1 := max(out.Right(), pt.X)
		y1 := max(out.Bottom(), pt.Y)
		out = Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	}
	return out
}

// BackgroundProps is the slide background. It always spans the canvas.
type BackgroundProps struct {
	Frame
	Color    Color     `json:"backgroundColor"`
	Gradient *Gradient `json:"gradient,omitempty"`
	Image    *ImageRef `json:"image,omitempty"`
	// Source is the part that defined the background: slide, layout,
	// master or default.
	Source string `json:"source"`
}

// ImageProps is a raster image, optionally clipped to a shape.
type ImageProps struct {
	Frame
	Image     ImageRef  `json:"image"`
	ObjectFit string    `json:"objectFit"`
	Mask      *Geometry `json:"mask,omitempty"`
	Alt       string    `json:"alt,omitempty"`
	// IsBackground marks an image synthesized from the slide background.
	IsBackground bool `json:"isBackground,omitempty"`
}

// ShapeProps is a vector shape, optionally carrying text.
type ShapeProps struct {
	Frame
	Geometry Geometry  `json:"shape"`
	Fill     Fill      `json:"fill"`
	Stroke   Stroke    `json:"stroke"`
	Text     *TextBody `json:"text,omitempty"`
}

// LineProps is a straight segment between two absolute points.
type LineProps struct {
	Frame
	Start      Position `json:"start"`
	End        Position `json:"end"`
	Stroke     Stroke   `json:"stroke"`
	StartArrow string   `json:"startArrow,omitempty"`
	EndArrow   string   `json:"endArrow,omitempty"`
}

// TextBlockProps is a pure text box or text placeholder.
type TextBlockProps struct {
	Frame
	TextBody
	BackgroundColor Color  `json:"backgroundColor"`
	PlaceholderType string `json:"placeholderType,omitempty"`
}

// TableProps is a grid of text cells.
type TableProps struct {
	Frame
	Columns []float64  `json:"columns"`
	Rows    []TableRow `json:"rows"`
	// FirstRow marks a header row styled differently.
	FirstRow bool `json:"firstRow,omitempty"`
}

// TableRow is one row of a table.
type TableRow struct {
	Height float64     `json:"height"`
	Cells  []TableCell `json:"cells"`
}

// TableCell is one cell. Merged cells keep their slot with Merged set.
type TableCell struct {
	Text       string      `json:"text"`
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
	Fill       Color       `json:"fill"`
	GridSpan   int         `json:"gridSpan,omitempty"`
	RowSpan    int         `json:"rowSpan,omitempty"`
	Merged     bool        `json:"merged,omitempty"`
}

// ChartProps is a chart reduced to its data.
type ChartProps struct {
	Frame
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Series     []ChartSeries `json:"series"`
	ShowLegend bool          `json:"showLegend,omitempty"`
}

// ChartSeries is one data series.
type ChartSeries struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  Color     `json:"color,omitempty"`
}

// GroupProps records structural grouping. Children are positioned
// absolutely and appear as siblings in the slide's component list.
type GroupProps struct {
	Frame
	Children []string `json:"children"`
}

func (BackgroundProps) ComponentType() ComponentType { return TypeBackground }
func (ImageProps) ComponentType() ComponentType      { return TypeImage }
func (ShapeProps) ComponentType() ComponentType      { return TypeShape }
func (LineProps) ComponentType() ComponentType       { return TypeLine }
func (TextBlockProps) ComponentType() ComponentType  { return TypeTextBlock }
func (TableProps) ComponentType() ComponentType      { return TypeTable }
func (ChartProps) ComponentType() ComponentType      { return TypeChart }
func (GroupProps) ComponentType() ComponentType      { return TypeGroup }

// newComponent builds a Component whose Type always agrees with its props.
func newComponent(id string, p Props) Component {
	return Component{ID: id, Type: p.ComponentType(), Props: p}
}

// MarshalJSON emits a null-free props object.
func (c Component) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID    string        `json:"id"`
		Type  ComponentType `json:"type"`
		Props any           `json:"props"`
	}
	var props any = map[string]any{}
	if c.Props != nil {
		props = c.Props
	}
	return json.Marshal(wire{ID: c.ID, Type: c.Type, Props: props})
}
