package slidescene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func newTestRenderer(w, h int) *Renderer {
	return NewRenderer(WithFontDirs(false), WithCanvas(w, h))
}

func solidBackground(c Color) Component {
	return newComponent("bg", BackgroundProps{Frame: Frame{Width: 200, Height: 100, Opacity: 1}, Color: c, Source: "slide"})
}

func textBlock(id string, x, y, w, h float64, text string, size float64) Component {
	run := plainRun(text, size, false)
	return newComponent(id, TextBlockProps{
		Frame: Frame{Position: Position{X: x, Y: y}, Width: w, Height: h, Opacity: 1},
		TextBody: TextBody{
			Paragraphs:        []Paragraph{{Alignment: HorizontalLeft, Runs: []TextRun{run}}},
			VerticalAlignment: VerticalTop,
			Wrap:              true,
		},
		BackgroundColor: Transparent,
	})
}

func pixel(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderImage_BackgroundAndShape(t *testing.T) {
	r := newTestRenderer(200, 100)
	slide := Slide{Components: []Component{
		box("blue", 50, 25, 20, 20),
		solidBackground("#FF0000FF"),
	}}
	img, diag := r.RenderImage(slide)
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Fatalf("unexpected canvas %v", img.Bounds())
	}
	if got := pixel(img, 5, 5); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("background pixel = %v, want red", got)
	}
	// The shape paints over the background even though it is listed first.
	if got := pixel(img, 60, 35); got != (color.RGBA{R: 0x33, G: 0x66, B: 0xCC, A: 255}) {
		t.Errorf("shape pixel = %v, want #3366CC", got)
	}
	if !diag.Clean() {
		t.Errorf("expected clean diagnostics, got %+v", diag)
	}
}

func TestRenderImage_Opacity(t *testing.T) {
	r := newTestRenderer(200, 100)
	hidden := box("hidden", 50, 25, 20, 20)
	p := hidden.Props.(ShapeProps)
	p.Opacity = 0
	hidden.Props = p

	half := box("half", 120, 25, 20, 20)
	hp := half.Props.(ShapeProps)
	hp.Fill = SolidFill{Color: ColorBlack}
	hp.Opacity = 0.5
	half.Props = hp

	img, _ := r.RenderImage(Slide{Components: []Component{solidBackground(ColorWhite), hidden, half}})
	if got := pixel(img, 60, 35); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("fully transparent shape left %v", got)
	}
	got := pixel(img, 130, 35)
	if got.R < 120 || got.R > 135 {
		t.Errorf("half-transparent black over white = %v, want mid grey", got)
	}
}

func TestRenderImage_TextOverflow(t *testing.T) {
	r := newTestRenderer(200, 100)
	long := strings.Repeat("overflowing words ", 20)
	slide := Slide{Components: []Component{
		solidBackground(ColorWhite),
		textBlock("tight", 0, 0, 80, 20, long, 16),
		textBlock("roomy", 100, 0, 100, 60, "Hi", 16),
	}}
	_, diag := r.RenderImage(slide)
	if len(diag.TextOverflows) != 1 {
		t.Fatalf("expected 1 overflow, got %+v", diag.TextOverflows)
	}
	if got := diag.TextOverflows[0]; got.ComponentID != "tight" || got.ComponentType != TypeTextBlock {
		t.Errorf("unexpected overflow %+v", got)
	}
}

func TestRenderImage_ShapeTextOverflow(t *testing.T) {
	r := newTestRenderer(200, 100)
	c := box("shape", 10, 10, 60, 20)
	p := c.Props.(ShapeProps)
	p.Text = &TextBody{
		Paragraphs:        []Paragraph{{Alignment: HorizontalCenter, Runs: []TextRun{plainRun(strings.Repeat("text ", 30), 14, true)}}},
		VerticalAlignment: VerticalMiddle,
		Wrap:              true,
	}
	c.Props = p
	_, diag := r.RenderImage(Slide{Components: []Component{c}})
	if len(diag.TextOverflows) != 1 || diag.TextOverflows[0].ComponentType != TypeShape {
		t.Errorf("expected shape text overflow, got %+v", diag.TextOverflows)
	}
}

func TestRenderImage_Overlaps(t *testing.T) {
	r := newTestRenderer(200, 200)
	_, diag := r.RenderImage(Slide{Components: []Component{
		solidBackground(ColorWhite),
		box("a", 0, 0, 100, 100),
		box("b", 50, 50, 100, 100),
	}})
	if len(diag.Overlaps) != 1 || diag.Overlaps[0].OverlapAreaPx2 != 2500 {
		t.Errorf("unexpected overlaps %+v", diag.Overlaps)
	}
}

func TestRenderImage_ComponentErrors(t *testing.T) {
	r := newTestRenderer(200, 100)
	badImage := newComponent("img", ImageProps{
		Frame:     Frame{Width: 20, Height: 20, Opacity: 1},
		Image:     ImageRef{Data: []byte("not an image"), MimeType: "image/png"},
		ObjectFit: "fill",
	})
	slide := Slide{Components: []Component{
		solidBackground(ColorWhite),
		{ID: "empty", Type: TypeShape},
		badImage,
		box("ok", 0, 0, 10, 10),
	}}
	img, diag := r.RenderImage(slide)
	if diag.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", diag.Errors)
	}
	if got := pixel(img, 5, 5); got.B != 0xCC {
		t.Errorf("remaining components should still paint, got %v", got)
	}
	// Failed components take no part in overlap detection.
	if len(diag.Overlaps) != 0 {
		t.Errorf("unexpected overlaps %+v", diag.Overlaps)
	}
}

func TestRenderImage_OversizedComponents(t *testing.T) {
	r := newTestRenderer(320, 180)
	line := newComponent("line", LineProps{
		Frame:  Frame{Opacity: 1},
		Start:  Position{X: -1e6, Y: 0},
		End:    Position{X: 1e6, Y: 1e6},
		Stroke: Stroke{Width: 2, Color: ColorBlack},
	})
	slide := Slide{Components: []Component{
		solidBackground(ColorWhite),
		box("huge", -40000, -40000, 80000, 80000),
		line,
		box("ok", 0, 0, 10, 10),
	}}
	img, diag := r.RenderImage(slide)
	if diag.Errors != 2 {
		t.Errorf("expected 2 errors, got %d", diag.Errors)
	}
	if got := pixel(img, 5, 5); got.B != 0xCC {
		t.Errorf("small shape should still paint, got %v", got)
	}
	if got := pixel(img, 200, 100); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("skipped shape left paint at (200,100): %v", got)
	}
	if len(diag.Overlaps) != 0 {
		t.Errorf("skipped components must not overlap, got %+v", diag.Overlaps)
	}
}

func TestCheckLayer(t *testing.T) {
	r := newTestRenderer(320, 180)
	tests := []struct {
		name    string
		props   Props
		wantErr bool
	}{
		{"canvas sized", box("a", 0, 0, 320, 180).Props, false},
		{"larger than canvas", box("a", -500, -500, 2000, 2000).Props, false},
		{"huge", box("a", 0, 0, 80000, 80000).Props, true},
		{"wide stroke", ShapeProps{Frame: Frame{Width: 10, Height: 10}, Stroke: Stroke{Width: 1e6}}, true},
		{"background", BackgroundProps{Frame: Frame{Width: 1e9, Height: 1e9}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.checkLayer(tt.props)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkLayer() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRenderImage_Image(t *testing.T) {
	r := newTestRenderer(200, 100)
	data := testPNG(t, 4, 4, color.NRGBA{G: 255, A: 255})
	slide := Slide{Components: []Component{
		solidBackground(ColorWhite),
		newComponent("img", ImageProps{
			Frame:     Frame{Position: Position{X: 100, Y: 20}, Width: 40, Height: 40, Opacity: 1},
			Image:     ImageRef{Data: data, MimeType: "image/png"},
			ObjectFit: "cover",
			Mask:      &Geometry{Kind: ShapeCircle, Preset: "ellipse"},
		}),
	}}
	img, diag := r.RenderImage(slide)
	if diag.Errors != 0 {
		t.Fatalf("unexpected errors %d", diag.Errors)
	}
	if got := pixel(img, 120, 40); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("image centre = %v, want green", got)
	}
	// The circular mask leaves the frame corners unpainted.
	if got := pixel(img, 101, 21); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("masked corner = %v, want white", got)
	}
}

func TestRenderImage_LineTableChart(t *testing.T) {
	r := newTestRenderer(400, 300)
	line := newComponent("line", LineProps{
		Frame:    Frame{Position: Position{X: 10, Y: 10}, Width: 100, Opacity: 1},
		Start:    Position{X: 10, Y: 10},
		End:      Position{X: 110, Y: 10},
		Stroke:   Stroke{Color: ColorBlack, Width: 4},
		EndArrow: "triangle",
	})
	table := newComponent("table", TableProps{
		Frame:   Frame{Position: Position{X: 10, Y: 50}, Width: 200, Height: 60, Opacity: 1},
		Columns: []float64{100, 100},
		Rows: []TableRow{
			{Height: 30, Cells: []TableCell{{Text: "Name", Fill: "#FF0000FF"}, {Text: "Value", Fill: Transparent}}},
			{Height: 30, Cells: []TableCell{{Text: "A", Fill: Transparent}, {Text: "1", Fill: Transparent}}},
		},
	})
	chart := newComponent("chart", ChartProps{
		Frame:      Frame{Position: Position{X: 220, Y: 50}, Width: 170, Height: 120, Opacity: 1},
		ChartType:  ChartColumn,
		Categories: []string{"Q1", "Q2"},
		Series:     []ChartSeries{{Name: "2024", Values: []float64{10, 20}, Color: "#2563EBFF"}},
	})
	img, diag := r.RenderImage(Slide{Components: []Component{solidBackground(ColorWhite), line, table, chart}})
	if diag.Errors != 0 {
		t.Fatalf("unexpected errors %d", diag.Errors)
	}
	if got := pixel(img, 50, 10); got.R > 64 {
		t.Errorf("line pixel = %v, want dark", got)
	}
	if got := pixel(img, 90, 55); got.R < 200 || got.G > 64 {
		t.Errorf("header cell pixel = %v, want red", got)
	}
}

func TestRender_PNG(t *testing.T) {
	r := newTestRenderer(160, 90)
	data, diag, err := r.Render(Slide{Components: []Component{solidBackground("#00FF00FF")}})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if diag == nil {
		t.Fatal("expected diagnostics")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 160 || img.Bounds().Dy() != 90 {
		t.Errorf("unexpected size %v", img.Bounds())
	}
}

func TestRenderDeck_UsesDeckCanvas(t *testing.T) {
	deck := &Deck{
		CanvasSize: Size{Width: 64, Height: 36},
		Slides: []Slide{
			{ID: "s1", Components: []Component{solidBackground(ColorWhite)}},
			{ID: "s2", Index: 1, Components: []Component{solidBackground(ColorBlack)}},
		},
	}
	results := NewRenderer(WithFontDirs(false)).RenderDeck(deck)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("slide %d: %v", i, res.Err)
		}
		if res.Index != i || res.SlideID != deck.Slides[i].ID {
			t.Errorf("slide %d: unexpected result identity %d/%s", i, res.Index, res.SlideID)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(res.PNG))
		if err != nil {
			t.Fatalf("slide %d: %v", i, err)
		}
		if cfg.Width != 64 || cfg.Height != 36 {
			t.Errorf("slide %d: size %dx%d", i, cfg.Width, cfg.Height)
		}
	}
	if NewRenderer().RenderDeck(nil) != nil {
		t.Error("nil deck should render nothing")
	}
}

func TestRenderImportedDeck(t *testing.T) {
	f := newFixture()
	f.addSlide(spTree(
		textShape(2, `<p:ph type="title"/>`, xfrm(838200, 365125, 10515600, 1325563), "", "Quarterly Review"),
		filledShape(3, "ellipse", "FF8800", 952500, 2857500, 1905000, 1905000),
		filledShape(4, "rightArrow", "0088FF", 1905000, 3810000, 2857500, 952500),
	))
	deck := importFixture(t, f)
	r := NewRenderer(WithFontDirs(false)).ForDeck(deck)
	if r.Canvas() != deck.CanvasSize {
		t.Fatalf("renderer canvas %+v, deck canvas %+v", r.Canvas(), deck.CanvasSize)
	}
	img, diag := r.RenderImage(deck.Slides[0])
	if diag.Errors != 0 || len(diag.TextOverflows) != 0 {
		t.Errorf("unexpected diagnostics %+v", diag)
	}
	if len(diag.Overlaps) != 1 {
		t.Errorf("expected the circle and arrow to overlap, got %+v", diag.Overlaps)
	}
	// Centre of the circle at (200, 400).
	if got := pixel(img, 200, 400); got != (color.RGBA{R: 0xFF, G: 0x88, A: 255}) {
		t.Errorf("circle pixel = %v", got)
	}
}

func TestPaintOrder(t *testing.T) {
	a := box("a", 0, 0, 1, 1)
	pa := a.Props.(ShapeProps)
	pa.ZIndex = 2
	a.Props = pa
	b := box("b", 0, 0, 1, 1)
	pb := b.Props.(ShapeProps)
	pb.ZIndex = 1
	b.Props = pb
	nilProps := Component{ID: "nil", Type: TypeShape}

	got := paintOrder([]Component{nilProps, a, solidBackground(ColorWhite), b})
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if strings.Join(ids, ",") != "bg,b,a,nil" {
		t.Errorf("paint order = %v", ids)
	}
}

func TestWithPageColor(t *testing.T) {
	r := NewRenderer(WithFontDirs(false), WithCanvas(10, 10), WithPageColor("#0000FFFF"))
	img, _ := r.RenderImage(Slide{})
	if got := pixel(img, 5, 5); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("page colour = %v", got)
	}
	r = NewRenderer(WithFontDirs(false), WithCanvas(10, 10), WithPageColor("nonsense"))
	img, _ = r.RenderImage(Slide{})
	if got := pixel(img, 5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("invalid page colour should keep white, got %v", got)
	}
}
