package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	slidescene "github.com/A-NextSlide/nextslide-sub001"
)

const (
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

func rect(id int, x, y, cx, cy int64, hex string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Rect %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
		`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:spPr></p:sp>`,
		id, id, x, y, cx, cy, hex)
}

// writeDeck writes a two-slide presentation without layouts or masters.
// The first slide holds two overlapping rectangles.
func writeDeck(t *testing.T, dir string) string {
	t.Helper()
	slide := func(shapes string) string {
		return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<p:sld xmlns:a="` + nsA + `" xmlns:p="` + nsP + `" xmlns:r="` + nsR + `"><p:cSld><p:spTree>` +
			`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
			shapes + `</p:spTree></p:cSld></p:sld>`
	}
	parts := map[string]string{
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="` + nsR + `/officeDocument" Target="ppt/presentation.xml"/></Relationships>`,
		"ppt/presentation.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<p:presentation xmlns:a="` + nsA + `" xmlns:p="` + nsP + `" xmlns:r="` + nsR + `">` +
			`<p:sldIdLst><p:sldId id="256" r:id="rId2"/><p:sldId id="257" r:id="rId3"/></p:sldIdLst>` +
			`<p:sldSz cx="12192000" cy="6858000"/></p:presentation>`,
		"ppt/_rels/presentation.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId2" Type="` + nsR + `/slide" Target="slides/slide1.xml"/>` +
			`<Relationship Id="rId3" Type="` + nsR + `/slide" Target="slides/slide2.xml"/></Relationships>`,
		"ppt/slides/slide1.xml": slide(rect(2, 0, 0, 1905000, 1905000, "FF0000") + rect(3, 952500, 952500, 1905000, 1905000, "0000FF")),
		"ppt/slides/slide2.xml": slide(rect(2, 0, 0, 952500, 952500, "00FF00")),
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return writeFile(t, dir, "deck.pptx", buf.String())
}

// testConfig writes a config that keeps rendering off system fonts.
func testConfig(t *testing.T, dir string) string {
	t.Helper()
	return writeFile(t, dir, "deckrender.toml", "[canvas]\nwidth = 320\nheight = 180\n\n[fonts]\nsystem = false\n")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logs, stdout bytes.Buffer
	c := New(&logs, LogInfo)
	root := c.RootCommand()
	root.SetOut(&stdout)
	root.SetErr(&logs)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestSelectSlides(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		slide   int
		want    []int
		wantErr bool
	}{
		{"all", 3, 0, []int{0, 1, 2}, false},
		{"one", 3, 2, []int{1}, false},
		{"last", 3, 3, []int{2}, false},
		{"too high", 3, 4, nil, true},
		{"negative", 3, -1, nil, true},
		{"empty deck", 0, 0, []int{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := selectSlides(tt.count, tt.slide)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectSlides(%d, %d) error = %v, wantErr %v", tt.count, tt.slide, err, tt.wantErr)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("selectSlides(%d, %d) = %v, want %v", tt.count, tt.slide, got, tt.want)
			}
		})
	}
}

func TestSlideFileName(t *testing.T) {
	if got := slideFileName(0); got != "slide01.png" {
		t.Errorf("slideFileName(0) = %q", got)
	}
	if got := slideFileName(11); got != "slide12.png" {
		t.Errorf("slideFileName(11) = %q", got)
	}
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeDeck(t, dir)
	out, err := execute(t, "import", "--config", testConfig(t, dir), input)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	var deck struct {
		Slides []struct {
			ID         string            `json:"id"`
			Components []json.RawMessage `json:"components"`
		} `json:"slides"`
		CanvasSize slidescene.Size `json:"canvasSize"`
		Metadata   struct {
			Stats slidescene.Stats `json:"stats"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(out), &deck); err != nil {
		t.Fatalf("decode deck JSON: %v\n%s", err, out)
	}
	if len(deck.Slides) != 2 {
		t.Fatalf("got %d slides, want 2", len(deck.Slides))
	}
	if deck.CanvasSize != (slidescene.Size{Width: 320, Height: 180}) {
		t.Errorf("canvas = %+v", deck.CanvasSize)
	}
	if deck.Metadata.Stats.Errors != 0 {
		t.Errorf("import reported %d errors", deck.Metadata.Stats.Errors)
	}
	// Background plus two rectangles.
	if n := len(deck.Slides[0].Components); n != 3 {
		t.Errorf("slide 1 has %d components, want 3", n)
	}
}

func TestImportCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	input := writeDeck(t, dir)
	target := filepath.Join(dir, "deck.json")
	out, err := execute(t, "import", "--config", testConfig(t, dir), "-o", target, input)
	if err != nil {
		t.Fatalf("import error = %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when -o is set, got %q", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), `"slides"`) {
		t.Errorf("output does not look like a deck: %.80s", data)
	}
}

func TestImportCommandErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "import", filepath.Join(dir, "missing.pptx")); err == nil {
		t.Error("expected error for missing input")
	}
	bogus := writeFile(t, dir, "bogus.pptx", "not a zip")
	if _, err := execute(t, "import", bogus); err == nil {
		t.Error("expected error for invalid archive")
	}
	if _, err := execute(t, "import"); err == nil {
		t.Error("expected error without arguments")
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeDeck(t, dir)
	outDir := filepath.Join(dir, "out")
	if _, err := execute(t, "render", "--config", testConfig(t, dir), "-o", outDir, input); err != nil {
		t.Fatalf("render error = %v", err)
	}

	for _, name := range []string{"slide01.png", "slide02.png"} {
		f, err := os.Open(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if cfg.Width != 320 || cfg.Height != 180 {
			t.Errorf("%s is %dx%d, want 320x180", name, cfg.Width, cfg.Height)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "diagnostics.json"))
	if err != nil {
		t.Fatalf("read diagnostics: %v", err)
	}
	var reports []slideReport
	if err := json.Unmarshal(data, &reports); err != nil {
		t.Fatalf("decode diagnostics: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if reports[0].Slide != 1 || reports[0].Image != "slide01.png" {
		t.Errorf("unexpected first report %+v", reports[0])
	}
	// 200px squares offset by 100px, scaled by 0.25 onto the 320px canvas.
	if n := len(reports[0].Diagnostics.Overlaps); n != 1 {
		t.Fatalf("slide 1: got %d overlaps, want 1", n)
	}
	if got := reports[0].Diagnostics.Overlaps[0].OverlapAreaPx2; got != 625 {
		t.Errorf("slide 1 overlap area = %v, want 625", got)
	}
	if n := len(reports[1].Diagnostics.Overlaps); n != 0 {
		t.Errorf("slide 2: got %d overlaps, want 0", n)
	}
}

func TestRenderCommandSingleSlide(t *testing.T) {
	dir := t.TempDir()
	input := writeDeck(t, dir)
	outDir := filepath.Join(dir, "out")
	if _, err := execute(t, "render", "--config", testConfig(t, dir), "-o", outDir, "--slide", "2", input); err != nil {
		t.Fatalf("render error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "slide02.png")); err != nil {
		t.Errorf("slide02.png missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "slide01.png")); !os.IsNotExist(err) {
		t.Errorf("slide01.png should not be rendered, stat err = %v", err)
	}

	if _, err := execute(t, "render", "--config", testConfig(t, dir), "-o", outDir, "--slide", "9", input); err == nil {
		t.Error("expected error for out-of-range slide")
	}
}
