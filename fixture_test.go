package slidescene

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

// nsDecl declares the prefixes used by fixture parts.
const nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
	`xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart"`

const testTheme = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Test Theme">
<a:themeElements>
<a:clrScheme name="Test">
<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>
<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>
<a:dk2><a:srgbClr val="1F2937"/></a:dk2>
<a:lt2><a:srgbClr val="F3F4F6"/></a:lt2>
<a:accent1><a:srgbClr val="2563EB"/></a:accent1>
<a:accent2><a:srgbClr val="DC2626"/></a:accent2>
<a:accent3><a:srgbClr val="16A34A"/></a:accent3>
<a:accent4><a:srgbClr val="CA8A04"/></a:accent4>
<a:accent5><a:srgbClr val="9333EA"/></a:accent5>
<a:accent6><a:srgbClr val="0891B2"/></a:accent6>
<a:hlink><a:srgbClr val="1D4ED8"/></a:hlink>
<a:folHlink><a:srgbClr val="7C3AED"/></a:folHlink>
</a:clrScheme>
<a:fontScheme name="Test">
<a:majorFont><a:latin typeface="Calibri Light"/></a:majorFont>
<a:minorFont><a:latin typeface="Calibri"/></a:minorFont>
</a:fontScheme>
<a:fmtScheme name="Test">
<a:fillStyleLst>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"><a:tint val="50000"/></a:schemeClr></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"><a:shade val="50000"/></a:schemeClr></a:solidFill>
</a:fillStyleLst>
<a:lnStyleLst>
<a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
<a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
<a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>
</a:lnStyleLst>
<a:bgFillStyleLst>
<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>
<a:solidFill><a:schemeClr val="phClr"><a:shade val="80000"/></a:schemeClr></a:solidFill>
</a:bgFillStyleLst>
</a:fmtScheme>
</a:themeElements>
</a:theme>`

const defaultClrMap = `<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" ` +
	`accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>`

type fixtureRel struct {
	id, relType, target string
}

type fixtureSlide struct {
	xml  string
	rels []fixtureRel
}

// pptxFixture assembles a minimal presentation package in memory. Parts
// hold the inner XML of cSld for slides, the layout and the master.
type pptxFixture struct {
	slides   []fixtureSlide
	layout   string
	master   string
	masterTx string
	theme    string
	media    map[string][]byte
	extra    map[string]string
	title    string
	width    int64
	height   int64
}

func newFixture() *pptxFixture {
	return &pptxFixture{
		layout: spTree(),
		master: `<p:bg><p:bgPr><a:solidFill><a:schemeClr val="bg1"/></a:solidFill></p:bgPr></p:bg>` + spTree(),
		theme:  testTheme,
		media:  map[string][]byte{},
		extra:  map[string]string{},
		width:  12192000,
		height: 6858000,
	}
}

// addSlide adds a slide whose p:cSld contains cSld.
func (f *pptxFixture) addSlide(cSld string, rels ...fixtureRel) *pptxFixture {
	return f.addRawSlide(slideXML(cSld), rels...)
}

// addRawSlide adds a slide part with the given content verbatim.
func (f *pptxFixture) addRawSlide(xml string, rels ...fixtureRel) *pptxFixture {
	f.slides = append(f.slides, fixtureSlide{xml: xml, rels: rels})
	return f
}

func slideXML(cSld string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<p:sld ` + nsDecl + `><p:cSld>` + cSld + `</p:cSld>` +
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

// spTree wraps shapes in a shape tree.
func spTree(shapes ...string) string {
	return `<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>` +
		strings.Join(shapes, "") + `</p:spTree>`
}

func xfrm(x, y, cx, cy int64) string {
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, x, y, cx, cy)
}

// textShape is a p:sp carrying one paragraph of text. ph is the inner
// placeholder markup ("" for none); spPr and rPr are inserted verbatim.
func textShape(id int, ph, spPr, rPr, text string) string {
	nvPr := `<p:nvPr/>`
	if ph != "" {
		nvPr = `<p:nvPr>` + ph + `</p:nvPr>`
	}
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/>%s</p:nvSpPr>`+
		`<p:spPr>%s</p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r>%s<a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`,
		id, id, nvPr, spPr, rPr, text)
}

// filledShape is a p:sp with a preset geometry and a solid fill.
func filledShape(id int, preset, hex string, x, y, cx, cy int64) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
		`<p:spPr>%s<a:prstGeom prst="%s"><a:avLst/></a:prstGeom><a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:spPr></p:sp>`,
		id, id, xfrm(x, y, cx, cy), preset, hex)
}

func (f *pptxFixture) bytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`+
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`+
		`<Default Extension="xml" ContentType="application/xml"/>`+
		`<Default Extension="png" ContentType="image/png"/></Types>`)
	write("_rels/.rels", rels(
		fixtureRel{"rId1", relTypeOfficeDoc, "ppt/presentation.xml"},
		fixtureRel{"rId2", relTypeCoreProps, "docProps/core.xml"},
	))
	write("docProps/core.xml", `<?xml version="1.0" encoding="UTF-8"?>`+
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" `+
		`xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>`+f.title+`</dc:title></cp:coreProperties>`)

	var sldIDs strings.Builder
	presRels := []fixtureRel{
		{"rIdM", relTypeSlideMaster, "slideMasters/slideMaster1.xml"},
		{"rIdT", relTypeTheme, "theme/theme1.xml"},
	}
	for i := range f.slides {
		rid := fmt.Sprintf("rIdS%d", i+1)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
		presRels = append(presRels, fixtureRel{rid, relTypeSlide, fmt.Sprintf("slides/slide%d.xml", i+1)})
	}
	write("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:presentation `+nsDecl+`>`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rIdM"/></p:sldMasterIdLst>`+
		`<p:sldIdLst>`+sldIDs.String()+`</p:sldIdLst>`+
		fmt.Sprintf(`<p:sldSz cx="%d" cy="%d"/>`, f.width, f.height)+
		`</p:presentation>`)
	write("ppt/_rels/presentation.xml.rels", rels(presRels...))
	write("ppt/theme/theme1.xml", f.theme)

	write("ppt/slideMasters/slideMaster1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:sldMaster `+nsDecl+`><p:cSld>`+f.master+`</p:cSld>`+defaultClrMap+
		`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rIdL1"/></p:sldLayoutIdLst>`+
		`<p:txStyles>`+f.masterTx+`</p:txStyles></p:sldMaster>`)
	write("ppt/slideMasters/_rels/slideMaster1.xml.rels", rels(
		fixtureRel{"rIdL1", relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"},
		fixtureRel{"rIdT", relTypeTheme, "../theme/theme1.xml"},
	))
	write("ppt/slideLayouts/slideLayout1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<p:sldLayout `+nsDecl+`><p:cSld name="Title and Content">`+f.layout+`</p:cSld>`+
		`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`)
	write("ppt/slideLayouts/_rels/slideLayout1.xml.rels", rels(
		fixtureRel{"rIdM", relTypeSlideMaster, "../slideMasters/slideMaster1.xml"},
	))

	for i, s := range f.slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), s.xml)
		slideRels := append([]fixtureRel{{"rIdL", relTypeSlideLayout, "../slideLayouts/slideLayout1.xml"}}, s.rels...)
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), rels(slideRels...))
	}
	for name, data := range f.media {
		w, err := zw.Create("ppt/media/" + name)
		if err != nil {
			t.Fatalf("create media %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write media %s: %v", name, err)
		}
	}
	for name, content := range f.extra {
		write(name, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func rels(list ...fixtureRel) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	sb.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range list {
		fmt.Fprintf(&sb, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.relType, r.target)
	}
	sb.WriteString(`</Relationships>`)
	return sb.String()
}

// importFixture imports f onto a 1280x720 canvas, where one native pixel
// is one canvas pixel.
func importFixture(t *testing.T, f *pptxFixture) *Deck {
	t.Helper()
	deck, err := Import(f.bytes(t), WithCanvasSize(1280, 720), WithIDGenerator(SequentialIDs("c")))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	return deck
}

// testPNG encodes a small opaque image of a single colour.
func testPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// componentsOf returns the components of the given type, in slide order.
func componentsOf(s Slide, typ ComponentType) []Component {
	var out []Component
	for _, c := range s.Components {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func approx(a, b float64) bool {
	d := a - b
	return d < 1e-3 && d > -1e-3
}
