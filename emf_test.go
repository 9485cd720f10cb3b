package slidescene

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"
)

// emfBuilder assembles a metafile record by record.
type emfBuilder struct {
	buf bytes.Buffer
}

func (b *emfBuilder) record(kind uint32, fields ...uint32) *emfBuilder {
	_ = binary.Write(&b.buf, binary.LittleEndian, kind)
	_ = binary.Write(&b.buf, binary.LittleEndian, uint32(8+4*len(fields)))
	_ = binary.Write(&b.buf, binary.LittleEndian, fields)
	return b
}

// newEMF starts a metafile whose device bounds are (0,0)-(w,h).
func newEMF(w, h int32) *emfBuilder {
	b := &emfBuilder{}
	header := make([]uint32, 20)
	header[2], header[3] = uint32(w), uint32(h) // bounds right, bottom
	header[8] = 0x464D4520                      // " EMF"
	return b.record(emrHeader, header...)
}

func (b *emfBuilder) bytes() []byte {
	b.record(emrEOF, 0, 0, 0)
	return b.buf.Bytes()
}

func redRectangleEMF() []byte {
	return newEMF(100, 50).
		record(emrCreateBrushIndirect, 1, 0, 0x000000FF, 0).
		record(emrSelectObject, 1).
		record(emrRectangle, 10, 10, 60, 40).
		bytes()
}

func TestEMFDecodeConfig(t *testing.T) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(redRectangleEMF()))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "emf" {
		t.Errorf("format = %q, want emf", format)
	}
	// Bounds of 100 device units are scaled up by 3.
	if cfg.Width != 302 || cfg.Height != 152 {
		t.Errorf("size = %dx%d, want 302x152", cfg.Width, cfg.Height)
	}
}

func TestEMFDecodeRectangle(t *testing.T) {
	img, format, err := image.Decode(bytes.NewReader(redRectangleEMF()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "emf" {
		t.Fatalf("format = %q", format)
	}
	r, g, b, a := img.At(100, 75).RGBA()
	if r>>8 != 255 || g != 0 || b != 0 || a>>8 != 255 {
		t.Errorf("inside pixel = %d,%d,%d,%d, want opaque red", r>>8, g>>8, b>>8, a>>8)
	}
	if _, _, _, a := img.At(10, 10).RGBA(); a != 0 {
		t.Errorf("outside pixel alpha = %d, want transparent", a)
	}
}

func TestEMFPathBracket(t *testing.T) {
	// A triangle built from MoveTo/LineTo inside a path, filled with the
	// stock black brush.
	data := newEMF(100, 100).
		record(emrSelectObject, stockBlackBrush).
		record(emrBeginPath).
		record(emrMoveToEx, 0, 0).
		record(emrLineTo, 100, 0).
		record(emrLineTo, 0, 100).
		record(emrCloseFigure).
		record(emrEndPath).
		record(emrFillPath, 0, 0, 100, 100).
		bytes()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, _, _, a := img.At(30, 30).RGBA(); a>>8 != 255 {
		t.Errorf("pixel inside triangle alpha = %d", a>>8)
	}
	if _, _, _, a := img.At(250, 250).RGBA(); a != 0 {
		t.Errorf("pixel outside triangle alpha = %d", a)
	}
}

func TestEMFClipFillIsSkipped(t *testing.T) {
	data := newEMF(100, 100).
		record(emrSelectObject, stockBlackBrush).
		record(emrBeginPath).
		record(emrRectangle, 0, 0, 100, 100).
		record(emrEndPath).
		record(emrFillPath, 0, 0, 100, 100).
		record(emrCloseFigure).
		record(emrAbortPath).
		bytes()
	if _, _, err := image.Decode(bytes.NewReader(data)); err != errEMFEmpty {
		t.Errorf("Decode error = %v, want %v", err, errEMFEmpty)
	}
}

func TestEMFStretchDIBits(t *testing.T) {
	// A 2x2 24-bit bitmap of pure blue stretched over the whole frame.
	// The record is 80 fixed bytes, a 40-byte BITMAPINFOHEADER and 16
	// bytes of pixel rows.
	fields := make([]uint32, 32)
	fields[8], fields[9] = 2, 2                     // cxSrc, cySrc
	fields[10], fields[11] = 80, 40                 // offBmiSrc, cbBmiSrc
	fields[12], fields[13] = 120, 16                // offBitsSrc, cbBitsSrc
	fields[15] = 0x00CC0020                         // SRCCOPY
	fields[16], fields[17] = 100, 50                // cxDest, cyDest
	fields[18], fields[19] = 40, 2                  // biSize, biWidth
	fields[20] = 2                                  // biHeight
	fields[21] = 1 | 24<<16                         // biPlanes, biBitCount
	fields[23] = 16                                 // biSizeImage
	fields[28], fields[30] = 0xFF0000FF, 0xFF0000FF // two BGR pixels per row, then padding

	data := newEMF(100, 50).record(emrStretchDIBits, fields...).bytes()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	r, _, b, a := img.At(150, 75).RGBA()
	if b>>8 < 200 || r>>8 > 50 || a>>8 != 255 {
		t.Errorf("bitmap pixel = r%d b%d a%d, want blue", r>>8, b>>8, a>>8)
	}
}

func TestEMFRejectsEmptyAndBroken(t *testing.T) {
	empty := newEMF(100, 100).bytes()
	if _, _, err := image.DecodeConfig(bytes.NewReader(empty)); err == nil {
		t.Error("expected error for metafile without drawing records")
	}
	broken := newEMF(0, 0).record(emrRectangle, 0, 0, 1, 1).bytes()
	if _, _, err := image.DecodeConfig(bytes.NewReader(broken)); err == nil {
		t.Error("expected error for empty bounds")
	}
}

func TestImport_EMFPicture(t *testing.T) {
	pic := `<p:pic><p:nvPicPr><p:cNvPr id="4" name="Diagram"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>` +
		`<p:blipFill><a:blip r:embed="rIdImg"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		`<p:spPr>` + xfrm(0, 0, 1905000, 952500) + `</p:spPr></p:pic>`
	f := newFixture()
	f.media["image1.emf"] = redRectangleEMF()
	f.addSlide(spTree(pic), fixtureRel{"rIdImg", relTypeImage, "../media/image1.emf"})
	deck := importFixture(t, f)

	images := componentsOf(deck.Slides[0], TypeImage)
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if mt := images[0].Props.(ImageProps).Image.MimeType; mt != "image/emf" {
		t.Errorf("MimeType = %q, want image/emf", mt)
	}
	if err := deck.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	_, diag := NewRenderer(WithFontDirs(false)).ForDeck(deck).RenderImage(deck.Slides[0])
	if diag.Errors != 0 {
		t.Errorf("rendering the metafile failed %d times", diag.Errors)
	}
}
