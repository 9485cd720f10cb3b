package slidescene

import (
	"bytes"
	"image"

	// Decoders for the raster formats found in presentation media.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// readBlip loads the image of an a:blipFill (or p:blipFill) relative to
// part. It returns the image, its opacity from a:alphaModFix, and false
// when the payload is missing or not a decodable raster image.
func (sc *slideContext) readBlip(blipFill *node, part string) (*ImageRef, float64, bool) {
	blip := blipFill.child("blip")
	id, ok := blip.relID("embed")
	if !ok || id == "" {
		return nil, 0, false
	}
	data, name, err := sc.doc.pkg.mediaPayload(part, id)
	if err != nil {
		sc.doc.log.Debug("image payload unavailable", "part", part, "rel", id, "err", err)
		return nil, 0, false
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		sc.doc.log.Debug("image payload not decodable", "media", name, "err", err)
		return nil, 0, false
	}
	img := &ImageRef{Data: data, MimeType: "image/" + format, Part: name}
	if crop := readCrop(blipFill.child("srcRect")); !crop.IsZero() {
		img.Crop = crop
	}

	opacity := 1.0
	if amt, ok := blip.child("alphaModFix").attrInt("amt"); ok {
		opacity = clamp01(percentToFraction(amt))
	}
	return img, opacity, true
}

// readCrop reads a:srcRect. Negative insets (padding) are treated as zero.
func readCrop(rect *node) *Crop {
	if rect == nil {
		return nil
	}
	frac := func(name string) float64 {
		v, _ := rect.attrInt(name)
		return clamp01(percentToFraction(v))
	}
	c := &Crop{Left: frac("l"), Top: frac("t"), Right: frac("r"), Bottom: frac("b")}
	if c.Left+c.Right >= 1 {
		c.Left, c.Right = 0, 0
	}
	if c.Top+c.Bottom >= 1 {
		c.Top, c.Bottom = 0, 0
	}
	return c
}
