package slidescene

import (
	"fmt"
	"math"
	"strings"
)

// Validate checks the deck against the scene-graph invariants and returns
// an error describing all problems found, or nil if the deck is valid.
func (d *Deck) Validate() error {
	var errs []string

	if d.CanvasSize.Width <= 0 || d.CanvasSize.Height <= 0 {
		errs = append(errs, "canvas size must be positive")
	}
	seen := make(map[string]bool)
	for i, s := range d.Slides {
		prefix := fmt.Sprintf("slide %d", i+1)
		if s.ID == "" {
			errs = append(errs, prefix+": missing id")
		}
		if s.Index != i {
			errs = append(errs, fmt.Sprintf("%s: index %d out of order", prefix, s.Index))
		}
		for _, e := range validateSlide(s, seen) {
			errs = append(errs, prefix+": "+e)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(errs, "\n  "))
}

func validateSlide(s Slide, seen map[string]bool) []string {
	var errs []string
	ids := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		ids[c.ID] = true
	}
	for j, c := range s.Components {
		prefix := fmt.Sprintf("component %d", j+1)
		if c.ID == "" {
			errs = append(errs, prefix+": missing id")
		} else if seen[c.ID] {
			errs = append(errs, prefix+": duplicate id "+c.ID)
		}
		seen[c.ID] = true
		if c.Props == nil {
			errs = append(errs, prefix+": props are nil")
			continue
		}
		if c.Type != c.Props.ComponentType() {
			errs = append(errs, fmt.Sprintf("%s: type %s does not match props %s", prefix, c.Type, c.Props.ComponentType()))
		}
		f := c.Props.Placement()
		if f.Width < 0 || f.Height < 0 {
			errs = append(errs, prefix+": negative size")
		}
		if f.Rotation < 0 || f.Rotation >= 360 || math.IsNaN(f.Rotation) {
			errs = append(errs, fmt.Sprintf("%s: rotation %v outside [0,360)", prefix, f.Rotation))
		}
		if f.Opacity < 0 || f.Opacity > 1 {
			errs = append(errs, prefix+": opacity outside [0,1]")
		}

		switch p := c.Props.(type) {
		case BackgroundProps:
			errs = append(errs, validateColor(prefix+": background", p.Color)...)
		case ImageProps:
			if len(p.Image.Data) == 0 {
				errs = append(errs, prefix+": image has no data")
			}
			if !isValidImageMime(p.Image.MimeType) {
				errs = append(errs, prefix+": unsupported image MIME type: "+p.Image.MimeType)
			}
		case TextBlockProps:
			errs = append(errs, validateColor(prefix+": background", p.BackgroundColor)...)
			errs = append(errs, validateParagraphs(p.Paragraphs, prefix)...)
		case ShapeProps:
			if p.Fill == nil {
				errs = append(errs, prefix+": shape has no fill")
			}
			if p.Text != nil {
				errs = append(errs, validateParagraphs(p.Text.Paragraphs, prefix)...)
			}
		case LineProps:
			errs = append(errs, validateColor(prefix+": line", p.Stroke.Color)...)
		case TableProps:
			// An empty table is valid and paints nothing.
			for ri, row := range p.Rows {
				for ci, cell := range row.Cells {
					cp := fmt.Sprintf("%s: cell %d,%d", prefix, ri, ci)
					errs = append(errs, validateColor(cp+" fill", cell.Fill)...)
					errs = append(errs, validateParagraphs(cell.Paragraphs, cp)...)
				}
			}
		case GroupProps:
			for _, id := range p.Children {
				if !ids[id] {
					errs = append(errs, prefix+": group child "+id+" not on slide")
				}
			}
		}
	}
	return errs
}

// validateParagraphs checks that every run carries a complete style.
func validateParagraphs(paragraphs []Paragraph, prefix string) []string {
	var errs []string
	for i, para := range paragraphs {
		if para.Alignment == "" {
			errs = append(errs, fmt.Sprintf("%s: paragraph %d has no alignment", prefix, i+1))
		}
		for k, r := range para.Runs {
			where := fmt.Sprintf("%s: paragraph %d run %d", prefix, i+1, k+1)
			if r.FontFamily == "" {
				errs = append(errs, where+" has no font family")
			}
			if r.FontSize <= 0 {
				errs = append(errs, where+" has no font size")
			}
			errs = append(errs, validateColor(where+" text", r.TextColor)...)
			errs = append(errs, validateColor(where+" background", r.BackgroundColor)...)
		}
	}
	return errs
}

func validateColor(what string, c Color) []string {
	if _, ok := ParseColor(string(c)); !ok || len(c) != 9 {
		return []string{fmt.Sprintf("%s colour %q is not #RRGGBBAA", what, c)}
	}
	return nil
}

// isValidImageMime checks if a MIME type is a supported image format.
func isValidImageMime(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff", "image/webp", "image/emf":
		return true
	}
	return false
}
