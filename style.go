package slidescene

import (
	"encoding/json"
	"strings"
)

// TextRun is a fully resolved run of text. Every field is populated.
type TextRun struct {
	Text            string  `json:"text"`
	TextColor       Color   `json:"textColor"`
	BackgroundColor Color   `json:"backgroundColor"`
	Bold            bool    `json:"bold"`
	Italic          bool    `json:"italic"`
	Underline       bool    `json:"underline"`
	Strike          bool    `json:"strike"`
	FontSize        float64 `json:"fontSize"` // canvas pixels
	FontFamily      string  `json:"fontFamily"`
	// Break marks a line break (a:br); Text is "\n".
	Break bool `json:"break,omitempty"`
}

// HorizontalAlignment represents horizontal text alignment.
type HorizontalAlignment string

const (
	HorizontalLeft        HorizontalAlignment = "left"
	HorizontalCenter      HorizontalAlignment = "center"
	HorizontalRight       HorizontalAlignment = "right"
	HorizontalJustify     HorizontalAlignment = "justify"
	HorizontalDistributed HorizontalAlignment = "distributed"
)

// VerticalAlignment represents vertical text alignment.
type VerticalAlignment string

const (
	VerticalTop    VerticalAlignment = "top"
	VerticalMiddle VerticalAlignment = "middle"
	VerticalBottom VerticalAlignment = "bottom"
)

func horizontalFromOOXML(v string) (HorizontalAlignment, bool) {
	switch v {
	case "l":
		return HorizontalLeft, true
	case "ctr":
		return HorizontalCenter, true
	case "r":
		return HorizontalRight, true
	case "just", "justLow", "thaiDist":
		return HorizontalJustify, true
	case "dist":
		return HorizontalDistributed, true
	}
	return "", false
}

func verticalFromOOXML(v string) (VerticalAlignment, bool) {
	switch v {
	case "t":
		return VerticalTop, true
	case "ctr":
		return VerticalMiddle, true
	case "b":
		return VerticalBottom, true
	}
	return "", false
}

// Paragraph is a list of runs sharing alignment.
type Paragraph struct {
	Alignment HorizontalAlignment `json:"alignment"`
	Level     int                 `json:"level,omitempty"`
	Bullet    string              `json:"bullet,omitempty"`
	Runs      []TextRun           `json:"runs"`
}

// PlainText joins the run text of the paragraph.
func (p Paragraph) PlainText() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Insets are text-frame paddings in canvas pixels.
type Insets struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// TextBody is the text content of a shape or text block.
type TextBody struct {
	Paragraphs        []Paragraph       `json:"paragraphs"`
	VerticalAlignment VerticalAlignment `json:"verticalAlignment"`
	Padding           Insets            `json:"padding"`
	Wrap              bool              `json:"wrap"`
}

// PlainText joins paragraphs with newlines.
func (b TextBody) PlainText() string {
	parts := make([]string, len(b.Paragraphs))
	for i, p := range b.Paragraphs {
		parts[i] = p.PlainText()
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether the body has no visible characters.
func (b TextBody) Empty() bool {
	for _, p := range b.Paragraphs {
		for _, r := range p.Runs {
			if !r.Break && strings.TrimSpace(r.Text) != "" {
				return false
			}
		}
	}
	return true
}

// Fill is the closed set of area fills.
type Fill interface {
	fillKind() string
}

// NoFill paints nothing.
type NoFill struct{}

// SolidFill paints a single colour.
type SolidFill struct {
	Color Color `json:"color"`
}

// GradientFill paints a linear or radial gradient.
type GradientFill struct {
	Gradient
}

// PictureFill paints an image; shapes with picture fills are imported as
// masked images.
type PictureFill struct {
	Image ImageRef `json:"image"`
}

func (NoFill) fillKind() string       { return "none" }
func (SolidFill) fillKind() string    { return "solid" }
func (GradientFill) fillKind() string { return "gradient" }
func (PictureFill) fillKind() string  { return "picture" }

// MarshalJSON tags each fill with its kind.
func (f NoFill) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"type": f.fillKind()})
}

func (f SolidFill) MarshalJSON() ([]byte, error) {
	type alias SolidFill
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.fillKind(), alias(f)})
}

func (f GradientFill) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Gradient
	}{f.fillKind(), f.Gradient})
}

func (f PictureFill) MarshalJSON() ([]byte, error) {
	type alias PictureFill
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{f.fillKind(), alias(f)})
}

// fillColor returns the dominant colour of a fill (first stop for gradients).
func fillColor(f Fill) (Color, bool) {
	switch v := f.(type) {
	case SolidFill:
		return v.Color, !v.Color.IsTransparent()
	case GradientFill:
		if len(v.Stops) > 0 {
			return v.Stops[0].Color, true
		}
	}
	return "", false
}

// Gradient is a list of stops along an angle.
type Gradient struct {
	Stops  []GradientStop `json:"stops"`
	Angle  float64        `json:"angle"` // degrees, 0 = left to right
	Radial bool           `json:"radial,omitempty"`
}

// GradientStop is one colour stop; Position is in [0,1].
type GradientStop struct {
	Position float64 `json:"position"`
	Color    Color   `json:"color"`
}

// Stroke describes an outline or line.
type Stroke struct {
	Color Color   `json:"color"`
	Width float64 `json:"width"` // canvas pixels
	Dash  string  `json:"dash,omitempty"`
}

// Visible reports whether the stroke paints anything.
func (s Stroke) Visible() bool {
	return s.Width > 0 && !s.Color.IsTransparent()
}

// dashPattern converts a preset dash name to lengths in multiples of width.
func dashPattern(name string) []float64 {
	switch name {
	case "dot", "sysDot":
		return []float64{1, 1}
	case "dash", "sysDash":
		return []float64{4, 3}
	case "lgDash":
		return []float64{8, 3}
	case "dashDot", "sysDashDot":
		return []float64{4, 3, 1, 3}
	case "lgDashDot":
		return []float64{8, 3, 1, 3}
	case "lgDashDotDot", "sysDashDotDot":
		return []float64{8, 3, 1, 3, 1, 3}
	}
	return nil
}

// ImageRef is an embedded raster payload.
type ImageRef struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mimeType"`
	Part     string `json:"part,omitempty"`
	Crop     *Crop  `json:"crop,omitempty"`
	FlipH    bool   `json:"flipH,omitempty"`
	FlipV    bool   `json:"flipV,omitempty"`
}

// Crop is a set of fractional insets, each in [0,1].
type Crop struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// IsZero reports whether the crop removes nothing.
func (c *Crop) IsZero() bool {
	return c == nil || (c.Left == 0 && c.Right == 0 && c.Top == 0 && c.Bottom == 0)
}
