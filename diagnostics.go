package slidescene

// Diagnostics reports layout problems found while compositing a slide.
type Diagnostics struct {
	Overlaps      []Overlap      `json:"overlaps"`
	TextOverflows []TextOverflow `json:"textOverflows"`
	// Errors counts components that could not be painted.
	Errors int `json:"errors"`
}

// Overlap is a pair of placed components whose bounds intersect.
type Overlap struct {
	ComponentA     string        `json:"componentA"`
	ComponentB     string        `json:"componentB"`
	TypeA          ComponentType `json:"typeA"`
	TypeB          ComponentType `json:"typeB"`
	OverlapAreaPx2 float64       `json:"overlapAreaPx2"`
	BoundsA        Rect          `json:"boundsA"`
	BoundsB        Rect          `json:"boundsB"`
}

// TextOverflow names a component whose wrapped text is taller than its box.
type TextOverflow struct {
	ComponentID   string        `json:"componentId"`
	ComponentType ComponentType `json:"componentType"`
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{Overlaps: []Overlap{}, TextOverflows: []TextOverflow{}}
}

// Clean reports whether nothing was found.
func (d *Diagnostics) Clean() bool {
	return d == nil || (len(d.Overlaps) == 0 && len(d.TextOverflows) == 0 && d.Errors == 0)
}

// overlapCandidate reports whether c takes part in overlap detection.
// Backgrounds, background images and groups cover other components by
// construction.
func overlapCandidate(c Component) bool {
	switch p := c.Props.(type) {
	case nil, BackgroundProps, GroupProps:
		return false
	case ImageProps:
		return !p.IsBackground
	}
	return true
}

// DetectOverlaps returns every pair of components whose rotated bounds
// intersect with positive area, in component order.
func DetectOverlaps(components []Component) []Overlap {
	type placed struct {
		c      Component
		bounds Rect
	}
	var items []placed
	for _, c := range components {
		if !overlapCandidate(c) {
			continue
		}
		items = append(items, placed{c: c, bounds: c.Props.Placement().RotatedBounds()})
	}

	out := []Overlap{}
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			area := a.bounds.Intersect(b.bounds).Area()
			if area <= 0 {
				continue
			}
			out = append(out, Overlap{
				ComponentA:     a.c.ID,
				ComponentB:     b.c.ID,
				TypeA:          a.c.Type,
				TypeB:          b.c.Type,
				OverlapAreaPx2: area,
				BoundsA:        a.bounds,
				BoundsB:        b.bounds,
			})
		}
	}
	return out
}
