package slidescene

import "math"

// Box is a shape's frame in native units (EMU) before canvas scaling.
type Box struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64 // degrees
	FlipH, FlipV  bool
}

// Center returns the midpoint of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// GroupFrame is the placement of a group together with the extent of its
// child coordinate space (a:chOff / a:chExt).
type GroupFrame struct {
	Box
	ChildX, ChildY          float64
	ChildWidth, ChildHeight float64
}

// affine maps (x, y) to (a*x + b*y + c, d*x + e*y + f).
type affine struct {
	a, b, c float64
	d, e, f float64
}

var identityAffine = affine{a: 1, e: 1}

func (m affine) apply(x, y float64) (float64, float64) {
	return m.a*x + m.b*y + m.c, m.d*x + m.e*y + m.f
}

// mul returns m∘n (n applied first).
func (m affine) mul(n affine) affine {
	return affine{
		a: m.a*n.a + m.b*n.d,
		b: m.a*n.b + m.b*n.e,
		c: m.a*n.c + m.b*n.f + m.c,
		d: m.d*n.a + m.e*n.d,
		e: m.d*n.b + m.e*n.e,
		f: m.d*n.c + m.e*n.f + m.f,
	}
}

func (m affine) axisAligned() bool { return m.b == 0 && m.d == 0 }

// Transform is the accumulated mapping from a group's child coordinate
// space to absolute slide coordinates. The zero value is not usable; start
// from IdentityTransform.
type Transform struct {
	m              affine
	scaleX, scaleY float64
	rotation       float64
	flipH, flipV   bool
}

// IdentityTransform maps slide coordinates onto themselves.
func IdentityTransform() Transform {
	return Transform{m: identityAffine, scaleX: 1, scaleY: 1}
}

// Scale returns the accumulated per-axis scale factors.
func (t Transform) Scale() (float64, float64) { return t.scaleX, t.scaleY }

// Rotation returns the accumulated rotation in degrees.
func (t Transform) Rotation() float64 { return t.rotation }

// Enter composes the transform of a nested group. Children of g are then
// mapped with absolute = groupOrigin + (child - childOffset) * ext/childExt,
// rotated and mirrored about the group's centre.
func (t Transform) Enter(g GroupFrame) Transform {
	sx, sy := 1.0, 1.0
	if g.ChildWidth > 0 {
		sx = g.Width / g.ChildWidth
	}
	if g.ChildHeight > 0 {
		sy = g.Height / g.ChildHeight
	}
	local := affine{a: sx, c: g.X - g.ChildX*sx, e: sy, f: g.Y - g.ChildY*sy}

	cx, cy := g.Center()
	if g.FlipH || g.FlipV {
		fx, fy := 1.0, 1.0
		if g.FlipH {
			fx = -1
		}
		if g.FlipV {
			fy = -1
		}
		flip := affine{a: fx, c: cx - fx*cx, e: fy, f: cy - fy*cy}
		local = flip.mul(local)
	}
	if g.Rotation != 0 {
		sin, cos := math.Sincos(g.Rotation * math.Pi / 180)
		rot := affine{
			a: cos, b: -sin, c: cx - cos*cx + sin*cy,
			d: sin, e: cos, f: cy - sin*cx - cos*cy,
		}
		local = rot.mul(local)
	}

	child := Transform{
		m:        t.m.mul(local),
		scaleX:   t.scaleX * sx,
		scaleY:   t.scaleY * sy,
		rotation: t.rotation,
		flipH:    t.flipH != g.FlipH,
		flipV:    t.flipV != g.FlipV,
	}
	// A mirrored parent reverses the sense of a child's own rotation.
	rot := g.Rotation
	if t.flipH != t.flipV {
		rot = -rot
	}
	child.rotation = NormalizeRotation(t.rotation + rot)
	return child
}

// Apply maps a box from child space to slide space.
func (t Transform) Apply(b Box) Box {
	w := b.Width * math.Abs(t.scaleX)
	h := b.Height * math.Abs(t.scaleY)
	out := Box{
		Width:  w,
		Height: h,
		FlipH:  b.FlipH != t.flipH,
		FlipV:  b.FlipV != t.flipV,
	}
	rot := b.Rotation
	if t.flipH != t.flipV {
		rot = -rot
	}
	out.Rotation = NormalizeRotation(rot + t.rotation)

	if t.m.axisAligned() {
		// Map corners directly so identity scale stays exact.
		x0, y0 := t.m.apply(b.X, b.Y)
		x1, y1 := t.m.apply(b.X+b.Width, b.Y+b.Height)
		out.X, out.Y = math.Min(x0, x1), math.Min(y0, y1)
		return out
	}
	cx, cy := t.m.apply(b.Center())
	out.X = cx - w/2
	out.Y = cy - h/2
	return out
}

// ShapeTree is a group hierarchy used by Flatten. Leaves carry a Box;
// groups carry a GroupFrame and children.
type ShapeTree struct {
	Box      Box
	Group    *GroupFrame
	Children []*ShapeTree
}

// Flatten walks the tree depth-first and returns every leaf box in
// absolute coordinates, in document order.
func Flatten(tree *ShapeTree, parent Transform) []Box {
	if tree == nil {
		return nil
	}
	if tree.Group == nil {
		return []Box{parent.Apply(tree.Box)}
	}
	inner := parent.Enter(*tree.Group)
	var out []Box
	for _, c := range tree.Children {
		out = append(out, Flatten(c, inner)...)
	}
	return out
}

// readXfrm reads a:xfrm (or p:xfrm for graphic frames).
func readXfrm(x *node) (Box, bool) {
	if x == nil {
		return Box{}, false
	}
	off := x.child("off")
	ext := x.child("ext")
	if off == nil && ext == nil {
		return Box{}, false
	}
	ox, _ := off.attrInt("x")
	oy, _ := off.attrInt("y")
	cx, _ := ext.attrInt("cx")
	cy, _ := ext.attrInt("cy")
	rot, _ := x.attrInt("rot")
	fh, _ := x.attrBool("flipH")
	fv, _ := x.attrBool("flipV")
	return Box{
		X: float64(ox), Y: float64(oy),
		Width: float64(max(cx, 0)), Height: float64(max(cy, 0)),
		Rotation: RotationFromOOXML(rot),
		FlipH:    fh, FlipV: fv,
	}, true
}

// readGroupXfrm reads p:grpSpPr/a:xfrm including the child extent.
func readGroupXfrm(x *node) (GroupFrame, bool) {
	b, ok := readXfrm(x)
	if !ok {
		return GroupFrame{}, false
	}
	g := GroupFrame{Box: b, ChildWidth: b.Width, ChildHeight: b.Height, ChildX: b.X, ChildY: b.Y}
	if co := x.child("chOff"); co != nil {
		v, _ := co.attrInt("x")
		g.ChildX = float64(v)
		v, _ = co.attrInt("y")
		g.ChildY = float64(v)
	}
	if ce := x.child("chExt"); ce != nil {
		v, _ := ce.attrInt("cx")
		g.ChildWidth = float64(v)
		v, _ = ce.attrInt("cy")
		g.ChildHeight = float64(v)
	}
	return g, true
}

// toCanvas scales a native box onto the canvas.
func toCanvas(b Box, scale float64) Frame {
	return Frame{
		Position: Position{X: b.X / emuPerPixel * scale, Y: b.Y / emuPerPixel * scale},
		Width:    b.Width / emuPerPixel * scale,
		Height:   b.Height / emuPerPixel * scale,
		Rotation: NormalizeRotation(b.Rotation),
		Opacity:  1,
	}
}
