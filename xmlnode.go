package slidescene

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// node is a minimal element tree built from an xml.Decoder token stream.
// Names are local names; namespace prefixes are dropped because PresentationML
// never reuses a local name for two different elements at the same level.
// All accessors are nil-safe so lookups can be chained without checks.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     string
}

// maxXMLDepth bounds element nesting to protect against pathological input.
const maxXMLDepth = 256

func parseXML(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	var stack []*node
	var root *node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) >= maxXMLDepth {
				return nil, fmt.Errorf("xml nesting exceeds %d levels", maxXMLDepth)
			}
			n := &node{name: t.Name.Local, attrs: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, errors.New("xml document has no root element")
	}
	return root, nil
}

// child returns the first direct child with the given local name.
func (n *node) child(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// elements returns the direct children of n, or nil for a missing node.
func (n *node) elements() []*node {
	if n == nil {
		return nil
	}
	return n.children
}

// path follows a chain of direct children.
func (n *node) path(names ...string) *node {
	cur := n
	for _, name := range names {
		cur = cur.child(name)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// all returns every direct child with the given local name.
func (n *node) all(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// find returns the first descendant (depth-first) with the given local name.
func (n *node) find(name string) *node {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.name == name {
			return c
		}
		if f := c.find(name); f != nil {
			return f
		}
	}
	return nil
}

// findAll returns every descendant with the given local name in document order.
func (n *node) findAll(name string) []*node {
	if n == nil {
		return nil
	}
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
		out = append(out, c.findAll(name)...)
	}
	return out
}

func (n *node) attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// attrNS matches both local name and namespace prefix-resolved space, used
// for r:id / r:embed which can clash with plain id attributes.
func (n *node) attrNS(space, name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.attrs {
		if a.Name.Local == name && (a.Name.Space == space || strings.HasSuffix(a.Name.Space, "/relationships")) {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) attrOr(name, def string) string {
	if v, ok := n.attr(name); ok {
		return v
	}
	return def
}

func (n *node) attrInt(name string) (int64, bool) {
	v, ok := n.attr(name)
	if !ok {
		return 0, false
	}
	i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func (n *node) attrBool(name string) (bool, bool) {
	v, ok := n.attr(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on":
		return true, true
	case "0", "false", "off":
		return false, true
	}
	return false, false
}

// relID returns the r:id-style attribute with the given local name.
func (n *node) relID(name string) (string, bool) {
	return n.attrNS(nsOfficeDocRels, name)
}

// textContent concatenates the character data of n and all descendants.
func (n *node) textContent() string {
	if n == nil {
		return ""
	}
	if len(n.children) == 0 {
		return n.text
	}
	var sb strings.Builder
	sb.WriteString(n.text)
	for _, c := range n.children {
		sb.WriteString(c.textContent())
	}
	return sb.String()
}

// xmlAttrs builds an attribute list from name/value pairs.
func xmlAttrs(pairs ...string) []xml.Attr {
	out := make([]xml.Attr, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, xml.Attr{Name: xml.Name{Local: pairs[i]}, Value: pairs[i+1]})
	}
	return out
}
