// Package layout provides utilities to help with laying out
// rectangles inside of other rectangles.
package layout

import (
	"strings"

	"deedles.dev/ximage/geom"
)

// Edges is a set of rectangle edges.
type Edges uint32

const (
	EdgeNone   Edges = 0
	EdgeTop    Edges = 1 << 0
	EdgeBottom Edges = 1 << 1
	EdgeLeft   Edges = 1 << 2
	EdgeRight  Edges = 1 << 3

	EdgeAll = EdgeTop | EdgeBottom | EdgeLeft | EdgeRight
)

// Has reports whether every edge in e2 is in e.
func (e Edges) Has(e2 Edges) bool {
	return e&e2 == e2
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}

	var names []string
	for _, n := range []struct {
		e    Edges
		name string
	}{
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
	} {
		if e&n.e != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Margin is extra space to leave between a rectangle and the edges it
// is anchored to.
type Margin struct {
	Top, Right, Bottom, Left int
}

// Box returns the rectangle with its top-left corner at (x, y) and the
// given size.
func Box(x, y, w, h int) geom.Rect[int] {
	return geom.Rect[int]{
		Min: geom.Pt(x, y),
		Max: geom.Pt(x+w, y+h),
	}
}

// Center returns a rectangle of the given size centered inside of
// outer.
func Center(outer geom.Rect[int], size geom.Point[int]) geom.Rect[int] {
	return Box(
		outer.Min.X+(outer.Dx()-size.X)/2,
		outer.Min.Y+(outer.Dy()-size.Y)/2,
		size.X,
		size.Y,
	)
}

// Align places a rectangle of the given size inside of outer so that
// it touches the specified edges of outer, offset by the matching
// margins. If both opposite edges of an axis are specified and the
// size along that axis is zero, the rectangle stretches to fill outer
// minus the margins along that axis. An axis with neither or both
// edges and a non-zero size is centered.
func Align(outer geom.Rect[int], size geom.Point[int], edges Edges, m Margin) geom.Rect[int] {
	var x, y int
	w, h := size.X, size.Y

	horiz := edges & (EdgeLeft | EdgeRight)
	if (w == 0) && (horiz == EdgeLeft|EdgeRight) {
		w = outer.Dx() - m.Left - m.Right
	}
	switch horiz {
	case EdgeLeft:
		x = outer.Min.X + m.Left
	case EdgeRight:
		x = outer.Max.X - m.Right - w
	default:
		x = outer.Min.X + m.Left + (outer.Dx()-m.Left-m.Right-w)/2
	}

	vert := edges & (EdgeTop | EdgeBottom)
	if (h == 0) && (vert == EdgeTop|EdgeBottom) {
		h = outer.Dy() - m.Top - m.Bottom
	}
	switch vert {
	case EdgeTop:
		y = outer.Min.Y + m.Top
	case EdgeBottom:
		y = outer.Max.Y - m.Bottom - h
	default:
		y = outer.Min.Y + m.Top + (outer.Dy()-m.Top-m.Bottom-h)/2
	}

	return Box(x, y, max(w, 0), max(h, 0))
}

// ExclusiveEdge returns the single edge that an exclusive zone
// anchored with the given edges applies to. A rectangle anchored to
// one edge, or to one edge and both of its perpendicular neighbours,
// reserves space from that edge. Every other combination reserves
// nothing and EdgeNone is returned.
func ExclusiveEdge(anchor Edges) Edges {
	switch anchor {
	case EdgeTop, EdgeTop | EdgeLeft | EdgeRight:
		return EdgeTop
	case EdgeBottom, EdgeBottom | EdgeLeft | EdgeRight:
		return EdgeBottom
	case EdgeLeft, EdgeLeft | EdgeTop | EdgeBottom:
		return EdgeLeft
	case EdgeRight, EdgeRight | EdgeTop | EdgeBottom:
		return EdgeRight
	default:
		return EdgeNone
	}
}

// Exclude removes a strip n units deep from the given edge of r. The
// result is never smaller than empty.
func Exclude(r geom.Rect[int], edge Edges, n int) geom.Rect[int] {
	switch edge {
	case EdgeTop:
		r.Min.Y = min(r.Min.Y+n, r.Max.Y)
	case EdgeBottom:
		r.Max.Y = max(r.Max.Y-n, r.Min.Y)
	case EdgeLeft:
		r.Min.X = min(r.Min.X+n, r.Max.X)
	case EdgeRight:
		r.Max.X = max(r.Max.X-n, r.Min.X)
	}
	return r
}

// ResizeEdges moves the specified edges of start by delta, leaving the
// opposite edges where they are. The result is clamped so that it is
// never smaller than minSize; when clamping, the moved edge stops and
// the anchored edge stays put.
func ResizeEdges(start geom.Rect[int], delta geom.Point[int], edges Edges, minSize geom.Point[int]) geom.Rect[int] {
	r := start
	if edges&EdgeTop != 0 {
		r.Min.Y = min(start.Min.Y+delta.Y, start.Max.Y-minSize.Y)
	}
	if edges&EdgeBottom != 0 {
		r.Max.Y = max(start.Max.Y+delta.Y, start.Min.Y+minSize.Y)
	}
	if edges&EdgeLeft != 0 {
		r.Min.X = min(start.Min.X+delta.X, start.Max.X-minSize.X)
	}
	if edges&EdgeRight != 0 {
		r.Max.X = max(start.Max.X+delta.X, start.Min.X+minSize.X)
	}
	return r
}
