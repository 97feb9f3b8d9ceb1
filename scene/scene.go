// Package scene is a headless scene graph. It keeps track of where
// surfaces are and how they are stacked without drawing anything,
// which is all that the compositor core needs from a scene to route
// input.
package scene

import (
	"errors"

	"deedles.dev/sycamore"
	"deedles.dev/sycamore/internal/util"
	"deedles.dev/ximage/geom"
	"golang.org/x/exp/slices"
)

var (
	ErrForeignNode = errors.New("node does not belong to this scene")
	ErrNoSurface   = errors.New("no surface")
	ErrDestroyed   = errors.New("node has been destroyed")
)

const bandCount = int(sycamore.SceneLayerOverlay) + 1

// Scene is a set of node trees, one per band. Bands are stacked in
// the order of the sycamore.SceneLayer constants.
type Scene struct {
	trees [bandCount]*Node
}

// New returns an empty scene.
func New() *Scene {
	var s Scene
	for i := range s.trees {
		s.trees[i] = &Node{scene: &s, enabled: true}
	}
	return &s
}

// Tree returns the root of the given band. It returns nil for a band
// that doesn't exist.
func (s *Scene) Tree(layer sycamore.SceneLayer) sycamore.SceneNode {
	if (layer < 0) || (int(layer) >= bandCount) {
		return nil
	}
	return s.trees[layer]
}

// CreateSurfaceTree adds a node displaying surface to the top of
// parent's children.
func (s *Scene) CreateSurfaceTree(parent sycamore.SceneNode, surface sycamore.Surface) (sycamore.SceneNode, error) {
	p, err := s.node(parent)
	if err != nil {
		return nil, err
	}
	if surface == nil {
		return nil, ErrNoSurface
	}

	return p.AddSurface(surface, 0, 0), nil
}

func (s *Scene) node(n sycamore.SceneNode) (*Node, error) {
	node, ok := n.(*Node)
	if !ok || (node == nil) || (node.scene != s) {
		return nil, ErrForeignNode
	}
	if node.destroyed {
		return nil, ErrDestroyed
	}
	return node, nil
}

// NodeAt returns the topmost enabled surface node at the given layout
// coordinates and the coordinates relative to it.
func (s *Scene) NodeAt(lx, ly float64) (sycamore.SceneNode, float64, float64) {
	for i := len(s.trees) - 1; i >= 0; i-- {
		n, sx, sy, ok := s.trees[i].at(geom.Point[int]{}, lx, ly)
		if ok {
			return n, sx, sy
		}
	}
	return nil, 0, 0
}

// Node is a single element of a Scene. A node may display a surface,
// and its children are drawn above it, later children above earlier
// ones.
type Node struct {
	scene    *Scene
	parent   *Node
	children []*Node

	surface   sycamore.Surface
	pos       geom.Point[int]
	enabled   bool
	destroyed bool
	data      any
}

// AddSurface adds a child to n that displays surface at the given
// position relative to n. Popups and subsurfaces are added this way.
func (n *Node) AddSurface(surface sycamore.Surface, x, y int) *Node {
	child := Node{
		scene:   n.scene,
		parent:  n,
		surface: surface,
		pos:     geom.Pt(x, y),
		enabled: true,
	}
	n.children = append(n.children, &child)
	return &child
}

func (n *Node) Parent() sycamore.SceneNode {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Children returns the node's children from bottom to top.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

func (n *Node) Surface() sycamore.Surface {
	return n.surface
}

func (n *Node) Position() geom.Point[int] {
	return n.pos
}

// LayoutPosition returns the position of the node in layout
// coordinates.
func (n *Node) LayoutPosition() geom.Point[int] {
	var p geom.Point[int]
	for node := n; node != nil; node = node.parent {
		p = p.Add(node.pos)
	}
	return p
}

func (n *Node) SetPosition(x, y int) {
	n.pos = geom.Pt(x, y)
}

func (n *Node) Enabled() bool {
	return n.enabled
}

func (n *Node) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// RaiseToTop moves n above all of its siblings.
func (n *Node) RaiseToTop() {
	p := n.parent
	if p == nil {
		return
	}

	p.removeChild(n)
	p.children = append(p.children, n)
}

// Reparent moves n to the top of parent's children, keeping its
// relative position. Parents from other scenes, destroyed parents, and
// descendants of n are ignored.
func (n *Node) Reparent(parent sycamore.SceneNode) {
	p, err := n.scene.node(parent)
	if (err != nil) || (n.parent == nil) {
		return
	}
	for a := p; a != nil; a = a.parent {
		if a == n {
			return
		}
	}

	n.parent.removeChild(n)
	n.parent = p
	p.children = append(p.children, n)
}

func (n *Node) Data() any {
	return n.data
}

func (n *Node) SetData(data any) {
	n.data = data
}

// Destroy removes n and all of its children from the scene. Band
// roots can't be destroyed.
func (n *Node) Destroy() {
	if n.destroyed || (n.parent == nil) {
		return
	}

	n.parent.removeChild(n)
	n.destroyTree()
}

func (n *Node) destroyTree() {
	for _, c := range n.children {
		c.destroyTree()
	}
	n.children = nil
	n.parent = nil
	n.destroyed = true
}

func (n *Node) removeChild(c *Node) {
	n.children = util.Remove(n.children, c)
}

func (n *Node) at(origin geom.Point[int], lx, ly float64) (*Node, float64, float64, bool) {
	if !n.enabled {
		return nil, 0, 0, false
	}

	p := origin.Add(n.pos)
	for i := len(n.children) - 1; i >= 0; i-- {
		c, sx, sy, ok := n.children[i].at(p, lx, ly)
		if ok {
			return c, sx, sy, true
		}
	}

	if n.surface == nil {
		return nil, 0, 0, false
	}

	sx, sy := lx-float64(p.X), ly-float64(p.Y)
	size := n.surface.Size()
	if (sx < 0) || (sy < 0) || (sx >= float64(size.X)) || (sy >= float64(size.Y)) {
		return nil, 0, 0, false
	}
	return n, sx, sy, true
}
