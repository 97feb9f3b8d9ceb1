package scene

import (
	"testing"

	"deedles.dev/sycamore"
	"deedles.dev/ximage/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type surface struct {
	w, h int
}

func (s *surface) Size() geom.Point[int] {
	return geom.Pt(s.w, s.h)
}

func TestNodeAt(t *testing.T) {
	s := New()

	bottom := &surface{100, 100}
	top := &surface{100, 100}

	a, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), bottom)
	require.NoError(t, err)
	b, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), top)
	require.NoError(t, err)
	b.SetPosition(50, 50)

	tests := []struct {
		name    string
		x, y    float64
		node    sycamore.SceneNode
		sx, sy  float64
		nothing bool
	}{
		{name: "Bottom", x: 10, y: 10, node: a, sx: 10, sy: 10},
		{name: "Overlap", x: 60, y: 70, node: b, sx: 10, sy: 20},
		{name: "Top", x: 140, y: 140, node: b, sx: 90, sy: 90},
		{name: "Outside", x: 200, y: 10, nothing: true},
		{name: "RightEdge", x: 150, y: 60, nothing: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			n, sx, sy := s.NodeAt(test.x, test.y)
			if test.nothing {
				assert.Nil(t, n)
				return
			}
			assert.Same(t, test.node, n)
			assert.Equal(t, test.sx, sx)
			assert.Equal(t, test.sy, sy)
		})
	}
}

func TestRaiseToTop(t *testing.T) {
	s := New()
	views := s.Tree(sycamore.SceneLayerViews)

	a, err := s.CreateSurfaceTree(views, &surface{100, 100})
	require.NoError(t, err)
	b, err := s.CreateSurfaceTree(views, &surface{100, 100})
	require.NoError(t, err)

	n, _, _ := s.NodeAt(10, 10)
	assert.Same(t, b, n)

	a.RaiseToTop()
	n, _, _ = s.NodeAt(10, 10)
	assert.Same(t, a, n)
	assert.Equal(t, []*Node{b.(*Node), a.(*Node)}, views.(*Node).Children())
}

func TestBandOrder(t *testing.T) {
	s := New()

	view, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), &surface{100, 100})
	require.NoError(t, err)
	bg, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerBackground), &surface{100, 100})
	require.NoError(t, err)

	n, _, _ := s.NodeAt(10, 10)
	assert.Same(t, view, n)

	panel, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerBackground), &surface{100, 20})
	require.NoError(t, err)
	panel.Reparent(s.Tree(sycamore.SceneLayerOverlay))
	n, _, _ = s.NodeAt(10, 10)
	assert.Same(t, panel, n)

	view.SetEnabled(false)
	panel.Destroy()
	n, _, _ = s.NodeAt(10, 10)
	assert.Same(t, bg, n)
}

func TestChildSurfaces(t *testing.T) {
	s := New()

	root, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), &surface{100, 100})
	require.NoError(t, err)
	root.SetPosition(10, 10)
	root.SetData("view")

	popup := root.(*Node).AddSurface(&surface{50, 50}, 80, 80)
	assert.Equal(t, geom.Pt(90, 90), popup.LayoutPosition())

	n, sx, sy := s.NodeAt(120, 120)
	require.NotNil(t, n)
	assert.Same(t, popup, n)
	assert.Equal(t, 30.0, sx)
	assert.Equal(t, 30.0, sy)
	assert.Nil(t, n.Data())
	assert.Equal(t, "view", n.Parent().Data())

	root.SetEnabled(false)
	n, _, _ = s.NodeAt(120, 120)
	assert.Nil(t, n)
}

func TestParent(t *testing.T) {
	s := New()

	assert.Nil(t, s.Tree(sycamore.SceneLayerViews).Parent())
	assert.Nil(t, s.Tree(sycamore.SceneLayer(-1)))

	n, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), &surface{1, 1})
	require.NoError(t, err)
	assert.Same(t, s.Tree(sycamore.SceneLayerViews), n.Parent())
}

func TestCreateSurfaceTreeErrors(t *testing.T) {
	s := New()
	other := New()

	_, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), nil)
	assert.ErrorIs(t, err, ErrNoSurface)

	_, err = s.CreateSurfaceTree(other.Tree(sycamore.SceneLayerViews), &surface{1, 1})
	assert.ErrorIs(t, err, ErrForeignNode)

	n, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), &surface{1, 1})
	require.NoError(t, err)
	n.Destroy()
	_, err = s.CreateSurfaceTree(n, &surface{1, 1})
	assert.ErrorIs(t, err, ErrDestroyed)
}

func TestReparentIntoSelf(t *testing.T) {
	s := New()

	n, err := s.CreateSurfaceTree(s.Tree(sycamore.SceneLayerViews), &surface{10, 10})
	require.NoError(t, err)
	child := n.(*Node).AddSurface(&surface{5, 5}, 0, 0)

	n.Reparent(child)
	assert.Same(t, s.Tree(sycamore.SceneLayerViews), n.Parent())
}
