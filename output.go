package sycamore

import (
	"math"

	"deedles.dev/sycamore/config"
	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/internal/util"
	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
	"golang.org/x/exp/slices"
)

// Output is a display that is part of the output layout.
type Output struct {
	dev    OutputDevice
	server *Server

	box    geom.Rect[int]
	usable geom.Rect[int]
	layers [layerBandCount][]*Layer

	onDestroy *listener.Listener
}

func (out *Output) Name() string {
	return out.dev.Name()
}

// Box returns the output's area in layout coordinates.
func (out *Output) Box() geom.Rect[int] {
	return out.box
}

// Usable returns the part of the output that isn't reserved by layer
// surfaces.
func (out *Output) Usable() geom.Rect[int] {
	return out.usable
}

// Layers returns the layers on the output in the given band.
func (out *Output) Layers(band LayerBand) []*Layer {
	if !band.valid() {
		return nil
	}
	return slices.Clone(out.layers[band])
}

// NewOutput adds a display to the layout. If the configuration has an
// entry with the output's name, the entry's position, size and scale
// are used. Otherwise the output is placed to the right of the
// existing layout at its preferred size.
func (server *Server) NewOutput(dev OutputDevice) (*Output, error) {
	if server.outputFor(dev) != nil {
		return nil, ErrDuplicate
	}

	out := Output{
		dev:    dev,
		server: server,
	}
	out.onDestroy = dev.OnDestroy(func() { server.removeOutput(&out) })

	c, ok := server.config.Output(dev.Name())
	if !ok {
		c = config.OutputConfig{Name: dev.Name(), X: -1, Y: -1}
	}
	server.configureOutput(&out, c)
	server.outputs = append(server.outputs, &out)

	server.log.Info("output added", "name", dev.Name(), "box", out.box)

	server.ArrangeOutput(&out)
	if len(server.outputs) == 1 {
		server.seat.cursor.WarpToOutput(&out)
	}
	return &out, nil
}

func (server *Server) configureOutput(out *Output, c config.OutputConfig) {
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	out.dev.SetScale(scale)

	size := out.dev.PreferredSize()
	if (c.Width > 0) && (c.Height > 0) {
		size = geom.Pt(c.Width, c.Height)
	}
	size = geom.Pt(
		int(math.Ceil(float64(size.X)/scale)),
		int(math.Ceil(float64(size.Y)/scale)),
	)

	pos := geom.Pt(c.X, c.Y)
	if (c.X == -1) && (c.Y == -1) {
		pos = server.autoPosition()
	}

	out.box = layout.Box(pos.X, pos.Y, size.X, size.Y)
	out.usable = out.box
}

// autoPosition returns the position for an output that is placed to
// the right of every existing output.
func (server *Server) autoPosition() geom.Point[int] {
	if len(server.outputs) == 0 {
		return geom.Point[int]{}
	}

	lb := server.LayoutBox()
	return geom.Pt(lb.Max.X, lb.Min.Y)
}

// ConfigureOutput moves and resizes an output within the layout.
func (server *Server) ConfigureOutput(out *Output, box geom.Rect[int]) {
	if !slices.Contains(server.outputs, out) {
		return
	}

	out.box = box
	server.log.Info("output configured", "name", out.Name(), "box", box)

	server.ArrangeOutput(out)
	server.refitOutput(out)
	server.keepCursorOnScreen()
}

func (server *Server) removeOutput(out *Output) {
	if !slices.Contains(server.outputs, out) {
		return
	}

	var to *Output
	if len(server.outputs) > 1 {
		to = server.outputs[0]
		if to == out {
			to = server.outputs[1]
		}
	}
	server.rehome(out, to)

	server.outputs = util.Remove(server.outputs, out)
	out.onDestroy.Destroy()

	for _, band := range out.layers {
		for _, layer := range slices.Clone(band) {
			layer.outputGone()
		}
	}

	server.log.Info("output removed", "name", out.Name())
	server.keepCursorOnScreen()
}

func (server *Server) keepCursorOnScreen() {
	c := server.seat.cursor
	if server.OutputAt(c.x, c.y) != nil {
		c.Rebase()
		return
	}
	if len(server.outputs) == 0 {
		return
	}
	c.WarpToOutput(server.outputs[0])
}

// LayoutBox returns the bounding box of every output. It is empty if
// there are no outputs.
func (server *Server) LayoutBox() (box geom.Rect[int]) {
	for i, out := range server.outputs {
		if i == 0 {
			box = out.box
			continue
		}
		box = box.Union(out.box)
	}
	return box
}

// OutputAt returns the output that contains the given layout
// coordinates, or nil if no output does.
func (server *Server) OutputAt(lx, ly float64) *Output {
	for _, out := range server.outputs {
		if contains(out.box, lx, ly) {
			return out
		}
	}
	return nil
}

func (server *Server) outputFor(dev OutputDevice) *Output {
	if dev == nil {
		return nil
	}

	out, _ := util.FindFunc(server.outputs, func(out *Output) bool { return out.dev == dev })
	return out
}

func contains(r geom.Rect[int], x, y float64) bool {
	return (x >= float64(r.Min.X)) && (x < float64(r.Max.X)) &&
		(y >= float64(r.Min.Y)) && (y < float64(r.Max.Y))
}
