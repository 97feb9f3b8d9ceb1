package sycamore

import (
	"fmt"

	"deedles.dev/sycamore/internal/listener"
	"deedles.dev/sycamore/internal/util"
	"deedles.dev/sycamore/layout"
	"deedles.dev/ximage/geom"
)

// Layer is a layer-shell surface, such as a panel, a wallpaper, or a
// notification, bound to a single output.
type Layer struct {
	surface LayerSurface
	server  *Server
	output  *Output
	node    SceneNode

	band       LayerBand
	state      LayerState
	box        geom.Rect[int]
	configured bool

	mapped    bool
	destroyed bool

	listeners listener.Group
}

// NewLayerSurface creates a layer for a new layer surface. If the
// client didn't ask for an output, the one under the cursor is used.
// If there are no outputs at all, the surface is closed and
// ErrNoOutput is returned.
func (server *Server) NewLayerSurface(surface LayerSurface) (*Layer, error) {
	out := server.outputFor(surface.Output())
	if out == nil {
		c := server.seat.cursor
		out = server.OutputAt(c.x, c.y)
	}
	if (out == nil) && (len(server.outputs) > 0) {
		out = server.outputs[0]
	}
	if out == nil {
		server.log.Warn("no output for layer surface", "namespace", surface.Namespace())
		surface.Close()
		return nil, ErrNoOutput
	}

	state := surface.Current()
	if !state.Band.valid() {
		state.Band = LayerBackground
	}

	node, err := server.scene.CreateSurfaceTree(server.scene.Tree(state.Band.sceneLayer()), surface.Surface())
	if err != nil {
		server.log.Error("create layer scene tree", "namespace", surface.Namespace(), "err", err)
		surface.Close()
		return nil, fmt.Errorf("create scene tree: %w", err)
	}

	layer := Layer{
		surface: surface,
		server:  server,
		output:  out,
		node:    node,
		band:    state.Band,
		state:   state,
	}
	node.SetData(&layer)
	node.SetEnabled(false)

	layer.listeners.Add(surface.OnMap(layer.Map))
	layer.listeners.Add(surface.OnUnmap(layer.Unmap))
	layer.listeners.Add(surface.OnDestroy(layer.destroy))
	layer.listeners.Add(surface.OnCommit(layer.onCommit))

	out.layers[layer.band] = append(out.layers[layer.band], &layer)
	server.layers = append(server.layers, &layer)

	server.log.Debug("layer created", "namespace", surface.Namespace(), "band", layer.band, "output", out.Name())

	// The client can't map until it has been configured.
	server.ArrangeOutput(out)
	return &layer, nil
}

func (layer *Layer) Namespace() string {
	return layer.surface.Namespace()
}

func (layer *Layer) Band() LayerBand {
	return layer.band
}

// Output returns the output that the layer is on, or nil if that
// output has gone away.
func (layer *Layer) Output() *Output {
	return layer.output
}

// Geometry returns the layer's placement in layout coordinates.
func (layer *Layer) Geometry() geom.Rect[int] {
	return layer.box
}

func (layer *Layer) Mapped() bool {
	return layer.mapped
}

func (layer *Layer) Map() {
	if layer.mapped || layer.destroyed || (layer.output == nil) {
		return
	}
	layer.mapped = true
	layer.node.SetEnabled(true)

	layer.server.ArrangeOutput(layer.output)

	if layer.wantsExclusiveFocus() {
		layer.server.seat.focusLayer(layer)
	}
	layer.server.seat.cursor.Rebase()
}

func (layer *Layer) Unmap() {
	if !layer.mapped {
		return
	}
	layer.mapped = false
	layer.node.SetEnabled(false)

	if layer.output != nil {
		layer.server.ArrangeOutput(layer.output)
	}

	layer.server.seat.layerUnmapped(layer)
	layer.server.seat.cursor.Rebase()
}

func (layer *Layer) wantsExclusiveFocus() bool {
	return (layer.state.KeyboardInteractive == KeyboardInteractivityExclusive) &&
		(layer.band >= LayerTop)
}

// exclusiveLayer returns the mapped layer that should hold exclusive
// keyboard focus: the newest one in the highest band.
func (server *Server) exclusiveLayer() *Layer {
	for band := LayerOverlay; band >= LayerTop; band-- {
		for i := len(server.layers) - 1; i >= 0; i-- {
			layer := server.layers[i]
			if layer.mapped && (layer.band == band) && layer.wantsExclusiveFocus() {
				return layer
			}
		}
	}
	return nil
}

func (layer *Layer) onCommit() {
	if layer.output == nil {
		return
	}

	state := layer.surface.Current()
	if !state.Band.valid() {
		state.Band = layer.band
	}
	if state == layer.state {
		return
	}
	layer.state = state

	if state.Band != layer.band {
		layer.setBand(state.Band)
	}

	layer.server.ArrangeOutput(layer.output)
	if layer.mapped {
		if layer.wantsExclusiveFocus() {
			layer.server.seat.focusLayer(layer)
		} else {
			layer.server.seat.layerUnmapped(layer)
		}
		layer.server.seat.cursor.Rebase()
	}
}

func (layer *Layer) setBand(band LayerBand) {
	out := layer.output
	out.layers[layer.band] = util.Remove(out.layers[layer.band], layer)
	out.layers[band] = append(out.layers[band], layer)

	layer.server.log.Debug("layer changed band", "namespace", layer.Namespace(), "from", layer.band, "to", band)
	layer.band = band
	layer.node.Reparent(layer.server.scene.Tree(band.sceneLayer()))
}

// outputGone closes the layer because its output was removed. The
// layer is destroyed when the client acknowledges.
func (layer *Layer) outputGone() {
	layer.Unmap()
	layer.detach()
	layer.surface.Close()
}

func (layer *Layer) detach() {
	if layer.output == nil {
		return
	}
	out := layer.output
	out.layers[layer.band] = util.Remove(out.layers[layer.band], layer)
	layer.output = nil
}

func (layer *Layer) destroy() {
	if layer.destroyed {
		return
	}

	layer.Unmap()
	layer.destroyed = true

	layer.listeners.Destroy()
	layer.detach()
	layer.node.Destroy()
	layer.server.layers = util.Remove(layer.server.layers, layer)
}

// ArrangeOutput places every layer on out and recomputes its usable
// area. Bands are processed from the bottom up. A mapped layer with a
// positive exclusive zone is placed inside the area left over by the
// layers before it and then reserves its zone, plus its margin, from
// that area. Every other layer is placed against the whole output.
// Maximized and fullscreen views are refitted if the usable area
// changes.
func (server *Server) ArrangeOutput(out *Output) {
	usable := out.box
	for _, band := range out.layers {
		for _, layer := range band {
			state := layer.surface.Current()
			if state.ExclusiveZone <= 0 {
				layer.place(out.box, state)
				continue
			}

			layer.place(usable, state)
			if !layer.mapped {
				continue
			}

			edge := layout.ExclusiveEdge(state.Anchor)
			usable = layout.Exclude(usable, edge, state.ExclusiveZone+marginOn(state.Margin, edge))
		}
	}

	if usable == out.usable {
		return
	}
	server.log.Debug("usable area changed", "output", out.Name(), "from", out.usable, "to", usable)
	out.usable = usable
	server.refitOutput(out)
}

func (layer *Layer) place(area geom.Rect[int], state LayerState) {
	box := layout.Align(area, state.DesiredSize, state.Anchor, state.Margin)
	layer.node.SetPosition(box.Min.X, box.Min.Y)

	if !layer.configured || (box.Size() != layer.box.Size()) {
		layer.surface.Configure(box.Dx(), box.Dy())
		layer.configured = true
	}
	layer.box = box
}

func marginOn(m layout.Margin, edge layout.Edges) int {
	switch edge {
	case layout.EdgeTop:
		return m.Top
	case layout.EdgeBottom:
		return m.Bottom
	case layout.EdgeLeft:
		return m.Left
	case layout.EdgeRight:
		return m.Right
	default:
		return 0
	}
}
