package sycamore

// ViewRef is a weak reference to a mapped view. It goes stale as soon
// as the view unmaps, even if the view is later mapped again. The zero
// ViewRef never refers to anything.
type ViewRef struct {
	index uint32
	gen   uint32
}

type viewSlot struct {
	view *View
	gen  uint32
}

// viewRegistry hands out generation-checked ViewRefs so that holders
// can detect a stale reference without being notified.
type viewRegistry struct {
	slots []viewSlot
	free  []uint32
}

func (r *viewRegistry) insert(view *View) ViewRef {
	if len(r.free) > 0 {
		i := r.free[len(r.free)-1]
		r.free = r.free[:len(r.free)-1]

		slot := &r.slots[i]
		slot.view = view
		return ViewRef{index: i, gen: slot.gen}
	}

	r.slots = append(r.slots, viewSlot{view: view, gen: 1})
	return ViewRef{index: uint32(len(r.slots) - 1), gen: 1}
}

func (r *viewRegistry) remove(ref ViewRef) {
	if r.get(ref) == nil {
		return
	}

	slot := &r.slots[ref.index]
	slot.view = nil
	slot.gen++
	r.free = append(r.free, ref.index)
}

func (r *viewRegistry) get(ref ViewRef) *View {
	if int(ref.index) >= len(r.slots) {
		return nil
	}
	slot := r.slots[ref.index]
	if slot.gen != ref.gen {
		return nil
	}
	return slot.view
}

// Resolve returns the view that ref refers to or nil if ref is stale.
func (server *Server) Resolve(ref ViewRef) *View {
	return server.refs.get(ref)
}
