package aotgc

// growHeap implements the growth controller (spec.md §4.6): it decides how
// much to grow by (one eighth of the current heap, clamped to MaxGCGrow,
// but never less than atLeastSize), then cuts that to the room HeapLimit
// leaves, which can bring it below atLeastSize, and delegates the actual
// mapping to growHeapBy. If HeapLimit leaves no room at all it aborts with
// out of memory instead. sweep calls this only when its own threshold check
// already decided growth is warranted; beyond sizing the request and that
// HeapLimit check, growHeap makes no policy decision.
//
// The "reclaimed < heap/2" trigger in sweep gives the allocator breathing
// room after every cycle; it can over-grow a heap that sustains a high
// live-set ratio without much churn, since such a workload will trip the
// threshold on every cycle even though nothing is actually fragmented. This
// module matches the source's policy rather than improving on it (spec.md
// §9, Open Questions).
func (h *Heap) growHeap(atLeastSize int32) int64 {
	growBy := h.heapSize() / 8
	if growBy > int64(h.cfg.MaxGCGrow) {
		growBy = int64(h.cfg.MaxGCGrow)
	}
	if growBy < int64(atLeastSize) {
		growBy = int64(atLeastSize)
	}

	if h.heapSize()+growBy > int64(h.cfg.HeapLimit) {
		growBy = int64(h.cfg.HeapLimit) - h.heapSize()
	}
	if growBy <= 0 {
		h.fatalOOM(atLeastSize)
	}

	return h.growHeapBy(growBy)
}
