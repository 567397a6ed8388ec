package aotgc

// HeapStats reports cumulative allocator and collector counters, the way
// runtime/debug.GCStats reports them for the host Go runtime — adapted
// from the teacher's own (stub) src/runtime/debug/garbage.go, which this
// module's Stats replaces with a real implementation for this collector.
type HeapStats struct {
	Mallocs    uint64 // total number of allocations
	TotalAlloc uint64 // total bytes ever allocated
	NumGC      uint64 // number of completed collection cycles
	Reclaimed  uint64 // total bytes reclaimed across all cycles
}

// Stats returns a snapshot of the heap's cumulative counters.
func (h *Heap) Stats() HeapStats {
	return h.stats
}

// collectGarbage runs one full mark+sweep cycle sized to satisfy an
// allocation of `size` bytes afterward (spec.md §4, "Within a cycle: all
// mark work precedes all sweep work"). It is invoked automatically by the
// allocator on a cache miss (spec.md §5: "on a cache miss the allocator
// itself runs mark and sweep inline") and may also be triggered manually
// via RunGC.
func (h *Heap) collectGarbage(size int32) {
	n := int(h.stats.NumGC) + 1
	start := h.trace.cycleStart(n)

	pieces := h.mark()
	reclaimed, grew := h.sweep(pieces, size)

	h.stats.NumGC++
	h.stats.Reclaimed += uint64(reclaimed)
	h.trace.cycleDone(n, start, reclaimed, h.heapSize(), grew)
}

// RunGC forces a full collection cycle outside of an allocation request.
// Not part of spec.md's GC surface table (which only collects implicitly on
// allocation failure), but a natural, harmless addition for hosts and tests
// that want a deterministic collection point.
func (h *Heap) RunGC() {
	h.collectGarbage(0)
}
