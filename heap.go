package aotgc

import "unsafe"

// Heap owns one contiguous mmap'd region, the main object heap
// [pool, limit) plus the adjacent scratch region [limit, mmapLimit) used for
// GC bookkeeping. Every GC operation is a method on *Heap rather than a
// package-level global (Design Notes, "Global mutable state") so more than
// one heap can coexist in a process, even though any single Heap value
// still assumes single-mutator access — this package does not add locking
// because the spec's Non-goals explicitly exclude thread safety.
type Heap struct {
	mem      *osMemory
	pageSize int

	pool      uintptr
	limit     uintptr
	extra     uintptr // scratch bump cursor, starts at limit
	mmapLimit uintptr // end of what's actually mapped for [limit, mmapLimit)

	currentObject uintptr
	currentLimit  uintptr

	objects     uintptr // scratch pointer to the first free-chunk-index entry
	objectCount int32

	arrayTag int32
	classes  ClassTable
	roots    RootProvider

	cfg    Config
	assert bool
	trace  *tracer

	stats HeapStats
}

// NewHeap maps an initial region of cfg.InitialHeapSize bytes and makes it
// one free record, per spec.md §4.1. classes and roots are the compiler's
// collaborator surfaces (spec.md §6); both must be non-nil.
func NewHeap(cfg Config, classes ClassTable, roots RootProvider) (*Heap, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if classes == nil {
		panic("aotgc: NewHeap: classes is nil")
	}
	if roots == nil {
		panic("aotgc: NewHeap: roots is nil")
	}

	h := &Heap{
		mem:      newOSMemory(),
		classes:  classes,
		roots:    roots,
		cfg:      cfg,
		assert:   cfg.Assert,
		trace:    newTracer(cfg.Trace),
	}
	h.pageSize = h.mem.pageSize

	addr, mapped, err := h.mem.reserve(int(cfg.InitialHeapSize))
	if err != nil {
		h.fatalMap("initialize heap", uintptr(cfg.InitialHeapSize), err)
	}

	h.pool = addr
	h.limit = addr + uintptr(mapped)
	h.extra = h.limit
	h.mmapLimit = h.limit

	// The entire region starts out as a single free record.
	h.makeEmpty(h.pool, int32(mapped))
	h.currentObject = h.pool
	h.currentLimit = h.limit

	// Seed the free-chunk index with that one record.
	h.objects = h.allocExtra(unsafe.Sizeof(uintptr(0)))
	*(*uintptr)(unsafe.Pointer(h.objects)) = h.pool
	h.objectCount = 1

	h.arrayTag = tagFromClass(classes.ArrayClass())

	return h, nil
}

// heapSize returns the current size, in bytes, of [pool, limit).
func (h *Heap) heapSize() int64 {
	return int64(h.limit - h.pool)
}

// allocExtra bumps the scratch cursor by size bytes, mapping more scratch
// memory at mmapLimit if needed, and returns the address of the newly
// reserved span. Scratch memory is used for the free-chunk index, the mark
// worklist, and the sweep-piece index, and is released in bulk by
// freeExtra at the end of a cycle (rewinding extra back to limit) rather
// than being freed piece by piece.
func (h *Heap) allocExtra(size uintptr) uintptr {
	next := h.extra + size
	if next > h.mmapLimit {
		requested := int(next - h.mmapLimit)
		mapped, err := h.mem.extend(h.mmapLimit, requested)
		if err != nil {
			h.fatalMap("allocate GC working memory", uintptr(requested), err)
		}
		h.mmapLimit += uintptr(mapped)
	}
	result := h.extra
	h.extra = next
	return result
}

// freeExtra rewinds the scratch cursor back to limit, releasing everything
// allocated from scratch during the current cycle (worklist, sweep-piece
// index) in one step. It does not unmap memory; scratch pages are reused on
// the next cycle.
func (h *Heap) freeExtra() {
	h.extra = h.limit
}

// growHeapBy maps ceil(size/pageSize) additional pages immediately at
// mmapLimit, then slides any live scratch bytes at [limit, extra) forward
// by the newly mapped size so the scratch region stays contiguous and
// adjacent to the (now larger) heap. Fails hard if the kernel cannot place
// the mapping at the requested address, per spec.md §4.1 ("the heap is
// always contiguous in address space").
func (h *Heap) growHeapBy(size int64) int64 {
	mapped, err := h.mem.extend(h.mmapLimit, int(size))
	if err != nil {
		h.fatalMap("grow heap", uintptr(size), err)
	}

	extraSize := int64(h.extra - h.limit)
	if extraSize > 0 {
		memmove(h.limit+uintptr(mapped), h.limit, uintptr(extraSize))
	}

	h.limit += uintptr(mapped)
	h.extra += uintptr(mapped)
	h.mmapLimit += uintptr(mapped)

	h.trace.heapGrown(int64(mapped), h.heapSize())
	return int64(mapped)
}

func memmove(dst, src, n uintptr) {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(dst)), n), unsafe.Slice((*byte)(unsafe.Pointer(src)), n))
}
