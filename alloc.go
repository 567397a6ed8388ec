package aotgc

import "unsafe"

// findAvailableChunk tries to satisfy a request of need bytes by bump
// allocating inside the current chunk, closing out and advancing past
// chunks that are too small along the way (spec.md §4.2). It returns 0 if
// the free-chunk index runs out before the request is satisfied.
func (h *Heap) findAvailableChunk(need int32) uintptr {
	for {
		if h.currentObject == 0 {
			return 0
		}
		next := h.currentObject + uintptr(need)
		if next+recordHeaderSize <= h.currentLimit || next == h.currentLimit {
			return h.currentObject
		}

		// This chunk can't fit the request; close it out as free and move
		// on to the next free-chunk-index entry.
		leftover := int32(h.currentLimit - h.currentObject)
		h.makeEmpty(h.currentObject, leftover)
		h.objectCount--
		h.objects += unsafe.Sizeof(uintptr(0))

		if h.objectCount > 0 {
			addr := h.entry(0)
			h.currentObject = addr
			h.currentLimit = addr + uintptr(h.recordSizeForSort(addr))
		} else {
			h.currentObject = 0
			h.currentLimit = 0
			return 0
		}
	}
}

// getAvailableChunk satisfies a request of need bytes, running one
// collection cycle if the current free-chunk index can't. Aborts with
// "out of memory" if a chunk still isn't available afterward (spec.md
// §4.2, §7).
func (h *Heap) getAvailableChunk(need int32) uintptr {
	if chunk := h.findAvailableChunk(need); chunk != 0 {
		return chunk
	}
	h.collectGarbage(need + int32(recordHeaderSize))
	chunk := h.findAvailableChunk(need)
	if chunk == 0 {
		h.fatalOOM(need)
	}
	return chunk
}

// bumpAlloc advances currentObject past a chunk of `need` bytes, running
// the collector first if the current chunk can't satisfy the request, and
// returns the address of the new record.
func (h *Heap) bumpAlloc(need int32) uintptr {
	next := h.currentObject + uintptr(need)
	var chunk uintptr
	if h.currentObject != 0 && next+recordHeaderSize <= h.currentLimit {
		chunk = h.currentObject
	} else {
		chunk = h.getAvailableChunk(need)
		next = chunk + uintptr(need)
	}
	h.currentObject = next
	// Give the rest of the chunk a free-record header so [pool, limit)
	// stays tiled between allocations and a sweep can walk past it.
	h.makeEmpty(next, int32(h.currentLimit-next))
	return chunk
}

// Alloc allocates an object whose layout is given by the Class that tag
// decompresses to (spec.md §6). The returned record is zero-filled except
// for its tag, which is set to tag. MARK_BIT is never touched here — a
// freshly allocated object is always unmarked.
func (h *Heap) Alloc(tag int32) unsafe.Pointer {
	cls := classFromTag(tag)
	size := int32(cls.Size & classSizeMask)

	chunk := h.bumpAlloc(size)
	zero(chunk, size)
	headerAt(chunk).tag = tag

	h.stats.Mallocs++
	h.stats.TotalAlloc += uint64(size)
	return unsafe.Pointer(chunk)
}

// allocArray implements the common path shared by ObjectArrayAlloc and
// every primitive array allocator: compute the record size, bump-allocate
// it, and fill in the array header.
func (h *Heap) allocArray(elementType *Class, depth uint8, count int32, elemSize int32) unsafe.Pointer {
	if count < 0 {
		panic("aotgc: negative array length")
	}
	size := align8(int32(arrayHeaderSize) + elemSize*(count+1))

	chunk := h.bumpAlloc(size)
	zero(chunk, size)

	arr := (*arrayHeader)(unsafe.Pointer(chunk))
	arr.tag = h.arrayTag
	arr.size = count
	arr.elementType = elementType
	arr.depth = depth

	h.stats.Mallocs++
	h.stats.TotalAlloc += uint64(size)
	return unsafe.Pointer(chunk)
}

// ObjectArrayAlloc allocates a reference array of the given element tag and
// depth. A depth > 0 array holds pointers to sub-arrays rather than plain
// object references.
func (h *Heap) ObjectArrayAlloc(elemTag int32, depth uint8, count int32) unsafe.Pointer {
	return h.allocArray(classFromTag(elemTag), depth, count, int32(unsafe.Sizeof(uintptr(0))))
}

// BooleanArrayAlloc, ByteArrayAlloc, ... allocate primitive arrays, one
// function per primitive element type, per spec.md §6.

func (h *Heap) BooleanArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.BooleanArrayClass(), 0, count, 1)
}

func (h *Heap) ByteArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.ByteArrayClass(), 0, count, 1)
}

func (h *Heap) ShortArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.ShortArrayClass(), 0, count, 2)
}

func (h *Heap) CharArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.CharArrayClass(), 0, count, 2)
}

func (h *Heap) IntArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.IntArrayClass(), 0, count, 4)
}

func (h *Heap) LongArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.LongArrayClass(), 0, count, 8)
}

func (h *Heap) FloatArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.FloatArrayClass(), 0, count, 4)
}

func (h *Heap) DoubleArrayAlloc(count int32) unsafe.Pointer {
	return h.allocArray(h.classes.DoubleArrayClass(), 0, count, 8)
}

// CloneArray allocates a new array of identical shape to arr and copies its
// contents. Per the spec's Open Question on this point: the new record is
// not re-zeroed, so between the allocation and the copy below its body
// still holds whatever stale bytes the free chunk held. This is safe only because no
// allocation — and therefore no possible collection cycle — happens between
// the two steps; callers must not insert one.
func (h *Heap) CloneArray(arr unsafe.Pointer) unsafe.Pointer {
	src := (*arrayHeader)(arr)
	size := arrayRecordSize(src)

	chunk := h.bumpAlloc(size)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(chunk)), size), unsafe.Slice((*byte)(arr), size))

	h.stats.Mallocs++
	h.stats.TotalAlloc += uint64(size)
	return unsafe.Pointer(chunk)
}

func zero(addr uintptr, size int32) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	for i := range b {
		b[i] = 0
	}
}
