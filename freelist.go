package aotgc

import (
	"sort"
	"unsafe"
)

// The free-chunk index is an array of record addresses sitting in scratch
// memory, rebuilt from scratch on every sweep (spec.md §3, "Free-chunk
// index"). h.objects points at entry 0; h.objectCount is the live entry
// count. The bump allocator consumes entries from index 0 upward, so after
// a sweep the array is sorted by record size ascending.

func (h *Heap) entryAddr(i int32) uintptr {
	return h.objects + uintptr(i)*unsafe.Sizeof(uintptr(0))
}

func (h *Heap) entry(i int32) uintptr {
	return *(*uintptr)(unsafe.Pointer(h.entryAddr(i)))
}

func (h *Heap) setEntry(i int32, addr uintptr) {
	*(*uintptr)(unsafe.Pointer(h.entryAddr(i))) = addr
}

// appendFreeEntry records one more free chunk at the end of the index. It
// is only ever called while rebuilding the index during a sweep, when the
// array is being grown one scratch word at a time (mirrors the source's
// `allocExtra(sizeof(Object*)); objects[objectCount++] = lastFreeSpace;`).
func (h *Heap) appendFreeEntry(addr uintptr) {
	h.allocExtra(unsafe.Sizeof(uintptr(0)))
	h.setEntry(h.objectCount, addr)
	h.objectCount++
}

// sortFreeList orders entries by record size ascending (stable ordering is
// not required). Sorted order lets the allocator always try the smallest
// chunk that might fit first, which tends to leave larger chunks available
// for larger future requests.
func (h *Heap) sortFreeList() {
	if h.objectCount == 0 {
		return
	}
	entries := unsafe.Slice((*uintptr)(unsafe.Pointer(h.objects)), h.objectCount)
	sort.Slice(entries, func(i, j int) bool {
		return h.recordSizeForSort(entries[i]) < h.recordSizeForSort(entries[j])
	})
}

// recordSizeForSort reads the size of a free record for comparison purposes
// only; a tagFreeShort record has no size field and is always the smallest
// possible chunk (4 bytes).
func (h *Heap) recordSizeForSort(addr uintptr) int32 {
	hdr := headerAt(addr)
	if hdr.tag == tagFreeShort {
		return 4
	}
	return hdr.size
}

// adoptSmallestChunk installs entry 0 (after sorting, the smallest free
// chunk) as the new bump cursor, or clears the cursor if the index is
// empty.
func (h *Heap) adoptSmallestChunk() {
	if h.objectCount == 0 {
		h.currentObject = 0
		h.currentLimit = 0
		return
	}
	addr := h.entry(0)
	h.currentObject = addr
	h.currentLimit = addr + uintptr(h.recordSizeForSort(addr))
}
