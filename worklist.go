package aotgc

import "unsafe"

// worklistBlock is the header of one 512-entry link of the mark worklist's
// chained stack (spec.md §4.4). The Size entries themselves live directly
// in scratch memory immediately after this header (not in a Go slice —
// scratch is raw mmap'd memory outside the Go allocator, so nothing stored
// there may be the only reference to a Go-heap-backed value). Pushing to a
// full block links in a fresh one allocated from scratch; popping past a
// block's bottom simply continues in its predecessor — scratch memory is
// reclaimed in bulk at cycle end, not block by block. The worklist is
// strictly LIFO, so arbitrarily deep or cyclic object graphs mark correctly
// with bounded native-stack usage (Design Notes, "Cyclic object graphs") —
// this is an explicit data structure, never language-level recursion.
type worklistBlock struct {
	location int32
	next     *worklistBlock
}

const worklistBlockHeaderSize = unsafe.Sizeof(worklistBlock{})

func (b *worklistBlock) entryAddr(i int32) uintptr {
	base := uintptr(unsafe.Pointer(b)) + worklistBlockHeaderSize
	return base + uintptr(i)*unsafe.Sizeof(uintptr(0))
}

func (b *worklistBlock) entry(i int32) uintptr {
	return *(*uintptr)(unsafe.Pointer(b.entryAddr(i)))
}

func (b *worklistBlock) setEntry(i int32, v uintptr) {
	*(*uintptr)(unsafe.Pointer(b.entryAddr(i))) = v
}

type worklist struct {
	h     *Heap
	top   *worklistBlock
	depth int32 // cfg.TraversalStackSize
}

func (h *Heap) newWorklist() *worklist {
	w := &worklist{h: h, depth: h.cfg.TraversalStackSize}
	w.top = w.newBlock(nil)
	return w
}

func (w *worklist) newBlock(next *worklistBlock) *worklistBlock {
	size := worklistBlockHeaderSize + uintptr(w.depth)*unsafe.Sizeof(uintptr(0))
	addr := w.h.allocExtra(size)
	b := (*worklistBlock)(unsafe.Pointer(addr))
	b.location = 0
	b.next = next
	return b
}

func (w *worklist) push(addr uintptr) {
	if w.top.location >= w.depth {
		w.top = w.newBlock(w.top)
	}
	w.top.setEntry(w.top.location, addr)
	w.top.location++
}

// pop returns the next address to scan, or 0 when the worklist is empty.
func (w *worklist) pop() uintptr {
	w.top.location--
	if w.top.location < 0 {
		if w.top.next == nil {
			w.top.location = 0
			return 0
		}
		w.top = w.top.next
		w.top.location--
	}
	return w.top.entry(w.top.location)
}
