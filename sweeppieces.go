package aotgc

import "unsafe"

// The sweep-piece index divides the heap into fixed-size SweepPieceSize
// pieces; for each piece it records, as a 16-bit cell, the smallest
// intra-piece offset at which a live object was seen during mark (0xFFFF if
// none). Sweep uses it to leap over pieces with no live objects (spec.md
// §3, §4.5) — the index's sole reason for existing is that leap. It lives
// in scratch memory like the worklist, addressed directly rather than
// through a Go slice for the same reason (see worklist.go).
type sweepPieceIndex struct {
	addr  uintptr
	count int32
}

const sweepPieceEmpty uint16 = 0xFFFF

// newSweepPieceIndex allocates and initializes (all entries "empty") a
// piece index sized for the current heap. The count is rounded up to a
// multiple of 4, matching the source, so later vectorized memset-style
// initialization stays aligned; this module doesn't vectorize the
// initialization but keeps the same rounding for parity.
func (h *Heap) newSweepPieceIndex() sweepPieceIndex {
	pieceSize := int64(h.cfg.SweepPieceSize)
	count := int32((h.heapSize()/pieceSize/4 + 1) * 4)
	size := uintptr(count) * unsafe.Sizeof(uint16(0))
	addr := h.allocExtra(size)

	idx := sweepPieceIndex{addr: addr, count: count}
	for i := int32(0); i < count; i++ {
		idx.set(i, sweepPieceEmpty)
	}
	return idx
}

func (idx sweepPieceIndex) entryAddr(i int32) uintptr {
	return idx.addr + uintptr(i)*unsafe.Sizeof(uint16(0))
}

func (idx sweepPieceIndex) get(i int32) uint16 {
	return *(*uint16)(unsafe.Pointer(idx.entryAddr(i)))
}

func (idx sweepPieceIndex) set(i int32, v uint16) {
	*(*uint16)(unsafe.Pointer(idx.entryAddr(i))) = v
}

// observeLiveOffset records that a live object was seen at byte offset `offset` from
// pool, updating the owning piece's minimum if this is the smallest offset
// seen in that piece so far (spec.md §4.4 step 4).
func (h *Heap) observeLiveOffset(idx sweepPieceIndex, offset int64) {
	pieceSize := int64(h.cfg.SweepPieceSize)
	piece := int32(offset / pieceSize)
	pieceOffset := uint16(offset % pieceSize)
	if pieceOffset < idx.get(piece) {
		idx.set(piece, pieceOffset)
	}
}
