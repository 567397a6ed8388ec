package aotgc

// sweep performs the single linear pass over [pool, limit) described in
// spec.md §4.5: coalescing free space, rebuilding the free-chunk index, and
// consulting the sweep-piece index built during mark to skip regions known
// to be fully dead. sizeToAllocate is the size of the allocation that
// triggered this cycle (0 for a GC that wasn't allocation-triggered); it
// feeds the post-sweep growth decision.
func (h *Heap) sweep(pieces sweepPieceIndex, sizeToAllocate int32) (reclaimed int64, grew bool) {
	h.objects = h.extra
	h.objectCount = 0

	heapSize := h.heapSize()
	pieceSize := int64(h.cfg.SweepPieceSize)

	var lastFreeSpace uintptr // 0 means "no run in progress"
	var reclaimedSpace, maxFreeChunk int64
	currentPieceEnd := h.pool + uintptr(pieceSize)

	record := h.pool
	for record < h.limit {
		tag := tagAt(record)
		free := tag == tagFree || tag == tagFreeShort
		if !free {
			free = tag&markBit == 0
			if !free {
				headerAt(record).tag = tag &^ markBit
			}
		}

		if free {
			if lastFreeSpace == 0 {
				lastFreeSpace = record
			}

			if record >= currentPieceEnd {
				pieceIndex := int32((record - h.pool) / uintptr(pieceSize))
				if pieces.get(pieceIndex) == sweepPieceEmpty {
					for pieces.get(pieceIndex) == sweepPieceEmpty {
						pieceIndex++
						if pieceIndex == pieces.count {
							record = h.limit
							goto endSweep
						}
					}
					record = h.pool + uintptr(pieceIndex)*uintptr(pieceSize) + uintptr(pieces.get(pieceIndex))
					currentPieceEnd = h.pool + uintptr(pieceIndex+1)*uintptr(pieceSize)
					continue
				}
				currentPieceEnd = h.pool + uintptr(pieceIndex+1)*uintptr(pieceSize)
			}
		} else if lastFreeSpace != 0 {
			freeSize := int32(record - lastFreeSpace)
			h.makeEmpty(lastFreeSpace, freeSize)
			h.appendFreeEntry(lastFreeSpace)
			lastFreeSpace = 0
			reclaimedSpace += int64(freeSize)
			if int64(freeSize) > maxFreeChunk {
				maxFreeChunk = int64(freeSize)
			}
		}

		size := h.objectSize(tagAt(record), record)
		next := record + uintptr(size)
		if h.assert && next > h.limit {
			h.fatalCorrupt("record runs past heap limit", record)
		}
		record = next
	}
endSweep:

	if lastFreeSpace != 0 {
		freeSize := int32(record - lastFreeSpace)
		h.makeEmpty(lastFreeSpace, freeSize)
		h.appendFreeEntry(lastFreeSpace)
		reclaimedSpace += int64(freeSize)
		if int64(freeSize) > maxFreeChunk {
			maxFreeChunk = int64(freeSize)
		}
	}

	if reclaimedSpace-int64(sizeToAllocate) < heapSize/2 || maxFreeChunk < int64(sizeToAllocate) {
		growSize := h.growHeap(sizeToAllocate)
		if lastFreeSpace == 0 {
			// No trailing free run: the grown bytes become a brand new
			// free record at the old limit. It is deliberately not added
			// to the free-chunk index here — like the source, this
			// collector only discovers it on the heap walk of the next
			// sweep (see DESIGN.md).
			lastFreeSpace = h.limit - uintptr(growSize)
			h.makeEmpty(lastFreeSpace, int32(growSize))
		} else {
			// The trailing free run, already in the index above, simply
			// absorbs the new bytes by widening its own header.
			headerAt(lastFreeSpace).size += int32(growSize)
		}
		// The scratch region moved forward by growSize bytes (§4.1), so
		// the free-chunk array pointer recorded above must move with it.
		h.objects += uintptr(growSize)
		grew = true
	}

	h.sortFreeList()
	h.adoptSmallestChunk()
	h.freeExtra()

	return reclaimedSpace, grew
}
