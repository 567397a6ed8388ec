package aotgc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Scenario 5 (spec.md §8): sweep-piece skip. 10,000 tiny objects are
// allocated back to back at the start of an 8MiB heap and none is rooted,
// so every piece has no live object; the sweep-piece index should come back
// mostly 0xFFFF, and a forced collection leaves no live object.
func TestSweepPieceSkip(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 8 * 1024 * 1024
	cfg.SweepPieceSize = 16 * 1024

	classes := newFakeClasses()
	tiny := newPlainClass(24)
	tag := tagFromClass(tiny)

	roots := newFakeRoots(0)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 10000; i++ {
		h.Alloc(tag)
	}
	// Nothing rooted: every allocated object is unreachable garbage.

	pieces := h.mark()
	empty := 0
	for i := int32(0); i < pieces.count; i++ {
		if pieces.get(i) == sweepPieceEmpty {
			empty++
		}
	}
	require.Greater(t, empty, int(pieces.count)/2, "most pieces should be empty with nothing rooted")
	h.freeExtra()

	h.RunGC()
	require.Equal(t, 0, countLiveObjects(h))
}

// Tiling: walking the heap with objectSize from pool must land on limit
// exactly, with no over- or undershoot, both before and after a sweep.
func TestTilingInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 256 * 1024
	classes := newFakeClasses()
	cls := newPlainClass(24)
	tag := tagFromClass(cls)

	roots := newFakeRoots(10)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		obj := h.Alloc(tag)
		if i < 10 {
			roots.set(i, obj)
		}
	}
	require.True(t, walksExactlyToLimit(h))

	h.RunGC()
	require.True(t, walksExactlyToLimit(h))
}

func walksExactlyToLimit(h *Heap) bool {
	record := h.pool
	for record < h.limit {
		size := h.objectSize(tagAt(record), record)
		if size <= 0 {
			return false
		}
		record += uintptr(size)
	}
	return record == h.limit
}

// Free-list consistency: every free-chunk-index entry must point at a
// record whose tag is tagFree or tagFreeShort, and no live record may be
// indexed.
func TestFreeListConsistencyInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 256 * 1024
	classes := newFakeClasses()
	cls := newPlainClass(24)
	tag := tagFromClass(cls)

	roots := newFakeRoots(5)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		obj := h.Alloc(tag)
		if i%8 == 0 {
			roots.set(i/8, obj)
		}
	}
	h.RunGC()

	for i := int32(0); i < h.objectCount; i++ {
		addr := h.entry(i)
		tag := tagAt(addr)
		require.True(t, tag == tagFree || tag == tagFreeShort)
	}
}

// Mark cleanliness: after sweep completes, no live record has MARK_BIT set.
func TestMarkCleanlinessInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 256 * 1024
	classes := newFakeClasses()
	cls := newPlainClass(24)
	tag := tagFromClass(cls)

	roots := newFakeRoots(20)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		roots.set(i, h.Alloc(tag))
	}
	h.RunGC()

	record := h.pool
	for record < h.limit {
		tag := tagAt(record)
		if tag != tagFree && tag != tagFreeShort {
			require.Zero(t, tag&markBit)
		}
		record += uintptr(h.objectSize(tag, record))
	}
}

// Idempotence: running a second collection immediately after the first with
// no mutator activity in between must not change the live count or the
// heap's overall size.
func TestIdempotence(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 256 * 1024
	classes := newFakeClasses()
	cls := newPlainClass(24)
	tag := tagFromClass(cls)

	roots := newFakeRoots(34)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		obj := h.Alloc(tag)
		if i%3 == 0 {
			roots.set(i/3, obj)
		}
	}
	h.RunGC()

	liveAfterFirst := countLiveObjects(h)
	sizeAfterFirst := h.heapSize()
	countAfterFirst := h.objectCount

	h.RunGC()

	require.Equal(t, liveAfterFirst, countLiveObjects(h))
	require.Equal(t, sizeAfterFirst, h.heapSize())
	require.Equal(t, countAfterFirst, h.objectCount)
}

// Sort order: after a sweep, the free-chunk index must be non-decreasing by
// record size.
func TestFreeListSortOrder(t *testing.T) {
	cfg := testConfig()
	cfg.InitialHeapSize = 256 * 1024
	classes := newFakeClasses()
	cls := newPlainClass(24)
	tag := tagFromClass(cls)

	roots := newFakeRoots(30)
	h, err := NewHeap(cfg, classes, roots)
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		obj := h.Alloc(tag)
		if i%7 == 0 {
			roots.set(i/7, obj)
		}
	}
	h.RunGC()

	var last int32 = -1
	for i := int32(0); i < h.objectCount; i++ {
		size := h.recordSizeForSort(h.entry(i))
		require.GreaterOrEqual(t, size, last)
		last = size
	}
}
