package aotgc

import "unsafe"

// recordHeader is the 12-byte header present at the start of every record in
// [pool, limit), live or free, so that a sweep can walk the heap without any
// external metadata.
type recordHeader struct {
	tag      int32
	reserved int32
	size     int32
}

const recordHeaderSize = unsafe.Sizeof(recordHeader{})

// Tag values reserved for free records. Any other tag is a compressed class
// pointer, possibly with markBit set.
const (
	tagFree      int32 = 0 // free record, length carried in the size field (>= 8 bytes)
	tagFreeShort int32 = 1 // free record of exactly one word, no size field
)

// markBit is the top bit of a live record's tag. It is set during mark to
// indicate "reachable" and cleared again during sweep.
const markBit int32 = int32(1 << 31)

// classSizeMask strips the reserved high bit from a Class.Size field.
const classSizeMask uint32 = ^uint32(1 << 31)

func headerAt(addr uintptr) *recordHeader {
	return (*recordHeader)(unsafe.Pointer(addr))
}

func tagAt(addr uintptr) int32 {
	return headerAt(addr).tag
}

// classFromTag decompresses a live record's tag into the Class pointer it
// encodes: address = (tag &^ markBit) << 3. Classes are handed to this
// package by the embedding compiler and are assumed to be allocated at an
// 8-byte aligned address, which the compressed encoding requires (Design
// Notes, "Tag as compressed class pointer"). This is the single centralized
// FIND_CLASS helper; every other file goes through it rather than
// re-deriving the shift.
func classFromTag(tag int32) *Class {
	addr := uintptr(tag&^markBit) << 3
	return (*Class)(unsafe.Pointer(addr))
}

// tagFromClass computes the compressed tag for a Class, the inverse of
// classFromTag. Used by allocation sites and by tests that need to construct
// tags for a given Class.
func tagFromClass(cls *Class) int32 {
	addr := uintptr(unsafe.Pointer(cls))
	if addr&0x7 != 0 {
		panic("aotgc: class is not 8-byte aligned")
	}
	return int32(addr >> 3)
}

// objectSize returns the byte size of the record at addr whose header tag is
// tag. It is the one place in the collector that understands all four record
// shapes (free, free-short, array, object); sweep's heap walk routes through
// it.
func (h *Heap) objectSize(tag int32, addr uintptr) int32 {
	switch tag {
	case tagFree:
		return headerAt(addr).size
	case tagFreeShort:
		return 4
	default:
		if tag == h.arrayTag {
			return arrayRecordSize((*arrayHeader)(unsafe.Pointer(addr)))
		}
		cls := classFromTag(tag)
		if h.assert && !cls.validMagic() {
			h.fatalCorrupt("not an object", addr)
		}
		return int32(cls.Size & classSizeMask)
	}
}

// makeEmpty writes a free-record header of the given size at addr. The
// caller guarantees size is 0, 4, or a multiple of 8 (8-byte alignment of
// every record boundary forces this); any other value indicates heap
// corruption and is rejected loudly rather than silently mis-encoded (the
// spec's Open Question on this point).
func (h *Heap) makeEmpty(addr uintptr, size int32) {
	switch {
	case size == 0:
		return
	case size == 4:
		headerAt(addr).tag = tagFreeShort
	case size >= 8 && size%8 == 0:
		hdr := headerAt(addr)
		hdr.tag = tagFree
		hdr.size = size
	default:
		h.fatalCorrupt("makeEmpty: invalid free-record size", uintptr(size))
	}
}

func align8(n int32) int32 {
	return (((n - 1) >> 3) + 1) << 3
}
