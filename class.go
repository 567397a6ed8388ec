package aotgc

import "unsafe"

// Class is the compiler-provided, immutable descriptor for the layout of a
// kind of object. Classes are owned by the code image; this package never
// mutates one. upperTag/Tag form a contiguous subtype interval used by the
// exception unwinder, which is outside this package's scope — they are
// carried here only because they live in the same descriptor.
type Class struct {
	// Size is the allocation size in bytes; the high bit is reserved and
	// must be masked off with classSizeMask before use.
	Size uint32

	Flags uint32

	Tag      int32
	UpperTag int32

	// Magic, together with Tag, lets an assert build sanity-check that a
	// decompressed tag really points at a live Class (VALID_TAG in the
	// source). Not used outside Config.Assert builds.
	Magic uint32

	Fields FieldLayout

	// PrimitiveKind identifies this Class as one of the built-in array
	// element classes, or primNone for ordinary object classes. Only
	// consulted when this Class is used as an array's elementType.
	PrimitiveKind primitiveKind
}

// assertMagicXor is the transform applied to Tag that Magic must equal for a
// Class to be considered valid in assert mode. Arbitrary but fixed, mirrors
// the source's VALID_TAG macro.
const assertMagicXor = 0xAAAAAAAA

func (c *Class) validMagic() bool {
	return uint32(c.Tag)^assertMagicXor == c.Magic
}

// FieldLayout describes the pointer-typed fields directly declared by one
// Class, plus a link to the parent Class whose fields are inherited. A nil
// Parent marks the top of the hierarchy.
type FieldLayout struct {
	Parent  *Class
	Offsets []int32 // byte offsets, relative to the object's address, of pointer fields
}

// arrayHeader is the header of an Array record: the record header plus the
// element Class and depth. size in the record header carries the element
// count.
type arrayHeader struct {
	recordHeader
	elementType *Class
	depth       uint8
}

const arrayHeaderSize = unsafe.Sizeof(arrayHeader{})

// elementSize returns the per-element byte size of an array with the given
// element class and depth, per spec.md §3's table.
func elementSize(h *Heap, elementType *Class, depth uint8) int32 {
	if depth > 0 {
		return int32(unsafe.Sizeof(uintptr(0)))
	}
	switch elementType {
	case h.classes.BooleanArrayClass(), h.classes.ByteArrayClass():
		return 1
	case h.classes.ShortArrayClass(), h.classes.CharArrayClass():
		return 2
	case h.classes.IntArrayClass(), h.classes.FloatArrayClass():
		return 4
	case h.classes.LongArrayClass(), h.classes.DoubleArrayClass():
		return 8
	default:
		return int32(unsafe.Sizeof(uintptr(0)))
	}
}

// arrayRecordSize returns the total record size, in bytes, of an already
// allocated array, derived from its header.
func arrayRecordSize(arr *arrayHeader) int32 {
	count := arr.size
	elemSize := arrayElementSizeFromHeader(arr)
	return align8(int32(arrayHeaderSize) + elemSize*(count+1))
}

// arrayElementSizeFromHeader recomputes an element size purely from what is
// stored in the array's own header, without needing a *Heap. It duplicates
// the small switch in elementSize because objectSize (a hot sweep-time path)
// must not carry a ClassTable dependency just to recompute a size that is
// already implied by the stored elementType/depth.
func arrayElementSizeFromHeader(arr *arrayHeader) int32 {
	if arr.depth > 0 {
		return int32(unsafe.Sizeof(uintptr(0)))
	}
	cls := arr.elementType
	switch cls.PrimitiveKind {
	case primBoolean, primByte:
		return 1
	case primShort, primChar:
		return 2
	case primInt, primFloat:
		return 4
	case primLong, primDouble:
		return 8
	default:
		return int32(unsafe.Sizeof(uintptr(0)))
	}
}

// primitiveKind tags the handful of built-in element classes so that
// arrayElementSizeFromHeader can identify them without a ClassTable.
// ClassTable implementations are expected to set PrimitiveKind on the
// classes they return from the primitive-array accessors; object-array
// element classes leave it at primNone.
type primitiveKind uint8

const (
	primNone primitiveKind = iota
	primBoolean
	primByte
	primShort
	primChar
	primInt
	primLong
	primFloat
	primDouble
)

// ClassTable is the compiler/runtime collaborator that hands out Class
// descriptors for the distinguished array element classes (spec.md §6,
// Array()/*Array()). FindClass itself is not part of this interface: it is
// the pure, centralized classFromTag function, because the tag encoding is
// a property of this package, not of the embedder.
type ClassTable interface {
	ArrayClass() *Class
	BooleanArrayClass() *Class
	ByteArrayClass() *Class
	ShortArrayClass() *Class
	CharArrayClass() *Class
	IntArrayClass() *Class
	LongArrayClass() *Class
	FloatArrayClass() *Class
	DoubleArrayClass() *Class
}
