package aotgc

import (
	"fmt"
	"testing"
	"unsafe"
)

// withAbortingExit replaces osExit for the duration of fn with one that
// panics instead of terminating the process, so a test can assert that a
// fatal path was taken without killing the test binary.
func withAbortingExit(t *testing.T, fn func()) {
	t.Helper()
	prev := osExit
	osExit = func(code int) { panic(fmt.Sprintf("aotgc: fatal exit(%d)", code)) }
	defer func() { osExit = prev }()
	fn()
}

// fakeClasses is a minimal ClassTable used by tests in place of the
// compiler-supplied class table. It registers the distinguished array
// element classes plus whatever object classes a test needs.
type fakeClasses struct {
	arrayClass   Class
	booleanClass Class
	byteClass    Class
	shortClass   Class
	charClass    Class
	intClass     Class
	longClass    Class
	floatClass   Class
	doubleClass  Class
}

func newFakeClasses() *fakeClasses {
	fc := &fakeClasses{}
	fc.booleanClass.PrimitiveKind = primBoolean
	fc.byteClass.PrimitiveKind = primByte
	fc.shortClass.PrimitiveKind = primShort
	fc.charClass.PrimitiveKind = primChar
	fc.intClass.PrimitiveKind = primInt
	fc.longClass.PrimitiveKind = primLong
	fc.floatClass.PrimitiveKind = primFloat
	fc.doubleClass.PrimitiveKind = primDouble
	return fc
}

func (fc *fakeClasses) ArrayClass() *Class        { return &fc.arrayClass }
func (fc *fakeClasses) BooleanArrayClass() *Class { return &fc.booleanClass }
func (fc *fakeClasses) ByteArrayClass() *Class    { return &fc.byteClass }
func (fc *fakeClasses) ShortArrayClass() *Class   { return &fc.shortClass }
func (fc *fakeClasses) CharArrayClass() *Class    { return &fc.charClass }
func (fc *fakeClasses) IntArrayClass() *Class     { return &fc.intClass }
func (fc *fakeClasses) LongArrayClass() *Class    { return &fc.longClass }
func (fc *fakeClasses) FloatArrayClass() *Class   { return &fc.floatClass }
func (fc *fakeClasses) DoubleArrayClass() *Class  { return &fc.doubleClass }

// newPlainClass returns a Class describing a fixed-size object with a
// single pointer field right after the record header, padded to size
// bytes total. size must be a multiple of 8 and at least
// recordHeaderSize+8. Magic is set so the class passes the assert-mode
// validity check that testConfig enables.
func newPlainClass(size uint32) *Class {
	return &Class{
		Size:  size,
		Magic: assertMagicXor,
		Fields: FieldLayout{
			Offsets: []int32{int32(recordHeaderSize)},
		},
	}
}

// fakeRoots is a RootProvider backed by plain Go slices; object references
// live in ordinary Go memory (outside the collected heap) and merely point
// into it, which is exactly the shape spec.md describes for the global
// root table and shadow stack.
type fakeRoots struct {
	slots []unsafe.Pointer
	top   *StackFrame
}

func newFakeRoots(n int) *fakeRoots {
	return &fakeRoots{slots: make([]unsafe.Pointer, n)}
}

func (r *fakeRoots) StackRoots() *StackRootTable {
	data := make([]*unsafe.Pointer, len(r.slots))
	for i := range r.slots {
		data[i] = &r.slots[i]
	}
	return &StackRootTable{Size: int32(len(data)), Data: data}
}

func (r *fakeRoots) StackTop() *StackFrame {
	return r.top
}

func (r *fakeRoots) set(i int, p unsafe.Pointer) {
	r.slots[i] = p
}

// pushFrame builds a new shadow-stack frame holding refs and makes it the
// current top, returning a function that restores the previous top.
func (r *fakeRoots) pushFrame(refs []unsafe.Pointer) (restore func()) {
	frame := newStackFrame(refs, r.top)
	prev := r.top
	r.top = frame
	return func() { r.top = prev }
}

// newStackFrame allocates a StackFrame header immediately followed by
// len(refs) reference slots in one contiguous buffer, the layout
// StackFrame.References() assumes.
func newStackFrame(refs []unsafe.Pointer, next *StackFrame) *StackFrame {
	headerSize := unsafe.Sizeof(StackFrame{})
	buf := make([]byte, headerSize+uintptr(len(refs))*unsafe.Sizeof(unsafe.Pointer(nil)))
	frame := (*StackFrame)(unsafe.Pointer(&buf[0]))
	frame.Size = int32(len(refs))
	frame.CallSiteID = 0
	frame.Next = next
	dst := frame.References()
	copy(dst, refs)
	return frame
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Assert = true
	return cfg
}
