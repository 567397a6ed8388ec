package aotgc

import "unsafe"

// StackFrame is one link of the externally maintained, compiler-emitted
// shadow stack (spec.md §3). Immediately following the header in memory are
// Size object references; References() exposes them without requiring the
// caller to do the pointer arithmetic.
type StackFrame struct {
	Size       int32
	CallSiteID int32
	Next       *StackFrame
}

// References returns the Size object-reference slots that follow this
// frame's header in memory.
func (f *StackFrame) References() []unsafe.Pointer {
	base := unsafe.Add(unsafe.Pointer(f), unsafe.Sizeof(StackFrame{}))
	return unsafe.Slice((*unsafe.Pointer)(base), f.Size)
}

// StackRootTable is the external global root table: data[i] points at an
// object reference living in a fixed global location (spec.md §3).
type StackRootTable struct {
	Size int32
	Data []*unsafe.Pointer
}

// RootProvider is the compiler/runtime collaborator supplying the two root
// sources the mark engine walks: the global root table and the current
// shadow-stack head (spec.md §6, getStackRoots/getStackTop).
type RootProvider interface {
	// StackRoots returns the global root table. Its pointer is expected to
	// be stable across a collection cycle; its Size may grow between
	// cycles as the compiler registers more globals.
	StackRoots() *StackRootTable

	// StackTop returns the current shadow-stack head, or nil if no frames
	// are active.
	StackTop() *StackFrame
}
