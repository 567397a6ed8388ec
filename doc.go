// Package aotgc implements a precise, stop-the-world, mark-and-sweep
// garbage collector for a managed runtime whose compiler emits ahead-of-time
// native code.
//
// The compiler is an external collaborator: it lays out Class descriptors,
// emits shadow-stack frames describing which stack slots hold live
// references, and assigns tags to classes. This package never scans
// registers or native stacks conservatively — every live reference at a
// safepoint is reachable through the global root table or the shadow-stack
// chain supplied via RootProvider.
//
// A Heap owns one contiguous memory-mapped region used for both the object
// heap and a small adjacent scratch region for GC bookkeeping (the
// free-chunk index, the mark worklist, and the sweep-piece index). There is
// no package-level mutable state: every operation is a method on *Heap, so a
// process may in principle run more than one heap, though the collector
// itself assumes single-mutator access to any one Heap value.
package aotgc
