package aotgc

import (
	"fmt"
	"os"
	"runtime/debug"
)

// osExit is a seam over os.Exit so tests can observe an abort without
// killing the test binary.
var osExit = os.Exit

// fatal aborts the process after printing reason, the supplied diagnostic
// fields, and a Go stack trace. spec.md §7 classifies every GC failure as
// fatal (OS mapping failure, out of memory, heap corruption); none of them
// are recoverable, so there is no error return path here, matching the
// source's exit(2) calls. runtime/debug.Stack is used instead of a
// third-party backtrace library because no repo in the retrieval pack pulls
// one in for this purpose — stdlib is the idiomatic choice here.
func (h *Heap) fatal(reason string, args ...any) {
	msg := fmt.Sprintf(reason, args...)
	fmt.Fprintf(os.Stderr, "aotgc: fatal: %s\n", msg)
	os.Stderr.Write(debug.Stack())
	osExit(2)
}

// fatalOOM reports the out-of-memory failure kind.
func (h *Heap) fatalOOM(requested int32) {
	h.fatal("out of memory (requested %d bytes, heap size %d bytes)", requested, h.heapSize())
}

// fatalMap reports the OS mapping failure kind.
func (h *Heap) fatalMap(operation string, size uintptr, err error) {
	h.fatal("could not %s (%d bytes): %v", operation, size, err)
}

// fatalCorrupt reports the heap-corruption failure kind. It is reached from
// the checks gated on Config.Assert (mirroring the source's TEAVM_GC_ASSERT
// guard) and, regardless of Config.Assert, from makeEmpty's size check.
func (h *Heap) fatalCorrupt(reason string, detail uintptr) {
	h.fatal("heap corruption detected: %s (0x%x)", reason, detail)
}
