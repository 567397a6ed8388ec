//go:build unix

package aotgc

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// osMemory is the OS memory provider (spec.md §4.1): it reserves and commits
// page-aligned anonymous memory regions, starting at a kernel-chosen base
// address and growing upward by requesting further fixed-address mappings
// immediately past the previous one. Grounded on the source's use of
// mmap(..., MAP_FIXED, ...) to grow the heap in place, adapted to
// golang.org/x/sys/unix the way _examples/cloudfly-readgo/runtime/malloc.go
// drives mmap'd arenas.
type osMemory struct {
	pageSize int
}

func newOSMemory() *osMemory {
	return &osMemory{pageSize: unix.Getpagesize()}
}

// reserve maps a fresh region of at least size bytes, rounded up to a page,
// letting the kernel pick the base address.
func (m *osMemory) reserve(size int) (addr uintptr, mapped int, err error) {
	aligned := roundUpPage(size, m.pageSize)
	data, err := unix.Mmap(-1, 0, aligned, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return 0, 0, fmt.Errorf("mmap: %w", err)
	}
	return addrOfSlice(data), aligned, nil
}

// extend maps size bytes (rounded up to a page) immediately at addr, which
// must be the current end of a previously reserved region. The heap must
// always be contiguous in address space; if the kernel cannot place the
// mapping exactly there, this fails (caller treats it as a fatal mapping
// failure per spec.md §7). unix.Mmap has no way to request a fixed address,
// so this drops to the raw syscall the way the portable wrapper itself is
// built on, passing MAP_FIXED explicitly.
func (m *osMemory) extend(addr uintptr, size int) (mapped int, err error) {
	aligned := roundUpPage(size, m.pageSize)
	result, _, errno := unix.Syscall6(unix.SYS_MMAP, addr, uintptr(aligned),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON|unix.MAP_FIXED,
		^uintptr(0), 0)
	if errno != 0 {
		return 0, fmt.Errorf("mmap at 0x%x: %w", addr, errno)
	}
	if result != addr {
		unix.Syscall(unix.SYS_MUNMAP, result, uintptr(aligned), 0)
		return 0, fmt.Errorf("mmap placed region at 0x%x, wanted 0x%x", result, addr)
	}
	return aligned, nil
}

func roundUpPage(size, pageSize int) int {
	return (size + pageSize - 1) / pageSize * pageSize
}

// addrOfSlice returns the address of a freshly mmap'd slice's backing
// array. The slice is never touched as a Go slice again after this; the
// heap takes over raw pointer arithmetic on the address from here on.
func addrOfSlice(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
