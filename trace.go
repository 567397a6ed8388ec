package aotgc

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-colorable"
)

// tracer writes optional GC diagnostics to stderr. It never influences
// collection behavior (spec.md §6: "changes no observable behavior"); every
// call is skipped entirely when Config.Trace is false.
type tracer struct {
	enabled bool
	out     io.Writer
}

func newTracer(enabled bool) *tracer {
	return &tracer{enabled: enabled, out: colorable.NewColorableStderr()}
}

func (t *tracer) cycleStart(n int) time.Time {
	start := time.Now()
	if t.enabled {
		fmt.Fprintf(t.out, "\x1b[36mGC: cycle %d started\x1b[0m\n", n)
	}
	return start
}

func (t *tracer) cycleDone(n int, start time.Time, reclaimed, heapSize int64, grew bool) {
	if !t.enabled {
		return
	}
	elapsed := time.Since(start)
	growMsg := ""
	if grew {
		growMsg = ", heap grown"
	}
	fmt.Fprintf(t.out, "\x1b[36mGC: cycle %d complete in %s, reclaimed %d of %d bytes%s\x1b[0m\n",
		n, elapsed, reclaimed, heapSize, growMsg)
}

func (t *tracer) heapGrown(by int64, newSize int64) {
	if !t.enabled {
		return
	}
	fmt.Fprintf(t.out, "\x1b[33mGC: heap grown by %d bytes and now it's %d bytes long\x1b[0m\n", by, newSize)
}
