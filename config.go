package aotgc

import (
	"fmt"
	"os"

	"github.com/inhies/go-bytesize"
	"gopkg.in/yaml.v2"
)

// Config holds the tunables that spec.md §6 lists as compile-time constants
// (INITIAL_HEAP_SIZE, HEAP_LIMIT, MAX_GC_GROW, SWEEP_PIECE_SIZE,
// TRAVERSAL_STACK_SIZE). They are exposed here as an ordinary struct with
// defaults, following the teacher's own compileopts.Options pattern (a flat
// struct of tunables with a Verify method), so a host program or test can
// override them without recompiling.
type Config struct {
	// InitialHeapSize is the size of the region mapped at NewHeap. Rounded
	// up to the page size; must be at least 256KiB.
	InitialHeapSize bytesize.ByteSize

	// HeapLimit bounds total heap growth across the process lifetime.
	HeapLimit bytesize.ByteSize

	// MaxGCGrow caps a single growth step. Must be positive (Verify rejects
	// zero); DefaultConfig sets it to HeapLimit/64, and LoadConfig sets it to
	// the file's heapLimit/64 when the file gives heapLimit but no maxGCGrow.
	MaxGCGrow bytesize.ByteSize

	// SweepPieceSize is the granularity of the sweep-piece acceleration
	// index. Must be a power of two.
	SweepPieceSize int32

	// TraversalStackSize is the number of entries per worklist block.
	TraversalStackSize int32

	// Trace enables diagnostic output on every collection cycle (spec.md
	// §6: "An optional trace/assert mode emits diagnostics to stderr but
	// changes no observable behavior").
	Trace bool

	// Assert enables the extra heap-corruption checks described in
	// spec.md §7 (tag validity, bounds checks). These are skipped by
	// default because, like the source's TEAVM_GC_ASSERT, they add
	// overhead to every allocation and sweep step.
	Assert bool
}

const (
	defaultInitialHeapSize = 256 * bytesize.KB
	defaultHeapLimit       = 1 * bytesize.GB
	sweepPieceSizeDefault  = 16 * 1024
	traversalStackSizeDefault = 512
)

// DefaultConfig returns the tunables from spec.md §6's defaults:
// INITIAL_HEAP_SIZE = 256KiB, HEAP_LIMIT = 1GiB, MAX_GC_GROW = HEAP_LIMIT/64,
// SWEEP_PIECE_SIZE = 16384, TRAVERSAL_STACK_SIZE = 512.
func DefaultConfig() Config {
	return Config{
		InitialHeapSize:    defaultInitialHeapSize,
		HeapLimit:          defaultHeapLimit,
		MaxGCGrow:          defaultHeapLimit / 64,
		SweepPieceSize:     sweepPieceSizeDefault,
		TraversalStackSize: traversalStackSizeDefault,
	}
}

// Verify validates a Config the way compileopts.Options.Verify validates
// compiler options: checking ranges and returning a descriptive error
// instead of letting an invalid tunable surface as a confusing panic deep
// inside the allocator.
func (c *Config) Verify() error {
	if c.InitialHeapSize < 256*bytesize.KB {
		return fmt.Errorf("aotgc: InitialHeapSize must be at least 256KiB, got %s", c.InitialHeapSize)
	}
	if c.HeapLimit < c.InitialHeapSize {
		return fmt.Errorf("aotgc: HeapLimit (%s) must be >= InitialHeapSize (%s)", c.HeapLimit, c.InitialHeapSize)
	}
	if c.SweepPieceSize <= 0 || c.SweepPieceSize&(c.SweepPieceSize-1) != 0 {
		return fmt.Errorf("aotgc: SweepPieceSize must be a power of two, got %d", c.SweepPieceSize)
	}
	if c.TraversalStackSize <= 0 {
		return fmt.Errorf("aotgc: TraversalStackSize must be positive, got %d", c.TraversalStackSize)
	}
	if c.MaxGCGrow <= 0 {
		return fmt.Errorf("aotgc: MaxGCGrow must be positive, got %s", c.MaxGCGrow)
	}
	return nil
}

// yamlConfig is the on-disk shape for LoadConfig: byte sizes as strings
// ("256KiB", "1GiB") rather than bytesize.ByteSize's raw float64, so the
// file reads the way a human would write it.
type yamlConfig struct {
	InitialHeapSize    string `yaml:"initialHeapSize"`
	HeapLimit          string `yaml:"heapLimit"`
	MaxGCGrow          string `yaml:"maxGCGrow"`
	SweepPieceSize     int32  `yaml:"sweepPieceSize"`
	TraversalStackSize int32  `yaml:"traversalStackSize"`
	Trace              bool   `yaml:"trace"`
	Assert             bool   `yaml:"assert"`
}

// LoadConfig reads a YAML document of heap tunables from path, starting from
// DefaultConfig and overriding only the fields present in the file. A
// missing file is not an error; callers that want to require the file
// should check os.IsNotExist themselves.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("aotgc: reading config %s: %w", path, err)
	}

	var doc yamlConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("aotgc: parsing config %s: %w", path, err)
	}

	if doc.InitialHeapSize != "" {
		size, err := bytesize.Parse(doc.InitialHeapSize)
		if err != nil {
			return cfg, fmt.Errorf("aotgc: initialHeapSize: %w", err)
		}
		cfg.InitialHeapSize = size
	}
	if doc.HeapLimit != "" {
		size, err := bytesize.Parse(doc.HeapLimit)
		if err != nil {
			return cfg, fmt.Errorf("aotgc: heapLimit: %w", err)
		}
		cfg.HeapLimit = size
	}
	if doc.MaxGCGrow != "" {
		size, err := bytesize.Parse(doc.MaxGCGrow)
		if err != nil {
			return cfg, fmt.Errorf("aotgc: maxGCGrow: %w", err)
		}
		cfg.MaxGCGrow = size
	} else if doc.HeapLimit != "" {
		cfg.MaxGCGrow = cfg.HeapLimit / 64
	}
	if doc.SweepPieceSize != 0 {
		cfg.SweepPieceSize = doc.SweepPieceSize
	}
	if doc.TraversalStackSize != 0 {
		cfg.TraversalStackSize = doc.TraversalStackSize
	}
	cfg.Trace = doc.Trace
	cfg.Assert = doc.Assert

	return cfg, nil
}
