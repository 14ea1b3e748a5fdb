// Package periph emulates the hardware-abstraction layer of a microcontroller
// with cryptographic accelerators: an AES engine fed through DMA, a SHA
// engine and a modular-exponentiation (RSA) engine.
//
// Engines are backed by software implementations but keep the contracts of
// the vendor layer. A board is initialised once, each engine can be taken
// from it exactly once, and every operation hands the engine back to the
// caller when it completes. Using an engine while a transfer is in flight,
// or after it has been moved into another handle, fails.
package periph

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrAlreadyInitialized = errors.New("already initialized")
	ErrTaken              = errors.New("peripheral already taken")
	ErrMoved              = errors.New("handle was moved")
	ErrBusy               = errors.New("engine busy")
	ErrBufferSize         = errors.New("invalid buffer size")
	ErrDescriptors        = errors.New("not enough DMA descriptors")
	ErrOutOfMemory        = errors.New("heap exhausted")
	ErrOperandSize        = errors.New("operand size mismatch")
	ErrEvenModulus        = errors.New("modulus must be odd")
	ErrFinished           = errors.New("operation already finished")
)

// CPUClock is the core clock frequency in MHz.
type CPUClock int

const (
	CPUClockDefault CPUClock = 160
	CPUClockMax     CPUClock = 240
)

// ParseCPUClock maps a config value to a CPUClock.
func ParseCPUClock(s string) (CPUClock, error) {
	switch s {
	case "", "max":
		return CPUClockMax, nil
	case "default":
		return CPUClockDefault, nil
	case "80":
		return 80, nil
	case "160":
		return 160, nil
	case "240":
		return 240, nil
	default:
		return 0, fmt.Errorf("unknown cpu clock %q", s)
	}
}

// Config controls board initialisation.
type Config struct {
	CPUClock CPUClock
	HeapSize int
}

// DefaultHeapSize leaves room for one pair of 32 KiB DMA buffers.
const DefaultHeapSize = 72 * 1024

// DefaultConfig runs the CPU at full speed with the default heap.
func DefaultConfig() Config {
	return Config{
		CPUClock: CPUClockMax,
		HeapSize: DefaultHeapSize,
	}
}

// Board owns the heap and the engines of one device.
type Board struct {
	cfg    Config
	heap   Heap
	logger *slog.Logger

	aesTaken atomic.Bool
	dmaTaken atomic.Bool
	shaTaken atomic.Bool
	rsaTaken atomic.Bool
}

// Init brings up a board: applies the clock configuration and sizes the
// heap. It is the single initialisation step and must run before any
// engine is taken.
func Init(cfg Config, logger *slog.Logger) (*Board, error) {
	if cfg.CPUClock <= 0 {
		cfg.CPUClock = CPUClockMax
	}

	b := &Board{
		cfg:    cfg,
		logger: logger,
	}

	logger.Info("setting up heap allocator",
		slog.Int("heap_size", cfg.HeapSize),
	)

	if err := b.heap.Init(cfg.HeapSize); err != nil {
		return nil, fmt.Errorf("init heap: %w", err)
	}

	features := DetectFeatures()

	logger.Info("board initialized",
		slog.Int("cpu_clock_mhz", int(cfg.CPUClock)),
		slog.Bool("host_aes", features.AES),
		slog.Bool("host_sha2", features.SHA2),
	)

	return b, nil
}

// Heap returns the board heap.
func (b *Board) Heap() *Heap {
	return &b.heap
}

// CPUClock returns the configured core clock.
func (b *Board) CPUClock() CPUClock {
	return b.cfg.CPUClock
}

// TakeAES hands out the AES engine. It fails if the engine was already
// taken from this board.
func (b *Board) TakeAES() (*AES, error) {
	if !b.aesTaken.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("aes: %w", ErrTaken)
	}

	return &AES{}, nil
}

// TakeDMAChannel hands out DMA channel 0.
func (b *Board) TakeDMAChannel() (*DMAChannel, error) {
	if !b.dmaTaken.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("dma channel: %w", ErrTaken)
	}

	return &DMAChannel{}, nil
}

// TakeSHA hands out the SHA engine.
func (b *Board) TakeSHA() (*SHA, error) {
	if !b.shaTaken.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("sha: %w", ErrTaken)
	}

	return &SHA{}, nil
}

// TakeRSA hands out the RSA engine.
func (b *Board) TakeRSA() (*RSA, error) {
	if !b.rsaTaken.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("rsa: %w", ErrTaken)
	}

	return &RSA{}, nil
}

// Heap is a fixed-size allocation budget. It must be initialised exactly
// once; allocations past the budget fail instead of growing it.
type Heap struct {
	mu          sync.Mutex
	size        int
	used        int
	initialized bool
}

// Init sets the heap size.
func (h *Heap) Init(size int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return fmt.Errorf("heap: %w", ErrAlreadyInitialized)
	}

	if size <= 0 {
		return fmt.Errorf("heap size %d: %w", size, ErrBufferSize)
	}

	h.size = size
	h.initialized = true

	return nil
}

// Alloc reserves n bytes from the heap.
func (h *Heap) Alloc(n int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n < 0 {
		return nil, fmt.Errorf("alloc %d: %w", n, ErrBufferSize)
	}

	if h.used+n > h.size {
		return nil, fmt.Errorf(
			"alloc %d bytes (%d/%d used): %w", n, h.used, h.size, ErrOutOfMemory,
		)
	}

	h.used += n

	return make([]byte, n), nil
}

// Free returns buf's capacity to the heap.
func (h *Heap) Free(buf []byte) {
	h.mu.Lock()
	h.used -= cap(buf)
	if h.used < 0 {
		h.used = 0
	}
	h.mu.Unlock()
}

// Used reports the allocated byte count.
func (h *Heap) Used() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.used
}

// Size reports the heap budget.
func (h *Heap) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.size
}
