// Package workload generates the deterministic input data fed to the
// accelerator engines: fixed-pattern buffers and power-of-two size sweeps.
package workload

import (
	"fmt"
	mrand "math/rand"
)

// DefaultFill is the byte repeated through pattern buffers.
const DefaultFill = 0xAB

// Patterns supported by the generator.
const (
	PatternFill    = "fill"
	PatternCounter = "counter"
	PatternRandom  = "random"
)

// Config controls buffer generation.
type Config struct {
	Pattern string
	Fill    byte
	Seed    int64
}

// Generator produces deterministic buffers from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	if cfg.Pattern == "" {
		cfg.Pattern = PatternFill
	}

	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Fill overwrites buf with the configured pattern.
func (g *Generator) Fill(buf []byte) error {
	switch g.cfg.Pattern {
	case PatternFill:
		for i := range buf {
			buf[i] = g.cfg.Fill
		}

	case PatternCounter:
		for i := range buf {
			buf[i] = byte(i)
		}

	case PatternRandom:
		g.rng.Read(buf)

	default:
		return fmt.Errorf("unknown pattern %q", g.cfg.Pattern)
	}

	return nil
}

// Buffer returns a new buffer of size bytes filled with the pattern.
func (g *Generator) Buffer(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative buffer size %d", size)
	}

	buf := make([]byte, size)
	if err := g.Fill(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// Sweep returns the powers of two from lo to hi inclusive. lo is rounded
// up to the next power of two.
func Sweep(lo, hi int) ([]int, error) {
	if lo <= 0 || hi < lo {
		return nil, fmt.Errorf("invalid sweep range %d..%d", lo, hi)
	}

	size := 1
	for size < lo {
		size <<= 1
	}

	var sizes []int
	for ; size <= hi; size <<= 1 {
		sizes = append(sizes, size)
	}

	return sizes, nil
}

// DefaultSizes is the sweep from 64 bytes to 32 KiB.
func DefaultSizes() []int {
	sizes, _ := Sweep(64, 32*1024)

	return sizes
}
