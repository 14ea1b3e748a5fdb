package periph

import (
	"fmt"
	"math/big"
	"sync/atomic"
)

// OperandSize is the operand width of a modular exponentiation in bits.
type OperandSize int

const (
	Op512  OperandSize = 512
	Op1024 OperandSize = 1024
	Op2048 OperandSize = 2048
	Op3072 OperandSize = 3072
	Op4096 OperandSize = 4096
)

// Words is the operand length in 32-bit words.
func (o OperandSize) Words() int {
	return int(o) / 32
}

// RSA is the modular-exponentiation engine.
type RSA struct {
	busy atomic.Bool
}

// ModExp prepares the engine to compute x^exponent mod modulus for the
// given operand size. Operands are little-endian 32-bit words. mPrime and
// the r passed to StartExponentiation are the Montgomery helper constants
// the engine expects; see MontgomeryConstants. The engine is held until
// Release.
func (r *RSA) ModExp(
	size OperandSize,
	exponent, modulus []uint32,
	mPrime uint32,
) (*ModExp, error) {
	words := size.Words()
	if words <= 0 || len(exponent) != words || len(modulus) != words {
		return nil, fmt.Errorf(
			"modexp %d-bit: exponent %d words, modulus %d words: %w",
			size, len(exponent), len(modulus), ErrOperandSize,
		)
	}

	m := WordsToInt(modulus)
	if m.Sign() == 0 {
		return nil, fmt.Errorf("modexp: zero modulus: %w", ErrOperandSize)
	}

	if !r.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("rsa: %w", ErrBusy)
	}

	return &ModExp{
		engine:   r,
		size:     size,
		exponent: WordsToInt(exponent),
		modulus:  m,
		mPrime:   mPrime,
	}, nil
}

// ModExp is a configured exponentiation holding the engine.
type ModExp struct {
	engine   *RSA
	size     OperandSize
	exponent *big.Int
	modulus  *big.Int
	mPrime   uint32
	result   *big.Int
	released bool
}

// StartExponentiation runs base^exponent mod modulus. r must have the
// operand width.
func (m *ModExp) StartExponentiation(base, r []uint32) error {
	if m.released {
		return fmt.Errorf("modexp: %w", ErrFinished)
	}

	words := m.size.Words()
	if len(base) != words || len(r) != words {
		return fmt.Errorf(
			"modexp start: base %d words, r %d words, want %d: %w",
			len(base), len(r), words, ErrOperandSize,
		)
	}

	m.result = new(big.Int).Exp(WordsToInt(base), m.exponent, m.modulus)

	return nil
}

// ReadResults copies the last result into out.
func (m *ModExp) ReadResults(out []uint32) error {
	if m.result == nil {
		return fmt.Errorf("modexp read: no exponentiation started")
	}

	if len(out) != m.size.Words() {
		return fmt.Errorf(
			"modexp read: %d words, want %d: %w",
			len(out), m.size.Words(), ErrOperandSize,
		)
	}

	IntToWords(m.result, out)

	return nil
}

// Release hands the engine back.
func (m *ModExp) Release() {
	if m.released {
		return
	}

	m.released = true
	m.engine.busy.Store(false)
}

// MontgomeryConstants computes the helper constants for modulus M of n
// words: r = R^2 mod M with R = 2^(32n), and mPrime = -M^-1 mod 2^32.
func MontgomeryConstants(modulus []uint32) ([]uint32, uint32, error) {
	m := WordsToInt(modulus)
	if m.Bit(0) == 0 {
		return nil, 0, ErrEvenModulus
	}

	n := len(modulus)

	rr := new(big.Int).Lsh(big.NewInt(1), uint(64*n))
	rr.Mod(rr, m)

	r := make([]uint32, n)
	IntToWords(rr, r)

	// Newton iteration for the inverse of m0 mod 2^32.
	m0 := modulus[0]
	inv := m0
	for i := 0; i < 5; i++ {
		inv *= 2 - m0*inv
	}

	return r, -inv, nil
}

// WordsToInt decodes little-endian 32-bit words.
func WordsToInt(words []uint32) *big.Int {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		j := len(buf) - 4*(i+1)
		buf[j] = byte(w >> 24)
		buf[j+1] = byte(w >> 16)
		buf[j+2] = byte(w >> 8)
		buf[j+3] = byte(w)
	}

	return new(big.Int).SetBytes(buf)
}

// IntToWords encodes x into out as little-endian 32-bit words, truncating
// bits beyond the width of out.
func IntToWords(x *big.Int, out []uint32) {
	width := 32 * len(out)
	if x.BitLen() > width {
		mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
		x = new(big.Int).Mod(x, mask)
	}

	buf := make([]byte, 4*len(out))
	x.FillBytes(buf)

	for i := range out {
		j := len(buf) - 4*(i+1)
		out[i] = uint32(buf[j])<<24 | uint32(buf[j+1])<<16 |
			uint32(buf[j+2])<<8 | uint32(buf[j+3])
	}
}

// HexToWords parses a big-endian hex string into n little-endian words.
func HexToWords(s string, n int) ([]uint32, error) {
	x, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex operand")
	}

	if x.BitLen() > 32*n {
		return nil, fmt.Errorf(
			"operand has %d bits, want at most %d: %w",
			x.BitLen(), 32*n, ErrOperandSize,
		)
	}

	out := make([]uint32, n)
	IntToWords(x, out)

	return out, nil
}
