package harness

import (
	"context"
	"fmt"

	"github.com/weiihann/accelbench/periph"
)

const RSAAlgorithm = "RSA-2048 Modular Exponentiation"

// Placeholder 2048-bit operands. They are not a key pair, not secure, and
// only exist to give the engine full-width work.
const (
	rsaBaseHex = "c7f61058f96db3bd87dbab08ab03b4f7f2f864eac249144adea6a65f97803b71" +
		"9d8ca980b7b3c0389c1c7c67dc353c5e0ec11f5fc8ce7f6073796cc8f73fa878" +
		"c7f61058f96db3bd87dbab08ab03b4f7f2f864eac249144adea6a65f97803b71" +
		"9d8ca980b7b3c0389c1c7c67dc353c5e0ec11f5fc8ce7f6073796cc8f73fa878" +
		"c7f61058f96db3bd87dbab08ab03b4f7f2f864eac249144adea6a65f97803b71" +
		"9d8ca980b7b3c0389c1c7c67dc353c5e0ec11f5fc8ce7f6073796cc8f73fa878" +
		"c7f61058f96db3bd87dbab08ab03b4f7f2f864eac249144adea6a65f97803b71" +
		"9d8ca980b7b3c0389c1c7c67dc353c5e0ec11f5fc8ce7f6073796cc8f73fa878"

	rsaExponentHex = "1763db3344e97be15d04de4868badb12a38046bb793f7630d87cf100aa1c759a" +
		"fac15a01f3c4c83ec2d2f666bd22f71c3c1f075ec0e2cb0cb29994d091b73f51" +
		"1763db3344e97be15d04de4868badb12a38046bb793f7630d87cf100aa1c759a" +
		"fac15a01f3c4c83ec2d2f666bd22f71c3c1f075ec0e2cb0cb29994d091b73f51" +
		"1763db3344e97be15d04de4868badb12a38046bb793f7630d87cf100aa1c759a" +
		"fac15a01f3c4c83ec2d2f666bd22f71c3c1f075ec0e2cb0cb29994d091b73f51" +
		"1763db3344e97be15d04de4868badb12a38046bb793f7630d87cf100aa1c759a" +
		"fac15a01f3c4c83ec2d2f666bd22f71c3c1f075ec0e2cb0cb29994d091b73f51"

	rsaModulusHex = "6b6bb3d2b6cbeb45a769eaa0384e611e1b89b0c9b45a045aca1c5fd6e8785b38" +
		"df7118cf5dd45b9b63d293b67aeafa9ba25feb8712f188cb139b7d9b9af1c361" +
		"6b6bb3d2b6cbeb45a769eaa0384e611e1b89b0c9b45a045aca1c5fd6e8785b38" +
		"df7118cf5dd45b9b63d293b67aeafa9ba25feb8712f188cb139b7d9b9af1c361" +
		"6b6bb3d2b6cbeb45a769eaa0384e611e1b89b0c9b45a045aca1c5fd6e8785b38" +
		"df7118cf5dd45b9b63d293b67aeafa9ba25feb8712f188cb139b7d9b9af1c361" +
		"6b6bb3d2b6cbeb45a769eaa0384e611e1b89b0c9b45a045aca1c5fd6e8785b38" +
		"df7118cf5dd45b9b63d293b67aeafa9ba25feb8712f188cb139b7d9b9af1c361"

	// rsaMPrime is a placeholder for -M^-1 mod 2^32.
	rsaMPrime = 0xFFFFFFFE
)

// Operands are the inputs of one exponentiation, as little-endian words.
type Operands struct {
	Base     []uint32
	Exponent []uint32
	Modulus  []uint32
	R        []uint32
	MPrime   uint32
}

// PlaceholderOperands returns the fixed 2048-bit benchmark operands with
// r = 2^2048 - 1.
func PlaceholderOperands() (Operands, error) {
	words := periph.Op2048.Words()

	base, err := periph.HexToWords(rsaBaseHex, words)
	if err != nil {
		return Operands{}, fmt.Errorf("base: %w", err)
	}

	exp, err := periph.HexToWords(rsaExponentHex, words)
	if err != nil {
		return Operands{}, fmt.Errorf("exponent: %w", err)
	}

	mod, err := periph.HexToWords(rsaModulusHex, words)
	if err != nil {
		return Operands{}, fmt.Errorf("modulus: %w", err)
	}

	r := make([]uint32, words)
	for i := range r {
		r[i] = ^uint32(0)
	}

	return Operands{
		Base:     base,
		Exponent: exp,
		Modulus:  mod,
		R:        r,
		MPrime:   rsaMPrime,
	}, nil
}

// RSASession holds a configured exponentiation on the RSA engine.
type RSASession struct {
	ModExp   *periph.ModExp
	Operands Operands
	Result   []uint32
}

// NewRSASession loads the exponent and modulus into the engine. The engine
// stays held until Close.
func NewRSASession(engine *periph.RSA, ops Operands) (RSASession, error) {
	m, err := engine.ModExp(periph.Op2048, ops.Exponent, ops.Modulus, ops.MPrime)
	if err != nil {
		return RSASession{}, fmt.Errorf("rsa session: %w", err)
	}

	return RSASession{
		ModExp:   m,
		Operands: ops,
		Result:   make([]uint32, periph.Op2048.Words()),
	}, nil
}

// Close releases the engine.
func (s RSASession) Close() {
	s.ModExp.Release()
}

func rsaStep(_ context.Context, s RSASession, _ int) (RSASession, error) {
	if err := s.ModExp.StartExponentiation(s.Operands.Base, s.Operands.R); err != nil {
		return s, err
	}

	if err := s.ModExp.ReadResults(s.Result); err != nil {
		return s, err
	}

	return s, nil
}

// RunRSA times exactly one 2048-bit exponentiation: no pre-warm, no loop.
func RunRSA(
	ctx context.Context,
	opts Options,
	s RSASession,
) (RSASession, Result, error) {
	d := newDriver[RSASession](opts, RSAAlgorithm, KindOneShot, Milliseconds, 1, 0)
	d.Iterations = 1
	d.Detailed = false

	s, results, err := d.Run(ctx, s, []int{int(periph.Op2048) / 8}, rsaStep)
	if err != nil {
		return s, Result{}, err
	}

	return s, results[0], nil
}
