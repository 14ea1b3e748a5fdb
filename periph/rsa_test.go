package periph

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordsRoundTrip(t *testing.T) {
	x, ok := new(big.Int).SetString("0123456789abcdef0011223344556677", 16)
	require.True(t, ok)

	words := make([]uint32, 4)
	IntToWords(x, words)
	assert.Equal(t, []uint32{0x44556677, 0x00112233, 0x89abcdef, 0x01234567}, words)
	assert.Equal(t, 0, WordsToInt(words).Cmp(x))
}

func TestIntToWordsTruncates(t *testing.T) {
	x := new(big.Int).Lsh(big.NewInt(1), 70)
	x.Add(x, big.NewInt(5))

	words := make([]uint32, 2)
	IntToWords(x, words)
	assert.Equal(t, []uint32{5, 0}, words)
}

func TestHexToWords(t *testing.T) {
	w, err := HexToWords("ff", 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0xff, 0}, w)

	_, err = HexToWords("1ffffffff", 1)
	assert.ErrorIs(t, err, ErrOperandSize)

	_, err = HexToWords("zz", 1)
	assert.Error(t, err)
}

func TestModExpMatchesBigInt(t *testing.T) {
	b := newTestBoard(t, 64)

	rsa, err := b.TakeRSA()
	require.NoError(t, err)

	base, _ := HexToWords("123456789abcdef", Op512.Words())
	exp, _ := HexToWords("10001", Op512.Words())
	mod, _ := HexToWords("f123456789abcdef0123456789abcdef0123456789abcdef0123456789abcde1", Op512.Words())

	r, mPrime, err := MontgomeryConstants(mod)
	require.NoError(t, err)

	m, err := rsa.ModExp(Op512, exp, mod, mPrime)
	require.NoError(t, err)
	defer m.Release()

	require.NoError(t, m.StartExponentiation(base, r))

	out := make([]uint32, Op512.Words())
	require.NoError(t, m.ReadResults(out))

	want := new(big.Int).Exp(WordsToInt(base), WordsToInt(exp), WordsToInt(mod))
	assert.Equal(t, 0, WordsToInt(out).Cmp(want))
}

func TestModExpHoldsEngine(t *testing.T) {
	b := newTestBoard(t, 64)

	rsa, err := b.TakeRSA()
	require.NoError(t, err)

	words := Op512.Words()
	one := make([]uint32, words)
	one[0] = 1

	m, err := rsa.ModExp(Op512, one, one, 1)
	require.NoError(t, err)

	_, err = rsa.ModExp(Op512, one, one, 1)
	assert.ErrorIs(t, err, ErrBusy)

	m.Release()
	assert.ErrorIs(t, m.StartExponentiation(one, one), ErrFinished)

	m, err = rsa.ModExp(Op512, one, one, 1)
	require.NoError(t, err)
	m.Release()
}

func TestModExpOperandValidation(t *testing.T) {
	b := newTestBoard(t, 64)

	rsa, err := b.TakeRSA()
	require.NoError(t, err)

	short := make([]uint32, 3)
	full := make([]uint32, Op512.Words())
	full[0] = 7

	_, err = rsa.ModExp(Op512, short, full, 1)
	assert.ErrorIs(t, err, ErrOperandSize)

	_, err = rsa.ModExp(Op512, full, make([]uint32, Op512.Words()), 1)
	assert.ErrorIs(t, err, ErrOperandSize)

	m, err := rsa.ModExp(Op512, full, full, 1)
	require.NoError(t, err)
	defer m.Release()

	assert.Error(t, m.ReadResults(full))
	assert.ErrorIs(t, m.StartExponentiation(short, full), ErrOperandSize)
	require.NoError(t, m.StartExponentiation(full, full))
	assert.ErrorIs(t, m.ReadResults(short), ErrOperandSize)
}

func TestMontgomeryConstants(t *testing.T) {
	mod := []uint32{0xfffffffb, 0x7fffffff}

	r, mPrime, err := MontgomeryConstants(mod)
	require.NoError(t, err)

	// m * m' == -1 mod 2^32
	assert.Equal(t, uint32(0xffffffff), mod[0]*mPrime)

	m := WordsToInt(mod)
	want := new(big.Int).Lsh(big.NewInt(1), 128)
	want.Mod(want, m)
	assert.Equal(t, 0, WordsToInt(r).Cmp(want))

	_, _, err = MontgomeryConstants([]uint32{2})
	assert.ErrorIs(t, err, ErrEvenModulus)
}
