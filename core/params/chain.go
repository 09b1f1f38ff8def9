package params

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/zeebo/blake3"

	"github.com/spgrammatakis/sealDemo/core/scale"
)

// Modulus is a prime of the chain.
// LogQ is the rounded log2 of the prime: primes are generated
// around 2^{LogQ}, on either side.
type Modulus struct {
	Value uint64
	LogQ  int
}

// Scale returns the modulus as a [scale.Scale], i.e. the factor
// by which a rescale divides the scale of a value.
func (m Modulus) Scale() scale.Scale {
	return scale.NewScale(m.Value)
}

// Chain is the modulus chain listed in consumption order: Chain[l] is the
// prime dropped when a value at level l is rescaled. The last prime is the
// base prime and is never dropped.
type Chain []Modulus

func newChain(q []uint64) (c Chain) {
	c = make(Chain, len(q))
	for i := range q {
		qi := q[len(q)-1-i]
		c[i] = Modulus{Value: qi, LogQ: int(math.Round(math.Log2(float64(qi))))}
	}
	return
}

// Modulus returns the prime consumed by a rescale at the given level.
func (c Chain) Modulus(level int) Modulus {
	return c[level]
}

// Remaining returns the primes still present at the given level.
func (c Chain) Remaining(level int) Chain {
	return c[level:]
}

// LogQ returns log2 of the product of the primes still present at the given level.
func (c Chain) LogQ(level int) (logQ float64) {
	for _, m := range c.Remaining(level) {
		logQ += math.Log2(float64(m.Value))
	}
	return
}

// ParmsID identifies a position in the chain: two values share a ParmsID
// if and only if they are defined over the same set of primes.
type ParmsID [32]byte

func newParmsID(logN int, remaining Chain) (id ParmsID) {
	h := blake3.New()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(logN))
	h.Write(buf)
	for _, m := range remaining {
		binary.BigEndian.PutUint64(buf, m.Value)
		h.Write(buf)
	}
	copy(id[:], h.Sum(nil))
	return
}

// String returns the first eight bytes of the fingerprint in hexadecimal.
func (id ParmsID) String() string {
	return hex.EncodeToString(id[:8])
}
