// Package sim implements a [leveled.Backend] that simulates CKKS on plain float64 slots.
//
// The simulator applies the exact level and scale bookkeeping of the scheme,
// adds to the slots Gaussian noise of the magnitude CKKS would introduce at
// encoding, encryption, relinearization and rescaling, and reports the
// modulus overflows a real decryption would silently wrap around. It is
// meant for testing and planning circuits without key material.
package sim

import (
	"fmt"
	"math"

	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/core/scale"
	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils"
	"github.com/spgrammatakis/sealDemo/utils/sampling"
)

const (
	// Sigma is the standard deviation of the error distribution of the simulated scheme.
	Sigma = 3.2
	// HammingWeight is the number of non-zero coefficients of the simulated secret.
	HammingWeight = 192
)

// Backend is a [leveled.Backend] simulating CKKS.
type Backend struct {
	params params.Parameters
	prng   sampling.PRNG
	tol    float64
}

// NewBackend returns a simulator whose noise is sampled deterministically from the given key.
func NewBackend(p params.Parameters, key []byte) (*Backend, error) {
	prng, err := sampling.NewKeyedPRNG(key)
	if err != nil {
		return nil, fmt.Errorf("cannot NewBackend: %w", err)
	}
	return &Backend{params: p, prng: prng, tol: leveled.DefaultScaleTolerance}, nil
}

// NewExactBackend returns a simulator that adds no noise.
// Decoded values then only differ from the plaintext arithmetic by
// the effect of forced scale normalizations.
func NewExactBackend(p params.Parameters) *Backend {
	return &Backend{params: p, tol: leveled.DefaultScaleTolerance}
}

// ShallowCopy returns a backend sharing the parameters and the noise source
// of the receiver. The noise source serializes its reads.
func (b *Backend) ShallowCopy() leveled.Backend {
	return &Backend{params: b.params, prng: b.prng, tol: b.tol}
}

// WithScaleTolerance returns a shallow copy of the backend whose additions
// accept scales within the relative distance tol.
func (b *Backend) WithScaleTolerance(tol float64) leveled.Backend {
	c := b.ShallowCopy().(*Backend)
	c.tol = tol
	return c
}

// Parameters returns the parameters of the backend.
func (b *Backend) Parameters() params.Parameters {
	return b.params
}

// Encode returns a plaintext at level 0 encoding values with the given scale.
func (b *Backend) Encode(values []float64, s scale.Scale) (*leveled.Value, error) {

	if err := leveled.CheckSlots(b.params, len(values)); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}

	if err := leveled.CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}

	m := utils.Resize(values, b.params.MaxSlots())
	b.addNoise(m, s, b.encodingStd())

	return leveled.NewPlaintext(m, 0, len(m), s), nil
}

// Encrypt returns a fresh ciphertext of pt.
func (b *Backend) Encrypt(pt *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckPlaintext(pt); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	m := utils.Resize(slots(pt), pt.Slots())
	s := pt.Scale()
	b.addNoise(m, s, b.encryptionStd())

	return leveled.NewCiphertext(m, pt.Level(), 1, pt.Slots(), s), nil
}

// Decrypt returns the plaintext of ct. Returns an error wrapping [leveled.ErrModulusOverflow]
// if the scaled message does not fit in the modulus remaining at the level of ct.
func (b *Backend) Decrypt(ct *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(ct); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	if err := b.checkOverflow(ct); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	return leveled.NewPlaintext(utils.Resize(slots(ct), ct.Slots()), ct.Level(), ct.Slots(), ct.Scale()), nil
}

// Decode returns the values of pt.
func (b *Backend) Decode(pt *leveled.Value) ([]float64, error) {

	if err := leveled.CheckPlaintext(pt); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	if err := b.checkOverflow(pt); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	return utils.Resize(slots(pt), pt.Slots()), nil
}

// Add returns a + b.
func (b *Backend) Add(a, c *leveled.Value) (*leveled.Value, error) {

	if err := b.checkAdd(a, c, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Add: %w", err)
	}

	return leveled.NewCiphertext(b.sum(a, c), a.Level(), max(a.Degree(), c.Degree()), a.Slots(), a.Scale()), nil
}

// AddPlain returns ct + pt.
func (b *Backend) AddPlain(ct, pt *leveled.Value) (*leveled.Value, error) {

	if err := b.checkAdd(ct, pt, leveled.CheckPlaintext); err != nil {
		return nil, fmt.Errorf("cannot AddPlain: %w", err)
	}

	return leveled.NewCiphertext(b.sum(ct, pt), ct.Level(), ct.Degree(), ct.Slots(), ct.Scale()), nil
}

// Multiply returns the degree 2 product a * c.
func (b *Backend) Multiply(a, c *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(a, c, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Multiply: %w", err)
	}

	return leveled.NewCiphertext(product(a, c), a.Level(), 2, a.Slots(), a.Scale().Mul(c.Scale())), nil
}

// MultiplyPlain returns ct * pt.
func (b *Backend) MultiplyPlain(ct, pt *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(ct, pt, leveled.CheckPlaintext); err != nil {
		return nil, fmt.Errorf("cannot MultiplyPlain: %w", err)
	}

	return leveled.NewCiphertext(product(ct, pt), ct.Level(), ct.Degree(), ct.Slots(), ct.Scale().Mul(pt.Scale())), nil
}

// Square returns the degree 2 product a * a.
func (b *Backend) Square(a *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(a, a, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	return leveled.NewCiphertext(product(a, a), a.Level(), 2, a.Slots(), a.Scale().Mul(a.Scale())), nil
}

// Relinearize returns a degree 1 ciphertext of a, adding the key-switching noise.
func (b *Backend) Relinearize(a *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	if err := leveled.CheckRelinearizable(a); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	m := utils.Resize(slots(a), a.Slots())
	s := a.Scale()
	b.addNoise(m, s, b.roundingStd())

	return leveled.NewCiphertext(m, a.Level(), 1, a.Slots(), s), nil
}

// Rescale divides the scale of a by the prime of its level, adding the rounding noise.
func (b *Backend) Rescale(a *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	if err := leveled.CheckRescalable(b.params, a); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	m := utils.Resize(slots(a), a.Slots())
	s := a.Scale().Div(b.params.Chain().Modulus(a.Level()).Scale())
	b.addNoise(m, s, b.roundingStd())

	return leveled.NewCiphertext(m, a.Level()+1, 1, a.Slots(), s), nil
}

// ModSwitchTo drops a to the given level.
func (b *Backend) ModSwitchTo(a *leveled.Value, level int) (*leveled.Value, error) {

	if a == nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w: nil operand", leveled.ErrInvalidOperand)
	}

	if err := leveled.CheckModSwitch(b.params, a, level); err != nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w", err)
	}

	return b.relabel(a, utils.Resize(slots(a), a.Slots()), level, a.Scale()), nil
}

// SetScale relabels the scale of a. As on a real ciphertext, the content is
// unchanged, so that the decoded values are multiplied by a.Scale / s.
func (b *Backend) SetScale(a *leveled.Value, s scale.Scale) (*leveled.Value, error) {

	if a == nil {
		return nil, fmt.Errorf("cannot SetScale: %w: nil operand", leveled.ErrInvalidOperand)
	}

	if err := leveled.CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot SetScale: %w", err)
	}

	ratio := a.Scale().Div(s).Float64()

	m := utils.Resize(slots(a), a.Slots())
	for i := range m {
		m[i] *= ratio
	}

	return b.relabel(a, m, a.Level(), s), nil
}

func (b *Backend) relabel(a *leveled.Value, m []float64, level int, s scale.Scale) *leveled.Value {
	if a.IsCiphertext() {
		return leveled.NewCiphertext(m, level, a.Degree(), a.Slots(), s)
	}
	return leveled.NewPlaintext(m, level, a.Slots(), s)
}

func (b *Backend) checkAdd(a, c *leveled.Value, checkSecond func(*leveled.Value) error) (err error) {
	if err = leveled.CheckCiphertext(a); err != nil {
		return
	}
	if err = checkSecond(c); err != nil {
		return
	}
	if err = leveled.CheckSameLevel(a, c); err != nil {
		return
	}
	return leveled.CheckSameScale(a, c, b.tol)
}

func (b *Backend) checkMultiply(a, c *leveled.Value, checkSecond func(*leveled.Value) error) (err error) {
	if err = leveled.CheckCiphertext(a); err != nil {
		return
	}
	if err = checkSecond(c); err != nil {
		return
	}
	if err = leveled.CheckLinear(a); err != nil {
		return
	}
	if err = leveled.CheckLinear(c); err != nil {
		return
	}
	return leveled.CheckSameLevel(a, c)
}

// sum returns a + c where c is read at the scale of a, as CKKS does.
func (b *Backend) sum(a, c *leveled.Value) []float64 {
	ratio := c.Scale().Div(a.Scale()).Float64()
	ma, mc := slots(a), slots(c)
	m := make([]float64, a.Slots())
	for i := range m {
		m[i] = ma[i] + mc[i]*ratio
	}
	return m
}

func product(a, c *leveled.Value) []float64 {
	ma, mc := slots(a), slots(c)
	m := make([]float64, a.Slots())
	for i := range m {
		m[i] = ma[i] * mc[i]
	}
	return m
}

func (b *Backend) checkOverflow(v *leveled.Value) error {
	maxAbs := utils.MaxAbs(slots(v))
	if maxAbs == 0 {
		return nil
	}
	if logQ := b.params.Chain().LogQ(v.Level()); v.LogScale()+math.Log2(maxAbs)+1 >= logQ {
		return fmt.Errorf("%w: log2(scale)=%.2f and log2(max|m|)=%.2f do not fit in log2(Q)=%.2f at level %d",
			leveled.ErrModulusOverflow, v.LogScale(), math.Log2(maxAbs), logQ, v.Level())
	}
	return nil
}

// addNoise adds to each slot a Gaussian error of standard deviation std,
// given in the scaled domain, i.e. std / s in the message domain.
func (b *Backend) addNoise(m []float64, s scale.Scale, std float64) {
	if b.prng == nil {
		return
	}
	std /= s.Float64()
	for i := range m {
		m[i] += std * sampling.NormFloat64(b.prng)
	}
}

// The standard deviations below are those of one slot of the canonical
// embedding of an error polynomial with i.i.d. coefficients: sqrt(N) times
// the coefficient standard deviation.

// encodingStd is the rounding of the scaled coefficients.
func (b *Backend) encodingStd() float64 {
	return math.Sqrt(float64(int(1)<<b.params.LogN()) / 12)
}

// encryptionStd is e0 + e1*s + e*u of a public-key encryption.
func (b *Backend) encryptionStd() float64 {
	return Sigma * math.Sqrt(float64(2*HammingWeight+1)) * math.Sqrt(float64(int(1)<<b.params.LogN()))
}

// roundingStd is e0 + e1*s with uniform rounding errors e0, e1, left by a rescale or a key-switch.
func (b *Backend) roundingStd() float64 {
	return math.Sqrt(float64(HammingWeight+1)/12) * math.Sqrt(float64(int(1)<<b.params.LogN()))
}

// slots returns the slots of a value created by a simulator.
func slots(v *leveled.Value) []float64 {
	m, ok := v.Operand().([]float64)
	if !ok {
		panic(fmt.Errorf("invalid operand: %T was not created by a simulator", v.Operand()))
	}
	return m
}
