// Package lattigo implements a [leveled.Backend] over the CKKS scheme of the lattigo library.
package lattigo

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"

	"github.com/spgrammatakis/sealDemo/core/params"
	"github.com/spgrammatakis/sealDemo/core/scale"
	"github.com/spgrammatakis/sealDemo/schemes/leveled"
	"github.com/spgrammatakis/sealDemo/utils"
)

// EncodingPrecision is the precision, in bits, of the encoder.
const EncodingPrecision = uint(53)

// KeySet is the key material of a [Backend].
type KeySet struct {
	Sk  *rlwe.SecretKey
	Pk  *rlwe.PublicKey
	Rlk *rlwe.RelinearizationKey
}

// GenKeySet generates a fresh key set with the lattigo key generator.
func GenKeySet(p params.Parameters) *KeySet {
	kgen := ckks.NewKeyGenerator(p.CKKS())
	sk, pk := kgen.GenKeyPairNew()
	return &KeySet{Sk: sk, Pk: pk, Rlk: kgen.GenRelinearizationKeyNew(sk)}
}

// Backend is a [leveled.Backend] encrypting with lattigo.
//
// Ciphertexts are wrapped as *rlwe.Ciphertext. Encoded plaintexts keep their
// values and are encoded at their level when they are used, so that a
// mod-switched plaintext is encoded directly over the remaining primes.
// Decrypted plaintexts are wrapped as *rlwe.Plaintext.
type Backend struct {
	params    params.Parameters
	keys      *KeySet
	encoder   *ckks.Encoder
	encryptor *rlwe.Encryptor
	decryptor *rlwe.Decryptor
	evaluator *ckks.Evaluator
	tol       float64
}

// NewBackend instantiates a new [Backend] from the parameters and the key set.
func NewBackend(p params.Parameters, keys *KeySet) *Backend {
	ckksParams := p.CKKS()
	return &Backend{
		params:    p,
		keys:      keys,
		encoder:   ckks.NewEncoder(ckksParams, EncodingPrecision),
		encryptor: ckks.NewEncryptor(ckksParams, keys.Pk),
		decryptor: ckks.NewDecryptor(ckksParams, keys.Sk),
		evaluator: ckks.NewEvaluator(ckksParams, rlwe.NewMemEvaluationKeySet(keys.Rlk)),
		tol:       leveled.DefaultScaleTolerance,
	}
}

// ShallowCopy creates a shallow copy of the backend, sharing the parameters
// and the keys but not the buffers, which can be used concurrently with the receiver.
func (b *Backend) ShallowCopy() leveled.Backend {
	return &Backend{
		params:    b.params,
		keys:      b.keys,
		encoder:   b.encoder.ShallowCopy(),
		encryptor: b.encryptor.ShallowCopy(),
		decryptor: b.decryptor.ShallowCopy(),
		evaluator: b.evaluator.ShallowCopy(),
		tol:       b.tol,
	}
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

// plaintext is the operand of an encoded plaintext.
type plaintext struct {
	values []float64
}

// Encode returns a plaintext at level 0 encoding values with the given scale.
func (b *Backend) Encode(values []float64, s scale.Scale) (*leveled.Value, error) {

	if err := leveled.CheckSlots(b.params, len(values)); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}

	if err := leveled.CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot Encode: %w", err)
	}

	return leveled.NewPlaintext(&plaintext{values: utils.Resize(values, b.params.MaxSlots())}, 0, b.params.MaxSlots(), s), nil
}

// Encrypt returns a fresh public-key encryption of pt.
func (b *Backend) Encrypt(pt *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckPlaintext(pt); err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	ptRLWE, err := b.materialize(pt)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	ct, err := b.encryptor.EncryptNew(ptRLWE)
	if err != nil {
		return nil, fmt.Errorf("cannot Encrypt: %w", err)
	}

	return leveled.NewCiphertext(ct, pt.Level(), 1, pt.Slots(), pt.Scale()), nil
}

// Decrypt returns the plaintext of ct.
func (b *Backend) Decrypt(ct *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(ct); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	ctRLWE, err := ciphertext(ct)
	if err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	pt := b.decryptor.DecryptNew(ctRLWE)

	return leveled.NewPlaintext(pt, ct.Level(), ct.Slots(), ct.Scale()), nil
}

// Decode returns the values of pt.
func (b *Backend) Decode(pt *leveled.Value) ([]float64, error) {

	if err := leveled.CheckPlaintext(pt); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	ptRLWE, err := b.materialize(pt)
	if err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	values := make([]float64, pt.Slots())
	if err = b.encoder.Decode(ptRLWE, values); err != nil {
		return nil, fmt.Errorf("cannot Decode: %w", err)
	}

	return values, nil
}

// Add returns a + c.
func (b *Backend) Add(a, c *leveled.Value) (*leveled.Value, error) {

	if err := b.checkAdd(a, c, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Add: %w", err)
	}

	op0, op1, err := ciphertexts(a, c)
	if err != nil {
		return nil, fmt.Errorf("cannot Add: %w", err)
	}

	ct, err := b.evaluator.AddNew(op0, op1)
	if err != nil {
		return nil, fmt.Errorf("cannot Add: %w", err)
	}

	return b.wrap(ct, a.Level(), a.Slots(), a.Scale()), nil
}

// AddPlain returns ct + pt.
func (b *Backend) AddPlain(ct, pt *leveled.Value) (*leveled.Value, error) {

	if err := b.checkAdd(ct, pt, leveled.CheckPlaintext); err != nil {
		return nil, fmt.Errorf("cannot AddPlain: %w", err)
	}

	op0, err := ciphertext(ct)
	if err != nil {
		return nil, fmt.Errorf("cannot AddPlain: %w", err)
	}

	op1, err := b.materialize(pt)
	if err != nil {
		return nil, fmt.Errorf("cannot AddPlain: %w", err)
	}

	res, err := b.evaluator.AddNew(op0, op1)
	if err != nil {
		return nil, fmt.Errorf("cannot AddPlain: %w", err)
	}

	return b.wrap(res, ct.Level(), ct.Slots(), ct.Scale()), nil
}

// Multiply returns the degree 2 product a * c.
func (b *Backend) Multiply(a, c *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(a, c, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Multiply: %w", err)
	}

	op0, op1, err := ciphertexts(a, c)
	if err != nil {
		return nil, fmt.Errorf("cannot Multiply: %w", err)
	}

	ct, err := b.evaluator.MulNew(op0, op1)
	if err != nil {
		return nil, fmt.Errorf("cannot Multiply: %w", err)
	}

	return b.wrap(ct, a.Level(), a.Slots(), a.Scale().Mul(c.Scale())), nil
}

// MultiplyPlain returns ct * pt.
func (b *Backend) MultiplyPlain(ct, pt *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(ct, pt, leveled.CheckPlaintext); err != nil {
		return nil, fmt.Errorf("cannot MultiplyPlain: %w", err)
	}

	op0, err := ciphertext(ct)
	if err != nil {
		return nil, fmt.Errorf("cannot MultiplyPlain: %w", err)
	}

	op1, err := b.materialize(pt)
	if err != nil {
		return nil, fmt.Errorf("cannot MultiplyPlain: %w", err)
	}

	res, err := b.evaluator.MulNew(op0, op1)
	if err != nil {
		return nil, fmt.Errorf("cannot MultiplyPlain: %w", err)
	}

	return b.wrap(res, ct.Level(), ct.Slots(), ct.Scale().Mul(pt.Scale())), nil
}

// Square returns the degree 2 product a * a.
func (b *Backend) Square(a *leveled.Value) (*leveled.Value, error) {

	if err := b.checkMultiply(a, a, leveled.CheckCiphertext); err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	op0, err := ciphertext(a)
	if err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	ct, err := b.evaluator.MulNew(op0, op0)
	if err != nil {
		return nil, fmt.Errorf("cannot Square: %w", err)
	}

	return b.wrap(ct, a.Level(), a.Slots(), a.Scale().Mul(a.Scale())), nil
}

// Relinearize returns the degree 1 ciphertext of a.
func (b *Backend) Relinearize(a *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	if err := leveled.CheckRelinearizable(a); err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	op0, err := ciphertext(a)
	if err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	ct, err := b.evaluator.RelinearizeNew(op0)
	if err != nil {
		return nil, fmt.Errorf("cannot Relinearize: %w", err)
	}

	return b.wrap(ct, a.Level(), a.Slots(), a.Scale()), nil
}

// Rescale divides a by the prime of its level.
func (b *Backend) Rescale(a *leveled.Value) (*leveled.Value, error) {

	if err := leveled.CheckCiphertext(a); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	if err := leveled.CheckRescalable(b.params, a); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	op0, err := ciphertext(a)
	if err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	ct := ckks.NewCiphertext(b.params.CKKS(), op0.Degree(), op0.Level())
	if err = b.evaluator.Rescale(op0, ct); err != nil {
		return nil, fmt.Errorf("cannot Rescale: %w", err)
	}

	return b.wrap(ct, a.Level()+1, a.Slots(), a.Scale().Div(b.params.Chain().Modulus(a.Level()).Scale())), nil
}

// ModSwitchTo drops a to the given level.
func (b *Backend) ModSwitchTo(a *leveled.Value, level int) (*leveled.Value, error) {

	if a == nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w: nil operand", leveled.ErrInvalidOperand)
	}

	if err := leveled.CheckModSwitch(b.params, a, level); err != nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w", err)
	}

	if !a.IsCiphertext() {
		pt, ok := a.Operand().(*plaintext)
		if !ok {
			return nil, fmt.Errorf("cannot ModSwitchTo: %w: decrypted plaintexts cannot be mod-switched", leveled.ErrInvalidOperand)
		}
		return leveled.NewPlaintext(pt, level, a.Slots(), a.Scale()), nil
	}

	op0, err := ciphertext(a)
	if err != nil {
		return nil, fmt.Errorf("cannot ModSwitchTo: %w", err)
	}

	return b.wrap(b.evaluator.DropLevelNew(op0, level-a.Level()), level, a.Slots(), a.Scale()), nil
}

// SetScale relabels the scale of a.
func (b *Backend) SetScale(a *leveled.Value, s scale.Scale) (*leveled.Value, error) {

	if a == nil {
		return nil, fmt.Errorf("cannot SetScale: %w: nil operand", leveled.ErrInvalidOperand)
	}

	if err := leveled.CheckScale(s); err != nil {
		return nil, fmt.Errorf("cannot SetScale: %w", err)
	}

	switch op := a.Operand().(type) {
	case *rlwe.Ciphertext:
		return b.wrap(op.CopyNew(), a.Level(), a.Slots(), s), nil
	case *plaintext:
		return leveled.NewPlaintext(op, a.Level(), a.Slots(), s), nil
	default:
		return nil, fmt.Errorf("cannot SetScale: %w: unsupported operand %T", leveled.ErrInvalidOperand, op)
	}
}

// wrap sets the lattigo scale of ct to s and wraps it, so that the scale
// seen by lattigo is always the one tracked by the scheduler.
func (b *Backend) wrap(ct *rlwe.Ciphertext, level, slots int, s scale.Scale) *leveled.Value {
	ct.Scale = rlwe.NewScale(&s.Value)
	return leveled.NewCiphertext(ct, level, ct.Degree(), slots, s)
}

// materialize returns the lattigo plaintext of pt, encoding its values at its level and scale.
func (b *Backend) materialize(pt *leveled.Value) (*rlwe.Plaintext, error) {

	switch op := pt.Operand().(type) {
	case *rlwe.Plaintext:
		return op, nil
	case *plaintext:
		ptRLWE := ckks.NewPlaintext(b.params.CKKS(), b.params.BackendLevel(pt.Level()))
		s := pt.Scale()
		ptRLWE.Scale = rlwe.NewScale(&s.Value)
		if err := b.encoder.Encode(op.values, ptRLWE); err != nil {
			return nil, err
		}
		return ptRLWE, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operand %T", leveled.ErrInvalidOperand, op)
	}
}

func ciphertext(ct *leveled.Value) (*rlwe.Ciphertext, error) {
	op, ok := ct.Operand().(*rlwe.Ciphertext)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported operand %T", leveled.ErrInvalidOperand, ct.Operand())
	}
	return op, nil
}

func ciphertexts(a, c *leveled.Value) (op0, op1 *rlwe.Ciphertext, err error) {
	if op0, err = ciphertext(a); err != nil {
		return
	}
	op1, err = ciphertext(c)
	return
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
