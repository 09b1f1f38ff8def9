package leveled

import (
	"fmt"

	"github.com/spgrammatakis/sealDemo/core/scale"
)

// Kind distinguishes encrypted from encoded values.
type Kind int

const (
	Ciphertext = Kind(0)
	Plaintext  = Kind(1)
)

func (k Kind) String() string {
	switch k {
	case Ciphertext:
		return "Ciphertext"
	case Plaintext:
		return "Plaintext"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is an encoded or encrypted vector of real values together with the
// metadata the scheduler reasons about: its level in the chain, its scale
// and, for ciphertexts, its degree.
//
// Values are immutable: every operation returns a new Value and never
// modifies its inputs, so that a Value can be shared between goroutines.
// The operand is owned by the [Backend] that created the Value.
type Value struct {
	kind    Kind
	level   int
	degree  int
	slots   int
	scale   scale.Scale
	operand interface{}
}

// NewCiphertext wraps a backend ciphertext.
func NewCiphertext(operand interface{}, level, degree, slots int, s scale.Scale) *Value {
	return &Value{kind: Ciphertext, operand: operand, level: level, degree: degree, slots: slots, scale: scale.NewScale(s)}
}

// NewPlaintext wraps a backend plaintext. Plaintexts have degree 0.
func NewPlaintext(operand interface{}, level, slots int, s scale.Scale) *Value {
	return &Value{kind: Plaintext, operand: operand, level: level, slots: slots, scale: scale.NewScale(s)}
}

// Kind returns the kind of the value.
func (v *Value) Kind() Kind {
	return v.kind
}

// IsCiphertext returns true if the value is encrypted.
func (v *Value) IsCiphertext() bool {
	return v.kind == Ciphertext
}

// Level returns the level of the value, 0 being the top of the chain.
func (v *Value) Level() int {
	return v.level
}

// Degree returns the degree of a ciphertext (1, or 2 before relinearization), 0 for a plaintext.
func (v *Value) Degree() int {
	return v.degree
}

// Slots returns the number of slots of the value.
func (v *Value) Slots() int {
	return v.slots
}

// Scale returns a copy of the scale of the value.
func (v *Value) Scale() scale.Scale {
	return scale.NewScale(v.scale)
}

// LogScale returns log2 of the scale of the value.
func (v *Value) LogScale() float64 {
	return v.scale.Log2()
}

// Operand returns the backend object wrapped by the value.
func (v *Value) Operand() interface{} {
	return v.operand
}

// String returns a short description, e.g. "Ciphertext@1/2^40.0000/1".
func (v *Value) String() string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s@%d/%s/%d", v.kind, v.level, v.scale, v.degree)
}
