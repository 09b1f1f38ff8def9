// Package scale implements the arbitrary precision scaling factor carried by encoded values.
package scale

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/ALTree/bigfloat"
)

const (
	// Precision is the precision, in bits, with which scales are stored and multiplied.
	Precision = uint(128)
)

// Scale is a struct used to track the scaling factor of encoded values.
// The scale is managed as a 128-bit precision real: products and quotients
// are never truncated to integers, so that the scale obtained after a sequence
// of multiplications and rescales is the exact one.
type Scale struct {
	Value big.Float
}

// NewScale instantiates a new Scale.
// Accepted types are int, int64, uint64, float64, *big.Int, *big.Float and Scale.
// Panics if the input type is not an accepted type or if the value is negative.
func NewScale(s interface{}) Scale {
	return Scale{Value: *toBigFloat(s)}
}

// Exp2 returns the scale 2^{logScale}.
func Exp2(logScale int) Scale {
	s := new(big.Float).SetPrec(Precision)
	s.SetMantExp(big.NewFloat(1), logScale)
	return Scale{Value: *s}
}

// Float64 returns the underlying scale as a float64 value.
func (s Scale) Float64() float64 {
	f64, _ := s.Value.Float64()
	return f64
}

// Mul returns s * s1 in a new Scale.
func (s Scale) Mul(s1 Scale) Scale {
	res := new(big.Float).SetPrec(Precision)
	res.Mul(&s.Value, &s1.Value)
	return Scale{Value: *res}
}

// Div returns s / s1 in a new Scale.
func (s Scale) Div(s1 Scale) Scale {
	res := new(big.Float).SetPrec(Precision)
	res.Quo(&s.Value, &s1.Value)
	return Scale{Value: *res}
}

// Cmp compares the target scale with s1.
// Returns 0 if the scales are equal, 1 if
// the target scale is greater and -1 if
// the target scale is smaller.
func (s Scale) Cmp(s1 Scale) (cmp int) {
	return s.Value.Cmp(&s1.Value)
}

// Equal returns true if both scales are exactly equal.
func (s Scale) Equal(s1 Scale) bool {
	return s.Cmp(s1) == 0
}

// Max returns a new scale which is the maximum
// between the target scale and s1.
func (s Scale) Max(s1 Scale) Scale {
	if s.Cmp(s1) < 0 {
		return NewScale(s1)
	}
	return NewScale(s)
}

// Log2 returns log2(s). Scales beyond the float64 range are supported.
// Returns -Inf for a zero scale.
func (s Scale) Log2() float64 {

	if s.Value.Sign() == 0 {
		return math.Inf(-1)
	}

	x := new(big.Float).SetPrec(Precision).Set(&s.Value)
	ln2 := bigfloat.Log(new(big.Float).SetPrec(Precision).SetInt64(2))

	log2, _ := new(big.Float).Quo(bigfloat.Log(x), ln2).Float64()

	return log2
}

// RelativeDistance returns |s - s1| / max(s, s1).
// Returns 0 if both scales are zero.
func (s Scale) RelativeDistance(s1 Scale) float64 {

	max := s.Max(s1)

	if max.Value.Sign() == 0 {
		return 0
	}

	diff := new(big.Float).SetPrec(Precision).Sub(&s.Value, &s1.Value)
	diff.Abs(diff)

	dist, _ := diff.Quo(diff, &max.Value).Float64()

	return dist
}

// InDelta returns true if the relative distance between s and s1 is at most tol.
func (s Scale) InDelta(s1 Scale, tol float64) bool {
	return s.RelativeDistance(s1) <= tol
}

// String returns a compact representation of the scale: its log2.
func (s Scale) String() string {
	return fmt.Sprintf("2^%.4f", s.Log2())
}

// MarshalJSON encodes the scale as a decimal string.
func (s Scale) MarshalJSON() ([]byte, error) {
	text, err := s.Value.MarshalText()
	if err != nil {
		return nil, err
	}
	return []byte(`"` + string(text) + `"`), nil
}

// UnmarshalJSON decodes a scale encoded by MarshalJSON.
func (s *Scale) UnmarshalJSON(data []byte) (err error) {

	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("cannot UnmarshalJSON: scale must be a quoted decimal string")
	}

	v := new(big.Float).SetPrec(Precision)
	if err = v.UnmarshalText(data[1 : len(data)-1]); err != nil {
		return fmt.Errorf("cannot UnmarshalJSON: %w", err)
	}

	if v.Sign() < 0 {
		return fmt.Errorf("cannot UnmarshalJSON: scale cannot be negative")
	}

	s.Value = *v

	return
}

func toBigFloat(scale interface{}) (s *big.Float) {

	s = new(big.Float).SetPrec(Precision)

	switch scale := scale.(type) {
	case float64:
		if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
			panic(fmt.Errorf("scale must be a finite non-negative value, but is %f", scale))
		}
		return s.SetFloat64(scale)
	case *big.Float:
		if scale.Sign() < 0 {
			panic(fmt.Errorf("scale cannot be negative, but is %v", scale))
		}
		return s.Set(scale)
	case *big.Int:
		if scale.Sign() < 0 {
			panic(fmt.Errorf("scale cannot be negative, but is %v", scale))
		}
		return s.SetInt(scale)
	case int:
		return toBigFloat(float64(scale))
	case int64:
		return toBigFloat(float64(scale))
	case uint64:
		return s.SetUint64(scale)
	case Scale:
		return s.Set(&scale.Value)
	default:
		panic(fmt.Errorf("invalid scale.(type): must be int, int64, uint64, float64, *big.Int, *big.Float or Scale but is %s", reflect.TypeOf(scale)))
	}
}
