// Package params implements the parameters of the leveled CKKS scheme: the ring degree,
// the modulus chain consumed by rescaling and the nominal scale of fresh encodings.
package params

import (
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"

	"github.com/spgrammatakis/sealDemo/core/scale"
)

// ParametersLiteral is a literal representation of the parameters. It has public
// fields and is used to express unchecked user-defined parameters literally into
// Go programs or JSON configuration files. The [NewParametersFromLiteral] function
// is used to generate the actual checked parameters from the literal representation.
//
// LogQ lists the bit-sizes of the ciphertext primes, the first one being the base
// prime that is never consumed. Each following prime adds one level. LogP lists the
// bit-sizes of the key-switching primes, which do not contribute to the chain.
type ParametersLiteral struct {
	LogN            int
	LogQ            []int
	LogP            []int `json:",omitempty"`
	LogDefaultScale int
}

// Parameters represents a checked parameter set. Its fields are private and immutable,
// so that a single instance can be shared by any number of evaluators.
type Parameters struct {
	ckks     ckks.Parameters
	chain    Chain
	parmsIDs []ParmsID
}

// NewParametersFromLiteral instantiates a set of [Parameters] from a [ParametersLiteral] specification.
// It returns the empty parameters [Parameters]{} and a non-nil error if the specified parameters are invalid.
func NewParametersFromLiteral(pl ParametersLiteral) (p Parameters, err error) {

	if len(pl.LogQ) == 0 {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: LogQ is empty")
	}

	if pl.LogDefaultScale <= 0 || pl.LogDefaultScale > 64 {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: LogDefaultScale=%d must be in [1, 64]", pl.LogDefaultScale)
	}

	if pl.LogDefaultScale >= pl.LogQ[0] {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: LogDefaultScale=%d leaves no room for the message in the base modulus LogQ[0]=%d", pl.LogDefaultScale, pl.LogQ[0])
	}

	if p.ckks, err = ckks.NewParametersFromLiteral(ckks.ParametersLiteral{
		LogN:            pl.LogN,
		LogQ:            pl.LogQ,
		LogP:            pl.LogP,
		LogDefaultScale: pl.LogDefaultScale,
	}); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: %w", err)
	}

	if p.ckks.LevelsConsumedPerRescaling() != 1 {
		return Parameters{}, fmt.Errorf("cannot NewParametersFromLiteral: a rescale must consume exactly one prime")
	}

	p.chain = newChain(p.ckks.Q())

	p.parmsIDs = make([]ParmsID, p.MaxLevel()+1)
	for level := range p.parmsIDs {
		p.parmsIDs[level] = newParmsID(p.LogN(), p.chain.Remaining(level))
	}

	return
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {

	pl := ParametersLiteral{
		LogN:            p.LogN(),
		LogQ:            make([]int, len(p.chain)),
		LogDefaultScale: p.ckks.LogDefaultScale(),
	}

	// LogQ is given in prime order, i.e. reversed consumption order.
	for i, m := range p.chain {
		pl.LogQ[len(p.chain)-1-i] = m.LogQ
	}

	if logP := p.ckks.LogPi(); len(logP) != 0 {
		pl.LogP = logP
	}

	return pl
}

// CKKS returns the underlying lattigo parameters.
func (p Parameters) CKKS() ckks.Parameters {
	return p.ckks
}

// LogN returns the log2 of the ring degree.
func (p Parameters) LogN() int {
	return p.ckks.LogN()
}

// MaxSlots returns the number of real slots of a plaintext.
func (p Parameters) MaxSlots() int {
	return p.ckks.MaxSlots()
}

// MaxLevel returns the deepest level of the chain. A value at
// MaxLevel cannot be rescaled anymore.
func (p Parameters) MaxLevel() int {
	return len(p.chain) - 1
}

// Chain returns the modulus chain in consumption order.
func (p Parameters) Chain() Chain {
	return p.chain
}

// LevelBudget returns the number of rescales a value at the given level can still undergo.
func (p Parameters) LevelBudget(level int) int {
	return p.MaxLevel() - level
}

// BackendLevel converts a level of the chain, counted from the top, into the
// level index of lattigo, counted from the base prime.
func (p Parameters) BackendLevel(level int) int {
	return p.MaxLevel() - level
}

// ParmsID returns the fingerprint of the chain position at the given level.
// Panics if the level is not in [0, MaxLevel].
func (p Parameters) ParmsID(level int) ParmsID {
	return p.parmsIDs[level]
}

// LogDefaultScale returns the log2 of the nominal scale.
func (p Parameters) LogDefaultScale() int {
	return p.ckks.LogDefaultScale()
}

// NominalScale returns the scale of fresh encodings, 2^{LogDefaultScale}.
func (p Parameters) NominalScale() scale.Scale {
	return scale.Exp2(p.LogDefaultScale())
}

// Equal compares two sets of parameters for equality.
func (p Parameters) Equal(other *Parameters) bool {
	return cmp.Equal(p.ParametersLiteral(), other.ParametersLiteral()) && cmp.Equal(p.chain, other.chain)
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var pl ParametersLiteral
	if err = json.Unmarshal(data, &pl); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(pl)
	return
}
