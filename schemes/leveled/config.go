package leveled

import (
	"io"
	"log/slog"
)

// DefaultMaxScaleDrift is the default bound on the relative drift that a forced
// scale normalization may hide: 2^{-10}.
const DefaultMaxScaleDrift = 1.0 / 1024

// Config configures an [Evaluator].
type Config struct {
	// ScaleTolerance is the relative distance under which two scales are treated
	// as equal by additions. Defaults to [DefaultScaleTolerance].
	ScaleTolerance float64

	// NormalizeScales enables the forced normalization of the operands of an
	// addition whose scales differ by at most MaxScaleDrift: their scales are
	// relabeled to a common value, which multiplies the decoded messages by the
	// ratio between the actual and the declared scale.
	NormalizeScales bool

	// MaxScaleDrift bounds the relative drift accepted by a forced normalization.
	// Defaults to [DefaultMaxScaleDrift].
	MaxScaleDrift float64

	// Logger receives a warning for each forced normalization and a debug record
	// for each other scheduled step. Defaults to a logger discarding everything.
	Logger *slog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.ScaleTolerance <= 0 {
		cfg.ScaleTolerance = DefaultScaleTolerance
	}
	if cfg.MaxScaleDrift <= 0 {
		cfg.MaxScaleDrift = DefaultMaxScaleDrift
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}
