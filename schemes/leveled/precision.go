package leveled

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// MaxLog2Prec caps the precision of an exact slot to the float64 mantissa size.
const MaxLog2Prec = 53

// PrecisionStats is a struct storing statistics about the precision of decoded values,
// where the precision of a slot is -log2 of its absolute error.
type PrecisionStats struct {
	MINLog2Prec float64
	MAXLog2Prec float64
	AVGLog2Prec float64
	MEDLog2Prec float64
	STDLog2Prec float64

	MaxAbsErr float64
	AvgAbsErr float64
}

func (prec PrecisionStats) String() string {
	return fmt.Sprintf(`
┌─────────┬───────┐
│    Log2 │ REAL  │
├─────────┼───────┤
│MIN Prec │ %5.2f │
│MAX Prec │ %5.2f │
│AVG Prec │ %5.2f │
│MED Prec │ %5.2f │
│STD Prec │ %5.2f │
├─────────┼───────┤
│MAX Err  │ %5.2f │
│AVG Err  │ %5.2f │
└─────────┴───────┘
`,
		prec.MINLog2Prec,
		prec.MAXLog2Prec,
		prec.AVGLog2Prec,
		prec.MEDLog2Prec,
		prec.STDLog2Prec,
		math.Log2(prec.MaxAbsErr),
		math.Log2(prec.AvgAbsErr))
}

// GetPrecisionStats returns the [PrecisionStats] of have with respect to want.
func GetPrecisionStats(want, have []float64) (prec PrecisionStats, err error) {

	if len(want) != len(have) {
		return prec, fmt.Errorf("cannot GetPrecisionStats: len(want)=%d != len(have)=%d", len(want), len(have))
	}

	log2Prec := make(stats.Float64Data, len(want))
	absErr := make(stats.Float64Data, len(want))

	for i := range want {
		absErr[i] = math.Abs(want[i] - have[i])
		log2Prec[i] = math.Min(-math.Log2(absErr[i]), MaxLog2Prec)
	}

	if prec.MINLog2Prec, err = log2Prec.Min(); err != nil {
		return prec, fmt.Errorf("cannot GetPrecisionStats: %w", err)
	}

	// The remaining statistics cannot fail on a non-empty input.
	prec.MAXLog2Prec, _ = log2Prec.Max()
	prec.AVGLog2Prec, _ = log2Prec.Mean()
	prec.MEDLog2Prec, _ = log2Prec.Median()
	prec.STDLog2Prec, _ = log2Prec.StandardDeviation()
	prec.MaxAbsErr, _ = absErr.Max()
	prec.AvgAbsErr, _ = absErr.Mean()

	return
}
