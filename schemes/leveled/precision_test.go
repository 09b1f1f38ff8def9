package leveled

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPrecisionStats(t *testing.T) {

	want := []float64{1, 2, 3, 4}
	have := []float64{1 + math.Exp2(-10), 2 - math.Exp2(-20), 3 + math.Exp2(-30), 4}

	prec, err := GetPrecisionStats(want, have)
	require.NoError(t, err)

	require.InDelta(t, 10, prec.MINLog2Prec, 1e-6)
	require.InDelta(t, MaxLog2Prec, prec.MAXLog2Prec, 1e-6)
	require.InDelta(t, math.Exp2(-10), prec.MaxAbsErr, 1e-12)
	require.Greater(t, prec.STDLog2Prec, 0.0)
	require.Contains(t, prec.String(), "MIN Prec")

	_, err = GetPrecisionStats(want, have[:2])
	require.Error(t, err)

	_, err = GetPrecisionStats(nil, nil)
	require.Error(t, err)
}
