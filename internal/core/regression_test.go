package core_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"price_service/internal/core"
)

func TestFitElasticNet_RecoversLinearRelation(t *testing.T) {
	// y = 3*x with a weak penalty: the fit should land close to 3.
	n := 100
	data := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = float64(i) / 10
		y[i] = 3 * data[i]
	}
	x := mat.NewDense(n, 1, data)

	cfg := core.RegressionConfig{Alpha: 0.01, L1Weight: 0.2, MaxIter: 1000, Tolerance: 1e-8}
	trained, err := core.FitElasticNet(x, y, []string{"x"}, cfg)
	require.NoError(t, err)

	require.Len(t, trained.Coefficients, 1)
	assert.InDelta(t, 3, trained.Coefficients[0], 0.05)
}

// A stronger penalty shrinks coefficients toward zero.
func TestFitElasticNet_PenaltyShrinks(t *testing.T) {
	n := 100
	data := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = float64(i) / 10
		y[i] = 3 * data[i]
	}
	x := mat.NewDense(n, 1, data)

	weak, err := core.FitElasticNet(x, y, []string{"x"},
		core.RegressionConfig{Alpha: 0.01, L1Weight: 0.2, MaxIter: 1000, Tolerance: 1e-8})
	require.NoError(t, err)
	strong, err := core.FitElasticNet(x, y, []string{"x"},
		core.RegressionConfig{Alpha: 50, L1Weight: 0.2, MaxIter: 1000, Tolerance: 1e-8})
	require.NoError(t, err)

	assert.Less(t, math.Abs(strong.Coefficients[0]), math.Abs(weak.Coefficients[0]))
	assert.Greater(t, math.Abs(strong.Coefficients[0]), 0.0)
}

func TestFitElasticNet_EmptyDesignMatrix(t *testing.T) {
	_, err := core.FitElasticNet(&mat.Dense{}, nil, nil, core.DefaultRegressionConfig())
	require.Error(t, err)
}

func TestTrainedModel_Predict(t *testing.T) {
	trained := &core.TrainedModel{
		Columns:      []string{"a", "b"},
		Coefficients: []float64{2, -1},
	}

	assert.InDelta(t, 2*3-1*4, trained.Predict([]float64{3, 4}), 1e-12)
}

func TestTrainedModel_MeanAbsoluteError(t *testing.T) {
	trained := &core.TrainedModel{Columns: []string{"x"}, Coefficients: []float64{2}}
	x := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := []float64{2, 5, 5}

	// Predictions are 2, 4, 6; absolute errors 0, 1, 1.
	assert.InDelta(t, 2.0/3, trained.MeanAbsoluteError(x, y), 1e-12)
}

// A fit on irrelevant noise columns keeps a zero coefficient under the
// L1 part of the penalty instead of producing NaN.
func TestFitElasticNet_ZeroColumn(t *testing.T) {
	n := 50
	data := make([]float64, n*2)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i*2] = float64(i)
		data[i*2+1] = 0 // constant zero column
		y[i] = 2 * float64(i)
	}
	x := mat.NewDense(n, 2, data)

	trained, err := core.FitElasticNet(x, y, []string{"x", "zero"}, core.DefaultRegressionConfig())
	require.NoError(t, err)

	assert.False(t, math.IsNaN(trained.Coefficients[0]))
	assert.False(t, math.IsNaN(trained.Coefficients[1]))
	assert.InDelta(t, 0, trained.Coefficients[1], 1e-9)
}
