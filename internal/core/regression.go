package core

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// RegressionConfig fixes the elastic-net penalty: Alpha is the overall
// strength, L1Weight the share of the absolute-value term.
type RegressionConfig struct {
	Alpha     float64
	L1Weight  float64
	MaxIter   int
	Tolerance float64
}

func DefaultRegressionConfig() RegressionConfig {
	return RegressionConfig{
		Alpha:     2,
		L1Weight:  0.2,
		MaxIter:   1000,
		Tolerance: 1e-6,
	}
}

// TrainedModel holds the coefficients fitted in one pipeline run. It is
// owned by that run and never persisted.
type TrainedModel struct {
	Columns      []string
	Coefficients []float64
}

var errEmptyDesignMatrix = errors.New("empty design matrix")

// FitElasticNet fits a least-squares model with a mixed L1/L2 penalty
// by cyclic coordinate descent. No intercept term is added; callers
// wanting one must include a constant column.
func FitElasticNet(x *mat.Dense, y []float64, columns []string, cfg RegressionConfig) (*TrainedModel, error) {
	n, p := x.Dims()
	if n == 0 || p == 0 || len(y) != n {
		return nil, errEmptyDesignMatrix
	}

	cols := make([][]float64, p)
	colNormSq := make([]float64, p)
	for j := 0; j < p; j++ {
		cols[j] = mat.Col(nil, j, x)
		for _, v := range cols[j] {
			colNormSq[j] += v * v
		}
		colNormSq[j] /= float64(n)
	}

	beta := make([]float64, p)
	resid := make([]float64, n)
	copy(resid, y)

	l1 := cfg.Alpha * cfg.L1Weight
	l2 := cfg.Alpha * (1 - cfg.L1Weight)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		var maxChange float64
		for j := 0; j < p; j++ {
			if colNormSq[j]+l2 == 0 {
				continue // all-zero column under a pure L1 penalty
			}
			var rho float64
			for i, v := range cols[j] {
				rho += v * resid[i]
			}
			rho = rho/float64(n) + colNormSq[j]*beta[j]

			updated := softThreshold(rho, l1) / (colNormSq[j] + l2)
			if delta := updated - beta[j]; delta != 0 {
				for i, v := range cols[j] {
					resid[i] -= v * delta
				}
				maxChange = math.Max(maxChange, math.Abs(delta))
				beta[j] = updated
			}
		}
		if maxChange < cfg.Tolerance {
			break
		}
	}

	return &TrainedModel{Columns: columns, Coefficients: beta}, nil
}

func softThreshold(z, gamma float64) float64 {
	switch {
	case z > gamma:
		return z - gamma
	case z < -gamma:
		return z + gamma
	default:
		return 0
	}
}

// Predict returns the model's point estimate for one feature vector.
func (m *TrainedModel) Predict(features []float64) float64 {
	b := mat.NewVecDense(len(m.Coefficients), m.Coefficients)
	f := mat.NewVecDense(len(features), features)
	return mat.Dot(b, f)
}

// MeanAbsoluteError scores the model against a validation partition.
func (m *TrainedModel) MeanAbsoluteError(x *mat.Dense, y []float64) float64 {
	n, _ := x.Dims()
	var total float64
	for i := 0; i < n; i++ {
		total += math.Abs(y[i] - m.Predict(mat.Row(nil, i, x)))
	}
	return total / float64(n)
}
