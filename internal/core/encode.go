package core

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"price_service/internal/domain/model"
)

// CategoryEncoding maps categorical values to small integer codes. The
// mapping is derived from the values observed in a single training run
// and is not shared across runs.
type CategoryEncoding map[string]int

// NewCategoryEncoding assigns each distinct observed value a code,
// 0..n-1, in lexicographic order. The same set of values always yields
// the same mapping.
func NewCategoryEncoding(values []string) CategoryEncoding {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	distinct := make([]string, 0, len(seen))
	for v := range seen {
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)

	enc := make(CategoryEncoding, len(distinct))
	for i, v := range distinct {
		enc[v] = i
	}
	return enc
}

// Code returns the code for a value observed when the encoding was
// built. Values outside that set fail with ErrUnknownCategory.
func (e CategoryEncoding) Code(value string) (float64, error) {
	code, ok := e[value]
	if !ok {
		return 0, fmt.Errorf("%w: %q", model.ErrUnknownCategory, value)
	}
	return float64(code), nil
}

// Encode maps a column of categorical values to their codes. The input
// slice is left untouched.
func (e CategoryEncoding) Encode(values []string) ([]float64, error) {
	codes := make([]float64, len(values))
	for i, v := range values {
		code, err := e.Code(v)
		if err != nil {
			return nil, err
		}
		codes[i] = code
	}
	return codes, nil
}

// Normalize centres and scales a numeric column to zero mean and unit
// variance using the column's own statistics, computed here and
// discarded. A zero-variance column fails with ErrDegenerateFeature
// rather than producing NaN. The input slice is left untouched.
func Normalize(values []float64) ([]float64, error) {
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return nil, fmt.Errorf("%w: standard deviation is zero", model.ErrDegenerateFeature)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out, nil
}
