package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/mleprep/core/model"
	"github.com/YuminosukeSato/mleprep/pkg/errors"
)

// Imputation strategies, named as in scikit-learn's SimpleImputer.
const (
	StrategyMean         = "mean"
	StrategyMedian       = "median"
	StrategyMostFrequent = "most_frequent"
	StrategyConstant     = "constant"
)

// SimpleImputer fills missing numeric values (NaN) column by column with a
// statistic learned from the fitting data.
type SimpleImputer struct {
	State *model.StateManager

	// Strategy is one of "mean", "median", "most_frequent" or "constant".
	Strategy string

	// FillValue is used by the "constant" strategy.
	FillValue float64

	// Statistics holds the learned fill value per column.
	Statistics []float64
}

// NewSimpleImputer creates an imputer for the given strategy.
func NewSimpleImputer(strategy string) *SimpleImputer {
	return &SimpleImputer{
		State:    model.NewStateManager(),
		Strategy: strategy,
	}
}

// IsFitted reports whether Fit has completed.
func (s *SimpleImputer) IsFitted() bool {
	return s.State != nil && s.State.IsFitted()
}

// Fit learns one fill value per column. Missing values are ignored when
// computing the statistic; a column with no observed value is an error.
func (s *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}
	switch s.Strategy {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("strategy",
			"must be one of mean, median, most_frequent, constant", s.Strategy)
	}
	if s.State == nil {
		s.State = model.NewStateManager()
	}

	stats := make([]float64, c)
	observed := make([]float64, 0, r)
	for j := 0; j < c; j++ {
		if s.Strategy == StrategyConstant {
			stats[j] = s.FillValue
			continue
		}

		observed = observed[:0]
		for i := 0; i < r; i++ {
			if v := X.At(i, j); !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NewValueError("SimpleImputer.Fit",
				fmt.Sprintf("column %d has no observed values for strategy %q", j, s.Strategy))
		}

		switch s.Strategy {
		case StrategyMean:
			stats[j] = mean(observed)
		case StrategyMedian:
			stats[j] = median(observed)
		case StrategyMostFrequent:
			stats[j] = mostFrequentFloat(observed)
		}
	}

	s.Statistics = stats
	s.State.SetDimensions(c, r)
	s.State.SetFitted()
	return nil
}

// Transform replaces every NaN with the fitted statistic of its column.
func (s *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}
	r, c := X.Dims()
	if c != len(s.Statistics) {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", len(s.Statistics), c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = s.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}
	return result, nil
}

// FitTransform fits on X and imputes X.
func (s *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// FeatureNamesOut returns the input names unchanged.
func (s *SimpleImputer) FeatureNamesOut(input []string) []string {
	return append([]string(nil), input...)
}

// GetParams returns the imputer's hyperparameters.
func (s *SimpleImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":   s.Strategy,
		"fill_value": s.FillValue,
	}
}

func (s *SimpleImputer) String() string {
	return fmt.Sprintf("SimpleImputer(strategy=%s)", s.Strategy)
}

// CategoricalImputer fills missing string values column by column. A cell
// equal to MissingValue (the empty string by default) counts as missing.
type CategoricalImputer struct {
	State *model.StateManager

	// Strategy is "most_frequent" or "constant".
	Strategy string

	// MissingValue marks a missing cell.
	MissingValue string

	// FillValue is used by the "constant" strategy.
	FillValue string

	// Statistics holds the learned fill value per column.
	Statistics []string
}

// NewCategoricalImputer creates a string imputer for the given strategy.
func NewCategoricalImputer(strategy string) *CategoricalImputer {
	return &CategoricalImputer{
		State:    model.NewStateManager(),
		Strategy: strategy,
	}
}

// IsFitted reports whether Fit has completed.
func (c *CategoricalImputer) IsFitted() bool {
	return c.State != nil && c.State.IsFitted()
}

// Fit learns the fill value of each column of the row-major table X.
// Ties of the most frequent value resolve to the lexicographically smallest.
func (c *CategoricalImputer) Fit(X [][]string) error {
	rows, cols, err := stringDims("CategoricalImputer.Fit", X)
	if err != nil {
		return err
	}
	switch c.Strategy {
	case StrategyMostFrequent, StrategyConstant:
	default:
		return errors.NewValidationError("strategy",
			"must be one of most_frequent, constant", c.Strategy)
	}
	if c.State == nil {
		c.State = model.NewStateManager()
	}

	stats := make([]string, cols)
	for j := 0; j < cols; j++ {
		if c.Strategy == StrategyConstant {
			stats[j] = c.FillValue
			continue
		}

		counts := make(map[string]int)
		for i := 0; i < rows; i++ {
			if v := X[i][j]; v != c.MissingValue {
				counts[v]++
			}
		}
		if len(counts) == 0 {
			return errors.NewValueError("CategoricalImputer.Fit",
				fmt.Sprintf("column %d has no observed values for strategy %q", j, c.Strategy))
		}
		stats[j] = mostFrequentString(counts)
	}

	c.Statistics = stats
	c.State.SetDimensions(cols, rows)
	c.State.SetFitted()
	return nil
}

// Transform returns a copy of X with missing cells replaced.
func (c *CategoricalImputer) Transform(X [][]string) ([][]string, error) {
	if !c.IsFitted() {
		return nil, errors.NewNotFittedError("CategoricalImputer", "Transform")
	}
	rows, cols, err := stringDims("CategoricalImputer.Transform", X)
	if err != nil {
		return nil, err
	}
	if cols != len(c.Statistics) {
		return nil, errors.NewDimensionError("CategoricalImputer.Transform", len(c.Statistics), cols, 1)
	}

	out := make([][]string, rows)
	for i := 0; i < rows; i++ {
		row := make([]string, cols)
		for j := 0; j < cols; j++ {
			row[j] = X[i][j]
			if row[j] == c.MissingValue {
				row[j] = c.Statistics[j]
			}
		}
		out[i] = row
	}
	return out, nil
}

// FitTransform fits on X and imputes X.
func (c *CategoricalImputer) FitTransform(X [][]string) ([][]string, error) {
	if err := c.Fit(X); err != nil {
		return nil, err
	}
	return c.Transform(X)
}

// GetParams returns the imputer's hyperparameters.
func (c *CategoricalImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":      c.Strategy,
		"missing_value": c.MissingValue,
		"fill_value":    c.FillValue,
	}
}

func (c *CategoricalImputer) String() string {
	return fmt.Sprintf("CategoricalImputer(strategy=%s)", c.Strategy)
}

// stringDims validates that X is a non-empty rectangular table.
func stringDims(op string, X [][]string) (rows, cols int, err error) {
	rows = len(X)
	if rows == 0 || len(X[0]) == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	cols = len(X[0])
	for i, row := range X {
		if len(row) != cols {
			return 0, 0, errors.NewValueError(op, fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), cols))
		}
	}
	return rows, cols, nil
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median averages the two middle values for an even count.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mostFrequentFloat resolves ties to the smallest value.
func mostFrequentFloat(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0.0, 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

func mostFrequentString(counts map[string]int) string {
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}
