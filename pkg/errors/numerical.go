package errors

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// maxReportedValues caps how many offending values an instability error carries.
const maxReportedValues = 10

// CheckMatrix checks all values in a matrix for NaN or Inf and returns a
// NumericalInstabilityError located at the first offending cell.
func CheckMatrix(operation string, m mat.Matrix) error {
	rows, cols := m.Dims()
	firstRow, firstCol := -1, -1
	var unstableValues []float64

	for i := 0; i < rows && len(unstableValues) < maxReportedValues; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				continue
			}
			if firstRow < 0 {
				firstRow, firstCol = i, j
			}
			unstableValues = append(unstableValues, v)
			if len(unstableValues) >= maxReportedValues {
				break
			}
		}
	}

	if len(unstableValues) > 0 {
		return NewNumericalInstabilityError(operation, unstableValues, firstRow, firstCol)
	}
	return nil
}
