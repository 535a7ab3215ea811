package enhance

import (
	"fmt"
	"math"
)

// PivotEpsilon is the smallest pivot magnitude accepted during elimination.
const PivotEpsilon = 1e-10

// Fundamental returns M = (I - Q)^-1 for a square transient matrix q.
func Fundamental(q [][]float64) ([][]float64, error) {
	n := len(q)
	a := make([][]float64, n)
	for i := range q {
		if len(q[i]) != n {
			return nil, fmt.Errorf("%w: transition matrix row %d has %d columns, want %d", ErrInvalidConfig, i, len(q[i]), n)
		}
		a[i] = make([]float64, n)
		for j, v := range q[i] {
			a[i][j] = -v
		}
		a[i][i] += 1
	}
	return invert(a)
}

// invert runs Gauss-Jordan elimination with partial pivoting on an augmented copy.
// A pivot below PivotEpsilon aborts with ErrDegenerateSystem instead of being skipped.
func invert(a [][]float64) ([][]float64, error) {
	n := len(a)
	aug := make([][]float64, n)
	for i := range a {
		row := make([]float64, 2*n)
		copy(row, a[i])
		row[n+i] = 1
		aug[i] = row
	}

	for col := 0; col < n; col++ {
		pivotRow := col
		for r := col + 1; r < n; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivotRow][col]) {
				pivotRow = r
			}
		}
		pivot := aug[pivotRow][col]
		if math.Abs(pivot) < PivotEpsilon || math.IsNaN(pivot) {
			return nil, fmt.Errorf("%w: pivot %.3g at column %d", ErrDegenerateSystem, pivot, col)
		}
		aug[col], aug[pivotRow] = aug[pivotRow], aug[col]

		for j := range aug[col] {
			aug[col][j] /= pivot
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			for j := range aug[r] {
				aug[r][j] -= factor * aug[col][j]
			}
		}
	}

	inv := make([][]float64, n)
	for i := range aug {
		inv[i] = aug[i][n:]
	}
	return inv, nil
}
