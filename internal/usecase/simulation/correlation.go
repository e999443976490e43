package simulation

import (
	"fmt"
	"math"
	"slices"

	"loanportfolio/internal/domain/apperr"
	"loanportfolio/internal/domain/modelsettings"
)

const psdTolerance = 1e-10

// Matrix is a dense row-major square matrix.
type Matrix [][]float64

func newMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// MulVec writes m·v into dst.
func (m Matrix) MulVec(dst, v []float64) {
	for i, row := range m {
		s := 0.0
		for j, x := range row {
			s += x * v[j]
		}
		dst[i] = s
	}
}

// Factors names the rows of the joint correlation matrix: sectors first,
// then property types, both sorted.
type Factors struct {
	Sectors       []string
	PropertyTypes []string
}

func (f Factors) Len() int { return len(f.Sectors) + len(f.PropertyTypes) }

func (f Factors) SectorIndex(code string) int {
	i, ok := slices.BinarySearch(f.Sectors, code)
	if !ok {
		return -1
	}
	return i
}

func (f Factors) PropertyIndex(pt string) int {
	i, ok := slices.BinarySearch(f.PropertyTypes, pt)
	if !ok {
		return -1
	}
	return len(f.Sectors) + i
}

// BuildCorrelation assembles the joint matrix over the sectors and property
// types present in a portfolio. Unspecified pairs are uncorrelated and
// property types are uncorrelated with each other. Entries given twice with
// different values, off-diagonal entries outside [-1, 1] and sector
// self-correlations other than 1 are rejected.
func BuildCorrelation(s *modelsettings.Settings, f Factors) (Matrix, error) {
	n := f.Len()
	m := newMatrix(n)
	set := make([][]bool, n)
	for i := range m {
		m[i][i] = 1
		set[i] = make([]bool, n)
	}

	put := func(i, j int, rho float64, what string) error {
		if i < 0 || j < 0 {
			return nil
		}
		if i == j {
			if rho != 1 {
				return fmt.Errorf("%w: %s self-correlation %v", apperr.ErrNonPositiveDefiniteCorrelation, what, rho)
			}
			return nil
		}
		if math.IsNaN(rho) || rho < -1 || rho > 1 {
			return fmt.Errorf("%w: %s correlation %v outside [-1, 1]", apperr.ErrNonPositiveDefiniteCorrelation, what, rho)
		}
		if set[i][j] && m[i][j] != rho {
			return fmt.Errorf("%w: %s correlation is asymmetric (%v vs %v)", apperr.ErrNonPositiveDefiniteCorrelation, what, m[i][j], rho)
		}
		m[i][j], m[j][i] = rho, rho
		set[i][j], set[j][i] = true, true
		return nil
	}

	for _, c := range s.SectorCorrelations {
		if err := put(f.SectorIndex(c.SectorA), f.SectorIndex(c.SectorB), c.Rho, c.SectorA+"/"+c.SectorB); err != nil {
			return nil, err
		}
	}
	for _, c := range s.CollateralLinks {
		if err := put(f.SectorIndex(c.SectorCode), f.PropertyIndex(c.PropertyType), c.Rho, c.SectorCode+"/"+c.PropertyType); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Cholesky returns the lower-triangular L with L·Lᵀ = a. Positive
// semi-definite input is accepted: pivots within tolerance of zero are
// treated as zero.
func Cholesky(a Matrix) (Matrix, error) {
	n := len(a)
	for i := range a {
		if len(a[i]) != n {
			return nil, fmt.Errorf("%w: matrix is not square", apperr.ErrNonPositiveDefiniteCorrelation)
		}
		for j := 0; j < i; j++ {
			if math.Abs(a[i][j]-a[j][i]) > psdTolerance {
				return nil, fmt.Errorf("%w: matrix is not symmetric at (%d,%d)", apperr.ErrNonPositiveDefiniteCorrelation, i, j)
			}
		}
	}

	l := newMatrix(n)
	for j := 0; j < n; j++ {
		d := a[j][j]
		for k := 0; k < j; k++ {
			d -= l[j][k] * l[j][k]
		}
		switch {
		case d < -psdTolerance:
			return nil, fmt.Errorf("%w: negative pivot %g at %d", apperr.ErrNonPositiveDefiniteCorrelation, d, j)
		case d <= psdTolerance:
			l[j][j] = 0
		default:
			l[j][j] = math.Sqrt(d)
		}

		for i := j + 1; i < n; i++ {
			s := a[i][j]
			for k := 0; k < j; k++ {
				s -= l[i][k] * l[j][k]
			}
			if l[j][j] == 0 {
				if math.Abs(s) > 1e-8 {
					return nil, fmt.Errorf("%w: singular pivot at %d", apperr.ErrNonPositiveDefiniteCorrelation, j)
				}
				continue
			}
			l[i][j] = s / l[j][j]
		}
	}
	return l, nil
}
