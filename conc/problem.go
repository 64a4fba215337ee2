// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import "gonum.org/v1/gonum/mat"

// maxLogX is the safety cap on the exponent argument of the mole-fraction
// map. A logx above this value is treated as an unrecoverable overflow risk
// rather than evaluated.
const maxLogX = 1.0

// Problem holds the stoichiometry matrix, free energies, and target
// monomer mole fractions of one solve. A Problem is immutable once built by
// NewProblem; every field below is read-only to the solver.
type Problem struct {
	m, n int // m monomers (rows), n complexes (columns)

	a  *mat.Dense // m×n, A[i][j] = count of monomer i in complex j
	at *mat.Dense // n×m, precomputed transpose for cache-friendly column access

	g  []float64 // length n, free energies in units of kT
	x0 []float64 // length m, target monomer mole fractions, all > 0

	kt            float64 // kcal/mol
	waterMolarity float64 // moles of water per liter, used to scale free energy

	// inert[i] is the column index of monomer i's singleton complex if row i
	// of A sums to 1 (the monomer participates only in itself), or -1
	// otherwise. Computed once at construction time.
	inert []int
}

// NewProblem validates and builds a Problem from a non-negative integer
// stoichiometry matrix a (m×n), free energies g (length n), target monomer
// mole fractions x0 (length m, strictly positive), the thermal energy kT in
// kcal/mol, and the water molarity used to scale the free-energy output.
func NewProblem(a [][]int, g, x0 []float64, kt, waterMolarity float64) (*Problem, error) {
	m := len(a)
	if m == 0 {
		return nil, &ProblemError{Reason: "stoichiometry matrix has no rows"}
	}
	n := len(a[0])
	if n == 0 {
		return nil, &ProblemError{Reason: "stoichiometry matrix has no columns"}
	}
	if len(g) != n {
		return nil, &ProblemError{Reason: "len(G) does not match number of complexes"}
	}
	if len(x0) != m {
		return nil, &ProblemError{Reason: "len(x0) does not match number of monomers"}
	}
	if kt <= 0 {
		return nil, &ProblemError{Reason: "kT must be positive"}
	}
	if waterMolarity <= 0 {
		return nil, &ProblemError{Reason: "water molarity must be positive"}
	}

	aData := make([]float64, m*n)
	atData := make([]float64, n*m)
	inert := make([]int, m)
	for i := 0; i < m; i++ {
		if len(a[i]) != n {
			return nil, &ProblemError{Reason: "stoichiometry matrix is not rectangular"}
		}
		sum := 0
		witness := -1
		for j := 0; j < n; j++ {
			v := a[i][j]
			if v < 0 {
				return nil, &ProblemError{Reason: "stoichiometry matrix has a negative entry"}
			}
			aData[i*n+j] = float64(v)
			atData[j*m+i] = float64(v)
			sum += v
			if v != 0 {
				witness = j
			}
		}
		if sum == 1 {
			inert[i] = witness
		} else {
			inert[i] = -1
		}
	}
	for _, v := range x0 {
		if v <= 0 {
			return nil, &ProblemError{Reason: "x0 must be strictly positive in every entry"}
		}
	}

	gCopy := make([]float64, n)
	copy(gCopy, g)
	x0Copy := make([]float64, m)
	copy(x0Copy, x0)

	return &Problem{
		m:             m,
		n:             n,
		a:             mat.NewDense(m, n, aData),
		at:            mat.NewDense(n, m, atData),
		g:             gCopy,
		x0:            x0Copy,
		kt:            kt,
		waterMolarity: waterMolarity,
		inert:         inert,
	}, nil
}

// M returns the number of monomer species.
func (p *Problem) M() int { return p.m }

// N returns the number of cataloged complexes.
func (p *Problem) N() int { return p.n }

// IsInert reports whether monomer i appears only in its own singleton
// complex, and if so, the column index of that complex.
func (p *Problem) IsInert(i int) (j int, ok bool) {
	j = p.inert[i]
	return j, j >= 0
}
