// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// evalX computes x[j] = exp(-G[j] + Aᵀ[j]·λ) for every complex j into dst,
// which must have length p.n. It reports an *OverflowError (tagged with the
// given attempt number) the instant any exponent argument exceeds maxLogX,
// without evaluating the remaining complexes.
func evalX(dst []float64, p *Problem, lambda []float64, attempt int) error {
	for j := 0; j < p.n; j++ {
		row := p.at.RawRowView(j)
		logx := -p.g[j] + floats.Dot(row, lambda)
		if math.IsNaN(logx) || logx > maxLogX {
			return &OverflowError{Complex: j, LogX: logx, Attempt: attempt}
		}
		dst[j] = math.Exp(logx)
	}
	return nil
}

// evalGradient computes g[i] = -x0[i] + Σⱼ A[i][j]·x[j] into dst, which must
// have length p.m.
func evalGradient(dst []float64, p *Problem, x []float64) {
	for i := 0; i < p.m; i++ {
		row := p.a.RawRowView(i)
		dst[i] = -p.x0[i] + floats.Dot(row, x)
	}
}

// evalHessian fills the upper triangle of h (m×m) with
// H[m'][n] = Σⱼ A[m'][j]·A[n][j]·x[j], then mirrors it to the lower
// triangle. h must already be sized p.m×p.m.
func evalHessian(h *mat.SymDense, p *Problem, x []float64) {
	ax := make([]float64, p.n)
	for mp := 0; mp < p.m; mp++ {
		rowMp := p.a.RawRowView(mp)
		for nn := mp; nn < p.m; nn++ {
			rowNn := p.a.RawRowView(nn)
			for j := 0; j < p.n; j++ {
				ax[j] = rowMp[j] * rowNn[j] * x[j]
			}
			h.SetSym(mp, nn, floats.Sum(ax))
		}
	}
}

// dualObjective computes h(λ) = -Σⱼ x[j] + λᵀx0. Only differences of this
// value are meaningful (inside ρ's reduction ratio).
func dualObjective(x, lambda, x0 []float64) float64 {
	return -floats.Sum(x) + floats.Dot(lambda, x0)
}

// freeEnergy computes the total Gibbs free energy in kcal per liter of
// solution from the converged mole fractions.
func freeEnergy(p *Problem, x []float64) float64 {
	var f float64
	for _, x0i := range p.x0 {
		f += x0i * (1 - math.Log(x0i))
	}
	for j, xj := range x {
		if xj > 0 {
			f += xj * (math.Log(xj) + p.g[j] - 1)
		}
	}
	return f * p.kt * p.waterMolarity
}
