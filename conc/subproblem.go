// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// dogleg computes the trust-region step for the quadratic model with
// gradient g and (in-exact-arithmetic positive definite) Hessian h, subject
// to ‖p‖ <= delta. It never mutates g or h.
func dogleg(g []float64, h *mat.SymDense, delta float64) (p []float64, tag stepTag) {
	n := len(g)
	delta2 := delta * delta

	negG := make([]float64, n)
	floats.ScaleTo(negG, -1, g)

	var pB []float64
	var chol mat.Cholesky
	cholOK := chol.Factorize(h)
	if cholOK {
		var sol mat.VecDense
		if err := chol.SolveVecTo(&sol, mat.NewVecDense(n, negG)); err == nil {
			pB = make([]float64, n)
			for i := 0; i < n; i++ {
				pB[i] = sol.AtVec(i)
			}
		} else {
			cholOK = false
		}
	}

	if cholOK && floats.Dot(pB, pB) <= delta2 {
		return pB, tagNewton
	}

	// Cauchy direction: p_U = -(gᵀg)/(gᵀHg) · g.
	hg := make([]float64, n)
	hVec := mat.NewVecDense(n, nil)
	hVec.MulVec(h, mat.NewVecDense(n, g))
	for i := 0; i < n; i++ {
		hg[i] = hVec.AtVec(i)
	}
	gtg := floats.Dot(g, g)
	gthg := floats.Dot(g, hg)
	pU := make([]float64, n)
	if gthg != 0 {
		coeff := -gtg / gthg
		for i := range pU {
			pU[i] = coeff * g[i]
		}
	} else {
		copy(pU, negG)
	}

	pUNormSq := floats.Dot(pU, pU)
	if pUNormSq >= delta2 {
		scale := delta / math.Sqrt(pUNormSq)
		step := make([]float64, n)
		for i := range step {
			step[i] = scale * pU[i]
		}
		if cholOK {
			return step, tagCauchy
		}
		return step, tagCholFailCauchy
	}

	if !cholOK {
		return pU, tagCholFailTookCauchy
	}

	// Dogleg: find α ∈ [0,1] with ‖p_U + α(p_B - p_U)‖² = δ².
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = pB[i] - pU[i]
	}
	pUdotDiff := floats.Dot(pU, diff)
	a := floats.Dot(diff, diff)
	b := 2 * pUdotDiff
	c := pUNormSq - delta2

	alpha, ok := doglegRoot(a, b, c)
	if !ok {
		return pU, tagDoglegFail
	}
	step := make([]float64, n)
	for i := range step {
		step[i] = pU[i] + alpha*diff[i]
	}
	return step, tagDogleg
}

// doglegRoot solves a·α² + b·α + c = 0 for the root in [0,1] using the
// numerically stable form q = -1/2 (b + sgn(b)√(b²-4ac)), trying α = c/q
// before α = q/a to avoid cancellation error.
func doglegRoot(a, b, c float64) (alpha float64, ok bool) {
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	sign := 1.0
	if b < 0 {
		sign = -1.0
	}
	q := -0.5 * (b + sign*sq)

	inRange := func(x float64) bool { return x >= 0 && x <= 1 }

	if q != 0 {
		if x2 := c / q; inRange(x2) {
			return x2, true
		}
	}
	if a != 0 {
		if x1 := q / a; inRange(x1) {
			return x1, true
		}
	}
	return 0, false
}
