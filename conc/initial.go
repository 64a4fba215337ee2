// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import "math"

// freshLambda chooses the largest scalar Λ such that for every complex j,
// (Σᵢ Aᵀ[j][i])·Λ - G[j] <= maxLogX, then fills every entry of λ with it.
// This is the "fresh start" initial-guess mode.
func freshLambda(p *Problem) float64 {
	lam := math.Inf(1)
	for j := 0; j < p.n; j++ {
		row := p.at.RawRowView(j)
		var count float64
		for _, v := range row {
			count += v
		}
		if count == 0 {
			continue
		}
		bound := (maxLogX + p.g[j]) / count
		if bound < lam {
			lam = bound
		}
	}
	return lam
}

// applyInertCorrection overwrites λ[i] <- log(x0[i]) + G[j*] for every
// monomer i whose row sums to 1 in A, where j* is that monomer's unique
// singleton complex. It is the final pass of both initial-guess modes.
func applyInertCorrection(lambda []float64, p *Problem) {
	for i := 0; i < p.m; i++ {
		j, ok := p.IsInert(i)
		if !ok {
			continue
		}
		lambda[i] = math.Log(p.x0[i]) + p.g[j]
	}
}

// newInitialLambda builds the fresh-start λ₀, immediately valid for the
// exponential map.
func newInitialLambda(p *Problem) []float64 {
	lam := freshLambda(p)
	lambda := make([]float64, p.m)
	for i := range lambda {
		lambda[i] = lam
	}
	applyInertCorrection(lambda, p)
	return lambda
}

// maxPerturbRetries bounds how many times perturbedLambda will halve its
// scale before giving up. The inert-correction pass (applyInertCorrection)
// is independent of scale, so if it alone puts some complex outside
// maxLogX, no amount of shrinking the random offset will ever help — that
// is the "unrecoverable overflow outside the perturbation envelope" case,
// and perturbedLambda reports it rather than spinning.
const maxPerturbRetries = 64

// perturbedLambda draws λ[i] = Λ + δ[i] with δ[i] uniform in
// [-scale, scale], halving scale and redrawing whenever the result
// overflows the mole-fraction map. scratch must have length p.n and is used
// only to probe for overflow; it is not returned.
// It reports the scale that finally succeeded, so the caller can keep
// perturbations shrinking monotonically across further restarts within the
// same outer attempt budget.
func perturbedLambda(p *Problem, rng randSource, scale float64, scratch []float64, attempt int) (lambda []float64, usedScale float64, err error) {
	lam := freshLambda(p)
	lambda = make([]float64, p.m)
	for try := 0; try < maxPerturbRetries; try++ {
		for i := 0; i < p.m; i++ {
			lambda[i] = lam + (rng.Float64()*2-1)*scale
		}
		applyInertCorrection(lambda, p)
		if err := evalX(scratch, p, lambda, attempt); err == nil {
			return lambda, scale, nil
		}
		scale /= 2
	}
	return nil, 0, evalX(scratch, p, lambda, attempt)
}

// randSource is the minimal surface perturbedLambda needs from a random
// generator; it is satisfied by *math/rand.Rand.
type randSource interface {
	Float64() float64
}
