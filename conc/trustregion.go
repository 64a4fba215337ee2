// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// workspace holds every array a Solve call allocates, so they can be reused
// across attempts and released together when Solve returns.
type workspace struct {
	x         []float64
	trialX    []float64
	g         []float64
	h         *mat.SymDense
	newLambda []float64
}

func newWorkspace(p *Problem) *workspace {
	return &workspace{
		x:         make([]float64, p.n),
		trialX:    make([]float64, p.n),
		g:         make([]float64, p.m),
		h:         mat.NewSymDense(p.m, nil),
		newLambda: make([]float64, p.m),
	}
}

// boundaryWindow is the relative tolerance used to decide whether a step
// "hit" the trust-region boundary (‖p‖ = δ) for the purposes of growing δ.
const boundaryWindow = 1e-6

// withinTolerance reports whether |g[i]| <= tol*x0[i] for every monomer i.
func withinTolerance(g, x0 []float64, tol float64) bool {
	for i, gi := range g {
		if math.Abs(gi) > tol*x0[i] {
			return false
		}
	}
	return true
}

// attemptResult is the outcome of one trust-region attempt (one outer
// restart cycle).
type attemptResult int

const (
	attemptConverged attemptResult = iota
	attemptStalled
	attemptIterationLimit
	attemptCancelled
)

// runAttempt drives the trust-region loop starting from lambda, which is
// mutated in place to the final iterate. ws's buffers are
// reused; stats accumulates step-kind and iteration tallies. ws.x holds the
// mole fractions at the final lambda on every path that returns a nil
// error; when the initial evalX overflows, ws.x is left partly overwritten.
func runAttempt(ctx context.Context, p *Problem, cfg *Config, lambda []float64, ws *workspace, stats *Stats, attemptNum int) (attemptResult, error) {
	if err := evalX(ws.x, p, lambda, attemptNum); err != nil {
		return attemptStalled, err
	}
	evalGradient(ws.g, p, ws.x)

	delta := 0.99 * cfg.DeltaBar
	noStep := 0

	for iter := 0; iter < cfg.MaxIters; iter++ {
		select {
		case <-ctx.Done():
			return attemptCancelled, nil
		default:
		}

		if withinTolerance(ws.g, p.x0, cfg.Tol) {
			return attemptConverged, nil
		}
		if noStep >= cfg.MaxNoStep {
			return attemptStalled, nil
		}

		evalHessian(ws.h, p, ws.x)
		step, tag := dogleg(ws.g, ws.h, delta)
		stats.record(tag)
		if tag == tagDoglegFail {
			cfg.Logger.Warn().Int("attempt", attemptNum).Int("iteration", iter).
				Msg("dogleg quadratic had no root in [0,1]; falling back to the Cauchy point")
		}

		for i := range ws.newLambda {
			ws.newLambda[i] = lambda[i] + step[i]
		}

		rho := evaluateRho(p, lambda, ws.x, ws.g, ws.h, step, ws.newLambda, ws.trialX, attemptNum)

		stepNorm := math.Sqrt(dotSlice(step, step))
		hitBoundary := math.Abs(stepNorm-delta) <= boundaryWindow*delta
		var grew bool
		delta, grew = nextDelta(rho, delta, cfg.DeltaBar, hitBoundary)
		if grew {
			stats.RadiusGrowths++
		}

		if rho > cfg.Eta {
			copy(lambda, ws.newLambda)
			copy(ws.x, ws.trialX)
			evalGradient(ws.g, p, ws.x)
			noStep = 0
		} else {
			noStep++
		}
		stats.MajorIterations++
	}
	return attemptIterationLimit, nil
}

// nextDelta applies the trust-region radius update rule: shrink by 4x on a
// poor step (ρ < 0.25), grow by 2x (capped at deltaBar) on a good step that
// hit the boundary (ρ > 0.75 and hitBoundary), otherwise leave delta
// unchanged. It reports whether delta actually grew, which is false when the
// cap was already reached.
func nextDelta(rho, delta, deltaBar float64, hitBoundary bool) (next float64, grew bool) {
	switch {
	case rho < 0.25:
		return delta / 4, false
	case rho > 0.75 && hitBoundary:
		grown := math.Min(2*delta, deltaBar)
		return grown, grown > delta
	default:
		return delta, false
	}
}

// evaluateRho computes ρ for a candidate step from λ (with cached mole
// fractions oldX) to λ+step, writing the trial mole fractions into trialX
// as a scratch value that the caller discards on rejection.
//
// An overflow while evaluating the trial point is treated as "denominator
// implicitly negative": ρ is set to -1 so the step is cleanly rejected and
// the trust radius shrinks.
//
// ρ is formed as (h(λ+p) - h(λ)) / predicted, where predicted is the
// quadratic model's predicted increase in h. h must strictly increase
// across every accepted step, since g is the gradient of f = -h, not of h
// itself; ordering the numerator the other way would make every good step
// report a negative ρ (see DESIGN.md's Open Question log).
func evaluateRho(p *Problem, lambda, oldX, g []float64, h *mat.SymDense, step, newLambda, trialX []float64, attemptNum int) float64 {
	if err := evalX(trialX, p, newLambda, attemptNum); err != nil {
		return -1
	}
	predicted := -dotSlice(g, step) - 0.5*quadForm(h, step)
	if predicted == 0 {
		return 0
	}
	hOld := dualObjective(oldX, lambda, p.x0)
	hNew := dualObjective(trialX, newLambda, p.x0)
	return (hNew - hOld) / predicted
}

func dotSlice(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// quadForm computes pᵀHp for symmetric H.
func quadForm(h *mat.SymDense, p []float64) float64 {
	n := len(p)
	var s float64
	for i := 0; i < n; i++ {
		var row float64
		for j := 0; j < n; j++ {
			row += h.At(i, j) * p[j]
		}
		s += p[i] * row
	}
	return s
}
