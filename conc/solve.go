// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"time"
)

// Result is the answer of one call to Solve.
type Result struct {
	// X holds the equilibrium mole fraction of every cataloged complex, in
	// the same order as the columns of the stoichiometry matrix.
	X []float64
	// Status reports how the solve terminated.
	Status Status
	// FreeEnergy is the total Gibbs free energy of the solution in kcal
	// per liter, computed from X.
	FreeEnergy float64
	// Stats tallies diagnostic counters accumulated across every attempt.
	Stats Stats
}

// Solve computes the equilibrium mole fractions of p's catalog of
// complexes, driving the trust-region method up to cfg.MaxTrial restart
// attempts. ctx is checked cooperatively once per outer-loop iteration; a
// nil ctx is treated as context.Background().
//
// Solve returns a non-nil error only for a malformed Problem/Config or for
// an *OverflowError that the restart-perturbation envelope could not dodge.
// Every other recoverable condition — transient overflow during restart
// probing, a rejected step, a stalled attempt, a non-positive-definite
// Hessian, Cholesky or dogleg-root fallback — is absorbed internally and
// never surfaces as an error.
func Solve(ctx context.Context, p *Problem, cfg Config) (Result, error) {
	if p == nil {
		return Result{}, &ProblemError{Reason: "nil problem"}
	}
	if err := validateConfig(&cfg); err != nil {
		return Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ws := newWorkspace(p)
	stats := &Stats{}
	lambda := newInitialLambda(p)

	var rng *rand.Rand
	scale := cfg.PerturbScale

	for attempt := 1; attempt <= cfg.MaxTrial; attempt++ {
		stats.Attempts++
		res, err := runAttempt(ctx, p, &cfg, lambda, ws, stats, attempt)
		if err != nil {
			// Only the initial evalX call in runAttempt can fail, and only
			// with an *OverflowError (the fresh-start bound is otherwise
			// exact); treat it like any other failed attempt and let the
			// restart-perturbation loop try to dodge it.
			var overflow *OverflowError
			if !errors.As(err, &overflow) {
				return Result{}, err
			}
			res = attemptStalled
		}

		cfg.Logger.Debug().
			Int("attempt", attempt).
			Int("newton_steps", stats.NewtonSteps).
			Int("cauchy_steps", stats.CauchySteps).
			Int("cholesky_failures", stats.CholeskyFailures).
			Int("dogleg_failures", stats.DoglegFailures).
			Msg("step-kind tallies")

		switch res {
		case attemptConverged:
			cfg.Logger.Debug().Int("attempt", attempt).Int("iterations", stats.MajorIterations).Msg("converged")
			return finalize(p, ws, stats, Converged), nil
		case attemptCancelled:
			return finalize(p, ws, stats, Cancelled), nil
		}

		if attempt == cfg.MaxTrial {
			break
		}

		stats.Restarts++
		cfg.Logger.Warn().Int("attempt", attempt).Str("reason", attemptReason(res)).Msg("restarting")

		if rng == nil {
			rng = newSeededRand(cfg.Seed)
		}
		newLambda, usedScale, perr := perturbedLambda(p, rng, scale, ws.trialX, attempt+1)
		if perr != nil {
			cfg.Logger.Error().Err(perr).Msg("unrecoverable overflow in restart perturbation")
			return Result{}, perr
		}
		lambda = newLambda
		scale = usedScale
	}

	return finalize(p, ws, stats, Exhausted), nil
}

// SolveOrExit calls Solve and preserves the historical hard process-exit
// contract: on an unrecoverable *OverflowError it terminates the process
// with the distinguished overflow exit code, for the sibling executables
// that still parse it. Library callers that want
// to recover instead should call Solve directly. Any other error from
// Solve indicates a malformed Problem or Config, which is a caller bug
// rather than a runtime condition, so SolveOrExit panics on it the same
// way gonum's optimize package panics on a malformed Problem.
func SolveOrExit(ctx context.Context, p *Problem, cfg Config) Result {
	result, err := Solve(ctx, p, cfg)
	if err == nil {
		return result
	}
	var overflow *OverflowError
	if errors.As(err, &overflow) {
		cfg.Logger.Error().Err(err).Msg("exiting: unrecoverable overflow")
		os.Exit(overflowExitCode)
	}
	panic(err)
}

func finalize(p *Problem, ws *workspace, stats *Stats, status Status) Result {
	x := make([]float64, p.n)
	copy(x, ws.x)
	return Result{
		X:          x,
		Status:     status,
		FreeEnergy: freeEnergy(p, x),
		Stats:      *stats,
	}
}

func newSeededRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(int64(seed)))
}

func attemptReason(res attemptResult) string {
	switch res {
	case attemptStalled:
		return "stalled"
	case attemptIterationLimit:
		return "iteration_limit"
	default:
		return "unknown"
	}
}
