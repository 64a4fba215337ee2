// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import "github.com/rs/zerolog"

// Config carries every tunable knob for one call to Solve. There is no
// ambient/package-level configuration: a caller that wants different
// behavior builds a different Config.
type Config struct {
	// MaxIters bounds the number of trust-region iterations within a
	// single restart attempt.
	MaxIters int
	// MaxNoStep bounds the number of consecutive rejected steps before an
	// attempt is abandoned and a restart is triggered.
	MaxNoStep int
	// MaxTrial bounds the total number of restart attempts.
	MaxTrial int

	// Tol is the relative gradient tolerance: convergence requires
	// |g[i]| <= Tol * x0[i] for every monomer i.
	Tol float64
	// DeltaBar is the maximum trust-region radius.
	DeltaBar float64
	// Eta is the step-acceptance threshold for ρ, in (0, 1/4).
	Eta float64
	// PerturbScale is the initial half-width of the uniform perturbation
	// applied to λ on a restart; it is halved internally whenever a draw
	// overflows.
	PerturbScale float64

	// Seed seeds the restart-perturbation random generator. A value of 0
	// asks the solver to derive a seed from the platform clock the first
	// time a restart is needed; any other value is used as-is, preserving
	// determinism through explicit re-supply.
	Seed uint64

	// Logger receives diagnostic events (restarts, step-kind tallies, the
	// dogleg double-root-miss fallback). The zero value is a disabled
	// logger, so a caller that never sets it pays nothing.
	Logger zerolog.Logger
}

// DefaultConfig returns the literature-typical tunables for the trust-region
// solver, mirroring gonum's DefaultSettingsGlobal pattern of a constructor
// function rather than implicit zero values (a zero Config would have
// Eta == 0, which is outside the required (0, 1/4) range).
func DefaultConfig() Config {
	return Config{
		MaxIters:     500,
		MaxNoStep:    50,
		MaxTrial:     10,
		Tol:          1e-7,
		DeltaBar:     1000,
		Eta:          0.01,
		PerturbScale: 100,
		Logger:       zerolog.Nop(),
	}
}
