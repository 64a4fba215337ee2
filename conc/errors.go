// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import "fmt"

// ProblemError reports a malformed Problem, detected at NewProblem time.
type ProblemError struct {
	Reason string
}

func (e *ProblemError) Error() string {
	return "conc: invalid problem: " + e.Reason
}

// OverflowError reports that the mole-fraction map exp(-G[j] + Aᵀ[j]·λ)
// would overflow MAXLOGX for some complex j, outside anything the restart
// perturbation loop was able to dodge. This is treated as a hard
// process-exit contract for the sibling executables that parse the exit
// code; SolveOrExit honors that contract, while Solve itself returns this
// type so library callers can recover instead.
type OverflowError struct {
	Complex int     // index j of the offending complex
	LogX    float64 // the computed exponent argument, > maxLogX
	Attempt int      // 1-based attempt number during which this occurred
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("conc: unrecoverable overflow evaluating complex %d (logx=%g) on attempt %d", e.Complex, e.LogX, e.Attempt)
}

// overflowExitCode is the process exit code used by SolveOrExit, matching
// the sibling executables' long-standing contract with the solver core.
const overflowExitCode = 3

// ConfigError reports a Config value outside its documented range,
// detected at Solve time.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "conc: invalid config: " + e.Reason
}

func validateConfig(cfg *Config) error {
	switch {
	case cfg.MaxIters < 1:
		return &ConfigError{Reason: "MaxIters must be >= 1"}
	case cfg.MaxNoStep < 1:
		return &ConfigError{Reason: "MaxNoStep must be >= 1"}
	case cfg.MaxTrial < 1:
		return &ConfigError{Reason: "MaxTrial must be >= 1"}
	case cfg.Tol <= 0:
		return &ConfigError{Reason: "Tol must be positive"}
	case cfg.DeltaBar <= 0:
		return &ConfigError{Reason: "DeltaBar must be positive"}
	case cfg.Eta <= 0 || cfg.Eta >= 0.25:
		return &ConfigError{Reason: "Eta must be in (0, 1/4)"}
	case cfg.PerturbScale <= 0:
		return &ConfigError{Reason: "PerturbScale must be positive"}
	}
	return nil
}
