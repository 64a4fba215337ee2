// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

// stepTag records which branch of the dogleg sub-problem solver produced a
// step, for observability only; it is never part of the return contract.
type stepTag int

const (
	tagNewton stepTag = iota
	tagCauchy
	tagCholFailCauchy
	tagCholFailTookCauchy
	tagDogleg
	tagDoglegFail
)

func (t stepTag) String() string {
	switch t {
	case tagNewton:
		return "newton"
	case tagCauchy:
		return "cauchy"
	case tagCholFailCauchy:
		return "chol_fail_cauchy"
	case tagCholFailTookCauchy:
		return "chol_fail_took_cauchy"
	case tagDogleg:
		return "dogleg"
	case tagDoglegFail:
		return "dogleg_fail"
	default:
		return "unknown"
	}
}

// Stats tallies per-solve diagnostic counters. They are additive and never
// influence control flow; they exist purely for observability, but Go has
// no ABI reason to hide them behind a side channel, so Solve attaches the
// cumulative totals directly to Result.
type Stats struct {
	Attempts         int
	Restarts         int
	MajorIterations  int
	NewtonSteps      int
	CauchySteps      int
	CholeskyFailures int
	DoglegFailures   int
	// RadiusGrowths counts how many times the trust-region radius was
	// grown after a good step hit the boundary (rho > 0.75 and ‖step‖ ≈ δ).
	RadiusGrowths int
}

func (s *Stats) record(tag stepTag) {
	switch tag {
	case tagNewton:
		s.NewtonSteps++
	case tagCauchy:
		s.CauchySteps++
	case tagCholFailCauchy, tagCholFailTookCauchy:
		s.CauchySteps++
		s.CholeskyFailures++
	case tagDogleg:
		// dogleg steps blend both; not tallied separately from the totals
		// above, which distinguish Newton/Cauchy/dogleg-failure rather than
		// adding a fourth "pure dogleg" bucket.
	case tagDoglegFail:
		s.DoglegFailures++
	}
}
