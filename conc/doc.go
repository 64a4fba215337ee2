// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conc computes equilibrium mole fractions for a dilute
// multi-species chemical system in which a fixed set of monomers combine
// into a catalog of complexes, each with a known standard free energy.
//
// Given the stoichiometry of every complex, its free energy, and the target
// monomer mole fractions, Solve finds the dual vector of Lagrange
// multipliers that satisfies mass balance by minimizing a convex dual
// objective with a trust-region method. The sub-problem at each outer
// iteration is solved with a dogleg step that prefers a Cholesky-factored
// Newton step and falls back to Cauchy steepest descent when the Hessian
// is not (numerically) positive definite.
//
// The package is single-threaded and synchronous: a call to Solve owns its
// working arrays exclusively and returns them to the caller only through
// Result.
package conc
