// Copyright ©2024 The Nupack Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conc

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

// massBalance returns A·x for monomer i, to be compared against x0[i].
func massBalance(p *Problem, x []float64, i int) float64 {
	row := p.a.RawRowView(i)
	var s float64
	for j, v := range row {
		s += v * x[j]
	}
	return s
}

func TestSolveSingleInertSpecies(t *testing.T) {
	// m=1, n=1, A=[[1]], G=[0], x0=[c]: a single non-reacting species.
	p, err := NewProblem([][]int{{1}}, []float64{0}, []float64{1e-6}, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	res, err := Solve(context.Background(), p, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Converged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	if math.Abs(res.X[0]-1e-6) > 1e-15 {
		t.Fatalf("X[0] = %v, want 1e-6 exactly", res.X[0])
	}
	if res.Stats.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1 for a trivial single-species solve", res.Stats.Attempts)
	}
}

func TestSolveSingleStrandMassBalance(t *testing.T) {
	// Monomer a forming complexes {a, aa, aaa}.
	p, err := NewProblem([][]int{{1, 2, 3}}, []float64{0, -1, -2}, []float64{1e-4}, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	cfg := DefaultConfig()
	res, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Converged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	for _, xj := range res.X {
		if xj < 0 || math.IsNaN(xj) || math.IsInf(xj, 0) {
			t.Fatalf("X = %v, want all finite and non-negative", res.X)
		}
	}
	got := massBalance(p, res.X, 0)
	if math.Abs(got-1e-4) > cfg.Tol*1e-4*10 {
		t.Fatalf("mass balance = %v, want ~1e-4", got)
	}
}

func TestSolveTwoSpeciesMassBalance(t *testing.T) {
	// Monomers a, b forming {a, b, ab, aa, bb}.
	a := [][]int{
		{1, 0, 1, 2, 0},
		{0, 1, 1, 0, 2},
	}
	g := []float64{0, 0, -1, -2, -2}
	x0 := []float64{1e-6, 1e-6}
	p, err := NewProblem(a, g, x0, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	cfg := DefaultConfig()
	res, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Converged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	for i, x0i := range x0 {
		got := massBalance(p, res.X, i)
		if math.Abs(got-x0i) > cfg.Tol*x0i*10 {
			t.Fatalf("monomer %d mass balance = %v, want ~%v", i, got, x0i)
		}
	}
}

func TestSolveInertMonomerExactMatch(t *testing.T) {
	// Monomers a, b react to form dimers; monomer c never reacts.
	a := [][]int{
		{1, 0, 0, 1, 2, 0},
		{0, 1, 0, 1, 0, 2},
		{0, 0, 1, 0, 0, 0},
	}
	g := []float64{0, 0, 0, -1, -2, -2}
	x0 := []float64{1e-6, 1e-6, 1e-6}
	p, err := NewProblem(a, g, x0, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	res, err := Solve(context.Background(), p, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Converged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	if math.Abs(res.X[2]-1e-6) > 1e-18 {
		t.Fatalf("inert complex c: X[2] = %v, want 1e-6 exactly", res.X[2])
	}
}

func TestSolveDeterministicWithSeed(t *testing.T) {
	a := [][]int{
		{1, 0, 1, 2, 0},
		{0, 1, 1, 0, 2},
	}
	g := []float64{0, 0, -1, -2, -2}
	x0 := []float64{1e-6, 1e-6}
	p, err := NewProblem(a, g, x0, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.MaxNoStep = 3 // aggressive, makes a restart more likely to exercise the seed path

	r1, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve (first): %v", err)
	}
	r2, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve (second): %v", err)
	}
	if diff := cmp.Diff(r1, r2); diff != "" {
		t.Fatalf("two solves with the same seed diverged (-first +second):\n%s", diff)
	}
}

func TestSolveForcedRestartConverges(t *testing.T) {
	// A hand-built Problem (bypassing NewProblem, which rejects the negative
	// stoichiometry entry this needs) whose fresh-start lambda is pinned at
	// -1 by complex 1's bound, at which complex 2 overflows (logx = 3) by a
	// wide, comfortably-perturbable margin. The first attempt must overflow
	// on evalX before a single trust-region step is taken; the restart
	// perturbation then has to find a lambda that clears every complex at
	// once before the (otherwise ordinary, strictly convex) solve can
	// proceed to convergence.
	p := &Problem{
		m:  1,
		n:  3,
		a:  mat.NewDense(1, 3, []float64{1, -1, -2}),
		at: mat.NewDense(3, 1, []float64{1, -1, -2}),
		g:  []float64{100, 0, -1},
		x0: []float64{1e-6},
		kt: 0.6, waterMolarity: 55.14,
		inert: []int{-1},
	}
	cfg := DefaultConfig()
	cfg.PerturbScale = 200
	cfg.Seed = 7

	res, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Converged {
		t.Fatalf("status = %v, want Converged", res.Status)
	}
	if res.Stats.Restarts != 1 {
		t.Fatalf("Restarts = %d, want exactly 1 (one forced restart before convergence)", res.Stats.Restarts)
	}
}

func TestSolveScalingInvariance(t *testing.T) {
	// Two non-reacting monomers: x = x0 exactly, so scaling x0 by alpha
	// must scale the solution by exactly alpha.
	base, err := NewProblem([][]int{{1, 0}, {0, 1}}, []float64{0, 0}, []float64{1, 1}, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem (base): %v", err)
	}
	const alpha = 7.5
	scaled, err := NewProblem([][]int{{1, 0}, {0, 1}}, []float64{0, 0}, []float64{alpha, alpha}, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem (scaled): %v", err)
	}

	r1, err := Solve(context.Background(), base, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve (base): %v", err)
	}
	r2, err := Solve(context.Background(), scaled, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve (scaled): %v", err)
	}
	for j := range r1.X {
		if math.Abs(r2.X[j]-alpha*r1.X[j]) > 1e-9 {
			t.Fatalf("X[%d] = %v, want %v (alpha * base)", j, r2.X[j], alpha*r1.X[j])
		}
	}
}

func TestSolveMaxItersOneReturnsExhaustedWithPartialX(t *testing.T) {
	a := [][]int{
		{1, 0, 1, 2, 0},
		{0, 1, 1, 0, 2},
	}
	g := []float64{0, 0, -1, -2, -2}
	x0 := []float64{1e-6, 1e-6}
	p, err := NewProblem(a, g, x0, 0.6, 55.14)
	if err != nil {
		t.Fatalf("NewProblem: %v", err)
	}
	cfg := DefaultConfig()
	cfg.MaxIters = 1
	cfg.MaxTrial = 1

	res, err := Solve(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Exhausted {
		t.Fatalf("status = %v, want Exhausted", res.Status)
	}
	if len(res.X) != p.N() {
		t.Fatalf("len(X) = %d, want %d", len(res.X), p.N())
	}
	for _, xj := range res.X {
		if xj <= 0 || math.IsNaN(xj) {
			t.Fatalf("X = %v, want every entry populated and positive", res.X)
		}
	}
	if res.Stats.Attempts != 1 {
		t.Fatalf("Attempts = %d, want 1", res.Stats.Attempts)
	}
}

func TestSolveContextCancelled(t *testing.T) {
	p := identityProblem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Solve(ctx, p, DefaultConfig())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if res.Status != Cancelled {
		t.Fatalf("status = %v, want Cancelled", res.Status)
	}
}

func TestSolveNilProblem(t *testing.T) {
	if _, err := Solve(context.Background(), nil, DefaultConfig()); err == nil {
		t.Fatalf("expected an error for a nil problem")
	}
}

func TestSolveInvalidConfig(t *testing.T) {
	p := identityProblem(t)
	cfg := DefaultConfig()
	cfg.Eta = 0
	if _, err := Solve(context.Background(), p, cfg); err == nil {
		t.Fatalf("expected an error for Eta outside (0, 1/4)")
	}
}
