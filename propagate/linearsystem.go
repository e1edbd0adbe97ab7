// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package propagate implements the explicit central-difference (spec
// 4.9) and semi-implicit thermo-mechanical (spec 4.10) time propagators,
// on top of an opaque linear system keyed by an arbitrary comparable DOF
// id, mirroring fem's triplet/LinSol pairing (d.Kb *la.Triplet, d.LinSol
// *la.LinSol, solve_linear_problem's InitR/Fact/SolveR sequence) in
// sol-lin-implicit.go, generalized from a fixed equation-number Y/Fb/Wb
// layout to spec 4.10's keyed DOFs.
package propagate

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// ErrSingular is returned when the thermal solve reports a singular
// system (spec 4.10: "if the solver reports singularity, the step is
// rolled back and the caller is notified via ThermalSolverFailed").
var ErrSingular = chk.Err("propagate: linear system is singular")

// LinearSystem is the opaque keyed system of spec 4.10: supports add,
// solve, norm, with DOF identity kept external to the solver so callers
// never need to renumber equations themselves.
type LinearSystem[K comparable] struct {
	index   map[K]int
	order   []K
	n       int
	trip    la.Triplet
	rhs     []float64
	factored bool
	linsol  la.LinSol
	symmetric bool
}

// NewLinearSystem allocates a system over the given ordered DOF keys,
// backed by gosl's default direct solver ("umfpack", matching fem's
// fallback in main.go/fem.go when no solver name is configured).
func NewLinearSystem[K comparable](keys []K, symmetric bool) *LinearSystem[K] {
	ls := &LinearSystem[K]{
		index:     make(map[K]int, len(keys)),
		order:     append([]K(nil), keys...),
		n:         len(keys),
		symmetric: symmetric,
		linsol:    la.GetSolver("umfpack"),
	}
	for i, k := range keys {
		ls.index[k] = i
	}
	ls.trip.Init(ls.n, ls.n, ls.n*8)
	ls.rhs = make([]float64, ls.n)
	return ls
}

// Reset clears the matrix and right-hand side for a fresh assembly pass,
// keeping the DOF numbering (mirrors d.Kb.Start() in solve_linear_problem).
func (ls *LinearSystem[K]) Reset() {
	ls.trip.Start()
	la.VecFill(ls.rhs, 0)
	ls.factored = false
}

// Add contributes a_ij to the matrix entry (row, col), addressed by DOF
// key; right-hand side entries are added separately through AddRhs.
func (ls *LinearSystem[K]) Add(row, col K, aij float64) error {
	i, ok := ls.index[row]
	if !ok {
		return chk.Err("propagate.LinearSystem.Add: unknown row DOF %v", row)
	}
	j, ok := ls.index[col]
	if !ok {
		return chk.Err("propagate.LinearSystem.Add: unknown col DOF %v", col)
	}
	ls.trip.Put(i, j, aij)
	return nil
}

// AddRhs adds bi to the right-hand side entry for key.
func (ls *LinearSystem[K]) AddRhs(key K, bi float64) error {
	i, ok := ls.index[key]
	if !ok {
		return chk.Err("propagate.LinearSystem.AddRhs: unknown DOF %v", key)
	}
	ls.rhs[i] += bi
	return nil
}

// Norm returns the infinity norm of the right-hand side, used by the
// thermal propagator to gauge convergence of the heat-flux residual.
func (ls *LinearSystem[K]) Norm() float64 {
	var m float64
	for _, v := range ls.rhs {
		if a := v; a < 0 {
			a = -a
			if a > m {
				m = a
			}
		} else if a > m {
			m = a
		}
	}
	return m
}

// Solve factorises (if not already done this Reset cycle) and solves the
// system, returning the solution keyed the same way as the DOFs, or
// ErrSingular if factorisation or solution fails (spec 4.10's rollback
// contract).
func (ls *LinearSystem[K]) Solve() (map[K]float64, error) {
	if !ls.factored {
		if err := ls.linsol.InitR(&ls.trip, ls.symmetric, false, false); err != nil {
			return nil, ErrSingular
		}
		if err := ls.linsol.Fact(); err != nil {
			return nil, ErrSingular
		}
		ls.factored = true
	}
	x := make([]float64, ls.n)
	if err := ls.linsol.SolveR(x, ls.rhs, false); err != nil {
		return nil, ErrSingular
	}
	out := make(map[K]float64, ls.n)
	for i, k := range ls.order {
		out[k] = x[i]
	}
	return out, nil
}

// Free releases the factorisation's native resources (la.LinSol owns a
// C-level handle when using a sparse direct backend), mirroring
// Domain.Clean's o.LinSol.Free() call in fem/domain.go.
func (ls *LinearSystem[K]) Free() {
	ls.linsol.Free()
}
