// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propagate

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/mp"
)

// ErrThermalSolverFailed is surfaced to the caller when the implicit
// temperature solve reports singularity (spec 4.10).
var ErrThermalSolverFailed = chk.Err("propagate: thermal solver failed")

// ThermalCapacity returns M_T, the per-MP contribution to the lumped
// thermal capacity diagonal, scattered to its support the same way mass
// is lumped: c_a += w_a * Vol_m * specificHeat * density.
func ThermalCapacity(points []*mp.MaterialPoint, specificHeat float64) map[int64]float64 {
	cap := make(map[int64]float64)
	for _, m := range points {
		if !m.Active || !m.HasThermal {
			continue
		}
		rho, err := m.Density()
		if err != nil {
			continue
		}
		for i, id := range m.Support.NodeIDs {
			cap[id] += m.Support.Weights[i] * m.Volume * specificHeat * rho
		}
	}
	return cap
}

// Thermal is the semi-implicit thermo-mechanical propagator of spec
// 4.10: mechanical DOFs advance explicitly via Explicit, temperature
// DOFs solve (M_T/dt + DDE) ΔT = -DE implicitly via LinearSystem[int64].
type Thermal struct {
	SpecificHeat float64
}

// Conductivity supplies DDE(T) = ∂(heat flux)/∂T and DE, the heat-flux
// residual, for the current temperature field; callers close over the
// conduction model (spec's mconduct/mreten analogues) the way the
// mechanical Energy<1> closure is supplied to Explicit.Correct.
type Conductivity func(ls *LinearSystem[int64], temperatures map[int64]float64) error

// Step assembles (M_T/dt + DDE) and -DE into a fresh LinearSystem,
// solves for ΔT, and returns the updated temperature map, or
// ErrThermalSolverFailed if the solve is singular -- the caller is
// expected to roll the step back on that error per spec 4.10.
func (o *Thermal) Step(points []*mp.MaterialPoint, temperatures map[int64]float64, dt float64, conduct Conductivity) (map[int64]float64, error) {
	ids := make([]int64, 0, len(temperatures))
	for id := range temperatures {
		ids = append(ids, id)
	}
	ls := NewLinearSystem[int64](ids, true)
	capacity := ThermalCapacity(points, o.SpecificHeat)
	for _, id := range ids {
		c, ok := capacity[id]
		if !ok || c <= 0 {
			c = 1
		}
		if err := ls.Add(id, id, c/dt); err != nil {
			return nil, err
		}
	}
	if err := conduct(ls, temperatures); err != nil {
		return nil, ErrThermalSolverFailed
	}
	delta, err := ls.Solve()
	if err != nil {
		return nil, ErrThermalSolverFailed
	}
	next := make(map[int64]float64, len(temperatures))
	for id, t := range temperatures {
		nt := t + delta[id]
		if nt <= 0 {
			return nil, chk.Err("propagate.Thermal.Step: non-positive temperature %g at node %d after update", nt, id)
		}
		next[id] = nt
	}
	return next, nil
}
