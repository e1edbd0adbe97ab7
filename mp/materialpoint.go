// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mp

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cmhpcl/m4extreme-go/search"
)

// MaterialPoint is one integration site carrying kinematic and thermal
// state plus a constitutive-state pointer (spec 3.2).
type MaterialPoint struct {
	ID      int64
	Carrier int

	Position algebra.Vector // current ambient position (weighted mean over Support)
	Support  *Support

	F, FOld algebra.Hom // deformation gradient, and its value at the last Advance
	Volume0 float64     // reference volume
	Volume  float64
	VolumeOld float64
	Density0  float64

	HasThermal  bool
	Temperature float64

	HasReaction  bool
	Reaction     float64 // progress in [0,1]
	ReactionRate float64 // constant rate for the simple kinetics supplied here

	Active bool

	Kernel constitutive.Kernel
	State  *constitutive.State

	NeedsRebuild bool // set on LME non-convergence; consumed by Advance
}

// New allocates an active material point with identity deformation
// gradient and the given reference volume/density.
func New(id int64, carrier, ndim int, volume0, density0 float64, kernel constitutive.Kernel) *MaterialPoint {
	return &MaterialPoint{
		ID:        id,
		Carrier:   carrier,
		Position:  algebra.NewVector(ndim),
		Support:   &Support{},
		F:         algebra.Identity(ndim),
		FOld:      algebra.Identity(ndim),
		Volume0:   volume0,
		Volume:    volume0,
		VolumeOld: volume0,
		Density0:  density0,
		Active:    true,
		Kernel:    kernel,
		State:     kernel.InitState(density0),
	}
}

// Density returns the current density ρ = ρ0 / det(F).
func (m *MaterialPoint) Density() (float64, error) {
	j, err := m.F.Det()
	if err != nil {
		return 0, err
	}
	if j <= 0 {
		return 0, chk.Err("mp.Density: det(F)=%g is non-positive at MP %d", j, m.ID)
	}
	return m.Density0 / j, nil
}

// RebuildSupport queries the spatial index for nodes within cutoff of the
// MP's current position, solves the LME dual there, and freezes the
// result as both the current and anchor shape functions (spec 3.3:
// "rebuilt when the MP's position relative to its current support
// exceeds a drift threshold").
func (m *MaterialPoint) RebuildSupport(idx search.Index, nodePositions map[int64]algebra.Vector, cutoff float64, params lme.Params) error {
	candidateIDs := idx.Within(m.Position, cutoff)
	if len(candidateIDs) == 0 {
		return chk.Err("mp.RebuildSupport: no nodes found within cutoff %g of MP %d", cutoff, m.ID)
	}
	positions := make([]algebra.Vector, len(candidateIDs))
	for i, id := range candidateIDs {
		positions[i] = nodePositions[id]
	}
	lambda0 := algebra.NewVector(len(m.Position))
	res, err := lme.Solve(m.Position, candidateIDs, positions, lambda0, params)
	if err != nil {
		m.NeedsRebuild = true
		return err
	}
	anchorPos := make([]algebra.Vector, len(res.NodeIDs))
	for i, id := range res.NodeIDs {
		anchorPos[i] = nodePositions[id]
	}
	m.Support = &Support{
		NodeIDs:      res.NodeIDs,
		Weights:      res.Weights,
		Grad:         res.Grad,
		Lambda:       res.Lambda,
		AnchorPos:    anchorPos,
		RefGrad:      res.Grad,
		LambdaAnchor: res.Lambda,
	}
	m.NeedsRebuild = !res.Converged
	if m.NeedsRebuild {
		return lme.ErrSupportDegenerate
	}
	return nil
}

// UpdateShapeFunctions recomputes the current-configuration weights and
// gradients against the support's existing node list (spec 4.1: "must be
// recomputed whenever the configuration changes"). It does not change the
// support's node list composition beyond the LME cutoff's own pruning.
func (m *MaterialPoint) UpdateShapeFunctions(nodePositions map[int64]algebra.Vector, params lme.Params) error {
	positions := make([]algebra.Vector, len(m.Support.NodeIDs))
	for i, id := range m.Support.NodeIDs {
		positions[i] = nodePositions[id]
	}
	res, err := lme.Solve(m.Position, m.Support.NodeIDs, positions, m.Support.Lambda, params)
	if err != nil {
		m.NeedsRebuild = true
		return err
	}
	m.Support.NodeIDs = res.NodeIDs
	m.Support.Weights = res.Weights
	m.Support.Grad = res.Grad
	m.Support.Lambda = res.Lambda
	if !res.Converged {
		m.NeedsRebuild = true
	}
	return nil
}

// Reset recomputes F relative to F_old using Σ_a ∇p_a ⊗ (x_a − x̄) with
// shape-function reset (spec 4.4). ∇p_a here is RefGrad, the gradient at
// the configuration of the last Advance (or support rebuild), so the sum
// gives the deformation increment since then; the total deformation
// gradient is that increment composed with FOld.
func (m *MaterialPoint) Reset(nodePositions map[int64]algebra.Vector) error {
	if !m.Active {
		return nil
	}
	ndim := len(m.Position)
	xbar := algebra.NewVector(ndim)
	for i, id := range m.Support.NodeIDs {
		xbar.AddScaled(m.Support.Weights[i], nodePositions[id])
	}
	finc := algebra.NewHom(ndim, ndim)
	for i, id := range m.Support.NodeIDs {
		d := nodePositions[id].Sub(xbar)
		finc = finc.Add(d.Outer(m.Support.RefGrad[i]))
	}
	m.Position = xbar
	F := finc.Mul(m.FOld)
	j, err := F.Det()
	if err != nil {
		return err
	}
	if j <= 0 {
		m.Active = false
		return chk.Err("contract violation: det(F)=%g non-positive at MP %d -- deactivating", j, m.ID)
	}
	m.F = F
	return nil
}

// Advance commits F_old <- F, volume_old <- volume, resets RefGrad to the
// current-configuration gradients (so the next Reset measures the increment
// from this configuration), advances the reaction progress variable, and
// rebuilds the support if the configuration has drifted past the threshold
// (spec 4.4).
func (m *MaterialPoint) Advance(idx search.Index, nodePositions map[int64]algebra.Vector, dt, cutoff, driftThreshold float64, params lme.Params) error {
	if !m.Active {
		return nil
	}
	m.FOld = m.F
	m.Support.RefGrad = m.Support.Grad
	m.VolumeOld = m.Volume
	j, err := m.F.Det()
	if err != nil {
		return err
	}
	m.Volume = m.Volume0 * j
	if m.Volume <= 0 {
		m.Active = false
		return chk.Err("contract violation: volume=%g non-positive at MP %d", m.Volume, m.ID)
	}

	if m.HasReaction {
		m.Reaction += dt * m.ReactionRate
		if m.Reaction > 1 {
			m.Reaction = 1
		}
		if m.Reaction < 0 {
			m.Reaction = 0
		}
	}

	if m.driftExceeds(driftThreshold) || m.NeedsRebuild {
		if err := m.RebuildSupport(idx, nodePositions, cutoff, params); err != nil {
			return err
		}
	}
	return nil
}

// driftExceeds measures how far the MP has moved relative to its support's
// anchor node positions, normalized by a representative spacing, against
// threshold.
func (m *MaterialPoint) driftExceeds(threshold float64) bool {
	if len(m.Support.AnchorPos) == 0 {
		return true
	}
	var anchorMean algebra.Vector = algebra.NewVector(len(m.Position))
	for i := range m.Support.AnchorPos {
		anchorMean.AddScaled(m.Support.Weights[i], m.Support.AnchorPos[i])
	}
	spacing := representativeSpacing(m.Support.AnchorPos)
	if spacing <= 0 {
		return false
	}
	return m.Position.Sub(anchorMean).Norm()/spacing > threshold
}

func representativeSpacing(positions []algebra.Vector) float64 {
	if len(positions) < 2 {
		return 0
	}
	var sum float64
	var n int
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			sum += positions[i].Sub(positions[j]).Norm()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Stress delegates to the constitutive kernel, returning the first
// Piola-Kirchhoff stress (spec 4.4).
func (m *MaterialPoint) Stress() (algebra.Hom, error) {
	return m.Kernel.Stress(m.F, m.State)
}

// StrainEnergy returns the free energy currently held by this MP (used by
// the eigen-erosion scanner, spec 4.12 step 3).
func (m *MaterialPoint) StrainEnergy() (float64, error) {
	w, err := m.Kernel.Energy(m.F, m.State)
	if err != nil {
		return 0, err
	}
	return w * m.Volume, nil
}

// HeatSource returns q for thermal material points only (spec 4.4); the
// simple reactive model releases heat proportional to the reaction rate.
func (m *MaterialPoint) HeatSource() float64 {
	if !m.HasThermal {
		return 0
	}
	if !m.HasReaction || m.Reaction >= 1 {
		return 0
	}
	return m.ReactionRate
}

// MaxPrincipalStretch returns the largest eigenvalue of the right stretch
// tensor U = sqrt(FᵀF), i.e. the square root of the largest eigenvalue of
// C = FᵀF: in closed form for ndim<=2 and by Newton iteration on C's
// characteristic polynomial for ndim=3 (used by eigen-erosion's stretch
// criterion, spec 4.12 step 5).
func (m *MaterialPoint) MaxPrincipalStretch() (float64, error) {
	c := m.F.Transpose().Mul(m.F)
	n, _ := c.Dims()
	switch n {
	case 1:
		return math.Sqrt(c[0][0]), nil
	case 2:
		tr := c.Trace()
		det, err := c.Det()
		if err != nil {
			return 0, err
		}
		disc := tr*tr - 4*det
		if disc < 0 {
			disc = 0
		}
		lamMax := 0.5 * (tr + math.Sqrt(disc))
		return math.Sqrt(lamMax), nil
	default:
		i1, i2, i3, err := c.PrincipalInvariants()
		if err != nil {
			return 0, err
		}
		// bound the largest eigenvalue of a 3x3 SPD tensor via Newton on
		// its characteristic polynomial, seeded from the trace bound
		lam := i1
		for k := 0; k < 50; k++ {
			f := lam*lam*lam - i1*lam*lam + i2*lam - i3
			df := 3*lam*lam - 2*i1*lam + i2
			if df == 0 {
				break
			}
			step := f / df
			lam -= step
			if math.Abs(step) < 1e-12 {
				break
			}
		}
		if lam < 0 {
			lam = 0
		}
		return math.Sqrt(lam), nil
	}
}
