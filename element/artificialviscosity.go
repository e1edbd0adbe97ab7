// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import (
	"math"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

// AVParams configures the artificial-viscosity element of spec 4.5.
type AVParams struct {
	Enabled  bool
	Linear   float64 // C_L
	Quadratic float64 // C_Q
	SoundSpeed float64 // c
	Spacing    float64 // h, local spacing; 0 means "use sqrt(Volume)"
}

// velocityGradient returns L = Σ_a v_a ⊗ ∇p_a for the MP's current
// support, the symmetric part D = sym(L), and Σ_a p_a v_a (the MP's
// recovered velocity).
func velocityGradient(m *mp.MaterialPoint, velocity func(id int64) algebra.Vector) (L, D algebra.Hom, vbar algebra.Vector) {
	ndim := len(m.Position)
	L = algebra.NewHom(ndim, ndim)
	vbar = algebra.NewVector(ndim)
	for i, id := range m.Support.NodeIDs {
		v := velocity(id)
		L = L.Add(v.Outer(m.Support.Grad[i]))
		vbar.AddScaled(m.Support.Weights[i], v)
	}
	D = L.Add(L.Transpose()).Scale(0.5)
	return
}

// avStress computes σ_AV for one MP (spec 4.5): an isotropic bulk term
// built from the volumetric strain rate plus a deviatoric term
// proportional to the deviatoric strain-rate magnitude, both switched off
// once trD >= 0 (AV only fires under compression, never under pure
// shear or expansion -- "stabilize shocks without spurious dissipation in
// pure shear").
func avStress(m *mp.MaterialPoint, p AVParams, velocity func(id int64) algebra.Vector) (algebra.Hom, error) {
	ndim := len(m.Position)
	_, D, _ := velocityGradient(m, velocity)
	trD := D.Trace()
	if trD >= 0 {
		return algebra.NewHom(ndim, ndim), nil
	}
	rho, err := m.Density()
	if err != nil {
		return nil, err
	}
	h := p.Spacing
	if h <= 0 {
		h = math.Sqrt(m.Volume)
	}
	bulk := rho * (p.Linear*h*p.SoundSpeed*trD - p.Quadratic*h*h*trD*trD)

	dev := D.Sub(algebra.Identity(ndim).Scale(trD / float64(ndim)))
	devNorm := math.Sqrt(math.Abs(dev.Contract(dev)))
	shear := rho * p.Linear * h * p.SoundSpeed * devNorm

	sigma := algebra.Identity(ndim).Scale(bulk)
	if devNorm > 0 {
		sigma = sigma.Add(dev.Scale(shear / devNorm))
	}
	return sigma, nil
}

// AssembleArtificialViscosity adds the shadow-element contribution of
// spec 4.5 into forces, for every active MP whose AVParams.Enabled is
// true. It mirrors AssembleEnergy1's scatter pattern with the
// constitutive stress replaced by σ_AV.
func AssembleArtificialViscosity(pool *workerpool.Pool, points []*mp.MaterialPoint, params []AVParams, velocity func(id int64) algebra.Vector, forces ForceMap) error {
	local := make([]ForceMap, pool.Workers)
	for w := range local {
		local[w] = make(ForceMap)
	}
	_, errs := pool.Run(len(points), nil, func(workerID, i int) error {
		m := points[i]
		if !m.Active || !params[i].Enabled {
			return nil
		}
		sigma, err := avStress(m, params[i], velocity)
		if err != nil {
			return err
		}
		for a, id := range m.Support.NodeIDs {
			f := sigma.MulVec(m.Support.Grad[a]).Scale(m.Volume)
			local[workerID].add(id, f)
		}
		return nil
	})
	if len(errs) > 0 {
		return errs[0]
	}
	for _, lm := range local {
		forces.merge(lm)
	}
	return nil
}
