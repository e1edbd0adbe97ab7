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

// HourglassParams configures the hourglass-control element of spec 4.6.
type HourglassParams struct {
	Enabled   bool
	Modulus   float64
	Threshold float64 // activation threshold on the projection norm
}

// hourglassResidual fits the affine velocity field v(x) = vbar + L (x -
// xbar) reproduced exactly by any velocity consistent with the support's
// gradients, then returns the per-node residual h_a = v_a - v(x_a): this
// residual lies in the null space of Σ_a (.)⊗∇p_a by construction (its
// first moment against the gradients vanishes), i.e. it is precisely the
// zero-energy ("hourglass") mode spec 4.6 asks to detect.
func hourglassResidual(m *mp.MaterialPoint, velocity func(id int64) algebra.Vector) []algebra.Vector {
	L, _, vbar := velocityGradient(m, velocity)
	h := make([]algebra.Vector, len(m.Support.NodeIDs))
	for i, id := range m.Support.NodeIDs {
		dx := m.Support.AnchorPos[i].Sub(m.Position)
		fit := vbar.Add(L.MulVec(dx))
		h[i] = velocity(id).Sub(fit)
	}
	return h
}

// projectionNorm returns sqrt(Σ_a w_a |h_a|^2).
func projectionNorm(weights []float64, h []algebra.Vector) float64 {
	var sum float64
	for i, v := range h {
		sum += weights[i] * v.Dot(v)
	}
	return math.Sqrt(sum)
}

// AssembleHourglassControl penalizes the hourglass residual of each MP's
// support once its projection norm exceeds params.Threshold (spec 4.6:
// "Contributes only when the projection norm exceeds a threshold").
func AssembleHourglassControl(pool *workerpool.Pool, points []*mp.MaterialPoint, params []HourglassParams, velocity func(id int64) algebra.Vector, forces ForceMap) error {
	local := make([]ForceMap, pool.Workers)
	for w := range local {
		local[w] = make(ForceMap)
	}
	_, errs := pool.Run(len(points), nil, func(workerID, i int) error {
		m := points[i]
		hp := params[i]
		if !m.Active || !hp.Enabled || len(m.Support.AnchorPos) != len(m.Support.NodeIDs) {
			return nil
		}
		h := hourglassResidual(m, velocity)
		norm := projectionNorm(m.Support.Weights, h)
		if norm <= hp.Threshold {
			return nil
		}
		for a, id := range m.Support.NodeIDs {
			f := h[a].Scale(hp.Modulus * m.Support.Weights[a] * m.Volume)
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
