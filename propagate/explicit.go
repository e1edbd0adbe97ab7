// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package propagate

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/clock"
	"github.com/cmhpcl/m4extreme-go/node"
)

// Explicit is the central-difference propagator of spec 4.9: a predictor
// half-step, a force assembly supplied by the caller (Energy<1> lives one
// layer up in package element to avoid an import cycle), and a corrector
// half-step, with γ = 1/2 (Newmark β=0, γ=½).
type Explicit struct {
	Gamma float64 // defaults to 0.5 when zero
}

// NewExplicit returns a propagator using the default γ=1/2.
func NewExplicit() *Explicit { return &Explicit{Gamma: 0.5} }

func (p *Explicit) gamma() float64 {
	if p.Gamma == 0 {
		return 0.5
	}
	return p.Gamma
}

// ForceAssembler computes the ambient force on a node at its (already
// predicted) position; callers close over the current Energy<1> +
// AV + hourglass + generator contributions.
type ForceAssembler func(id int64) algebra.Vector

// Predict applies the predictor half-step to every node: v <- v + (1-γ)
// dt a; x <- x + dt v (spec 4.9). Detached or zero-mass nodes skip the
// velocity update and coast: x <- x + dt v at their last velocity.
func (p *Explicit) Predict(clk *clock.Clock, global *node.GlobalState, ids []int64) error {
	if err := clk.Validate(); err != nil {
		return err
	}
	dt := clk.Dt
	g := p.gamma()
	for _, id := range ids {
		n := global.Node(id)
		if n == nil {
			return chk.Err("propagate.Explicit.Predict: unknown node %d", id)
		}
		if n.Detached || n.Mass <= 0 {
			n.Reduced = n.Reduced.AddScaled(dt, n.Velocity)
			continue
		}
		n.Velocity = n.Velocity.AddScaled(1, n.Acceleration.Scale((1-g)*dt))
		n.Reduced = n.Reduced.AddScaled(dt, n.Velocity)
	}
	return nil
}

// Correct applies the corrector half-step given the forces assembled at
// the predicted configuration: a_new <- -f/m; v <- v + γ dt a_new; a <-
// a_new (spec 4.9).
func (p *Explicit) Correct(clk *clock.Clock, global *node.GlobalState, ids []int64, forces map[int64]algebra.Vector) error {
	dt := clk.Dt
	g := p.gamma()
	for _, id := range ids {
		n := global.Node(id)
		if n == nil {
			return chk.Err("propagate.Explicit.Correct: unknown node %d", id)
		}
		if n.Detached || n.Mass <= 0 {
			continue
		}
		f := forces[id]
		if f == nil {
			f = algebra.NewVector(len(n.Reduced))
		}
		aNew := f.Scale(-1.0 / n.Mass)
		n.Velocity = n.Velocity.AddScaled(g*dt, aNew)
		n.Acceleration = aNew
	}
	return nil
}

// MaxStableDt returns the CFL-limited timestep: fraction * min over MPs
// of h/(c+|v|) (spec 4.9's stability rule). The propagator itself never
// selects dt; this is exposed for the caller's clock-advance policy.
func MaxStableDt(fraction float64, spacing, soundSpeed []float64, speed []float64) (float64, error) {
	if len(spacing) == 0 {
		return 0, chk.Err("propagate.MaxStableDt: no material points supplied")
	}
	dt := math.Inf(1)
	for i := range spacing {
		denom := soundSpeed[i] + speed[i]
		if denom <= 0 {
			continue
		}
		cand := fraction * spacing[i] / denom
		if cand < dt {
			dt = cand
		}
	}
	if math.IsInf(dt, 1) {
		return 0, chk.Err("propagate.MaxStableDt: no finite wave speed among material points")
	}
	return dt, nil
}
