// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package mp implements the material point (spec 3.2), its support
// (spec 3.3) and the LocalState operations of spec 4.4.
package mp

import (
	"github.com/cmhpcl/m4extreme-go/algebra"
)

// Support is the many-to-many MP<->node relation (spec 3.3). Two distinct
// shape-function evaluations are tracked: the "current" one (Weights,
// Grad), recomputed every step against current node positions and used
// for force assembly (spec 4.7), and the reference one: AnchorPos, frozen
// at the moment the support was last rebuilt, and RefGrad, set at that
// rebuild and reset to Grad at every MaterialPoint.Advance, used to
// advance the deformation gradient from the last committed configuration
// (spec 4.4's "recompute F relative to F_old").
type Support struct {
	NodeIDs []int64

	Weights []float64        // current p_a
	Grad    []algebra.Vector // current ∇p_a
	Lambda  algebra.Vector   // warm start for the current-config LME solve

	AnchorPos    []algebra.Vector // node positions at last rebuild
	RefGrad      []algebra.Vector // ∇p_a at the last committed (Advance or rebuild) configuration
	LambdaAnchor algebra.Vector   // warm start for the anchor-config LME solve
}

// SumWeights returns Σ p_a, which must equal 1 within tolerance (spec 3.2
// invariant a, spec 8 partition-of-unity property).
func (s *Support) SumWeights() float64 {
	var sum float64
	for _, w := range s.Weights {
		sum += w
	}
	return sum
}

// FirstMoment returns Σ p_a (x_a - xmp), which must be (near) zero (spec
// 3.2 invariant b).
func (s *Support) FirstMoment(nodePositions map[int64]algebra.Vector, xmp algebra.Vector) algebra.Vector {
	ndim := len(xmp)
	m := algebra.NewVector(ndim)
	for i, id := range s.NodeIDs {
		d := nodePositions[id].Sub(xmp)
		m.AddScaled(s.Weights[i], d)
	}
	return m
}
