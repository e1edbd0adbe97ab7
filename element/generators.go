// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import (
	"github.com/cpmech/gosl/fun/dbf"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

// Generator contributes to ForceMap the way an MP's Energy<1> contribution
// does; it is the common shape shared by traction boundaries, body-force
// fields and two-body potentials (spec 4.11's insertTractionBoundary /
// insertPotentialField / insertPotentialTwoBody / insertContactField).
type Generator interface {
	Contribute(time float64, forces ForceMap) error
}

// TractionBoundary applies a scalar pressure/traction load along a fixed
// outward normal at each boundary node, area-weighted (spec 4.7:
// "boundary tractions ... added analogously" to the MP stress
// contribution), mirroring ele.NaturalBc's (Fcn dbf.T, Extra string) pair.
type TractionBoundary struct {
	NodeIDs []int64
	Normals []algebra.Vector
	Areas   []float64
	Load    dbf.T
}

// Contribute implements Generator.
func (b *TractionBoundary) Contribute(time float64, forces ForceMap) error {
	p := b.Load.F(time, nil)
	for i, id := range b.NodeIDs {
		forces.add(id, b.Normals[i].Scale(p*b.Areas[i]))
	}
	return nil
}

// BodyForceField applies a uniform body-force acceleration (e.g. gravity)
// to every node weighted by its lumped mass, matching ElastRod.Gfcn's
// dbf.T-driven gravity hook generalized to the node's tributary mass
// rather than a fixed rod cross-section.
type BodyForceField struct {
	NodeIDs []int64
	Masses  []float64
	Accel   algebra.Vector
	Scale   dbf.T // time-varying scale factor, 1 if nil
}

// Contribute implements Generator.
func (b *BodyForceField) Contribute(time float64, forces ForceMap) error {
	scale := 1.0
	if b.Scale != nil {
		scale = b.Scale.F(time, nil)
	}
	for i, id := range b.NodeIDs {
		// entered with the Energy<1> sign (gradient of the potential
		// -m·Accel·x), so the propagator's a = -f/m points along Accel
		forces.add(id, b.Accel.Scale(-b.Masses[i]*scale))
	}
	return nil
}

// TwoBodyPotential is the spec 4.11 insertPotentialTwoBody / insertContactField
// generator: a penalty-only pairwise interaction between the nodes of two
// carriers (spec's Non-goals exclude Lagrange-multiplier contact, so this
// is the only contact model carried forward).
type TwoBodyPotential struct {
	A, B       []int64 // candidate node ids on each side
	Positions  func(id int64) algebra.Vector
	Penalty    float64 // stiffness
	Gap        float64 // activation distance; contact only when separation < Gap
	Symmetric  bool
}

// Contribute implements Generator. It is O(|A|*|B|); callers are expected
// to have pre-filtered A and B via the spatial index (spec 4.2) to the
// pairs actually within range before constructing this generator.
func (t *TwoBodyPotential) Contribute(time float64, forces ForceMap) error {
	for _, a := range t.A {
		xa := t.Positions(a)
		for _, b := range t.B {
			xb := t.Positions(b)
			d := xb.Sub(xa)
			dist := d.Norm()
			if dist >= t.Gap || dist == 0 {
				continue
			}
			n := d.Scale(1.0 / dist)
			overlap := t.Gap - dist
			f := n.Scale(t.Penalty * overlap)
			// gradient of the penalty energy Penalty/2·overlap², so the
			// propagator's a = -f/m pushes a and b apart
			forces.add(a, f)
			if t.Symmetric {
				forces.add(b, f.Scale(-1))
			}
		}
	}
	return nil
}
