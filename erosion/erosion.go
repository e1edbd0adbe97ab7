// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package erosion implements the eigen-erosion fracture scanner of spec
// 4.12. Mode classification follows the mean/deviatoric stress split
// used throughout mdl/solid/elasticity.go and msolid/hyperelast1.go
// (p, q), reusing gosl's tsr.SQ3by2 constant for the von Mises
// definition of q rather than reinventing it.
package erosion

import (
	"math"
	"sort"

	"github.com/cpmech/gosl/tsr"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
	"github.com/cmhpcl/m4extreme-go/search"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

// Mode is the failure mode selected by the stress state (spec 4.12 step 4).
type Mode int

const (
	ModeTensileI Mode = iota
	ModeShearII
	ModeShearIII
	ModeVaporization
	ModeDamage
)

// Criterion bundles the mode-dependent critical energy-release rates and
// the stretch gate (spec 4.12 step 5).
type Criterion struct {
	Gc              map[Mode]float64
	StretchFactor   float64
	CriticalStretch float64
}

// Candidate is one MP flagged as exceeding its failure criterion, pending
// the serialized dedup pass.
type Candidate struct {
	Index int // index into the points slice
	G     float64
	Mode  Mode
}

// classifyMode picks a failure mode from the mean stress p and the von
// Mises effective stress q = sqrt(3/2) * ||dev(sigma)||, the same split
// mdl/solid/elasticity.go builds its tangent from (D = K Im⊗Im + 2G Psd),
// generalized here from the Mandel-vector representation to the plain
// ndim x ndim Hom stress tensor.
func classifyMode(sigma algebra.Hom) Mode {
	ndim := len(sigma)
	p := sigma.Trace() / float64(ndim)
	dev := sigma.Sub(algebra.Identity(ndim).Scale(p))
	q := tsr.SQ3by2 * math.Sqrt(math.Abs(dev.Contract(dev)))

	switch {
	case p > 0 && p > 0.5*q:
		return ModeTensileI
	case p < -5*q && p < 0:
		return ModeVaporization
	case q > 0 && p <= 0.5*q && p >= -5*q:
		if ndim == 3 {
			return ModeShearIII
		}
		return ModeShearII
	default:
		return ModeDamage
	}
}

// ScanCandidates runs spec 4.12 steps 1-5 for every active MP: build the
// energy-release-rate cluster sum from the neighbors found by idx within
// epsilon, splitting each neighbor's energy and perimeter-area by its
// cluster multiplicity (step 2's "splitting ... proportionally"), then
// flag MPs whose G exceeds the mode-dependent critical value and whose
// stretch exceeds the stretch gate. The scan itself is embarrassingly
// parallel (spec 5); only ApplyFailures needs serialization.
//
// idx must be an index built over material-point positions keyed by MP
// id (spec 4.12 step 1's MP-neighborhood index), not the builder's node
// index -- neighborLists, perimeterAreas and multiplicity are all keyed
// by that same MP id, and since Builder.InsertBody assigns MP ids densely
// in points-slice order, that id also serves as points's positional index.
func ScanCandidates(pool *workerpool.Pool, points []*mp.MaterialPoint, idx search.Index, epsilon float64, perimeterAreas []float64, crit Criterion) ([]Candidate, error) {
	n := len(points)
	neighborLists := make([][]int64, n)
	multiplicity := make(map[int64]int, n)
	for i, m := range points {
		if !m.Active {
			continue
		}
		ids := idx.Within(m.Position, epsilon)
		neighborLists[i] = ids
		for _, id := range ids {
			multiplicity[id]++
		}
	}

	results := make([]*Candidate, n)
	_, errs := pool.Run(n, nil, func(_, i int) error {
		m := points[i]
		if !m.Active {
			return nil
		}
		var sumW, sumA float64
		for _, id := range neighborLists[i] {
			other := points[id]
			if !other.Active {
				continue
			}
			mult := float64(multiplicity[id])
			if mult == 0 {
				mult = 1
			}
			w, err := other.StrainEnergy()
			if err != nil {
				return err
			}
			sumW += w / mult
			sumA += perimeterAreas[id] / mult
		}
		if sumA <= 0 {
			return nil
		}
		G := sumW / sumA
		sigma, err := m.Stress()
		if err != nil {
			return err
		}
		mode := classifyMode(sigma)
		gc, ok := crit.Gc[mode]
		if !ok {
			return nil
		}
		stretch, err := m.MaxPrincipalStretch()
		if err != nil {
			return err
		}
		if G > gc && stretch > crit.StretchFactor*crit.CriticalStretch {
			results[i] = &Candidate{Index: i, G: G, Mode: mode}
		}
		return nil
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}
	var out []Candidate
	for _, c := range results {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// ApplyFailures serializes the dedup pass of spec 4.12: fail the highest-G
// MP first, then re-scan so clusters reflect the new active set, repeating
// until no further failures occur. rescan is called with the current
// active set and must return a fresh candidate list (typically a thin
// wrapper around ScanCandidates with a rebuilt index).
func ApplyFailures(points []*mp.MaterialPoint, candidates []Candidate, rescan func() ([]Candidate, error)) (failedIDs []int64, dissipated float64, err error) {
	for len(candidates) > 0 {
		sort.Slice(candidates, func(a, b int) bool { return candidates[a].G > candidates[b].G })
		c := candidates[0]
		m := points[c.Index]
		if m.Active {
			w, werr := m.StrainEnergy()
			if werr == nil {
				dissipated += w
			}
			m.Active = false
			failedIDs = append(failedIDs, m.ID)
		}
		candidates, err = rescan()
		if err != nil {
			return failedIDs, dissipated, err
		}
	}
	return failedIDs, dissipated, nil
}

// DetachOrphanedNodes implements spec 4.12's "nodes losing all MP support
// become detached: they no longer accumulate mass and their velocity is
// frozen." A node is orphaned when no active MP's support references it.
func DetachOrphanedNodes(global *node.GlobalState, points []*mp.MaterialPoint) {
	referenced := make(map[int64]bool)
	for _, m := range points {
		if !m.Active {
			continue
		}
		for _, id := range m.Support.NodeIDs {
			referenced[id] = true
		}
	}
	for _, id := range global.IDs() {
		n := global.Node(id)
		if n == nil || n.Detached {
			continue
		}
		if !referenced[id] {
			n.Detached = true
			n.Acceleration = algebra.NewVector(len(n.Acceleration))
		}
	}
}
