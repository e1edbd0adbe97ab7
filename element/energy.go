// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package element assembles nodal forces from material points and
// boundary/body-force/two-body generators (spec 4.5-4.7, 4.11's force
// generators). It mirrors the AddToRhs accumulation idiom of
// ele/solid/elastrod.go, generalized from a fixed connectivity map (Umap)
// to the variable-width MP support of spec 3.3.
package element

import (
	"sort"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

// ForceMap holds ambient-space force vectors keyed by node id. Keys absent
// from the map are implicitly zero.
type ForceMap map[int64]algebra.Vector

// add accumulates f into the entry for id, allocating the zero vector of
// f's dimension on first touch.
func (fm ForceMap) add(id int64, f algebra.Vector) {
	if cur, ok := fm[id]; ok {
		fm[id] = cur.Add(f)
	} else {
		fm[id] = f.Clone()
	}
}

// merge adds every entry of other into fm.
func (fm ForceMap) merge(other ForceMap) {
	for id, f := range other {
		fm.add(id, f)
	}
}

// AssembleEnergy1 runs the Energy<1> force-assembly loop of spec 4.7 over
// every active material point: for MP m with support {a}, f_a +=
// Vol_m · P · ∇p_{a,m}. costs, when non-nil, seeds the work-stealing order
// with the per-MP cost recorded on the previous step (spec 5). Points are
// expected to already carry an up-to-date F (LocalState.reset having run);
// this function only computes stress and scatters forces, per the
// ordering guarantee that force-assembly reads one immutable
// configuration.
//
// Per-worker private force maps are merged in a pass over node ids sorted
// ascending, giving the "per-worker private maps followed by serial
// merge" variant of spec 5's two accepted shared-state strategies -- the
// other (fine-grained mutex on a single map) is not implemented here
// since both are declared behaviorally equivalent and only one scheduling
// strategy is needed to satisfy the determinism property.
func AssembleEnergy1(pool *workerpool.Pool, points []*mp.MaterialPoint, costs []float64) (ForceMap, error) {
	local := make([]ForceMap, pool.Workers)
	for w := range local {
		local[w] = make(ForceMap)
	}

	_, errs := pool.Run(len(points), costs, func(workerID, i int) error {
		m := points[i]
		if !m.Active {
			return nil
		}
		p, err := m.Stress()
		if err != nil {
			return err
		}
		for a, id := range m.Support.NodeIDs {
			f := p.MulVec(m.Support.Grad[a]).Scale(m.Volume)
			local[workerID].add(id, f)
		}
		return nil
	})
	if len(errs) > 0 {
		return nil, errs[0]
	}

	ids := make(map[int64]bool)
	for _, lm := range local {
		for id := range lm {
			ids[id] = true
		}
	}
	sorted := make([]int64, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

	result := make(ForceMap, len(sorted))
	for _, id := range sorted {
		for _, lm := range local {
			if f, ok := lm[id]; ok {
				result.add(id, f)
			}
		}
	}
	return result, nil
}
