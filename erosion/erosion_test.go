// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package erosion

import (
	"testing"

	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/node"
	"github.com/cmhpcl/m4extreme-go/search"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

func newPoint(t *testing.T, id int64, stretch float64) *mp.MaterialPoint {
	kernel, ok := constitutive.New("neo-hookean")
	if !ok {
		t.Fatal("neo-hookean not registered")
	}
	if err := kernel.Init(2, fun.Prms{{N: "G", V: 1.0}, {N: "lambda", V: 2.0}}); err != nil {
		t.Fatal(err)
	}
	p := mp.New(id, 0, 2, 1.0, 1000.0, kernel)
	p.F = algebra.Hom{{stretch, 0}, {0, 1}}
	p.Support = &mp.Support{NodeIDs: []int64{id}, Weights: []float64{1}}
	return p
}

// TestApplyFailuresDeactivatesHighestGFirst checks the dedup ordering
// policy of spec 4.12: among simultaneously-flagged candidates, the
// highest-G one is deactivated first.
func TestApplyFailuresDeactivatesHighestGFirst(t *testing.T) {
	p0 := newPoint(t, 0, 1.2)
	p1 := newPoint(t, 1, 1.2)
	points := []*mp.MaterialPoint{p0, p1}

	candidates := []Candidate{
		{Index: 0, G: 1.0},
		{Index: 1, G: 5.0},
	}
	calls := 0
	rescan := func() ([]Candidate, error) {
		calls++
		if calls == 1 {
			return []Candidate{{Index: 0, G: 1.0}}, nil
		}
		return nil, nil
	}
	failed, dissipated, err := ApplyFailures(points, candidates, rescan)
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected both MPs to fail, got %v", failed)
	}
	if failed[0] != 1 {
		t.Fatalf("expected MP 1 (higher G) to fail first, got %d", failed[0])
	}
	if p0.Active || p1.Active {
		t.Fatal("expected both MPs deactivated")
	}
	if dissipated <= 0 {
		t.Fatal("expected positive dissipated energy")
	}
}

// TestScanCandidatesUsesMPKeyedIndex checks that ScanCandidates resolves
// neighbor ids returned by idx as MP ids (indices into points), not node
// ids, by building the same kind of MP-position index driver.Model builds
// before calling ScanCandidates.
func TestScanCandidatesUsesMPKeyedIndex(t *testing.T) {
	p0 := newPoint(t, 0, 1.0)
	p0.Position = algebra.Vector{0, 0}
	p1 := newPoint(t, 1, 1.0)
	p1.Position = algebra.Vector{0.1, 0}
	points := []*mp.MaterialPoint{p0, p1}

	idx := search.NewCellIndex(1.0, 2, 0.3)
	ids := []int64{0, 1}
	positions := map[int64][]float64{0: {0, 0}, 1: {0.1, 0}}
	if err := idx.Rebuild(ids, positions); err != nil {
		t.Fatal(err)
	}

	pool := workerpool.New(1)
	perimeter := []float64{1.0, 1.0}
	crit := Criterion{Gc: map[Mode]float64{ModeDamage: -1}, StretchFactor: 0, CriticalStretch: 0}
	candidates, err := ScanCandidates(pool, points, idx, 1.0, perimeter, crit)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected both MPs flagged once each neighbor is correctly resolved by MP id, got %d", len(candidates))
	}
}

func TestDetachOrphanedNodes(t *testing.T) {
	n0 := node.New(0, 0, 2)
	n1 := node.New(1, 0, 2)
	global := node.NewGlobalState(map[int64]*node.Node{0: n0, 1: n1})

	active := newPoint(t, 0, 1.0)
	active.Support.NodeIDs = []int64{0}

	DetachOrphanedNodes(global, []*mp.MaterialPoint{active})

	if n0.Detached {
		t.Fatal("node 0 is still referenced, must not be detached")
	}
	if !n1.Detached {
		t.Fatal("node 1 has no referencing MP, must be detached")
	}
}
