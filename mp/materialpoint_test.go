// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mp

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cmhpcl/m4extreme-go/search"
)

func lattice2D() ([]int64, map[int64]algebra.Vector) {
	pos := make(map[int64]algebra.Vector)
	var ids []int64
	var id int64
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			pos[id] = algebra.Vector{float64(i), float64(j)}
			ids = append(ids, id)
			id++
		}
	}
	return ids, pos
}

func newTestMP(t *testing.T) *MaterialPoint {
	kernel, ok := constitutive.New("neo-hookean")
	if !ok {
		t.Fatal("neo-hookean kernel not registered")
	}
	if err := kernel.Init(2, fun.Prms{{N: "G", V: 1.0}, {N: "lambda", V: 2.0}}); err != nil {
		t.Fatal(err)
	}
	point := New(1, 0, 2, 1.0, 1000.0, kernel)
	return point
}

func TestRigidTranslationPreservesIdentityF(t *testing.T) {
	ids, pos := lattice2D()
	idx := search.NewCellIndex(1.0, 2, 0.3)
	if err := idx.Rebuild(ids, pos); err != nil {
		t.Fatal(err)
	}
	point := newTestMP(t)
	point.Position = algebra.Vector{0.1, -0.2}
	params := lme.Params{Beta: 1.5, Tol: 1e-12, Spacing: 1.0, Cutoff: 1e-8, MaxIter: 50}

	if err := point.RebuildSupport(idx, pos, 2.0, params); err != nil {
		t.Fatal(err)
	}
	if err := point.UpdateShapeFunctions(pos, params); err != nil {
		t.Fatal(err)
	}
	sum := point.Support.SumWeights()
	chk.Scalar(t, "sum p", 1e-9, sum, 1)

	// translate the whole lattice rigidly by Δ, then reset: F must stay
	// at the identity (pure translation has zero deformation gradient
	// increment)
	delta := algebra.Vector{0.05, 0.03}
	moved := make(map[int64]algebra.Vector, len(pos))
	for id, x := range pos {
		moved[id] = x.Add(delta)
	}
	if err := point.UpdateShapeFunctions(moved, params); err != nil {
		t.Fatal(err)
	}
	if err := point.Reset(moved); err != nil {
		t.Fatal(err)
	}
	identity := algebra.Identity(2)
	for i := 0; i < 2; i++ {
		chk.Array(t, "F row", 1e-6, point.F[i], identity[i])
	}
}

func TestResetDeactivatesOnNonPositiveJacobian(t *testing.T) {
	point := newTestMP(t)
	// an inverted support (two nodes collapsed past each other) gives
	// F = [[-2,0],[0,0]], so det(F) is zero (non-positive); Reset must deactivate the MP per spec 3.2
	// invariant (c) rather than silently propagating a folded state.
	point.FOld = algebra.Identity(2)
	point.Support = &Support{
		NodeIDs: []int64{0, 1},
		Weights: []float64{0.5, 0.5},
		RefGrad: []algebra.Vector{{-1, 0}, {1, 0}},
	}
	inverted := map[int64]algebra.Vector{
		0: {1, 0},
		1: {-1, 0},
	}
	err := point.Reset(inverted)
	if err == nil {
		t.Fatal("expected non-positive Jacobian to be reported")
	}
	if point.Active {
		t.Fatal("expected MP to be deactivated")
	}
}
