// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package element

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"

	"github.com/cmhpcl/m4extreme-go/algebra"
	"github.com/cmhpcl/m4extreme-go/constitutive"
	"github.com/cmhpcl/m4extreme-go/lme"
	"github.com/cmhpcl/m4extreme-go/mp"
	"github.com/cmhpcl/m4extreme-go/search"
	"github.com/cmhpcl/m4extreme-go/workerpool"
)

func lattice2D(t *testing.T) ([]int64, map[int64]algebra.Vector) {
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

func buildMP(t *testing.T, pos map[int64]algebra.Vector, idx search.Index, at algebra.Vector) *mp.MaterialPoint {
	kernel, ok := constitutive.New("neo-hookean")
	if !ok {
		t.Fatal("neo-hookean not registered")
	}
	if err := kernel.Init(2, fun.Prms{{N: "G", V: 1.0}, {N: "lambda", V: 2.0}}); err != nil {
		t.Fatal(err)
	}
	point := mp.New(1, 0, 2, 1.0, 1000.0, kernel)
	point.Position = at
	params := lme.Params{Beta: 1.5, Tol: 1e-12, Spacing: 1.0, Cutoff: 1e-8, MaxIter: 50}
	if err := point.RebuildSupport(idx, pos, 2.0, params); err != nil {
		t.Fatal(err)
	}
	return point
}

// TestEnergy1ForcesSumToZeroPerMP checks the partition-of-unity gradient
// identity Σ_a ∇p_a = 0: a single MP's internal-force contribution must
// sum to zero across its own support regardless of the stress state,
// since f_a = Vol·P·∇p_a and P is the same rank-2 tensor for every a.
func TestEnergy1ForcesSumToZeroPerMP(t *testing.T) {
	ids, pos := lattice2D(t)
	idx := search.NewCellIndex(1.0, 2, 0.3)
	if err := idx.Rebuild(ids, pos); err != nil {
		t.Fatal(err)
	}
	point := buildMP(t, pos, idx, algebra.Vector{0.2, -0.1})
	point.F = algebra.Hom{{1.1, 0.05}, {0.0, 0.95}}

	pool := workerpool.New(2)
	forces, err := AssembleEnergy1(pool, []*mp.MaterialPoint{point}, nil)
	if err != nil {
		t.Fatal(err)
	}
	sum := algebra.NewVector(2)
	for _, id := range point.Support.NodeIDs {
		if f, ok := forces[id]; ok {
			sum = sum.Add(f)
		}
	}
	chk.Scalar(t, "sum fx", 1e-8, sum[0], 0)
	chk.Scalar(t, "sum fy", 1e-8, sum[1], 0)
}
