// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lme

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cmhpcl/m4extreme-go/algebra"
)

func squareLattice() ([]int64, []algebra.Vector) {
	var ids []int64
	var pos []algebra.Vector
	var id int64
	for i := -2; i <= 2; i++ {
		for j := -2; j <= 2; j++ {
			ids = append(ids, id)
			pos = append(pos, algebra.Vector{float64(i), float64(j)})
			id++
		}
	}
	return ids, pos
}

func TestPartitionOfUnityAndFirstMoment(t *testing.T) {
	ids, pos := squareLattice()
	x := algebra.Vector{0.2, -0.1}
	params := Params{Beta: 1.5, Tol: 1e-12, Spacing: 1.0, Cutoff: 1e-8, MaxIter: 50}
	res, err := Solve(x, ids, pos, algebra.NewVector(2), params)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Converged {
		t.Fatalf("expected convergence, residual=%g", res.Residual)
	}
	var sumP float64
	var moment algebra.Vector = algebra.NewVector(2)
	for i, w := range res.Weights {
		sumP += w
		d := pos[idxOf(ids, res.NodeIDs[i])].Sub(x)
		moment.AddScaled(w, d)
	}
	chk.Scalar(t, "sum p", 1e-10, sumP, 1)
	if moment.Norm() > 1e-8 {
		t.Fatalf("first-moment consistency violated: |moment|=%g", moment.Norm())
	}
}

func idxOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func TestGradientMatchesCentralDifference(t *testing.T) {
	ids, pos := squareLattice()
	x0 := algebra.Vector{0.1, 0.05}
	params := Params{Beta: 1.5, Tol: 1e-13, Spacing: 1.0, Cutoff: 1e-9, MaxIter: 50}
	res0, err := Solve(x0, ids, pos, algebra.NewVector(2), params)
	if err != nil {
		t.Fatal(err)
	}

	h := 1e-6
	for a := 0; a < len(res0.NodeIDs); a++ {
		for dim := 0; dim < 2; dim++ {
			xp := append(algebra.Vector(nil), x0...)
			xm := append(algebra.Vector(nil), x0...)
			xp[dim] += h
			xm[dim] -= h
			rp, err := Solve(xp, ids, pos, res0.Lambda, params)
			if err != nil {
				t.Fatal(err)
			}
			rm, err := Solve(xm, ids, pos, res0.Lambda, params)
			if err != nil {
				t.Fatal(err)
			}
			pp := weightOf(rp, res0.NodeIDs[a])
			pm := weightOf(rm, res0.NodeIDs[a])
			cd := (pp - pm) / (2 * h)
			analytic := res0.Grad[a][dim]
			if math.Abs(cd-analytic) > 1e-4 {
				t.Fatalf("node %d dim %d: central-diff=%g analytic=%g", a, dim, cd, analytic)
			}
		}
	}
}

func weightOf(res *Result, id int64) float64 {
	for i, v := range res.NodeIDs {
		if v == id {
			return res.Weights[i]
		}
	}
	return 0
}
